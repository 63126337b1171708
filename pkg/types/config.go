// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "repurpose-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetrievalConfig holds settings for the literature search stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of PMIDs requested per query
	// variant (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// APIKey is an optional NCBI API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestDelay is the pause between consecutive E-utilities calls
	// (default 350ms, NCBI's unauthenticated budget).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxRetries bounds retry attempts for transient failures (default 4).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CacheConfig holds settings for the retrieval cache.
type CacheConfig struct {
	// Dir is the on-disk cache location.
	Dir string `json:"dir" yaml:"dir"`

	// InMemory selects an ephemeral cache; used by tests.
	InMemory bool `json:"in_memory" yaml:"in_memory"`
}

// RankConfig holds parameters for lexical ranking and fusion.
type RankConfig struct {
	// K1 is the BM25 term-frequency saturation parameter (default 1.5).
	K1 float64 `json:"k1" yaml:"k1"`

	// B is the BM25 length-normalization parameter (default 0.75).
	B float64 `json:"b" yaml:"b"`

	// PerVariantTop is the number of documents each variant's BM25 pass
	// keeps (default 50).
	PerVariantTop int `json:"per_variant_top" yaml:"per_variant_top"`

	// FuseTop is the size of the fused head eligible for semantic
	// reranking (default 60).
	FuseTop int `json:"fuse_top" yaml:"fuse_top"`

	// FinalTop is the number of documents passed to extraction
	// (default 24).
	FinalTop int `json:"final_top" yaml:"final_top"`

	// RRFConstant is the reciprocal-rank fusion damping constant
	// (default 60).
	RRFConstant float64 `json:"rrf_constant" yaml:"rrf_constant"`
}

// AIConfig holds settings for the LLM inference and embedding services.
type AIConfig struct {
	// BaseURL is the OpenAI-compatible inference endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates inference calls; "none" for local servers.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the inference model identifier.
	Model string `json:"model" yaml:"model"`

	// EmbedBaseURL is the embedding endpoint. Empty disables semantic
	// reranking (lexical fusion order is used instead).
	EmbedBaseURL string `json:"embed_base_url,omitempty" yaml:"embed_base_url,omitempty"`

	// EmbedModel is the embedding model identifier.
	EmbedModel string `json:"embed_model,omitempty" yaml:"embed_model,omitempty"`

	// Timeout bounds a single inference call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ExtractionConfig holds settings for evidence extraction.
type ExtractionConfig struct {
	// MaxRepairs bounds re-prompt attempts after malformed output
	// (default 2).
	MaxRepairs int `json:"max_repairs" yaml:"max_repairs"`

	// MaxRetries bounds retries of failed inference calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Policy holds the scoring and gating thresholds. A Policy is fixed for
// the duration of a run; decisions are pure functions of it.
type Policy struct {
	// MinUniquePMIDs is the hard-gate floor on distinct supporting
	// source documents (default 3).
	MinUniquePMIDs int `json:"min_unique_pmids" yaml:"min_unique_pmids"`

	// MinSupporting is the hard-gate floor on supporting record count
	// (default 2).
	MinSupporting int `json:"min_supporting" yaml:"min_supporting"`

	// TopicMin is the hard-gate floor on topic match ratio (default 0.30).
	TopicMin float64 `json:"topic_min" yaml:"topic_min"`

	// GoScore is the soft-gate GO threshold (default 60).
	GoScore float64 `json:"go_score" yaml:"go_score"`

	// MaybeScore is the soft-gate MAYBE threshold (default 40).
	MaybeScore float64 `json:"maybe_score" yaml:"maybe_score"`

	// SafetyFloor forces NO-GO when safety_fit falls below it
	// (default 15).
	SafetyFloor float64 `json:"safety_floor" yaml:"safety_floor"`

	// HardSafety makes a safety-blacklist hit a hard gate. When false
	// the hit only penalizes the safety_fit score.
	HardSafety bool `json:"hard_safety" yaml:"hard_safety"`

	// SafetyBlacklist lists candidate names with disqualifying safety
	// records, lowercased.
	SafetyBlacklist []string `json:"safety_blacklist,omitempty" yaml:"safety_blacklist,omitempty"`
}

// TriageConfig holds batch-run settings.
type TriageConfig struct {
	// Workers is the candidate worker-pool size (default NumCPU/2,
	// minimum 1).
	Workers int `json:"workers" yaml:"workers"`

	// OutputDir receives per-candidate dossier YAML files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ResultsDB is the SQLite results database path.
	ResultsDB string `json:"results_db" yaml:"results_db"`

	// RegistryFeed is an optional CSV of prior trial outcomes.
	RegistryFeed string `json:"registry_feed,omitempty" yaml:"registry_feed,omitempty"`
}

// Config is the immutable run configuration, constructed once at startup
// and passed by parameter into every component constructor. No component
// reads ambient process state.
type Config struct {
	Retrieval  RetrievalConfig  `json:"retrieval" yaml:"retrieval"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Rank       RankConfig       `json:"rank" yaml:"rank"`
	AI         AIConfig         `json:"ai" yaml:"ai"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Policy     Policy           `json:"policy" yaml:"policy"`
	Triage     TriageConfig     `json:"triage" yaml:"triage"`
}

// DefaultConfig returns a Config with every tunable at its documented
// default.
func DefaultConfig() Config {
	return Config{
		Retrieval: RetrievalConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "repurpose-engine/0.1",
			},
			MaxResults:   100,
			RequestDelay: 350 * time.Millisecond,
			MaxRetries:   4,
		},
		Cache: CacheConfig{
			Dir: "cache",
		},
		Rank: RankConfig{
			K1:            1.5,
			B:             0.75,
			PerVariantTop: 50,
			FuseTop:       60,
			FinalTop:      24,
			RRFConstant:   60,
		},
		AI: AIConfig{
			Timeout: 120 * time.Second,
		},
		Extraction: ExtractionConfig{
			MaxRepairs: 2,
			MaxRetries: 3,
		},
		Policy: Policy{
			MinUniquePMIDs: 3,
			MinSupporting:  2,
			TopicMin:       0.30,
			GoScore:        60,
			MaybeScore:     40,
			SafetyFloor:    15,
		},
		Triage: TriageConfig{
			OutputDir: "dossiers",
			ResultsDB: "results.db",
		},
	}
}
