// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns top-ranked documents into structured evidence
// records via the LLM inference service, with repair retries for
// malformed output and hallucination checks before acceptance.
package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/repurpose-engine/internal/ai"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Audit reasons local to extraction (the integrity reason codes live in
// pkg/types alongside the records they annotate).
const (
	reasonCallFailed = "llm_call_failed"
	reasonNoEvidence = "no_evidence"
)

// rawRecord mirrors the JSON object the extraction contract demands.
type rawRecord struct {
	PMID       string `json:"pmid"`
	Direction  string `json:"direction"`
	Model      string `json:"model"`
	Endpoint   string `json:"endpoint"`
	Mechanism  string `json:"mechanism"`
	Confidence string `json:"confidence"`
	Supports   bool   `json:"supports"`
	Claim      string `json:"claim"`
}

// Summary holds per-candidate extraction counts.
type Summary struct {
	// Extracted counts accepted records.
	Extracted int

	// Rejected counts records dropped by a hallucination check.
	Rejected int

	// Contaminated counts the subset of rejections tagged
	// cross_drug_leakage.
	Contaminated int

	// Malformed counts documents whose output never parsed.
	Malformed int

	// Failed counts documents whose inference calls all failed.
	Failed int
}

// backoffBase controls the base duration for inference-call backoff.
// Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Extractor invokes the inference service per document and validates the
// result. Calls are serialized per candidate by the orchestrator; the
// Extractor itself is stateless and safe for concurrent use across
// candidates.
type Extractor struct {
	gen     ai.Generator
	cfg     types.ExtractionConfig
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs an Extractor. timeout bounds a single inference call;
// zero means no per-call bound beyond the caller's context.
func New(gen ai.Generator, cfg types.ExtractionConfig, timeout time.Duration) *Extractor {
	return &Extractor{
		gen:     gen,
		cfg:     cfg,
		timeout: timeout,
		logger:  slog.Default().With("component", "extract"),
	}
}

// ExtractAll processes documents serially and returns the accepted
// records with a summary. Individual failures are counted, never raised;
// audit reasons are tallied into counters.
func (e *Extractor) ExtractAll(ctx context.Context, cand types.Candidate, docs []types.Document, otherNames []string, counters *Counters) ([]types.EvidenceRecord, Summary) {
	var (
		records []types.EvidenceRecord
		summary Summary
	)
	for _, doc := range docs {
		rec, reason, err := e.ExtractDoc(ctx, cand, doc, otherNames)
		switch {
		case err != nil:
			e.logger.Warn("extraction call failed",
				"candidate", cand.Name, "pmid", doc.PMID, "err", err)
			counters.Inc(reasonCallFailed)
			summary.Failed++
		case reason == types.ReasonMalformed:
			counters.Inc(reason)
			summary.Malformed++
		case reason != "":
			counters.Inc(reason)
			summary.Rejected++
			if reason == types.ReasonCrossDrugLeakage {
				summary.Contaminated++
			}
		default:
			records = append(records, rec)
			summary.Extracted++
		}
	}
	return records, summary
}

// ExtractDoc extracts one evidence record from one document.
//
// A non-empty reason with a nil error means the document yielded no
// usable record: malformed output after all repair attempts, or a record
// rejected by a hallucination check. An error is returned only when every
// inference call failed outright.
func (e *Extractor) ExtractDoc(ctx context.Context, cand types.Candidate, doc types.Document, otherNames []string) (types.EvidenceRecord, string, error) {
	parseErr := ""
	var raw rawRecord

	maxRepairs := e.cfg.MaxRepairs
	if maxRepairs < 0 {
		maxRepairs = 0
	}

	parsed := false
	for attempt := 0; attempt <= maxRepairs; attempt++ {
		prompt, err := renderPrompt(cand, doc, parseErr)
		if err != nil {
			return types.EvidenceRecord{}, "", err
		}

		text, err := e.callWithRetry(ctx, prompt)
		if err != nil {
			return types.EvidenceRecord{}, "", err
		}

		raw = rawRecord{}
		if err := json.Unmarshal([]byte(ai.Sanitize(text)), &raw); err != nil {
			parseErr = err.Error()
			continue
		}
		parsed = true
		break
	}
	if !parsed {
		return types.EvidenceRecord{}, types.ReasonMalformed, nil
	}

	// An empty claim is the contract's "nothing here" answer, not a
	// defect.
	if strings.TrimSpace(raw.Claim) == "" {
		return types.EvidenceRecord{}, reasonNoEvidence, nil
	}

	rec, ok := normalize(raw, doc)
	if !ok {
		return types.EvidenceRecord{}, types.ReasonMalformed, nil
	}

	if reason := e.check(cand, doc, rec, otherNames); reason != "" {
		return types.EvidenceRecord{}, reason, nil
	}
	return rec, "", nil
}

// check runs the hallucination defenses in a fixed order and returns the
// first failing reason.
func (e *Extractor) check(cand types.Candidate, doc types.Document, rec types.EvidenceRecord, otherNames []string) string {
	// Document-id check: the claimed source must be the document passed
	// in; models occasionally fabricate a different identifier.
	if rec.PMID != doc.PMID {
		return types.ReasonWrongDocument
	}

	// Anchoring check: the candidate (or a synonym) must appear in the
	// claim or the source abstract.
	names := cand.Names()
	if !mentionsAny(rec.Claim, names) && !mentionsAny(doc.Text(), names) {
		return types.ReasonNotAnchored
	}

	// Cross-entity contamination: a claim naming another monitored
	// candidate without naming this one belongs to that candidate.
	if !mentionsAny(rec.Claim, names) && mentionsAny(rec.Claim, otherNames) {
		return types.ReasonCrossDrugLeakage
	}

	return ""
}

// normalize maps the raw JSON onto a validated EvidenceRecord. Unknown
// enum spellings degrade to the unknown variants rather than failing;
// a missing pmid is filled from the source document.
func normalize(raw rawRecord, doc types.Document) (types.EvidenceRecord, bool) {
	if strings.TrimSpace(raw.Claim) == "" {
		return types.EvidenceRecord{}, false
	}

	rec := types.EvidenceRecord{
		PMID:      strings.TrimSpace(raw.PMID),
		Endpoint:  strings.TrimSpace(raw.Endpoint),
		Mechanism: strings.TrimSpace(raw.Mechanism),
		Supports:  raw.Supports,
		Claim:     strings.TrimSpace(raw.Claim),
	}
	if rec.PMID == "" {
		rec.PMID = doc.PMID
	}

	switch d := types.Direction(strings.ToLower(strings.TrimSpace(raw.Direction))); d {
	case types.DirectionBenefit, types.DirectionHarm, types.DirectionNeutral:
		rec.Direction = d
	default:
		rec.Direction = types.DirectionUnknown
	}

	switch m := types.EvidenceModel(strings.ToLower(strings.TrimSpace(raw.Model))); m {
	case types.ModelHuman, types.ModelAnimal, types.ModelCell, types.ModelComputational:
		rec.Model = m
	default:
		rec.Model = types.ModelUnknown
	}

	switch c := types.Confidence(strings.ToUpper(strings.TrimSpace(raw.Confidence))); c {
	case types.ConfidenceHigh, types.ConfidenceMed:
		rec.Confidence = c
	default:
		rec.Confidence = types.ConfidenceLow
	}

	// A record that does not claim support cannot carry supports=true.
	if rec.Direction == types.DirectionHarm {
		rec.Supports = false
	}

	return rec, rec.Validate() == nil
}

// callWithRetry calls the inference service with exponential backoff on
// call failure, applying the per-call timeout.
func (e *Extractor) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := e.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		callCtx := ctx
		cancel := func() {}
		if e.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		}
		text, err := e.gen.Generate(callCtx, prompt)
		cancel()
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}
