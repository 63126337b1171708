// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/repurpose-engine/internal/ai"
	"github.com/pdiddy/repurpose-engine/internal/cache"
	"github.com/pdiddy/repurpose-engine/internal/dossier"
	"github.com/pdiddy/repurpose-engine/internal/extract"
	"github.com/pdiddy/repurpose-engine/internal/pubmed"
	"github.com/pdiddy/repurpose-engine/internal/triage"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Run the full evidence pipeline over a candidate batch",
	Long: `Triage reads a candidate list, runs each candidate through retrieval,
ranking, extraction, quality gating, and scoring, writes one dossier
YAML per candidate, and records scores and decisions in the results
database.`,
	RunE: runTriage,
}

func init() {
	triageCmd.Flags().String("candidates", "", "YAML file listing candidates (required)")
	triageCmd.Flags().String("condition", "", "target condition; overrides per-candidate conditions")
	triageCmd.Flags().String("output-dir", "", "dossier output directory (overrides config)")

	rootCmd.AddCommand(triageCmd)
}

// candidateEntry is one row of the candidates YAML file.
type candidateEntry struct {
	Name      string   `yaml:"name"`
	Synonyms  []string `yaml:"synonyms,omitempty"`
	Condition string   `yaml:"condition,omitempty"`
}

func loadCandidates(path, condition string) ([]types.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidates file: %w", err)
	}

	var entries []candidateEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing candidates file: %w", err)
	}

	var candidates []types.Candidate
	for i, e := range entries {
		cond := condition
		if cond == "" {
			cond = e.Condition
		}
		if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(cond) == "" {
			return nil, fmt.Errorf("candidate %d: name and condition are required", i+1)
		}
		candidates = append(candidates, types.NewCandidate(e.Name, cond, e.Synonyms...))
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("candidates file %s lists no candidates", path)
	}
	return candidates, nil
}

func runTriage(cmd *cobra.Command, args []string) error {
	candidatesPath, _ := cmd.Flags().GetString("candidates")
	condition, _ := cmd.Flags().GetString("condition")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	if candidatesPath == "" {
		return fmt.Errorf("--candidates is required")
	}

	cfg := loadConfig()
	if outputDir != "" {
		cfg.Triage.OutputDir = outputDir
	}

	candidates, err := loadCandidates(candidatesPath, condition)
	if err != nil {
		return err
	}

	store, err := cache.Open(cfg.Cache.Dir, cfg.Cache.InMemory)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	generator, err := ai.NewGenerator(cfg.AI)
	if err != nil {
		return fmt.Errorf("configuring inference client: %w", err)
	}

	opts := []triage.Option{}

	embedder, err := ai.NewEmbedder(cfg.AI)
	if err != nil {
		return fmt.Errorf("configuring embedding client: %w", err)
	}
	if embedder != nil {
		cached := ai.NewCachedEmbedder(store, embedder, cfg.AI.EmbedModel)
		opts = append(opts, triage.WithEmbedder(cached))
	}

	if cfg.Triage.ResultsDB != "" {
		results, err := dossier.OpenStore(cfg.Triage.ResultsDB)
		if err != nil {
			return fmt.Errorf("opening results database: %w", err)
		}
		defer results.Close()
		opts = append(opts, triage.WithStore(results))
	}

	if cfg.Triage.RegistryFeed != "" {
		trials, err := dossier.LoadRegistry(cfg.Triage.RegistryFeed)
		if err != nil {
			return fmt.Errorf("loading registry feed: %w", err)
		}
		opts = append(opts, triage.WithRegistry(trials))
	}

	extractor := extract.New(generator, cfg.Extraction, cfg.AI.Timeout)
	pipeline := triage.New(pubmed.New(store, cfg.Retrieval), extractor, cfg, opts...)

	batch, err := pipeline.Run(context.Background(), candidates)
	printBatch(batch)
	return err
}

func printBatch(batch triage.BatchResult) {
	fmt.Printf("run %s: %d succeeded, %d failed\n\n",
		batch.RunID, batch.Succeeded, batch.Failed)

	fmt.Printf("%-20s  %-8s  %-6s  %s\n", "Candidate", "Decision", "Score", "Reasons")
	fmt.Println(strings.Repeat("-", 70))
	for _, r := range batch.Results {
		if r.Failed() {
			fmt.Printf("%-20s  %-8s  %-6s  %v\n", r.Candidate.Name, "FAILED", "-", r.Err)
			continue
		}
		fmt.Printf("%-20s  %-8s  %-6.1f  %s\n",
			r.Candidate.Name, r.Gate.Decision, r.Scores.Total,
			strings.Join(r.Gate.Reasons, ", "))
	}

	if len(batch.Audit) > 0 {
		fmt.Println("\nextraction audit:")
		reasons := make([]string, 0, len(batch.Audit))
		for reason := range batch.Audit {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  %-24s %d\n", reason, batch.Audit[reason])
		}
	}
}
