// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/repurpose-engine/internal/cache"
	"github.com/pdiddy/repurpose-engine/internal/pubmed"
	"github.com/pdiddy/repurpose-engine/internal/queryplan"
	"github.com/pdiddy/repurpose-engine/internal/rank"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Plan, retrieve, and rank literature for one candidate",
	Long: `Search runs the retrieval half of the pipeline for a single candidate:
query planning, cached literature search and fetch, per-variant lexical
ranking, and reciprocal-rank fusion. No extraction or scoring happens;
use it to inspect what the full pipeline would read.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("candidate", "", "candidate drug name (required)")
	searchCmd.Flags().String("condition", "", "target condition (required)")
	searchCmd.Flags().String("synonyms", "", "candidate synonyms (comma-separated)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("candidate")
	condition, _ := cmd.Flags().GetString("condition")
	synonyms, _ := cmd.Flags().GetString("synonyms")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if name == "" || condition == "" {
		return fmt.Errorf("--candidate and --condition are required")
	}

	var syns []string
	for _, s := range strings.Split(synonyms, ",") {
		if s = strings.TrimSpace(s); s != "" {
			syns = append(syns, s)
		}
	}
	cand := types.NewCandidate(name, condition, syns...)

	cfg := loadConfig()
	store, err := cache.Open(cfg.Cache.Dir, cfg.Cache.InMemory)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()
	client := pubmed.New(store, cfg.Retrieval)

	ctx := context.Background()
	category := queryplan.Classify(cand.Condition)
	variants := queryplan.Plan(cand, category)

	fmt.Fprintf(os.Stderr, "endpoint category: %s, %d query variants\n",
		category, len(variants))

	var lists []types.RankedList
	for _, variant := range variants {
		pmids, err := client.Search(ctx, cand.ID, variant.Query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "variant %s failed: %v\n", variant.Kind, err)
			continue
		}
		docs, err := client.Fetch(ctx, cand.ID, pmids)
		if err != nil {
			fmt.Fprintf(os.Stderr, "variant %s fetch failed: %v\n", variant.Kind, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "variant %-16s %d documents\n", variant.Kind, len(docs))

		if ranked := rank.BM25(variant.Query, docs, cfg.Rank, cfg.Rank.PerVariantTop); len(ranked) > 0 {
			lists = append(lists, ranked)
		}
	}

	fused := rank.Fuse(lists, cfg.Rank.RRFConstant)
	if len(fused) > cfg.Rank.FinalTop {
		fused = fused[:cfg.Rank.FinalTop]
	}
	if len(fused) == 0 {
		return fmt.Errorf("no documents retrieved for %q", cand.Name)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fused)
	}

	fmt.Printf("%-4s  %-10s  %-8s  %-6s  %s\n", "Rank", "PMID", "Score", "Year", "Title")
	fmt.Println(strings.Repeat("-", 90))
	for i, rd := range fused {
		title := rd.Document.Title
		if len(title) > 56 {
			title = title[:53] + "..."
		}
		fmt.Printf("%-4d  %-10s  %-8.4f  %-6d  %s\n",
			i+1, rd.Document.PMID, rd.Score, rd.Document.Year, title)
	}
	fmt.Printf("\n%d documents\n", len(fused))
	return nil
}
