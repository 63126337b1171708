// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/repurpose-engine/internal/dossier"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

var shortlistCmd = &cobra.Command{
	Use:   "shortlist",
	Short: "List past candidate results from the results database",
	Long: `Shortlist queries the results database written by triage runs, ordered
by total score. Filter with --decision to see only GO (or MAYBE, or
NO-GO) candidates.`,
	RunE: runShortlist,
}

func init() {
	shortlistCmd.Flags().String("decision", "", "filter by decision (GO, MAYBE, NO-GO)")
	shortlistCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(shortlistCmd)
}

func runShortlist(cmd *cobra.Command, args []string) error {
	decisionFlag, _ := cmd.Flags().GetString("decision")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var decision types.Decision
	switch d := types.Decision(strings.ToUpper(decisionFlag)); d {
	case "", types.DecisionGo, types.DecisionMaybe, types.DecisionNoGo:
		decision = d
	default:
		return fmt.Errorf("unknown decision %q", decisionFlag)
	}

	cfg := loadConfig()
	if cfg.Triage.ResultsDB == "" {
		return fmt.Errorf("no results database configured (triage.results_db)")
	}

	store, err := dossier.OpenStore(cfg.Triage.ResultsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Shortlist(context.Background(), decision)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("%-20s  %-8s  %-6s  %-12s  %s\n",
		"Candidate", "Decision", "Score", "Run", "Reasons")
	fmt.Println(strings.Repeat("-", 80))
	for _, r := range results {
		run := r.RunID
		if len(run) > 12 {
			run = run[:12]
		}
		fmt.Printf("%-20s  %-8s  %-6.1f  %-12s  %s\n",
			r.CandidateName, r.Decision, r.Scores.Total, run,
			strings.Join(r.Reasons, ", "))
	}
	fmt.Printf("\n%d results\n", len(results))
	return nil
}
