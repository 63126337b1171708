// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/repurpose-engine/internal/dossier"
	"github.com/pdiddy/repurpose-engine/internal/score"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Recompute scores and decision from a persisted dossier",
	Long: `Score loads a dossier YAML written by triage and recomputes the five
dimension scores and the gate decision under the current policy. The
computation is pure and offline: rescoring the same dossier under the
same policy always prints identical numbers.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("dossier", "", "dossier YAML path (required)")
	scoreCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("dossier")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if path == "" {
		return fmt.Errorf("--dossier is required")
	}

	d, err := dossier.Load(path)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	card, gate := score.NewScorer(cfg.Policy).Evaluate(d)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			CandidateID   string   `json:"candidate_id"`
			CandidateName string   `json:"candidate_name"`
			Scores        any      `json:"scores"`
			Decision      string   `json:"decision"`
			Reasons       []string `json:"reasons"`
		}{d.CandidateID, d.CandidateName, card, string(gate.Decision), gate.Reasons})
	}

	fmt.Printf("%s (%s)\n\n", d.CandidateName, d.Condition)
	fmt.Printf("  evidence strength       %5.1f / 30\n", card.EvidenceStrength)
	fmt.Printf("  mechanism plausibility  %5.1f / 20\n", card.MechanismPlausibility)
	fmt.Printf("  translatability         %5.1f / 20\n", card.Translatability)
	fmt.Printf("  safety fit              %5.1f / 20\n", card.SafetyFit)
	fmt.Printf("  practicality            %5.1f / 10\n", card.Practicality)
	fmt.Printf("  total                   %5.1f / 100\n\n", card.Total)

	fmt.Printf("decision: %s\n", gate.Decision)
	if len(gate.Reasons) > 0 {
		fmt.Printf("reasons:  %s\n", strings.Join(gate.Reasons, ", "))
	}
	return nil
}
