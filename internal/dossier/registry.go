// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dossier

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Trial is one prior registered trial outcome from the registry feed.
type Trial struct {
	Drug      string
	Condition string
	Outcome   string
}

// positiveOutcomes are the registry outcome labels counted as positive.
var positiveOutcomes = map[string]bool{
	"positive": true,
	"met":      true,
	"success":  true,
}

// LoadRegistry reads the trial-registry CSV feed. The expected columns
// are drug, condition, outcome; a header row is detected and skipped.
func LoadRegistry(path string) ([]Trial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening registry feed: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var trials []Trial
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing registry feed: %w", err)
		}
		if len(row) < 3 {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), "drug") {
				continue
			}
		}
		trials = append(trials, Trial{
			Drug:      strings.TrimSpace(row[0]),
			Condition: strings.TrimSpace(row[1]),
			Outcome:   strings.ToLower(strings.TrimSpace(row[2])),
		})
	}
	return trials, nil
}

// Annotate matches registry trials to the candidate by name-token
// overlap and reports whether any matched trial had a positive outcome.
// A nil note means the feed held nothing about this candidate.
func Annotate(cand types.Candidate, trials []Trial) *types.RegistryNote {
	names := map[string]bool{}
	for _, name := range cand.Names() {
		for _, tok := range strings.Fields(name) {
			names[tok] = true
		}
	}

	note := types.RegistryNote{}
	for _, trial := range trials {
		if !overlaps(trial.Drug, names) {
			continue
		}
		note.TrialsMatched++
		if positiveOutcomes[trial.Outcome] {
			note.PositiveFound = true
		}
	}
	if note.TrialsMatched == 0 {
		return nil
	}

	if note.PositiveFound {
		note.Note = "positive trial found in registry"
	} else {
		note.Note = "no positive trial found"
	}
	return &note
}

func overlaps(drug string, names map[string]bool) bool {
	for _, tok := range strings.Fields(strings.ToLower(drug)) {
		if names[tok] {
			return true
		}
	}
	return false
}
