// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dossier assembles the per-candidate evidence package and
// persists it for scoring and human review. Assembly is pure
// aggregation: no network and no inference calls happen here.
package dossier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// excerptLen bounds the abstract excerpt kept on a top document.
const excerptLen = 280

// Input carries everything assembly needs for one candidate.
type Input struct {
	Candidate types.Candidate
	Category  types.EndpointCategory
	RunID     string

	// Evidence is the post-quality-gate record set, relabeled records
	// included.
	Evidence []types.EvidenceRecord

	// TopDocuments is the post-fusion ranked head, pre-extraction.
	TopDocuments types.RankedList

	QC types.QCMetrics

	Registry *types.RegistryNote
}

// Assemble builds the dossier: evidence in input order, top documents
// with excerpts, and the document-uniqueness counts derived here so
// every consumer sees the same numbers.
func Assemble(in Input) types.Dossier {
	d := types.Dossier{
		CandidateID:      in.Candidate.ID,
		CandidateName:    in.Candidate.Name,
		Condition:        in.Candidate.Condition,
		EndpointCategory: in.Category,
		RunID:            in.RunID,
		Evidence:         in.Evidence,
		QC:               in.QC,
		Registry:         in.Registry,
	}

	seen := map[string]bool{}
	supportingSeen := map[string]bool{}
	for _, rec := range in.Evidence {
		seen[rec.PMID] = true
		if rec.Supports {
			supportingSeen[rec.PMID] = true
		}
	}

	for _, rd := range in.TopDocuments {
		seen[rd.Document.PMID] = true
		d.TopDocuments = append(d.TopDocuments, types.TopDocument{
			PMID:       rd.Document.PMID,
			Title:      rd.Document.Title,
			Year:       rd.Document.Year,
			Excerpt:    excerpt(rd.Document.Abstract),
			FusedScore: rd.Score,
		})
	}

	d.QC.UniquePMIDs = len(seen)
	d.QC.UniqueSupportingPMIDs = len(supportingSeen)
	return d
}

func excerpt(abstract string) string {
	abstract = strings.TrimSpace(abstract)
	if len(abstract) <= excerptLen {
		return abstract
	}
	cut := abstract[:excerptLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// Save writes the dossier as YAML under dir, one file per candidate.
// Returns the written path.
func Save(dir string, d types.Dossier) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating dossier directory: %w", err)
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshaling dossier: %w", err)
	}

	path := filepath.Join(dir, d.CandidateID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing dossier: %w", err)
	}
	return path, nil
}

// Load reads a persisted dossier back.
func Load(path string) (types.Dossier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Dossier{}, fmt.Errorf("reading dossier: %w", err)
	}

	var d types.Dossier
	if err := yaml.Unmarshal(data, &d); err != nil {
		return types.Dossier{}, fmt.Errorf("parsing dossier %s: %w", path, err)
	}
	return d, nil
}
