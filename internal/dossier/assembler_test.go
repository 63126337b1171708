// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dossier

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

func sampleInput() Input {
	cand := types.NewCandidate("pravastatin", "coronary artery calcification")
	return Input{
		Candidate: cand,
		Category:  types.EndpointImaging,
		RunID:     "run-1",
		Evidence: []types.EvidenceRecord{
			{
				PMID: "100", Direction: types.DirectionBenefit,
				Model: types.ModelHuman, Confidence: types.ConfidenceHigh,
				Supports: true, Claim: "Pravastatin slowed calcification.",
			},
			{
				PMID: "101", Direction: types.DirectionBenefit,
				Model: types.ModelAnimal, Confidence: types.ConfidenceMed,
				Supports: true, Claim: "Reduced plaque burden in mice.",
			},
			{
				PMID: "100", Direction: types.DirectionNeutral,
				Model: types.ModelHuman, Confidence: types.ConfidenceLow,
				Supports: false, Claim: "No effect on secondary endpoint.",
				RelabelReason: types.ReasonOffTopic,
			},
		},
		TopDocuments: types.RankedList{
			{Score: 0.031, Document: types.Document{
				PMID: "100", Title: "Calcification trial", Year: 2019,
				Abstract: "A randomized trial of pravastatin.",
			}},
			{Score: 0.028, Document: types.Document{
				PMID: "200", Title: "Imaging cohort", Year: 2021,
				Abstract: strings.Repeat("Calcium score progression over time. ", 20),
			}},
		},
		QC: types.QCMetrics{TopicMatchRatio: 0.7, RemovedEvidenceCount: 1},
	}
}

func TestAssembleComputesUniqueCounts(t *testing.T) {
	d := Assemble(sampleInput())

	// Documents 100 and 101 from evidence plus 200 from the ranked head.
	assert.Equal(t, 3, d.QC.UniquePMIDs)
	// Only 100 and 101 are supporting sources.
	assert.Equal(t, 2, d.QC.UniqueSupportingPMIDs)

	// Assembly preserves the gate's metrics.
	assert.Equal(t, 0.7, d.QC.TopicMatchRatio)
	assert.Equal(t, 1, d.QC.RemovedEvidenceCount)
}

func TestAssembleBuildsTopDocuments(t *testing.T) {
	d := Assemble(sampleInput())

	require.Len(t, d.TopDocuments, 2)
	assert.Equal(t, "100", d.TopDocuments[0].PMID)
	assert.Equal(t, 0.031, d.TopDocuments[0].FusedScore)
	assert.Equal(t, "A randomized trial of pravastatin.", d.TopDocuments[0].Excerpt)

	long := d.TopDocuments[1].Excerpt
	assert.LessOrEqual(t, len(long), excerptLen+3)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestAssembleCarriesIdentity(t *testing.T) {
	in := sampleInput()
	d := Assemble(in)

	assert.Equal(t, in.Candidate.ID, d.CandidateID)
	assert.Equal(t, "pravastatin", d.CandidateName)
	assert.Equal(t, "coronary artery calcification", d.Condition)
	assert.Equal(t, types.EndpointImaging, d.EndpointCategory)
	assert.Equal(t, "run-1", d.RunID)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := Assemble(sampleInput())
	d.Registry = &types.RegistryNote{TrialsMatched: 2, Note: "no positive trial found"}

	path, err := Save(dir, d)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, d.CandidateID+".yaml"), path)

	loaded, err := Load(path)
	require.NoError(t, err)

	// The evidence set survives the round trip regardless of order.
	assert.ElementsMatch(t, d.Evidence, loaded.Evidence)
	assert.Equal(t, d.QC, loaded.QC)
	assert.Equal(t, d.TopDocuments, loaded.TopDocuments)
	assert.Equal(t, d.Registry, loaded.Registry)
	assert.Equal(t, d.CandidateID, loaded.CandidateID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
