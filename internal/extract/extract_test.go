// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/repurpose-engine/internal/ai/mock"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

func init() {
	backoffBase = time.Millisecond
}

var testDoc = types.Document{
	PMID:     "11111",
	Title:    "Pravastatin and coronary calcification",
	Abstract: "Pravastatin slowed calcification progression in a randomized human trial.",
	Year:     2019,
}

func testCandidate() types.Candidate {
	return types.NewCandidate("pravastatin", "coronary artery calcification", "Pravachol")
}

func goodResponse() string {
	return `{"pmid": "11111", "direction": "benefit", "model": "human",
		"endpoint": "coronary calcium score", "mechanism": "lipid modulation",
		"confidence": "HIGH", "supports": true,
		"claim": "Pravastatin slowed calcification progression."}`
}

func newExtractor(gen *mock.Generator) *Extractor {
	return New(gen, types.ExtractionConfig{MaxRepairs: 2, MaxRetries: 1}, 0)
}

func TestExtractDocAcceptsValidRecord(t *testing.T) {
	gen := &mock.Generator{Responses: []string{goodResponse()}}
	e := newExtractor(gen)

	rec, reason, err := e.ExtractDoc(context.Background(), testCandidate(), testDoc, nil)
	require.NoError(t, err)
	assert.Empty(t, reason)

	assert.Equal(t, "11111", rec.PMID)
	assert.Equal(t, types.DirectionBenefit, rec.Direction)
	assert.Equal(t, types.ModelHuman, rec.Model)
	assert.Equal(t, types.ConfidenceHigh, rec.Confidence)
	assert.True(t, rec.Supports)
	require.NoError(t, rec.Validate())
}

func TestExtractDocRepairsMalformedOutput(t *testing.T) {
	gen := &mock.Generator{Responses: []string{
		`{"pmid": "11111", "direction": benefit}`, // broken JSON
		goodResponse(),
	}}
	e := newExtractor(gen)

	rec, reason, err := e.ExtractDoc(context.Background(), testCandidate(), testDoc, nil)
	require.NoError(t, err)
	assert.Empty(t, reason)
	assert.Equal(t, types.DirectionBenefit, rec.Direction)

	require.Len(t, gen.Calls, 2)
	assert.Contains(t, gen.Calls[1], "could not be parsed",
		"repair prompt must carry the parse error")
}

func TestExtractDocMalformedAfterAllRepairs(t *testing.T) {
	gen := &mock.Generator{Responses: []string{"not json at all"}}
	e := newExtractor(gen)

	_, reason, err := e.ExtractDoc(context.Background(), testCandidate(), testDoc, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ReasonMalformed, reason)
	// 1 initial + 2 repairs.
	assert.Len(t, gen.Calls, 3)
}

func TestExtractDocAnchoringCheck(t *testing.T) {
	// Neither the claim nor the abstract mentions the candidate.
	doc := types.Document{
		PMID:     "22222",
		Title:    "Atorvastatin outcomes",
		Abstract: "Atorvastatin reduced events.",
	}
	gen := &mock.Generator{Responses: []string{
		`{"pmid": "22222", "direction": "benefit", "model": "human",
		  "confidence": "HIGH", "supports": true,
		  "claim": "The drug reduced events."}`,
	}}
	e := newExtractor(gen)

	_, reason, err := e.ExtractDoc(context.Background(), testCandidate(), doc, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ReasonNotAnchored, reason)
}

func TestExtractDocSynonymAnchors(t *testing.T) {
	doc := types.Document{
		PMID:     "33333",
		Title:    "Brand-name statin study",
		Abstract: "Patients on Pravachol showed slower calcification progression.",
	}
	gen := &mock.Generator{Responses: []string{
		`{"pmid": "33333", "direction": "benefit", "model": "human",
		  "confidence": "MED", "supports": true,
		  "claim": "Pravachol slowed calcification progression."}`,
	}}
	e := newExtractor(gen)

	rec, reason, err := e.ExtractDoc(context.Background(), testCandidate(), doc, nil)
	require.NoError(t, err)
	assert.Empty(t, reason)
	assert.Equal(t, types.ConfidenceMed, rec.Confidence)
}

func TestExtractDocWrongDocumentID(t *testing.T) {
	gen := &mock.Generator{Responses: []string{
		`{"pmid": "99999", "direction": "benefit", "model": "human",
		  "confidence": "HIGH", "supports": true,
		  "claim": "Pravastatin slowed calcification progression."}`,
	}}
	e := newExtractor(gen)

	_, reason, err := e.ExtractDoc(context.Background(), testCandidate(), testDoc, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ReasonWrongDocument, reason)
}

func TestExtractDocCrossEntityContamination(t *testing.T) {
	// The claim names another run candidate but not this one; the
	// abstract still anchors the document, so only the cross-entity
	// check fires.
	doc := types.Document{
		PMID:     "44444",
		Title:    "Comparative statin study",
		Abstract: "Pravastatin and metformin were compared.",
	}
	gen := &mock.Generator{Responses: []string{
		`{"pmid": "44444", "direction": "benefit", "model": "human",
		  "confidence": "HIGH", "supports": true,
		  "claim": "Metformin reduced calcification markers."}`,
	}}
	e := newExtractor(gen)

	_, reason, err := e.ExtractDoc(context.Background(), testCandidate(), doc, []string{"metformin"})
	require.NoError(t, err)
	assert.Equal(t, types.ReasonCrossDrugLeakage, reason)
}

func TestExtractDocEmptyClaimIsNoEvidence(t *testing.T) {
	gen := &mock.Generator{Responses: []string{
		`{"pmid": "11111", "direction": "unknown", "model": "unknown",
		  "confidence": "LOW", "supports": false, "claim": ""}`,
	}}
	e := newExtractor(gen)

	_, reason, err := e.ExtractDoc(context.Background(), testCandidate(), testDoc, nil)
	require.NoError(t, err)
	assert.Equal(t, reasonNoEvidence, reason)
}

func TestNormalizeHarmNeverSupports(t *testing.T) {
	rec, ok := normalize(rawRecord{
		PMID:       "11111",
		Direction:  "harm",
		Model:      "human",
		Confidence: "HIGH",
		Supports:   true,
		Claim:      "Pravastatin increased myopathy risk.",
	}, testDoc)
	require.True(t, ok)
	assert.Equal(t, types.DirectionHarm, rec.Direction)
	assert.False(t, rec.Supports)
}

func TestNormalizeUnknownEnumsDegrade(t *testing.T) {
	rec, ok := normalize(rawRecord{
		Direction:  "beneficial-ish",
		Model:      "organoid",
		Confidence: "VERY HIGH",
		Claim:      "Pravastatin did something.",
	}, testDoc)
	require.True(t, ok)
	assert.Equal(t, types.DirectionUnknown, rec.Direction)
	assert.Equal(t, types.ModelUnknown, rec.Model)
	assert.Equal(t, types.ConfidenceLow, rec.Confidence)
	assert.Equal(t, testDoc.PMID, rec.PMID, "missing pmid filled from document")
}

func TestExtractDocCallFailure(t *testing.T) {
	gen := &mock.Generator{Err: errors.New("connection refused")}
	e := newExtractor(gen)

	_, _, err := e.ExtractDoc(context.Background(), testCandidate(), testDoc, nil)
	require.Error(t, err)
	// 1 initial + 1 retry per configured MaxRetries.
	assert.Len(t, gen.Calls, 2)
}

func TestExtractAllCountsOutcomes(t *testing.T) {
	docs := []types.Document{
		testDoc,
		{PMID: "22222", Title: "Unrelated", Abstract: "Nothing relevant."},
	}
	gen := &mock.Generator{Responses: []string{
		goodResponse(),
		"garbage", "garbage", "garbage", // all repair attempts fail for doc 2
	}}
	e := newExtractor(gen)
	counters := NewCounters()

	records, summary := e.ExtractAll(context.Background(), testCandidate(), docs, nil, counters)

	assert.Len(t, records, 1)
	assert.Equal(t, 1, summary.Extracted)
	assert.Equal(t, 1, summary.Malformed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, counters.Snapshot()[types.ReasonMalformed])
}

func TestPromptContainsContract(t *testing.T) {
	prompt, err := renderPrompt(testCandidate(), testDoc, "")
	require.NoError(t, err)

	for _, want := range []string{"pravastatin", "coronary artery calcification", "11111", `"direction"`, `"claim"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	assert.NotContains(t, prompt, "could not be parsed")
}
