// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package triage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/repurpose-engine/internal/dossier"
	"github.com/pdiddy/repurpose-engine/internal/events"
	"github.com/pdiddy/repurpose-engine/internal/extract"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// fakeRetriever serves a fixed corpus for every query variant. It is
// stateless, so concurrent variant retrieval needs no locking.
type fakeRetriever struct {
	docs map[string]types.Document
}

func (f *fakeRetriever) Search(_ context.Context, _, _ string) ([]string, error) {
	var pmids []string
	for pmid := range f.docs {
		pmids = append(pmids, pmid)
	}
	return pmids, nil
}

func (f *fakeRetriever) Fetch(_ context.Context, _ string, pmids []string) ([]types.Document, error) {
	var docs []types.Document
	for _, pmid := range pmids {
		if doc, ok := f.docs[pmid]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

var pmidPattern = regexp.MustCompile(`abstract \("(\d+)"\)`)

// promptGen answers each extraction prompt with a record for the
// document the prompt names, so responses stay aligned with whatever
// order ranking produced.
type promptGen struct {
	records map[string]string
}

func (g *promptGen) Generate(_ context.Context, prompt string) (string, error) {
	m := pmidPattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", fmt.Errorf("prompt names no document")
	}
	rec, ok := g.records[m[1]]
	if !ok {
		return "", fmt.Errorf("no scripted record for %s", m[1])
	}
	return rec, nil
}

func record(pmid, direction, model, mechanism string, supports bool) string {
	return fmt.Sprintf(`{"pmid": %q, "direction": %q, "model": %q,
		"endpoint": "coronary calcification", "mechanism": %q,
		"confidence": "HIGH", "supports": %v,
		"claim": "Pravastatin altered calcification progression."}`,
		pmid, direction, model, mechanism, supports)
}

func corpus(n int) map[string]types.Document {
	docs := map[string]types.Document{}
	for i := 1; i <= n; i++ {
		pmid := fmt.Sprintf("%d", i)
		docs[pmid] = types.Document{
			PMID:     pmid,
			Title:    "Pravastatin and vascular calcification, study " + pmid,
			Abstract: "Pravastatin effects on coronary calcification were measured.",
			Year:     2015 + i,
		}
	}
	return docs
}

func testConfig(t *testing.T) types.Config {
	cfg := types.DefaultConfig()
	cfg.Triage.Workers = 2
	cfg.Triage.OutputDir = t.TempDir()
	return cfg
}

func newTestPipeline(t *testing.T, retriever Retriever, gen *promptGen, cfg types.Config, opts ...Option) *Pipeline {
	t.Helper()
	extractor := extract.New(gen, types.ExtractionConfig{MaxRepairs: 1, MaxRetries: 1}, 0)
	opts = append(opts, WithEmitter(events.Nop{}))
	return New(retriever, extractor, cfg, opts...)
}

func TestRunCandidateFullPipeline(t *testing.T) {
	cand := types.NewCandidate("pravastatin", "coronary artery calcification")
	retriever := &fakeRetriever{docs: corpus(5)}
	gen := &promptGen{records: map[string]string{
		"1": record("1", "benefit", "human", "reduces inflammation", true),
		"2": record("2", "benefit", "human", "suppresses cytokine release", true),
		"3": record("3", "benefit", "human", "lowers ldl", true),
		"4": record("4", "benefit", "human", "inhibits cholesterol synthesis", true),
		"5": record("5", "harm", "human", "", false),
	}}

	cfg := testConfig(t)
	p := newTestPipeline(t, retriever, gen, cfg)

	result := p.RunCandidate(context.Background(), "run-1", cand, nil, extract.NewCounters())
	require.False(t, result.Failed(), "pipeline error: %v", result.Err)

	d := result.Dossier
	assert.Len(t, d.Evidence, 5)
	assert.Equal(t, 4, d.SupportingCount())
	assert.Equal(t, 1, d.HarmCount())
	assert.Equal(t, 5, d.QC.UniquePMIDs)
	assert.Equal(t, 4, d.QC.UniqueSupportingPMIDs)
	assert.Equal(t, types.EndpointImaging, d.EndpointCategory)
	assert.Equal(t, 1.0, d.QC.TopicMatchRatio)
	assert.NotEmpty(t, d.TopDocuments)

	// 4 supporting human records, 1 harm, 5 documents, two mechanism
	// classes across four records:
	// 9 + 10 + 20 + 17.5 + 4.5 = 61.
	assert.InDelta(t, 61.0, result.Scores.Total, 1e-9)
	assert.Equal(t, types.DecisionGo, result.Gate.Decision)
	assert.Empty(t, result.Gate.Reasons)

	require.NotEmpty(t, result.DossierPath)
	_, err := os.Stat(result.DossierPath)
	require.NoError(t, err)

	loaded, err := dossier.Load(result.DossierPath)
	require.NoError(t, err)
	assert.ElementsMatch(t, d.Evidence, loaded.Evidence)
}

func TestRunCandidateZeroDocumentsFails(t *testing.T) {
	cand := types.NewCandidate("pravastatin", "coronary artery calcification")
	p := newTestPipeline(t, &fakeRetriever{docs: nil}, &promptGen{}, testConfig(t))

	result := p.RunCandidate(context.Background(), "run-1", cand, nil, extract.NewCounters())
	require.True(t, result.Failed())
	assert.Contains(t, result.Err.Error(), "no documents retrieved")
}

func TestRunBatchRecordsResults(t *testing.T) {
	cands := []types.Candidate{
		types.NewCandidate("pravastatin", "coronary artery calcification"),
	}
	retriever := &fakeRetriever{docs: corpus(3)}
	gen := &promptGen{records: map[string]string{
		"1": record("1", "benefit", "human", "reduces inflammation", true),
		"2": record("2", "benefit", "human", "lowers ldl", true),
		"3": record("3", "benefit", "animal", "lowers ldl", true),
	}}

	cfg := testConfig(t)
	store, err := dossier.OpenStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer store.Close()

	p := newTestPipeline(t, retriever, gen, cfg, WithStore(store))

	batch, err := p.Run(context.Background(), cands)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 0, batch.Failed)
	assert.NotEmpty(t, batch.RunID)

	rows, err := store.Shortlist(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, batch.RunID, rows[0].RunID)
	assert.Equal(t, "pravastatin", rows[0].CandidateName)
	assert.Equal(t, batch.Results[0].Gate.Decision, rows[0].Decision)
}

func TestRunContinuesPastFailedCandidate(t *testing.T) {
	cands := []types.Candidate{
		types.NewCandidate("unknowndrug", "coronary artery calcification"),
		types.NewCandidate("pravastatin", "coronary artery calcification"),
	}

	// The first candidate retrieves nothing and fails; the batch keeps
	// going.
	retriever := &switchRetriever{
		byCandidate: map[string]map[string]types.Document{
			cands[1].ID: corpus(3),
		},
	}
	gen := &promptGen{records: map[string]string{
		"1": record("1", "benefit", "human", "reduces inflammation", true),
		"2": record("2", "benefit", "human", "lowers ldl", true),
		"3": record("3", "benefit", "human", "lowers ldl", true),
	}}

	p := newTestPipeline(t, retriever, gen, testConfig(t))

	batch, err := p.Run(context.Background(), cands)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.True(t, batch.Results[0].Failed())
	assert.False(t, batch.Results[1].Failed())
}

func TestRunAllCandidatesFailedIsError(t *testing.T) {
	cands := []types.Candidate{
		types.NewCandidate("pravastatin", "coronary artery calcification"),
	}
	p := newTestPipeline(t, &fakeRetriever{docs: nil}, &promptGen{}, testConfig(t))

	_, err := p.Run(context.Background(), cands)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 candidates failed")
}

func TestRunEmptyBatchIsError(t *testing.T) {
	p := newTestPipeline(t, &fakeRetriever{}, &promptGen{}, testConfig(t))
	_, err := p.Run(context.Background(), nil)
	assert.Error(t, err)
}

// switchRetriever serves a different corpus per candidate.
type switchRetriever struct {
	byCandidate map[string]map[string]types.Document
}

func (s *switchRetriever) Search(_ context.Context, candidateID, _ string) ([]string, error) {
	var pmids []string
	for pmid := range s.byCandidate[candidateID] {
		pmids = append(pmids, pmid)
	}
	return pmids, nil
}

func (s *switchRetriever) Fetch(_ context.Context, candidateID string, pmids []string) ([]types.Document, error) {
	var docs []types.Document
	for _, pmid := range pmids {
		if doc, ok := s.byCandidate[candidateID][pmid]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
