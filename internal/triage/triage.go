// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package triage orchestrates the per-candidate evidence pipeline and
// batch runs across candidates.
//
// Candidates are independent: a bounded worker pool processes several at
// once, while each candidate's pipeline runs single-threaded end to end
// except for query-variant retrieval, which issues independent reads
// concurrently. Inference calls stay serialized per candidate; the
// external service is the latency bottleneck and rarely tolerates
// fan-out from a single consumer.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/pdiddy/repurpose-engine/internal/dossier"
	"github.com/pdiddy/repurpose-engine/internal/events"
	"github.com/pdiddy/repurpose-engine/internal/extract"
	"github.com/pdiddy/repurpose-engine/internal/quality"
	"github.com/pdiddy/repurpose-engine/internal/queryplan"
	"github.com/pdiddy/repurpose-engine/internal/rank"
	"github.com/pdiddy/repurpose-engine/internal/score"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Retriever is the literature search surface the pipeline needs.
type Retriever interface {
	Search(ctx context.Context, candidateID, query string) ([]string, error)
	Fetch(ctx context.Context, candidateID string, pmids []string) ([]types.Document, error)
}

// CandidateResult is the outcome for one candidate: either a complete
// dossier plus decision, or an explicit failure with a reason. Partial
// states are never coerced into a decision.
type CandidateResult struct {
	Candidate   types.Candidate
	Dossier     types.Dossier
	Scores      types.ScoreCard
	Gate        types.GateDecision
	DossierPath string
	Err         error
}

// Failed reports whether the candidate produced no decision.
func (r CandidateResult) Failed() bool {
	return r.Err != nil
}

// BatchResult summarizes one run.
type BatchResult struct {
	RunID     string
	Results   []CandidateResult
	Succeeded int
	Failed    int

	// Audit tallies extraction rejection reasons across the run.
	Audit map[string]int
}

// Pipeline wires the stages together for one run configuration.
type Pipeline struct {
	retriever Retriever
	extractor *extract.Extractor
	embedder  rank.Embedder
	scorer    *score.Scorer
	gate      *quality.Gate
	store     *dossier.Store
	trials    []dossier.Trial
	cfg       types.Config
	emitter   events.Emitter
	logger    *slog.Logger
}

// Option adjusts pipeline construction.
type Option func(*Pipeline)

// WithEmbedder enables semantic reranking.
func WithEmbedder(e rank.Embedder) Option {
	return func(p *Pipeline) { p.embedder = e }
}

// WithStore records results to a results database.
func WithStore(s *dossier.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithRegistry supplies the trial-registry feed rows.
func WithRegistry(trials []dossier.Trial) Option {
	return func(p *Pipeline) { p.trials = trials }
}

// WithEmitter replaces the default slog event emitter.
func WithEmitter(e events.Emitter) Option {
	return func(p *Pipeline) { p.emitter = e }
}

func New(retriever Retriever, extractor *extract.Extractor, cfg types.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		retriever: retriever,
		extractor: extractor,
		scorer:    score.NewScorer(cfg.Policy),
		gate:      quality.New(cfg.Policy.TopicMin),
		cfg:       cfg,
		emitter:   events.NewSlogEmitter(nil),
		logger:    slog.Default().With("component", "triage"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes the batch with a bounded worker pool and returns one
// result per candidate, in input order. It fails only when the run as a
// whole produced nothing: every candidate failing is a run-level fault.
func (p *Pipeline) Run(ctx context.Context, candidates []types.Candidate) (BatchResult, error) {
	batch := BatchResult{
		RunID:   uuid.NewString(),
		Results: make([]CandidateResult, len(candidates)),
	}
	if len(candidates) == 0 {
		return batch, errors.New("no candidates to triage")
	}

	workers := p.cfg.Triage.Workers
	if workers <= 0 {
		workers = max(1, runtime.NumCPU()/2)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return batch, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	counters := extract.NewCounters()
	var wg sync.WaitGroup
	for i, cand := range candidates {
		i, cand := i, cand
		other := otherNames(candidates, i)

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			batch.Results[i] = p.RunCandidate(ctx, batch.RunID, cand, other, counters)
		})
		if submitErr != nil {
			batch.Results[i] = CandidateResult{Candidate: cand, Err: submitErr}
			wg.Done()
		}
	}
	wg.Wait()

	batch.Audit = counters.Snapshot()
	for _, r := range batch.Results {
		if r.Failed() {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}
	if batch.Succeeded == 0 {
		return batch, fmt.Errorf("all %d candidates failed", batch.Failed)
	}
	return batch, nil
}

// RunCandidate executes the full pipeline for one candidate. The
// returned result carries either a dossier and decision or the error
// that stopped the pipeline.
func (p *Pipeline) RunCandidate(ctx context.Context, runID string, cand types.Candidate, otherNames []string, counters *extract.Counters) CandidateResult {
	result := CandidateResult{Candidate: cand}

	category := queryplan.Classify(cand.Condition)
	var variants []types.QueryVariant
	p.stage(runID, cand.ID, events.StagePlan, func() error {
		variants = queryplan.Plan(cand, category)
		return nil
	})

	var lists []types.RankedList
	err := p.stage(runID, cand.ID, events.StageRetrieve, func() error {
		var retrieveErr error
		lists, retrieveErr = p.retrieveAndRank(ctx, cand, variants)
		return retrieveErr
	})
	if err != nil {
		result.Err = err
		return result
	}

	var top types.RankedList
	p.stage(runID, cand.ID, events.StageRank, func() error {
		fused := rank.Fuse(lists, p.cfg.Rank.RRFConstant)
		query := cand.Name + " " + cand.Condition
		top = rank.Rerank(ctx, p.embedder, query, fused,
			p.cfg.Rank.FuseTop, p.cfg.Rank.FinalTop)
		return nil
	})

	docs := make([]types.Document, len(top))
	for i, rd := range top {
		docs[i] = rd.Document
	}

	var (
		records []types.EvidenceRecord
		summary extract.Summary
	)
	p.stage(runID, cand.ID, events.StageExtract, func() error {
		records, summary = p.extractor.ExtractAll(ctx, cand, docs, otherNames, counters)
		return nil
	})

	var gated quality.Result
	p.stage(runID, cand.ID, events.StageQuality, func() error {
		gated = p.gate.Apply(records, docs, category)
		return nil
	})

	p.stage(runID, cand.ID, events.StageAssemble, func() error {
		result.Dossier = dossier.Assemble(dossier.Input{
			Candidate:    cand,
			Category:     category,
			RunID:        runID,
			Evidence:     gated.Records,
			TopDocuments: top,
			QC: types.QCMetrics{
				TopicMatchRatio:           gated.TopicMatchRatio,
				TopicMismatch:             gated.TopicMismatch,
				RemovedEvidenceCount:      gated.RemovedEvidenceCount,
				ContaminationRemovedCount: summary.Contaminated,
			},
			Registry: dossier.Annotate(cand, p.trials),
		})
		return nil
	})

	p.stage(runID, cand.ID, events.StageScore, func() error {
		result.Scores = p.scorer.Score(result.Dossier)
		return nil
	})
	p.stage(runID, cand.ID, events.StageGate, func() error {
		result.Gate = p.scorer.Gate(result.Dossier, result.Scores)
		return nil
	})

	if err := p.persist(ctx, runID, &result); err != nil {
		result.Err = err
	}
	return result
}

// retrieveAndRank issues the query variants concurrently and scores
// each variant's corpus lexically. A variant that fails is excluded and
// logged; only an empty overall corpus fails the candidate.
func (p *Pipeline) retrieveAndRank(ctx context.Context, cand types.Candidate, variants []types.QueryVariant) ([]types.RankedList, error) {
	var (
		mu    sync.Mutex
		lists []types.RankedList
		total int
		wg    sync.WaitGroup
	)

	for _, variant := range variants {
		variant := variant
		wg.Add(1)
		go func() {
			defer wg.Done()

			pmids, err := p.retriever.Search(ctx, cand.ID, variant.Query)
			if err != nil {
				p.logger.Warn("variant search failed",
					"candidate", cand.Name, "kind", variant.Kind, "err", err)
				return
			}
			docs, err := p.retriever.Fetch(ctx, cand.ID, pmids)
			if err != nil {
				p.logger.Warn("variant fetch failed",
					"candidate", cand.Name, "kind", variant.Kind, "err", err)
				return
			}
			ranked := rank.BM25(variant.Query, docs, p.cfg.Rank, p.cfg.Rank.PerVariantTop)

			mu.Lock()
			total += len(docs)
			if len(ranked) > 0 {
				lists = append(lists, ranked)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total == 0 {
		return nil, fmt.Errorf("no documents retrieved for %q across %d query variants",
			cand.Name, len(variants))
	}
	return lists, nil
}

func (p *Pipeline) persist(ctx context.Context, runID string, result *CandidateResult) error {
	if p.cfg.Triage.OutputDir != "" {
		path, err := dossier.Save(p.cfg.Triage.OutputDir, result.Dossier)
		if err != nil {
			return err
		}
		result.DossierPath = path
	}
	if p.store == nil {
		return nil
	}
	return p.store.Record(ctx, dossier.Result{
		RunID:         runID,
		CandidateID:   result.Candidate.ID,
		CandidateName: result.Candidate.Name,
		Condition:     result.Candidate.Condition,
		Scores:        result.Scores,
		Decision:      result.Gate.Decision,
		Reasons:       result.Gate.Reasons,
		DossierPath:   result.DossierPath,
	})
}

// stage emits start/complete/failed events around fn.
func (p *Pipeline) stage(runID, candidateID, name string, fn func() error) error {
	e := events.Event{RunID: runID, CandidateID: candidateID, Stage: name}
	p.emitter.StageStarted(e)

	start := time.Now()
	err := fn()
	e.Elapsed = time.Since(start)
	if err != nil {
		e.Err = err
		p.emitter.StageFailed(e)
		return err
	}
	p.emitter.StageCompleted(e)
	return nil
}

// otherNames collects the names and synonyms of every candidate except
// the one at skip, lowercased, for cross-entity contamination checks.
func otherNames(candidates []types.Candidate, skip int) []string {
	var names []string
	for i, c := range candidates {
		if i == skip {
			continue
		}
		names = append(names, c.Names()...)
	}
	return names
}
