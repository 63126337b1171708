// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events defines the structured pipeline events emitted at stage
// transitions. The pipeline emits one event per transition; consumers
// (the default slog emitter, or an external collector) decide what to do
// with them.
package events

import (
	"log/slog"
	"time"
)

// Stage names used in pipeline events.
const (
	StagePlan     = "plan"
	StageRetrieve = "retrieve"
	StageRank     = "rank"
	StageExtract  = "extract"
	StageQuality  = "quality"
	StageAssemble = "assemble"
	StageScore    = "score"
	StageGate     = "gate"
)

// Event records one pipeline stage transition for one candidate.
type Event struct {
	// RunID identifies the batch run.
	RunID string

	// CandidateID identifies the candidate flowing through the stage.
	CandidateID string

	// Stage is one of the Stage* constants.
	Stage string

	// Elapsed is the stage duration; zero for start events.
	Elapsed time.Duration

	// Err is set on failure events.
	Err error
}

// Emitter consumes pipeline events. Implementations must be safe for
// concurrent use: candidates run in parallel.
type Emitter interface {
	StageStarted(e Event)
	StageCompleted(e Event)
	StageFailed(e Event)
}

// SlogEmitter logs events through a structured logger.
type SlogEmitter struct {
	Logger *slog.Logger
}

// NewSlogEmitter returns an emitter over logger, or slog.Default() when
// logger is nil.
func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEmitter{Logger: logger.With("component", "pipeline")}
}

func (s *SlogEmitter) StageStarted(e Event) {
	s.Logger.Debug("stage started",
		"run", e.RunID, "candidate", e.CandidateID, "stage", e.Stage)
}

func (s *SlogEmitter) StageCompleted(e Event) {
	s.Logger.Info("stage completed",
		"run", e.RunID, "candidate", e.CandidateID, "stage", e.Stage,
		"elapsed", e.Elapsed)
}

func (s *SlogEmitter) StageFailed(e Event) {
	s.Logger.Warn("stage failed",
		"run", e.RunID, "candidate", e.CandidateID, "stage", e.Stage,
		"elapsed", e.Elapsed, "err", e.Err)
}

// Nop discards all events; used by tests and the pure offline commands.
type Nop struct{}

func (Nop) StageStarted(Event)   {}
func (Nop) StageCompleted(Event) {}
func (Nop) StageFailed(Event)    {}
