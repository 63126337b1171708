// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ScoreCard holds the five weighted dimension scores and their total.
// Derived: recomputable from a Dossier and policy at any time.
type ScoreCard struct {
	// EvidenceStrength is bounded to [0,30].
	EvidenceStrength float64 `json:"evidence_strength" yaml:"evidence_strength"`

	// MechanismPlausibility is bounded to [0,20].
	MechanismPlausibility float64 `json:"mechanism_plausibility" yaml:"mechanism_plausibility"`

	// Translatability is bounded to [0,20].
	Translatability float64 `json:"translatability" yaml:"translatability"`

	// SafetyFit is bounded to [0,20].
	SafetyFit float64 `json:"safety_fit" yaml:"safety_fit"`

	// Practicality is bounded to [0,10].
	Practicality float64 `json:"practicality" yaml:"practicality"`

	// Total is the sum of the dimensions, capped at 100.
	Total float64 `json:"total" yaml:"total"`
}

// Decision is the terminal gating outcome for a candidate.
type Decision string

const (
	DecisionGo    Decision = "GO"
	DecisionMaybe Decision = "MAYBE"
	DecisionNoGo  Decision = "NO-GO"
)

// Gate reason strings. Every triggered gate contributes its reason; the
// reasons list is never truncated to the first hit.
const (
	ReasonFewPMIDs        = "pmids<3"
	ReasonTopicRatio      = "topic_ratio<min"
	ReasonSafetyBlacklist = "safety_blacklist_hard"
	ReasonFewSupporting   = "benefit<2"
	ReasonScoreBelowGo    = "score<60.0"
	ReasonScoreBelowMaybe = "score<40.0"
	ReasonSafetyConcern   = "safety_concern"
)

// GateDecision is the deterministic outcome of applying hard and soft
// gates to a score card and evidence counts.
type GateDecision struct {
	Decision Decision `json:"decision" yaml:"decision"`

	// Reasons lists every triggered gate reason, in evaluation order.
	// Empty for an unqualified GO.
	Reasons []string `json:"reasons" yaml:"reasons"`
}
