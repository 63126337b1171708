// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Direction is the effect direction an evidence record reports.
type Direction string

const (
	DirectionBenefit Direction = "benefit"
	DirectionHarm    Direction = "harm"
	DirectionNeutral Direction = "neutral"
	DirectionUnknown Direction = "unknown"
)

// validDirections is the set of accepted Direction values.
var validDirections = map[Direction]bool{
	DirectionBenefit: true,
	DirectionHarm:    true,
	DirectionNeutral: true,
	DirectionUnknown: true,
}

// EvidenceModel is the study model the evidence comes from.
type EvidenceModel string

const (
	ModelHuman         EvidenceModel = "human"
	ModelAnimal        EvidenceModel = "animal"
	ModelCell          EvidenceModel = "cell"
	ModelComputational EvidenceModel = "computational"
	ModelUnknown       EvidenceModel = "unknown"
)

var validModels = map[EvidenceModel]bool{
	ModelHuman:         true,
	ModelAnimal:        true,
	ModelCell:          true,
	ModelComputational: true,
	ModelUnknown:       true,
}

// Confidence is the extractor's self-reported confidence level.
type Confidence string

const (
	ConfidenceHigh Confidence = "HIGH"
	ConfidenceMed  Confidence = "MED"
	ConfidenceLow  Confidence = "LOW"
)

var validConfidences = map[Confidence]bool{
	ConfidenceHigh: true,
	ConfidenceMed:  true,
	ConfidenceLow:  true,
}

// Reason codes attached to rejected or relabeled evidence. Rejections are
// tallied in run-level audit counters; relabels stay on the record so the
// dossier remains traceable.
const (
	ReasonMalformed        = "malformed_output"
	ReasonNotAnchored      = "not_anchored"
	ReasonWrongDocument    = "wrong_document_id"
	ReasonCrossDrugLeakage = "cross_drug_leakage"
	ReasonOffTopic         = "off_topic"
)

// EvidenceRecord is one structured claim extracted from a document.
// Records are never deleted after assembly, only relabeled, to preserve
// auditability.
type EvidenceRecord struct {
	// PMID references the source document. It must name a document in
	// the candidate's retrieved set.
	PMID string `json:"pmid" yaml:"pmid"`

	// Direction is the reported effect direction.
	Direction Direction `json:"direction" yaml:"direction"`

	// Model is the study model.
	Model EvidenceModel `json:"model" yaml:"model"`

	// Endpoint is the outcome measure the claim concerns (free text or
	// an endpoint category label).
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Mechanism is a short statement of the proposed mechanism of action.
	Mechanism string `json:"mechanism,omitempty" yaml:"mechanism,omitempty"`

	// Confidence is the extractor's confidence: HIGH, MED, or LOW.
	Confidence Confidence `json:"confidence" yaml:"confidence"`

	// Supports reports whether the record supports repurposing the
	// candidate for the condition.
	Supports bool `json:"supports" yaml:"supports"`

	// Claim is the supporting sentence, quoted from the source.
	Claim string `json:"claim" yaml:"claim"`

	// RelabelReason is set when the quality gate forced the record to
	// neutral (e.g. "off_topic"). Empty for untouched records.
	RelabelReason string `json:"relabel_reason,omitempty" yaml:"relabel_reason,omitempty"`
}

// Validate checks the enumerated fields and the source reference at
// construction time. Consumers may assume a validated record.
func (r EvidenceRecord) Validate() error {
	if r.PMID == "" {
		return fmt.Errorf("evidence record: empty pmid")
	}
	if !validDirections[r.Direction] {
		return fmt.Errorf("evidence record %s: invalid direction %q", r.PMID, r.Direction)
	}
	if !validModels[r.Model] {
		return fmt.Errorf("evidence record %s: invalid model %q", r.PMID, r.Model)
	}
	if !validConfidences[r.Confidence] {
		return fmt.Errorf("evidence record %s: invalid confidence %q", r.PMID, r.Confidence)
	}
	if r.Claim == "" {
		return fmt.Errorf("evidence record %s: empty claim", r.PMID)
	}
	return nil
}
