// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// QCMetrics summarizes the quality-control outcome for one candidate.
type QCMetrics struct {
	// TopicMatchRatio is the fraction of endpoint-relevant keyword hits
	// across supporting claims and top abstracts, in [0,1].
	TopicMatchRatio float64 `json:"topic_match_ratio" yaml:"topic_match_ratio"`

	// TopicMismatch is set when TopicMatchRatio fell below the minimum
	// and the endpoint category is not "other".
	TopicMismatch bool `json:"topic_mismatch" yaml:"topic_mismatch"`

	// RemovedEvidenceCount counts supporting records relabeled to
	// neutral by the quality gate.
	RemovedEvidenceCount int `json:"removed_evidence_count" yaml:"removed_evidence_count"`

	// ContaminationRemovedCount counts records rejected for naming a
	// different run candidate.
	ContaminationRemovedCount int `json:"contamination_removed_count" yaml:"contamination_removed_count"`

	// UniquePMIDs counts distinct source documents across all evidence
	// records and top documents (an evidence-volume signal).
	UniquePMIDs int `json:"unique_pmids" yaml:"unique_pmids"`

	// UniqueSupportingPMIDs counts distinct source documents of the
	// supporting set (the hard-gate count).
	UniqueSupportingPMIDs int `json:"unique_supporting_pmids" yaml:"unique_supporting_pmids"`
}

// TopDocument is one post-fusion, pre-extraction ranked document kept on
// the dossier for human review.
type TopDocument struct {
	PMID string `json:"pmid" yaml:"pmid"`

	Title string `json:"title" yaml:"title"`

	Year int `json:"year" yaml:"year"`

	// Excerpt is the leading portion of the abstract.
	Excerpt string `json:"excerpt" yaml:"excerpt"`

	// FusedScore is the reciprocal-rank fusion score (or the cosine
	// similarity when semantic reranking ran).
	FusedScore float64 `json:"fused_score" yaml:"fused_score"`
}

// RegistryNote carries trial-registry negative-evidence context: whether
// any prior registered trial for this candidate reported a positive
// outcome for the condition.
type RegistryNote struct {
	// TrialsMatched counts registry rows matched to the candidate by
	// name-token overlap.
	TrialsMatched int `json:"trials_matched" yaml:"trials_matched"`

	// PositiveFound reports whether any matched trial was positive.
	PositiveFound bool `json:"positive_found" yaml:"positive_found"`

	// Note is a short human-readable summary (e.g. "no positive trial found").
	Note string `json:"note" yaml:"note"`
}

// Dossier is the assembled per-candidate evidence package consumed by
// scoring and by human reviewers. Written once per candidate per run.
type Dossier struct {
	CandidateID string `json:"candidate_id" yaml:"candidate_id"`

	CandidateName string `json:"candidate_name" yaml:"candidate_name"`

	Condition string `json:"condition" yaml:"condition"`

	// EndpointCategory is the classification the query planner assigned.
	EndpointCategory EndpointCategory `json:"endpoint_category" yaml:"endpoint_category"`

	// RunID identifies the batch run that produced this dossier.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	// Evidence holds every record that passed integrity checks,
	// including records the quality gate relabeled.
	Evidence []EvidenceRecord `json:"evidence" yaml:"evidence"`

	QC QCMetrics `json:"qc" yaml:"qc"`

	TopDocuments []TopDocument `json:"top_documents" yaml:"top_documents"`

	Registry *RegistryNote `json:"registry,omitempty" yaml:"registry,omitempty"`
}

// Supporting returns the records still marked as supporting.
func (d Dossier) Supporting() []EvidenceRecord {
	var out []EvidenceRecord
	for _, r := range d.Evidence {
		if r.Supports {
			out = append(out, r)
		}
	}
	return out
}

// SupportingCount counts records still marked as supporting.
func (d Dossier) SupportingCount() int {
	n := 0
	for _, r := range d.Evidence {
		if r.Supports {
			n++
		}
	}
	return n
}

// HarmCount counts records reporting harm.
func (d Dossier) HarmCount() int {
	n := 0
	for _, r := range d.Evidence {
		if r.Direction == DirectionHarm {
			n++
		}
	}
	return n
}
