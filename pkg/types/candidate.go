// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the repurposing pipeline:
// candidates, documents, evidence records, dossiers, score cards, and the
// run configuration.
package types

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Candidate is a drug under evaluation against a target condition.
// Created once per run input; immutable afterwards.
type Candidate struct {
	// ID is a stable identifier derived from the canonical name and
	// condition, consistent across runs.
	ID string `json:"id" yaml:"id"`

	// Name is the canonical drug name (e.g. "pravastatin").
	Name string `json:"name" yaml:"name"`

	// Synonyms lists alternate names used for anchoring checks
	// (brand names, abbreviations).
	Synonyms []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`

	// Condition is the target condition being evaluated (e.g.
	// "coronary artery calcification").
	Condition string `json:"condition" yaml:"condition"`
}

// NewCandidate constructs a Candidate with a stable ID.
func NewCandidate(name, condition string, synonyms ...string) Candidate {
	return Candidate{
		ID:        candidateID(name, condition),
		Name:      name,
		Synonyms:  synonyms,
		Condition: condition,
	}
}

// candidateID derives a stable identifier: the first 12 hex characters of
// SHA-256(lowercased name + condition).
func candidateID(name, condition string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(name)))
	h.Write([]byte(strings.ToLower(condition)))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Names returns the canonical name and all synonyms, lowercased.
func (c Candidate) Names() []string {
	names := make([]string, 0, len(c.Synonyms)+1)
	names = append(names, strings.ToLower(c.Name))
	for _, s := range c.Synonyms {
		if s != "" {
			names = append(names, strings.ToLower(s))
		}
	}
	return names
}

// EndpointCategory classifies the clinical endpoint a condition is most
// likely measured by.
type EndpointCategory string

const (
	// EndpointImaging covers imaging-based surrogate endpoints
	// (calcium scores, plaque volume, lesion counts).
	EndpointImaging EndpointCategory = "imaging"

	// EndpointFunctional covers functional or symptomatic endpoints
	// (walking distance, cognition scales, pain scores).
	EndpointFunctional EndpointCategory = "functional"

	// EndpointEvent covers hard clinical events (mortality, infarction,
	// hospitalization).
	EndpointEvent EndpointCategory = "event"

	// EndpointOther is the fallback when no category-specific keywords
	// match. Topical penalties do not apply to it.
	EndpointOther EndpointCategory = "other"
)

// VariantKind labels the retrieval strategy a query variant implements.
type VariantKind string

const (
	// VariantEndpoint narrows the query to the classified endpoint category.
	VariantEndpoint VariantKind = "endpoint"

	// VariantMechanism is the mechanism/endpoint-generic query.
	VariantMechanism VariantKind = "mechanism"

	// VariantCrossCondition casts a wider net for indirect evidence.
	VariantCrossCondition VariantKind = "cross_condition"
)

// QueryVariant is one concrete search query derived from a candidate.
// Ephemeral: regenerated deterministically each run.
type QueryVariant struct {
	// Kind identifies the retrieval strategy.
	Kind VariantKind `json:"kind" yaml:"kind"`

	// Category is the endpoint category the variant targets.
	Category EndpointCategory `json:"category" yaml:"category"`

	// Query is the literal query string sent to the search service.
	Query string `json:"query" yaml:"query"`
}
