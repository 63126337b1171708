// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Document is one literature record returned by the search service.
// Immutable once fetched; cached by PMID.
type Document struct {
	// PMID is the PubMed identifier.
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the article abstract; may be empty for older records.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year" yaml:"year"`
}

// Text returns the title and abstract joined for lexical scoring.
func (d Document) Text() string {
	if d.Abstract == "" {
		return d.Title
	}
	return d.Title + " " + d.Abstract
}

// RankedDocument pairs a document with a relevance score.
type RankedDocument struct {
	Score    float64  `json:"score" yaml:"score"`
	Document Document `json:"document" yaml:"document"`
}

// RankedList is an ordered sequence of scored documents, best first.
// One is produced per query variant and consumed by rank fusion.
type RankedList []RankedDocument
