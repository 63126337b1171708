// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores retrieved documents against queries: BM25 lexical
// ranking per query variant, reciprocal-rank fusion across variants, and
// an optional semantic rerank of the fused head.
package rank

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Tokenize lowercases text and splits it on non-alphanumeric runes.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// BM25 ranks a corpus against a tokenized query.
//
// idf(t) = ln(1 + (N - df(t) + 0.5) / (df(t) + 0.5)), and each document
// scores Σ idf(t) · f(t)(k1+1) / (f(t) + k1(1 - b + b·|d|/avgdl)) over the
// query terms. Ties keep corpus order. An empty query or corpus returns an
// empty list, never an error.
func BM25(query string, corpus []types.Document, cfg types.RankConfig, topK int) types.RankedList {
	terms := Tokenize(query)
	if len(terms) == 0 || len(corpus) == 0 {
		return nil
	}

	k1 := cfg.K1
	if k1 <= 0 {
		k1 = 1.5
	}
	b := cfg.B
	if b <= 0 {
		b = 0.75
	}

	// Term frequencies and lengths per document.
	freqs := make([]map[string]int, len(corpus))
	lengths := make([]int, len(corpus))
	total := 0
	for i, doc := range corpus {
		tokens := Tokenize(doc.Text())
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		freqs[i] = tf
		lengths[i] = len(tokens)
		total += len(tokens)
	}
	avgdl := float64(total) / float64(len(corpus))
	if avgdl == 0 {
		return nil
	}

	// Document frequency per distinct query term.
	n := float64(len(corpus))
	df := make(map[string]int, len(terms))
	for _, t := range terms {
		if _, seen := df[t]; seen {
			continue
		}
		for i := range corpus {
			if freqs[i][t] > 0 {
				df[t]++
			}
		}
	}
	idf := make(map[string]float64, len(df))
	for t, d := range df {
		idf[t] = math.Log(1 + (n-float64(d)+0.5)/(float64(d)+0.5))
	}

	type scored struct {
		idx   int
		score float64
	}
	results := make([]scored, 0, len(corpus))
	for i := range corpus {
		var score float64
		norm := k1 * (1 - b + b*float64(lengths[i])/avgdl)
		for _, t := range terms {
			f := float64(freqs[i][t])
			if f == 0 {
				continue
			}
			score += idf[t] * f * (k1 + 1) / (f + norm)
		}
		if score > 0 {
			results = append(results, scored{idx: i, score: score})
		}
	}

	// Stable sort keeps corpus order on ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	ranked := make(types.RankedList, len(results))
	for i, r := range results {
		ranked[i] = types.RankedDocument{Score: r.score, Document: corpus[r.idx]}
	}
	return ranked
}
