// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Embedder is the slice of the embedding service fusion needs. Its
// absence (nil) or failure degrades reranking to the lexical fusion
// order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Fuse merges per-variant ranked lists by reciprocal-rank fusion: each
// document's fused score is Σ 1/(rank + k) over the lists it appears in,
// with rank starting at 1. Identity is the PMID; the highest-ranked copy
// of a document supplies its record. Ordering is deterministic: ties
// break on PMID.
func Fuse(lists []types.RankedList, k float64) types.RankedList {
	if k <= 0 {
		k = 60
	}

	scores := make(map[string]float64)
	docs := make(map[string]types.Document)
	for _, list := range lists {
		for rank, rd := range list {
			id := rd.Document.PMID
			scores[id] += 1.0 / (float64(rank+1) + k)
			if _, ok := docs[id]; !ok {
				docs[id] = rd.Document
			}
		}
	}

	fused := make(types.RankedList, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, types.RankedDocument{Score: score, Document: docs[id]})
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].Document.PMID < fused[j].Document.PMID
	})
	return fused
}

// Rerank semantically reorders the fused head. The fused top fuseTop
// documents are embedded alongside the condition query and re-sorted by
// cosine similarity; the top finalTop are returned. When embedder is nil
// or fails, the lexical fusion order is kept so extraction never blocks
// on semantic reranking.
func Rerank(ctx context.Context, embedder Embedder, query string, fused types.RankedList, fuseTop, finalTop int) types.RankedList {
	if fuseTop > 0 && len(fused) > fuseTop {
		fused = fused[:fuseTop]
	}

	if embedder != nil && len(fused) > 0 {
		if reranked, ok := semanticOrder(ctx, embedder, query, fused); ok {
			fused = reranked
		}
	}

	if finalTop > 0 && len(fused) > finalTop {
		fused = fused[:finalTop]
	}
	return fused
}

// semanticOrder returns the head re-sorted by cosine similarity to the
// query embedding. ok is false when the embedding service failed.
func semanticOrder(ctx context.Context, embedder Embedder, query string, head types.RankedList) (types.RankedList, bool) {
	texts := make([]string, 0, len(head)+1)
	texts = append(texts, query)
	for _, rd := range head {
		texts = append(texts, rd.Document.Text())
	}

	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		slog.Default().Warn("semantic rerank unavailable, keeping lexical order", "err", err)
		return nil, false
	}

	queryVec := vectors[0]
	reranked := make(types.RankedList, len(head))
	for i, rd := range head {
		reranked[i] = types.RankedDocument{
			Score:    Cosine(queryVec, vectors[i+1]),
			Document: rd.Document,
		}
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		if reranked[i].Score != reranked[j].Score {
			return reranked[i].Score > reranked[j].Score
		}
		return reranked[i].Document.PMID < reranked[j].Document.PMID
	})
	return reranked, true
}

// Cosine returns the cosine similarity of two vectors, 0 for mismatched
// or zero-magnitude input.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
