// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"

	"github.com/pdiddy/repurpose-engine/internal/cache"
)

// embedPartition is the cache partition for embedding vectors. Vectors
// depend only on the text and model, not on any candidate.
const embedPartition = "embeddings"

// CachedEmbedder wraps an Embedder with the retrieval cache so repeated
// runs do not re-embed the same abstracts. Cache misses fall through to
// the inner embedder in one batch; each vector is stored individually,
// keyed by model and text.
type CachedEmbedder struct {
	store *cache.Store
	inner Embedder
	model string
}

// NewCachedEmbedder returns inner wrapped with the cache, or nil when
// inner is nil so "reranking disabled" propagates unchanged.
func NewCachedEmbedder(store *cache.Store, inner Embedder, model string) *CachedEmbedder {
	if inner == nil {
		return nil
	}
	return &CachedEmbedder{store: store, inner: inner, model: model}
}

// EmbedTexts returns vectors in input order, serving what it can from
// the cache and embedding only the misses.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var (
		missing    []string
		missingIdx []int
	)
	for i, text := range texts {
		var vec []float32
		hit, err := c.store.Get(embedPartition, cache.StageEmbed, c.model+"\x00"+text, &vec)
		if err == nil && hit {
			vectors[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := c.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range fresh {
		i := missingIdx[j]
		vectors[i] = vec
		// Best effort: a failed cache write only costs a re-embed later.
		_ = c.store.Put(embedPartition, cache.StageEmbed, c.model+"\x00"+texts[i], vec)
	}
	return vectors, nil
}
