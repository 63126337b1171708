// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai abstracts the LLM inference and embedding services behind
// small interfaces so the pipeline never couples to a specific transport.
// The concrete implementations speak to OpenAI-compatible endpoints
// (including local inference servers); mocks live in the mock subpackage.
package ai

import "context"

// Generator is the blocking LLM inference call. Implementations must be
// safe for concurrent use; callers apply their own timeout and retry
// policy through ctx.
type Generator interface {
	// Generate sends one prompt and returns the raw model text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder generates vector embeddings for semantic similarity.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedTexts embeds a batch, returning vectors in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
