// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mock provides deterministic ai implementations for tests.
package mock

import (
	"context"
	"sync"
)

// Generator returns scripted responses in order, then repeats the last
// one. A nil Err is returned unless set.
type Generator struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     []string
}

// Generate records the prompt and returns the next scripted response.
func (g *Generator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls = append(g.Calls, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	if len(g.Responses) == 0 {
		return "", nil
	}
	idx := len(g.Calls) - 1
	if idx >= len(g.Responses) {
		idx = len(g.Responses) - 1
	}
	return g.Responses[idx], nil
}

// Embedder returns fixed-dimension vectors derived from text length, so
// identical texts embed identically.
type Embedder struct {
	Err error
}

// EmbedTexts returns one deterministic vector per input text.
func (e *Embedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		var a, b float32
		for _, r := range text {
			a += float32(r % 7)
			b += float32(r % 13)
		}
		out[i] = []float32{a + 1, b + 1}
	}
	return out, nil
}
