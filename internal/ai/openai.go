// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// OpenAIGenerator implements Generator over an OpenAI-compatible chat
// endpoint.
type OpenAIGenerator struct {
	client *openai.LLM
	logger *slog.Logger
}

// NewGenerator constructs a Generator from the AI configuration. A
// missing API key defaults to "none" for local servers that skip
// authentication.
func NewGenerator(cfg types.AIConfig) (*OpenAIGenerator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ai: inference base_url is required")
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("ai: creating inference client: %w", err)
	}
	return &OpenAIGenerator{
		client: client,
		logger: slog.Default().With("component", "llm"),
	}, nil
}

// Generate sends one prompt at temperature 0 and returns the raw text of
// the first choice.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	resp, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		return "", fmt.Errorf("ai: generate: %w", err)
	}
	if len(resp.Choices) < 1 {
		return "", fmt.Errorf("ai: generate: no choices returned")
	}
	return resp.Choices[0].Content, nil
}

// OpenAIEmbedder implements Embedder over an OpenAI-compatible embedding
// endpoint.
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// NewEmbedder constructs an Embedder, or (nil, nil) when no embedding
// endpoint is configured; callers treat a nil Embedder as "semantic
// reranking disabled".
func NewEmbedder(cfg types.AIConfig) (*OpenAIEmbedder, error) {
	if cfg.EmbedBaseURL == "" {
		return nil, nil
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.EmbedBaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.EmbedModel),
	)
	if err != nil {
		return nil, fmt.Errorf("ai: creating embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("ai: creating embedder: %w", err)
	}
	return &OpenAIEmbedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "embedder"),
	}, nil
}

// EmbedTexts embeds a batch, returning vectors in input order.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ai: embedding %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("ai: embedding count mismatch: got %d, want %d", len(vectors), len(texts))
	}
	return vectors, nil
}
