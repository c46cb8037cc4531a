// Package gemini provides an embedding service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel = "text-embedding-004"

	// maxBatch is the API limit for one batchEmbedContents call.
	maxBatch = 100
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string
}

// EmbeddingService generates embeddings with a Gemini embedding model.
type EmbeddingService struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	name   string
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &EmbeddingService{
		client: client,
		model:  client.EmbeddingModel(cfg.Model),
		name:   cfg.Model,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini error: %w", err)
	}
	return toVector(resp.Embedding)
}

// EmbedBatch embeds texts in batches of up to 100, preserving order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		batch := s.model.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}
		resp, err := s.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini error: %w", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini: %w: got %d embeddings for %d texts",
				domain.ErrBatchMismatch, len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			vec, err := toVector(e)
			if err != nil {
				return nil, err
			}
			out = append(out, vec)
		}
	}
	return out, nil
}

func toVector(e *genai.ContentEmbedding) ([]float32, error) {
	if e == nil || len(e.Values) == 0 {
		return nil, fmt.Errorf("gemini: %w", domain.ErrEmptyEmbedding)
	}
	vec := make([]float32, len(e.Values))
	for i, v := range e.Values {
		vec[i] = float32(v)
	}
	return vec, nil
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.name
}

// Ping lists one model to validate the API key.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.client.ListModels(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *EmbeddingService) Close() error {
	return s.client.Close()
}
