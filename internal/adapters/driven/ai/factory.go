// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/concierge/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/concierge/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/concierge/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/concierge/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/concierge/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/concierge/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/concierge/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the AI services built from settings.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// NewServices creates the embedding and language model services described by settings,
// each wrapped with the configured retry and circuit breaker policy.
func NewServices(ctx context.Context, settings domain.Settings) (*Services, error) {
	timeout := settings.Generation.RequestTimeout()

	embedding, err := CreateEmbeddingService(ctx, settings.Embedding, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	llm, err := CreateLLMService(ctx, settings.LLM, timeout)
	if err != nil {
		embedding.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	return &Services{
		Embedding: NewResilientEmbedding(embedding, settings.Resilience),
		LLM:       NewResilientLLM(llm, settings.Resilience),
	}, nil
}

// Ping validates connectivity of both services.
func (s *Services) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.Embedding.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if err := s.LLM.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

func checkProvider(settings domain.ProviderSettings) error {
	if !settings.Provider.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, settings.Provider)
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return fmt.Errorf("%s requires an API key (set api_key or %s)",
			settings.Provider, settings.Provider.APIKeyEnv())
	}
	return nil
}

// CreateEmbeddingService creates the embedding service for the configured provider.
func CreateEmbeddingService(
	ctx context.Context, settings domain.ProviderSettings, timeout time.Duration,
) (driven.EmbeddingService, error) {
	if err := checkProvider(settings); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderGemini:
		svc, err := geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: %s does not support embeddings, use ollama, openai or gemini",
			domain.ErrUnsupportedProvider, settings.Provider)
	}
}

// CreateLLMService creates the language model service for the configured provider.
func CreateLLMService(
	ctx context.Context, settings domain.ProviderSettings, timeout time.Duration,
) (driven.LLMService, error) {
	if err := checkProvider(settings); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderGemini:
		svc, err := geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, settings.Provider)
	}
}
