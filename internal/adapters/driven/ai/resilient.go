package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/logger"
)

// Ensure the decorators implement the interfaces.
var (
	_ driven.EmbeddingService = (*ResilientEmbedding)(nil)
	_ driven.LLMService       = (*ResilientLLM)(nil)
)

const (
	maxBackoffInterval = 5 * time.Second
	breakerOpenTimeout = 30 * time.Second
)

// guard runs remote calls with bounded retry behind an optional circuit breaker.
type guard struct {
	name       string
	maxRetries int
	initial    time.Duration
	breaker    *gobreaker.CircuitBreaker
	sentinel   error
}

func newGuard(name string, policy domain.ResilienceSettings, sentinel error) *guard {
	g := &guard{
		name:       name,
		maxRetries: max(policy.MaxRetries, 0),
		initial:    policy.InitialInterval(),
		sentinel:   sentinel,
	}
	if g.initial <= 0 {
		g.initial = 250 * time.Millisecond
	}
	if policy.BreakerFailures > 0 {
		threshold := uint32(policy.BreakerFailures)
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				// Caller cancellation says nothing about provider health.
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
			},
		})
	}
	return g
}

// do calls fn until it succeeds or a stop condition holds: retries run out,
// ctx ends, the breaker opens or the provider rejects the request.
func (g *guard) do(ctx context.Context, fn func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.initial
	b.MaxInterval = maxBackoffInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(g.maxRetries)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := g.call(ctx, fn)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil,
			errors.Is(err, gobreaker.ErrOpenState),
			errors.Is(err, gobreaker.ErrTooManyRequests),
			!domain.IsRetryable(err):
			return backoff.Permanent(err)
		}
		logger.Debug("%s attempt %d failed: %v", g.name, attempt, err)
		return err
	}, policy)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", g.sentinel, g.name, err)
	}
	return err
}

func (g *guard) call(ctx context.Context, fn func(context.Context) error) error {
	if g.breaker == nil {
		return fn(ctx)
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// ResilientEmbedding retries embedding calls and stops calling a failing provider.
type ResilientEmbedding struct {
	driven.EmbeddingService
	guard *guard
}

// NewResilientEmbedding wraps svc with the given policy.
func NewResilientEmbedding(svc driven.EmbeddingService, policy domain.ResilienceSettings) *ResilientEmbedding {
	return &ResilientEmbedding{
		EmbeddingService: svc,
		guard:            newGuard("embedding/"+svc.ModelName(), policy, domain.ErrEmbeddingUnavailable),
	}
}

// Embed generates a vector embedding for the given text.
func (r *ResilientEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := r.guard.do(ctx, func(ctx context.Context) error {
		var err error
		vec, err = r.EmbeddingService.Embed(ctx, text)
		return err
	})
	return vec, err
}

// EmbedBatch generates embeddings for multiple texts, in input order.
func (r *ResilientEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := r.guard.do(ctx, func(ctx context.Context) error {
		var err error
		vecs, err = r.EmbeddingService.EmbedBatch(ctx, texts)
		return err
	})
	return vecs, err
}

// ResilientLLM retries generation calls and stops calling a failing provider.
type ResilientLLM struct {
	driven.LLMService
	guard *guard
}

// NewResilientLLM wraps svc with the given policy.
func NewResilientLLM(svc driven.LLMService, policy domain.ResilienceSettings) *ResilientLLM {
	return &ResilientLLM{
		LLMService: svc,
		guard:      newGuard("llm/"+svc.ModelName(), policy, domain.ErrLLMUnavailable),
	}
}

// Generate produces text completion from a prompt.
func (r *ResilientLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := r.guard.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.LLMService.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}
