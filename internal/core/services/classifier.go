package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/logger"
)

// IntentClassifier maps a question to the closed intent set using the LLM.
// It fails closed: any failure yields domain.IntentOffTopic.
type IntentClassifier struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.GenerateOptions
	timeout time.Duration
}

// NewIntentClassifier creates a classifier. A zero timeout disables the per-call deadline.
func NewIntentClassifier(
	llm driven.LLMService,
	prompts driven.PromptStore,
	opts driven.GenerateOptions,
	timeout time.Duration,
) *IntentClassifier {
	return &IntentClassifier{
		llm:     llm,
		prompts: prompts,
		opts:    opts,
		timeout: timeout,
	}
}

// Classify returns the question's intent. It never returns an error.
func (c *IntentClassifier) Classify(ctx context.Context, question string) domain.Intent {
	prompt, err := c.prompt(question)
	if err != nil {
		logger.Error("Intent prompt unavailable: %v", err)
		return domain.IntentOffTopic
	}

	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.llm.Generate(callCtx, prompt, c.opts)
	if err != nil {
		logger.Warn("Intent classification failed, treating as %s: %v", domain.IntentOffTopic, err)
		return domain.IntentOffTopic
	}

	intent := domain.ParseIntent(raw)
	logger.Debug("Classified %q as %s (raw %q)", question, intent, strings.TrimSpace(raw))
	return intent
}

func (c *IntentClassifier) prompt(question string) (string, error) {
	tmpl, err := c.prompts.Load(driven.PromptClassifyIntent)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", driven.PromptClassifyIntent, err)
	}
	if err := checkPlaceholders(driven.PromptClassifyIntent, tmpl); err != nil {
		return "", err
	}
	return strings.Replace(tmpl, driven.PlaceholderQuestion, question, 1), nil
}

// withTimeout derives a deadline-bound context when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
