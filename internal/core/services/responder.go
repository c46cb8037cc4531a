package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/core/ports/driving"
	"github.com/custodia-labs/concierge/internal/logger"
)

// Ensure ResponseGenerator implements the interface.
var _ driving.AnswerService = (*ResponseGenerator)(nil)

// Fixed replies. End users only ever see these or a generated answer.
const (
	GreetingReply = "안녕하세요! 마이워크스페이스 AI 상담원입니다. 무엇을 도와드릴까요?"
	RefusalReply  = "죄송하지만 문의하신 내용에 대해서는 답변해 드릴 수 없습니다. 공유오피스 관련 질문을 해주세요."
	ApologyReply  = "죄송합니다, 일시적인 시스템 오류가 발생했습니다."
)

var (
	courtesyLeadIn = regexp.MustCompile(`(?i)^.*(안내|알려|말씀)드리겠습니다\.?\s*`)
	emphasisMarks  = regexp.MustCompile(`\*{1,2}`)
)

// errEmptyGeneration marks a model reply that was blank after cleanup.
var errEmptyGeneration = errors.New("empty generation")

// ResponseGeneratorConfig holds retrieval and generation parameters.
type ResponseGeneratorConfig struct {
	// TopK is the number of nearest chunks fetched per question.
	TopK int

	// SimilarityFloor drops hits scoring below it.
	SimilarityFloor float64

	// MaxSources caps the citations attached to a grounded answer.
	MaxSources int

	// Generate holds the sampling options for answer generation.
	Generate driven.GenerateOptions

	// RequestTimeout bounds each remote call. Zero disables it.
	RequestTimeout time.Duration
}

// DefaultResponseGeneratorConfig returns the production retrieval parameters.
func DefaultResponseGeneratorConfig() ResponseGeneratorConfig {
	return ResponseGeneratorConfig{
		TopK:            domain.DefaultTopK,
		SimilarityFloor: domain.DefaultSimilarityFloor,
		MaxSources:      domain.DefaultMaxSources,
		Generate: driven.GenerateOptions{
			Temperature: domain.DefaultTemperature,
			TopP:        domain.DefaultTopP,
		},
		RequestTimeout: domain.DefaultRequestTimeout * time.Second,
	}
}

// ResponseGenerator answers questions: classify, then either reply with a
// fixed string or retrieve, prompt, generate and clean.
type ResponseGenerator struct {
	classifier *IntentClassifier
	index      *VectorIndex
	embedder   driven.EmbeddingService
	llm        driven.LLMService
	builder    *PromptBuilder
	metrics    driven.Metrics
	cfg        ResponseGeneratorConfig
}

// NewResponseGenerator creates a response generator.
// The metrics parameter is optional (can be nil).
func NewResponseGenerator(
	classifier *IntentClassifier,
	index *VectorIndex,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	builder *PromptBuilder,
	metrics driven.Metrics,
	cfg ResponseGeneratorConfig,
) *ResponseGenerator {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ResponseGenerator{
		classifier: classifier,
		index:      index,
		embedder:   embedder,
		llm:        llm,
		builder:    builder,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// Answer returns the reply for a question.
// Only a blank question is an error; pipeline failures become ApologyReply.
func (g *ResponseGenerator) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	logger.Section("Answer")
	logger.Debug("Question: %q", question)
	start := time.Now()

	intent := g.classifier.Classify(ctx, question)
	answer := &domain.Answer{Intent: intent, Sources: []domain.Citation{}}
	failed := false

	switch {
	case intent == domain.IntentGreeting:
		answer.Text = GreetingReply

	case intent.IsBusiness():
		logger.Info("Business question (%s), answering from documents", intent)
		text, sources, err := g.grounded(ctx, question)
		if err != nil {
			logger.Error("Answer generation failed: %v", err)
			answer.Text = ApologyReply
			failed = true
			break
		}
		answer.Text = text
		answer.Sources = sources

	default:
		logger.Info("Off-topic question, refusing")
		answer.Text = RefusalReply
	}

	g.metrics.ObserveAnswer(intent, failed, time.Since(start))
	return answer, nil
}

// grounded runs retrieval and generation for a business question.
func (g *ResponseGenerator) grounded(ctx context.Context, question string) (string, []domain.Citation, error) {
	kept, err := g.retrieve(ctx, question)
	if err != nil {
		return "", nil, err
	}

	contents := make([]string, len(kept))
	for i, hit := range kept {
		contents[i] = hit.Content
	}

	prompt, grounded, err := g.builder.Build(question, strings.Join(contents, ContextDelimiter))
	if err != nil {
		return "", nil, fmt.Errorf("build prompt: %w", err)
	}
	logger.Debug("Prompt template: grounded=%t, %d context chunks", grounded, len(kept))

	callCtx, cancel := withTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	raw, err := g.llm.Generate(callCtx, prompt, g.cfg.Generate)
	if err != nil {
		return "", nil, fmt.Errorf("generate: %w", err)
	}

	text := CleanResponse(raw)
	if text == "" {
		return "", nil, errEmptyGeneration
	}
	return text, citations(kept, g.cfg.MaxSources), nil
}

// retrieve embeds the question and keeps hits at or above the similarity floor, in rank order.
func (g *ResponseGenerator) retrieve(ctx context.Context, question string) ([]domain.SimilarityResult, error) {
	callCtx, cancel := withTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	embedding, err := g.embedder.Embed(callCtx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := g.index.Query(callCtx, embedding, g.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	kept := make([]domain.SimilarityResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Similarity >= g.cfg.SimilarityFloor {
			kept = append(kept, hit)
			continue
		}
		logger.Debug("Dropped hit %s (similarity %.3f)", hit.ID, hit.Similarity)
	}
	g.metrics.ObserveRetrieval(len(kept), len(hits)-len(kept))
	logger.Debug("Retrieved %d hits, %d above floor %.2f", len(hits), len(kept), g.cfg.SimilarityFloor)
	return kept, nil
}

// citations converts the first limit hits into source citations.
func citations(hits []domain.SimilarityResult, limit int) []domain.Citation {
	n := max(min(len(hits), limit), 0)
	out := make([]domain.Citation, 0, n)
	for _, hit := range hits[:n] {
		out = append(out, hit.Metadata.Citation())
	}
	return out
}

// CleanResponse strips a courtesy lead-in such as "...안내드리겠습니다." and
// emphasis asterisks from raw model output.
func CleanResponse(raw string) string {
	cleaned := courtesyLeadIn.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = strings.TrimSpace(cleaned)
	return emphasisMarks.ReplaceAllString(cleaned, "")
}
