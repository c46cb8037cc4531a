package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/logger"
)

// ContextDelimiter separates retrieved chunks in the grounding context.
const ContextDelimiter = "\n\n---\n\n"

// PromptBuilder fills the grounded or no-context answer template.
type PromptBuilder struct {
	prompts driven.PromptStore
}

// NewPromptBuilder creates a prompt builder over the given templates.
func NewPromptBuilder(prompts driven.PromptStore) *PromptBuilder {
	return &PromptBuilder{prompts: prompts}
}

// Build returns the prompt for a question and its grounding context.
// Context that is blank after trimming selects the no-context template.
// grounded reports which template was used.
func (b *PromptBuilder) Build(question, context string) (prompt string, grounded bool, err error) {
	name := driven.PromptGroundedAnswer
	grounded = strings.TrimSpace(context) != ""
	if !grounded {
		logger.Debug("Empty grounding context, using %s", driven.PromptNoContextFallback)
		name = driven.PromptNoContextFallback
	}

	tmpl, err := b.prompts.Load(name)
	if err != nil {
		return "", grounded, fmt.Errorf("load %s: %w", name, err)
	}
	if err := checkPlaceholders(name, tmpl); err != nil {
		return "", grounded, err
	}

	if grounded {
		tmpl = strings.Replace(tmpl, driven.PlaceholderContext, context, 1)
	}
	return strings.Replace(tmpl, driven.PlaceholderQuestion, question, 1), grounded, nil
}

// checkPlaceholders verifies a known template contains every placeholder it needs.
func checkPlaceholders(name, tmpl string) error {
	for _, ph := range driven.PromptPlaceholders()[name] {
		if !strings.Contains(tmpl, ph) {
			return fmt.Errorf("%w: %s lacks %s", domain.ErrTemplatePlaceholder, name, ph)
		}
	}
	return nil
}
