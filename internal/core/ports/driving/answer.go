package driving

import (
	"context"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

// AnswerService answers end-user questions.
type AnswerService interface {
	// Answer returns the reply for a question.
	// The only error is domain.ErrEmptyQuestion; pipeline failures are
	// reported inside the answer text as a generic apology.
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}
