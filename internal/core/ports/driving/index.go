package driving

import (
	"context"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

// IndexService manages the vector index lifecycle.
type IndexService interface {
	// Initialize builds the index when empty, otherwise adopts the existing one.
	Initialize(ctx context.Context) error

	// Reindex deletes and rebuilds the index from the current corpus.
	Reindex(ctx context.Context, trigger domain.ReindexTrigger) error

	// Status returns the readiness signal.
	Status() domain.IndexStatus

	// History returns up to limit recorded builds, newest first.
	History(ctx context.Context, limit int) ([]domain.ReindexRun, error)
}
