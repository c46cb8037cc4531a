package driven

import (
	"context"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

// ReindexHistoryStore records index builds.
type ReindexHistoryStore interface {
	// Record saves a finished run.
	Record(ctx context.Context, run domain.ReindexRun) error

	// LatestSuccessful returns the newest successful run.
	// Returns domain.ErrNotFound when there is none.
	LatestSuccessful(ctx context.Context) (*domain.ReindexRun, error)

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]domain.ReindexRun, error)

	// Close releases resources.
	Close() error
}
