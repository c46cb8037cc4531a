// Package memory provides in-memory implementations of driven port interfaces.
// Data is lost when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.ReindexHistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.ReindexHistoryStore.
type HistoryStore struct {
	mu   sync.RWMutex
	runs map[string]domain.ReindexRun
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		runs: make(map[string]domain.ReindexRun),
	}
}

// Record stores a run, replacing any run with the same ID.
func (s *HistoryStore) Record(_ context.Context, run domain.ReindexRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// LatestSuccessful returns the newest successful run.
func (s *HistoryStore) LatestSuccessful(_ context.Context) (*domain.ReindexRun, error) {
	for _, run := range s.sorted() {
		if run.Success {
			return &run, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns up to limit runs, newest first. A non-positive limit returns all runs.
func (s *HistoryStore) List(_ context.Context, limit int) ([]domain.ReindexRun, error) {
	runs := s.sorted()
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close is a no-op.
func (s *HistoryStore) Close() error {
	return nil
}

// sorted returns a copy of all runs, newest first.
func (s *HistoryStore) sorted() []domain.ReindexRun {
	s.mu.RLock()
	runs := make([]domain.ReindexRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID > runs[j].ID
	})
	return runs
}
