package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driving"
	"github.com/custodia-labs/concierge/internal/logger"
)

// ReindexWorker is the single consumer of change notifications.
// At most one rebuild is pending: notifications that arrive while one is
// already queued collapse into it. Rebuilds run one at a time.
type ReindexWorker struct {
	index   driving.IndexService
	pending chan struct{}

	// running is cleared only by the loop on exit.
	mu       sync.Mutex
	running  bool
	stopping bool
	stopCh   chan struct{}
	done     chan struct{}
}

// NewReindexWorker creates a worker that rebuilds the given index.
func NewReindexWorker(index driving.IndexService) *ReindexWorker {
	return &ReindexWorker{
		index:   index,
		pending: make(chan struct{}, 1),
	}
}

// Notify requests a rebuild. It never blocks.
func (w *ReindexWorker) Notify() {
	select {
	case w.pending <- struct{}{}:
		logger.Info("Document change detected, reindex queued")
	default:
		logger.Debug("Reindex already queued, coalescing change notification")
	}
}

// Start runs the worker loop. This method blocks until Stop is called or ctx is done.
func (w *ReindexWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.stopping = false
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	stopCh, done := w.stopCh, w.done
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.stopping = false
		w.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-w.pending:
			if err := w.index.Reindex(ctx, domain.TriggerChange); err != nil {
				logger.Error("Reindex failed: %v", err)
				continue
			}
			logger.Info("Reindex complete, %d chunks indexed", w.index.Status().DocumentsCount)
		}
	}
}

// Stop ends the worker loop and waits for a running rebuild to finish.
func (w *ReindexWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	if !w.stopping {
		w.stopping = true
		close(w.stopCh)
	}
	done := w.done
	w.mu.Unlock()

	<-done
}
