package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/core/ports/driving"
	"github.com/custodia-labs/concierge/internal/logger"
)

// Ensure IndexManager implements the interface.
var _ driving.IndexService = (*IndexManager)(nil)

// IndexManagerConfig controls how builds run.
type IndexManagerConfig struct {
	// EmbedConcurrency bounds parallel embedding batches.
	EmbedConcurrency int

	// EmbedBatchSize is the number of chunks per EmbedBatch call
	// (default: domain.DefaultEmbedBatchSize).
	EmbedBatchSize int

	// EmbedRatePerSecond limits embedding batches. 0 disables the limit.
	EmbedRatePerSecond float64

	// VerifyOnStart rebuilds a non-empty index whose corpus fingerprint changed
	// since the last successful build. Requires a history store.
	VerifyOnStart bool
}

// IndexManager keeps the vector index in agreement with the document corpus.
// Builds are serialised: Initialize and Reindex never overlap.
type IndexManager struct {
	source   driven.DocumentSource
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	index    *VectorIndex
	history  driven.ReindexHistoryStore
	metrics  driven.Metrics
	cfg      IndexManagerConfig

	buildMu sync.Mutex
	count   atomic.Int64
	ready   atomic.Bool
	lastRun atomic.Pointer[domain.ReindexRun]
}

// NewIndexManager creates an index manager.
// The history and metrics parameters are optional (can be nil).
func NewIndexManager(
	source driven.DocumentSource,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index *VectorIndex,
	history driven.ReindexHistoryStore,
	metrics driven.Metrics,
	cfg IndexManagerConfig,
) *IndexManager {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = 1
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = domain.DefaultEmbedBatchSize
	}
	return &IndexManager{
		source:   source,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		history:  history,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// Initialize binds the collection and builds it when empty. A non-empty
// index is adopted as is unless VerifyOnStart detects a changed corpus.
func (m *IndexManager) Initialize(ctx context.Context) error {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	logger.Section("Index Initialization")
	if err := m.index.Bind(ctx); err != nil {
		return err
	}

	existing, err := m.index.Count(ctx)
	if err != nil {
		return fmt.Errorf("count collection: %w", err)
	}

	if existing == 0 {
		logger.Info("Collection %q is empty, building from %s", m.index.Name(), m.source.Location())
		if err := m.build(ctx, domain.TriggerInitialize); err != nil {
			return err
		}
	} else {
		logger.Info("Collection %q already holds %d chunks, skipping build", m.index.Name(), existing)
		m.setCount(existing)
		if m.cfg.VerifyOnStart {
			if err := m.verify(ctx); err != nil {
				return err
			}
		}
	}

	m.ready.Store(true)
	return nil
}

// verify rebuilds when the corpus fingerprint differs from the last successful build.
func (m *IndexManager) verify(ctx context.Context) error {
	if m.history == nil {
		logger.Warn("verify_on_start needs a history store, trusting existing index")
		return nil
	}

	corpus, err := m.source.Load(ctx)
	if err != nil || corpus.IsEmpty() {
		logger.Warn("Cannot load corpus for verification, trusting existing index: %v", err)
		return nil
	}

	last, err := m.history.LatestSuccessful(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("No recorded build for the existing index, rebuilding")
	case err != nil:
		return fmt.Errorf("latest successful build: %w", err)
	case last.CorpusFingerprint == corpus.Fingerprint:
		logger.Debug("Corpus fingerprint %s matches index", corpus.Fingerprint)
		return nil
	default:
		logger.Info("Corpus changed since last build (%s -> %s), rebuilding", last.CorpusFingerprint, corpus.Fingerprint)
	}
	return m.reindexLocked(ctx, domain.TriggerStale)
}

// Reindex deletes the collection and rebuilds it from the current corpus.
// Concurrent callers wait for the running build and then rebuild again.
func (m *IndexManager) Reindex(ctx context.Context, trigger domain.ReindexTrigger) error {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	logger.Section("Reindex")
	if err := m.reindexLocked(ctx, trigger); err != nil {
		return err
	}
	m.ready.Store(true)
	return nil
}

func (m *IndexManager) reindexLocked(ctx context.Context, trigger domain.ReindexTrigger) error {
	if err := m.index.DeleteAndRecreate(ctx); err != nil {
		m.setCount(0)
		return err
	}
	m.setCount(0)
	return m.build(ctx, trigger)
}

// build loads, chunks, embeds and inserts the corpus.
// A missing or empty corpus is logged and recorded but is not an error.
func (m *IndexManager) build(ctx context.Context, trigger domain.ReindexTrigger) (err error) {
	run := domain.ReindexRun{
		ID:        ulid.Make().String(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
	defer func() {
		run.EndedAt = time.Now()
		if err != nil {
			run.Error = err.Error()
		}
		m.record(ctx, run)
	}()

	corpus, err := m.source.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrCorpusNotFound), errors.Is(err, domain.ErrEmptyCorpus):
		logger.Error("Document source %s unusable, build aborted: %v", m.source.Location(), err)
		run.Error = err.Error()
		return nil
	case err != nil:
		return fmt.Errorf("load documents: %w", err)
	case corpus.IsEmpty():
		logger.Error("Document source %s has no documents, build aborted", m.source.Location())
		run.Error = domain.ErrEmptyCorpus.Error()
		return nil
	}
	run.CorpusFingerprint = corpus.Fingerprint

	var chunks []domain.Chunk
	for i := range corpus.Documents {
		docChunks, err := m.chunker.Chunk(&corpus.Documents[i])
		if err != nil {
			return fmt.Errorf("chunk document %q: %w", corpus.Documents[i].ID, err)
		}
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		logger.Error("Documents in %s have no content, build aborted", m.source.Location())
		run.Error = domain.ErrEmptyCorpus.Error()
		return nil
	}

	logger.Info("Embedding %d chunks from %d documents", len(chunks), len(corpus.Documents))
	embeddings, err := m.embedAll(ctx, chunks)
	if err != nil {
		return err
	}

	if err := m.index.Insert(ctx, chunks, embeddings); err != nil {
		return err
	}

	m.setCount(len(chunks))
	run.ChunkCount = len(chunks)
	run.Success = true
	logger.Info("Stored %d chunks in collection %q", len(chunks), m.index.Name())
	return nil
}

// embedAll embeds chunk contents in batches, running batches concurrently
// and preserving chunk order.
func (m *IndexManager) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	var limiter *rate.Limiter
	if m.cfg.EmbedRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(m.cfg.EmbedRatePerSecond), 1)
	}

	embeddings := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.EmbedConcurrency)

	for start := 0; start < len(chunks); start += m.cfg.EmbedBatchSize {
		end := min(start+m.cfg.EmbedBatchSize, len(chunks))
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = chunks[start+i].Content
			}
			vecs, err := m.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embed chunks %d-%d: %w: got %d vectors for %d texts",
					start, end-1, domain.ErrBatchMismatch, len(vecs), len(texts))
			}
			for i, vec := range vecs {
				if len(vec) == 0 {
					return fmt.Errorf("embed chunk %d: %w", start+i, domain.ErrEmptyEmbedding)
				}
				embeddings[start+i] = vec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (m *IndexManager) record(ctx context.Context, run domain.ReindexRun) {
	m.lastRun.Store(&run)
	m.metrics.ObserveReindex(run)
	if m.history == nil {
		return
	}
	if err := m.history.Record(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("Failed to record reindex run %s: %v", run.ID, err)
	}
}

func (m *IndexManager) setCount(n int) {
	m.count.Store(int64(n))
	m.metrics.SetIndexedChunks(n)
}

// DocumentsCount returns the last known number of indexed chunks.
func (m *IndexManager) DocumentsCount() int {
	return int(m.count.Load())
}

// Status returns the readiness signal.
func (m *IndexManager) Status() domain.IndexStatus {
	return domain.IndexStatus{
		Ready:          m.ready.Load(),
		DocumentsCount: m.DocumentsCount(),
		LastReindex:    m.lastRun.Load(),
	}
}

// History returns up to limit recorded builds, newest first.
func (m *IndexManager) History(ctx context.Context, limit int) ([]domain.ReindexRun, error) {
	if m.history == nil {
		return []domain.ReindexRun{}, nil
	}
	return m.history.List(ctx, limit)
}
