package driven

import (
	"context"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

// DocumentSource loads the document corpus.
type DocumentSource interface {
	// Load reads the current corpus.
	// Returns domain.ErrCorpusNotFound when the source does not exist.
	Load(ctx context.Context) (*domain.Corpus, error)

	// Location describes where documents are read from, for logs and status.
	Location() string
}

// ChangeWatcher notifies when the document source content changes.
type ChangeWatcher interface {
	// Watch blocks until ctx is cancelled, calling onChange at most once per
	// actual content change. The initial state does not fire.
	Watch(ctx context.Context, onChange func()) error
}

// Chunker splits a document into ordered chunks.
type Chunker interface {
	// Chunk splits the document's content. Empty content yields no chunks.
	Chunk(doc *domain.Document) ([]domain.Chunk, error)
}
