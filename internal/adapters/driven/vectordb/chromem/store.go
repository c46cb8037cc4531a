// Package chromem provides an embedded vector database backed by chromem-go.
package chromem

import (
	"context"
	"errors"
	"fmt"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure the adapters implement the interfaces.
var (
	_ driven.VectorDatabase = (*DB)(nil)
	_ driven.Collection     = (*Collection)(nil)
)

// errNoEmbeddingFunc is returned if chromem is ever asked to embed text itself.
var errNoEmbeddingFunc = errors.New("chromem: embeddings must be supplied by the caller")

// noEmbedding keeps chromem from falling back to its default remote embedder.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// DB is a chromem-go database.
type DB struct {
	db *chromemgo.DB
}

// NewDB opens a database. An empty path keeps everything in memory;
// otherwise collections are persisted under path and reloaded on open.
func NewDB(path string) (*DB, error) {
	if path == "" {
		return &DB{db: chromemgo.NewDB()}, nil
	}
	db, err := chromemgo.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

// GetOrCreateCollection returns the named collection.
// chromem always ranks by cosine similarity, so the distance metadata is stored as is.
func (d *DB) GetOrCreateCollection(_ context.Context, name string, metadata map[string]string) (driven.Collection, error) {
	coll, err := d.db.GetOrCreateCollection(name, metadata, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", name, err)
	}
	return &Collection{coll: coll}, nil
}

// DeleteCollection removes the named collection.
func (d *DB) DeleteCollection(_ context.Context, name string) error {
	if d.db.GetCollection(name, noEmbedding) == nil {
		return domain.ErrCollectionNotFound
	}
	if err := d.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}
	return nil
}

// Close releases resources. Persistent databases write on every change.
func (d *DB) Close() error {
	return nil
}

// Collection wraps a chromem collection.
type Collection struct {
	coll *chromemgo.Collection
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.coll.Name
}

// Add inserts records in one batch.
func (c *Collection) Add(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	metadatas := make([]map[string]string, len(records))
	contents := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
		embeddings[i] = rec.Embedding
		metadatas[i] = rec.Metadata
		contents[i] = rec.Document
	}
	if err := c.coll.Add(ctx, ids, embeddings, metadatas, contents); err != nil {
		return fmt.Errorf("add %d records: %w", len(records), err)
	}
	return nil
}

// Query returns up to n nearest records. chromem rejects n above the
// collection size, so n is clamped to Count.
func (c *Collection) Query(ctx context.Context, embedding []float32, n int) (*driven.QueryResult, error) {
	res := &driven.QueryResult{}
	n = min(n, c.coll.Count())
	if n <= 0 {
		return res, nil
	}

	hits, err := c.coll.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", c.coll.Name, err)
	}

	for _, hit := range hits {
		res.IDs = append(res.IDs, hit.ID)
		res.Documents = append(res.Documents, hit.Content)
		res.Metadatas = append(res.Metadatas, hit.Metadata)
		res.Distances = append(res.Distances, 1-float64(hit.Similarity))
	}
	return res, nil
}

// Count returns the number of stored records.
func (c *Collection) Count(_ context.Context) (int, error) {
	return c.coll.Count(), nil
}
