package driven

import "context"

// DistanceSpaceKey is the collection metadata key selecting the distance metric.
const DistanceSpaceKey = "hnsw:space"

// DistanceSpaceCosine selects cosine distance.
const DistanceSpaceCosine = "cosine"

// VectorDatabase is a collection-oriented vector store backend.
type VectorDatabase interface {
	// GetOrCreateCollection returns the named collection, creating it with
	// the given metadata when it does not exist.
	GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string) (Collection, error)

	// DeleteCollection removes the named collection.
	// Returns domain.ErrCollectionNotFound when there is nothing to delete.
	DeleteCollection(ctx context.Context, name string) error

	// Close releases resources.
	Close() error
}

// Collection stores (id, embedding, metadata, document) records.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Add inserts records in one batch.
	Add(ctx context.Context, records []VectorRecord) error

	// Query returns up to n nearest records to the embedding, closest first.
	// An empty collection yields an empty result, not an error.
	Query(ctx context.Context, embedding []float32, n int) (*QueryResult, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// VectorRecord is one stored item.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Metadata  map[string]string
	Document  string
}

// QueryResult holds parallel arrays, index i of each slice describing one hit.
type QueryResult struct {
	IDs       []string
	Documents []string
	Metadatas []map[string]string

	// Distances are cosine distances, 0 for identical direction.
	Distances []float64
}

// Len returns the number of hits.
func (r *QueryResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.IDs)
}
