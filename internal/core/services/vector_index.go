package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/logger"
)

// Record layout inside the vector database.
const (
	// RecordIDPrefix starts every stored record ID.
	RecordIDPrefix = "doc_chunk_"

	// MetadataKeyOriginal holds the JSON-serialised owning document metadata.
	MetadataKeyOriginal = "original_metadata"
)

// VectorIndex stores chunk embeddings in one named collection and answers
// nearest-neighbour queries. The bound collection handle is the only mutable
// state and is swapped whole on DeleteAndRecreate.
type VectorIndex struct {
	db   driven.VectorDatabase
	name string

	mu         sync.RWMutex
	collection driven.Collection
}

// NewVectorIndex creates an unbound index over the named collection.
func NewVectorIndex(db driven.VectorDatabase, name string) *VectorIndex {
	return &VectorIndex{db: db, name: name}
}

// Name returns the collection name.
func (v *VectorIndex) Name() string {
	return v.name
}

// collectionMetadata configures cosine distance for new collections.
func collectionMetadata() map[string]string {
	return map[string]string{driven.DistanceSpaceKey: driven.DistanceSpaceCosine}
}

// Bind gets or creates the collection and binds its handle.
func (v *VectorIndex) Bind(ctx context.Context) error {
	coll, err := v.db.GetOrCreateCollection(ctx, v.name, collectionMetadata())
	if err != nil {
		return fmt.Errorf("get or create collection %q: %w", v.name, err)
	}

	v.mu.Lock()
	v.collection = coll
	v.mu.Unlock()

	logger.Debug("Collection %q bound", v.name)
	return nil
}

// handle returns the bound collection or ErrIndexNotInitialized.
func (v *VectorIndex) handle() (driven.Collection, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.collection == nil {
		return nil, domain.ErrIndexNotInitialized
	}
	return v.collection, nil
}

// Count returns the number of stored records.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	coll, err := v.handle()
	if err != nil {
		return 0, err
	}
	return coll.Count(ctx)
}

// Insert stores chunks with their embeddings in one batch.
// Every record gets a fresh ID, unique across calls.
func (v *VectorIndex) Insert(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks, %d embeddings", domain.ErrBatchMismatch, len(chunks), len(embeddings))
	}
	coll, err := v.handle()
	if err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	records := make([]driven.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		if len(embeddings[i]) == 0 {
			return fmt.Errorf("chunk %d: %w", i, domain.ErrEmptyEmbedding)
		}

		var meta domain.DocumentMeta
		if chunk.Document != nil {
			meta = chunk.Document.Meta()
		}
		encoded, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}

		records[i] = driven.VectorRecord{
			ID:        RecordIDPrefix + uuid.NewString(),
			Embedding: embeddings[i],
			Metadata:  map[string]string{MetadataKeyOriginal: string(encoded)},
			Document:  chunk.Content,
		}
	}

	if err := coll.Add(ctx, records); err != nil {
		return fmt.Errorf("add records: %w", err)
	}
	return nil
}

// Query returns up to topK results by descending similarity.
// Similarity is 1 - cosine distance. An empty index yields no results.
func (v *VectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]domain.SimilarityResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK %d", domain.ErrInvalidInput, topK)
	}
	coll, err := v.handle()
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	res, err := coll.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	if res == nil {
		return []domain.SimilarityResult{}, nil
	}

	n := min(res.Len(), len(res.Distances))
	results := make([]domain.SimilarityResult, 0, n)
	for i := 0; i < n && i < topK; i++ {
		result := domain.SimilarityResult{
			ID:         res.IDs[i],
			Similarity: 1 - res.Distances[i],
		}
		if i < len(res.Documents) {
			result.Content = res.Documents[i]
		}
		if i < len(res.Metadatas) {
			result.Metadata = decodeMetadata(res.Metadatas[i])
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Similarity > results[b].Similarity
	})
	return results, nil
}

func decodeMetadata(md map[string]string) domain.DocumentMeta {
	var meta domain.DocumentMeta
	raw, ok := md[MetadataKeyOriginal]
	if !ok {
		return meta
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		logger.Warn("Undecodable chunk metadata: %v", err)
	}
	return meta
}

// DeleteAndRecreate drops the collection and binds a fresh empty one.
// A missing collection is not an error. In-flight queries keep the handle
// they already hold.
func (v *VectorIndex) DeleteAndRecreate(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	err := v.db.DeleteCollection(ctx, v.name)
	switch {
	case err == nil:
		logger.Info("Deleted collection %q", v.name)
	case errors.Is(err, domain.ErrCollectionNotFound):
		logger.Info("No collection %q to delete, skipping", v.name)
	default:
		return fmt.Errorf("delete collection %q: %w", v.name, err)
	}

	coll, err := v.db.GetOrCreateCollection(ctx, v.name, collectionMetadata())
	if err != nil {
		v.collection = nil
		return fmt.Errorf("recreate collection %q: %w", v.name, err)
	}
	v.collection = coll
	return nil
}
