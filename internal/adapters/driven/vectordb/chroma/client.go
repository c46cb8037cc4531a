// Package chroma provides a vector database adapter for a remote Chroma server.
package chroma

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	chromav2 "github.com/amikos-tech/chroma-go/pkg/api/v2"
	chhttp "github.com/amikos-tech/chroma-go/pkg/commons/http"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure the adapters implement the interfaces.
var (
	_ driven.VectorDatabase = (*Client)(nil)
	_ driven.Collection     = (*Collection)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
)

// includeDistances asks the server to return distances alongside query hits.
const includeDistances chromav2.Include = "distances"

// Config holds configuration for the Chroma client.
type Config struct {
	// BaseURL is the Chroma server address (default: http://localhost:8000).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Client talks to a Chroma server through the chroma-go v2 API client.
type Client struct {
	api chromav2.Client
}

// NewClient creates a new Chroma client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	api, err := chromav2.NewHTTPClient(
		chromav2.WithBaseURL(cfg.BaseURL),
		chromav2.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}
	return &Client{api: api}, nil
}

// GetOrCreateCollection returns the named collection, creating it when missing.
func (c *Client) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string) (driven.Collection, error) {
	opts := []chromav2.CreateCollectionOption{
		chromav2.WithEmbeddingFunctionCreate(precomputed{}),
	}
	if len(metadata) > 0 {
		attrs := make([]*chromav2.MetaAttribute, 0, len(metadata))
		for k, v := range metadata {
			attrs = append(attrs, chromav2.NewStringAttribute(k, v))
		}
		opts = append(opts, chromav2.WithCollectionMetadataCreate(chromav2.NewMetadata(attrs...)))
	}

	coll, err := c.api.GetOrCreateCollection(ctx, name, opts...)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", name, providerError(err))
	}
	if coll.ID() == "" {
		return nil, fmt.Errorf("get or create collection %q: empty collection id", name)
	}
	return &Collection{coll: coll}, nil
}

// DeleteCollection removes the named collection.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	err := c.api.DeleteCollection(ctx, name)
	if isNotFound(err) {
		return domain.ErrCollectionNotFound
	}
	if err != nil {
		return fmt.Errorf("delete collection %q: %w", name, providerError(err))
	}
	return nil
}

// isNotFound recognises the missing-collection answers of different server versions.
func isNotFound(err error) bool {
	var ce *chhttp.ChromaError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.ErrorCode == http.StatusNotFound ||
		ce.ErrorID == "NotFoundError" ||
		strings.Contains(ce.Message, "does not exist")
}

// providerError converts a server answer into a domain.ProviderError so
// callers can tell retryable failures apart. Transport errors pass through.
func providerError(err error) error {
	var ce *chhttp.ChromaError
	if !errors.As(err, &ce) || ce.ErrorCode == 0 {
		return err
	}
	return &domain.ProviderError{Provider: "chroma", StatusCode: ce.ErrorCode, Body: ce.Message}
}

// Close releases resources.
func (c *Client) Close() error {
	return c.api.Close()
}

// precomputed is the collection embedding function. Every record and query
// arrives with its vector already computed, so it is never asked to embed.
type precomputed struct{}

var errPrecomputed = errors.New("chroma collections take precomputed embeddings only")

func (precomputed) EmbedDocuments(context.Context, []string) ([]embeddings.Embedding, error) {
	return nil, errPrecomputed
}

func (precomputed) EmbedQuery(context.Context, string) (embeddings.Embedding, error) {
	return nil, errPrecomputed
}

// Collection is a handle to one server-side collection.
type Collection struct {
	coll chromav2.Collection
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.coll.Name()
}

// Add inserts records in one batch.
func (c *Collection) Add(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]chromav2.DocumentID, len(records))
	vecs := make([]embeddings.Embedding, len(records))
	docs := make([]string, len(records))
	metas := make([]chromav2.DocumentMetadata, len(records))
	for i, rec := range records {
		ids[i] = chromav2.DocumentID(rec.ID)
		vecs[i] = embeddings.NewEmbeddingFromFloat32(rec.Embedding)
		docs[i] = rec.Document
		attrs := make([]*chromav2.MetaAttribute, 0, len(rec.Metadata))
		for k, v := range rec.Metadata {
			attrs = append(attrs, chromav2.NewStringAttribute(k, v))
		}
		metas[i] = chromav2.NewDocumentMetadata(attrs...)
	}

	err := c.coll.Add(ctx,
		chromav2.WithIDs(ids...),
		chromav2.WithEmbeddings(vecs...),
		chromav2.WithTexts(docs...),
		chromav2.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("add %d records: %w", len(records), providerError(err))
	}
	return nil
}

// Query returns up to n nearest records.
func (c *Collection) Query(ctx context.Context, embedding []float32, n int) (*driven.QueryResult, error) {
	res := &driven.QueryResult{}
	if n <= 0 {
		return res, nil
	}

	qr, err := c.coll.Query(ctx,
		chromav2.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromav2.WithNResults(n),
		chromav2.WithIncludeQuery(chromav2.IncludeDocuments, chromav2.IncludeMetadatas, includeDistances),
	)
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", c.Name(), providerError(err))
	}
	idGroups := qr.GetIDGroups()
	if len(idGroups) == 0 || len(idGroups[0]) == 0 {
		return res, nil
	}

	ids := idGroups[0]
	distGroups := qr.GetDistancesGroups()
	if len(distGroups) == 0 || len(distGroups[0]) != len(ids) {
		return nil, fmt.Errorf("query collection %q: response has no distance for every hit", c.Name())
	}
	docGroups := qr.GetDocumentsGroups()
	metaGroups := qr.GetMetadatasGroups()
	for i, id := range ids {
		res.IDs = append(res.IDs, string(id))
		res.Documents = append(res.Documents, documentAt(docGroups, i))
		res.Metadatas = append(res.Metadatas, metadataAt(metaGroups, i))
		res.Distances = append(res.Distances, float64(distGroups[0][i]))
	}
	return res, nil
}

func documentAt(groups []chromav2.Documents, i int) string {
	if len(groups) == 0 || i >= len(groups[0]) || groups[0][i] == nil {
		return ""
	}
	return groups[0][i].ContentString()
}

func metadataAt(groups []chromav2.DocumentMetadatas, i int) map[string]string {
	if len(groups) == 0 || i >= len(groups[0]) || groups[0][i] == nil {
		return nil
	}
	return stringify(groups[0][i])
}

// stringify flattens metadata values to strings.
func stringify(meta chromav2.DocumentMetadata) map[string]string {
	keyed, ok := meta.(interface{ Keys() []string })
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, k := range keyed.Keys() {
		if s, ok := meta.GetString(k); ok {
			out[k] = s
		} else if n, ok := meta.GetInt(k); ok {
			out[k] = strconv.FormatInt(n, 10)
		} else if f, ok := meta.GetFloat(k); ok {
			out[k] = strconv.FormatFloat(f, 'f', -1, 64)
		} else if b, ok := meta.GetBool(k); ok {
			out[k] = strconv.FormatBool(b)
		}
	}
	return out
}

// Count returns the number of stored records.
func (c *Collection) Count(ctx context.Context) (int, error) {
	n, err := c.coll.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count collection %q: %w", c.Name(), providerError(err))
	}
	return n, nil
}
