package domain

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedProvider indicates an unknown AI provider or storage backend.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmptyEmbedding indicates a provider answered without a usable vector.
	ErrEmptyEmbedding = errors.New("empty embedding")

	// Index Errors.

	// ErrIndexNotInitialized indicates the vector index has no bound collection.
	ErrIndexNotInitialized = errors.New("vector index not initialized")

	// ErrBatchMismatch indicates chunks and embeddings of different lengths.
	ErrBatchMismatch = errors.New("chunk and embedding counts differ")

	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrCollectionNotFound indicates the named collection does not exist.
	// Deleting a missing collection is tolerated, so callers usually ignore it.
	ErrCollectionNotFound = errors.New("collection not found")


	// Corpus Errors.

	// ErrCorpusNotFound indicates the documents file does not exist.
	ErrCorpusNotFound = errors.New("document corpus not found")

	// ErrEmptyCorpus indicates the documents file holds no documents.
	ErrEmptyCorpus = errors.New("document corpus is empty")

	// Answer Errors.

	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrTemplatePlaceholder indicates a prompt template missing a required placeholder.
	ErrTemplatePlaceholder = errors.New("prompt template missing placeholder")
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// ProviderError is a non-success HTTP response from a remote service.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

// NewProviderError keeps up to 4 KiB of the response body.
func NewProviderError(provider string, status int, body io.Reader) *ProviderError {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return &ProviderError{Provider: provider, StatusCode: status, Body: strings.TrimSpace(string(raw))}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable is true for timeouts, rate limiting and server errors.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 408 || e.StatusCode == 429 || e.StatusCode >= 500
}

// IsRetryable reports whether repeating the call that returned err may succeed.
// Transport failures carry no status and are retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return true
}
