// Package chunker provides fixed-size, non-overlapping text chunking.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// Split cuts text into consecutive windows of size characters.
// Windows never overlap and ignore word or sentence boundaries; only the last
// may be shorter. Concatenating the result reproduces text exactly.
// Characters are Unicode code points, so Hangul is never split mid-syllable.
func Split(text string, size int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidChunkSize, size)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}

// Processor splits documents into chunks that reference their owner.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// New creates a chunker processor. A non-positive chunk size is rejected.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(p)
	}
	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidChunkSize, p.chunkSize)
	}
	return p, nil
}

// Chunk splits the document content into chunks in reading order.
func (p *Processor) Chunk(doc *domain.Document) ([]domain.Chunk, error) {
	parts, err := Split(doc.Content, p.chunkSize)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = domain.Chunk{
			Content:  part,
			Position: i,
			Document: doc,
		}
	}
	return chunks, nil
}
