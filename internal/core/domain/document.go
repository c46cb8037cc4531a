package domain

// Document is one entry of the curated business corpus.
// Documents are immutable once loaded; a reindex replaces the whole set.
type Document struct {
	// ID identifies the document within its corpus generation.
	ID string

	// Title is the human-readable title.
	Title string

	// Category groups documents by topic (facility, price, ...).
	Category string

	// Source names where the text came from.
	Source string

	// Content is the full document text before chunking.
	Content string
}

// Meta returns the document metadata stored alongside each chunk vector.
func (d *Document) Meta() DocumentMeta {
	return DocumentMeta{
		ID:       d.ID,
		Title:    d.Title,
		Category: d.Category,
		Source:   d.Source,
	}
}

// DocumentMeta is the serialisable part of a Document.
type DocumentMeta struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Citation labels shown when a field is blank.
const (
	DefaultCitationCategory = "문서"
	DefaultCitationSource   = "unknown"
	DefaultCitationTitle    = "제목 없음"
)

// Citation converts metadata into a source citation, filling blank fields.
func (m DocumentMeta) Citation() Citation {
	c := Citation{
		Category: m.Category,
		Source:   m.Source,
		Title:    m.Title,
	}
	if c.Category == "" {
		c.Category = DefaultCitationCategory
	}
	if c.Source == "" {
		c.Source = DefaultCitationSource
	}
	if c.Title == "" {
		c.Title = DefaultCitationTitle
	}
	return c
}

// Corpus is one generation of the document set.
type Corpus struct {
	// Documents in file order.
	Documents []Document

	// Fingerprint is a content hash of the source the corpus was read from.
	Fingerprint string
}

// IsEmpty reports whether the corpus has no documents.
func (c *Corpus) IsEmpty() bool {
	return c == nil || len(c.Documents) == 0
}

// Chunk is a bounded-size slice of a Document's text.
// Chunks are recreated on every reindex and never mutated.
type Chunk struct {
	// Content is the chunk text, at most the configured chunk size in characters.
	Content string

	// Position is the ordinal position within the owning document.
	Position int

	// Document is the owning document.
	Document *Document
}
