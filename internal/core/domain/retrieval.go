package domain

// SimilarityResult is one ranked hit from the vector index.
type SimilarityResult struct {
	// ID is the stored record identifier.
	ID string

	// Content is the chunk text.
	Content string

	// Metadata is the owning document's metadata.
	Metadata DocumentMeta

	// Similarity is 1 - cosine distance, nominally in [0,1].
	Similarity float64
}

// Citation identifies a document an answer was grounded on.
type Citation struct {
	Category string `json:"category"`
	Source   string `json:"source"`
	Title    string `json:"title"`
}

// Answer is the pipeline's reply to one question.
type Answer struct {
	// Text is the user-facing answer.
	Text string `json:"answer"`

	// Intent is the classified intent that selected the branch.
	Intent Intent `json:"intent"`

	// Sources are the ranked citations for grounded answers.
	Sources []Citation `json:"sources"`
}
