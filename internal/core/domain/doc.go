// Package domain defines the core business entities for concierge.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: One entry of the curated business corpus
//   - Chunk: A fixed-size slice of a Document, the unit that is embedded
//   - SimilarityResult: A ranked retrieval hit
//   - Intent: The closed set of question categories
//   - Answer: The pipeline's reply with its source citations
//   - ReindexRun: One recorded build of the vector index
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
