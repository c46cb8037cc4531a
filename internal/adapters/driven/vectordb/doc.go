// Package vectordb groups the vector database backends.
//
// Subpackages:
//   - chromem: embedded chromem-go database, in memory or persisted to a directory
//   - chroma: remote Chroma server through the chroma-go client
//
// Both implement driven.VectorDatabase and report cosine distances.
package vectordb
