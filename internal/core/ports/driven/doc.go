// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Maps text to vectors (Ollama, OpenAI, Gemini)
//   - LLMService: Classifies questions and generates answers (Ollama, OpenAI, Anthropic, Gemini)
//   - VectorDatabase: Collection-oriented vector store (chromem-go, Chroma)
//   - DocumentSource: Loads the document corpus
//   - Chunker: Splits documents into fixed-size chunks
//   - PromptStore: Prompt templates for classification and answering
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ChangeWatcher: Without it the index is only rebuilt on demand.
//   - ReindexHistoryStore: Without it builds are not recorded and stale detection is off.
//   - Metrics: Without it nothing is counted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
