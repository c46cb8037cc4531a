package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// SupportsEmbedding returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// APIKeyEnv returns the environment variable that supplies the API key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend selects the vector database implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendChromem is the embedded chromem-go database.
	VectorBackendChromem VectorBackend = "chromem"

	// VectorBackendChroma is a remote Chroma server.
	VectorBackendChroma VectorBackend = "chroma"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorBackendChromem || b == VectorBackendChroma
}

// HistoryBackend selects where reindex runs are recorded.
type HistoryBackend string

// Available history backends.
const (
	HistoryBackendSQLite HistoryBackend = "sqlite"
	HistoryBackendMemory HistoryBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b HistoryBackend) IsValid() bool {
	return b == HistoryBackendSQLite || b == HistoryBackendMemory
}

// DocumentSettings locates the document corpus.
type DocumentSettings struct {
	// Path is the documents file, relative paths resolve against the working directory.
	Path string `toml:"path"`

	// Watch enables reindexing when the file changes.
	Watch bool `toml:"watch"`
}

// IndexSettings controls how the corpus is chunked and stored.
type IndexSettings struct {
	// Collection is the vector database collection name.
	Collection string `toml:"collection"`

	// ChunkSize is the fixed chunk width in characters.
	ChunkSize int `toml:"chunk_size"`

	// VerifyOnStart rebuilds a non-empty index whose corpus fingerprint changed.
	VerifyOnStart bool `toml:"verify_on_start"`

	// EmbedConcurrency bounds parallel embedding requests during a build.
	EmbedConcurrency int `toml:"embed_concurrency"`

	// EmbedBatchSize is the number of chunks sent per embedding request.
	EmbedBatchSize int `toml:"embed_batch_size"`

	// EmbedRatePerSecond limits embedding requests during a build. 0 disables the limit.
	EmbedRatePerSecond float64 `toml:"embed_rate_per_second"`
}

// RetrievalSettings controls context selection.
type RetrievalSettings struct {
	// TopK is the number of nearest chunks fetched per question.
	TopK int `toml:"top_k"`

	// SimilarityFloor drops hits scoring below it.
	SimilarityFloor float64 `toml:"similarity_floor"`

	// MaxSources caps the citations returned with an answer.
	MaxSources int `toml:"max_sources"`
}

// GenerationSettings holds sampling options and timeouts for remote calls.
type GenerationSettings struct {
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`

	// MaxTokens limits the answer length. 0 uses the provider default.
	MaxTokens int `toml:"max_tokens"`

	// RequestTimeoutSeconds bounds each remote call.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// RequestTimeout returns the per-call timeout.
func (g GenerationSettings) RequestTimeout() time.Duration {
	return time.Duration(g.RequestTimeoutSeconds) * time.Second
}

// VectorStoreSettings selects and locates the vector database.
type VectorStoreSettings struct {
	Backend VectorBackend `toml:"backend"`

	// Path is the chromem persistence directory. Empty keeps vectors in memory.
	Path string `toml:"path"`

	// URL is the Chroma server address.
	URL string `toml:"url"`
}

// ProviderSettings configures one AI provider.
type ProviderSettings struct {
	// Provider is the AI service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the model name. Empty uses the provider default.
	Model string `toml:"model"`

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string `toml:"base_url"`

	// APIKey is the API key for cloud providers.
	APIKey string `toml:"api_key,omitempty"`
}

// IsConfigured returns true if the provider is set up.
func (p ProviderSettings) IsConfigured() bool {
	if !p.Provider.IsValid() {
		return false
	}
	if p.Provider.RequiresAPIKey() && p.APIKey == "" {
		return false
	}
	return true
}

// ResilienceSettings bounds retries against remote providers.
type ResilienceSettings struct {
	// MaxRetries is the retry count after the first attempt. 0 disables retry.
	MaxRetries int `toml:"max_retries"`

	// InitialIntervalMS is the first backoff delay.
	InitialIntervalMS int `toml:"initial_interval_ms"`

	// BreakerFailures opens the circuit after this many consecutive failures. 0 disables it.
	BreakerFailures int `toml:"breaker_failures"`
}

// InitialInterval returns the first backoff delay.
func (r ResilienceSettings) InitialInterval() time.Duration {
	return time.Duration(r.InitialIntervalMS) * time.Millisecond
}

// HistorySettings selects the reindex history store.
type HistorySettings struct {
	Backend HistoryBackend `toml:"backend"`
}

// Settings holds all application settings.
type Settings struct {
	Documents   DocumentSettings    `toml:"documents"`
	Index       IndexSettings       `toml:"index"`
	Retrieval   RetrievalSettings   `toml:"retrieval"`
	Generation  GenerationSettings  `toml:"generation"`
	VectorStore VectorStoreSettings `toml:"vector_store"`
	Embedding   ProviderSettings    `toml:"embedding"`
	LLM         ProviderSettings    `toml:"llm"`
	Resilience  ResilienceSettings  `toml:"resilience"`
	History     HistorySettings     `toml:"history"`
}

// Default settings values.
const (
	DefaultDocumentsPath    = "documents.json"
	DefaultCollection       = "myworkspace-collection"
	DefaultChunkSize        = 500
	DefaultTopK             = 5
	DefaultSimilarityFloor  = 0.4
	DefaultMaxSources       = 2
	DefaultTemperature      = 0.1
	DefaultTopP             = 0.8
	DefaultRequestTimeout   = 60
	DefaultEmbedConcurrency = 4
	DefaultEmbedBatchSize   = 16
	DefaultChromaURL        = "http://localhost:8000"
)

// DefaultSettings returns settings matching a local Ollama deployment.
func DefaultSettings() Settings {
	return Settings{
		Documents: DocumentSettings{
			Path:  DefaultDocumentsPath,
			Watch: true,
		},
		Index: IndexSettings{
			Collection:       DefaultCollection,
			ChunkSize:        DefaultChunkSize,
			EmbedConcurrency: DefaultEmbedConcurrency,
			EmbedBatchSize:   DefaultEmbedBatchSize,
		},
		Retrieval: RetrievalSettings{
			TopK:            DefaultTopK,
			SimilarityFloor: DefaultSimilarityFloor,
			MaxSources:      DefaultMaxSources,
		},
		Generation: GenerationSettings{
			Temperature:           DefaultTemperature,
			TopP:                  DefaultTopP,
			RequestTimeoutSeconds: DefaultRequestTimeout,
		},
		VectorStore: VectorStoreSettings{
			Backend: VectorBackendChromem,
			URL:     DefaultChromaURL,
		},
		Embedding: ProviderSettings{Provider: AIProviderOllama},
		LLM:       ProviderSettings{Provider: AIProviderOllama},
		Resilience: ResilienceSettings{
			MaxRetries:        2,
			InitialIntervalMS: 250,
			BreakerFailures:   5,
		},
		History: HistorySettings{Backend: HistoryBackendSQLite},
	}
}

// Validate checks settings for values the pipeline cannot run with.
func (s Settings) Validate() error {
	switch {
	case s.Index.ChunkSize <= 0:
		return fmt.Errorf("%w: index.chunk_size %d", ErrInvalidChunkSize, s.Index.ChunkSize)
	case s.Index.Collection == "":
		return fmt.Errorf("%w: index.collection is empty", ErrInvalidInput)
	case s.Index.EmbedConcurrency <= 0:
		return fmt.Errorf("%w: index.embed_concurrency must be positive", ErrInvalidInput)
	case s.Index.EmbedBatchSize <= 0:
		return fmt.Errorf("%w: index.embed_batch_size must be positive", ErrInvalidInput)
	case s.Index.EmbedRatePerSecond < 0:
		return fmt.Errorf("%w: index.embed_rate_per_second is negative", ErrInvalidInput)
	case s.Retrieval.TopK <= 0:
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidInput)
	case s.Retrieval.SimilarityFloor < 0 || s.Retrieval.SimilarityFloor > 1:
		return fmt.Errorf("%w: retrieval.similarity_floor %v outside [0,1]", ErrInvalidInput, s.Retrieval.SimilarityFloor)
	case s.Retrieval.MaxSources < 0:
		return fmt.Errorf("%w: retrieval.max_sources is negative", ErrInvalidInput)
	case s.Generation.RequestTimeoutSeconds <= 0:
		return fmt.Errorf("%w: generation.request_timeout_seconds must be positive", ErrInvalidInput)
	case !s.VectorStore.Backend.IsValid():
		return fmt.Errorf("%w: vector_store.backend %q", ErrUnsupportedProvider, s.VectorStore.Backend)
	case !s.Embedding.Provider.SupportsEmbedding():
		return fmt.Errorf("%w: embedding.provider %q", ErrUnsupportedProvider, s.Embedding.Provider)
	case !s.LLM.Provider.IsValid():
		return fmt.Errorf("%w: llm.provider %q", ErrUnsupportedProvider, s.LLM.Provider)
	case !s.History.Backend.IsValid():
		return fmt.Errorf("%w: history.backend %q", ErrUnsupportedProvider, s.History.Backend)
	case s.Resilience.MaxRetries < 0 || s.Resilience.BreakerFailures < 0:
		return fmt.Errorf("%w: resilience values must not be negative", ErrInvalidInput)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.5-flash",
	}
}
