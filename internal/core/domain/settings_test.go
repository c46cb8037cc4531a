package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_Capabilities tests provider capability lookups
func TestAIProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider  AIProvider
		valid     bool
		embedding bool
		apiKey    bool
		env       string
	}{
		{AIProviderOllama, true, true, false, ""},
		{AIProviderOpenAI, true, true, true, "OPENAI_API_KEY"},
		{AIProviderAnthropic, true, false, true, "ANTHROPIC_API_KEY"},
		{AIProviderGemini, true, true, true, "GEMINI_API_KEY"},
		{AIProvider("mistral"), false, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.provider.IsValid())
			assert.Equal(t, tt.embedding, tt.provider.SupportsEmbedding())
			assert.Equal(t, tt.apiKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.env, tt.provider.APIKeyEnv())
		})
	}
}

// TestAIProvider_Description tests the human-readable names
func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

// TestProviderSettings_IsConfigured tests API key requirements
func TestProviderSettings_IsConfigured(t *testing.T) {
	assert.True(t, ProviderSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, ProviderSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, ProviderSettings{Provider: AIProviderOpenAI, APIKey: "sk"}.IsConfigured())
	assert.False(t, ProviderSettings{}.IsConfigured())
}

// TestDefaultSettings tests the pipeline defaults
func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, "documents.json", s.Documents.Path)
	assert.True(t, s.Documents.Watch)
	assert.Equal(t, "myworkspace-collection", s.Index.Collection)
	assert.Equal(t, 500, s.Index.ChunkSize)
	assert.False(t, s.Index.VerifyOnStart)
	assert.Equal(t, 16, s.Index.EmbedBatchSize)
	assert.Equal(t, 5, s.Retrieval.TopK)
	assert.InDelta(t, 0.4, s.Retrieval.SimilarityFloor, 1e-9)
	assert.Equal(t, 2, s.Retrieval.MaxSources)
	assert.InDelta(t, 0.1, s.Generation.Temperature, 1e-9)
	assert.InDelta(t, 0.8, s.Generation.TopP, 1e-9)
	assert.Equal(t, time.Minute, s.Generation.RequestTimeout())
	assert.Equal(t, VectorBackendChromem, s.VectorStore.Backend)
	assert.Equal(t, AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, AIProviderOllama, s.LLM.Provider)
	assert.Equal(t, 250*time.Millisecond, s.Resilience.InitialInterval())
	assert.Equal(t, HistoryBackendSQLite, s.History.Backend)

	require.NoError(t, s.Validate())
}

// TestSettings_Validate tests rejection of unusable values
func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		target error
	}{
		{"zero chunk size", func(s *Settings) { s.Index.ChunkSize = 0 }, ErrInvalidChunkSize},
		{"negative chunk size", func(s *Settings) { s.Index.ChunkSize = -1 }, ErrInvalidChunkSize},
		{"empty collection", func(s *Settings) { s.Index.Collection = "" }, ErrInvalidInput},
		{"zero concurrency", func(s *Settings) { s.Index.EmbedConcurrency = 0 }, ErrInvalidInput},
		{"zero batch size", func(s *Settings) { s.Index.EmbedBatchSize = 0 }, ErrInvalidInput},
		{"negative rate", func(s *Settings) { s.Index.EmbedRatePerSecond = -1 }, ErrInvalidInput},
		{"zero top k", func(s *Settings) { s.Retrieval.TopK = 0 }, ErrInvalidInput},
		{"floor above one", func(s *Settings) { s.Retrieval.SimilarityFloor = 1.5 }, ErrInvalidInput},
		{"negative sources", func(s *Settings) { s.Retrieval.MaxSources = -1 }, ErrInvalidInput},
		{"zero timeout", func(s *Settings) { s.Generation.RequestTimeoutSeconds = 0 }, ErrInvalidInput},
		{"unknown backend", func(s *Settings) { s.VectorStore.Backend = "faiss" }, ErrUnsupportedProvider},
		{"anthropic embedding", func(s *Settings) { s.Embedding.Provider = AIProviderAnthropic }, ErrUnsupportedProvider},
		{"unknown llm", func(s *Settings) { s.LLM.Provider = "bard" }, ErrUnsupportedProvider},
		{"unknown history", func(s *Settings) { s.History.Backend = "redis" }, ErrUnsupportedProvider},
		{"negative retries", func(s *Settings) { s.Resilience.MaxRetries = -1 }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tt.target)
		})
	}
}

// TestDefaultModels tests every provider has a default model
func TestDefaultModels(t *testing.T) {
	embed := DefaultEmbeddingModels()
	llm := DefaultLLMModels()

	for _, p := range []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini} {
		assert.NotEmpty(t, llm[p], p)
		if p.SupportsEmbedding() {
			assert.NotEmpty(t, embed[p], p)
		}
	}
}
