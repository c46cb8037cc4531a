package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(context.Background(), Config{})
	assert.Error(t, err)

	svc, err := NewLLMService(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer svc.Close()
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestApplyOptions(t *testing.T) {
	model := &genai.GenerativeModel{}
	applyOptions(model, driven.GenerateOptions{Temperature: 0.1, TopP: 0.8, MaxTokens: 256})

	require.NotNil(t, model.Temperature)
	require.NotNil(t, model.TopP)
	require.NotNil(t, model.MaxOutputTokens)
	assert.InDelta(t, 0.1, *model.Temperature, 1e-6)
	assert.InDelta(t, 0.8, *model.TopP, 1e-6)
	assert.Equal(t, int32(256), *model.MaxOutputTokens)

	untouched := &genai.GenerativeModel{}
	applyOptions(untouched, driven.GenerateOptions{})
	assert.Nil(t, untouched.Temperature)
	assert.Nil(t, untouched.TopP)
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(" GREETING"), genai.Blob{}, genai.Text("\n")}},
	}}}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "GREETING", text)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)
}
