package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/concierge/internal/core/ports/driven"
)

func TestGenerate(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"FACILITY"},{"type":"tool_use"},{"type":"text","text":"_INFO\n"}]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "분류", driven.GenerateOptions{Temperature: 0.1, TopP: 0.8})
	require.NoError(t, err)
	assert.Equal(t, "FACILITY_INFO", out)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, DefaultModel, got.Model)
	assert.InDelta(t, 0.8, got.TopP, 1e-9)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"overloaded", 529, `{"error":{"type":"overloaded_error","message":"Overloaded"}}`, "anthropic error (status 529)"},
		{"empty content", http.StatusOK, `{"content":[]}`, "no response content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc, _ := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
			_, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	svc, _ := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	assert.NoError(t, svc.Ping(context.Background()))
}
