package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ulam-ai/internal/core/ai/provider"
	"ulam-ai/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&config.OpenRouterConfig{
		BaseURL:     server.URL,
		APIKey:      "sk-test",
		Model:       "text-model",
		VisionModel: "vision-model",
		MaxTokens:   256,
		Timeout:     time.Second,
	})
}

func TestGenerateSendsMultimodalRequest(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"vision-model","choices":[{"message":{"content":"[\"egg\"]"}}],"usage":{"total_tokens":12}}`))
	})

	req := provider.UserPrompt("what is here")
	req.ImageData = "QUJD"
	resp, err := client.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, `["egg"]`, resp.Content)
	assert.Equal(t, 12, resp.Usage.TotalTokens)
	assert.Equal(t, "vision-model", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "data:image/jpeg;base64,QUJD", got.Messages[0].Content[1].ImageURL.URL)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream error", http.StatusBadGateway, `{"error":"down"}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`},
		{"malformed", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Generate(context.Background(), provider.UserPrompt("hi"))
			assert.Error(t, err)
		})
	}
}

func TestGenerateUsesTextModelWithoutImage(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := client.Generate(context.Background(), provider.UserPrompt("hi"))
	require.NoError(t, err)
	assert.Equal(t, "text-model", got.Model)
	assert.Equal(t, "text-model", client.GetModel())
	assert.NoError(t, client.Close())
}
