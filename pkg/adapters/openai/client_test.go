package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/vellum/pkg/adapters/openai"
	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

func completionReply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}
}

func TestClientGenerate(t *testing.T) {
	var got struct {
		Model       string `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int    `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		completionReply("  Chapter text\n")(w, r)
	}))
	defer srv.Close()

	c := openai.New("test-key", openai.WithBaseURL(srv.URL), openai.WithModel("local-model"))
	text, err := c.Generate(context.Background(), "tell me a story", ports.GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "Chapter text", text)
	assert.Equal(t, "local-model", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "tell me a story", got.Messages[0].Content)
}

func TestClientGenerateOptionsModelWins(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		model, _ = req["model"].(string)
		completionReply("ok")(w, r)
	}))
	defer srv.Close()

	c := openai.New("", openai.WithBaseURL(srv.URL), openai.WithModel("default-model"))
	_, err := c.Generate(context.Background(), "p", ports.GenerateOptions{Model: "override"})
	require.NoError(t, err)
	assert.Equal(t, "override", model)
}

func TestClientGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := openai.New("k", openai.WithBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), "p", ports.GenerateOptions{})
	require.ErrorIs(t, err, domain.ErrGeneration)
	assert.Contains(t, err.Error(), "429")
}

func TestClientGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(completionReply("unused"))
	srv.Close() // connection refused from here on

	c := openai.New("k", openai.WithBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), "p", ports.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestClientGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := openai.New("k", openai.WithBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), "p", ports.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGeneration)
}
