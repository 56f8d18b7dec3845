package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joseph-ayodele/catalog-importer/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSendsPromptAndAttachments(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" [{\"name\":\"Widget\"}] "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "m"}, nil)
	out, err := c.Complete(context.Background(), llm.CompletionRequest{
		System:          "sys",
		Prompt:          "extract",
		Attachments:     []llm.Attachment{{Name: "p1.png", Data: []byte{1}}},
		MaxOutputTokens: llm.BulkMaxOutputTokens,
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Widget"}]`, out)
	assert.Equal(t, "openai", c.Name())

	assert.Equal(t, float64(llm.BulkMaxOutputTokens), got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,AQ==", img["url"])
}

func TestCompleteTextOnlyUsesDefaultBudget(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[]"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, float64(llm.DefaultMaxOutputTokens), got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "p", msgs[0].(map[string]any)["content"])
}

func TestCompleteRetriesThenRejects(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content policy"}}`))
	}))
	defer srv.Close()

	retry := llm.NewRetryClient(http.DefaultClient, 3, nil, llm.WithBackoff(time.Millisecond, time.Millisecond))
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil, WithHTTPDoer(retry))
	_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrRejected))
	assert.Equal(t, 2, calls)
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	assert.Error(t, err)
}
