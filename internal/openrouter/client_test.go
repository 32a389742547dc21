package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rozeraf/autocommit/internal/ai"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(ai.Descriptor{
		Name:    "test-router",
		Model:   "anthropic/claude-3.5-sonnet",
		BaseURL: srv.URL,
	})
}

func TestGenerateSendsAttributionHeaders(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "autocommit", r.Header.Get("X-Title"))

		var req chatReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "anthropic/claude-3.5-sonnet", req.Model)

		w.Write([]byte(`{"choices":[{"message":{"content":"chore: bump deps"}}]}`))
	})

	got, err := c.Generate(context.Background(), "diff", "rules")
	require.NoError(t, err)
	assert.Equal(t, "chore: bump deps", got)
}

func TestGenerateClassifiesStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantClass ai.FailureClass
	}{
		{http.StatusUnauthorized, ai.FailureAuth},
		{http.StatusTooManyRequests, ai.FailureRateLimit},
		{http.StatusInternalServerError, ai.FailureServer},
		{http.StatusBadRequest, ai.FailureMalformed},
	}
	for _, tc := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		})
		_, err := c.Generate(context.Background(), "diff", "rules")
		var pe *ai.ProviderError
		require.ErrorAs(t, err, &pe, "status %d", tc.status)
		assert.Equal(t, tc.wantClass, pe.Class, "status %d", tc.status)
	}
}

func TestModelInfoFindsConfiguredModel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"id":"openai/gpt-4o","name":"GPT-4o","context_length":128000},
			{"id":"anthropic/claude-3.5-sonnet","name":"Claude 3.5 Sonnet","context_length":200000}
		]}`))
	})

	info, err := c.ModelInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", info.ID)
	assert.Equal(t, 200000, info.ContextLength)
}

func TestModelInfoUnknownModel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"other/model","context_length":4096}]}`))
	})

	_, err := c.ModelInfo(context.Background())
	var pe *ai.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ai.FailureMalformed, pe.Class)
	assert.Contains(t, pe.Msg, "not listed")
}

func TestRequiredCredentialsDefault(t *testing.T) {
	c := New(ai.Descriptor{Name: "r", Model: "m"})
	assert.Equal(t, []string{"OPENROUTER_API_KEY"}, c.RequiredCredentials())

	c = New(ai.Descriptor{Name: "r", Model: "m", CredentialEnv: "MY_KEY"})
	assert.Equal(t, []string{"MY_KEY"}, c.RequiredCredentials())
}
