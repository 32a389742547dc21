package localai

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
	return New(ai.Descriptor{Name: "local", Model: "llama3", BaseURL: srv.URL, Temperature: 0.3})
}

func TestGenerateWireShape(t *testing.T) {
	var gotReq chatReq
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "local backends need no credentials")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"message":{"role":"assistant","content":"fix: close response body"},"done":true}`))
	})

	got, err := c.Generate(context.Background(), "the diff", "the rules")
	require.NoError(t, err)
	assert.Equal(t, "fix: close response body", got)

	assert.Equal(t, "llama3", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 0.3, gotReq.Options.Temperature)
	require.Len(t, gotReq.Messages, 2)
}

func TestGenerateEmptyReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"   "},"done":true}`))
	})

	_, err := c.Generate(context.Background(), "diff", "rules")
	var pe *ai.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ai.FailureMalformed, pe.Class)
}

func TestNoCredentialsRequired(t *testing.T) {
	c := New(ai.Descriptor{Name: "local", Model: "llama3"})
	assert.Empty(t, c.RequiredCredentials())
	assert.Equal(t, "http://localhost:11434", c.Describe().BaseURL)
}
