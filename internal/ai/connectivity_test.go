package ai

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostPort(t *testing.T) {
	tests := []struct {
		rawURL   string
		wantHost string
		wantPort string
	}{
		{"https://api.openai.com/v1", "api.openai.com", "443"},
		{"https://openrouter.ai/api/v1", "openrouter.ai", "443"},
		{"http://localhost:11434", "localhost", "11434"},
		{"http://example.com/api", "example.com", "80"},
		{"https://example.com:8443", "example.com", "8443"},
	}
	for _, tc := range tests {
		host, port := HostPort(tc.rawURL)
		assert.Equal(t, tc.wantHost, host, tc.rawURL)
		assert.Equal(t, tc.wantPort, port, tc.rawURL)
	}
}

func TestCheckTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	assert.True(t, CheckTCP(context.Background(), host, port, time.Second))
	assert.False(t, CheckTCP(context.Background(), "203.0.113.1", "9", 50*time.Millisecond))
}

func TestTestAllReportsEveryProvider(t *testing.T) {
	providers := map[string]Provider{
		"up-1": reachable("up-1"),
		"up-2": reachable("up-2"),
		"down": unreachable("down"),
	}

	got := TestAll(context.Background(), providers, time.Second)
	require.Len(t, got, 3, "every provider is reported, reachable or not")
	assert.True(t, got["up-1"])
	assert.True(t, got["up-2"])
	assert.False(t, got["down"])
}

func TestProviderErrorClassification(t *testing.T) {
	assert.Equal(t, FailureAuth, ClassifyStatus(401))
	assert.Equal(t, FailureAuth, ClassifyStatus(403))
	assert.Equal(t, FailureRateLimit, ClassifyStatus(429))
	assert.Equal(t, FailureServer, ClassifyStatus(500))
	assert.Equal(t, FailureServer, ClassifyStatus(503))
	assert.Equal(t, FailureMalformed, ClassifyStatus(400))
	assert.Equal(t, FailureMalformed, ClassifyStatus(404))
}

func TestProviderErrorRetryable(t *testing.T) {
	tests := []struct {
		class FailureClass
		want  bool
	}{
		{FailureNetwork, true},
		{FailureRateLimit, true},
		{FailureServer, true},
		{FailureAuth, false},
		{FailureMalformed, false},
	}
	for _, tc := range tests {
		pe := &ProviderError{Provider: "x", Class: tc.class, Msg: "m"}
		assert.Equal(t, tc.want, pe.Retryable(), string(tc.class))
	}
}
