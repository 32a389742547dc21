package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rozeraf/autocommit/internal/ai"
	"github.com/rozeraf/autocommit/internal/commitmsg"
)

type stubProvider struct {
	name string
}

func (s stubProvider) Generate(ctx context.Context, userContent, systemPrompt string) (string, error) {
	return "", nil
}
func (s stubProvider) CheckConnectivity(ctx context.Context) bool { return true }
func (s stubProvider) Describe() ai.Descriptor                    { return ai.Descriptor{Name: s.name} }
func (s stubProvider) RequiredCredentials() []string              { return nil }

func rejectedCredentialErr() error {
	// Wrapped the way generateLoop reports exhaustion.
	return fmt.Errorf("generation failed after 1 attempt(s): %w",
		&ai.ProviderError{Provider: "ruled", Class: ai.FailureAuth, Msg: "status 401"})
}

func TestAuthFallbackToBase(t *testing.T) {
	providers := map[string]ai.Provider{
		"base":  stubProvider{name: "base"},
		"ruled": stubProvider{name: "ruled"},
	}
	cfg := Config{BaseProvider: "base"}

	base, ok := authFallback(rejectedCredentialErr(), stubProvider{name: "ruled"}, cfg, providers)
	require.True(t, ok)
	assert.Equal(t, "base", base.Describe().Name)
}

func TestAuthFallbackSkipsExplicitOverride(t *testing.T) {
	providers := map[string]ai.Provider{
		"base":  stubProvider{name: "base"},
		"ruled": stubProvider{name: "ruled"},
	}
	cfg := Config{BaseProvider: "base", ProviderOverride: "ruled"}

	_, ok := authFallback(rejectedCredentialErr(), stubProvider{name: "ruled"}, cfg, providers)
	assert.False(t, ok, "an explicitly requested provider never falls back")
}

func TestAuthFallbackSkipsBaseItself(t *testing.T) {
	providers := map[string]ai.Provider{"base": stubProvider{name: "base"}}
	cfg := Config{BaseProvider: "base"}

	_, ok := authFallback(rejectedCredentialErr(), stubProvider{name: "base"}, cfg, providers)
	assert.False(t, ok, "the base provider failing is terminal")
}

func TestAuthFallbackOnlyForAuthFailures(t *testing.T) {
	providers := map[string]ai.Provider{
		"base":  stubProvider{name: "base"},
		"ruled": stubProvider{name: "ruled"},
	}
	cfg := Config{BaseProvider: "base"}

	serverErr := fmt.Errorf("generation failed after 3 attempt(s): %w",
		&ai.ProviderError{Provider: "ruled", Class: ai.FailureServer, Msg: "status 503"})
	_, ok := authFallback(serverErr, stubProvider{name: "ruled"}, cfg, providers)
	assert.False(t, ok)

	_, ok = authFallback(errors.New("plain failure"), stubProvider{name: "ruled"}, cfg, providers)
	assert.False(t, ok)

	_, ok = authFallback(nil, stubProvider{name: "ruled"}, cfg, providers)
	assert.False(t, ok)
}

func TestAuthFallbackRequiresConfiguredBase(t *testing.T) {
	providers := map[string]ai.Provider{"ruled": stubProvider{name: "ruled"}}
	cfg := Config{BaseProvider: "base"}

	_, ok := authFallback(rejectedCredentialErr(), stubProvider{name: "ruled"}, cfg, providers)
	assert.False(t, ok)
}

func TestReparseEditedValidMessage(t *testing.T) {
	msg := reparseEdited("fix: close body\n\n- defer resp.Body.Close()",
		commitmsg.Options{EnforceConventional: true})
	assert.Equal(t, "fix: close body", msg.Subject)
	assert.Equal(t, []string{"- defer resp.Body.Close()"}, msg.Body)
	assert.Empty(t, msg.Violations)
}

func TestReparseEditedKeepsBestEffortOnFormatError(t *testing.T) {
	msg := reparseEdited("Added token refresh logic",
		commitmsg.Options{EnforceConventional: true, Strict: true})
	assert.Equal(t, "Added token refresh logic", msg.Subject)
	assert.NotEmpty(t, msg.Violations, "violations stay visible on the confirmation screen")
}

func TestReparseEditedUnparseableFallsBackToFirstLine(t *testing.T) {
	msg := reparseEdited("Commit message:\nSuggested commit:", commitmsg.Options{})
	assert.Equal(t, "Commit message:", msg.Subject)
	assert.NotContains(t, msg.Subject, "\n", "subject stays a single line")
	assert.Equal(t, []string{"Suggested commit:"}, msg.Body)
}
