package commitmsg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConventionalRoundTrip(t *testing.T) {
	raw := "fix(auth): correct token refresh\n\n- handle expired tokens"

	msg, err := Parse(raw, Options{EnforceConventional: true})
	require.NoError(t, err)

	assert.Equal(t, "fix(auth): correct token refresh", msg.Subject)
	assert.Equal(t, "fix", msg.Type)
	assert.Equal(t, "auth", msg.Scope)
	assert.Equal(t, []string{"- handle expired tokens"}, msg.Body)
	assert.Empty(t, msg.Violations)
}

func TestParseMarkdownStripping(t *testing.T) {
	plain := "feat: add spinner\n\n- show progress during generation"
	tests := []struct {
		name string
		raw  string
	}{
		{"no fence", plain},
		{"bare fence", "```\n" + plain + "\n```"},
		{"text fence", "```text\n" + plain + "\n```"},
		{"fence with prose", "Here is the commit message:\n```\n" + plain + "\n```"},
	}

	var want Message
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(tt.raw, Options{EnforceConventional: true})
			require.NoError(t, err)
			if i == 0 {
				want = msg
				return
			}
			assert.Equal(t, want, msg)
		})
	}
}

func TestParseKeepsFenceInsideBody(t *testing.T) {
	// A code snippet in the body is not a reply wrapper; the real subject
	// must survive.
	raw := "fix(parser): handle nil hunk header\n\n" +
		"Example of the failing input:\n```go\nfunc foo() {}\n```"

	msg, err := Parse(raw, Options{EnforceConventional: true})
	require.NoError(t, err)
	assert.Equal(t, "fix(parser): handle nil hunk header", msg.Subject)
	assert.Equal(t, "fix", msg.Type)
	assert.Contains(t, msg.Body, "```go")
	assert.Contains(t, msg.Body, "func foo() {}")
}

func TestParseLabelArtifacts(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		subject string
	}{
		{"inline label", "Commit message: fix: resolve panic", "fix: resolve panic"},
		{"quoted subject", `"fix: resolve panic"`, "fix: resolve panic"},
		{"backticked subject", "`fix: resolve panic`", "fix: resolve panic"},
		{"label on own line", "Commit message:\nfix: resolve panic", "fix: resolve panic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(tt.raw, Options{EnforceConventional: true})
			require.NoError(t, err)
			assert.Equal(t, tt.subject, msg.Subject)
		})
	}
}

func TestParseReconstruction(t *testing.T) {
	// A type keyword buried in the subject is moved to the front once.
	msg, err := Parse("token refresh fix for expired sessions", Options{EnforceConventional: true})
	require.NoError(t, err)
	assert.Equal(t, "fix: token refresh for expired sessions", msg.Subject)
	assert.Equal(t, "fix", msg.Type)
	assert.Empty(t, msg.Violations)
}

func TestParseNonConformantSubject(t *testing.T) {
	// No type keyword anywhere: a violation, never a crash.
	msg, err := Parse("Added token refresh logic", Options{EnforceConventional: true})
	require.NoError(t, err)
	assert.Equal(t, "Added token refresh logic", msg.Subject)
	require.Len(t, msg.Violations, 1)
	assert.Contains(t, msg.Violations[0], "conventional")
}

func TestParseStrictFormatError(t *testing.T) {
	_, err := Parse("Added token refresh logic", Options{EnforceConventional: true, Strict: true})
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.NotEmpty(t, fe.Violations)
}

func TestParseEmptyReply(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\n\t\n"} {
		_, err := Parse(raw, Options{})
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "raw %q should yield a ParseError", raw)
	}
}

func TestParseSubjectLength(t *testing.T) {
	long := "fix: " + strings.Repeat("x", 100)

	msg, err := Parse(long, Options{EnforceConventional: true, MaxSubjectLength: 70})
	require.NoError(t, err)
	require.Len(t, msg.Violations, 1)
	assert.Contains(t, msg.Violations[0], "too long")

	_, err = Parse(long, Options{EnforceConventional: true, MaxSubjectLength: 70, Strict: true})
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestParseCollapsesBlankRuns(t *testing.T) {
	raw := "feat: add cache\n\n\n\n- first point\n\n\n- second point\n\n\n"

	msg, err := Parse(raw, Options{EnforceConventional: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"- first point", "", "- second point"}, msg.Body)
}

func TestParseDeterminism(t *testing.T) {
	raw := "```\nrefactor(core): split parser\n\n- extract hunk logic\n```"
	opts := Options{EnforceConventional: true, MaxSubjectLength: 50}

	first, err1 := Parse(raw, opts)
	second, err2 := Parse(raw, opts)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestMessageString(t *testing.T) {
	m := Message{Subject: "fix: x", Body: []string{"- a", "- b"}}
	assert.Equal(t, "fix: x\n\n- a\n- b", m.String())

	m = Message{Subject: "fix: x"}
	assert.Equal(t, "fix: x", m.String())
}
