package ai

import "context"

// Descriptor describes one configured backend. It is loaded once at
// startup and treated as read-only everywhere.
type Descriptor struct {
	Name           string
	Style          string
	BaseURL        string
	Model          string
	ContextLimit   int
	CredentialEnv  string
	Temperature    float64
	MaxTokens      int
	PromptOverride string
}

// Provider is the capability surface every AI backend satisfies. Variants
// differ only in request/response wire shape.
type Provider interface {
	// Generate issues one request and returns the raw text reply.
	Generate(ctx context.Context, userContent, systemPrompt string) (string, error)
	// CheckConnectivity reports whether the backend endpoint is reachable.
	CheckConnectivity(ctx context.Context) bool
	Describe() Descriptor
	// RequiredCredentials names the environment variables the backend needs.
	RequiredCredentials() []string
}
