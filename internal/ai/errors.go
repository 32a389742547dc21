package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureClass tags a provider failure for retry policy and reporting.
type FailureClass string

const (
	FailureNetwork   FailureClass = "network"
	FailureAuth      FailureClass = "auth"
	FailureRateLimit FailureClass = "ratelimit"
	FailureServer    FailureClass = "server"
	FailureMalformed FailureClass = "malformed"
)

// ProviderError is the only error shape that crosses the provider
// boundary; clients reclassify every transport-level failure into one.
type ProviderError struct {
	Provider string
	Class    FailureClass
	Msg      string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s (%s): %v", e.Provider, e.Msg, e.Class, e.Err)
	}
	return fmt.Sprintf("provider %s: %s (%s)", e.Provider, e.Msg, e.Class)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient. Auth rejections and
// malformed requests never retry.
func (e *ProviderError) Retryable() bool {
	switch e.Class {
	case FailureNetwork, FailureRateLimit, FailureServer:
		return true
	}
	return false
}

// ClassifyStatus maps an HTTP status code to a failure class.
func ClassifyStatus(code int) FailureClass {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return FailureAuth
	case code == http.StatusTooManyRequests:
		return FailureRateLimit
	case code >= 500:
		return FailureServer
	default:
		return FailureMalformed
	}
}

// Classify extracts the failure class from an error chain.
func Classify(err error) FailureClass {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return FailureMalformed
}

// SelectionError means no usable provider remained after fallback. It is
// distinct from a request failure: no request was attempted.
type SelectionError struct {
	Msg string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("provider selection failed: %s", e.Msg)
}

// ConfigError is a fatal configuration problem surfaced before any request.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider configuration: %s", e.Msg)
}
