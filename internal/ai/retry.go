package ai

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rozeraf/autocommit/internal/logging"
)

// RequestState tracks a single generation request:
// pending -> (success | retrying -> pending | exhausted).
type RequestState int

const (
	StatePending RequestState = iota
	StateSuccess
	StateRetrying
	StateExhausted
)

func (s RequestState) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateRetrying:
		return "retrying"
	case StateExhausted:
		return "exhausted"
	default:
		return "pending"
	}
}

// Result is the terminal outcome of a generation request. On exhaustion
// Err carries the last failure with its class intact.
type Result struct {
	Text     string
	Attempts int
	State    RequestState
	Err      error
}

// Retrier wraps every Generate call with the uniform retry policy:
// exponential backoff with jitter, transient failures only, at most
// MaxAttempts tries.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Log         *logging.Logger

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func (r *Retrier) Generate(ctx context.Context, p Provider, userContent, systemPrompt string) Result {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	base := r.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	name := p.Describe().Name

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := p.Generate(ctx, userContent, systemPrompt)
		if err == nil {
			return Result{Text: text, Attempts: attempt, State: StateSuccess}
		}
		lastErr = err
		r.Log.Warnf("provider %s attempt %d/%d failed (%s): %v", name, attempt, maxAttempts, Classify(err), err)

		if !retryable(err) || attempt == maxAttempts {
			return Result{Attempts: attempt, State: StateExhausted, Err: lastErr}
		}
		if err := r.wait(ctx, backoff(base, attempt)); err != nil {
			// Interrupted mid-backoff: stop without starting another attempt.
			r.Log.Infof("provider %s retry aborted: %v", name, err)
			return Result{Attempts: attempt, State: StateExhausted, Err: lastErr}
		}
	}
	return Result{Attempts: maxAttempts, State: StateExhausted, Err: lastErr}
}

func (r *Retrier) wait(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff doubles the base delay per attempt and adds up to 25% jitter.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

func retryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}
