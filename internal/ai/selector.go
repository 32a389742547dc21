package ai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rozeraf/autocommit/internal/gitx"
	"github.com/rozeraf/autocommit/internal/logging"
)

// Rule routes a change-set to a provider. The first rule whose file
// patterns match any changed path, or whose line threshold the aggregate
// delta exceeds, wins.
type Rule struct {
	Name           string
	Patterns       []string
	ThresholdLines int
	Provider       string
}

// Selector picks a backend per request. An explicit override beats every
// rule; an unusable pick falls back to the base provider; an unusable
// base is a SelectionError, before any request is attempted.
type Selector struct {
	Base      string
	Rules     []Rule
	Providers map[string]Provider
	Log       *logging.Logger
}

func (s *Selector) Pick(ctx context.Context, cs *gitx.ChangeSet, override string) (Provider, error) {
	var candidates []string
	switch {
	case override != "":
		if _, ok := s.Providers[override]; !ok {
			return nil, &SelectionError{Msg: fmt.Sprintf("requested provider %q is not configured", override)}
		}
		candidates = append(candidates, override)
	default:
		if name := s.matchRules(cs); name != "" {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 || candidates[0] != s.Base {
		candidates = append(candidates, s.Base)
	}

	var lastErr error
	for _, name := range candidates {
		p, ok := s.Providers[name]
		if !ok {
			lastErr = fmt.Errorf("provider %q is not configured", name)
			continue
		}
		if err := s.usable(ctx, p); err != nil {
			s.Log.Warnf("provider %s unusable, falling back: %v", name, err)
			lastErr = err
			continue
		}
		return p, nil
	}
	return nil, &SelectionError{Msg: fmt.Sprintf("no usable provider (last: %v)", lastErr)}
}

func (s *Selector) matchRules(cs *gitx.ChangeSet) string {
	for _, r := range s.Rules {
		if r.ThresholdLines > 0 && cs.TotalDelta() >= r.ThresholdLines {
			s.Log.Debugf("context rule %q matched by line count (%d >= %d)", r.Name, cs.TotalDelta(), r.ThresholdLines)
			return r.Provider
		}
		for _, pat := range r.Patterns {
			for _, path := range cs.Paths() {
				if matchPattern(pat, path) {
					s.Log.Debugf("context rule %q matched %s by pattern %q", r.Name, path, pat)
					return r.Provider
				}
			}
		}
	}
	return ""
}

func matchPattern(pattern, path string) bool {
	if ok, _ := filepath.Match(pattern, path); ok {
		return true
	}
	ok, _ := filepath.Match(pattern, filepath.Base(path))
	return ok
}

// usable validates a provider without issuing a generation request:
// required credentials must be present and the endpoint reachable.
func (s *Selector) usable(ctx context.Context, p Provider) error {
	for _, env := range p.RequiredCredentials() {
		if os.Getenv(env) == "" {
			return &ConfigError{Msg: fmt.Sprintf("missing credential %s for provider %s", env, p.Describe().Name)}
		}
	}
	if !p.CheckConnectivity(ctx) {
		return fmt.Errorf("provider %s is unreachable", p.Describe().Name)
	}
	return nil
}
