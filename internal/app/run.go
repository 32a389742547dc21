package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/rozeraf/autocommit/internal/ai"
	"github.com/rozeraf/autocommit/internal/commitmsg"
	"github.com/rozeraf/autocommit/internal/config"
	"github.com/rozeraf/autocommit/internal/diffsum"
	"github.com/rozeraf/autocommit/internal/gitx"
	"github.com/rozeraf/autocommit/internal/logging"
	"github.com/rozeraf/autocommit/internal/openrouter"
	"github.com/rozeraf/autocommit/internal/prompt"
)

// Config is the fully resolved settings for one invocation: file config,
// environment and flags already merged by the CLI layer.
type Config struct {
	Command    string
	RepoArg    string
	ConfigPath string

	BaseProvider     string
	ProviderOverride string
	Providers        map[string]config.Provider
	Rules            []config.ContextRule
	Prompts          map[string]string

	EnforceConventional bool
	Strict              bool
	MaxSubjectLength    int
	AllowedTypes        []string

	Reserve     int
	MaxAttempts int
	BaseDelay   time.Duration

	IgnoredFiles []string
	WIPKeywords  []string

	HookFile    string
	DumpOutPath string
	Verbose     bool

	Log *logging.Logger
}

// diagnostics is what the pipeline reports alongside the message: which
// provider answered, how many attempts it took, and whether the payload
// was degraded to fit the context budget.
type diagnostics struct {
	Provider  string
	Attempts  int
	Truncated bool
	Elided    bool
}

func Run(ctx context.Context, cfg Config) error {
	switch cfg.Command {
	case "config":
		return runConfig(cfg)
	case "install-hook":
		return InstallHook()
	case "test-providers":
		return runTestProviders(ctx, cfg)
	case "suggest", "", "dump-prompt":
		return runPipeline(ctx, cfg)
	default:
		return fmt.Errorf("unknown command %q (use suggest | dump-prompt | test-providers | config | install-hook)", cfg.Command)
	}
}

func runPipeline(ctx context.Context, cfg Config) error {
	repoRoot, err := gitx.ResolveRepoRoot(ctx, cfg.RepoArg)
	if err != nil {
		return err
	}

	cs, err := gitx.StagedChangeSet(ctx, repoRoot)
	if err != nil {
		return err
	}
	branch, _ := gitx.CurrentBranch(ctx, repoRoot)
	cfg.Log.Debugf("repo %s (branch %s): %d files staged, +%d/-%d lines",
		gitx.RepoNameFromRoot(repoRoot), branch, len(cs.Records), cs.LinesAdded, cs.LinesRemoved)

	summaries := diffsum.Summarize(cs, diffsum.SummaryConfig{IgnorePatterns: cfg.IgnoredFiles})
	if len(summaries) == 0 {
		return fmt.Errorf("all %d staged files matched ignore patterns", len(cs.Records))
	}
	hints := diffsum.DetectHints(cs, cfg.WIPKeywords)

	providers, err := buildProviders(cfg.Providers)
	if err != nil {
		return err
	}
	selector := &ai.Selector{
		Base:      cfg.BaseProvider,
		Rules:     toRules(cfg.Rules),
		Providers: providers,
		Log:       cfg.Log,
	}
	provider, err := selector.Pick(ctx, cs, cfg.ProviderOverride)
	if err != nil {
		return err
	}

	err = runWithProvider(ctx, cfg, repoRoot, cs, summaries, hints, provider)
	if base, ok := authFallback(err, provider, cfg, providers); ok {
		cfg.Log.Warnf("provider %s rejected its credential, retrying once with base provider %s",
			provider.Describe().Name, cfg.BaseProvider)
		return runWithProvider(ctx, cfg, repoRoot, cs, summaries, hints, base)
	}
	return err
}

// runWithProvider budgets, compresses and prompts against one concrete
// backend. Split out so an auth rejection can be replayed against the
// base provider with a freshly budgeted payload.
func runWithProvider(ctx context.Context, cfg Config, repoRoot string, cs *gitx.ChangeSet, summaries []diffsum.FileSummary, hints []string, provider ai.Provider) error {
	d := provider.Describe()
	cfg.Log.Infof("selected provider %s (model %s)", d.Name, d.Model)

	limit := d.ContextLimit
	if or, ok := provider.(*openrouter.Client); ok {
		if mi, err := or.ModelInfo(ctx); err == nil && mi.ContextLength > 0 {
			limit = mi.ContextLength
			cfg.Log.Debugf("live context length for %s: %d", d.Model, limit)
		}
	}
	budget := limit - cfg.Reserve
	if budget <= 0 {
		return &ai.ConfigError{Msg: fmt.Sprintf("provider %s context limit %d leaves no room after reserve %d", d.Name, limit, cfg.Reserve)}
	}

	payload := diffsum.Compress(cs, summaries, diffsum.CompressOptions{Budget: budget})
	if payload.Truncated {
		cfg.Log.Warnf("diff degraded to fit budget %d (dropped %d files)", budget, payload.DroppedFiles)
	}

	recent, err := gitx.RecentCommits(ctx, repoRoot, 5)
	if err != nil {
		cfg.Log.Debugf("no recent commits available: %v", err)
	}

	systemPrompt := prompt.SystemPrompt(d, cfg.Prompts)
	userContent := prompt.UserContent(hints, recent, payload)

	if cfg.Command == "dump-prompt" {
		return dumpPrompt(systemPrompt, userContent, d.Name, cfg.DumpOutPath)
	}

	return generateLoop(ctx, cfg, repoRoot, provider, systemPrompt, userContent, payload)
}

// authFallback reports whether err is a request-time credential rejection
// from a rule-selected provider, in which case the base provider gets one
// attempt. Explicit overrides never fall back.
func authFallback(err error, active ai.Provider, cfg Config, providers map[string]ai.Provider) (ai.Provider, bool) {
	if err == nil || ai.Classify(err) != ai.FailureAuth {
		return nil, false
	}
	if cfg.ProviderOverride != "" || active.Describe().Name == cfg.BaseProvider {
		return nil, false
	}
	base, ok := providers[cfg.BaseProvider]
	if !ok {
		return nil, false
	}
	return base, true
}

func generateLoop(ctx context.Context, cfg Config, repoRoot string, provider ai.Provider, systemPrompt, userContent string, payload diffsum.Payload) error {
	retrier := &ai.Retrier{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		Log:         cfg.Log,
	}
	parseOpts := commitmsg.Options{
		EnforceConventional: cfg.EnforceConventional,
		Strict:              cfg.Strict,
		MaxSubjectLength:    cfg.MaxSubjectLength,
		AllowedTypes:        cfg.AllowedTypes,
	}

	for {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Generating commit message..."
		s.Start()
		res := retrier.Generate(ctx, provider, userContent, systemPrompt)
		s.Stop()

		if res.State != ai.StateSuccess {
			return fmt.Errorf("generation failed after %d attempt(s): %w", res.Attempts, res.Err)
		}

		diag := diagnostics{
			Provider:  provider.Describe().Name,
			Attempts:  res.Attempts,
			Truncated: payload.Truncated,
			Elided:    payload.Elided,
		}

		msg, err := commitmsg.Parse(res.Text, parseOpts)
		var formatErr *commitmsg.FormatError
		switch {
		case errors.As(err, &formatErr):
			// Strict mode: the message is unusable as-is, let the user decide.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", formatErr)
		case err != nil:
			// ParseFailure: nothing usable came back, offer regeneration.
			again, perr := confirmRegenerate(err)
			if perr != nil {
				return perr
			}
			if !again {
				return err
			}
			continue
		}

		action, err := confirmCommit(msg, diag)
		if err != nil {
			return err
		}
	confirm:
		switch action {
		case actionCommit:
			if cfg.HookFile != "" {
				if err := os.WriteFile(cfg.HookFile, []byte(msg.String()+"\n"), 0644); err != nil {
					return fmt.Errorf("write hook file: %w", err)
				}
				fmt.Println("Message written for git hook.")
				return nil
			}
			return gitx.Commit(ctx, repoRoot, msg.String())

		case actionEdit:
			edited, err := editMessage(msg.String())
			if err != nil {
				return err
			}
			msg = reparseEdited(edited, parseOpts)
			action, err = confirmCommit(msg, diag)
			if err != nil {
				return err
			}
			goto confirm

		case actionRegenerate:
			fmt.Println("Regenerating...")
			continue

		default:
			fmt.Println("Cancelled.")
			if cfg.HookFile != "" {
				return fmt.Errorf("commit cancelled by user")
			}
			return nil
		}
	}
}

// reparseEdited normalizes a user-edited message. A strict-mode format
// problem keeps the best-effort parse with its violations; an edit with
// no usable subject falls back to a raw wrapper whose subject is the
// first line only.
func reparseEdited(edited string, opts commitmsg.Options) commitmsg.Message {
	msg, err := commitmsg.Parse(edited, opts)
	var formatErr *commitmsg.FormatError
	switch {
	case errors.As(err, &formatErr):
		fmt.Fprintf(os.Stderr, "Warning: %v\n", formatErr)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		lines := strings.Split(strings.TrimSpace(edited), "\n")
		msg = commitmsg.Message{Subject: strings.TrimSpace(lines[0])}
		msg.Body = append(msg.Body, lines[1:]...)
	}
	return msg
}

func toRules(rules []config.ContextRule) []ai.Rule {
	out := make([]ai.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, ai.Rule{
			Name:           r.Name,
			Patterns:       r.FilePatterns,
			ThresholdLines: r.ThresholdLines,
			Provider:       r.Provider,
		})
	}
	return out
}

func dumpPrompt(systemPrompt, userContent, providerName, outPath string) error {
	dump := map[string]string{
		"provider": providerName,
		"system":   systemPrompt,
		"user":     userContent,
	}
	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}
