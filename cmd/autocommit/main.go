package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rozeraf/autocommit/internal/app"
	"github.com/rozeraf/autocommit/internal/config"
	"github.com/rozeraf/autocommit/internal/logging"
)

var (
	flagRepo        string
	flagConfig      string
	flagProvider    string
	flagModel       string
	flagHookFile    string
	flagDumpOut     string
	flagVerbose     bool
	flagStrict      bool
	flagConvention  bool
	flagMaxSubject  int
	flagReserve     int
	flagMaxAttempts int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "autocommit",
		Short:         "Generate commit messages for staged changes with an AI backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "suggest")
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagRepo, "repo", "", "path to the git repository (default: walk up from cwd)")
	pf.StringVar(&flagConfig, "config", "", "config file path (default ~/.autocommit.json)")
	pf.StringVar(&flagProvider, "provider", "", "provider override; beats every context rule")
	pf.StringVar(&flagModel, "model", "", "model override for all providers")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "echo debug logging to stderr")
	pf.BoolVar(&flagStrict, "strict", false, "treat format violations as failures")
	pf.BoolVar(&flagConvention, "conventional", true, "enforce conventional commit subjects")
	pf.IntVar(&flagMaxSubject, "max-subject-length", 0, "maximum subject line length")
	pf.IntVar(&flagReserve, "reserve", 0, "characters held back from the context budget")
	pf.IntVar(&flagMaxAttempts, "max-attempts", 0, "maximum generation attempts per request")

	suggest := &cobra.Command{
		Use:   "suggest",
		Short: "Generate a commit message for the staged changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "suggest")
		},
	}
	suggest.Flags().StringVar(&flagHookFile, "hook-file", "", "write the accepted message to this file instead of committing")

	dump := &cobra.Command{
		Use:   "dump-prompt",
		Short: "Print the exact prompt that would be sent, without calling any provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "dump-prompt")
		},
	}
	dump.Flags().StringVarP(&flagDumpOut, "out", "o", "", "write the dump to a file instead of stdout")

	root.AddCommand(
		suggest,
		dump,
		&cobra.Command{
			Use:   "test-providers",
			Short: "Check connectivity of every configured provider",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "test-providers")
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Edit the configuration interactively",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "config")
			},
		},
		&cobra.Command{
			Use:   "install-hook",
			Short: "Install the prepare-commit-msg hook",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "install-hook")
			},
		},
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, command string) error {
	fileCfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(fileCfg.Providers) == 0 {
		fileCfg = defaultFileConfig(fileCfg)
	}
	if command != "config" && command != "install-hook" {
		if err := config.Validate(fileCfg); err != nil {
			return err
		}
	}

	if flagModel != "" {
		for name, p := range fileCfg.Providers {
			p.Model = flagModel
			fileCfg.Providers[name] = p
		}
	}

	maxAttempts := config.DefaultMaxAttempts
	if fileCfg.Retry.MaxAttempts != nil {
		maxAttempts = *fileCfg.Retry.MaxAttempts
	}
	if cmd.Flags().Changed("max-attempts") {
		maxAttempts = flagMaxAttempts
	}
	baseDelay := config.DefaultBaseDelayMs
	if fileCfg.Retry.BaseDelayMs != nil {
		baseDelay = *fileCfg.Retry.BaseDelayMs
	}

	allowedTypes := fileCfg.AllowedTypes
	if len(allowedTypes) == 0 {
		allowedTypes = config.DefaultAllowedTypes
	}
	wipKeywords := fileCfg.WIPKeywords
	if len(wipKeywords) == 0 {
		wipKeywords = config.DefaultWIPKeywords
	}

	appCfg := app.Config{
		Command:    command,
		RepoArg:    flagRepo,
		ConfigPath: flagConfig,

		BaseProvider:     fileCfg.BaseProvider,
		ProviderOverride: config.ResolveString(flagProvider, os.Getenv("AUTOCOMMIT_PROVIDER"), "", ""),
		Providers:        fileCfg.Providers,
		Rules:            fileCfg.ContextRules,
		Prompts:          fileCfg.Prompts,

		EnforceConventional: config.ResolveBool(flagConvention, cmd.Flags().Changed("conventional"), fileCfg.EnforceConventional, true),
		Strict:              config.ResolveBool(flagStrict, cmd.Flags().Changed("strict"), fileCfg.Strict, false),
		MaxSubjectLength:    config.ResolveInt(flagMaxSubject, cmd.Flags().Changed("max-subject-length"), fileCfg.MaxSubjectLength, config.DefaultMaxSubjectLength),
		AllowedTypes:        allowedTypes,

		Reserve:     config.ResolveInt(flagReserve, cmd.Flags().Changed("reserve"), fileCfg.Reserve, config.DefaultReserve),
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Duration(baseDelay) * time.Millisecond,

		IgnoredFiles: fileCfg.IgnoredFiles,
		WIPKeywords:  wipKeywords,

		HookFile:    flagHookFile,
		DumpOutPath: flagDumpOut,
		Verbose:     flagVerbose,

		Log: logging.New(flagVerbose),
	}

	return app.Run(cmd.Context(), appCfg)
}

// defaultFileConfig fills in a usable provider set when the config file
// is absent or declares none.
func defaultFileConfig(cfg config.FileConfig) config.FileConfig {
	cfg.BaseProvider = config.ResolveString(cfg.BaseProvider, "", "", "openrouter")
	cfg.Providers = map[string]config.Provider{
		"openrouter": {
			Style:         "openrouter",
			BaseURL:       "https://openrouter.ai/api/v1",
			Model:         "anthropic/claude-3.5-sonnet",
			ContextLimit:  200000,
			CredentialEnv: "OPENROUTER_API_KEY",
		},
		"openai": {
			Style:         "openai",
			BaseURL:       "https://api.openai.com/v1",
			Model:         "gpt-4o-mini",
			ContextLimit:  128000,
			CredentialEnv: "OPENAI_API_KEY",
		},
		"anthropic": {
			Style:         "anthropic",
			BaseURL:       "https://api.anthropic.com/v1",
			Model:         "claude-3-5-sonnet-latest",
			ContextLimit:  200000,
			CredentialEnv: "ANTHROPIC_API_KEY",
		},
		"local": {
			Style:        "local",
			BaseURL:      "http://localhost:11434",
			Model:        "llama3",
			ContextLimit: 8000,
		},
	}
	return cfg
}

