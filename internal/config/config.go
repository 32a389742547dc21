package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Provider is one backend entry in the config file. Style picks the wire
// shape (openai, openrouter, anthropic, local); when empty the entry name
// is used. CredentialEnv names the environment variable holding the key;
// local backends leave it empty.
type Provider struct {
	Style         string   `json:"style,omitempty"`
	BaseURL       string   `json:"base_url"`
	Model         string   `json:"model"`
	ContextLimit  int      `json:"context_limit,omitempty"`
	CredentialEnv string   `json:"credential_env,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	Prompt        string   `json:"prompt,omitempty"`
}

// ContextRule routes a change-set to a provider. Rules are evaluated in
// declared order; the first whose file patterns match a changed path or
// whose line threshold is exceeded wins.
type ContextRule struct {
	Name           string   `json:"name"`
	FilePatterns   []string `json:"file_patterns,omitempty"`
	ThresholdLines int      `json:"threshold_lines,omitempty"`
	Provider       string   `json:"provider"`
}

type RetryConfig struct {
	MaxAttempts *int `json:"max_attempts,omitempty"`
	BaseDelayMs *int `json:"base_delay_ms,omitempty"`
}

type FileConfig struct {
	BaseProvider string              `json:"base_provider"`
	Providers    map[string]Provider `json:"providers"`
	ContextRules []ContextRule       `json:"context_rules,omitempty"`

	EnforceConventional *bool    `json:"enforce_conventional,omitempty"`
	Strict              *bool    `json:"strict,omitempty"`
	MaxSubjectLength    *int     `json:"max_subject_length,omitempty"`
	AllowedTypes        []string `json:"allowed_types,omitempty"`

	Reserve *int        `json:"reserve,omitempty"`
	Retry   RetryConfig `json:"retry,omitempty"`

	Prompts      map[string]string `json:"prompts,omitempty"`
	IgnoredFiles []string          `json:"ignored_files,omitempty"`
	WIPKeywords  []string          `json:"wip_keywords,omitempty"`
}

const (
	DefaultMaxSubjectLength = 70
	DefaultReserve          = 500
	DefaultMaxAttempts      = 3
	DefaultBaseDelayMs      = 500
	DefaultTemperature      = 0.3
	DefaultMaxTokens        = 1000
	DefaultContextLimit     = 8000
)

// DefaultAllowedTypes is the conventional-commit type set.
var DefaultAllowedTypes = []string{
	"feat", "fix", "docs", "style", "refactor", "perf",
	"test", "build", "ci", "chore", "revert",
}

var DefaultWIPKeywords = []string{"TODO", "FIXME", "WIP", "HACK", "XXX", "NOTE"}

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".autocommit.json"), nil
}

func Load(path string) (FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func Save(cfg FileConfig, path string) error {
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate reports configuration problems that must stop the run before
// any request is attempted: an unknown base provider, a rule pointing at
// an undeclared provider, or an out-of-range sampling parameter.
func Validate(cfg FileConfig) error {
	if cfg.BaseProvider == "" {
		return fmt.Errorf("config: base_provider is not set")
	}
	if _, ok := cfg.Providers[cfg.BaseProvider]; !ok {
		return fmt.Errorf("config: base provider %q is not declared in providers", cfg.BaseProvider)
	}
	for name, p := range cfg.Providers {
		if p.Model == "" {
			return fmt.Errorf("config: provider %q has no model", name)
		}
		if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2.0) {
			return fmt.Errorf("config: provider %q temperature must be between 0.0 and 2.0", name)
		}
		if p.MaxTokens != nil && *p.MaxTokens <= 0 {
			return fmt.Errorf("config: provider %q max_tokens must be positive", name)
		}
	}
	for _, r := range cfg.ContextRules {
		if r.Provider == "" {
			return fmt.Errorf("config: context rule %q names no provider", r.Name)
		}
		if _, ok := cfg.Providers[r.Provider]; !ok {
			return fmt.Errorf("config: context rule %q targets undeclared provider %q", r.Name, r.Provider)
		}
	}
	return nil
}

func ResolveString(flagVal, envVal, fileVal, defVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if envVal != "" {
		return envVal
	}
	if fileVal != "" {
		return fileVal
	}
	return defVal
}

func ResolveInt(flagVal int, flagSet bool, fileVal *int, defVal int) int {
	if flagSet {
		return flagVal
	}
	if fileVal != nil {
		return *fileVal
	}
	return defVal
}

func ResolveBool(flagVal bool, flagSet bool, fileVal *bool, defVal bool) bool {
	if flagSet {
		return flagVal
	}
	if fileVal != nil {
		return *fileVal
	}
	return defVal
}

func ResolveFloat(flagVal float64, flagSet bool, fileVal *float64, defVal float64) float64 {
	if flagSet {
		return flagVal
	}
	if fileVal != nil {
		return *fileVal
	}
	return defVal
}
