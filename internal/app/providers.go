package app

import (
	"fmt"

	"github.com/rozeraf/autocommit/internal/ai"
	"github.com/rozeraf/autocommit/internal/anthropic"
	"github.com/rozeraf/autocommit/internal/config"
	"github.com/rozeraf/autocommit/internal/localai"
	"github.com/rozeraf/autocommit/internal/openai"
	"github.com/rozeraf/autocommit/internal/openrouter"
)

// newProvider instantiates the client variant for one descriptor. The
// style field picks the wire shape; an entry without a style uses its
// own name.
func newProvider(name string, pc config.Provider) (ai.Provider, error) {
	d := descriptor(name, pc)
	style := pc.Style
	if style == "" {
		style = name
	}
	switch style {
	case "openrouter":
		return openrouter.New(d), nil
	case "openai":
		return openai.New(d), nil
	case "anthropic":
		return anthropic.New(d), nil
	case "local", "ollama":
		return localai.New(d), nil
	default:
		return nil, &ai.ConfigError{Msg: fmt.Sprintf("provider %q has unknown style %q (supported: openrouter, openai, anthropic, local)", name, style)}
	}
}

func buildProviders(providers map[string]config.Provider) (map[string]ai.Provider, error) {
	out := make(map[string]ai.Provider, len(providers))
	for name, pc := range providers {
		p, err := newProvider(name, pc)
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}

func descriptor(name string, pc config.Provider) ai.Descriptor {
	d := ai.Descriptor{
		Name:           name,
		Style:          pc.Style,
		BaseURL:        pc.BaseURL,
		Model:          pc.Model,
		ContextLimit:   pc.ContextLimit,
		CredentialEnv:  pc.CredentialEnv,
		Temperature:    config.DefaultTemperature,
		MaxTokens:      config.DefaultMaxTokens,
		PromptOverride: pc.Prompt,
	}
	if pc.Temperature != nil {
		d.Temperature = *pc.Temperature
	}
	if pc.MaxTokens != nil {
		d.MaxTokens = *pc.MaxTokens
	}
	if d.ContextLimit <= 0 {
		d.ContextLimit = config.DefaultContextLimit
	}
	return d
}
