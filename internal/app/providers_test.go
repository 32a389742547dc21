package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rozeraf/autocommit/internal/ai"
	"github.com/rozeraf/autocommit/internal/config"
)

func TestNewProviderStyles(t *testing.T) {
	tests := []struct {
		name  string
		style string
	}{
		{"router", "openrouter"},
		{"gpt", "openai"},
		{"claude", "anthropic"},
		{"ollama-box", "local"},
		{"ollama-alias", "ollama"},
	}
	for _, tc := range tests {
		p, err := newProvider(tc.name, config.Provider{Style: tc.style, Model: "m"})
		require.NoError(t, err, tc.style)
		assert.Equal(t, tc.name, p.Describe().Name)
	}
}

func TestNewProviderStyleDefaultsToName(t *testing.T) {
	p, err := newProvider("anthropic", config.Provider{Model: "claude-3-5-sonnet-latest"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Describe().Name)
}

func TestNewProviderUnknownStyle(t *testing.T) {
	_, err := newProvider("weird", config.Provider{Style: "telnet", Model: "m"})
	var ce *ai.ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestDescriptorDefaults(t *testing.T) {
	d := descriptor("router", config.Provider{Model: "m", Style: "openrouter"})
	assert.Equal(t, config.DefaultTemperature, d.Temperature)
	assert.Equal(t, config.DefaultMaxTokens, d.MaxTokens)
	assert.Equal(t, config.DefaultContextLimit, d.ContextLimit)

	temp := 0.9
	tokens := 256
	d = descriptor("router", config.Provider{
		Model: "m", Temperature: &temp, MaxTokens: &tokens, ContextLimit: 32000,
	})
	assert.Equal(t, 0.9, d.Temperature)
	assert.Equal(t, 256, d.MaxTokens)
	assert.Equal(t, 32000, d.ContextLimit)
}

func TestToRulesPreservesOrder(t *testing.T) {
	rules := toRules([]config.ContextRule{
		{Name: "docs", FilePatterns: []string{"*.md"}, Provider: "local"},
		{Name: "big", ThresholdLines: 300, Provider: "router"},
	})
	require.Len(t, rules, 2)
	assert.Equal(t, "docs", rules[0].Name)
	assert.Equal(t, []string{"*.md"}, rules[0].Patterns)
	assert.Equal(t, "big", rules[1].Name)
	assert.Equal(t, 300, rules[1].ThresholdLines)
}
