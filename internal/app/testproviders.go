package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rozeraf/autocommit/internal/ai"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// runTestProviders checks every configured backend concurrently and
// prints an aggregated reachability report.
func runTestProviders(ctx context.Context, cfg Config) error {
	providers, err := buildProviders(cfg.Providers)
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		return fmt.Errorf("no providers configured")
	}

	results := ai.TestAll(ctx, providers, 5*time.Second)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	failures := 0
	for _, name := range names {
		d := providers[name].Describe()
		status := okStyle.Render("reachable")
		if !results[name] {
			status = failStyle.Render("unreachable")
			failures++
		}
		marker := " "
		if name == cfg.BaseProvider {
			marker = "*"
		}
		fmt.Printf("%s %-14s %-10s %s\n", marker, name, status, d.BaseURL)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d providers unreachable", failures, len(results))
	}
	return nil
}
