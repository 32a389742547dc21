package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/rozeraf/autocommit/internal/commitmsg"
	"github.com/rozeraf/autocommit/internal/config"
)

type action int

const (
	actionCommit action = iota
	actionRegenerate
	actionEdit
	actionCancel
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			MarginBottom(1)

	diagStyle = lipgloss.NewStyle().
			Faint(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

func confirmCommit(msg commitmsg.Message, diag diagnostics) (action, error) {
	fmt.Println()
	fmt.Println(titleStyle.Render("Generated Commit Message:"))
	fmt.Println(boxStyle.Render(strings.TrimSpace(msg.String())))

	line := fmt.Sprintf("provider %s · %d attempt(s)", diag.Provider, diag.Attempts)
	if diag.Truncated {
		line += " · diff truncated to fit context"
	} else if diag.Elided {
		line += " · unchanged context elided"
	}
	fmt.Println(diagStyle.Render(line))

	for _, v := range msg.Violations {
		fmt.Println(warnStyle.Render("warning: " + v))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What would you like to do?").
				Options(
					huh.NewOption("Commit (Apply)", "commit"),
					huh.NewOption("Regenerate", "regenerate"),
					huh.NewOption("Edit", "edit"),
					huh.NewOption("Cancel", "cancel"),
				).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return actionCancel, err
	}

	switch selected {
	case "commit":
		return actionCommit, nil
	case "edit":
		return actionEdit, nil
	case "regenerate":
		return actionRegenerate, nil
	default:
		return actionCancel, nil
	}
}

func confirmRegenerate(parseErr error) (bool, error) {
	fmt.Println(warnStyle.Render(fmt.Sprintf("The model reply was unusable: %v", parseErr)))

	again := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Regenerate?").
				Value(&again),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return again, nil
}

func editMessage(initial string) (string, error) {
	content := initial
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Edit Commit Message").
				Description("Modify the message below").
				Value(&content),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return content, nil
}

// runConfig launches a form to edit the main config fields and saves the
// result back to the config file.
func runConfig(cfg Config) error {
	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}

	base := fileCfg.BaseProvider
	maxSubjectStr := strconv.Itoa(config.DefaultMaxSubjectLength)
	if fileCfg.MaxSubjectLength != nil {
		maxSubjectStr = strconv.Itoa(*fileCfg.MaxSubjectLength)
	}
	reserveStr := strconv.Itoa(config.DefaultReserve)
	if fileCfg.Reserve != nil {
		reserveStr = strconv.Itoa(*fileCfg.Reserve)
	}
	conventional := true
	if fileCfg.EnforceConventional != nil {
		conventional = *fileCfg.EnforceConventional
	}
	strict := false
	if fileCfg.Strict != nil {
		strict = *fileCfg.Strict
	}
	ignoredStr := strings.Join(fileCfg.IgnoredFiles, ", ")

	providerOpts := make([]huh.Option[string], 0, len(fileCfg.Providers))
	for name := range fileCfg.Providers {
		providerOpts = append(providerOpts, huh.NewOption(name, name))
	}
	if len(providerOpts) == 0 {
		providerOpts = []huh.Option[string]{
			huh.NewOption("openrouter", "openrouter"),
			huh.NewOption("openai", "openai"),
			huh.NewOption("anthropic", "anthropic"),
			huh.NewOption("local", "local"),
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("autocommit Configuration").
				Description("Update settings in ~/.autocommit.json"),

			huh.NewSelect[string]().
				Title("Base Provider").
				Options(providerOpts...).
				Value(&base),

			huh.NewInput().
				Title("Max Subject Length").
				Value(&maxSubjectStr).
				Validate(func(s string) error {
					_, err := strconv.Atoi(s)
					return err
				}),

			huh.NewInput().
				Title("Context Reserve").
				Description("Characters held back for instructions and the reply").
				Value(&reserveStr).
				Validate(func(s string) error {
					_, err := strconv.Atoi(s)
					return err
				}),
		),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Conventional Commits").
				Description("Enforce type(scope): description subjects?").
				Value(&conventional),

			huh.NewConfirm().
				Title("Strict Format").
				Description("Treat format violations as failures?").
				Value(&strict),

			huh.NewInput().
				Title("Ignored Files").
				Description("Glob patterns (comma separated)").
				Value(&ignoredStr),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	fileCfg.BaseProvider = base
	if v, err := strconv.Atoi(maxSubjectStr); err == nil {
		fileCfg.MaxSubjectLength = &v
	}
	if v, err := strconv.Atoi(reserveStr); err == nil {
		fileCfg.Reserve = &v
	}
	fileCfg.EnforceConventional = &conventional
	fileCfg.Strict = &strict

	var ignores []string
	for _, s := range strings.Split(ignoredStr, ",") {
		if s = strings.TrimSpace(s); s != "" {
			ignores = append(ignores, s)
		}
	}
	fileCfg.IgnoredFiles = ignores

	if err := config.Save(fileCfg, cfg.ConfigPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println("Configuration saved.")
	return nil
}
