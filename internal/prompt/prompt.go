package prompt

import (
	"strings"

	"github.com/rozeraf/autocommit/internal/ai"
	"github.com/rozeraf/autocommit/internal/diffsum"
)

// defaultSystemPrompt is the built-in instruction block, the last link of
// the fallback chain.
const defaultSystemPrompt = `Your task is to generate a commit message based on the provided diff, following the Conventional Commits specification.

RULES:
1. Output ONLY the commit message text - no explanations, markdown blocks, or extra text.

2. Format: ` + "`type(scope): subject`" + `
   - Subject: max 50 chars, imperative mood ("add", not "added")
   - Body: detailed bullet points if needed
   - Footer: BREAKING CHANGE if applicable

3. Scope selection:
   - Use specific module/component names when possible
   - Omit scope only for broad changes across multiple areas

4. Types (strict priority order):
   - feat: New features or capabilities
   - fix: Bug fixes and error corrections
   - refactor: Code restructuring without behavior change
   - perf: Performance improvements
   - test: Test additions or modifications
   - docs: Documentation changes
   - style: Formatting, whitespace, etc.
   - build: Dependencies, build system
   - ci: CI/CD configuration
   - chore: Maintenance tasks
   - revert: Reverting previous commits

5. Body structure (when needed):
   - Use bullet points with hyphens (-)
   - Start each point with an action verb
   - Group related changes logically
   - Explain WHY for complex changes

6. Quality checks:
   - Subject must be imperative mood
   - No period at end of subject
   - Body separated by blank line
   - Each bullet point is a complete thought`

// SystemPrompt resolves the instruction text through the ordered fallback
// chain: provider-specific override, then the config "default" entry,
// then the built-in constant.
func SystemPrompt(d ai.Descriptor, prompts map[string]string) string {
	for _, candidate := range []string{d.PromptOverride, prompts[d.Name], prompts["default"]} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return defaultSystemPrompt
}

// UserContent assembles the user-side payload: context hints first,
// recent subjects as a style reference, then the (possibly compressed)
// diff body.
func UserContent(hints, recentSubjects []string, payload diffsum.Payload) string {
	var b strings.Builder
	if len(hints) > 0 {
		b.WriteString("An important context to consider: ")
		b.WriteString(strings.Join(hints, ", "))
		b.WriteString("\n\n")
	}
	if len(recentSubjects) > 0 {
		b.WriteString("Recent commit subjects in this repository, for style reference:\n")
		for _, s := range recentSubjects {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Create a commit message for these changes:\n")
	b.WriteString(payload.Body)
	return b.String()
}
