package diffsum

import (
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/rozeraf/autocommit/internal/gitx"
)

// FileSummary is one entry of the ranked change digest.
type FileSummary struct {
	Path    string
	Status  gitx.Status
	Score   int
	Excerpt string
}

// SummaryConfig tunes the heuristic ranking. Zero value uses the defaults.
type SummaryConfig struct {
	// DefinitionKeywords mark added lines that introduce declarations and
	// therefore raise a file's significance.
	DefinitionKeywords []string
	// IgnorePatterns filter files out of the digest entirely
	// (gitignore-style patterns).
	IgnorePatterns []string
}

var DefaultDefinitionKeywords = []string{
	"func ", "type ", "class ", "def ", "struct ", "interface ",
	"fn ", "function ", "impl ", "trait ",
}

var sourceExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".jsx": true,
	".tsx": true, ".rs": true, ".java": true, ".c": true, ".h": true,
	".cc": true, ".cpp": true, ".hpp": true, ".rb": true, ".kt": true,
	".swift": true, ".cs": true, ".sh": true, ".zig": true, ".ex": true,
}

var generatedPatterns = []string{
	"go.sum", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"poetry.lock", "Cargo.lock", "*.min.js", "*.min.css", "*.map",
	"*.svg", "*.pb.go", "*_generated.go",
}

// Summarize ranks the change-set's files by heuristic significance:
// source files over generated or lock files, files introducing
// declarations over plain edits, larger diffs over smaller ones. The
// result is stable-sorted by descending score, then path, so the same
// input always yields the same digest. Pure function of its input.
func Summarize(cs *gitx.ChangeSet, cfg SummaryConfig) []FileSummary {
	keywords := cfg.DefinitionKeywords
	if len(keywords) == 0 {
		keywords = DefaultDefinitionKeywords
	}
	var ignorer *gitignore.GitIgnore
	if len(cfg.IgnorePatterns) > 0 {
		ignorer = gitignore.CompileIgnoreLines(cfg.IgnorePatterns...)
	}

	summaries := make([]FileSummary, 0, len(cs.Records))
	for _, rec := range cs.Records {
		if ignorer != nil && ignorer.MatchesPath(rec.Path) {
			continue
		}
		score, excerpt := scoreRecord(rec, keywords)
		summaries = append(summaries, FileSummary{
			Path:    rec.Path,
			Status:  rec.Status,
			Score:   score,
			Excerpt: excerpt,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Score != summaries[j].Score {
			return summaries[i].Score > summaries[j].Score
		}
		return summaries[i].Path < summaries[j].Path
	})
	return summaries
}

func scoreRecord(rec gitx.ChangeRecord, keywords []string) (int, string) {
	score := extensionWeight(rec.Path) * 10

	changed := 0
	definitions := 0
	excerpt := ""
	for _, ln := range strings.Split(rec.Diff, "\n") {
		if strings.HasPrefix(ln, "+++") || strings.HasPrefix(ln, "---") {
			continue
		}
		if strings.HasPrefix(ln, "+") || strings.HasPrefix(ln, "-") {
			changed++
		}
		if !strings.HasPrefix(ln, "+") {
			continue
		}
		content := strings.TrimSpace(ln[1:])
		for _, kw := range keywords {
			if strings.HasPrefix(content, kw) {
				definitions++
				if excerpt == "" {
					excerpt = clip(content, 80)
				}
				break
			}
		}
	}
	if excerpt == "" {
		excerpt = firstChangedLine(rec.Diff)
	}

	score += definitions * 5
	if changed > 100 {
		changed = 100
	}
	score += changed
	return score, excerpt
}

func extensionWeight(path string) int {
	base := strings.ToLower(strings.TrimSpace(path))
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	for _, pat := range generatedPatterns {
		if matchBase(pat, base) {
			return 1
		}
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		ext := base[i:]
		if sourceExtensions[ext] {
			return 10
		}
		switch ext {
		case ".md", ".txt", ".rst":
			return 4
		case ".json", ".yaml", ".yml", ".toml", ".ini", ".cfg", ".conf":
			return 5
		}
	}
	return 3
}

func matchBase(pattern, base string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return pattern == base
	}
	// Only suffix globs appear in generatedPatterns.
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(base, pattern[1:])
	}
	return pattern == base
}

func firstChangedLine(diff string) string {
	for _, ln := range strings.Split(diff, "\n") {
		if strings.HasPrefix(ln, "+++") || strings.HasPrefix(ln, "---") {
			continue
		}
		if strings.HasPrefix(ln, "+") || strings.HasPrefix(ln, "-") {
			return clip(strings.TrimSpace(ln[1:]), 80)
		}
	}
	return ""
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
