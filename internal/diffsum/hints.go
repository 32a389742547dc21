package diffsum

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rozeraf/autocommit/internal/gitx"
)

var (
	testPathRe   = regexp.MustCompile(`test|spec|__test__|\.test\.|\.spec\.`)
	docPathRe    = regexp.MustCompile(`readme|changelog|license|\.md$|\.txt$|\.rst$`)
	configPathRe = regexp.MustCompile(`\.json$|\.yaml$|\.yml$|\.toml$|\.ini$|\.cfg$|\.conf$`)
	depsPathRe   = regexp.MustCompile(`package\.json|requirements\.txt|pyproject\.toml|poetry\.lock|pom\.xml|cargo\.toml|go\.mod|go\.sum`)
)

// DetectHints derives short context tags from the change-set: work-in-progress
// keywords found on added lines, the kinds of files touched, and the shape of
// the add/remove ratio. The result is sorted and deduplicated so it can feed
// the prompt deterministically.
func DetectHints(cs *gitx.ChangeSet, wipKeywords []string) []string {
	seen := map[string]bool{}

	for _, ln := range strings.Split(cs.Diff, "\n") {
		if !strings.HasPrefix(ln, "+") || strings.HasPrefix(ln, "+++") {
			continue
		}
		upper := strings.ToUpper(ln[1:])
		for _, kw := range wipKeywords {
			if strings.Contains(upper, strings.ToUpper(kw)) {
				seen["wip_keyword_"+strings.ToLower(kw)] = true
				break
			}
		}
	}

	for _, rec := range cs.Records {
		path := strings.ToLower(rec.Path)
		if testPathRe.MatchString(path) {
			seen["tests_modified"] = true
		}
		if docPathRe.MatchString(path) {
			seen["docs_modified"] = true
		}
		if configPathRe.MatchString(path) {
			seen["config_modified"] = true
		}
		if depsPathRe.MatchString(path) {
			seen["deps_modified"] = true
		}
	}

	if cs.LinesAdded > 100 && cs.LinesRemoved < 20 {
		seen["large_feature"] = true
	}
	if cs.LinesRemoved > 100 && cs.LinesAdded < 20 {
		seen["large_refactor_or_removal"] = true
	}

	hints := make([]string, 0, len(seen))
	for h := range seen {
		hints = append(hints, h)
	}
	sort.Strings(hints)
	return hints
}
