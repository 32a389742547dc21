package commitmsg

import (
	"fmt"
	"regexp"
	"strings"
)

// Message is a validated commit message. Violations holds any format
// problems that were tolerated (non-strict mode); a Message with
// violations is still best-effort usable.
type Message struct {
	Subject    string
	Body       []string
	Type       string
	Scope      string
	Violations []string
}

// String renders the message the way git expects it: subject, blank
// line, body.
func (m Message) String() string {
	if len(m.Body) == 0 {
		return m.Subject
	}
	return m.Subject + "\n\n" + strings.Join(m.Body, "\n")
}

// Options configure normalization. Zero values fall back to the
// conventional-commit defaults.
type Options struct {
	EnforceConventional bool
	Strict              bool
	MaxSubjectLength    int
	AllowedTypes        []string
}

// ParseError means no usable subject could be extracted at all. The
// caller is expected to offer regeneration.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse commit message: %s", e.Msg)
}

// FormatError is returned instead of plain violations when strict mode
// is on.
type FormatError struct {
	Violations []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("commit message format: %s", strings.Join(e.Violations, "; "))
}

var defaultAllowedTypes = []string{
	"feat", "fix", "docs", "style", "refactor", "perf",
	"test", "build", "ci", "chore", "revert",
}

var (
	fenceRe        = regexp.MustCompile("(?s)```[a-zA-Z]*\\n?(.*?)\\n?```")
	conventionalRe = regexp.MustCompile(`^([a-z]+)(?:\(([^)]+)\))?!?:\s*(.+)$`)
	labelRe        = regexp.MustCompile(`(?i)^(commit message|suggested commit(?: message)?|here(?:'s| is)(?: the| your)? commit message)\s*:?\s*`)
)

// Parse normalizes a raw model reply into a Message. It is a pure
// function: the same reply and options always yield the same Message or
// the same failure. Format problems are recorded as violations rather
// than failing, unless Strict is set.
func Parse(raw string, opts Options) (Message, error) {
	maxSubject := opts.MaxSubjectLength
	if maxSubject <= 0 {
		maxSubject = 70
	}
	allowed := opts.AllowedTypes
	if len(allowed) == 0 {
		allowed = defaultAllowedTypes
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return Message{}, &ParseError{Msg: "empty reply"}
	}
	text = stripFence(text)

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	subject, rest := splitSubject(lines)
	if subject == "" {
		return Message{}, &ParseError{Msg: "no usable subject line"}
	}

	var m Message
	m.Subject = subject
	m.Body = collapseBlankRuns(rest)

	if opts.EnforceConventional {
		if !m.applyConventional(allowed) {
			m.Violations = append(m.Violations, "subject does not follow conventional commit format")
		}
	} else if sm := conventionalRe.FindStringSubmatch(m.Subject); sm != nil {
		m.Type, m.Scope = sm[1], sm[2]
	}

	if len(m.Subject) > maxSubject {
		m.Violations = append(m.Violations,
			fmt.Sprintf("subject is too long (%d chars, max %d)", len(m.Subject), maxSubject))
	}

	if opts.Strict && len(m.Violations) > 0 {
		return m, &FormatError{Violations: m.Violations}
	}
	return m, nil
}

// stripFence unwraps a reply delivered inside a markdown code fence. Only
// a fence wrapping the whole reply counts: leading label-only lines are
// skipped, but once a plausible subject line appears the reply is taken
// verbatim, so a code block inside the body stays untouched.
func stripFence(text string) string {
	lines := strings.Split(text, "\n")
	start := 0
	for start < len(lines) {
		s := strings.TrimSpace(lines[start])
		if s != "" && strings.TrimSpace(labelRe.ReplaceAllString(s, "")) != "" {
			break
		}
		start++
	}
	if start >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[start]), "```") {
		return text
	}
	sm := fenceRe.FindStringSubmatch(strings.Join(lines[start:], "\n"))
	if sm == nil {
		return text
	}
	inner := strings.TrimSpace(sm[1])
	if inner == "" {
		return text
	}
	return inner
}

// splitSubject picks the first non-empty, non-label line as the subject
// and returns the remaining lines untouched.
func splitSubject(lines []string) (string, []string) {
	for i, ln := range lines {
		s := cleanSubjectLine(ln)
		if s == "" {
			continue
		}
		return s, lines[i+1:]
	}
	return "", nil
}

// cleanSubjectLine strips leading label artifacts ("Commit message:",
// quotes, bullets) the model may wrap around the subject.
func cleanSubjectLine(ln string) string {
	s := strings.TrimSpace(ln)
	s = labelRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"`", "`"}, {"**", "**"}} {
		if len(s) > len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			s = strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}

// collapseBlankRuns drops leading/trailing blank lines and squeezes runs
// of blank lines to one, preserving single blank separators and bullet
// markers.
func collapseBlankRuns(lines []string) []string {
	var out []string
	blank := true // swallow leading blanks
	for _, ln := range lines {
		ln = strings.TrimRight(ln, " \t")
		if strings.TrimSpace(ln) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, ln)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// applyConventional verifies type(scope)?: description, attempting one
// best-effort reconstruction when a known type keyword appears elsewhere
// in the subject. Returns false when the subject cannot be made
// conformant.
func (m *Message) applyConventional(allowed []string) bool {
	if sm := conventionalRe.FindStringSubmatch(m.Subject); sm != nil && isAllowedType(sm[1], allowed) {
		m.Type, m.Scope = sm[1], sm[2]
		return true
	}

	tokens := strings.Fields(m.Subject)
	for i, tok := range tokens {
		word := strings.ToLower(strings.Trim(tok, `.,:;!"'()`+"`"))
		if !isAllowedType(word, allowed) {
			continue
		}
		rest := strings.Join(append(append([]string{}, tokens[:i]...), tokens[i+1:]...), " ")
		rest = strings.TrimSpace(strings.TrimLeft(rest, ":- "))
		if rest == "" {
			return false
		}
		m.Subject = word + ": " + rest
		m.Type = word
		return true
	}
	return false
}

func isAllowedType(t string, allowed []string) bool {
	for _, a := range allowed {
		if t == a {
			return true
		}
	}
	return false
}
