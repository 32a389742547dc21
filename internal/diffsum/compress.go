package diffsum

import (
	"fmt"
	"strings"

	"github.com/rozeraf/autocommit/internal/gitx"
)

// Payload is the diff body destined for the prompt, plus the degradation
// facts downstream consumers need. Truncation is recorded, never silent.
type Payload struct {
	Body         string
	Elided       bool
	Truncated    bool
	DroppedFiles int
}

func (p Payload) Size() int { return len(p.Body) }

// CompressOptions bound the payload. Budget is the provider's context
// limit minus the reserve, in characters. Window is how many unchanged
// context lines survive around each changed line once elision kicks in.
type CompressOptions struct {
	Budget   int
	Window   int
	MaxFiles int
}

const (
	DefaultWindow   = 3
	DefaultMaxFiles = 10
	DefaultBudget   = 7500
)

const (
	elisionMarkerFmt    = "[elided %d unchanged lines]"
	truncationMarkerFmt = "[truncated %s: %d lines omitted]"
	droppedMarkerFmt    = "[dropped %d lower-priority files: %s]"
	overflowMarkerFmt   = "\n[truncated: %d bytes omitted]"
)

// Compress fits the change-set's diff into opts.Budget. A diff that
// already fits passes through byte-for-byte, which also makes the
// function idempotent: compressed output always fits its own budget.
// Reductions apply in order: drop whole files beyond the per-file cap
// (lowest-scored first), elide unchanged context beyond the window,
// then truncate the least-significant remaining files. Every reduction
// leaves a machine-parseable marker behind.
func Compress(cs *gitx.ChangeSet, summaries []FileSummary, opts CompressOptions) Payload {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	budget := opts.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}

	if len(cs.Diff) <= budget {
		return Payload{Body: cs.Diff}
	}

	byPath := make(map[string]gitx.ChangeRecord, len(cs.Records))
	for _, rec := range cs.Records {
		byPath[rec.Path] = rec
	}

	kept := summaries
	var droppedPaths []string
	if len(kept) > maxFiles {
		for _, s := range kept[maxFiles:] {
			droppedPaths = append(droppedPaths, s.Path)
		}
		kept = kept[:maxFiles]
	}

	var p Payload
	parts := make([]string, 0, len(kept)+1)
	for _, s := range kept {
		part, elided := elideHunks(strings.TrimRight(byPath[s.Path].Diff, "\n"), window)
		if elided {
			p.Elided = true
		}
		parts = append(parts, part)
	}
	if len(droppedPaths) > 0 {
		p.DroppedFiles = len(droppedPaths)
		p.Truncated = true
		parts = append(parts, fmt.Sprintf(droppedMarkerFmt, len(droppedPaths), strings.Join(droppedPaths, ", ")))
	}

	body := strings.Join(parts, "\n")

	// Still over: truncate kept files starting from the least significant.
	for i := len(kept) - 1; i >= 0 && len(body) > budget; i-- {
		allowed := len(parts[i]) - (len(body) - budget)
		reduced, omitted := truncatePart(kept[i].Path, parts[i], allowed)
		if omitted > 0 {
			p.Truncated = true
			parts[i] = reduced
			body = strings.Join(parts, "\n")
		}
	}

	if len(body) > budget {
		body = hardTruncate(body, budget)
		p.Truncated = true
	}
	p.Body = body
	return p
}

// elideHunks replaces unchanged context lines beyond the window around
// each changed line with an elision marker carrying the omitted count.
func elideHunks(diff string, window int) (string, bool) {
	lines := strings.Split(diff, "\n")
	out := make([]string, 0, len(lines))
	elided := false

	i := 0
	for i < len(lines) {
		ln := lines[i]
		if !strings.HasPrefix(ln, "@@") {
			out = append(out, ln)
			i++
			continue
		}
		j := i + 1
		for j < len(lines) && isHunkBody(lines[j]) {
			j++
		}
		compact, did := elideHunkBody(lines[i+1:j], window)
		out = append(out, ln)
		out = append(out, compact...)
		if did {
			elided = true
		}
		i = j
	}
	return strings.Join(out, "\n"), elided
}

func isHunkBody(ln string) bool {
	if ln == "" {
		return true
	}
	switch ln[0] {
	case '+', '-', ' ', '\\':
		return true
	}
	return false
}

func elideHunkBody(body []string, window int) ([]string, bool) {
	keep := make([]bool, len(body))
	for i, ln := range body {
		if strings.HasPrefix(ln, "+") || strings.HasPrefix(ln, "-") {
			lo := i - window
			if lo < 0 {
				lo = 0
			}
			hi := i + window
			if hi >= len(body) {
				hi = len(body) - 1
			}
			for j := lo; j <= hi; j++ {
				keep[j] = true
			}
		} else if strings.HasPrefix(ln, "\\") {
			keep[i] = true
		}
	}

	out := make([]string, 0, len(body))
	elided := false
	i := 0
	for i < len(body) {
		if keep[i] {
			out = append(out, body[i])
			i++
			continue
		}
		j := i
		for j < len(body) && !keep[j] {
			j++
		}
		run := j - i
		if run < 2 {
			// A one-line marker is longer than the line it replaces.
			out = append(out, body[i:j]...)
		} else {
			out = append(out, fmt.Sprintf(elisionMarkerFmt, run))
			elided = true
		}
		i = j
	}
	return out, elided
}

// truncatePart cuts a file's diff down to allowed bytes, keeping the head
// and appending a truncation marker with the omitted line count.
func truncatePart(path, part string, allowed int) (string, int) {
	if len(part) <= allowed {
		return part, 0
	}
	lines := strings.Split(part, "\n")
	worstMarker := fmt.Sprintf(truncationMarkerFmt, path, len(lines))
	if allowed <= len(worstMarker) {
		return fmt.Sprintf(truncationMarkerFmt, path, len(lines)), len(lines)
	}

	size := 0
	for i, ln := range lines {
		if size+len(ln)+1+len(worstMarker) > allowed {
			omitted := len(lines) - i
			head := strings.Join(lines[:i], "\n")
			if head != "" {
				head += "\n"
			}
			return head + fmt.Sprintf(truncationMarkerFmt, path, omitted), omitted
		}
		size += len(ln) + 1
	}
	return part, 0
}

// hardTruncate is the last resort for a body that could not be reduced
// below budget any other way (a single enormous file). The marker is
// sized against the full body length so the result never exceeds budget.
func hardTruncate(body string, budget int) string {
	reserve := len(fmt.Sprintf(overflowMarkerFmt, len(body)))
	keep := budget - reserve
	if keep < 0 {
		keep = 0
	}
	out := body[:keep] + fmt.Sprintf(overflowMarkerFmt, len(body)-keep)
	if len(out) > budget {
		out = out[:budget]
	}
	return out
}
