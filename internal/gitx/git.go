package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Status classifies how a staged path changed.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
	StatusRenamed  Status = "renamed"
	StatusCopied   Status = "copied"
)

// ChangeRecord is one staged path. Similarity is the rename/copy score
// (0-100) reported by git, zero otherwise. Diff holds the per-file unified diff.
type ChangeRecord struct {
	Path       string
	OldPath    string
	Status     Status
	Similarity int
	Diff       string
}

// ChangeSet is the full staged diff for one invocation. It is built once
// and never mutated afterwards.
type ChangeSet struct {
	Records      []ChangeRecord
	Diff         string
	LinesAdded   int
	LinesRemoved int
}

// TotalDelta is the aggregate changed-line count context rules match against.
func (cs *ChangeSet) TotalDelta() int {
	return cs.LinesAdded + cs.LinesRemoved
}

func (cs *ChangeSet) Paths() []string {
	out := make([]string, 0, len(cs.Records))
	for _, r := range cs.Records {
		out = append(out, r.Path)
	}
	return out
}

func Git(ctx context.Context, repoRoot string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoRoot}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %v failed: %v\n%s", args, err, stderr.String())
	}
	return stdout.String(), nil
}

// StagedChangeSet snapshots the staged diff: one record per path with its
// status and per-file diff, plus the combined diff text and line counts.
func StagedChangeSet(ctx context.Context, repoRoot string) (*ChangeSet, error) {
	statusOut, err := Git(ctx, repoRoot, "diff", "--staged", "--name-status", "-M", "-C")
	if err != nil {
		return nil, err
	}
	records := ParseNameStatus(statusOut)
	if len(records) == 0 {
		return nil, fmt.Errorf("no staged changes. Run: git add -A")
	}

	full, err := Git(ctx, repoRoot, "diff", "--staged", "-M", "-C")
	if err != nil {
		return nil, err
	}

	for i := range records {
		diff, _ := Git(ctx, repoRoot, "diff", "--staged", "-M", "-C", "--", records[i].Path)
		records[i].Diff = diff
	}

	added, removed := CountChangedLines(full)
	return &ChangeSet{
		Records:      records,
		Diff:         full,
		LinesAdded:   added,
		LinesRemoved: removed,
	}, nil
}

// ParseNameStatus parses `git diff --name-status` output. Rename and copy
// entries carry a similarity score and two paths (old TAB new).
func ParseNameStatus(out string) []ChangeRecord {
	var records []ChangeRecord
	for _, ln := range splitNonEmptyLines(out) {
		fields := strings.Split(ln, "\t")
		if len(fields) < 2 || fields[0] == "" {
			continue
		}
		code := fields[0]
		rec := ChangeRecord{Path: fields[1]}
		switch code[0] {
		case 'A':
			rec.Status = StatusAdded
		case 'D':
			rec.Status = StatusDeleted
		case 'R', 'C':
			if code[0] == 'R' {
				rec.Status = StatusRenamed
			} else {
				rec.Status = StatusCopied
			}
			if n, err := strconv.Atoi(code[1:]); err == nil {
				rec.Similarity = n
			}
			if len(fields) >= 3 {
				rec.OldPath = fields[1]
				rec.Path = fields[2]
			}
		default:
			rec.Status = StatusModified
		}
		records = append(records, rec)
	}
	return records
}

// CountChangedLines counts +/- lines in a unified diff, skipping the
// ---/+++ file headers.
func CountChangedLines(diff string) (added, removed int) {
	for _, ln := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(ln, "+++"), strings.HasPrefix(ln, "---"):
		case strings.HasPrefix(ln, "+"):
			added++
		case strings.HasPrefix(ln, "-"):
			removed++
		}
	}
	return added, removed
}

func CurrentBranch(ctx context.Context, repoRoot string) (string, error) {
	out, err := Git(ctx, repoRoot, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func RecentCommits(ctx context.Context, repoRoot string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	out, err := Git(ctx, repoRoot, "log", fmt.Sprintf("-n%d", n), "--pretty=format:%s")
	if err != nil {
		return nil, err
	}
	return splitNonEmptyLines(out), nil
}

func Commit(ctx context.Context, repoRoot, message string) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return fmt.Errorf("commit message cannot be empty")
	}
	_, err := Git(ctx, repoRoot, "commit", "-m", msg)
	return err
}

func splitNonEmptyLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}
