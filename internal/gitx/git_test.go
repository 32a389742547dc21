package gitx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNameStatus(t *testing.T) {
	out := "M\tinternal/server.go\n" +
		"A\tdocs/guide.md\n" +
		"D\tlegacy/old.go\n" +
		"R100\tpkg/util.go\tinternal/util.go\n" +
		"C75\ttemplates/base.html\ttemplates/admin.html\n"

	records := ParseNameStatus(out)
	require.Len(t, records, 5)

	assert.Equal(t, ChangeRecord{Path: "internal/server.go", Status: StatusModified}, records[0])
	assert.Equal(t, ChangeRecord{Path: "docs/guide.md", Status: StatusAdded}, records[1])
	assert.Equal(t, ChangeRecord{Path: "legacy/old.go", Status: StatusDeleted}, records[2])
	assert.Equal(t, ChangeRecord{
		Path: "internal/util.go", OldPath: "pkg/util.go",
		Status: StatusRenamed, Similarity: 100,
	}, records[3])
	assert.Equal(t, ChangeRecord{
		Path: "templates/admin.html", OldPath: "templates/base.html",
		Status: StatusCopied, Similarity: 75,
	}, records[4])
}

func TestParseNameStatusSkipsGarbage(t *testing.T) {
	assert.Empty(t, ParseNameStatus(""))
	assert.Empty(t, ParseNameStatus("\n\n"))
	assert.Empty(t, ParseNameStatus("warning: something unrelated"))
}

func TestCountChangedLines(t *testing.T) {
	diff := "diff --git a/x.go b/x.go\n" +
		"--- a/x.go\n" +
		"+++ b/x.go\n" +
		"@@ -1,4 +1,5 @@\n" +
		" unchanged\n" +
		"-removed one\n" +
		"-removed two\n" +
		"+added one\n" +
		"+added two\n" +
		"+added three\n"

	added, removed := CountChangedLines(diff)
	assert.Equal(t, 3, added)
	assert.Equal(t, 2, removed)
}

func TestChangeSetTotalDeltaAndPaths(t *testing.T) {
	cs := &ChangeSet{
		Records: []ChangeRecord{
			{Path: "a.go", Status: StatusModified},
			{Path: "b.go", Status: StatusAdded},
		},
		LinesAdded:   10,
		LinesRemoved: 4,
	}
	assert.Equal(t, 14, cs.TotalDelta())
	assert.Equal(t, []string{"a.go", "b.go"}, cs.Paths())
}
