package diffstat

import (
	"strings"
	"testing"

	"github.com/panbanda/whoiswho/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classify runs ClassifyReader over diff text.
func classify(diff string) models.ChangeCounts {
	counts, err := ClassifyReader(strings.NewReader(diff))
	if err != nil {
		panic(err)
	}
	return counts
}

// diffOf joins lines into diff text with a trailing newline, like git prints it.
func diffOf(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// repeat returns n lines consisting of prefix followed by an index letter.
func repeat(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + string(rune('a'+i))
	}
	return out
}

func modifiedFile(path string, body ...string) []string {
	head := []string{
		"diff --git a/" + path + " b/" + path,
		"index 83db48f..bf269f4 100644",
		"--- a/" + path,
		"+++ b/" + path,
		"@@ -1,10 +1,10 @@",
	}
	return append(head, body...)
}

func TestClassify_RunPairing(t *testing.T) {
	tests := []struct {
		name string
		body []string
		want models.ChangeCounts
	}{
		{
			name: "equal runs are edits",
			body: append(repeat("-", 5), repeat("+", 5)...),
			want: models.ChangeCounts{FilesChanged: 1, LinesChanged: 5},
		},
		{
			name: "more additions than deletions",
			body: append(repeat("-", 3), repeat("+", 7)...),
			want: models.ChangeCounts{FilesChanged: 1, LinesChanged: 3, LinesAdded: 4},
		},
		{
			name: "more deletions than additions",
			body: append(repeat("-", 7), repeat("+", 3)...),
			want: models.ChangeCounts{FilesChanged: 1, LinesChanged: 3, LinesDeleted: 4},
		},
		{
			name: "context line separates runs",
			body: append(append(repeat("+", 2), " unchanged"), repeat("-", 2)...),
			want: models.ChangeCounts{FilesChanged: 1, LinesAdded: 2, LinesDeleted: 2},
		},
		{
			name: "blank line separates runs",
			body: append(append(repeat("-", 1), ""), repeat("+", 1)...),
			want: models.ChangeCounts{FilesChanged: 1, LinesAdded: 1, LinesDeleted: 1},
		},
		{
			name: "addition before deletion still pairs",
			body: []string{"+new", "-old"},
			want: models.ChangeCounts{FilesChanged: 1, LinesChanged: 1},
		},
		{
			name: "no newline marker separates runs",
			body: []string{"-old", `\ No newline at end of file`, "+new"},
			want: models.ChangeCounts{FilesChanged: 1, LinesAdded: 1, LinesDeleted: 1},
		},
		{
			name: "context only",
			body: []string{" a", " b"},
			want: models.ChangeCounts{FilesChanged: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(diffOf(modifiedFile("main.go", tt.body...)...))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_FileStatus(t *testing.T) {
	tests := []struct {
		name string
		diff string
		want models.ChangeCounts
	}{
		{
			name: "added file",
			diff: diffOf(
				"diff --git a/new.txt b/new.txt",
				"new file mode 100644",
				"index 0000000..3b18e51",
				"--- /dev/null",
				"+++ b/new.txt",
				"@@ -0,0 +1,3 @@",
				"+one",
				"+two",
				"+three",
			),
			want: models.ChangeCounts{FilesAdded: 1, LinesAdded: 3},
		},
		{
			name: "deleted file",
			diff: diffOf(
				"diff --git a/old.txt b/old.txt",
				"deleted file mode 100644",
				"index 3b18e51..0000000",
				"--- a/old.txt",
				"+++ /dev/null",
				"@@ -1,2 +0,0 @@",
				"-one",
				"-two",
			),
			want: models.ChangeCounts{FilesDeleted: 1, LinesDeleted: 2},
		},
		{
			name: "empty diff",
			diff: "",
			want: models.ChangeCounts{},
		},
		{
			name: "binary file has no headers",
			diff: diffOf(
				"diff --git a/logo.png b/logo.png",
				"index 1a2b3c4..5d6e7f8 100644",
				"Binary files a/logo.png and b/logo.png differ",
			),
			want: models.ChangeCounts{},
		},
		{
			name: "headers at end of input still count",
			diff: "--- a/x\n+++ b/x",
			want: models.ChangeCounts{FilesChanged: 1},
		},
		{
			name: "repeated old header does not overflow the state",
			diff: diffOf("--- a/x", "--- a/x", "+++ b/x", "@@ -1 +1 @@", "-a", "+b"),
			want: models.ChangeCounts{FilesChanged: 1, LinesChanged: 1},
		},
		{
			name: "crlf line endings",
			diff: "--- a/x\r\n+++ b/x\r\n@@ -1 +1 @@\r\n-a\r\n+b\r\n",
			want: models.ChangeCounts{FilesChanged: 1, LinesChanged: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.diff))
		})
	}
}

func TestClassify_MultipleFiles(t *testing.T) {
	var lines []string
	lines = append(lines, modifiedFile("a.go", "-x", "+y", " ctx", "+z")...)
	lines = append(lines,
		"diff --git a/b.go b/b.go",
		"new file mode 100644",
		"--- /dev/null",
		"+++ b/b.go",
		"@@ -0,0 +1,2 @@",
		"+package b",
		"+",
	)
	lines = append(lines,
		"diff --git a/c.go b/c.go",
		"deleted file mode 100644",
		"--- a/c.go",
		"+++ /dev/null",
		"@@ -1 +0,0 @@",
		"-package c",
	)
	lines = append(lines, modifiedFile("d.go", "-1", "-2", "-3", "+4")...)

	got := classify(diffOf(lines...))

	assert.Equal(t, 4, got.FilesAffected(), "one count per file block")
	assert.Equal(t, models.ChangeCounts{
		FilesAdded:   1,
		FilesDeleted: 1,
		FilesChanged: 2,
		LinesAdded:   3,
		LinesDeleted: 3,
		LinesChanged: 2,
	}, got)
}

func TestClassify_RunsDoNotSpanFiles(t *testing.T) {
	var lines []string
	lines = append(lines, modifiedFile("a.go", "-gone")...)
	lines = append(lines, modifiedFile("b.go", "+fresh")...)

	got := classify(diffOf(lines...))

	assert.Equal(t, models.ChangeCounts{FilesChanged: 2, LinesAdded: 1, LinesDeleted: 1}, got)
}

// Header detection is by prefix and ignores hunk boundaries, so a removed
// line whose text starts with "--" reads as an old file header.
func TestClassify_DeletedLineLooksLikeHeader(t *testing.T) {
	got := classify(diffOf(
		"diff --git a/q.sql b/q.sql",
		"--- a/q.sql",
		"+++ b/q.sql",
		"@@ -1,2 +1,1 @@",
		"--- old comment",
		" select 1;",
	))

	assert.Equal(t, models.ChangeCounts{FilesChanged: 1, FilesDeleted: 1}, got)
}

func TestClassifyReader_MatchesClassifier(t *testing.T) {
	diff := diffOf(modifiedFile("main.go", append(repeat("-", 3), repeat("+", 4)...)...)...)

	var c Classifier
	for line := range strings.SplitSeq(diff, "\n") {
		c.Line(line)
	}

	got, err := ClassifyReader(strings.NewReader(diff))
	require.NoError(t, err)
	assert.Equal(t, c.Counts(), got)

	crlf, err := ClassifyReader(strings.NewReader(strings.ReplaceAll(diff, "\n", "\r\n")))
	require.NoError(t, err)
	assert.Equal(t, got, crlf)
}

func TestClassifier_Incremental(t *testing.T) {
	var c Classifier
	for _, line := range []string{"--- /dev/null", "+++ b/f", "@@ -0,0 +1 @@", "+x"} {
		c.Line(line)
	}

	assert.Equal(t, models.ChangeCounts{FilesAdded: 1, LinesAdded: 1}, c.Counts())
	// Counts is idempotent once flushed.
	assert.Equal(t, models.ChangeCounts{FilesAdded: 1, LinesAdded: 1}, c.Counts())
}

func TestFileStatus_Transitions(t *testing.T) {
	assert.Equal(t, StatusDeleted, StatusNone.withOldSide())
	assert.Equal(t, StatusAdded, StatusNone.withNewSide())
	assert.Equal(t, StatusChanged, StatusDeleted.withNewSide())
	assert.Equal(t, StatusChanged, StatusAdded.withOldSide())
	assert.Equal(t, StatusDeleted, StatusDeleted.withOldSide())
	assert.Equal(t, StatusAdded, StatusAdded.withNewSide())
	assert.Equal(t, StatusChanged, StatusChanged.withOldSide())
	assert.Equal(t, StatusChanged, StatusChanged.withNewSide())

	assert.Equal(t, "none", StatusNone.String())
	assert.Equal(t, "deleted", StatusDeleted.String())
	assert.Equal(t, "added", StatusAdded.String())
	assert.Equal(t, "changed", StatusChanged.String())
}
