// Package diffstat classifies the unified diff of a single commit into
// file- and line-level change counts.
//
// Lines are paired into edits rather than counted independently: a run of
// deleted lines directly followed by a run of added lines is an edited block,
// and only the difference in run sizes counts as a net insertion or deletion.
package diffstat

import (
	"bufio"
	"io"
	"strings"

	"github.com/panbanda/whoiswho/pkg/models"
)

// NullDevice is the path git uses for the missing side of an added or deleted file.
const NullDevice = "/dev/null"

const (
	oldFileHeader = "---"
	newFileHeader = "+++"
)

// maxLineSize bounds a single diff line; minified sources can be very long.
const maxLineSize = 64 * 1024 * 1024

// FileStatus is the state of the file header currently being read.
type FileStatus int

const (
	StatusNone FileStatus = iota
	StatusDeleted
	StatusAdded
	StatusChanged
)

func (s FileStatus) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusAdded:
		return "added"
	case StatusChanged:
		return "changed"
	default:
		return "none"
	}
}

// withOldSide records an "old file" header that names a real path.
// A repeated old header leaves the state unchanged.
func (s FileStatus) withOldSide() FileStatus {
	switch s {
	case StatusNone:
		return StatusDeleted
	case StatusAdded:
		return StatusChanged
	default:
		return s
	}
}

// withNewSide records a "new file" header that names a real path.
func (s FileStatus) withNewSide() FileStatus {
	switch s {
	case StatusNone:
		return StatusAdded
	case StatusDeleted:
		return StatusChanged
	default:
		return s
	}
}

// Classifier accumulates counts line by line. The zero value is ready to use.
type Classifier struct {
	counts  models.ChangeCounts
	status  FileStatus
	added   int
	deleted int
}

// Line feeds one diff line, without its trailing newline.
func (c *Classifier) Line(line string) {
	switch {
	case strings.HasPrefix(line, oldFileHeader):
		if !strings.Contains(line, NullDevice) {
			c.status = c.status.withOldSide()
		}
		return
	case strings.HasPrefix(line, newFileHeader):
		if !strings.Contains(line, NullDevice) {
			c.status = c.status.withNewSide()
		}
		return
	}

	if c.status != StatusNone {
		c.commitFile()
		c.flush()
	}

	switch {
	case strings.HasPrefix(line, "-"):
		c.deleted++
	case strings.HasPrefix(line, "+"):
		c.added++
	default:
		c.flush()
	}
}

// Counts flushes pending state and returns the totals seen so far.
func (c *Classifier) Counts() models.ChangeCounts {
	if c.status != StatusNone {
		c.commitFile()
	}
	c.flush()
	return c.counts
}

func (c *Classifier) commitFile() {
	switch c.status {
	case StatusDeleted:
		c.counts.FilesDeleted++
	case StatusAdded:
		c.counts.FilesAdded++
	case StatusChanged:
		c.counts.FilesChanged++
	}
	c.status = StatusNone
}

// flush pairs the pending added and deleted runs.
func (c *Classifier) flush() {
	if c.added == 0 && c.deleted == 0 {
		return
	}
	c.counts.LinesChanged += min(c.added, c.deleted)
	if c.added > c.deleted {
		c.counts.LinesAdded += c.added - c.deleted
	} else {
		c.counts.LinesDeleted += c.deleted - c.added
	}
	c.added, c.deleted = 0, 0
}

// ClassifyReader returns the change counts of the unified diff read from r.
// Read errors, including decode failures, are returned with zero counts.
func ClassifyReader(r io.Reader) (models.ChangeCounts, error) {
	var c Classifier
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		c.Line(strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return models.ChangeCounts{}, err
	}
	return c.Counts(), nil
}
