package models

// ChangeCounts holds the file- and line-level deltas of one or more commits.
type ChangeCounts struct {
	FilesAdded   int `json:"files_added" yaml:"files_added"`
	FilesDeleted int `json:"files_deleted" yaml:"files_deleted"`
	FilesChanged int `json:"files_changed" yaml:"files_changed"`
	LinesAdded   int `json:"lines_added" yaml:"lines_added"`
	LinesDeleted int `json:"lines_deleted" yaml:"lines_deleted"`
	LinesChanged int `json:"lines_changed" yaml:"lines_changed"`
}

// Add accumulates other into c.
func (c *ChangeCounts) Add(other ChangeCounts) {
	c.FilesAdded += other.FilesAdded
	c.FilesDeleted += other.FilesDeleted
	c.FilesChanged += other.FilesChanged
	c.LinesAdded += other.LinesAdded
	c.LinesDeleted += other.LinesDeleted
	c.LinesChanged += other.LinesChanged
}

// FilesAffected is the number of files touched in any way.
func (c ChangeCounts) FilesAffected() int {
	return c.FilesAdded + c.FilesDeleted + c.FilesChanged
}

// LinesAffected is the number of lines touched in any way.
func (c ChangeCounts) LinesAffected() int {
	return c.LinesAdded + c.LinesDeleted + c.LinesChanged
}

// IsZero reports whether no change was recorded.
func (c ChangeCounts) IsZero() bool {
	return c == ChangeCounts{}
}
