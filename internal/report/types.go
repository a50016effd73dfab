package report

// Metadata identifies the analyzed repository and run.
type Metadata struct {
	Repository  string `json:"repository" yaml:"repository"`
	Ref         string `json:"ref,omitempty" yaml:"ref,omitempty"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	SortBy      string `json:"sort_by" yaml:"sort_by"`
	Descending  bool   `json:"descending" yaml:"descending"`
	Identity    string `json:"identity" yaml:"identity"`
}

// Counts are file and line deltas.
type Counts struct {
	FilesAdded   int `json:"files_added" yaml:"files_added"`
	FilesDeleted int `json:"files_deleted" yaml:"files_deleted"`
	FilesChanged int `json:"files_changed" yaml:"files_changed"`
	LinesAdded   int `json:"lines_added" yaml:"lines_added"`
	LinesDeleted int `json:"lines_deleted" yaml:"lines_deleted"`
	LinesChanged int `json:"lines_changed" yaml:"lines_changed"`
}

// Author is one row of the author statistics.
type Author struct {
	Name         string  `json:"name" yaml:"name"`
	Email        string  `json:"email" yaml:"email"`
	Commits      int     `json:"commits" yaml:"commits"`
	Counts       Counts  `json:"changes" yaml:"changes"`
	FirstCommit  string  `json:"first_commit" yaml:"first_commit"`
	LastCommit   string  `json:"last_commit" yaml:"last_commit"`
	TenureMonths float64 `json:"tenure_months" yaml:"tenure_months"`
}

// Tenure summarizes tenure over all authors, in months of 30.5 days.
type Tenure struct {
	Authors int     `json:"authors" yaml:"authors"`
	Mean    float64 `json:"mean_months" yaml:"mean_months"`
	StdDev  float64 `json:"stddev_months" yaml:"stddev_months"`
	Max     float64 `json:"max_months" yaml:"max_months"`
}

// Event is one displayed timeline bucket.
type Event struct {
	From            string   `json:"from" yaml:"from"`
	To              string   `json:"to" yaml:"to"`
	HeadcountBefore int      `json:"headcount_before" yaml:"headcount_before"`
	Joined          int      `json:"joined" yaml:"joined"`
	Left            int      `json:"left" yaml:"left"`
	HeadcountAfter  int      `json:"headcount_after" yaml:"headcount_after"`
	FirstCommit     []string `json:"first_commit,omitempty" yaml:"first_commit,omitempty"`
	LastCommit      []string `json:"last_commit,omitempty" yaml:"last_commit,omitempty"`
}

// Timeline is the headcount timeline.
type Timeline struct {
	FirstCommit       string   `json:"first_commit,omitempty" yaml:"first_commit,omitempty"`
	LastCommit        string   `json:"last_commit,omitempty" yaml:"last_commit,omitempty"`
	ResolutionSeconds int64    `json:"resolution_seconds" yaml:"resolution_seconds"`
	Buckets           int      `json:"buckets" yaml:"buckets"`
	Events            []Event  `json:"events" yaml:"events"`
	Active            []string `json:"active" yaml:"active"`
}

// Data is the serializable form of a contributor report.
type Data struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Commits  int      `json:"commits" yaml:"commits"`
	Degraded int      `json:"degraded" yaml:"degraded"`
	Totals   Counts   `json:"totals" yaml:"totals"`
	Authors  []Author `json:"authors" yaml:"authors"`
	Tenure   Tenure   `json:"tenure" yaml:"tenure"`
	Timeline Timeline `json:"timeline" yaml:"timeline"`
}
