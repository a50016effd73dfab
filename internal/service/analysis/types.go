package analysis

import (
	"time"

	"github.com/panbanda/whoiswho/pkg/analyzer/contributors"
	"github.com/panbanda/whoiswho/pkg/analyzer/timeline"
	"github.com/panbanda/whoiswho/pkg/models"
)

// Result is the outcome of one analysis run.
type Result struct {
	Repository  string    `json:"repository" yaml:"repository"`
	Ref         string    `json:"ref,omitempty" yaml:"ref,omitempty"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	// Fingerprint is a digest of the inputs and aggregates. Two runs over the
	// same history with the same settings produce the same fingerprint.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`

	SortBy     contributors.SortField `json:"sort_by" yaml:"sort_by"`
	Descending bool                   `json:"descending" yaml:"descending"`
	Identity   contributors.KeyMode   `json:"identity" yaml:"identity"`

	Commits  int `json:"commits" yaml:"commits"`
	Degraded int `json:"degraded" yaml:"degraded"`

	Totals  models.ChangeCounts      `json:"totals" yaml:"totals"`
	Authors []*contributors.Profile  `json:"authors" yaml:"authors"`
	Tenure  contributors.TenureStats `json:"tenure" yaml:"tenure"`

	Timeline *timeline.Report `json:"timeline" yaml:"timeline"`

	// Records holds every classified commit in history order.
	Records []models.CommitRecord `json:"-" yaml:"-"`
}

// Empty reports whether the history had no commits.
func (r *Result) Empty() bool {
	return r.Commits == 0
}
