package timeline

import (
	"time"

	"github.com/panbanda/whoiswho/pkg/analyzer/contributors"
)

// Bucket is one fixed-width time window and the authors whose first or last
// known commit falls inside it. Profiles are referenced, not owned.
type Bucket struct {
	Index int
	// Start and End are the nominal bounds in epoch seconds; End is exclusive.
	Start int64
	End   int64

	Joined []*contributors.Profile
	Left   []*contributors.Profile
}

// HasEvents reports whether any author joined or left in the bucket.
func (b *Bucket) HasEvents() bool {
	return len(b.Joined) > 0 || len(b.Left) > 0
}

// Entry is the displayed summary of a bucket that carries events.
type Entry struct {
	Index int `json:"index" yaml:"index"`
	// From and To are the displayed bounds. From continues from the previous
	// displayed entry so skipped buckets leave no gap; To is clamped to the
	// last commit time.
	From time.Time `json:"from" yaml:"from"`
	To   time.Time `json:"to" yaml:"to"`

	HeadcountBefore int `json:"headcount_before" yaml:"headcount_before"`
	Joined          int `json:"joined" yaml:"joined"`
	Left            int `json:"left" yaml:"left"`
	HeadcountAfter  int `json:"headcount_after" yaml:"headcount_after"`

	Joiners []string `json:"joiners,omitempty" yaml:"joiners,omitempty"`
	Leavers []string `json:"leavers,omitempty" yaml:"leavers,omitempty"`

	// Final marks the last bucket, where departures are not recorded.
	Final bool `json:"final,omitempty" yaml:"final,omitempty"`
}

// Report is the reconstructed headcount timeline.
type Report struct {
	First       time.Time     `json:"first_commit" yaml:"first_commit"`
	Last        time.Time     `json:"last_commit" yaml:"last_commit"`
	Resolution  time.Duration `json:"resolution" yaml:"resolution"`
	BucketCount int           `json:"bucket_count" yaml:"bucket_count"`

	Entries []Entry `json:"entries" yaml:"entries"`
	// Headcounts holds the headcount after every bucket, including the
	// buckets that are not displayed.
	Headcounts []int `json:"headcounts" yaml:"headcounts"`
	// Active lists the display names of the authors still active after the
	// final bucket.
	Active []string `json:"active" yaml:"active"`

	buckets []Bucket
	active  []*contributors.Profile
}

// Buckets returns every bucket in index order.
func (r *Report) Buckets() []Bucket {
	return r.buckets
}

// ActiveProfiles returns the currently active authors in arrival order.
func (r *Report) ActiveProfiles() []*contributors.Profile {
	return r.active
}

// JoinedTotal returns the number of join events over all buckets.
func (r *Report) JoinedTotal() int {
	total := 0
	for _, e := range r.Entries {
		total += e.Joined
	}
	return total
}

// Empty reports whether the timeline has no buckets.
func (r *Report) Empty() bool {
	return r.BucketCount == 0
}
