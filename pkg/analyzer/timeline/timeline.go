// Package timeline buckets author activity windows into fixed time windows
// and reconstructs the headcount of active authors over time.
//
// An author joins in the bucket holding their first commit and leaves in the
// bucket holding their last one. Departures in the final bucket are not
// recorded: there is no later evidence that those authors stopped.
package timeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/whoiswho/pkg/analyzer/contributors"
)

// DefaultResolution is four months of 30.5 days.
const DefaultResolution = 4 * contributors.Month

// MaxBuckets bounds the bucket array.
const MaxBuckets = 1 << 20

var (
	// ErrInvalidResolution is returned for resolutions below one second or
	// not a whole number of seconds.
	ErrInvalidResolution = errors.New("resolution must be a whole number of seconds, at least one")
	// ErrTooManyBuckets is returned when the history spans too many buckets.
	ErrTooManyBuckets = errors.New("too many timeline buckets")
)

// Builder reconstructs a headcount timeline.
type Builder struct {
	resolution time.Duration
}

// New creates a builder with the given bucket width.
func New(resolution time.Duration) (*Builder, error) {
	if resolution < time.Second || resolution%time.Second != 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResolution, resolution)
	}
	return &Builder{resolution: resolution}, nil
}

// Resolution returns the bucket width.
func (b *Builder) Resolution() time.Duration {
	return b.resolution
}

// step returns the bucket width in whole seconds.
func (b *Builder) step() int64 {
	return int64(b.resolution / time.Second)
}

// BucketIndex returns the bucket holding t for a history starting at first.
func (b *Builder) BucketIndex(t, first int64) int {
	return int((t - first) / b.step())
}

// BuildProfiles builds the timeline over the span of the profiles' own activity.
func (b *Builder) BuildProfiles(profiles []*contributors.Profile) (*Report, error) {
	first, last, ok := contributors.Span(profiles)
	if !ok {
		return b.Build(nil, 0, 0)
	}
	return b.Build(profiles, first, last)
}

// Build buckets the profiles over [first, last] and replays the headcount.
// Profiles must be the complete aggregated set, in any order; their Index
// values identify arrival order.
func (b *Builder) Build(profiles []*contributors.Profile, first, last int64) (*Report, error) {
	report := &Report{
		Resolution: b.resolution,
		Entries:    []Entry{},
		Headcounts: []int{},
		Active:     []string{},
	}
	if len(profiles) == 0 {
		return report, nil
	}
	if last < first {
		return nil, fmt.Errorf("last commit %d precedes first commit %d", last, first)
	}

	step := b.step()
	span := (last - first) / step
	if span >= MaxBuckets {
		return nil, fmt.Errorf("%w: %d buckets of %s", ErrTooManyBuckets, span+1, b.resolution)
	}
	count := int(span) + 1

	buckets := make([]Bucket, count)
	for i := range buckets {
		buckets[i] = Bucket{
			Index: i,
			Start: first + int64(i)*step,
			End:   first + int64(i+1)*step,
		}
	}
	// Registration follows arrival order so every name list is stable.
	byIndex := make([]*contributors.Profile, len(profiles))
	for _, p := range profiles {
		if p.Index < 0 || p.Index >= len(profiles) || byIndex[p.Index] != nil {
			return nil, fmt.Errorf("profile %q has invalid index %d", p.DisplayName(), p.Index)
		}
		byIndex[p.Index] = p
	}
	for _, p := range byIndex {
		if p.FirstActivity < first || p.LastActivity > last {
			return nil, fmt.Errorf("author %q active outside [%d, %d]", p.DisplayName(), first, last)
		}
		join := b.BucketIndex(p.FirstActivity, first)
		leave := b.BucketIndex(p.LastActivity, first)
		buckets[join].Joined = append(buckets[join].Joined, p)
		buckets[leave].Left = append(buckets[leave].Left, p)
	}

	report.First = time.Unix(first, 0).UTC()
	report.Last = time.Unix(last, 0).UTC()
	report.BucketCount = count
	report.buckets = buckets
	report.Headcounts = make([]int, 0, count)

	active := roaring.New()
	headcount := 0
	from, to := first, first

	for i := range buckets {
		bucket := &buckets[i]
		final := i == count-1

		to = min(to+step, last)

		joined := len(bucket.Joined)
		left := len(bucket.Left)
		if final {
			left = 0
		}

		for _, p := range bucket.Joined {
			active.Add(uint32(p.Index))
		}
		if !final {
			for _, p := range bucket.Left {
				active.Remove(uint32(p.Index))
			}
		}

		before := headcount
		headcount = before + joined - left
		report.Headcounts = append(report.Headcounts, headcount)

		if !bucket.HasEvents() {
			continue
		}

		entry := Entry{
			Index:           i,
			From:            time.Unix(from, 0).UTC(),
			To:              time.Unix(to, 0).UTC(),
			HeadcountBefore: before,
			Joined:          joined,
			Left:            left,
			HeadcountAfter:  headcount,
			Joiners:         displayNames(bucket.Joined),
			Final:           final,
		}
		if !final {
			entry.Leavers = displayNames(bucket.Left)
		}
		report.Entries = append(report.Entries, entry)
		from = to
	}

	it := active.Iterator()
	for it.HasNext() {
		p := byIndex[it.Next()]
		report.active = append(report.active, p)
		report.Active = append(report.Active, p.DisplayName())
	}

	return report, nil
}

func displayNames(profiles []*contributors.Profile) []string {
	if len(profiles) == 0 {
		return nil
	}
	out := make([]string, len(profiles))
	for i, p := range profiles {
		out[i] = p.DisplayName()
	}
	return out
}
