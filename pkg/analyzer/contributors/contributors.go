// Package contributors groups classified commits by author identity and
// derives per-author statistics.
package contributors

import (
	"errors"

	"github.com/panbanda/whoiswho/pkg/models"
)

var (
	// ErrUnknownSortField is returned for a sort field that does not exist.
	ErrUnknownSortField = errors.New("unknown sort field")
	// ErrUnknownKeyMode is returned for an unrecognized identity key mode.
	ErrUnknownKeyMode = errors.New("unknown identity mode")
)

// Aggregator owns the identity-keyed author mapping for one run.
type Aggregator struct {
	mode     KeyMode
	index    map[string]int
	profiles []*Profile
}

// Option is a functional option for configuring Aggregator.
type Option func(*Aggregator)

// WithKeyMode sets how author identities are keyed.
func WithKeyMode(mode KeyMode) Option {
	return func(a *Aggregator) {
		if mode != "" {
			a.mode = mode
		}
	}
}

// New creates an empty aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		mode:  KeyNameEmail,
		index: make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add appends a commit to the profile of its author, creating the profile
// on first sight.
func (a *Aggregator) Add(rec *models.CommitRecord) {
	key := a.mode.key(rec.Author)
	idx, ok := a.index[key]
	if !ok {
		idx = len(a.profiles)
		a.index[key] = idx
		a.profiles = append(a.profiles, &Profile{Identity: rec.Author, Index: idx})
	}
	p := a.profiles[idx]
	p.Commits = append(p.Commits, rec)
}

// Aggregate computes the derived fields of every profile and returns them in
// arrival order. Call it once all commits have been added.
func (a *Aggregator) Aggregate() []*Profile {
	for _, p := range a.profiles {
		p.aggregate()
	}
	return a.Profiles()
}

// Profiles returns a copy of the profile list in arrival order.
func (a *Aggregator) Profiles() []*Profile {
	out := make([]*Profile, len(a.profiles))
	copy(out, a.profiles)
	return out
}

// Lookup returns the profile for an identity.
func (a *Aggregator) Lookup(id models.Identity) (*Profile, bool) {
	idx, ok := a.index[a.mode.key(id)]
	if !ok {
		return nil, false
	}
	return a.profiles[idx], true
}

// Len returns the number of distinct authors.
func (a *Aggregator) Len() int {
	return len(a.profiles)
}

// Span returns the earliest and latest commit time over all profiles.
// ok is false when no commit was added.
func Span(profiles []*Profile) (first, last int64, ok bool) {
	for _, p := range profiles {
		if p.CommitCount == 0 {
			continue
		}
		if !ok {
			first, last, ok = p.FirstActivity, p.LastActivity, true
			continue
		}
		first = min(first, p.FirstActivity)
		last = max(last, p.LastActivity)
	}
	return first, last, ok
}
