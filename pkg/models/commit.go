package models

import (
	"strings"
	"time"
)

// Identity identifies a commit author.
type Identity struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// DisplayName returns the trimmed author name, or the email when the name is blank.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.Name)
	if name == "" {
		return i.Email
	}
	return name
}

// CommitRecord is one commit of the analyzed history together with the
// deltas its diff produced.
type CommitRecord struct {
	Hash   string   `json:"hash" yaml:"hash"`
	Author Identity `json:"author" yaml:"author"`
	// Time is the commit timestamp in epoch seconds.
	Time int64 `json:"time" yaml:"time"`

	ChangeCounts `yaml:",inline"`

	// Degraded is set when the diff could not be retrieved or decoded and
	// the counts were left at zero.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// When returns the commit timestamp as a UTC time.
func (r *CommitRecord) When() time.Time {
	return time.Unix(r.Time, 0).UTC()
}
