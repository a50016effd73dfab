package contributors

import (
	"fmt"
	"time"

	"github.com/panbanda/whoiswho/pkg/models"
)

// Profile is the aggregated activity of one author identity.
type Profile struct {
	Identity models.Identity `json:"identity" yaml:"identity"`
	// Index is the position of the profile in arrival order.
	Index int `json:"-" yaml:"-"`

	Commits []*models.CommitRecord `json:"-" yaml:"-"`

	models.ChangeCounts `yaml:",inline"`

	CommitCount   int   `json:"commits" yaml:"commits"`
	FirstActivity int64 `json:"first_activity" yaml:"first_activity"`
	LastActivity  int64 `json:"last_activity" yaml:"last_activity"`
	// Tenure is LastActivity - FirstActivity in seconds.
	Tenure int64 `json:"tenure_seconds" yaml:"tenure_seconds"`
}

// DisplayName returns the name used in reports.
func (p *Profile) DisplayName() string {
	return p.Identity.DisplayName()
}

// TenureDuration returns the tenure as a time.Duration.
func (p *Profile) TenureDuration() time.Duration {
	return time.Duration(p.Tenure) * time.Second
}

// FirstTime returns the first activity as a UTC time.
func (p *Profile) FirstTime() time.Time {
	return time.Unix(p.FirstActivity, 0).UTC()
}

// LastTime returns the last activity as a UTC time.
func (p *Profile) LastTime() time.Time {
	return time.Unix(p.LastActivity, 0).UTC()
}

// aggregate recomputes the derived fields from the member commits.
func (p *Profile) aggregate() {
	p.ChangeCounts = models.ChangeCounts{}
	p.CommitCount = len(p.Commits)
	p.FirstActivity, p.LastActivity, p.Tenure = 0, 0, 0
	if len(p.Commits) == 0 {
		return
	}

	p.FirstActivity = p.Commits[0].Time
	p.LastActivity = p.Commits[0].Time
	for _, c := range p.Commits {
		p.ChangeCounts.Add(c.ChangeCounts)
		p.FirstActivity = min(p.FirstActivity, c.Time)
		p.LastActivity = max(p.LastActivity, c.Time)
	}
	p.Tenure = p.LastActivity - p.FirstActivity
}

// KeyMode selects which parts of an identity distinguish authors.
type KeyMode string

const (
	// KeyName merges every email used under one display name.
	KeyName KeyMode = "name"
	// KeyEmail merges every name used with one email address.
	KeyEmail KeyMode = "email"
	// KeyNameEmail treats each (name, email) pair as its own author.
	KeyNameEmail KeyMode = "name_email"
)

// ParseKeyMode validates an identity key mode.
func ParseKeyMode(s string) (KeyMode, error) {
	switch KeyMode(s) {
	case KeyName, KeyEmail, KeyNameEmail:
		return KeyMode(s), nil
	case "":
		return KeyNameEmail, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKeyMode, s)
}

// key builds the aggregation key for an identity.
func (m KeyMode) key(id models.Identity) string {
	switch m {
	case KeyName:
		return id.Name
	case KeyEmail:
		return id.Email
	default:
		return id.Name + "\x00" + id.Email
	}
}
