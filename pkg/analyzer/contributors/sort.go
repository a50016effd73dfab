package contributors

import (
	"fmt"
	"sort"
	"strings"
)

// SortField names the profile value used for display ordering.
type SortField string

const (
	SortCommits       SortField = "commits"
	SortFilesAdded    SortField = "files_added"
	SortFilesDeleted  SortField = "files_deleted"
	SortFilesChanged  SortField = "files_changed"
	SortFilesAffected SortField = "files_affected"
	SortLinesAdded    SortField = "lines_added"
	SortLinesDeleted  SortField = "lines_deleted"
	SortLinesChanged  SortField = "lines_changed"
	SortLinesAffected SortField = "lines_affected"
	SortFirstCommit   SortField = "first_commit"
	SortLastCommit    SortField = "last_commit"
	SortTenure        SortField = "tenure"
	SortName          SortField = "name"
)

// DefaultSortField orders authors by number of commits.
const DefaultSortField = SortCommits

var numericKeys = map[SortField]func(*Profile) int64{
	SortCommits:       func(p *Profile) int64 { return int64(p.CommitCount) },
	SortFilesAdded:    func(p *Profile) int64 { return int64(p.FilesAdded) },
	SortFilesDeleted:  func(p *Profile) int64 { return int64(p.FilesDeleted) },
	SortFilesChanged:  func(p *Profile) int64 { return int64(p.FilesChanged) },
	SortFilesAffected: func(p *Profile) int64 { return int64(p.FilesAffected()) },
	SortLinesAdded:    func(p *Profile) int64 { return int64(p.LinesAdded) },
	SortLinesDeleted:  func(p *Profile) int64 { return int64(p.LinesDeleted) },
	SortLinesChanged:  func(p *Profile) int64 { return int64(p.LinesChanged) },
	SortLinesAffected: func(p *Profile) int64 { return int64(p.LinesAffected()) },
	SortFirstCommit:   func(p *Profile) int64 { return p.FirstActivity },
	SortLastCommit:    func(p *Profile) int64 { return p.LastActivity },
	SortTenure:        func(p *Profile) int64 { return p.Tenure },
}

// SortFields lists every accepted sort field.
func SortFields() []SortField {
	fields := make([]SortField, 0, len(numericKeys)+1)
	for f := range numericKeys {
		fields = append(fields, f)
	}
	fields = append(fields, SortName)
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// ParseSortField validates a sort field name. Hyphens are accepted in place
// of underscores and the legacy name "num_commits" maps to commits.
func ParseSortField(s string) (SortField, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch name {
	case "":
		return DefaultSortField, nil
	case "num_commits":
		return SortCommits, nil
	}
	f := SortField(name)
	if _, ok := numericKeys[f]; ok || f == SortName {
		return f, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownSortField, s)
}

// Sort returns a new slice ordered by field. Profiles with equal keys keep
// their relative input order in both directions.
func Sort(profiles []*Profile, field SortField, descending bool) []*Profile {
	out := make([]*Profile, len(profiles))
	copy(out, profiles)

	if field == SortName {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := strings.ToLower(out[i].DisplayName()), strings.ToLower(out[j].DisplayName())
			if descending {
				return a > b
			}
			return a < b
		})
		return out
	}

	key, ok := numericKeys[field]
	if !ok {
		key = numericKeys[DefaultSortField]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return key(out[i]) > key(out[j])
		}
		return key(out[i]) < key(out[j])
	})
	return out
}
