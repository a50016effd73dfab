// Package report renders contributor statistics: the author table, tenure
// statistics and the join/leave headcount timeline.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/panbanda/whoiswho/internal/output"
	"github.com/panbanda/whoiswho/internal/service/analysis"
	"github.com/panbanda/whoiswho/pkg/analyzer/contributors"
	"github.com/panbanda/whoiswho/pkg/analyzer/timeline"
	"github.com/panbanda/whoiswho/pkg/models"
)

const (
	dateLayout  = "2006-01-02"
	eventLayout = "15:04 2006-01-02"
)

// Titles of the report sections.
const (
	TitleAuthors  = "Authors"
	TitleTenure   = "Author statistics (tenure is defined as time between first and last commit)"
	TitleTimeline = "DYNAMICS IN CHANGE OF COMMITTERS"
	TitleActive   = "Currently active authors"
)

// Contributors is a Renderable view of an analysis result.
type Contributors struct {
	result  *analysis.Result
	members bool
}

// Option configures a Contributors report.
type Option func(*Contributors)

// WithMembers controls whether joiner and leaver names are listed per bucket.
func WithMembers(show bool) Option {
	return func(c *Contributors) {
		c.members = show
	}
}

// New creates a report for result.
func New(result *analysis.Result, opts ...Option) *Contributors {
	c := &Contributors{result: result, members: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RenderText implements output.Renderable.
func (c *Contributors) RenderText(w io.Writer, colored bool) error {
	return c.document(colored, false).RenderText(w, colored)
}

// RenderMarkdown implements output.Renderable.
func (c *Contributors) RenderMarkdown(w io.Writer) error {
	return c.document(false, true).RenderMarkdown(w)
}

// RenderData implements output.Renderable.
func (c *Contributors) RenderData() any {
	return c.Data()
}

func (c *Contributors) document(colored, markdown bool) *output.Report {
	doc := &output.Report{
		Title:    "Contributors",
		Sections: []output.Renderable{&output.Section{Content: c.summary(markdown)}},
	}
	if c.result.Empty() {
		return doc
	}
	doc.Sections = append(doc.Sections,
		c.authorTable(),
		c.tenureSection(markdown),
		c.timelineSection(colored, markdown),
	)
	return doc
}

func (c *Contributors) summary(markdown bool) string {
	r := c.result
	repo := r.Repository
	if r.Ref != "" {
		repo = fmt.Sprintf("%s (%s)", repo, r.Ref)
	}
	ls := []string{"Repository: " + repo}
	if r.Empty() {
		return lines(markdown, append(ls, "No commits found."))
	}

	stats := fmt.Sprintf("Commits: %s, authors: %s",
		humanize.Comma(int64(r.Commits)), humanize.Comma(int64(len(r.Authors))))
	if r.Degraded > 0 {
		stats += fmt.Sprintf(", unreadable diffs: %s", humanize.Comma(int64(r.Degraded)))
	}
	return lines(markdown, append(ls, stats))
}

func (c *Contributors) authorTable() *output.Table {
	r := c.result
	rows := make([][]string, 0, len(r.Authors))
	for _, p := range r.Authors {
		rows = append(rows, []string{
			p.DisplayName(),
			p.Identity.Email,
			humanize.Comma(int64(p.CommitCount)),
			triple(p.FilesAdded, p.FilesDeleted, p.FilesChanged),
			triple(p.LinesAdded, p.LinesDeleted, p.LinesChanged),
			p.FirstTime().Format(dateLayout),
			p.LastTime().Format(dateLayout),
			fmt.Sprintf("%.1f", contributors.Months(p.TenureDuration())),
		})
	}

	t := r.Totals
	var first, last string
	if r.Timeline != nil && !r.Timeline.Empty() {
		first = r.Timeline.First.Format(dateLayout)
		last = r.Timeline.Last.Format(dateLayout)
	}
	footer := []string{
		"Total", "",
		humanize.Comma(int64(r.Commits)),
		triple(t.FilesAdded, t.FilesDeleted, t.FilesChanged),
		triple(t.LinesAdded, t.LinesDeleted, t.LinesChanged),
		first, last, "",
	}

	headers := []string{"Author", "Email", "Commits", "Files A/D/C", "Lines A/D/C", "First Commit", "Last Commit", "Tenure (months)"}
	return output.NewTable(TitleAuthors, headers, rows, footer, nil)
}

func (c *Contributors) tenureSection(markdown bool) *output.Section {
	ts := c.result.Tenure
	maxLine := fmt.Sprintf("Maximum tenure: %.2f months", contributors.Months(ts.Max))
	if ts.Max >= 24*time.Hour {
		maxLine += fmt.Sprintf(" (%s)", humanizeDuration(ts.Max))
	}
	return &output.Section{
		Title: TitleTenure,
		Content: lines(markdown, []string{
			fmt.Sprintf("Number of authors: %d", ts.Authors),
			fmt.Sprintf("Mean tenure:    %.2f months", contributors.Months(ts.Mean)),
			fmt.Sprintf("Stddev tenure:  %.2f months", contributors.Months(ts.StdDev)),
			maxLine,
		}),
	}
}

func (c *Contributors) timelineSection(colored, markdown bool) *output.Section {
	tl := c.result.Timeline
	var ls []string
	for _, e := range tl.Entries {
		ls = append(ls, eventLine(e, colored))
		if !c.members {
			continue
		}
		indent := "\t"
		if markdown {
			indent = "  - "
		}
		if len(e.Joiners) > 0 {
			ls = append(ls, indent+"first-commit:\t"+strings.Join(e.Joiners, ", "))
		}
		if len(e.Leavers) > 0 {
			ls = append(ls, indent+"last-commit:\t"+strings.Join(e.Leavers, ", "))
		}
	}

	content := strings.Join(ls, "\n")
	if markdown {
		content = markdownEvents(ls)
	}
	return &output.Section{
		Title:   TitleTimeline,
		Content: content,
		Sections: []output.Section{{
			Title:   TitleActive,
			Content: strings.Join(tl.Active, ", "),
		}},
	}
}

// eventLine formats one bucket as "from - to: headcount at start: ..." with
// the displayed bounds in UTC.
func eventLine(e timeline.Entry, colored bool) string {
	joined, left := fmt.Sprint(e.Joined), fmt.Sprint(e.Left)
	if colored {
		if e.Joined > 0 {
			joined = color.GreenString(joined)
		}
		if e.Left > 0 {
			left = color.RedString(left)
		}
	}
	return fmt.Sprintf("%s - %s: headcount at start: %d, joined: %s left: %s headcount at end: %d",
		e.From.UTC().Format(eventLayout), e.To.UTC().Format(eventLayout),
		e.HeadcountBefore, joined, left, e.HeadcountAfter)
}

// markdownEvents turns event lines into a list; member lines are already
// formatted as nested items.
func markdownEvents(ls []string) string {
	out := make([]string, len(ls))
	for i, l := range ls {
		if strings.HasPrefix(l, "  - ") {
			out[i] = strings.Replace(l, ":\t", ": ", 1)
			continue
		}
		out[i] = "- " + l
	}
	return strings.Join(out, "\n")
}

func lines(markdown bool, ls []string) string {
	if !markdown {
		return strings.Join(ls, "\n")
	}
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = "- " + strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(out, "\n")
}

func triple(a, d, c int) string {
	return fmt.Sprintf("%s/%s/%s", humanize.Comma(int64(a)), humanize.Comma(int64(d)), humanize.Comma(int64(c)))
}

// humanizeDuration renders d as a coarse span such as "1 year" or "3 months".
func humanizeDuration(d time.Duration) string {
	base := time.Unix(0, 0).UTC()
	return strings.TrimSpace(humanize.RelTime(base, base.Add(d), "", ""))
}

// Data returns the serializable form of the report.
func (c *Contributors) Data() Data {
	r := c.result
	d := Data{
		Metadata: Metadata{
			Repository:  r.Repository,
			Ref:         r.Ref,
			GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
			Fingerprint: r.Fingerprint,
			SortBy:      string(r.SortBy),
			Descending:  r.Descending,
			Identity:    string(r.Identity),
		},
		Commits:  r.Commits,
		Degraded: r.Degraded,
		Totals:   counts(r.Totals),
		Authors:  make([]Author, 0, len(r.Authors)),
		Tenure: Tenure{
			Authors: r.Tenure.Authors,
			Mean:    contributors.Months(r.Tenure.Mean),
			StdDev:  contributors.Months(r.Tenure.StdDev),
			Max:     contributors.Months(r.Tenure.Max),
		},
		Timeline: Timeline{
			Events: []Event{},
			Active: []string{},
		},
	}

	for _, p := range r.Authors {
		d.Authors = append(d.Authors, Author{
			Name:         p.DisplayName(),
			Email:        p.Identity.Email,
			Commits:      p.CommitCount,
			Counts:       counts(p.ChangeCounts),
			FirstCommit:  p.FirstTime().Format(time.RFC3339),
			LastCommit:   p.LastTime().Format(time.RFC3339),
			TenureMonths: contributors.Months(p.TenureDuration()),
		})
	}

	tl := r.Timeline
	if tl == nil || tl.Empty() {
		return d
	}
	d.Timeline.FirstCommit = tl.First.Format(time.RFC3339)
	d.Timeline.LastCommit = tl.Last.Format(time.RFC3339)
	d.Timeline.ResolutionSeconds = int64(tl.Resolution / time.Second)
	d.Timeline.Buckets = tl.BucketCount
	d.Timeline.Active = append(d.Timeline.Active, tl.Active...)
	for _, e := range tl.Entries {
		ev := Event{
			From:            e.From.UTC().Format(time.RFC3339),
			To:              e.To.UTC().Format(time.RFC3339),
			HeadcountBefore: e.HeadcountBefore,
			Joined:          e.Joined,
			Left:            e.Left,
			HeadcountAfter:  e.HeadcountAfter,
		}
		if c.members {
			ev.FirstCommit = e.Joiners
			ev.LastCommit = e.Leavers
		}
		d.Timeline.Events = append(d.Timeline.Events, ev)
	}
	return d
}

func counts(c models.ChangeCounts) Counts {
	return Counts{
		FilesAdded:   c.FilesAdded,
		FilesDeleted: c.FilesDeleted,
		FilesChanged: c.FilesChanged,
		LinesAdded:   c.LinesAdded,
		LinesDeleted: c.LinesDeleted,
		LinesChanged: c.LinesChanged,
	}
}
