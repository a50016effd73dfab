// Package analysis runs the contributor statistics pipeline: list commits,
// classify every diff, aggregate per author and rebuild the headcount timeline.
package analysis

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"github.com/zeebo/blake3"

	"github.com/panbanda/whoiswho/internal/cache"
	"github.com/panbanda/whoiswho/internal/progress"
	"github.com/panbanda/whoiswho/internal/vcs"
	"github.com/panbanda/whoiswho/pkg/analyzer/contributors"
	"github.com/panbanda/whoiswho/pkg/analyzer/diffstat"
	"github.com/panbanda/whoiswho/pkg/analyzer/timeline"
	"github.com/panbanda/whoiswho/pkg/config"
	"github.com/panbanda/whoiswho/pkg/models"
)

// Service orchestrates analysis runs.
type Service struct {
	config   *config.Config
	opener   vcs.Opener
	logger   *logrus.Logger
	progress progress.Factory
	cache    *cache.Cache
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithLogger sets the logger used for per-commit diagnostics.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithProgress sets the progress factory. Progress is off by default.
func WithProgress(f progress.Factory) Option {
	return func(s *Service) {
		s.progress = f
	}
}

// WithCache sets the change count cache. Without it the cache is built from
// the cache section of the configuration.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithClock overrides the clock used for Result.GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config:   config.LoadOrDefault(),
		logger:   logrus.StandardLogger(),
		progress: progress.Disabled{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.opener == nil {
		s.opener = vcs.NewOpener(s.config.Analysis.Native)
	}
	if s.cache == nil {
		s.cache = s.openCache()
	}
	return s
}

// openCache builds the configured cache. A cache that cannot be created is
// logged and replaced by a disabled one; analysis works without it.
func (s *Service) openCache() *cache.Cache {
	cc := s.config.Cache
	if !cc.Enabled {
		return cache.Disabled()
	}
	c, err := cache.New(cc.Dir, time.Duration(cc.TTLHours)*time.Hour, true)
	if err != nil {
		s.logger.WithError(err).WithField("dir", cc.Dir).Warn("cache disabled")
		return cache.Disabled()
	}
	return c
}

// settings are the validated analysis parameters of one run.
type settings struct {
	sortBy     contributors.SortField
	descending bool
	identity   contributors.KeyMode
	builder    *timeline.Builder
	decoder    *diffstat.Decoder
	workers    int
}

func (s *Service) settings() (*settings, error) {
	a := s.config.Analysis

	sortBy, err := contributors.ParseSortField(a.SortBy)
	if err != nil {
		return nil, err
	}
	identity, err := contributors.ParseKeyMode(a.Identity)
	if err != nil {
		return nil, err
	}
	resolution, err := config.ParseResolution(a.Resolution)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", timeline.ErrInvalidResolution, err)
	}
	builder, err := timeline.New(resolution)
	if err != nil {
		return nil, err
	}
	decoder, err := diffstat.NewDecoder(a.Encoding)
	if err != nil {
		return nil, err
	}

	workers := a.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	return &settings{
		sortBy:     sortBy,
		descending: a.Descending,
		identity:   identity,
		builder:    builder,
		decoder:    decoder,
		workers:    workers,
	}, nil
}

// Analyze runs the full pipeline over the repository containing repoPath.
// A repository without commits yields an empty result, not an error.
func (s *Service) Analyze(ctx context.Context, repoPath string) (*Result, error) {
	st, err := s.settings()
	if err != nil {
		return nil, err
	}

	history, err := s.opener.Open(repoPath)
	if err != nil {
		return nil, err
	}

	spinner := s.progress.Spinner("Listing commits")
	commits, err := history.Commits(ctx)
	if err != nil {
		spinner.FinishError(err)
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	spinner.FinishSuccess()

	ref, err := history.Ref(ctx)
	if err != nil {
		// Unborn or odd HEADs still have a (possibly empty) history.
		s.logger.WithError(err).Debug("could not resolve HEAD")
	}

	records := s.classify(ctx, history, st, commits)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	degraded := 0
	for i := range records {
		if records[i].Degraded {
			degraded++
		}
	}
	if degraded > 0 {
		s.logger.WithField("commits", degraded).Warn("some diffs could not be read; those commits count with zero changes")
	}

	agg := contributors.New(contributors.WithKeyMode(st.identity))
	var totals models.ChangeCounts
	for i := range records {
		agg.Add(&records[i])
		totals.Add(records[i].ChangeCounts)
	}
	profiles := agg.Aggregate()

	tl, err := st.builder.BuildProfiles(profiles)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Repository:  history.Root(),
		Ref:         ref,
		GeneratedAt: s.now().UTC(),
		SortBy:      st.sortBy,
		Descending:  st.descending,
		Identity:    st.identity,
		Commits:     len(records),
		Degraded:    degraded,
		Totals:      totals,
		Authors:     contributors.Sort(profiles, st.sortBy, st.descending),
		Tenure:      contributors.ComputeTenureStats(profiles),
		Timeline:    tl,
		Records:     records,
	}
	result.Fingerprint = fingerprint(result, st)
	return result, nil
}

// classify fetches and classifies every commit diff in parallel. Each worker
// writes only its own slot, so the records keep history order.
func (s *Service) classify(ctx context.Context, history vcs.History, st *settings, commits []vcs.CommitInfo) []models.CommitRecord {
	records := make([]models.CommitRecord, len(commits))
	if len(commits) == 0 {
		return records
	}

	var hits atomic.Int64
	tracker := s.progress.Bar("Classifying commits", len(commits))
	p := pool.New().WithMaxGoroutines(st.workers)
	for i, c := range commits {
		p.Go(func() {
			defer tracker.Tick()

			rec := &records[i]
			rec.Hash = c.Hash
			rec.Author = models.Identity{Name: c.AuthorName, Email: c.AuthorEmail}
			rec.Time = c.Time

			if ctx.Err() != nil {
				return
			}
			if counts, ok := s.cache.Get(c.Hash, st.decoder.Name()); ok {
				rec.ChangeCounts = counts
				hits.Add(1)
				return
			}

			counts, err := s.diffCounts(ctx, history, st.decoder, c.Hash)
			if err != nil {
				rec.Degraded = true
				s.logger.WithFields(logrus.Fields{
					"commit": c.Hash,
					"error":  err,
				}).Debug("counting commit with zero changes")
				return
			}
			rec.ChangeCounts = counts
			if err := s.cache.Put(c.Hash, st.decoder.Name(), counts); err != nil {
				s.logger.WithError(err).WithField("commit", c.Hash).Debug("cache write failed")
			}
		})
	}
	p.Wait()
	tracker.FinishSuccess()

	if s.cache.Enabled() {
		fields := logrus.Fields{
			"hits":    hits.Load(),
			"commits": len(commits),
		}
		if stats, err := s.cache.GetStats(); err == nil {
			fields["entries"] = stats.Entries
			fields["bytes"] = stats.TotalSize
		}
		s.logger.WithFields(fields).Debug("diff cache")
	}

	return records
}

func (s *Service) diffCounts(ctx context.Context, history vcs.History, dec *diffstat.Decoder, hash string) (models.ChangeCounts, error) {
	raw, err := history.Diff(ctx, hash)
	if err != nil {
		return models.ChangeCounts{}, err
	}
	return diffstat.ClassifyReader(dec.Reader(bytes.NewReader(raw)))
}

// fingerprint digests everything that determines the report content, so it
// ignores GeneratedAt and the repository location.
func fingerprint(r *Result, st *settings) string {
	h := blake3.New()
	field := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.WriteString(p)
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{'\n'})
	}
	itoa := strconv.Itoa

	field("identity", string(st.identity), "resolution", st.builder.Resolution().String(),
		"encoding", st.decoder.Name())
	for _, rec := range r.Records {
		c := rec.ChangeCounts
		field(rec.Hash, rec.Author.Name, rec.Author.Email, strconv.FormatInt(rec.Time, 10),
			itoa(c.FilesAdded), itoa(c.FilesDeleted), itoa(c.FilesChanged),
			itoa(c.LinesAdded), itoa(c.LinesDeleted), itoa(c.LinesChanged),
			strconv.FormatBool(rec.Degraded))
	}
	if r.Timeline != nil {
		for _, hc := range r.Timeline.Headcounts {
			field(itoa(hc))
		}
		field(r.Timeline.Active...)
	}
	return hex.EncodeToString(h.Sum(nil))
}
