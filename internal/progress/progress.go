// Package progress renders stderr progress for long history walks.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar. A nil *Tracker is valid and does nothing.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	w     io.Writer
}

// Option configures a Tracker.
type Option func(*settings)

type settings struct {
	w io.Writer
}

// WithWriter sends progress output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		s.w = w
	}
}

func apply(opts []Option) settings {
	s := settings{w: os.Stderr}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewSpinner creates a spinner for operations with unknown total count.
func NewSpinner(label string, opts ...Option) *Tracker {
	s := apply(opts)
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label, w: s.w}
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int, opts ...Option) *Tracker {
	s := apply(opts)
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, w: s.w}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t == nil {
		return
	}
	_ = t.bar.Add(1)
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	if t == nil {
		return
	}
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	if t == nil {
		return
	}
	_ = t.bar.Finish()
	_ = t.bar.Clear()
	fmt.Fprintf(t.w, "  %s error: %v\n", t.label, err)
}

// Factory creates trackers for the stages of an analysis run.
type Factory interface {
	Spinner(label string) *Tracker
	Bar(label string, total int) *Tracker
}

// Stderr is a Factory that draws on the given writer, stderr by default.
type Stderr struct {
	Opts []Option
}

// Spinner implements Factory.
func (s Stderr) Spinner(label string) *Tracker { return NewSpinner(label, s.Opts...) }

// Bar implements Factory.
func (s Stderr) Bar(label string, total int) *Tracker { return NewTracker(label, total, s.Opts...) }

// Disabled is a Factory that returns nil trackers.
type Disabled struct{}

// Spinner implements Factory.
func (Disabled) Spinner(string) *Tracker { return nil }

// Bar implements Factory.
func (Disabled) Bar(string, int) *Tracker { return nil }
