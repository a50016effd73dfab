package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/whoiswho/internal/cache"
	"github.com/panbanda/whoiswho/internal/output"
	"github.com/panbanda/whoiswho/internal/progress"
	"github.com/panbanda/whoiswho/internal/remote"
	"github.com/panbanda/whoiswho/internal/report"
	"github.com/panbanda/whoiswho/internal/service/analysis"
	"github.com/panbanda/whoiswho/internal/vcs"
	"github.com/panbanda/whoiswho/pkg/analyzer/contributors"
	"github.com/panbanda/whoiswho/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// shortHelp is printed for -h/--help.
const shortHelp = "Shows how many commits/files/lines any one of the users made, shows how long each of the users have been active."

// env abstracts the process environment for tests.
type env struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	opener vcs.Opener
}

func init() {
	// -h and --help print the one-line description from action; the full
	// option list moves to --usage.
	cli.HelpFlag = &cli.BoolFlag{
		Name:  "usage",
		Usage: "Print all options and exit",
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, env{stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv})
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, e env) int {
	if len(args) == 2 && (isHelpArg(args[1]) || e.getenv("SHORT_HELP_MODE") != "") {
		fmt.Fprintln(e.stdout, shortHelp)
		return 1
	}

	app := newApp(e)
	if err := app.RunContext(ctx, args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			if msg := exit.Error(); msg != "" {
				fmt.Fprintln(e.stderr, color.RedString("Error: %s", msg))
			}
			return exit.ExitCode()
		}
		fmt.Fprintln(e.stderr, color.RedString("Error: %v", err))
		return 1
	}
	return 0
}

func isHelpArg(s string) bool {
	return s == "-h" || s == "--help"
}

func newApp(e env) *cli.App {
	return &cli.App{
		Name:      "whoiswho",
		Usage:     "Contributor statistics and headcount timeline from git history",
		UsageText: "whoiswho [options] [repository]",
		Version:   version,
		Writer:    e.stdout,
		ErrWriter: e.stderr,
		// No help subcommand; --usage is the built-in help flag.
		HideHelpCommand: true,
		// Exit codes are handled by run.
		ExitErrHandler: func(*cli.Context, error) {},
		Description: `Reads every commit of a git repository, counts files and lines added,
deleted and changed per author, and reconstructs how many authors were
active over time.`,
		Flags: flags(),
		Action: func(c *cli.Context) error {
			return action(c, e)
		},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "help",
			Aliases: []string{"h"},
			Usage:   "Print a one-line description and exit",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (TOML, YAML, or JSON)",
			EnvVars: []string{"WHOISWHO_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, markdown, json, yaml, toon",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "Sort authors by: " + sortFieldList(),
		},
		&cli.BoolFlag{
			Name:  "ascending",
			Usage: "Sort authors in ascending order",
		},
		&cli.StringFlag{
			Name:    "resolution",
			Aliases: []string{"r"},
			Usage:   "Timeline bucket width as a duration (2928h) or seconds",
		},
		&cli.StringFlag{
			Name:  "identity",
			Usage: "Author identity key: name, email, name_email",
		},
		&cli.StringFlag{
			Name:  "encoding",
			Usage: "Text encoding of diff output (utf-8, cp858, latin1, ...)",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"j"},
			Usage:   "Parallel diff workers (0 = 2x CPUs)",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Disable progress output",
		},
		&cli.BoolFlag{
			Name:  "no-members",
			Usage: "Do not list joining and leaving authors per time window",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
		&cli.BoolFlag{
			Name:  "go-git",
			Usage: "Read history with go-git instead of the git executable",
		},
		&cli.BoolFlag{
			Name:  "cache",
			Usage: "Cache per-commit change counts between runs",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "Directory for the change count cache (implies --cache)",
		},
		&cli.BoolFlag{
			Name:  "clear-cache",
			Usage: "Remove cached change counts before analyzing",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:  "show-config",
			Usage: "Print the effective configuration as TOML and exit",
		},
	}
}

func sortFieldList() string {
	fields := contributors.SortFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func action(c *cli.Context, e env) error {
	if c.Bool("help") {
		fmt.Fprintln(e.stdout, shortHelp)
		return cli.Exit("", 1)
	}
	if c.Args().Len() > 1 {
		return fmt.Errorf("expected at most one repository path, got %d", c.Args().Len())
	}

	cfg, source, err := loadConfig(c)
	if err != nil {
		return err
	}

	if c.Bool("show-config") {
		return showConfig(e.stdout, cfg, source)
	}

	logger := newLogger(e.stderr, cfg, c.Bool("verbose"))
	if source != "" {
		logger.WithField("path", source).Debug("loaded configuration")
	}

	repoPath := "."
	if c.Args().Len() == 1 {
		repoPath = c.Args().First()
	}

	format := output.ParseFormat(cfg.Output.Format)
	outPath := c.String("output")
	progressOn := showProgress(cfg, format, outPath)

	src, err := remote.Parse(repoPath)
	if err != nil {
		return err
	}
	if src != nil {
		var cloneProgress io.Writer = io.Discard
		if progressOn {
			cloneProgress = e.stderr
		}
		logger.WithField("url", src.URL).Info("cloning remote repository")
		if err := src.Clone(c.Context, cloneProgress); err != nil {
			return err
		}
		defer src.Cleanup()
		repoPath = src.CloneDir
	}

	opts := []analysis.Option{
		analysis.WithConfig(cfg),
		analysis.WithLogger(logger),
	}
	if c.Bool("clear-cache") {
		dc, err := clearCache(cfg, logger)
		if err != nil {
			return err
		}
		opts = append(opts, analysis.WithCache(dc))
	}
	if e.opener != nil {
		opts = append(opts, analysis.WithOpener(e.opener))
	}
	if progressOn {
		opts = append(opts, analysis.WithProgress(progress.Stderr{Opts: []progress.Option{progress.WithWriter(e.stderr)}}))
	}

	result, err := analysis.New(opts...).Analyze(c.Context, repoPath)
	if err != nil {
		return err
	}
	if src != nil {
		result.Repository = src.String()
	}

	formatter, err := newFormatter(e.stdout, format, outPath, cfg.Output.Color && !color.NoColor)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(report.New(result, report.WithMembers(cfg.Output.Members)))
}

// clearCache empties the configured cache directory and returns the cache
// to use for this run: the emptied one when caching is on, else a disabled one.
func clearCache(cfg *config.Config, logger *logrus.Logger) (*cache.Cache, error) {
	if cfg.Cache.Dir == "" {
		return nil, fmt.Errorf("%w: cache.dir is empty", config.ErrInvalid)
	}
	dc, err := cache.New(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLHours)*time.Hour, true)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", cfg.Cache.Dir, err)
	}
	if stats, err := dc.GetStats(); err == nil {
		logger.WithFields(logrus.Fields{
			"dir":     cfg.Cache.Dir,
			"entries": stats.Entries,
			"size":    humanize.Bytes(uint64(stats.TotalSize)),
		}).Info("clearing cache")
	}
	if err := dc.Clear(); err != nil {
		return nil, fmt.Errorf("clearing cache %s: %w", cfg.Cache.Dir, err)
	}
	if !cfg.Cache.Enabled {
		return cache.Disabled(), nil
	}
	return dc, nil
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, string, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	res, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, "", err
	}
	cfg := res.Config

	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("sort") {
		cfg.Analysis.SortBy = c.String("sort")
	}
	if c.Bool("ascending") {
		cfg.Analysis.Descending = false
	}
	if c.IsSet("resolution") {
		cfg.Analysis.Resolution = c.String("resolution")
	}
	if c.IsSet("identity") {
		cfg.Analysis.Identity = c.String("identity")
	}
	if c.IsSet("encoding") {
		cfg.Analysis.Encoding = c.String("encoding")
	}
	if c.IsSet("workers") {
		cfg.Analysis.Workers = c.Int("workers")
	}
	if c.Bool("no-progress") {
		cfg.Output.Progress = false
	}
	if c.Bool("no-members") {
		cfg.Output.Members = false
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.Bool("go-git") {
		cfg.Analysis.Native = false
	}
	if c.IsSet("cache") {
		cfg.Cache.Enabled = c.Bool("cache")
	}
	if c.IsSet("cache-dir") {
		cfg.Cache.Enabled = true
		cfg.Cache.Dir = c.String("cache-dir")
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}

	// Aliases such as "yml" are accepted from the file and the flag alike.
	if f, ok := output.LookupFormat(cfg.Output.Format); ok {
		cfg.Output.Format = string(f)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, res.Source, nil
}

func showConfig(w io.Writer, cfg *config.Config, source string) error {
	if source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(content)
	return err
}

func newLogger(w io.Writer, cfg *config.Config, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}

// showProgress reports whether progress bars are drawn. Structured output
// written to a file runs quiet.
func showProgress(cfg *config.Config, format output.Format, outPath string) bool {
	if !cfg.Output.Progress {
		return false
	}
	return format == output.FormatText || outPath == ""
}

func newFormatter(stdout io.Writer, format output.Format, outPath string, colored bool) (*output.Formatter, error) {
	if outPath != "" {
		return output.NewFormatter(format, outPath, false)
	}
	return output.NewWriterFormatter(format, stdout, colored), nil
}
