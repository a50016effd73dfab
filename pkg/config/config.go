package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/panbanda/whoiswho/pkg/analyzer/contributors"
)

// ErrInvalid is returned when a configuration value fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration options for whoiswho.
type Config struct {
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
	Cache    CacheConfig    `koanf:"cache" toml:"cache"`
	Log      LogConfig      `koanf:"log" toml:"log"`
}

// AnalysisConfig controls how history is read and aggregated.
type AnalysisConfig struct {
	SortBy     string `koanf:"sort_by" toml:"sort_by"`
	Descending bool   `koanf:"descending" toml:"descending"`
	// Resolution is the timeline bucket width: a Go duration ("2928h")
	// or a whole number of seconds.
	Resolution string `koanf:"resolution" toml:"resolution"`
	Identity   string `koanf:"identity" toml:"identity"` // name, email, name_email
	Workers    int    `koanf:"workers" toml:"workers"`   // 0 means twice the CPU count
	Encoding   string `koanf:"encoding" toml:"encoding"`
	Native     bool   `koanf:"native" toml:"native"` // use the git executable
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format   string `koanf:"format" toml:"format"` // text, markdown, json, yaml, toon
	Color    bool   `koanf:"color" toml:"color"`
	Members  bool   `koanf:"members" toml:"members"`
	Progress bool   `koanf:"progress" toml:"progress"`
}

// CacheConfig controls the per-commit change count cache.
type CacheConfig struct {
	Enabled  bool   `koanf:"enabled" toml:"enabled"`
	Dir      string `koanf:"dir" toml:"dir"`
	TTLHours int    `koanf:"ttl_hours" toml:"ttl_hours"` // 0 keeps entries forever
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level string `koanf:"level" toml:"level"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			SortBy:     "commits",
			Descending: true,
			Resolution: "2928h",
			Identity:   "name_email",
			Workers:    0,
			Encoding:   "utf-8",
			Native:     true,
		},
		Output: OutputConfig{
			Format:   "text",
			Color:    true,
			Members:  true,
			Progress: true,
		},
		Cache: CacheConfig{
			Enabled:  false,
			Dir:      ".whoiswho/cache",
			TTLHours: 0,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "markdown", "json", "yaml", "toon"}

// Identities lists the accepted identity keying modes.
var Identities = []string{"name", "email", "name_email"}

// LogLevels lists the accepted log levels.
var LogLevels = []string{"trace", "debug", "info", "warn", "warning", "error"}

// ParseResolution parses a bucket width given as a Go duration or a whole
// number of seconds. Buckets are whole seconds wide, so durations with a
// fractional second ("1500ms") are rejected.
func ParseResolution(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("%s is not a whole number of seconds", d)
	}
	return d, nil
}

// ResolutionDuration returns the parsed timeline resolution.
func (c *Config) ResolutionDuration() (time.Duration, error) {
	return ParseResolution(c.Analysis.Resolution)
}

// Validate checks every value that can be verified without reading the
// repository. Encodings are checked when the decoder is built.
func (c *Config) Validate() error {
	var errs []error
	if _, err := contributors.ParseSortField(c.Analysis.SortBy); err != nil {
		errs = append(errs, fmt.Errorf("%w: analysis.sort_by: %w", ErrInvalid, err))
	}
	if !contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("%w: output.format %q (want one of %s)",
			ErrInvalid, c.Output.Format, strings.Join(Formats, ", ")))
	}
	if !contains(Identities, c.Analysis.Identity) {
		errs = append(errs, fmt.Errorf("%w: analysis.identity %q (want one of %s)",
			ErrInvalid, c.Analysis.Identity, strings.Join(Identities, ", ")))
	}
	if !contains(LogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: analysis.workers must not be negative", ErrInvalid))
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: cache.dir is empty", ErrInvalid))
	}
	if c.Cache.TTLHours < 0 {
		errs = append(errs, fmt.Errorf("%w: cache.ttl_hours must not be negative", ErrInvalid))
	}
	if strings.TrimSpace(c.Analysis.Encoding) == "" {
		errs = append(errs, fmt.Errorf("%w: analysis.encoding is empty", ErrInvalid))
	}
	if d, err := c.ResolutionDuration(); err != nil {
		errs = append(errs, fmt.Errorf("%w: analysis.resolution %q: %v", ErrInvalid, c.Analysis.Resolution, err))
	} else if d < time.Second {
		errs = append(errs, fmt.Errorf("%w: analysis.resolution must be at least 1s", ErrInvalid))
	}
	return errors.Join(errs...)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is empty when no config file was found.
	Source string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
	dirs []string
}

// WithPath loads the given file instead of searching standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDirs overrides the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.dirs = dirs
	}
}

var configNames = []string{
	"whoiswho.toml",
	"whoiswho.yaml",
	"whoiswho.yml",
	"whoiswho.json",
	".whoiswho.toml",
	".whoiswho.yaml",
	".whoiswho.yml",
	".whoiswho.json",
}

// LoadConfig loads configuration. An explicit path must exist; otherwise
// standard locations are searched and defaults used if none match. The result
// is not validated so that command-line overrides can replace file values
// first; call Validate once they are applied.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dirs: []string{".", ".whoiswho"}}
	for _, opt := range opts {
		opt(&o)
	}

	source := o.path
	if source == "" {
		source = find(o.dirs)
	}

	cfg := DefaultConfig()
	if source != "" {
		var err error
		if cfg, err = Load(source); err != nil {
			return nil, fmt.Errorf("loading %s: %w", source, err)
		}
	}
	return &LoadResult{Config: cfg, Source: source}, nil
}

func find(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path := find([]string{".", ".whoiswho"}); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}
