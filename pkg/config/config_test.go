package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "commits", cfg.Analysis.SortBy)
	assert.True(t, cfg.Analysis.Descending)
	assert.Equal(t, "name_email", cfg.Analysis.Identity)
	assert.Equal(t, "utf-8", cfg.Analysis.Encoding)
	assert.True(t, cfg.Analysis.Native)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Output.Members)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, ".whoiswho/cache", cfg.Cache.Dir)

	d, err := cfg.ResolutionDuration()
	require.NoError(t, err)
	assert.Equal(t, 2928*time.Hour, d)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "whoiswho.toml",
			content: `[analysis]
sort_by = "lines_added"
resolution = "720h"
identity = "email"

[output]
format = "json"
`,
		},
		{
			name: "yaml",
			file: "whoiswho.yaml",
			content: `analysis:
  sort_by: lines_added
  resolution: 720h
  identity: email
output:
  format: json
`,
		},
		{
			name:    "json",
			file:    "whoiswho.json",
			content: `{"analysis": {"sort_by": "lines_added", "resolution": "720h", "identity": "email"}, "output": {"format": "json"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, "lines_added", cfg.Analysis.SortBy)
			assert.Equal(t, "720h", cfg.Analysis.Resolution)
			assert.Equal(t, "email", cfg.Analysis.Identity)
			assert.Equal(t, "json", cfg.Output.Format)
			// Unset keys keep their defaults.
			assert.True(t, cfg.Analysis.Descending)
			assert.Equal(t, "utf-8", cfg.Analysis.Encoding)
		})
	}
}

func TestLoad_IntegerResolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whoiswho.toml")
	require.NoError(t, os.WriteFile(path, []byte("[analysis]\nresolution = 3600\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	d, err := cfg.ResolutionDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"2928h", 2928 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"86400", 24 * time.Hour, false},
		{" 60 ", time.Minute, false},
		{"four months", 0, true},
		{"1500ms", 0, true},
		{"1m0.5s", 0, true},
		{"1000ms", time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseResolution(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"sort field", func(c *Config) { c.Analysis.SortBy = "karma" }},
		{"format", func(c *Config) { c.Output.Format = "xml" }},
		{"identity", func(c *Config) { c.Analysis.Identity = "login" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"workers", func(c *Config) { c.Analysis.Workers = -1 }},
		{"encoding", func(c *Config) { c.Analysis.Encoding = " " }},
		{"resolution syntax", func(c *Config) { c.Analysis.Resolution = "soon" }},
		{"resolution too small", func(c *Config) { c.Analysis.Resolution = "10ms" }},
		{"resolution fraction", func(c *Config) { c.Analysis.Resolution = "2.5s" }},
		{"cache dir", func(c *Config) { c.Cache = CacheConfig{Enabled: true} }},
		{"cache ttl", func(c *Config) { c.Cache.TTLHours = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults when nothing found", func(t *testing.T) {
		res, err := LoadConfig(WithSearchDirs(t.TempDir()))
		require.NoError(t, err)
		assert.Empty(t, res.Source)
		assert.Equal(t, DefaultConfig(), res.Config)
	})

	t.Run("finds dotted file in search dir", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".whoiswho.yml")
		require.NoError(t, os.WriteFile(path, []byte("output:\n  members: false\n"), 0644))

		res, err := LoadConfig(WithSearchDirs(dir))
		require.NoError(t, err)
		assert.Equal(t, path, res.Source)
		assert.False(t, res.Config.Output.Members)
	})

	t.Run("explicit path wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.toml")
		require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0644))

		res, err := LoadConfig(WithPath(path), WithSearchDirs(t.TempDir()))
		require.NoError(t, err)
		assert.Equal(t, "debug", res.Config.Log.Level)
	})

	t.Run("invalid values are left for Validate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"xml\"\n"), 0644))

		res, err := LoadConfig(WithPath(path))
		require.NoError(t, err)
		assert.Equal(t, "xml", res.Config.Output.Format)
		assert.ErrorIs(t, res.Config.Validate(), ErrInvalid)

		res.Config.Output.Format = "json"
		assert.NoError(t, res.Config.Validate())
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.toml")
		require.NoError(t, os.WriteFile(path, []byte("[output\n"), 0644))

		_, err := LoadConfig(WithPath(path))
		assert.Error(t, err)
	})
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	assert.Equal(t, DefaultConfig(), LoadOrDefault())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".whoiswho"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".whoiswho", "whoiswho.toml"),
		[]byte("[analysis]\nworkers = 3\n"), 0644))

	assert.Equal(t, 3, LoadOrDefault().Analysis.Workers)
}
