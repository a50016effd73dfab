// Package cache stores classified change counts per commit on disk so that
// repeated runs over the same history skip diff extraction.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/whoiswho/pkg/models"
)

// Cache is a file-based store of change counts keyed by commit hash and diff
// encoding. A disabled Cache never hits and ignores writes. Distinct keys map
// to distinct files, so concurrent Puts for different commits are safe.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is the on-disk form of one cached commit.
type Entry struct {
	Commit    string              `json:"commit"`
	Encoding  string              `json:"encoding"`
	Timestamp time.Time           `json:"timestamp"`
	Counts    models.ChangeCounts `json:"counts"`
}

// New creates a cache rooted at dir. A zero ttl keeps entries forever;
// commits are immutable, so expiry only bounds disk usage.
func New(dir string, ttl time.Duration, enabled bool) (*Cache, error) {
	if !enabled {
		return Disabled(), nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl, enabled: true}, nil
}

// Disabled returns a cache that stores nothing.
func Disabled() *Cache {
	return &Cache{}
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashKey computes a BLAKE3 digest of the parts, NUL separated, as hex.
func HashKey(parts ...string) string {
	h := blake3.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.WriteString(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached counts for a commit decoded with encoding.
func (c *Cache) Get(commit, encoding string) (models.ChangeCounts, bool) {
	if !c.Enabled() {
		return models.ChangeCounts{}, false
	}

	path := c.keyPath(commit, encoding)
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ChangeCounts{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return models.ChangeCounts{}, false
	}
	if entry.Commit != commit || !strings.EqualFold(entry.Encoding, encoding) {
		return models.ChangeCounts{}, false
	}
	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return models.ChangeCounts{}, false
	}

	return entry.Counts, true
}

// Put stores counts for a commit. The file is written under a temporary
// name and renamed so readers never see a partial entry.
func (c *Cache) Put(commit, encoding string, counts models.ChangeCounts) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(Entry{
		Commit:    commit,
		Encoding:  encoding,
		Timestamp: time.Now(),
		Counts:    counts,
	})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.keyPath(commit, encoding))
}

// Clear removes all cache entries. The cache stays usable afterwards.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0755)
}

func (c *Cache) keyPath(commit, encoding string) string {
	return filepath.Join(c.dir, HashKey(commit, strings.ToLower(encoding))+".json")
}

// Stats summarizes the cache directory.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.Enabled() {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
