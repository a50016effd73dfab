package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/panbanda/whoiswho/pkg/models"
)

var sample = models.ChangeCounts{FilesAdded: 1, FilesChanged: 2, LinesAdded: 10, LinesDeleted: 3, LinesChanged: 4}

func newCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), ttl, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	c := newCache(t, 0)
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}

	c, err := New("", 0, false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache", "dir")
	if _, err := New(dir, 0, true); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("New() should create cache directory")
	}
}

func TestPutAndGet(t *testing.T) {
	c := newCache(t, 0)

	if err := c.Put("abc123", "utf-8", sample); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, ok := c.Get("abc123", "utf-8")
	if !ok {
		t.Fatal("Get() missed an existing entry")
	}
	if got != sample {
		t.Errorf("Get() = %+v, want %+v", got, sample)
	}
}

func TestGetMisses(t *testing.T) {
	c := newCache(t, 0)
	if err := c.Put("abc123", "utf-8", sample); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	tests := []struct {
		name     string
		commit   string
		encoding string
	}{
		{"unknown commit", "def456", "utf-8"},
		{"other encoding", "abc123", "latin-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := c.Get(tt.commit, tt.encoding); ok {
				t.Errorf("Get(%q, %q) should miss", tt.commit, tt.encoding)
			}
		})
	}
}

func TestEncodingCaseInsensitive(t *testing.T) {
	c := newCache(t, 0)
	if err := c.Put("abc123", "UTF-8", sample); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if _, ok := c.Get("abc123", "utf-8"); !ok {
		t.Error("encoding names should match case-insensitively")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := newCache(t, time.Millisecond)
	if err := c.Put("abc123", "utf-8", sample); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get("abc123", "utf-8"); ok {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.keyPath("abc123", "utf-8")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestCorruptEntry(t *testing.T) {
	c := newCache(t, 0)
	if err := os.WriteFile(c.keyPath("abc123", "utf-8"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("abc123", "utf-8"); ok {
		t.Error("corrupt entry should miss")
	}
}

func TestDisabled(t *testing.T) {
	c := Disabled()
	if err := c.Put("abc123", "utf-8", sample); err != nil {
		t.Errorf("Put() on disabled cache: %v", err)
	}
	if _, ok := c.Get("abc123", "utf-8"); ok {
		t.Error("disabled cache should never hit")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on disabled cache: %v", err)
	}
	stats, err := c.GetStats()
	if err != nil || stats.Entries != 0 {
		t.Errorf("GetStats() = %+v, %v", stats, err)
	}

	var nilCache *Cache
	if nilCache.Enabled() {
		t.Error("nil cache should be disabled")
	}
}

func TestClear(t *testing.T) {
	c := newCache(t, 0)
	for _, h := range []string{"a", "b", "c"} {
		if err := c.Put(h, "utf-8", sample); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries after Clear() = %d, want 0", stats.Entries)
	}
	if _, ok := c.Get("a", "utf-8"); ok {
		t.Error("cleared entry should miss")
	}

	if err := c.Put("a", "utf-8", sample); err != nil {
		t.Fatalf("Put() after Clear() error: %v", err)
	}
	if _, ok := c.Get("a", "utf-8"); !ok {
		t.Error("Put() after Clear() should be readable")
	}
}

func TestGetStats(t *testing.T) {
	c := newCache(t, 0)
	for _, h := range []string{"a", "b", "c"} {
		if err := c.Put(h, "utf-8", sample); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.TotalSize <= 0 {
		t.Error("TotalSize should be positive")
	}
}

func TestConcurrentPut(t *testing.T) {
	c := newCache(t, 0)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counts := models.ChangeCounts{LinesAdded: i}
			if err := c.Put(HashKey("commit", string(rune('a'+i))), "utf-8", counts); err != nil {
				t.Errorf("Put() error: %v", err)
			}
		}()
	}
	wg.Wait()

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 32 {
		t.Errorf("Entries = %d, want 32", stats.Entries)
	}
}

func TestHashKey(t *testing.T) {
	if HashKey("a", "b") == HashKey("ab") {
		t.Error("parts should be separated")
	}
	if HashKey("a", "b") != HashKey("a", "b") {
		t.Error("HashKey should be deterministic")
	}
	if len(HashKey("x")) != 64 {
		t.Errorf("HashKey length = %d, want 64", len(HashKey("x")))
	}
}
