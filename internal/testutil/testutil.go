// Package testutil provides fixtures for tests: files on disk and
// throwaway git repositories with controlled authors and timestamps.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// Author identifies who makes a fixture commit.
type Author struct {
	Name  string
	Email string
}

// Repo is a git repository on disk used as a test fixture.
type Repo struct {
	t    *testing.T
	Path string
	repo *git.Repository
	wt   *git.Worktree
}

// NewRepo initializes an empty repository in a temp directory.
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	path := t.TempDir()
	repo, err := git.PlainInit(path, false)
	if err != nil {
		t.Fatalf("PlainInit(%s) error: %v", path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree error: %v", err)
	}
	return &Repo{t: t, Path: path, repo: repo, wt: wt}
}

// Write writes a file relative to the repository root and stages it.
func (r *Repo) Write(name, content string) *Repo {
	r.t.Helper()
	WriteFile(r.t, filepath.Join(r.Path, name), content)
	if _, err := r.wt.Add(name); err != nil {
		r.t.Fatalf("Add(%s) error: %v", name, err)
	}
	return r
}

// Remove deletes a file relative to the repository root and stages the removal.
func (r *Repo) Remove(name string) *Repo {
	r.t.Helper()
	if _, err := r.wt.Remove(name); err != nil {
		r.t.Fatalf("Remove(%s) error: %v", name, err)
	}
	return r
}

// Commit records the staged changes. The author and committer share the
// signature, so the commit time is exactly at.
func (r *Repo) Commit(author Author, at time.Time, msg string) string {
	r.t.Helper()
	sig := &object.Signature{Name: author.Name, Email: author.Email, When: at}
	hash, err := r.wt.Commit(msg, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.t.Fatalf("Commit(%q) error: %v", msg, err)
	}
	return hash.String()
}

// Subdir creates a directory inside the repository and returns its path.
func (r *Repo) Subdir(name string) string {
	r.t.Helper()
	dir := filepath.Join(r.Path, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		r.t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	return dir
}
