// Package vcs provides the history source: commit metadata and per-commit
// unified diffs read from a git repository.
package vcs

import (
	"context"
	"errors"
)

var (
	// ErrNotRepository is returned when the path is not inside a git repository.
	ErrNotRepository = errors.New("not a git repository")
	// ErrGitNotFound is returned when the git executable is not available in PATH.
	ErrGitNotFound = errors.New("git executable not found in PATH")
	// ErrCommitNotFound is returned when a commit hash does not resolve.
	ErrCommitNotFound = errors.New("commit not found")
)

// CommitInfo is the metadata of one commit.
type CommitInfo struct {
	Hash        string
	AuthorName  string
	AuthorEmail string
	// Time is the committer timestamp in epoch seconds.
	Time int64
}

// History reads commits and diffs from a repository.
// Implementations must be safe for concurrent Diff calls.
type History interface {
	// Commits lists every commit reachable from HEAD.
	Commits(ctx context.Context) ([]CommitInfo, error)
	// Diff returns the unified diff a commit introduces.
	Diff(ctx context.Context, hash string) ([]byte, error)
	// Ref returns the current branch name, or the HEAD hash when detached.
	Ref(ctx context.Context) (string, error)
	// Root returns the repository work tree root.
	Root() string
}

// Opener opens a History for a path inside a repository.
type Opener interface {
	Open(path string) (History, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (History, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (History, error) {
	return f(path)
}

// NewOpener returns the native git opener, or the go-git opener when native is false.
func NewOpener(native bool) Opener {
	if native {
		return NewNativeOpener()
	}
	return NewGitOpener()
}
