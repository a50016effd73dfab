package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitOpener opens repositories with go-git. It needs no git executable.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// Open opens the repository containing path, searching parent directories.
func (o *GitOpener) Open(path string) (History, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, err
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	} else if abs, err := filepath.Abs(path); err == nil {
		root = abs
	}

	return &GitHistory{repo: repo, root: root}, nil
}

// GitHistory is a History backed by go-git.
type GitHistory struct {
	// go-git object storage is not safe for concurrent readers.
	mu   sync.Mutex
	repo *git.Repository
	root string
}

// Root implements History.
func (h *GitHistory) Root() string {
	return h.root
}

// Ref implements History.
func (h *GitHistory) Ref(_ context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	head, err := h.repo.Head()
	if err != nil {
		return "", err
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String(), nil
}

// Commits implements History. Commits are ordered newest first by committer time.
func (h *GitHistory) Commits(ctx context.Context) ([]CommitInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.repo.Head(); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// Unborn branch: a repository without commits.
			return nil, nil
		}
		return nil, err
	}

	iter, err := h.repo.Log(&git.LogOptions{Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var commits []CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		commits = append(commits, CommitInfo{
			Hash:        c.Hash.String(),
			AuthorName:  c.Author.Name,
			AuthorEmail: c.Author.Email,
			Time:        c.Committer.When.Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// Diff implements History. The diff is taken against the first parent, or
// against the empty tree for a root commit.
func (h *GitHistory) Diff(ctx context.Context, hash string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	commit, err := h.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
		}
		return nil, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, err
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTreeContext(ctx, parentTree, tree)
	if err != nil {
		return nil, err
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := patch.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
