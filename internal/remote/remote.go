// Package remote resolves repository arguments that name a remote git
// repository and clones them into a temporary directory for analysis.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrRefNotFound is returned when the requested ref does not exist in the
// cloned repository.
var ErrRefNotFound = errors.New("ref not found")

// Source represents a remote repository to analyze.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory after clone
}

// String returns the URL with its ref suffix, as given on the command line.
func (s *Source) String() string {
	if s.Ref == "" {
		return s.URL
	}
	return s.URL + "@" + s.Ref
}

// Parse detects if a path is a remote reference.
// Returns nil if path exists on filesystem (local path takes precedence).
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	path, ref := splitRef(path)
	if path == "" {
		return nil, fmt.Errorf("missing repository before @%s", ref)
	}

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "ssh://"), strings.HasPrefix(path, "git://"):
		return &Source{URL: path, Ref: ref}, nil
	case isSCPLike(path):
		return &Source{URL: path, Ref: ref}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path, Ref: ref}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref}, nil
	}
	return nil, nil
}

// splitRef splits a trailing @ref, leaving the user part of git@host alone.
func splitRef(path string) (string, string) {
	idx := strings.LastIndex(path, "@")
	if idx == -1 {
		return path, ""
	}
	rest := path[idx+1:]
	// git@github.com:owner/repo has no ref; the @ precedes the host.
	if strings.Contains(rest, ":") || strings.Contains(rest, "/") {
		return path, ""
	}
	return path[:idx], rest
}

// isSCPLike matches user@host:path.
func isSCPLike(path string) bool {
	at := strings.Index(path, "@")
	colon := strings.Index(path, ":")
	return at > 0 && colon > at+1 && !strings.Contains(path[:colon], "/")
}

// isHostPath matches host.tld/owner/repo.
func isHostPath(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx <= 0 || slashIdx == len(path)-1 {
		return false
	}
	return strings.Contains(path[:slashIdx], ".") && strings.Count(path, "/") >= 2
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// A dot before the slash would indicate a domain.
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone fetches the full history into a fresh temporary directory and checks
// out Ref when set. Clone progress is written to progress.
func (s *Source) Clone(ctx context.Context, progress io.Writer) error {
	dir, err := os.MkdirTemp("", "whoiswho-clone-*")
	if err != nil {
		return err
	}
	s.CloneDir = dir

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      s.URL,
		Progress: progress,
		Tags:     git.AllTags,
	})
	if err != nil {
		s.Cleanup()
		return fmt.Errorf("cloning %s: %w", s.URL, err)
	}

	if s.Ref == "" {
		return nil
	}
	if err := checkout(repo, s.Ref); err != nil {
		s.Cleanup()
		return err
	}
	return nil
}

// checkout moves HEAD to ref. Remote branches get a local branch of the
// same name; tags and hashes leave HEAD detached.
func checkout(repo *git.Repository, ref string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}

	branch := plumbing.NewBranchReferenceName(ref)
	if _, err := repo.Reference(branch, false); err == nil {
		return wt.Checkout(&git.CheckoutOptions{Branch: branch, Force: true})
	}
	if hash, err := repo.ResolveRevision(plumbing.Revision("origin/" + ref)); err == nil {
		return wt.Checkout(&git.CheckoutOptions{
			Hash:   *hash,
			Branch: branch,
			Create: true,
			Force:  true,
		})
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRefNotFound, ref)
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true})
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() {
	if s.CloneDir != "" {
		os.RemoveAll(s.CloneDir)
		s.CloneDir = ""
	}
}
