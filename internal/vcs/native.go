package vcs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// fieldSep separates fields in the git log format. Author names may contain commas.
const fieldSep = "\x1f"

// logFormat emits hash, author name, author email and committer time. The
// lowercase placeholders skip .mailmap so identities match the go-git reader.
const logFormat = "--format=%H%x1f%an%x1f%ae%x1f%ct"

var (
	gitCheckOnce sync.Once
	gitCheckErr  error
)

// checkGitAvailable verifies that git is installed and accessible.
func checkGitAvailable() error {
	gitCheckOnce.Do(func() {
		if _, err := exec.LookPath("git"); err != nil {
			gitCheckErr = ErrGitNotFound
		}
	})
	return gitCheckErr
}

// GitAvailable reports whether the git executable can be found.
func GitAvailable() bool {
	return checkGitAvailable() == nil
}

// NativeOpener opens repositories through the git executable.
// git show is considerably faster than go-git tree diffs on large histories.
type NativeOpener struct{}

// NewNativeOpener creates a new NativeOpener.
func NewNativeOpener() *NativeOpener {
	return &NativeOpener{}
}

// Open implements Opener.
func (o *NativeOpener) Open(path string) (History, error) {
	if err := checkGitAvailable(); err != nil {
		return nil, err
	}
	h := &NativeHistory{dir: path}
	out, err := h.run(context.Background(), "rev-parse", "--show-toplevel")
	if err != nil {
		if strings.Contains(err.Error(), "not a git repository") {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, err
	}
	h.dir = strings.TrimSpace(string(out))
	return h, nil
}

// NativeHistory is a History backed by the git executable.
type NativeHistory struct {
	dir string
}

// Root implements History.
func (h *NativeHistory) Root() string {
	return h.dir
}

func (h *NativeHistory) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = h.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("git %s: %w", args[0], err)
		}
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}
	return stdout.Bytes(), nil
}

// hasHead reports whether HEAD resolves to a commit.
func (h *NativeHistory) hasHead(ctx context.Context) bool {
	_, err := h.run(ctx, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// Ref implements History.
func (h *NativeHistory) Ref(ctx context.Context) (string, error) {
	out, err := h.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	ref := strings.TrimSpace(string(out))
	if ref != "HEAD" {
		return ref, nil
	}
	out, err = h.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Commits implements History. Commits are listed newest first.
func (h *NativeHistory) Commits(ctx context.Context) ([]CommitInfo, error) {
	if !h.hasHead(ctx) {
		return nil, nil
	}
	out, err := h.run(ctx, "log", "--no-color", logFormat)
	if err != nil {
		return nil, err
	}
	return parseLog(out)
}

// parseLog parses output produced with logFormat.
func parseLog(out []byte) ([]CommitInfo, error) {
	var commits []CommitInfo
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		parts := strings.Split(line, fieldSep)
		if len(parts) != 4 {
			return nil, fmt.Errorf("malformed git log line %q", line)
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed commit time in %q: %w", line, err)
		}
		commits = append(commits, CommitInfo{
			Hash:        parts[0],
			AuthorName:  parts[1],
			AuthorEmail: parts[2],
			Time:        ts,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return commits, nil
}

// Diff implements History. The commit message is suppressed so only diff
// lines are returned.
func (h *NativeHistory) Diff(ctx context.Context, hash string) ([]byte, error) {
	out, err := h.run(ctx, "show", "--no-color", "--no-ext-diff", "--no-renames", "--pretty=format:", hash)
	if err != nil {
		if strings.Contains(err.Error(), "bad object") || strings.Contains(err.Error(), "unknown revision") {
			return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
		}
		return nil, err
	}
	return out, nil
}
