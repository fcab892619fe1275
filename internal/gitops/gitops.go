// Package gitops commits ledger files so every change has a history
// outside the append-only log itself.
package gitops

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned when the given paths have no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if out, err := git(dir, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(dir string) bool {
	out, err := git(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// CommitPaths stages paths (relative to dir) and commits them with the
// given author. It returns the short hash of the new commit.
func CommitPaths(dir, message, authorName, authorEmail string, paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no paths to commit")
	}
	var existing []string
	for _, p := range paths {
		full := p
		if !filepath.IsAbs(p) {
			full = filepath.Join(dir, p)
		}
		if _, err := os.Stat(full); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return "", ErrNothingToCommit
	}

	addArgs := append([]string{"add", "--"}, existing...)
	if out, err := git(dir, addArgs...); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	diffArgs := append([]string{"diff", "--cached", "--quiet", "--"}, existing...)
	if _, err := git(dir, diffArgs...); err == nil {
		return "", ErrNothingToCommit
	}

	author := fmt.Sprintf("%s <%s>", authorName, authorEmail)
	if out, err := gitWithIdentity(dir, authorName, authorEmail, "commit", "--quiet", "-m", message, "--author", author); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := git(dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// gitWithIdentity also sets the committer, which git otherwise refuses to
// guess on machines without user.name configured.
func gitWithIdentity(dir, name, email string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+name,
		"GIT_COMMITTER_EMAIL="+email,
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

