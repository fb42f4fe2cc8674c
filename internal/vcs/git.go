package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Identity used when the repository has no configured user.
const (
	botName  = "GitForge MCP"
	botEmail = "mcp@gitforge.dev"
)

// Git implements the VCS interface against the git executable rooted at a
// single repository path.
type Git struct {
	root string
}

// NewGit creates a Git backend for the repository at root.
func NewGit(root string) *Git {
	return &Git{root: root}
}

// Root returns the configured repository root.
func (g *Git) Root() string {
	return g.root
}

// run executes a git command in the repository and returns trimmed stdout.
func (g *Git) run(ctx context.Context, extraEnv []string, args ...string) (string, error) {
	out, err := g.runRaw(ctx, extraEnv, args...)
	return strings.TrimSpace(out), err
}

// runRaw is run without output trimming, for NUL-delimited formats where
// leading whitespace is significant.
func (g *Git) runRaw(ctx context.Context, extraEnv []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", g.root}, args...)...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return "", fmt.Errorf("git %s: %s: %w", args[0], detail, err)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}

// ensureRepo verifies the configured root is a git repository.
func (g *Git) ensureRepo(ctx context.Context) error {
	if _, err := g.run(ctx, nil, "rev-parse", "--git-dir"); err != nil {
		return newError(KindRepoNotFound, "repository not found", err)
	}
	return nil
}

// Status runs a porcelain status including untracked files and recursing
// into untracked directories.
func (g *Git) Status(ctx context.Context) ([]StatusEntry, error) {
	if err := g.ensureRepo(ctx); err != nil {
		return nil, err
	}

	out, err := g.runRaw(ctx, nil, "status", "--porcelain", "-z", "--untracked-files=all")
	if err != nil {
		return nil, newError(KindStatus, "failed to read status", err)
	}

	entries := []StatusEntry{}
	fields := strings.Split(out, "\x00")
	for i := 0; i < len(fields); i++ {
		line := fields[i]
		if len(line) < 4 {
			continue
		}
		x, y := line[0], line[1]
		path := line[3:]
		// Renames and copies carry the original path in the next field.
		if x == 'R' || x == 'C' {
			i++
		}
		entries = append(entries, StatusEntry{Path: path, Status: statusLabel(x, y)})
	}

	return entries, nil
}

// statusLabel projects a porcelain XY pair onto the label vocabulary used
// in status results (INDEX_* for staged state, WT_* for the working tree).
func statusLabel(x, y byte) string {
	if x == '?' || y == '?' {
		return "WT_NEW"
	}
	if x == '!' || y == '!' {
		return "IGNORED"
	}

	var parts []string
	switch x {
	case 'A':
		parts = append(parts, "INDEX_NEW")
	case 'M':
		parts = append(parts, "INDEX_MODIFIED")
	case 'D':
		parts = append(parts, "INDEX_DELETED")
	case 'R':
		parts = append(parts, "INDEX_RENAMED")
	case 'C':
		parts = append(parts, "INDEX_COPIED")
	case 'T':
		parts = append(parts, "INDEX_TYPECHANGE")
	}
	switch y {
	case 'M':
		parts = append(parts, "WT_MODIFIED")
	case 'D':
		parts = append(parts, "WT_DELETED")
	case 'R':
		parts = append(parts, "WT_RENAMED")
	case 'T':
		parts = append(parts, "WT_TYPECHANGE")
	}

	if len(parts) == 0 {
		return "CURRENT"
	}
	return strings.Join(parts, " | ")
}

// Commit performs the stepwise commit sequence. Each step surfaces its own
// error kind; a partially completed sequence is not rolled back.
func (g *Git) Commit(ctx context.Context, message string) (string, error) {
	if err := g.ensureRepo(ctx); err != nil {
		return "", err
	}

	if _, err := g.run(ctx, nil, "rev-parse", "--git-path", "index"); err != nil {
		return "", newError(KindIndexOpen, "failed to open index", err)
	}

	if _, err := g.run(ctx, nil, "update-index", "-q", "--refresh"); err != nil {
		return "", newError(KindIndexWrite, "failed to write index", err)
	}

	treeID, err := g.run(ctx, nil, "write-tree")
	if err != nil {
		return "", newError(KindTreeWrite, "failed to write tree", err)
	}

	if _, err := g.run(ctx, nil, "cat-file", "-e", treeID); err != nil {
		return "", newError(KindTreeLookup, "failed to find tree", err)
	}

	name, email, err := g.resolveSignature(ctx)
	if err != nil {
		return "", newError(KindSignature, "failed to create signature", err)
	}

	// No HEAD yet means a root commit with zero parents.
	parent, _ := g.run(ctx, nil, "rev-parse", "--verify", "--quiet", "HEAD^{commit}")

	env := []string{
		"GIT_AUTHOR_NAME=" + name,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_COMMITTER_NAME=" + name,
		"GIT_COMMITTER_EMAIL=" + email,
	}
	args := []string{"commit-tree", treeID, "-m", message}
	if parent != "" {
		args = append(args, "-p", parent)
	}

	commitID, err := g.run(ctx, env, args...)
	if err != nil {
		return "", newError(KindCommitCreate, "failed to commit", err)
	}

	if _, err := g.run(ctx, nil, "update-ref", "HEAD", commitID); err != nil {
		return "", newError(KindCommitCreate, "failed to commit", err)
	}

	return commitID, nil
}

// resolveSignature prefers the repository's configured identity and falls
// back to the fixed bot identity when none is set.
func (g *Git) resolveSignature(ctx context.Context) (string, string, error) {
	name, err := g.configValue(ctx, "user.name")
	if err != nil {
		return "", "", err
	}
	email, err := g.configValue(ctx, "user.email")
	if err != nil {
		return "", "", err
	}

	if name == "" || email == "" {
		return botName, botEmail, nil
	}
	return name, email, nil
}

// configValue reads a git config key. An unset key (exit status 1) is not
// an error.
func (g *Git) configValue(ctx context.Context, key string) (string, error) {
	out, err := g.run(ctx, nil, "config", "--get", key)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// AddWorktree ensures the branch exists (creating it from HEAD when it does
// not) and checks out a worktree for it at path. A relative path is taken
// relative to the repository root, not the process working directory. The
// existence check and the creation are not atomic; a racing duplicate
// request surfaces as a branch-create failure.
func (g *Git) AddWorktree(ctx context.Context, path, branch string) (string, error) {
	if err := g.ensureRepo(ctx); err != nil {
		return "", err
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", newError(KindWorktreePath, "failed to create worktree path", err)
		}
	}

	refname := "refs/heads/" + branch
	if _, err := g.run(ctx, nil, "show-ref", "--verify", "--quiet", refname); err != nil {
		head, err := g.run(ctx, nil, "rev-parse", "--verify", "--quiet", "HEAD^{commit}")
		if err != nil || head == "" {
			return "", newError(KindHeadResolve, "unable to derive HEAD commit for new branch", err)
		}
		if _, err := g.run(ctx, nil, "branch", branch, head); err != nil {
			return "", newError(KindBranchCreate, "failed to create branch", err)
		}
	}

	if _, err := g.run(ctx, nil, "worktree", "add", path, branch); err != nil {
		return "", newError(KindWorktreeCreate, "failed to create worktree", err)
	}

	return refname, nil
}
