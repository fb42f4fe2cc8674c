package vcs

import "context"

// StatusEntry describes one path in the working-tree status.
type StatusEntry struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// VCS is the narrow backend interface the RPC dispatcher depends on.
// Implementations translate version-control primitives into the tagged
// error kinds defined in errors.go.
type VCS interface {
	// Status enumerates working-tree status, including untracked files and
	// the contents of untracked directories.
	Status(ctx context.Context) ([]StatusEntry, error)

	// Commit writes the index, builds a tree and creates a commit moving
	// HEAD. The commit has the prior HEAD as sole parent, or no parents on
	// an empty repository. Returns the new commit id.
	Commit(ctx context.Context, message string) (string, error)

	// AddWorktree creates the target directory if absent, creates the
	// branch from HEAD if it does not exist yet, and registers a worktree
	// at path checked out on branch. A relative path is resolved against
	// the repository root. Returns the full branch refname.
	AddWorktree(ctx context.Context, path, branch string) (string, error)
}
