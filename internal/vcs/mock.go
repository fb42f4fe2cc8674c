package vcs

import "context"

// Mock is a configurable VCS implementation for tests.
type Mock struct {
	StatusFunc      func(ctx context.Context) ([]StatusEntry, error)
	CommitFunc      func(ctx context.Context, message string) (string, error)
	AddWorktreeFunc func(ctx context.Context, path, branch string) (string, error)
}

func (m *Mock) Status(ctx context.Context) ([]StatusEntry, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return nil, nil
}

func (m *Mock) Commit(ctx context.Context, message string) (string, error) {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx, message)
	}
	return "", nil
}

func (m *Mock) AddWorktree(ctx context.Context, path, branch string) (string, error) {
	if m.AddWorktreeFunc != nil {
		return m.AddWorktreeFunc(ctx, path, branch)
	}
	return "refs/heads/" + branch, nil
}
