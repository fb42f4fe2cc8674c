// Package store provides the durable registry for pull request and
// worktree records, backed by a SQLite file at the repository root.
//
// The underlying connection is not safe for concurrent use, so every
// operation runs under one exclusive lock shared by all connections. A
// panic inside a critical section marks the lock poisoned; later
// acquisitions fail fast instead of hanging or crashing the process.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS prs (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	from_branch TEXT,
	to_branch TEXT,
	state TEXT DEFAULT 'open',
	created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS worktrees (
	id INTEGER PRIMARY KEY,
	name TEXT UNIQUE,
	path TEXT,
	branch TEXT,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
`

// PullRequest is one row of the prs table.
type PullRequest struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	From      string `json:"from"`
	To        string `json:"to"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
}

// Worktree is one row of the worktrees table. The name is the unique key;
// re-registering a name replaces the row (last-write-wins) and leaves any
// previously created directory on disk for the caller to clean up.
type Worktree struct {
	ID        int64  `json:"-"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Branch    string `json:"branch"`
	CreatedAt string `json:"created_at"`
}

// Store owns the SQLite handle for one server instance.
type Store struct {
	mu       sync.Mutex
	db       *sql.DB
	poisoned bool
}

// Open opens (or creates) the database at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// withLock runs fn under the store's exclusive lock. A panic inside fn
// poisons the lock and is reported as an error instead of crashing.
func (s *Store) withLock(fn func(db *sql.DB) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return poisonedError()
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			err = poisonedError()
		}
	}()

	return fn(s.db)
}

// InsertPR inserts a pull request record and returns its id.
func (s *Store) InsertPR(ctx context.Context, title, from, to string) (int64, error) {
	var id int64
	err := s.withLock(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			"INSERT INTO prs (title, from_branch, to_branch) VALUES (?, ?, ?)",
			title, from, to)
		if err != nil {
			return newError(KindInsert, TablePRs, "failed to save PR", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return newError(KindInsert, TablePRs, "failed to save PR", err)
		}
		return nil
	})
	return id, err
}

// ListPRs returns all pull request records, newest (highest id) first.
func (s *Store) ListPRs(ctx context.Context) ([]PullRequest, error) {
	items := []PullRequest{}
	err := s.withLock(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			"SELECT id, title, from_branch, to_branch, state, created_at FROM prs ORDER BY id DESC")
		if err != nil {
			return newError(KindQuery, TablePRs, "failed to prepare query", err)
		}
		defer rows.Close()

		for rows.Next() {
			var pr PullRequest
			if err := rows.Scan(&pr.ID, &pr.Title, &pr.From, &pr.To, &pr.State, &pr.CreatedAt); err != nil {
				return newError(KindScan, TablePRs, "failed to parse PR row", err)
			}
			items = append(items, pr)
		}
		if err := rows.Err(); err != nil {
			return newError(KindList, TablePRs, "failed to list PRs", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertWorktree registers a worktree under its unique name, replacing any
// existing row for that name.
func (s *Store) UpsertWorktree(ctx context.Context, name, path, branch string) error {
	return s.withLock(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			"INSERT OR REPLACE INTO worktrees (name, path, branch) VALUES (?, ?, ?)",
			name, path, branch)
		if err != nil {
			return newError(KindInsert, TableWorktrees, "failed to register worktree", err)
		}
		return nil
	})
}

// ListWorktrees returns all worktree records, newest (highest id) first.
func (s *Store) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	items := []Worktree{}
	err := s.withLock(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			"SELECT id, name, path, branch, created_at FROM worktrees ORDER BY id DESC")
		if err != nil {
			return newError(KindQuery, TableWorktrees, "failed to prepare query", err)
		}
		defer rows.Close()

		for rows.Next() {
			var wt Worktree
			if err := rows.Scan(&wt.ID, &wt.Name, &wt.Path, &wt.Branch, &wt.CreatedAt); err != nil {
				return newError(KindScan, TableWorktrees, "failed to parse worktree row", err)
			}
			items = append(items, wt)
		}
		if err := rows.Err(); err != nil {
			return newError(KindList, TableWorktrees, "failed to list worktrees", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
