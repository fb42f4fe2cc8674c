package store

import "fmt"

// Kind tags each failure site of a store operation.
type Kind int

const (
	KindLockPoisoned Kind = iota
	KindInsert
	KindQuery
	KindList
	KindScan
)

// Table names, carried on errors so the RPC layer can map a kind to the
// per-table wire code.
const (
	TablePRs       = "prs"
	TableWorktrees = "worktrees"
)

// Error is a store failure tagged with the step and table that produced it.
type Error struct {
	Kind    Kind
	Table   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, table, message string, err error) *Error {
	return &Error{Kind: kind, Table: table, Message: message, Err: err}
}

func poisonedError() *Error {
	return &Error{Kind: KindLockPoisoned, Message: "db lock poisoned"}
}
