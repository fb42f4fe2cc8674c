package vcs

import "fmt"

// ErrorKind tags each failure site of a backend operation. The RPC layer
// maps kinds to stable wire codes; callers must not rely on message text.
type ErrorKind int

const (
	KindRepoNotFound ErrorKind = iota
	KindStatus
	KindIndexOpen
	KindIndexWrite
	KindTreeWrite
	KindTreeLookup
	KindSignature
	KindCommitCreate
	KindWorktreePath
	KindHeadResolve
	KindBranchCreate
	KindWorktreeCreate
)

// Error is a backend failure tagged with the step that produced it.
type Error struct {
	Kind    ErrorKind
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

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
