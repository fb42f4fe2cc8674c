package mcp

import (
	"errors"

	"github.com/gitforge/gitforge/internal/store"
	"github.com/gitforge/gitforge/internal/vcs"
)

// Wire error codes. These are part of the client contract and must not
// change between releases.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeRepoNotFound   = -32000
	CodeStatusFailed   = -32001
	CodeIndexOpen      = -32002
	CodeIndexWrite     = -32003
	CodeTreeWrite      = -32004
	CodeTreeLookup     = -32005
	CodeSignature      = -32006
	CodeCommitCreate   = -32007
	CodeLockPoisoned   = -32010
	CodePRInsert       = -32011
	CodePRQuery        = -32012
	CodePRList         = -32013
	CodePRScan         = -32014
	CodeWorktreePath   = -32015
	CodeHeadResolve    = -32016
	CodeBranchCreate   = -32017
	CodeWorktreeCreate = -32018
	CodeWorktreeInsert = -32019
	CodeWorktreeQuery  = -32020
	CodeWorktreeList   = -32021
	CodeWorktreeScan   = -32022
)

var vcsKindCodes = map[vcs.ErrorKind]int{
	vcs.KindRepoNotFound:   CodeRepoNotFound,
	vcs.KindStatus:         CodeStatusFailed,
	vcs.KindIndexOpen:      CodeIndexOpen,
	vcs.KindIndexWrite:     CodeIndexWrite,
	vcs.KindTreeWrite:      CodeTreeWrite,
	vcs.KindTreeLookup:     CodeTreeLookup,
	vcs.KindSignature:      CodeSignature,
	vcs.KindCommitCreate:   CodeCommitCreate,
	vcs.KindWorktreePath:   CodeWorktreePath,
	vcs.KindHeadResolve:    CodeHeadResolve,
	vcs.KindBranchCreate:   CodeBranchCreate,
	vcs.KindWorktreeCreate: CodeWorktreeCreate,
}

var storeKindCodes = map[string]map[store.Kind]int{
	store.TablePRs: {
		store.KindInsert: CodePRInsert,
		store.KindQuery:  CodePRQuery,
		store.KindList:   CodePRList,
		store.KindScan:   CodePRScan,
	},
	store.TableWorktrees: {
		store.KindInsert: CodeWorktreeInsert,
		store.KindQuery:  CodeWorktreeQuery,
		store.KindList:   CodeWorktreeList,
		store.KindScan:   CodeWorktreeScan,
	},
}

// toWireError maps a tagged backend or store error to its stable wire code.
// This is the single point where error kinds become {code, message} pairs.
func toWireError(err error) *Error {
	var verr *vcs.Error
	if errors.As(err, &verr) {
		if code, ok := vcsKindCodes[verr.Kind]; ok {
			return &Error{Code: code, Message: verr.Error()}
		}
	}

	var serr *store.Error
	if errors.As(err, &serr) {
		if serr.Kind == store.KindLockPoisoned {
			return &Error{Code: CodeLockPoisoned, Message: serr.Error()}
		}
		if codes, ok := storeKindCodes[serr.Table]; ok {
			if code, ok := codes[serr.Kind]; ok {
				return &Error{Code: code, Message: serr.Error()}
			}
		}
	}

	return &Error{Code: CodeInternalError, Message: err.Error()}
}
