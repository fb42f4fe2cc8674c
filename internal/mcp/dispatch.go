package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gitforge/gitforge/internal/store"
	"github.com/gitforge/gitforge/internal/vcs"
)

// Defaults applied when optional parameters are absent.
const (
	defaultCommitMessage = "MCP commit"
	defaultFromBranch    = "feature"
	defaultToBranch      = "main"
)

type handlerFunc func(ctx context.Context, params map[string]interface{}) (interface{}, *Error)

// Dispatcher routes a parsed request to its handler. It is stateless
// beyond delegation to the backend and the store.
type Dispatcher struct {
	backend vcs.VCS
	store   *store.Store
	table   map[string]handlerFunc
}

// NewDispatcher builds the fixed method table over the given backend and
// store.
func NewDispatcher(backend vcs.VCS, st *store.Store) *Dispatcher {
	d := &Dispatcher{backend: backend, store: st}
	d.table = map[string]handlerFunc{
		"tools/list":          d.toolsList,
		"git_status":          d.gitStatus,
		"git_commit":          d.gitCommit,
		"git_create_pr":       d.gitCreatePR,
		"prs_list":            d.prsList,
		"git_worktree_create": d.gitWorktreeCreate,
		"git_worktree_list":   d.gitWorktreeList,
	}
	return d
}

// Dispatch resolves the method and produces the response envelope, echoing
// the request id verbatim.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	handler, ok := d.table[req.Method]
	if !ok {
		return errorResponse(req.ID, &Error{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("method '%s' not found", req.Method),
		})
	}

	result, rpcErr := handler(ctx, decodeParams(req.Params))
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr)
	}
	return successResponse(req.ID, result)
}

// decodeParams turns the raw params value into a map. Null, absent or
// non-object params become an empty map; handlers then report whichever
// required field they miss first.
func decodeParams(raw json.RawMessage) map[string]interface{} {
	params := map[string]interface{}{}
	if len(raw) == 0 {
		return params
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return map[string]interface{}{}
	}
	return params
}

// requiredString extracts a required string parameter.
func requiredString(params map[string]interface{}, key string) (string, *Error) {
	v, ok := params[key].(string)
	if !ok {
		return "", &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("missing '%s'", key)}
	}
	return v, nil
}

// optionalString extracts an optional string parameter with a default.
func optionalString(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return fallback
}

func (d *Dispatcher) toolsList(ctx context.Context, params map[string]interface{}) (interface{}, *Error) {
	return toolDescriptors, nil
}

type statusResult struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	Files   []vcs.StatusEntry `json:"files"`
}

func (d *Dispatcher) gitStatus(ctx context.Context, params map[string]interface{}) (interface{}, *Error) {
	files, err := d.backend.Status(ctx)
	if err != nil {
		return nil, toWireError(err)
	}
	return statusResult{Success: true, Count: len(files), Files: files}, nil
}

type commitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Commit  string `json:"commit"`
}

func (d *Dispatcher) gitCommit(ctx context.Context, params map[string]interface{}) (interface{}, *Error) {
	message := optionalString(params, "message", defaultCommitMessage)

	commitID, err := d.backend.Commit(ctx, message)
	if err != nil {
		return nil, toWireError(err)
	}
	return commitResult{Success: true, Message: message, Commit: commitID}, nil
}

type createPRResult struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
	From    string `json:"from"`
	To      string `json:"to"`
	ID      int64  `json:"id"`
}

func (d *Dispatcher) gitCreatePR(ctx context.Context, params map[string]interface{}) (interface{}, *Error) {
	title, rpcErr := requiredString(params, "title")
	if rpcErr != nil {
		return nil, rpcErr
	}
	from := optionalString(params, "from", defaultFromBranch)
	to := optionalString(params, "to", defaultToBranch)

	id, err := d.store.InsertPR(ctx, title, from, to)
	if err != nil {
		return nil, toWireError(err)
	}
	return createPRResult{Success: true, Title: title, From: from, To: to, ID: id}, nil
}

type listResult struct {
	Items interface{} `json:"items"`
}

func (d *Dispatcher) prsList(ctx context.Context, params map[string]interface{}) (interface{}, *Error) {
	items, err := d.store.ListPRs(ctx)
	if err != nil {
		return nil, toWireError(err)
	}
	return listResult{Items: items}, nil
}

type worktreeCreateResult struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Branch  string `json:"branch"`
	Ref     string `json:"ref"`
}

func (d *Dispatcher) gitWorktreeCreate(ctx context.Context, params map[string]interface{}) (interface{}, *Error) {
	name, rpcErr := requiredString(params, "name")
	if rpcErr != nil {
		return nil, rpcErr
	}
	path, rpcErr := requiredString(params, "path")
	if rpcErr != nil {
		return nil, rpcErr
	}
	branch, rpcErr := requiredString(params, "branch")
	if rpcErr != nil {
		return nil, rpcErr
	}

	ref, err := d.backend.AddWorktree(ctx, path, branch)
	if err != nil {
		return nil, toWireError(err)
	}

	if err := d.store.UpsertWorktree(ctx, name, path, branch); err != nil {
		return nil, toWireError(err)
	}

	return worktreeCreateResult{Success: true, Name: name, Path: path, Branch: branch, Ref: ref}, nil
}

func (d *Dispatcher) gitWorktreeList(ctx context.Context, params map[string]interface{}) (interface{}, *Error) {
	items, err := d.store.ListWorktrees(ctx)
	if err != nil {
		return nil, toWireError(err)
	}
	return listResult{Items: items}, nil
}
