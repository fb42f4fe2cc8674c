package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge/gitforge/internal/store"
	"github.com/gitforge/gitforge/internal/vcs"
)

func newTestDispatcher(t *testing.T, backend vcs.VCS) *Dispatcher {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "gitforge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if backend == nil {
		backend = &vcs.Mock{}
	}
	return NewDispatcher(backend, st)
}

func dispatch(t *testing.T, d *Dispatcher, id, method, params string) *Response {
	t.Helper()

	req := &Request{
		JSONRPC: ProtocolVersion,
		ID:      json.RawMessage(id),
		Method:  method,
	}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return d.Dispatch(context.Background(), req)
}

func resultMap(t *testing.T, resp *Response) map[string]interface{} {
	t.Helper()

	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)

	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestDispatchUnknownMethod(t *testing.T) {
	d := newTestDispatcher(t, nil)

	resp := dispatch(t, d, `1`, "git_push", "{}")
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "git_push")
	assert.Nil(t, resp.Result)
}

func TestDispatchEchoesIDVerbatim(t *testing.T) {
	d := newTestDispatcher(t, nil)

	for _, id := range []string{`1`, `"abc-123"`, `null`, `3.5`} {
		resp := dispatch(t, d, id, "tools/list", "")
		assert.JSONEq(t, id, string(resp.ID))
		assert.Equal(t, ProtocolVersion, resp.JSONRPC)
	}
}

func TestDispatchResponseHasExactlyOneOfResultError(t *testing.T) {
	d := newTestDispatcher(t, nil)

	ok := dispatch(t, d, `1`, "tools/list", "")
	assert.NotNil(t, ok.Result)
	assert.Nil(t, ok.Error)

	bad := dispatch(t, d, `2`, "nope", "")
	assert.Nil(t, bad.Result)
	assert.NotNil(t, bad.Error)

	// omitempty keeps the absent side off the wire entirely
	data, err := json.Marshal(ok)
	require.NoError(t, err)
	raw := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &raw))
	_, hasResult := raw["result"]
	_, hasError := raw["error"]
	assert.True(t, hasResult)
	assert.False(t, hasError)
}

func TestToolsList(t *testing.T) {
	d := newTestDispatcher(t, nil)

	resp := dispatch(t, d, `1`, "tools/list", "")
	require.Nil(t, resp.Error)

	tools, ok := resp.Result.([]toolDescriptor)
	require.True(t, ok)
	require.Len(t, tools, 4)

	names := []string{tools[0].Name, tools[1].Name, tools[2].Name, tools[3].Name}
	assert.Equal(t, []string{"git_status", "git_commit", "git_create_pr", "git_worktree_create"}, names)
	assert.Empty(t, tools[0].InputSchema)
	assert.Equal(t, "object", tools[1].InputSchema["type"])
}

func TestGitStatusHandler(t *testing.T) {
	backend := &vcs.Mock{
		StatusFunc: func(ctx context.Context) ([]vcs.StatusEntry, error) {
			return []vcs.StatusEntry{{Path: "README.md", Status: "INDEX_NEW"}}, nil
		},
	}
	d := newTestDispatcher(t, backend)

	result := resultMap(t, dispatch(t, d, `1`, "git_status", "{}"))
	assert.Equal(t, true, result["success"])
	assert.EqualValues(t, 1, result["count"])

	files := result["files"].([]interface{})
	require.Len(t, files, 1)
	entry := files[0].(map[string]interface{})
	assert.Equal(t, "README.md", entry["path"])
	assert.Equal(t, "INDEX_NEW", entry["status"])
}

func TestGitStatusMapsRepoNotFound(t *testing.T) {
	backend := &vcs.Mock{
		StatusFunc: func(ctx context.Context) ([]vcs.StatusEntry, error) {
			return nil, &vcs.Error{Kind: vcs.KindRepoNotFound, Message: "repository not found"}
		},
	}
	d := newTestDispatcher(t, backend)

	resp := dispatch(t, d, `1`, "git_status", "{}")
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeRepoNotFound, resp.Error.Code)
	assert.Equal(t, "repository not found", resp.Error.Message)
}

func TestGitCommitHandler(t *testing.T) {
	var gotMessage string
	backend := &vcs.Mock{
		CommitFunc: func(ctx context.Context, message string) (string, error) {
			gotMessage = message
			return "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", nil
		},
	}
	d := newTestDispatcher(t, backend)

	t.Run("uses provided message", func(t *testing.T) {
		result := resultMap(t, dispatch(t, d, `1`, "git_commit", `{"message":"feat: add thing"}`))
		assert.Equal(t, "feat: add thing", gotMessage)
		assert.Equal(t, "feat: add thing", result["message"])
		assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", result["commit"])
	})

	t.Run("defaults the message", func(t *testing.T) {
		result := resultMap(t, dispatch(t, d, `2`, "git_commit", "{}"))
		assert.Equal(t, defaultCommitMessage, gotMessage)
		assert.Equal(t, defaultCommitMessage, result["message"])
	})

	t.Run("maps tagged commit failures", func(t *testing.T) {
		failing := &vcs.Mock{
			CommitFunc: func(ctx context.Context, message string) (string, error) {
				return "", &vcs.Error{Kind: vcs.KindTreeWrite, Message: "failed to write tree"}
			},
		}
		fd := newTestDispatcher(t, failing)

		resp := dispatch(t, fd, `3`, "git_commit", "{}")
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeTreeWrite, resp.Error.Code)
	})
}

func TestGitCreatePRValidation(t *testing.T) {
	d := newTestDispatcher(t, nil)

	t.Run("missing title", func(t *testing.T) {
		resp := dispatch(t, d, `1`, "git_create_pr", "{}")
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInvalidParams, resp.Error.Code)
		assert.Equal(t, "missing 'title'", resp.Error.Message)
	})

	t.Run("non-string title", func(t *testing.T) {
		resp := dispatch(t, d, `2`, "git_create_pr", `{"title":42}`)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInvalidParams, resp.Error.Code)
	})

	t.Run("defaults from and to", func(t *testing.T) {
		result := resultMap(t, dispatch(t, d, `3`, "git_create_pr", `{"title":"Just a title"}`))
		assert.Equal(t, defaultFromBranch, result["from"])
		assert.Equal(t, defaultToBranch, result["to"])
	})
}

func TestCreatePRThenListNewestFirst(t *testing.T) {
	d := newTestDispatcher(t, nil)

	resultMap(t, dispatch(t, d, `1`, "git_create_pr", `{"title":"First","from":"feature/a","to":"main"}`))
	resultMap(t, dispatch(t, d, `2`, "git_create_pr", `{"title":"Second","from":"feature/b","to":"main"}`))

	result := resultMap(t, dispatch(t, d, `3`, "prs_list", "{}"))
	items := result["items"].([]interface{})
	require.Len(t, items, 2)

	first := items[0].(map[string]interface{})
	second := items[1].(map[string]interface{})
	assert.Equal(t, "Second", first["title"])
	assert.Equal(t, "First", second["title"])
	assert.Greater(t, first["id"].(float64), second["id"].(float64))
	assert.Equal(t, "open", first["state"])
}

func TestGitWorktreeCreateValidation(t *testing.T) {
	d := newTestDispatcher(t, nil)

	cases := []struct {
		params  string
		missing string
	}{
		{`{}`, "name"},
		{`{"name":"n"}`, "path"},
		{`{"name":"n","path":"/tmp/p"}`, "branch"},
	}

	for _, tc := range cases {
		resp := dispatch(t, d, `1`, "git_worktree_create", tc.params)
		require.NotNil(t, resp.Error, "params %s", tc.params)
		assert.Equal(t, CodeInvalidParams, resp.Error.Code)
		assert.Equal(t, "missing '"+tc.missing+"'", resp.Error.Message)
	}
}

func TestGitWorktreeCreateAndList(t *testing.T) {
	backend := &vcs.Mock{}
	d := newTestDispatcher(t, backend)

	result := resultMap(t, dispatch(t, d, `1`,
		"git_worktree_create", `{"name":"feature-x","path":"/tmp/wt","branch":"feature/x"}`))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "refs/heads/feature/x", result["ref"])

	// Same name again with new path and branch: last write wins.
	resultMap(t, dispatch(t, d, `2`,
		"git_worktree_create", `{"name":"feature-x","path":"/tmp/wt2","branch":"feature/y"}`))

	listed := resultMap(t, dispatch(t, d, `3`, "git_worktree_list", "{}"))
	items := listed["items"].([]interface{})
	require.Len(t, items, 1)

	row := items[0].(map[string]interface{})
	assert.Equal(t, "feature-x", row["name"])
	assert.Equal(t, "/tmp/wt2", row["path"])
	assert.Equal(t, "feature/y", row["branch"])
}

func TestGitWorktreeCreateBackendFailureSkipsStore(t *testing.T) {
	backend := &vcs.Mock{
		AddWorktreeFunc: func(ctx context.Context, path, branch string) (string, error) {
			return "", &vcs.Error{Kind: vcs.KindHeadResolve, Message: "unable to derive HEAD commit for new branch"}
		},
	}
	d := newTestDispatcher(t, backend)

	resp := dispatch(t, d, `1`,
		"git_worktree_create", `{"name":"n","path":"/tmp/p","branch":"b"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeHeadResolve, resp.Error.Code)

	listed := resultMap(t, dispatch(t, d, `2`, "git_worktree_list", "{}"))
	assert.Empty(t, listed["items"])
}

func TestStoreErrorMapping(t *testing.T) {
	assert.Equal(t, CodeLockPoisoned,
		toWireError(&store.Error{Kind: store.KindLockPoisoned, Message: "db lock poisoned"}).Code)
	assert.Equal(t, CodePRInsert,
		toWireError(&store.Error{Kind: store.KindInsert, Table: store.TablePRs}).Code)
	assert.Equal(t, CodePRScan,
		toWireError(&store.Error{Kind: store.KindScan, Table: store.TablePRs}).Code)
	assert.Equal(t, CodeWorktreeInsert,
		toWireError(&store.Error{Kind: store.KindInsert, Table: store.TableWorktrees}).Code)
	assert.Equal(t, CodeWorktreeList,
		toWireError(&store.Error{Kind: store.KindList, Table: store.TableWorktrees}).Code)
}

func TestDecodeParamsTolerance(t *testing.T) {
	assert.Empty(t, decodeParams(nil))
	assert.Empty(t, decodeParams(json.RawMessage(`null`)))
	assert.Empty(t, decodeParams(json.RawMessage(`[1,2]`)))
	assert.Equal(t, "x", decodeParams(json.RawMessage(`{"a":"x"}`))["a"])
}
