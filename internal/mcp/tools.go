package mcp

// toolDescriptor describes one capability advertised by tools/list.
type toolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// toolDescriptors is the fixed capability array. Clients match on the
// exact shapes, so entries are reproduced verbatim.
var toolDescriptors = []toolDescriptor{
	{
		Name:        "git_status",
		Description: "Show git repository status",
		InputSchema: map[string]interface{}{},
	},
	{
		Name:        "git_commit",
		Description: "Create commit from current index",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"message": map[string]interface{}{"type": "string"},
			},
			"required": []string{"message"},
		},
	},
	{
		Name:        "git_create_pr",
		Description: "Create pull request metadata record",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title": map[string]interface{}{"type": "string"},
				"from":  map[string]interface{}{"type": "string"},
				"to":    map[string]interface{}{"type": "string"},
			},
			"required": []string{"title", "from", "to"},
		},
	},
	{
		Name:        "git_worktree_create",
		Description: "Create git worktree and register in sqlite",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":   map[string]interface{}{"type": "string"},
				"path":   map[string]interface{}{"type": "string"},
				"branch": map[string]interface{}{"type": "string"},
			},
			"required": []string{"name", "path", "branch"},
		},
	},
}
