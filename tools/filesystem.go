package tools

import (
	"context"
	"os"
	"path/filepath"

	"github.com/swarmmind/swarmmind/core"
)

// FilesystemTool answers the "filesystem" capability: read, write, and
// list operations rooted under a fixed workspace directory so agent
// output never escapes the project sandbox.
type FilesystemTool struct {
	root string
}

func NewFilesystemTool(root string) *FilesystemTool {
	return &FilesystemTool{root: root}
}

func (t *FilesystemTool) Name() string { return "filesystem" }

func (t *FilesystemTool) Describe() string {
	return "reads, writes and lists files under the agent workspace (operations: read, write, list, mkdir)"
}

// resolve joins a caller-supplied relative path against root. Prefixing
// the cleaned path with "/" before joining means filepath.Clean
// collapses any leading ".." segments at the synthetic root, so the
// result can never climb above t.root no matter what rel contains.
func (t *FilesystemTool) resolve(rel string) (string, error) {
	return filepath.Join(t.root, filepath.Clean("/"+rel)), nil
}

func (t *FilesystemTool) Execute(ctx context.Context, params map[string]interface{}) (*core.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	op, _ := params["operation"].(string)
	path, _ := params["path"].(string)

	abs, err := t.resolve(path)
	if err != nil {
		return &core.ToolResult{Success: false, Error: err.Error()}, nil
	}

	switch op {
	case "write":
		content, _ := params["content"].(string)
		if mkErr := os.MkdirAll(filepath.Dir(abs), 0o755); mkErr != nil {
			return &core.ToolResult{Success: false, Error: mkErr.Error()}, nil
		}
		if wErr := os.WriteFile(abs, []byte(content), 0o644); wErr != nil {
			return &core.ToolResult{Success: false, Error: wErr.Error()}, nil
		}
		return &core.ToolResult{Success: true, Data: map[string]interface{}{"path": path, "bytes_written": len(content)}}, nil

	case "read":
		data, rErr := os.ReadFile(abs)
		if rErr != nil {
			return &core.ToolResult{Success: false, Error: rErr.Error()}, nil
		}
		return &core.ToolResult{Success: true, Data: map[string]interface{}{"path": path, "content": string(data)}}, nil

	case "mkdir":
		if mkErr := os.MkdirAll(abs, 0o755); mkErr != nil {
			return &core.ToolResult{Success: false, Error: mkErr.Error()}, nil
		}
		return &core.ToolResult{Success: true, Data: map[string]interface{}{"path": path}}, nil

	case "list":
		entries, lErr := os.ReadDir(abs)
		if lErr != nil {
			return &core.ToolResult{Success: false, Error: lErr.Error()}, nil
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return &core.ToolResult{Success: true, Data: map[string]interface{}{"path": path, "entries": names}}, nil

	default:
		return &core.ToolResult{Success: false, Error: "unknown filesystem operation: " + op}, nil
	}
}
