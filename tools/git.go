package tools

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/swarmmind/swarmmind/core"
)

// GitTool answers the "git" capability by shelling out to the system
// git binary scoped to a fixed repository directory, covering the
// operations the deployment/implementation agents need: status, add,
// commit, diff, log.
type GitTool struct {
	repoDir string
}

func NewGitTool(repoDir string) *GitTool {
	return &GitTool{repoDir: repoDir}
}

func (t *GitTool) Name() string { return "git" }

func (t *GitTool) Describe() string {
	return "runs a git subcommand (status, add, commit, diff, log) against the workspace repository"
}

var allowedGitSubcommands = map[string]bool{
	"status": true, "add": true, "commit": true, "diff": true, "log": true, "init": true,
}

func (t *GitTool) Execute(ctx context.Context, params map[string]interface{}) (*core.ToolResult, error) {
	subcommand, _ := params["subcommand"].(string)
	if !allowedGitSubcommands[subcommand] {
		return &core.ToolResult{Success: false, Error: "git: unsupported subcommand: " + subcommand}, nil
	}

	args := []string{subcommand}
	if raw, ok := params["args"].([]interface{}); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				args = append(args, s)
			}
		}
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = t.repoDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	success := err == nil
	return &core.ToolResult{
		Success: success,
		Data: map[string]interface{}{
			"stdout": stdout.String(),
			"stderr": stderr.String(),
		},
		Error: errString(err),
	}, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
