package tools

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/swarmmind/swarmmind/core"
)

// CodeExecTool answers the "code_execution" capability: runs a
// sandboxed command with a bounded timeout and captures stdout/stderr,
// used by implementation/testing agents to run the code they generate.
type CodeExecTool struct {
	workDir        string
	allowedCommand string // e.g. "go", "python3"; empty means any command is allowed
	defaultTimeout time.Duration
}

func NewCodeExecTool(workDir, allowedCommand string) *CodeExecTool {
	return &CodeExecTool{workDir: workDir, allowedCommand: allowedCommand, defaultTimeout: 30 * time.Second}
}

func (t *CodeExecTool) Name() string { return "code_execution" }

func (t *CodeExecTool) Describe() string {
	return "executes a command (with arguments) in the workspace directory and returns stdout/stderr/exit code"
}

func (t *CodeExecTool) Execute(ctx context.Context, params map[string]interface{}) (*core.ToolResult, error) {
	command, _ := params["command"].(string)
	if command == "" {
		return &core.ToolResult{Success: false, Error: "code_execution: command is required"}, nil
	}
	if t.allowedCommand != "" && command != t.allowedCommand {
		return &core.ToolResult{Success: false, Error: "code_execution: command not permitted: " + command}, nil
	}

	var args []string
	if raw, ok := params["args"].([]interface{}); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				args = append(args, s)
			}
		}
	}

	timeout := t.defaultTimeout
	if secs, ok := params["timeout_seconds"].(float64); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, args...)
	cmd.Dir = t.workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return &core.ToolResult{Success: false, Error: runErr.Error()}, nil
		}
	}

	return &core.ToolResult{
		Success: exitCode == 0,
		Data: map[string]interface{}{
			"stdout":    stdout.String(),
			"stderr":    stderr.String(),
			"exit_code": exitCode,
		},
	}, nil
}
