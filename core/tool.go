package core

import "context"

// ToolResult is the uniform envelope every tool invocation returns,
// regardless of what kind of tool it wraps (spec §4.2: "execute(params)
// -> {success, data, error}").
type ToolResult struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Tool is the uniform invocation contract every registered capability
// implementation satisfies (spec §4.2). Concrete tools (filesystem,
// code execution, http, database, web search, git) live in package
// tools; core only declares the shape so agents can depend on Tool
// without importing tools directly and risking a cycle.
type Tool interface {
	// Name is the capability string this tool answers to, e.g.
	// "filesystem" or "http".
	Name() string
	// Describe is a short human-readable description surfaced in
	// tool-selection prompts for cognitive/hybrid agents.
	Describe() string
	// Execute runs the tool against params and reports failures in the
	// returned ToolResult rather than as Go errors. Among the tools in
	// package tools, only FilesystemTool returns a Go error, the
	// context's error when ctx is already done on entry; the others
	// report a cancelled or timed-out call in the ToolResult too.
	Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error)
}

// ToolRegistry resolves capability names to Tool implementations. The
// concrete implementation lives in package tools; this interface lets
// core.Agent-adjacent code (and tests) depend on the contract only.
type ToolRegistry interface {
	Resolve(capability string) (Tool, bool)
	Register(t Tool) error
	List() []string
}
