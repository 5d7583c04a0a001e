// Package tools implements the uniform tool invocation contract (spec
// §4.2): a capability->tool index plus a handful of concrete tool
// adapters (filesystem, code execution, http, database, web search,
// git) that agents reach through core.Tool rather than a concrete type.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/swarmmind/swarmmind/core"
)

// Registry is a read-mostly capability->tool index, shareable across
// agents (spec §4.2: "the registry is read-mostly and may be shared
// across agents").
type Registry struct {
	mu    sync.RWMutex
	tools map[string]core.Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]core.Tool)}
}

// Register adds t under its own Name(), failing if that capability is
// already bound.
func (r *Registry) Register(t core.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return core.Wrap("tools", "Register", name, core.ErrAlreadyRegistered)
	}
	r.tools[name] = t
	return nil
}

// Resolve returns the tool bound to capability, if any.
func (r *Registry) Resolve(capability string) (core.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[capability]
	return t, ok
}

// List returns every registered capability name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	return out
}

var _ core.ToolRegistry = (*Registry)(nil)

// GetToolsForCapability mirrors the spec's get_tools_for_capability
// naming; the registry binds exactly one tool per capability string,
// so this always returns zero or one handle (spec §4.2: "returns zero
// or more tool handles").
func (r *Registry) GetToolsForCapability(cap string) []core.Tool {
	if t, ok := r.Resolve(cap); ok {
		return []core.Tool{t}
	}
	return nil
}

func errNotFound(capability string) error {
	return fmt.Errorf("tools: no tool registered for capability %q", capability)
}

// ExecuteCapability resolves capability and invokes it in one call,
// the common path agents take when dispatching a tool_call action.
func (r *Registry) ExecuteCapability(ctx context.Context, capability string, params map[string]interface{}) (*core.ToolResult, error) {
	t, ok := r.Resolve(capability)
	if !ok {
		return nil, errNotFound(capability)
	}
	return t.Execute(ctx, params)
}
