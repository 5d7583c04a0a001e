package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/core"
)

type stubTool struct{ name string }

func (s stubTool) Name() string     { return s.name }
func (s stubTool) Describe() string { return "stub" }
func (s stubTool) Execute(ctx context.Context, params map[string]interface{}) (*core.ToolResult, error) {
	return &core.ToolResult{Success: true}, nil
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTool{name: "http"}))
	tool, ok := r.Resolve("http")
	require.True(t, ok)
	assert.Equal(t, "http", tool.Name())
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTool{name: "http"}))
	err := r.Register(stubTool{name: "http"})
	assert.ErrorIs(t, err, core.ErrAlreadyRegistered)
}

func TestRegistryResolveMissingCapability(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Resolve("does-not-exist")
	assert.False(t, ok)
}

func TestFilesystemToolWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := NewFilesystemTool(dir)
	ctx := context.Background()

	writeRes, err := fs.Execute(ctx, map[string]interface{}{
		"operation": "write", "path": "src/models/user.go", "content": "package models",
	})
	require.NoError(t, err)
	require.True(t, writeRes.Success)

	readRes, err := fs.Execute(ctx, map[string]interface{}{"operation": "read", "path": "src/models/user.go"})
	require.NoError(t, err)
	require.True(t, readRes.Success)
	assert.Equal(t, "package models", readRes.Data["content"])
}

func TestFilesystemToolCannotEscapeRoot(t *testing.T) {
	dir := t.TempDir()
	fs := NewFilesystemTool(dir)
	res, err := fs.Execute(context.Background(), map[string]interface{}{
		"operation": "write", "path": "../../etc/passwd", "content": "pwned",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, dir+"/etc/passwd", mustResolve(t, fs, "../../etc/passwd"))
}

func mustResolve(t *testing.T, fs *FilesystemTool, rel string) string {
	t.Helper()
	abs, err := fs.resolve(rel)
	require.NoError(t, err)
	return abs
}
