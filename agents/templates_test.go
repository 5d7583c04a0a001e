package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/core"
)

func TestNewFromTemplateAppliesRoleAndCapabilities(t *testing.T) {
	agent := NewFromTemplate("d1", "dev-1", "developer")
	assert.Equal(t, "developer", agent.Role)
	assert.Equal(t, core.ModeCognitive, agent.Mode)
	assert.True(t, agent.Capabilities.Has("implementation"))
}

func TestNewFromTemplateUnknownFallsBackToReactive(t *testing.T) {
	agent := NewFromTemplate("x1", "x-1", "does-not-exist")
	assert.Equal(t, core.ModeReactive, agent.Mode)
}

func TestRegisterTemplateOverridesDefault(t *testing.T) {
	RegisterTemplate(Template{Name: "tester-custom", Role: "custom_role", Mode: core.ModeHybrid, Capabilities: []string{"x"}})
	tpl, ok := LookupTemplate("tester-custom")
	require.True(t, ok)
	assert.Equal(t, "custom_role", tpl.Role)
}
