package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsAreValid(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "hybrid", cfg.Agents.DefaultMode)
	assert.Equal(t, 600, int(cfg.LLM.TimeoutReasoning.Seconds()))
}

func TestOptionsOverrideDefaults(t *testing.T) {
	cfg, err := New(
		WithLLMProvider("openai", "sk-test", "gpt-4o"),
		WithAgentPool(2, 1, 8),
	)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Agents.MaxPoolSize)
}

func TestValidateRejectsInvertedPoolBounds(t *testing.T) {
	_, err := New(WithAgentPool(5, 10, 2))
	assert.Error(t, err)
}

func TestEnvOverridesDefaultButNotOption(t *testing.T) {
	t.Setenv("SWARMMIND_LLM_MODEL", "from-env")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.Model)

	cfg2, err := New(WithLLMProvider("openai", "", "from-option"))
	require.NoError(t, err)
	assert.Equal(t, "from-option", cfg2.LLM.Model)
}
