package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsThenThrottles(t *testing.T) {
	rl := NewRateLimiter(20 * time.Millisecond)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
	time.Sleep(25 * time.Millisecond)
	assert.True(t, rl.Allow())
}

func TestLoggerWithComponentInheritsConfig(t *testing.T) {
	l := NewLogger()
	scoped := l.WithComponent("swarm/coordinator")
	assert.Equal(t, "swarm/coordinator", scoped.component)
	assert.Equal(t, l.format, scoped.format)
}
