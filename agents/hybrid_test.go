package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swarmmind/swarmmind/core"
)

func newTestHybrid() *HybridBehavior {
	agent := core.NewAgent("h1", "hybrid-1", "worker", core.ModeHybrid)
	return NewHybridBehavior(NewReactiveBehavior(agent), NewCognitiveBehavior(nil, nil))
}

func TestModeSelectionThresholds(t *testing.T) {
	h := newTestHybrid()
	assert.Equal(t, core.ModeReactive, h.Mode(0.1))
	assert.Equal(t, core.ModeCognitive, h.Mode(10))
	assert.Equal(t, core.ModeHybrid, h.Mode(1.0))
}

func TestComplexityScoreWeightsFactors(t *testing.T) {
	h := newTestHybrid()
	score := h.ComplexityScore(complexityFactors{
		stimuliCount: 10, uniqueTypes: 3, maxPriority: 2, interdependencies: 1, requiresReasoning: true,
	})
	expected := 0.1*10 + 0.2*3 + 0.1*2 + 0.3*1 + 1.0
	assert.InDelta(t, expected, score, 0.0001)
}

func TestThresholdLearningClampedToBounds(t *testing.T) {
	h := newTestHybrid()
	for i := 0; i < experienceBatchSize; i++ {
		h.LogExperience(1.0, core.ModeReactive, true, 1.0)
		h.LogExperience(1.0, core.ModeCognitive, false, 1.0)
	}
	assert.GreaterOrEqual(t, h.Threshold(), minThreshold)
	assert.LessOrEqual(t, h.Threshold(), maxThreshold)
	assert.Greater(t, h.Threshold(), 1.0) // reactive dominated => threshold rises
}

func TestThresholdLearningNoiseWhenNoDominance(t *testing.T) {
	h := newTestHybrid()
	for i := 0; i < experienceBatchSize/2; i++ {
		h.LogExperience(1.0, core.ModeReactive, true, 1.0)
		h.LogExperience(1.0, core.ModeCognitive, true, 1.0)
	}
	assert.Equal(t, 1.0, h.Threshold())
}
