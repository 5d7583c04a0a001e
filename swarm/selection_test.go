package swarm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swarmmind/swarmmind/core"
)

func newScoringTask(taskType core.TaskType, requiredAgentType string) *core.Task {
	task := core.NewTask(core.NewID(), "t", "desc", taskType, core.PriorityMedium)
	if requiredAgentType != "" {
		task.Metadata["required_agent_type"] = requiredAgentType
	}
	return task
}

func TestScoreRewardsRequiredTypeMatch(t *testing.T) {
	task := newScoringTask(core.TaskGeneral, "coder")
	matching := Candidate{AgentID: "a1", Role: "coder"}
	other := Candidate{AgentID: "a2", Role: "tester"}
	assert.Greater(t, Score(task, matching), Score(task, other))
}

func TestScoreRewardsKeywordOverlap(t *testing.T) {
	task := newScoringTask(core.TaskImplementation, "")
	withCaps := Candidate{AgentID: "a1", Capabilities: []string{"coding", "development"}}
	without := Candidate{AgentID: "a2"}
	assert.Greater(t, Score(task, withCaps), Score(task, without))
}

func TestScorePenalizesWorkload(t *testing.T) {
	task := newScoringTask(core.TaskGeneral, "")
	idleCandidate := Candidate{AgentID: "a1", Idle: true}
	busyCandidate := Candidate{AgentID: "a2", Idle: true, ActiveTaskCount: 5}
	assert.Greater(t, Score(task, idleCandidate), Score(task, busyCandidate))
}

func TestSelectAgentSkipsOfflineAndOverloaded(t *testing.T) {
	task := newScoringTask(core.TaskGeneral, "")
	candidates := []Candidate{
		{AgentID: "offline", Offline: true, Idle: true},
		{AgentID: "overloaded", ActiveTaskCount: 10},
		{AgentID: "eligible", Idle: true},
	}
	id, ok := SelectAgent(task, candidates, 5)
	assert.True(t, ok)
	assert.Equal(t, "eligible", id)
}

func TestSelectAgentReturnsFalseWhenNoneQualify(t *testing.T) {
	task := newScoringTask(core.TaskGeneral, "")
	candidates := []Candidate{{AgentID: "offline", Offline: true}}
	_, ok := SelectAgent(task, candidates, 0)
	assert.False(t, ok)
}
