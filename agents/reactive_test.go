package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/core"
)

func TestReactiveBehaviorFiresHighestPriorityRuleFirst(t *testing.T) {
	agent := core.NewAgent("a1", "agent-1", "worker", core.ModeReactive)
	rb := NewReactiveBehavior(agent)
	rb.AddRule(Rule{
		Name:     "low",
		Priority: 1,
		Condition: FieldCondition{"type": "event"},
		ActionTemplate: func(s Stimulus) Action {
			return Action{Type: ActionUpdateBelief, Params: map[string]interface{}{"fired": "low"}}
		},
	})
	rb.AddRule(Rule{
		Name:     "high",
		Priority: 10,
		Condition: FieldCondition{"type": "event"},
		ActionTemplate: func(s Stimulus) Action {
			return Action{Type: ActionUpdateBelief, Params: map[string]interface{}{"fired": "high"}}
		},
	})

	ctx := context.Background()
	_, err := rb.Perceive(ctx, agent, []Stimulus{{Kind: StimulusEvent, Fields: map[string]interface{}{"type": "event"}}})
	require.NoError(t, err)

	intentions, err := rb.Deliberate(ctx, agent)
	require.NoError(t, err)
	require.Len(t, intentions, 2)
	assert.Equal(t, "execute_rule_high", intentions[0])

	actions, err := rb.Act(ctx, agent)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "high", actions[0].Params["fired"])
}

func TestReactiveConditionOperators(t *testing.T) {
	cond := FieldCondition{"value": map[string]interface{}{"$gt": 50.0}}
	assert.True(t, matchFieldCondition(cond, map[string]interface{}{"value": 75.0}))
	assert.False(t, matchFieldCondition(cond, map[string]interface{}{"value": 10.0}))

	inCond := FieldCondition{"status": map[string]interface{}{"$in": []interface{}{"ok", "warn"}}}
	assert.True(t, matchFieldCondition(inCond, map[string]interface{}{"status": "warn"}))
	assert.False(t, matchFieldCondition(inCond, map[string]interface{}{"status": "error"}))
}

func TestReactiveContinueMatchingFiresMultipleRules(t *testing.T) {
	agent := core.NewAgent("a1", "agent-1", "worker", core.ModeReactive)
	rb := NewReactiveBehavior(agent)
	rb.AddRule(Rule{
		Name: "first", Priority: 10, Condition: FieldCondition{"type": "event"}, ContinueMatching: true,
		ActionTemplate: func(s Stimulus) Action { return Action{Type: ActionUpdateBelief, Params: map[string]interface{}{"n": 1}} },
	})
	rb.AddRule(Rule{
		Name: "second", Priority: 5, Condition: FieldCondition{"type": "event"},
		ActionTemplate: func(s Stimulus) Action { return Action{Type: ActionUpdateBelief, Params: map[string]interface{}{"n": 2}} },
	})

	ctx := context.Background()
	_, _ = rb.Perceive(ctx, agent, []Stimulus{{Kind: StimulusEvent, Fields: map[string]interface{}{"type": "event"}}})
	actions, err := rb.Act(ctx, agent)
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}

func TestMonitoringCapabilitySeedsThresholdRule(t *testing.T) {
	agent := core.NewAgent("a1", "agent-1", "worker", core.ModeReactive, "monitoring")
	rb := NewReactiveBehavior(agent)
	require.Len(t, rb.rules, 1)
	assert.Equal(t, "threshold_alert", rb.rules[0].Name)
}
