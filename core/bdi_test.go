package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeliefsMergeMap(t *testing.T) {
	b := NewBeliefs()
	b.Merge(map[string]interface{}{"a": 1, "b": "two"}, "")
	v, ok := b.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = b.Get("b")
	require.True(t, ok)
	assert.Equal(t, "two", v)
}

func TestBeliefsMergeJSONString(t *testing.T) {
	b := NewBeliefs()
	b.Merge(`{"x": 42, "y": [1,2,3]}`, "")
	v, ok := b.Get("x")
	require.True(t, ok)
	assert.EqualValues(t, 42, v)
	_, ok = b.Get("y")
	require.True(t, ok)
}

func TestBeliefsMergeScalarWrapsAsValue(t *testing.T) {
	b := NewBeliefs()
	b.Merge(3.14, "pi")
	v, ok := b.Get("pi")
	require.True(t, ok)
	wrapped, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 3.14, wrapped["value"])
}

func TestBeliefsMergeScalarDefaultKey(t *testing.T) {
	b := NewBeliefs()
	b.Merge("plain string, not json", "")
	v, ok := b.Get("value")
	require.True(t, ok)
	wrapped := v.(map[string]interface{})
	assert.Equal(t, "plain string, not json", wrapped["value"])
}

func TestBeliefsMergeNeverPanics(t *testing.T) {
	b := NewBeliefs()
	assert.NotPanics(t, func() {
		b.Merge(nil, "")
		b.Merge([]int{1, 2, 3}, "list")
		b.Merge(42, "")
		b.Merge("{not valid json", "fallback")
	})
}

func TestOrderedSetDedupAndOrder(t *testing.T) {
	s := NewOrderedSet()
	s.Add("x")
	s.Add("y")
	s.Add("x")
	assert.Equal(t, []string{"x", "y"}, s.List())
	assert.Equal(t, 2, s.Len())
	s.Remove("x")
	assert.False(t, s.Has("x"))
	assert.Equal(t, []string{"y"}, s.List())
}

func TestTaskStateTransitionsMonotone(t *testing.T) {
	task := NewTask(NewID(), "build thing", "desc", TaskImplementation, PriorityHigh)
	require.NoError(t, task.Transition(StateAnalysing))
	require.NoError(t, task.Transition(StatePlanning))
	require.NoError(t, task.Transition(StateAssigned))
	require.NoError(t, task.Transition(StateInProgress))
	assert.Error(t, task.Transition(StatePlanning))
}

func TestTaskFailedToPendingRetry(t *testing.T) {
	task := NewTask(NewID(), "flaky", "desc", TaskGeneral, PriorityLow)
	require.NoError(t, task.Transition(StateInProgress))
	require.NoError(t, task.Transition(StateFailed))
	require.True(t, task.CanRetry())
	require.NoError(t, task.IncrementRetry())
	assert.Equal(t, StatePending, task.Snapshot())
	assert.Equal(t, 1, task.Retries)
}

func TestTaskRetriesExhausted(t *testing.T) {
	task := NewTask(NewID(), "doomed", "desc", TaskGeneral, PriorityLow)
	task.MaxRetries = 1
	require.NoError(t, task.Transition(StateFailed))
	require.NoError(t, task.IncrementRetry())
	require.NoError(t, task.Transition(StateFailed))
	err := task.IncrementRetry()
	assert.ErrorIs(t, err, ErrRetriesExhausted)
}

func TestMailboxDrainAll(t *testing.T) {
	mb := NewMailbox()
	mb.Send(NewMessage(NewID(), "a", "b", PerformativeInform, nil, "conv-1"))
	mb.Send(NewMessage(NewID(), "a", "b", PerformativeQuery, nil, "conv-1"))
	assert.Equal(t, 2, mb.Len())
	msgs := mb.DrainAll()
	assert.Len(t, msgs, 2)
	assert.Equal(t, 0, mb.Len())
}

func TestCapabilitySetHasAll(t *testing.T) {
	cs := NewCapabilitySet("code.write", "http.request")
	assert.True(t, cs.HasAll([]string{"code.write"}))
	assert.False(t, cs.HasAll([]string{"code.write", "git.commit"}))
	cs.Add("git.commit")
	assert.True(t, cs.HasAll([]string{"code.write", "git.commit"}))
}
