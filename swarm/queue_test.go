package swarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/core"
)

func newQueueTask(name string, priority core.Priority) *core.Task {
	return core.NewTask(core.NewID(), name, "desc", core.TaskGeneral, priority)
}

func TestTaskQueuePopsHighestPriorityFirst(t *testing.T) {
	q := newTaskQueue()
	q.Push(newQueueTask("low", core.PriorityLow))
	q.Push(newQueueTask("critical", core.PriorityCritical))
	q.Push(newQueueTask("medium", core.PriorityMedium))

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "critical", first.Name)

	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "medium", second.Name)

	third, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "low", third.Name)
}

func TestTaskQueuePreservesInsertionOrderForTies(t *testing.T) {
	q := newTaskQueue()
	q.Push(newQueueTask("first", core.PriorityMedium))
	q.Push(newQueueTask("second", core.PriorityMedium))

	first, _ := q.Pop()
	second, _ := q.Pop()
	assert.Equal(t, "first", first.Name)
	assert.Equal(t, "second", second.Name)
}

func TestTaskQueuePopEmptyReturnsFalse(t *testing.T) {
	q := newTaskQueue()
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestTaskQueuePushAfterDelaysReenqueue(t *testing.T) {
	q := newTaskQueue()
	task := newQueueTask("delayed", core.PriorityMedium)
	q.PushAfter(task, 20*time.Millisecond)

	assert.Equal(t, 0, q.Len())
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)

	popped, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "delayed", popped.Name)
}
