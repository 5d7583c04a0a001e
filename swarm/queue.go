package swarm

import (
	"sync"
	"time"

	"github.com/swarmmind/swarmmind/core"
)

// taskQueue is the coordinator's priority-ordered ready queue (spec
// §4.9: "a priority-ordered task queue"). Higher core.Priority values
// sort first; ties broken by insertion order, matching a stable
// priority queue without pulling in container/heap for what is, at
// coordinator scale, a handful of pending tasks at a time.
type taskQueue struct {
	mu    sync.Mutex
	items []*core.Task
}

func newTaskQueue() *taskQueue { return &taskQueue{} }

// Push inserts t keeping the queue sorted by descending priority.
func (q *taskQueue) Push(t *core.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := 0
	for i < len(q.items) && q.items[i].Priority >= t.Priority {
		i++
	}
	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = t
}

// PushAfter re-enqueues t once delay has elapsed, used by the
// scheduler loop when a task's dependencies aren't yet satisfied
// (spec §4.9: "re-enqueues with a short delay").
func (q *taskQueue) PushAfter(t *core.Task, delay time.Duration) {
	time.AfterFunc(delay, func() { q.Push(t) })
}

// Pop removes and returns the highest-priority task, if any.
func (q *taskQueue) Pop() (*core.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
