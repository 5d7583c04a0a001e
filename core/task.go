package core

import (
	"sync"
	"time"
)

// TaskType tags what kind of work a task represents, per spec §3.
type TaskType string

const (
	TaskAnalysis       TaskType = "analysis"
	TaskDesign         TaskType = "design"
	TaskImplementation TaskType = "implementation"
	TaskTesting        TaskType = "testing"
	TaskDeployment     TaskType = "deployment"
	TaskGeneral        TaskType = "general"
	TaskValidation     TaskType = "validation"
)

// Priority is one of the four levels named in spec §3.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// TaskState is the task lifecycle, per spec §3: pending -> analysing ->
// planning -> assigned -> in-progress -> validating -> {completed,
// failed, cancelled}. The only permitted non-monotone transition is
// failed -> pending on retry (spec §3, §5, §8).
type TaskState string

const (
	StatePending    TaskState = "pending"
	StateAnalysing  TaskState = "analysing"
	StatePlanning   TaskState = "planning"
	StateAssigned   TaskState = "assigned"
	StateInProgress TaskState = "in-progress"
	StateValidating TaskState = "validating"
	StateCompleted  TaskState = "completed"
	StateFailed     TaskState = "failed"
	StateCancelled  TaskState = "cancelled"
)

// stateRank gives the monotone ordering used to validate transitions;
// failed->pending is special-cased separately since it is a rank
// decrease that the spec explicitly permits.
var stateRank = map[TaskState]int{
	StatePending:    0,
	StateAnalysing:  1,
	StatePlanning:   2,
	StateAssigned:   3,
	StateInProgress: 4,
	StateValidating: 5,
	StateCompleted:  6,
	StateFailed:     6,
	StateCancelled:  6,
}

// CanTransition reports whether moving a task from `from` to `to` is
// permitted under the monotone-state invariant (spec §3, §8): forward
// transitions are always allowed, and the single backward exception is
// failed -> pending, used to re-queue a task that still has retries
// left.
func CanTransition(from, to TaskState) bool {
	if from == StateFailed && to == StatePending {
		return true
	}
	return stateRank[to] >= stateRank[from]
}

// Task is the unit of work scheduled by the swarm coordinator, per
// spec §3.
type Task struct {
	mu sync.RWMutex

	ID          string
	Name        string
	Description string
	Type        TaskType
	Priority    Priority
	State       TaskState

	ParentTaskID string
	ChildTaskIDs []string
	Dependencies []string

	AssignedAgentID string

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	Result          map[string]interface{}
	Error           string
	Retries         int
	MaxRetries      int
	ValidationScore int // 0-100

	CreatedBy string
	Metadata  map[string]interface{}
}

// NewTask constructs a root or child task in StatePending, per spec §3.
func NewTask(id, name, description string, taskType TaskType, priority Priority) *Task {
	return &Task{
		ID:          id,
		Name:        name,
		Description: description,
		Type:        taskType,
		Priority:    priority,
		State:       StatePending,
		CreatedAt:   time.Now(),
		MaxRetries:  3,
		Metadata:    make(map[string]interface{}),
	}
}

// Transition moves the task to newState if CanTransition allows it;
// returns ErrConstraintFailed wrapped with the attempted edge otherwise.
// Dependency-satisfaction for `assigned` is enforced by the caller
// (swarm scheduler), not here, since Task has no view of sibling state.
func (t *Task) Transition(newState TaskState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !CanTransition(t.State, newState) {
		return Wrap("task", "Transition", t.ID, ErrConstraintFailed)
	}
	now := time.Now()
	switch newState {
	case StateInProgress:
		if t.StartedAt == nil {
			t.StartedAt = &now
		}
	case StateCompleted, StateFailed, StateCancelled:
		t.CompletedAt = &now
	case StatePending:
		// retry: clear terminal bookkeeping so the task can run again.
		t.CompletedAt = nil
		t.AssignedAgentID = ""
	}
	t.State = newState
	return nil
}

// Snapshot returns the current state under the read lock, useful for
// callers that only need to branch on state without racing a writer.
func (t *Task) Snapshot() TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.State
}

// CanRetry reports whether the task has retries remaining.
func (t *Task) CanRetry() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Retries < t.MaxRetries
}

// IncrementRetry bumps the retry counter and transitions back to
// pending; returns ErrRetriesExhausted if no retries remain.
func (t *Task) IncrementRetry() error {
	t.mu.Lock()
	if t.Retries >= t.MaxRetries {
		t.mu.Unlock()
		return Wrap("task", "IncrementRetry", t.ID, ErrRetriesExhausted)
	}
	t.Retries++
	t.mu.Unlock()
	return t.Transition(StatePending)
}

// IsTerminal reports whether the task is in one of the three terminal
// states (completed, failed, cancelled).
func (t *Task) IsTerminal() bool {
	switch t.Snapshot() {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}
