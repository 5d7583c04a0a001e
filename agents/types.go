// Package agents implements the three agent control-loop variants
// (reactive, cognitive, hybrid) on top of the shared core.Agent data
// model: one BDI control loop per agent, interleaving mailbox drain,
// task-queue drain, and a periodic perceive/deliberate/act cycle.
package agents

import (
	"context"

	"github.com/swarmmind/swarmmind/core"
)

// ActionType tags what an Act() result asks the control loop to do.
type ActionType string

const (
	ActionToolCall     ActionType = "tool_call"
	ActionSendMessage  ActionType = "send_message"
	ActionUpdateBelief ActionType = "update_belief"
)

// Action is one unit of work produced by a behavior's Act step.
type Action struct {
	Type   ActionType
	Params map[string]interface{}
}

// StimulusKind tags what produced a Stimulus.
type StimulusKind string

const (
	StimulusMessage StimulusKind = "message"
	StimulusEvent   StimulusKind = "event"
	StimulusTask    StimulusKind = "task"
)

// Stimulus is one flattened observation a behavior's Perceive step
// reasons over: an inbound message, an environment event, or a queued
// task, normalised to a common shape so reactive rule conditions can
// match any of the three uniformly.
type Stimulus struct {
	Kind     StimulusKind
	Fields   map[string]interface{}
	Priority int
}

// Behavior is what differs between reactive, cognitive, and hybrid
// agents; Core drives every mode through the same interface.
type Behavior interface {
	// Perceive turns the given stimuli (already drained from mailbox/
	// tasks/environment) into a belief update, merged into the agent's
	// BDI state by the caller.
	Perceive(ctx context.Context, agent *core.Agent, stimuli []Stimulus) (map[string]interface{}, error)

	// Deliberate inspects current beliefs and returns the intention
	// names to commit this cycle.
	Deliberate(ctx context.Context, agent *core.Agent) ([]string, error)

	// Act produces the actions for the intentions committed this
	// cycle.
	Act(ctx context.Context, agent *core.Agent) ([]Action, error)

	// HandleMessage processes one mailbox message outside the
	// perceive/deliberate/act cycle (spec §4.4 step 1).
	HandleMessage(ctx context.Context, agent *core.Agent, msg core.Message) error

	// HandleTask processes one queued task outside the cycle (spec
	// §4.4 step 2).
	HandleTask(ctx context.Context, agent *core.Agent, task *core.Task) error
}

// EnvironmentView is the read-only slice of environment capability a
// behavior's Perceive step needs, narrowed so package agents does not
// need the full environment.Environment type to build a Stimulus list.
type EnvironmentView interface {
	RecentEvents(n int) []core.EnvEvent
	NeighboursWithinRadius(id string, radius float64) []string
}

// MessageRouter is the runtime capability a behavior's send_message
// action dispatches through; package runtime satisfies it.
type MessageRouter interface {
	SendMessage(ctx context.Context, from, to string, content map[string]interface{}, performative core.Performative, conversationID string) error
}

// ToolResolver narrows tools.Registry to what action dispatch needs.
type ToolResolver interface {
	Resolve(name string) (core.Tool, bool)
}
