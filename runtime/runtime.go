// Package runtime hosts N agent control loops in one process and
// routes messages between them (spec §4.8), generalising gomind's
// single-component Framework/BaseAgent lifecycle (start/stop,
// recovery-wrapped execution) to many concurrently running agents.
package runtime

import (
	"context"
	"sync"

	"github.com/swarmmind/swarmmind/agents"
	"github.com/swarmmind/swarmmind/core"
)

// runningAgent pairs a registered core.Agent with the Core control
// loop driving it and the cancel function that stops that loop.
type runningAgent struct {
	agent  *core.Agent
	core   *agents.Core
	cancel context.CancelFunc
}

// Runtime registers agents, starts/stops their control loops, and
// provides at-most-once local message delivery between them (spec
// §4.8). A missing recipient is logged and dropped rather than
// raising, since message delivery is fire-and-forget by design.
type Runtime struct {
	mu     sync.RWMutex
	agents map[string]*runningAgent
	idGen  func() string
	logger core.Logger
	Convos *ConversationTracker
}

// New builds an empty Runtime. idGen supplies message ids; pass
// core.NewID by default.
func New(idGen func() string, logger core.Logger) *Runtime {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	if idGen == nil {
		idGen = core.NewID
	}
	return &Runtime{agents: make(map[string]*runningAgent), idGen: idGen, logger: logger, Convos: NewConversationTracker()}
}

// RegisterAgent builds a Core for agent around behavior, env and
// tools, wiring the Runtime itself as the Core's MessageRouter so
// every outbound send passes through SendMessage's at-most-once local
// delivery. Returns core.ErrAlreadyRegistered if agent.ID is taken.
func (rt *Runtime) RegisterAgent(agent *core.Agent, behavior agents.Behavior, env agents.EnvironmentView, tools agents.ToolResolver) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.agents[agent.ID]; exists {
		return core.Wrap("runtime", "RegisterAgent", agent.ID, core.ErrAlreadyRegistered)
	}
	c := agents.NewCore(agent, behavior, env, tools, rt, rt.logger)
	rt.agents[agent.ID] = &runningAgent{agent: agent, core: c}
	return nil
}

// StartAgent spawns the registered agent's control loop in a new
// goroutine, bound to a child context this Runtime can cancel later
// via StopAgent.
func (rt *Runtime) StartAgent(ctx context.Context, id string) error {
	rt.mu.Lock()
	ra, ok := rt.agents[id]
	if !ok {
		rt.mu.Unlock()
		return core.Wrap("runtime", "StartAgent", id, core.ErrAgentNotFound)
	}
	if ra.cancel != nil {
		rt.mu.Unlock()
		return nil // already started
	}
	childCtx, cancel := context.WithCancel(ctx)
	ra.cancel = cancel
	rt.mu.Unlock()

	ra.agent.SetStatus(core.AgentIdle)
	go ra.core.Run(childCtx)
	return nil
}

// StopAgent cancels the agent's control loop and waits for it to
// exit, marking the agent AgentStopped.
func (rt *Runtime) StopAgent(id string) error {
	rt.mu.Lock()
	ra, ok := rt.agents[id]
	rt.mu.Unlock()
	if !ok {
		return core.Wrap("runtime", "StopAgent", id, core.ErrAgentNotFound)
	}
	if ra.agent.Status() == core.AgentStopped {
		return core.Wrap("runtime", "StopAgent", id, core.ErrAgentStopped)
	}
	if ra.cancel != nil {
		ra.cancel()
	}
	ra.core.Stop()
	ra.agent.SetStatus(core.AgentStopped)
	return nil
}

// SendMessage enqueues a message into the target agent's mailbox,
// records it in Convos and counts it in the messages_sent_total
// metric; no environment event is recorded. A missing recipient is
// logged and dropped, satisfying at-most-once local delivery without
// raising to the caller.
func (rt *Runtime) SendMessage(ctx context.Context, from, to string, content map[string]interface{}, performative core.Performative, conversationID string) error {
	rt.mu.RLock()
	ra, ok := rt.agents[to]
	sender, senderOK := rt.agents[from]
	rt.mu.RUnlock()

	if !ok {
		rt.logger.Warn("message dropped: recipient not registered", map[string]interface{}{"from": from, "to": to})
		return nil
	}

	msg := core.NewMessage(rt.idGen(), from, to, performative, content, conversationID)
	ra.agent.Mailbox.Send(msg)
	ra.agent.Metrics.IncMessagesRecv()
	if senderOK {
		sender.agent.Metrics.IncMessagesSent()
	}
	rt.Convos.Record(msg)
	core.Metrics().Counter("messages_sent_total", "from", from, "to", to)
	return nil
}

// ListAgents returns every registered agent id.
func (rt *Runtime) ListAgents() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make([]string, 0, len(rt.agents))
	for id := range rt.agents {
		out = append(out, id)
	}
	return out
}

// AgentSnapshot is the observable state GetMetrics returns per agent.
type AgentSnapshot struct {
	ID      string
	Status  core.AgentStatus
	Metrics core.AgentMetrics
	Errors  int64
}

// GetMetrics returns a point-in-time snapshot of every registered
// agent's status and counters.
func (rt *Runtime) GetMetrics() []AgentSnapshot {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make([]AgentSnapshot, 0, len(rt.agents))
	for id, ra := range rt.agents {
		out = append(out, AgentSnapshot{
			ID:      id,
			Status:  ra.agent.Status(),
			Metrics: ra.agent.Metrics.Snapshot(),
			Errors:  ra.core.Errors(),
		})
	}
	return out
}

// Agent returns the registered core.Agent by id, for callers (e.g.
// the swarm coordinator) that need direct access to its task queue or
// beliefs.
func (rt *Runtime) Agent(id string) (*core.Agent, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	ra, ok := rt.agents[id]
	if !ok {
		return nil, false
	}
	return ra.agent, true
}
