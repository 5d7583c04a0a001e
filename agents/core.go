package agents

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/swarmmind/swarmmind/core"
)

const defaultBDIInterval = 5 * time.Second

// Core drives one agent's control loop (spec §4.4): interleave mailbox
// drain, task-queue drain, and a periodic BDI cycle
// (perceive -> update_beliefs -> deliberate -> commit -> act -> execute).
// An error during any step increments the errors counter and the loop
// continues; only Stop terminates it.
type Core struct {
	Agent    *core.Agent
	Behavior Behavior
	Env      EnvironmentView
	Tools    ToolResolver
	Router   MessageRouter
	Logger   core.Logger

	BDIInterval time.Duration

	errCount int64
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewCore wires a Core for agent, defaulting BDIInterval to 5s when
// unset.
func NewCore(agent *core.Agent, behavior Behavior, env EnvironmentView, tools ToolResolver, router MessageRouter, logger core.Logger) *Core {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	return &Core{
		Agent:       agent,
		Behavior:    behavior,
		Env:         env,
		Tools:       tools,
		Router:      router,
		Logger:      logger,
		BDIInterval: defaultBDIInterval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Errors returns the running error counter.
func (c *Core) Errors() int64 { return atomic.LoadInt64(&c.errCount) }

// Stop signals the control loop to terminate and blocks until it has.
func (c *Core) Stop() {
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	<-c.doneCh
}

// Run drives the control loop until ctx is cancelled or Stop is
// called. It is meant to be launched with `go core.Run(ctx)` by
// package runtime.
func (c *Core) Run(ctx context.Context) {
	defer close(c.doneCh)
	defer c.Agent.SetStatus(core.AgentIdle)

	ticker := time.NewTicker(c.BDIInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-c.Agent.Mailbox.Notify():
			c.drainMailbox(ctx)
		case <-c.Agent.Tasks.Notify():
			c.drainTasks(ctx)
		case <-ticker.C:
			c.runBDICycle(ctx)
		}
	}
}

func (c *Core) drainMailbox(ctx context.Context) {
	for _, msg := range c.Agent.Mailbox.DrainAll() {
		c.Agent.Metrics.IncMessagesRecv()
		if err := c.safeHandleMessage(ctx, msg); err != nil {
			c.recordError("handle_message", err)
		}
	}
}

func (c *Core) drainTasks(ctx context.Context) {
	for {
		task, ok := c.Agent.Tasks.Pop()
		if !ok {
			return
		}
		if err := c.safeHandleTask(ctx, task); err != nil {
			c.recordError("handle_task", err)
		}
	}
}

// runBDICycle executes one perceive/update_beliefs/deliberate/act
// pass, per spec §4.4. Every step is isolated so a failure in one does
// not prevent the next cycle from running.
func (c *Core) runBDICycle(ctx context.Context) {
	stimuli := c.perceive()

	beliefUpdate, err := c.safePerceive(ctx, stimuli)
	if err != nil {
		c.recordError("perceive", err)
		return
	}
	if beliefUpdate != nil {
		c.Agent.BDI.Beliefs.Merge(beliefUpdate, "perception")
	}

	intentions, err := c.safeDeliberate(ctx)
	if err != nil {
		c.recordError("deliberate", err)
		return
	}
	for _, in := range intentions {
		c.Agent.BDI.Intentions.Add(in)
	}
	if len(intentions) == 0 {
		return
	}

	actions, err := c.safeAct(ctx)
	if err != nil {
		c.recordError("act", err)
		return
	}
	for _, action := range actions {
		if err := c.executeAction(ctx, action); err != nil {
			c.recordError("execute_action", err)
		}
	}
}

// perceive flattens environment state into the stimulus list a
// behavior's Perceive step reasons over. Messages and tasks have
// already been drained by their own steps, so this reads only the 20
// most recent environment events; queue depths are not included.
func (c *Core) perceive() []Stimulus {
	var stimuli []Stimulus
	if c.Env != nil {
		for _, ev := range c.Env.RecentEvents(20) {
			stimuli = append(stimuli, Stimulus{
				Kind:     StimulusEvent,
				Fields:   map[string]interface{}{"type": string(ev.Type), "source_id": ev.SourceID, "data": ev.Data},
				Priority: 0,
			})
		}
	}
	return stimuli
}

// executeAction dispatches action.Type per spec §4.4.
func (c *Core) executeAction(ctx context.Context, action Action) error {
	switch action.Type {
	case ActionToolCall:
		return c.executeToolCall(ctx, action)
	case ActionSendMessage:
		return c.executeSendMessage(ctx, action)
	case ActionUpdateBelief:
		c.Agent.BDI.Beliefs.Merge(action.Params, "update_belief")
		return nil
	default:
		c.Logger.Warn("ignoring unknown action type", map[string]interface{}{"type": string(action.Type), "agent_id": c.Agent.ID})
		return nil
	}
}

func (c *Core) executeToolCall(ctx context.Context, action Action) error {
	name, _ := action.Params["tool"].(string)
	params, _ := action.Params["params"].(map[string]interface{})
	if c.Tools == nil {
		return core.Wrap("agents.core", "executeToolCall", name, core.ErrTaskNotFound)
	}
	tool, ok := c.Tools.Resolve(name)
	if !ok {
		c.Agent.BDI.Beliefs.Set("last_"+name+"_success", false)
		c.Agent.BDI.Beliefs.Set("last_"+name+"_error", "tool not found")
		return nil
	}
	result, err := tool.Execute(ctx, params)
	if err != nil {
		c.Agent.BDI.Beliefs.Set("last_"+name+"_success", false)
		c.Agent.BDI.Beliefs.Set("last_"+name+"_error", err.Error())
		return nil
	}
	c.Agent.BDI.Beliefs.Set("last_"+name+"_result", result.Data)
	c.Agent.BDI.Beliefs.Set("last_"+name+"_success", result.Success)
	if !result.Success {
		c.Agent.BDI.Beliefs.Set("last_"+name+"_error", result.Error)
	}
	return nil
}

func (c *Core) executeSendMessage(ctx context.Context, action Action) error {
	if c.Router == nil {
		return nil
	}
	to, _ := action.Params["to"].(string)
	content, _ := action.Params["content"].(map[string]interface{})
	performative, _ := action.Params["performative"].(string)
	conversationID, _ := action.Params["conversation_id"].(string)
	if performative == "" {
		performative = string(core.PerformativeInform)
	}
	if err := c.Router.SendMessage(ctx, c.Agent.ID, to, content, core.Performative(performative), conversationID); err != nil {
		return err
	}
	c.Agent.Metrics.IncMessagesSent()
	return nil
}

func (c *Core) recordError(step string, err error) {
	atomic.AddInt64(&c.errCount, 1)
	core.Metrics().Counter("agent_errors_total", "agent_id", c.Agent.ID, "step", step)
	c.Logger.Error("agent step failed", map[string]interface{}{"agent_id": c.Agent.ID, "step": step, "error": err.Error()})
}

func (c *Core) safePerceive(ctx context.Context, stimuli []Stimulus) (update map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError("perceive", r)
		}
	}()
	return c.Behavior.Perceive(ctx, c.Agent, stimuli)
}

func (c *Core) safeDeliberate(ctx context.Context) (intentions []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError("deliberate", r)
		}
	}()
	return c.Behavior.Deliberate(ctx, c.Agent)
}

func (c *Core) safeAct(ctx context.Context) (actions []Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError("act", r)
		}
	}()
	return c.Behavior.Act(ctx, c.Agent)
}

func (c *Core) safeHandleMessage(ctx context.Context, msg core.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError("handle_message", r)
		}
	}()
	return c.Behavior.HandleMessage(ctx, c.Agent, msg)
}

func (c *Core) safeHandleTask(ctx context.Context, task *core.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError("handle_task", r)
		}
	}()
	return c.Behavior.HandleTask(ctx, c.Agent, task)
}

func panicToError(step string, r interface{}) error {
	return core.Wrap("agents.core", step, "", &recoveredPanic{value: r})
}

type recoveredPanic struct{ value interface{} }

func (p *recoveredPanic) Error() string { return fmt.Sprintf("recovered panic: %v", p.value) }
