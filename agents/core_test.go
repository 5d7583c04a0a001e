package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/core"
)

type recordingBehavior struct {
	messages  []core.Message
	tasks     []*core.Task
	cycles    int
	failAct   bool
	panicOnce bool
}

func (b *recordingBehavior) Perceive(ctx context.Context, agent *core.Agent, stimuli []Stimulus) (map[string]interface{}, error) {
	return map[string]interface{}{"seen": len(stimuli)}, nil
}

func (b *recordingBehavior) Deliberate(ctx context.Context, agent *core.Agent) ([]string, error) {
	b.cycles++
	return []string{"do_thing"}, nil
}

func (b *recordingBehavior) Act(ctx context.Context, agent *core.Agent) ([]Action, error) {
	if b.panicOnce {
		b.panicOnce = false
		panic("boom")
	}
	if b.failAct {
		return nil, assertErr
	}
	return []Action{{Type: ActionUpdateBelief, Params: map[string]interface{}{"acted": true}}}, nil
}

func (b *recordingBehavior) HandleMessage(ctx context.Context, agent *core.Agent, msg core.Message) error {
	b.messages = append(b.messages, msg)
	return nil
}

func (b *recordingBehavior) HandleTask(ctx context.Context, agent *core.Agent, task *core.Task) error {
	b.tasks = append(b.tasks, task)
	return nil
}

var assertErr = core.Wrap("test", "Act", "", core.ErrTaskNotFound)

func TestCoreDrainsMailboxAndRunsBDICycle(t *testing.T) {
	agent := core.NewAgent("c1", "core-1", "worker", core.ModeReactive)
	behavior := &recordingBehavior{}
	c := NewCore(agent, behavior, nil, nil, nil, nil)
	c.BDIInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	agent.Mailbox.Send(core.NewMessage("m1", "other", "c1", core.PerformativeInform, nil, "conv1"))

	require.Eventually(t, func() bool { return len(behavior.messages) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return behavior.cycles > 0 }, time.Second, 5*time.Millisecond)

	cancel()
	c.Stop()
}

func TestCoreRecoversFromActPanic(t *testing.T) {
	agent := core.NewAgent("c2", "core-2", "worker", core.ModeReactive)
	behavior := &recordingBehavior{panicOnce: true}
	c := NewCore(agent, behavior, nil, nil, nil, nil)
	c.BDIInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	require.Eventually(t, func() bool { return c.Errors() >= 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return behavior.cycles >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	c.Stop()
}

func TestCoreExecuteToolCallWritesBeliefs(t *testing.T) {
	agent := core.NewAgent("c3", "core-3", "worker", core.ModeReactive)
	c := NewCore(agent, &recordingBehavior{}, nil, stubResolver{}, nil, nil)

	err := c.executeAction(context.Background(), Action{
		Type: ActionToolCall,
		Params: map[string]interface{}{"tool": "echo", "params": map[string]interface{}{"x": 1}},
	})
	require.NoError(t, err)

	success, _ := agent.BDI.Beliefs.Get("last_echo_success")
	assert.Equal(t, true, success)
}

type stubResolver struct{}

func (stubResolver) Resolve(name string) (core.Tool, bool) {
	if name != "echo" {
		return nil, false
	}
	return echoTool{}, true
}

type echoTool struct{}

func (echoTool) Name() string     { return "echo" }
func (echoTool) Describe() string { return "echoes params" }
func (echoTool) Execute(ctx context.Context, params map[string]interface{}) (*core.ToolResult, error) {
	return &core.ToolResult{Success: true, Data: params}, nil
}
