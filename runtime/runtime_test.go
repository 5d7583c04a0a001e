package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/agents"
	"github.com/swarmmind/swarmmind/core"
)

type noopBehavior struct{ handled chan core.Message }

func (b *noopBehavior) Perceive(ctx context.Context, agent *core.Agent, stimuli []agents.Stimulus) (map[string]interface{}, error) {
	return nil, nil
}
func (b *noopBehavior) Deliberate(ctx context.Context, agent *core.Agent) ([]string, error) {
	return nil, nil
}
func (b *noopBehavior) Act(ctx context.Context, agent *core.Agent) ([]agents.Action, error) {
	return nil, nil
}
func (b *noopBehavior) HandleMessage(ctx context.Context, agent *core.Agent, msg core.Message) error {
	if b.handled != nil {
		b.handled <- msg
	}
	return nil
}
func (b *noopBehavior) HandleTask(ctx context.Context, agent *core.Agent, task *core.Task) error {
	return nil
}

func TestRegisterStartStopLifecycle(t *testing.T) {
	rt := New(nil, nil)
	agent := core.NewAgent("a1", "agent-1", "worker", core.ModeReactive)
	require.NoError(t, rt.RegisterAgent(agent, &noopBehavior{}, nil, nil))

	err := rt.RegisterAgent(agent, &noopBehavior{}, nil, nil)
	require.Error(t, err)

	require.NoError(t, rt.StartAgent(context.Background(), "a1"))
	assert.Equal(t, core.AgentIdle, agent.Status())

	require.NoError(t, rt.StopAgent("a1"))
	assert.Equal(t, core.AgentStopped, agent.Status())

	err = rt.StopAgent("a1")
	require.Error(t, err)
}

func TestSendMessageDeliversToMailboxAndTracksConversation(t *testing.T) {
	rt := New(nil, nil)
	received := make(chan core.Message, 1)
	agent := core.NewAgent("a2", "agent-2", "worker", core.ModeReactive)
	require.NoError(t, rt.RegisterAgent(agent, &noopBehavior{handled: received}, nil, nil))

	err := rt.SendMessage(context.Background(), "a0", "a2", map[string]interface{}{"hello": "world"}, core.PerformativeInform, "conv-1")
	require.NoError(t, err)

	assert.Equal(t, 1, agent.Mailbox.Len())
	msgs := agent.Mailbox.DrainAll()
	require.Len(t, msgs, 1)
	assert.Equal(t, "a0", msgs[0].SenderID)

	thread := rt.Convos.Thread("conv-1")
	require.Len(t, thread, 1)
}

func TestSendMessageToMissingRecipientIsDroppedNotErrored(t *testing.T) {
	rt := New(nil, nil)
	err := rt.SendMessage(context.Background(), "a0", "does-not-exist", nil, core.PerformativeInform, "")
	require.NoError(t, err)
}

func TestGetMetricsReflectsRegisteredAgents(t *testing.T) {
	rt := New(nil, nil)
	agent := core.NewAgent("a3", "agent-3", "worker", core.ModeReactive)
	require.NoError(t, rt.RegisterAgent(agent, &noopBehavior{}, nil, nil))
	require.NoError(t, rt.StartAgent(context.Background(), "a3"))

	require.Eventually(t, func() bool {
		snaps := rt.GetMetrics()
		return len(snaps) == 1 && snaps[0].ID == "a3"
	}, time.Second, 5*time.Millisecond)

	assert.ElementsMatch(t, []string{"a3"}, rt.ListAgents())

	require.NoError(t, rt.StopAgent("a3"))
}
