package swarm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/agents"
	"github.com/swarmmind/swarmmind/config"
	"github.com/swarmmind/swarmmind/core"
	"github.com/swarmmind/swarmmind/llm"
	"github.com/swarmmind/swarmmind/runtime"
)

// universalProvider always returns one JSON blob containing every field
// CognitiveBehavior's four steps look for, so a single canned response
// satisfies Analyse/Solve/ValidateSolution regardless of call order
// across concurrent loops.
type universalProvider struct {
	mu    sync.Mutex
	calls int
}

const universalJSON = `{
  "type": "simple", "domains": [], "required_outputs": [], "requires_decompose": false,
  "solution": "build it", "code": "", "steps": [], "validation": "ok", "output": "done", "files_to_create": [],
  "is_valid": true, "score": 90, "strengths": [], "weaknesses": [], "improvements": [], "final_verdict": "approved"
}`

func (p *universalProvider) Complete(ctx context.Context, req llm.ProviderRequest) (*llm.ProviderResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return &llm.ProviderResponse{Text: universalJSON, Model: "test-model"}, nil
}

func (p *universalProvider) Stream(ctx context.Context, req llm.ProviderRequest, chunks chan<- llm.StreamChunk) error {
	defer close(chunks)
	chunks <- llm.StreamChunk{Delta: universalJSON}
	return nil
}

func (p *universalProvider) IsReasoningClass() bool { return false }

func fastSwarmConfig() (config.SwarmConfig, config.AgentPoolConfig, config.ResourceConfig) {
	swarmCfg := config.SwarmConfig{
		SchedulerTick: 5 * time.Millisecond, MonitorTick: 5 * time.Millisecond,
		LoadBalanceTick: 20 * time.Millisecond, ShutdownDrainTimeout: 200 * time.Millisecond,
		MaxRetriesPerTask: 3, ValidationPassScore: 70,
	}
	agentsCfg := config.AgentPoolConfig{MaxPoolSize: 8, MinPoolSize: 1, DefaultMode: "cognitive"}
	resCfg := config.ResourceConfig{CPUHeadroomPct: 90}
	return swarmCfg, agentsCfg, resCfg
}

func TestCoordinatorProcessRequestDispatchesAndCompletesTask(t *testing.T) {
	rt := runtime.New(nil, nil)
	provider := &universalProvider{}
	adapter := llm.NewAdapter(provider)

	coordBehaviorAgent := core.NewAgent(core.NewID(), "coordinator", "coordinator", core.ModeCognitive)
	cognitive := agents.NewCognitiveBehavior(adapter, nil)

	workerAgent := core.NewAgent(core.NewID(), "worker", "coder", core.ModeCognitive, "general")
	workerBehavior := agents.NewCognitiveBehavior(adapter, nil)
	require.NoError(t, rt.RegisterAgent(workerAgent, workerBehavior, nil, nil))

	swarmCfg, agentsCfg, resCfg := fastSwarmConfig()
	coord := New(rt, coordBehaviorAgent, cognitive, swarmCfg, agentsCfg, resCfg, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx2, startCancel := context.WithCancel(ctx)
	defer startCancel()
	require.NoError(t, rt.StartAgent(ctx2, workerAgent.ID))

	runDone := make(chan struct{})
	go func() {
		_ = coord.Run(ctx)
		close(runDone)
	}()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), time.Second)
	defer reqCancel()
	taskID, err := coord.ProcessRequest(reqCtx, "build a thing")
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	require.Eventually(t, func() bool {
		task, ok := coord.GetTask(taskID)
		return ok && task.Snapshot() == core.StateCompleted
	}, 3*time.Second, 10*time.Millisecond, "task should reach completed")

	task, ok := coord.GetTask(taskID)
	require.True(t, ok)
	assert.Equal(t, 90, task.ValidationScore)

	cancel()
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("coordinator.Run did not return after context cancel")
	}
}

func TestCoordinatorProcessRequestRejectsAfterShutdown(t *testing.T) {
	rt := runtime.New(nil, nil)
	provider := &universalProvider{}
	adapter := llm.NewAdapter(provider)
	coordAgent := core.NewAgent(core.NewID(), "coordinator", "coordinator", core.ModeCognitive)
	cognitive := agents.NewCognitiveBehavior(adapter, nil)
	swarmCfg, agentsCfg, resCfg := fastSwarmConfig()
	coord := New(rt, coordAgent, cognitive, swarmCfg, agentsCfg, resCfg, nil, nil, nil, nil)

	require.NoError(t, coord.Shutdown(context.Background()))

	_, err := coord.ProcessRequest(context.Background(), "too late")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrShuttingDown)
}
