package environment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/core"
)

func testConfig() Config {
	return Config{ResourceTotals: map[core.ResourceKind]float64{
		core.ResourceCPU:    100,
		core.ResourceMemory: 100,
	}}
}

func TestRegisterAndNeighboursWithinRadius(t *testing.T) {
	env := New(testConfig())
	env.RegisterEntity("a1", core.Location{Host: "h1", ProcessID: "p1", HasCoords: true, X: 0, Y: 0}, core.VisibilityFull)
	env.RegisterEntity("a2", core.Location{Host: "h1", ProcessID: "p1", HasCoords: true, X: 1, Y: 1}, core.VisibilityFull)
	env.RegisterEntity("a3", core.Location{Host: "h1", ProcessID: "p1", HasCoords: true, X: 100, Y: 100}, core.VisibilityFull)

	near := env.NeighboursWithinRadius("a1", 5)
	assert.Contains(t, near, "a2")
	assert.NotContains(t, near, "a3")
}

func TestVisibilityNoneHidesEverything(t *testing.T) {
	env := New(testConfig())
	env.RegisterEntity("a1", core.Location{Host: "h1"}, core.VisibilityNone)
	env.RegisterEntity("a2", core.Location{Host: "h1"}, core.VisibilityFull)

	ns := env.MembersOfNamespace("a1", "")
	assert.Empty(t, ns)
}

func TestResourceAllocationIsTransactional(t *testing.T) {
	env := New(testConfig())
	env.RegisterEntity("a1", core.Location{Host: "h1"}, core.VisibilityFull)

	_, err := env.ExecuteAction(core.ActionRequest{
		AgentID: "a1", Kind: "allocate_resource",
		Params: map[string]interface{}{"amounts": map[string]interface{}{"cpu": 150.0}},
	})
	require.Error(t, err)

	usage := env.ResourceUsage()
	assert.Equal(t, 100.0, usage[core.ResourceCPU].Available)
}

func TestResourceAllocateAndReleaseConservesTotal(t *testing.T) {
	env := New(testConfig())
	env.RegisterEntity("a1", core.Location{Host: "h1"}, core.VisibilityFull)

	_, err := env.ExecuteAction(core.ActionRequest{
		AgentID: "a1", Kind: "allocate_resource",
		Params: map[string]interface{}{"amounts": map[string]interface{}{"cpu": 40.0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 60.0, env.ResourceUsage()[core.ResourceCPU].Available)

	_, err = env.ExecuteAction(core.ActionRequest{
		AgentID: "a1", Kind: "release_resource",
		Params: map[string]interface{}{"amounts": map[string]interface{}{"cpu": 40.0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, env.ResourceUsage()[core.ResourceCPU].Available)
}

func TestDeregisterReleasesHeldResources(t *testing.T) {
	env := New(testConfig())
	env.RegisterEntity("a1", core.Location{Host: "h1"}, core.VisibilityFull)
	_, err := env.ExecuteAction(core.ActionRequest{
		AgentID: "a1", Kind: "allocate_resource",
		Params: map[string]interface{}{"amounts": map[string]interface{}{"cpu": 40.0}},
	})
	require.NoError(t, err)

	env.Deregister("a1")
	assert.Equal(t, 100.0, env.ResourceUsage()[core.ResourceCPU].Available)
}

func TestExecuteActionRecordsEvents(t *testing.T) {
	env := New(testConfig())
	env.RegisterEntity("a1", core.Location{Host: "h1"}, core.VisibilityFull)
	_, err := env.ExecuteAction(core.ActionRequest{
		AgentID: "a1", Kind: "move",
		Params: map[string]interface{}{"namespace": "ns-a", "host": "h2", "process_id": "p2"},
	})
	require.NoError(t, err)

	events := env.RecentEvents(10)
	require.NotEmpty(t, events)
	assert.Equal(t, core.EventAgentMoved, events[len(events)-1].Type)
}

func TestTickAppliesTrafficWindowDynamics(t *testing.T) {
	env := New(testConfig())
	env.Tick(6 * time.Minute)
	snap := env.snapshotLocked()
	assert.Greater(t, snap.CPUPercent, 50.0)
}

func TestEventLogWrapsAtCapacity(t *testing.T) {
	log := newEventLog(3)
	for i := 0; i < 5; i++ {
		log.append(core.EnvEvent{SourceID: string(rune('a' + i))})
	}
	assert.Equal(t, 3, log.Len())
	recent := log.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "e", recent[len(recent)-1].SourceID)
}
