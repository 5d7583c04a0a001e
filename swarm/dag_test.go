package swarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/core"
)

func TestDAGValidateDetectsMissingDependency(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", []string{"ghost"})
	err := d.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDependencyMissing)
}

func TestDAGValidateDetectsCycle(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", []string{"b"})
	d.AddNode("b", []string{"c"})
	d.AddNode("c", []string{"a"})
	err := d.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDependencyCycle)
}

func TestDAGValidateAcceptsAcyclicGraph(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", nil)
	d.AddNode("b", []string{"a"})
	d.AddNode("c", []string{"a", "b"})
	assert.NoError(t, d.Validate())
}

func TestDAGTopologicalOrderRespectsDependencies(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", nil)
	d.AddNode("b", []string{"a"})
	d.AddNode("c", []string{"a", "b"})

	order := d.TopologicalOrder()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["a"], pos["b"])
	assert.Less(t, pos["b"], pos["c"])
}

func TestDAGDependenciesSatisfied(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", nil)
	d.AddNode("b", []string{"a"})

	states := map[string]core.TaskState{"a": core.StatePending}
	lookup := func(id string) core.TaskState { return states[id] }
	assert.False(t, d.DependenciesSatisfied("b", lookup))

	states["a"] = core.StateCompleted
	assert.True(t, d.DependenciesSatisfied("b", lookup))
}

func TestDAGDependentsReportsReverseEdges(t *testing.T) {
	d := NewDAG()
	d.AddNode("a", nil)
	d.AddNode("b", []string{"a"})
	d.AddNode("c", []string{"a"})
	assert.ElementsMatch(t, []string{"b", "c"}, d.Dependents("a"))
}
