package swarm

import (
	"sync"

	"github.com/swarmmind/swarmmind/core"
)

// DAG tracks task dependency edges for the coordinator's task
// registry, grounded on gomind's WorkflowDAG (orchestration/
// workflow_dag.go) generalised from workflow-step nodes to
// coordinator tasks: nodes are task ids, edges point from a
// prerequisite to its dependent (spec §3 "SwarmTask DAG").
type DAG struct {
	mu    sync.RWMutex
	nodes map[string]*dagNode
}

type dagNode struct {
	id           string
	dependencies []string
	dependents   []string
}

func NewDAG() *DAG {
	return &DAG{nodes: make(map[string]*dagNode)}
}

// AddNode inserts or updates a task's dependency edges and rebuilds
// the reverse (dependents) index.
func (d *DAG) AddNode(id string, dependencies []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, exists := d.nodes[id]; exists {
		n.dependencies = dependencies
	} else {
		d.nodes[id] = &dagNode{id: id, dependencies: dependencies}
	}
	d.rebuildDependents()
}

func (d *DAG) rebuildDependents() {
	for _, n := range d.nodes {
		n.dependents = nil
	}
	for id, n := range d.nodes {
		for _, dep := range n.dependencies {
			if depNode, ok := d.nodes[dep]; ok {
				depNode.dependents = append(depNode.dependents, id)
			}
		}
	}
}

// Validate reports core.ErrDependencyCycle if the graph contains a
// cycle, or core.ErrDependencyMissing if an edge names a task that
// was never added. Decomposition must call this before scheduling
// (spec §3 invariant, SPEC_FULL.md §10's Open Question decision).
func (d *DAG) Validate() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for id, n := range d.nodes {
		for _, dep := range n.dependencies {
			if _, ok := d.nodes[dep]; !ok {
				return core.Wrap("swarm.dag", "Validate", id, core.ErrDependencyMissing)
			}
		}
	}

	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	var visit func(string) bool
	visit = func(id string) bool {
		visited[id] = true
		inStack[id] = true
		for _, dep := range d.nodes[id].dependents {
			if !visited[dep] {
				if visit(dep) {
					return true
				}
			} else if inStack[dep] {
				return true
			}
		}
		inStack[id] = false
		return false
	}
	for id := range d.nodes {
		if !visited[id] {
			if visit(id) {
				return core.Wrap("swarm.dag", "Validate", id, core.ErrDependencyCycle)
			}
		}
	}
	return nil
}

// DependenciesSatisfied reports whether every dependency of id is
// terminal-complete (completed or skipped/cancelled doesn't count as
// satisfying — only completed does, per spec §4.9's scheduler check:
// "checks dependencies (all deps must be completed)").
func (d *DAG) DependenciesSatisfied(id string, state func(taskID string) core.TaskState) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[id]
	if !ok {
		return true
	}
	for _, dep := range n.dependencies {
		if state(dep) != core.StateCompleted {
			return false
		}
	}
	return true
}

// TopologicalOrder returns node ids in dependency order using Kahn's
// algorithm; returns a partial order (omitting any node left in a
// cycle) if the graph is not a DAG — callers should Validate first.
func (d *DAG) TopologicalOrder() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	inDegree := make(map[string]int, len(d.nodes))
	for id, n := range d.nodes {
		inDegree[id] = len(n.dependencies)
	}
	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dep := range d.nodes[id].dependents {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	return order
}

// Dependents returns the ids that directly depend on id.
func (d *DAG) Dependents(id string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n, ok := d.nodes[id]; ok {
		return append([]string(nil), n.dependents...)
	}
	return nil
}
