package environment

import (
	"sync"
	"time"

	"github.com/swarmmind/swarmmind/core"
)

// Config configures a new Environment.
type Config struct {
	ResourceTotals   map[core.ResourceKind]float64
	EventLogCapacity int
	Logger           core.Logger
}

// Environment unifies the spatial model, resource manager,
// observability filter, and constraint engine behind a single lock,
// plus the dynamics sampler and bounded event log that tie them
// together (spec §4.3). All mutation enters through ExecuteAction or
// the explicit registration/observation methods below.
type Environment struct {
	mu sync.Mutex

	spatial       *SpatialModel
	resources     *ResourceManager
	observability *ObservabilityFilter
	constraints   *ConstraintEngine
	dynamics      *Dynamics
	events        *EventLog
	lastSnapshot  core.EnvSnapshot

	logger core.Logger
}

// New builds an Environment ready to register agents into.
func New(cfg Config) *Environment {
	logger := cfg.Logger
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	return &Environment{
		spatial:       newSpatialModel(),
		resources:     NewResourceManager(cfg.ResourceTotals),
		observability: newObservabilityFilter(),
		constraints:   newConstraintEngine(),
		dynamics:      newDynamics(),
		events:        newEventLog(cfg.EventLogCapacity),
		logger:        logger,
	}
}

// RegisterEntity places a new agent/process at loc with the given
// visibility level.
func (e *Environment) RegisterEntity(id string, loc core.Location, visibility core.VisibilityLevel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spatial.addEntity(id, loc)
	e.observability.setLevel(id, visibility)
}

// Deregister removes an entity's location and releases any resources
// it still holds, called when an agent stops.
func (e *Environment) Deregister(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resources.releaseAll(id)
	delete(e.spatial.locations, id)
	delete(e.observability.levels, id)
}

// Connect adds a directed edge of the given kind between two entities
// (spec §4.3 spatial model).
func (e *Environment) Connect(from, to string, kind ConnectionKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spatial.addConnection(from, to, kind)
}

// NeighboursWithinRadius returns entities within radius of id, already
// filtered through id's own observability level.
func (e *Environment) NeighboursWithinRadius(id string, radius float64) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	candidates := e.spatial.neighboursWithinRadius(id, radius)
	return e.observability.visibleEntities(id, e.spatial, candidates)
}

// MembersOfNamespace returns the visible entities sharing a namespace,
// filtered through id's observability level.
func (e *Environment) MembersOfNamespace(id, ns string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	candidates := e.spatial.membersOfNamespace(ns)
	return e.observability.visibleEntities(id, e.spatial, candidates)
}

// ResourceUsage returns a full usage snapshot, independent of any
// agent's observability level (operational telemetry, not agent
// perception).
func (e *Environment) ResourceUsage() map[core.ResourceKind]core.ResourceUsage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resources.Usage()
}

// Tick advances the dynamics sampler by dt and logs any rule that
// fired, feeding the resulting CPU/memory/congestion figures into the
// snapshot used by constraint evaluation until the next tick.
func (e *Environment) Tick(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.snapshotLocked()
	next, fired := e.dynamics.update(dt, snap)
	e.lastSnapshot = next
	for _, name := range fired {
		e.events.append(core.EnvEvent{
			Type:      core.EventDynamicsRule,
			SourceID:  name,
			Data:      map[string]interface{}{"cpu_percent": next.CPUPercent, "mem_percent": next.MemPercent},
			Timestamp: next.Timestamp,
		})
	}
}

// Snapshot returns the current environment snapshot (CPU/memory/
// congestion plus resource usage), for callers outside this package
// that need host-level figures without going through an agent's
// visibility filter — e.g. the swarm coordinator's auto-scale-down
// check (spec §4.9: "scale-down when host CPU > max_cpu_percent").
func (e *Environment) Snapshot() core.EnvSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// CurrentCPUPercent satisfies swarm.HostMetricsProvider.
func (e *Environment) CurrentCPUPercent() float64 {
	return e.Snapshot().CPUPercent
}

func (e *Environment) snapshotLocked() core.EnvSnapshot {
	snap := e.lastSnapshot
	snap.Usage = e.resources.Usage()
	return snap
}

// ExecuteAction dispatches one agent action against the environment:
// move, allocate_resource, release_resource, communicate, or
// spawn_process (spec §4.3). It evaluates the constraint engine first
// and denies the action — without mutating state — if any constraint
// is violated.
func (e *Environment) ExecuteAction(req core.ActionRequest) ([]core.Violation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.snapshotLocked()
	if violations := e.constraints.evaluate(req, snap); len(violations) > 0 {
		e.events.append(core.EnvEvent{
			Type:      core.EventConstraintHit,
			SourceID:  req.AgentID,
			Data:      map[string]interface{}{"action": req.Kind, "violations": len(violations)},
			Timestamp: time.Now(),
		})
		return violations, core.Wrap("environment", "ExecuteAction", req.AgentID, core.ErrConstraintFailed)
	}

	switch req.Kind {
	case "move":
		e.handleMoveLocked(req)
	case "allocate_resource":
		return nil, e.handleAllocateLocked(req)
	case "release_resource":
		e.handleReleaseLocked(req)
	case "communicate":
		e.handleCommunicateLocked(req)
	case "spawn_process":
		e.handleSpawnLocked(req)
	}
	return nil, nil
}

func (e *Environment) handleMoveLocked(req core.ActionRequest) {
	loc, ok := parseLocation(req.Params)
	if !ok {
		return
	}
	e.spatial.moveEntity(req.AgentID, loc)
	e.events.append(core.EnvEvent{Type: core.EventAgentMoved, SourceID: req.AgentID, Timestamp: time.Now(), Data: map[string]interface{}{"namespace": loc.Namespace}})
}

func (e *Environment) handleAllocateLocked(req core.ActionRequest) error {
	amounts := parseAmounts(req.Params)
	if err := e.resources.Request(req.AgentID, amounts); err != nil {
		e.events.append(core.EnvEvent{Type: core.EventResourceDenied, SourceID: req.AgentID, Timestamp: time.Now()})
		return err
	}
	e.events.append(core.EnvEvent{Type: core.EventResourceGranted, SourceID: req.AgentID, Timestamp: time.Now()})
	return nil
}

func (e *Environment) handleReleaseLocked(req core.ActionRequest) {
	amounts := parseAmounts(req.Params)
	e.resources.Release(req.AgentID, amounts)
	e.events.append(core.EnvEvent{Type: core.EventResourceReleased, SourceID: req.AgentID, Timestamp: time.Now()})
}

func (e *Environment) handleCommunicateLocked(req core.ActionRequest) {
	to, _ := req.Params["to"].(string)
	e.events.append(core.EnvEvent{Type: core.EventMessageRouted, SourceID: req.AgentID, Timestamp: time.Now(), Data: map[string]interface{}{"to": to}})
}

func (e *Environment) handleSpawnLocked(req core.ActionRequest) {
	childID, _ := req.Params["child_id"].(string)
	loc, _ := e.spatial.location(req.AgentID)
	if childID != "" {
		e.spatial.addEntity(childID, loc)
		e.spatial.addConnection(req.AgentID, childID, ConnParentChild)
	}
	e.events.append(core.EnvEvent{Type: core.EventProcessSpawned, SourceID: req.AgentID, Timestamp: time.Now(), Data: map[string]interface{}{"child_id": childID}})
}

func parseLocation(params map[string]interface{}) (core.Location, bool) {
	ns, _ := params["namespace"].(string)
	host, _ := params["host"].(string)
	proc, _ := params["process_id"].(string)
	if ns == "" && host == "" && proc == "" {
		return core.Location{}, false
	}
	loc := core.Location{Host: host, ProcessID: proc, Namespace: ns}
	if x, ok := params["x"].(float64); ok {
		if y, ok := params["y"].(float64); ok {
			loc.HasCoords = true
			loc.X, loc.Y = x, y
		}
	}
	return loc, true
}

func parseAmounts(params map[string]interface{}) map[core.ResourceKind]float64 {
	raw, _ := params["amounts"].(map[string]interface{})
	out := make(map[core.ResourceKind]float64, len(raw))
	for k, v := range raw {
		if amt, ok := v.(float64); ok {
			out[core.ResourceKind(k)] = amt
		}
	}
	return out
}

// RecentEvents returns up to n of the most recent environment events.
func (e *Environment) RecentEvents(n int) []core.EnvEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.Recent(n)
}
