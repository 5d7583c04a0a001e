package environment

import "github.com/swarmmind/swarmmind/core"

// ObservabilityFilter narrows what an agent can see of the shared
// environment down to its configured VisibilityLevel (spec §4.3):
// FULL sees everything, NAMESPACE is scoped to same-namespace entities,
// PROCESS is scoped to same-host-and-process entities, NETWORK is
// scoped to direct connections only, NONE sees nothing.
type ObservabilityFilter struct {
	levels map[string]core.VisibilityLevel
}

func newObservabilityFilter() *ObservabilityFilter {
	return &ObservabilityFilter{levels: make(map[string]core.VisibilityLevel)}
}

// SetLevel assigns agentID's visibility tier; unset agents default to
// VisibilityFull.
func (f *ObservabilityFilter) setLevel(agentID string, level core.VisibilityLevel) {
	f.levels[agentID] = level
}

func (f *ObservabilityFilter) levelOf(agentID string) core.VisibilityLevel {
	if lvl, ok := f.levels[agentID]; ok {
		return lvl
	}
	return core.VisibilityFull
}

// visibleEntities filters candidate entity ids down to what agentID is
// permitted to observe, consulting the spatial model for namespace,
// process, and connection membership.
func (f *ObservabilityFilter) visibleEntities(agentID string, spatial *SpatialModel, candidates []string) []string {
	level := f.levelOf(agentID)
	switch level {
	case core.VisibilityNone:
		return nil
	case core.VisibilityFull:
		return candidates
	}

	origin, known := spatial.location(agentID)
	out := make([]string, 0, len(candidates))

	switch level {
	case core.VisibilityNamespace:
		if !known {
			return nil
		}
		for _, id := range candidates {
			if loc, ok := spatial.location(id); ok && loc.Namespace == origin.Namespace {
				out = append(out, id)
			}
		}
	case core.VisibilityProcess:
		if !known {
			return nil
		}
		for _, id := range candidates {
			if loc, ok := spatial.location(id); ok && loc.Host == origin.Host && loc.ProcessID == origin.ProcessID {
				out = append(out, id)
			}
		}
	case core.VisibilityNetwork:
		connected := make(map[string]bool)
		for _, id := range spatial.directConnections(agentID) {
			connected[id] = true
		}
		for _, id := range candidates {
			if connected[id] {
				out = append(out, id)
			}
		}
	default:
		return candidates
	}
	return out
}

// canSeeEvent reports whether an event originating from sourceID is
// visible to agentID under its current level, applying the same rules
// as visibleEntities to a single source.
func (f *ObservabilityFilter) canSeeEvent(agentID, sourceID string, spatial *SpatialModel) bool {
	if agentID == sourceID {
		return true
	}
	visible := f.visibleEntities(agentID, spatial, []string{sourceID})
	return len(visible) == 1
}
