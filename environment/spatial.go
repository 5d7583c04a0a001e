// Package environment implements the four lock-protected sub-modules
// spec §4.3 describes sharing one store: the spatial model, resource
// manager, observability filter, and constraint engine, plus the
// dynamics sampler and bounded event log that tie them together.
package environment

import (
	"github.com/swarmmind/swarmmind/core"
)

// ConnectionKind tags a spatial edge (spec §4.3: "directed edges =
// connections of tagged kind (network, parent-child, coordination)").
type ConnectionKind string

const (
	ConnNetwork     ConnectionKind = "network"
	ConnParentChild ConnectionKind = "parent-child"
	ConnCoordination ConnectionKind = "coordination"
)

type edge struct {
	to   string
	kind ConnectionKind
}

// SpatialModel tracks entity locations and their directed connections.
// All mutation goes through the shared environment lock (see Environment);
// SpatialModel itself holds no lock of its own.
type SpatialModel struct {
	locations map[string]core.Location
	edges     map[string][]edge
}

func newSpatialModel() *SpatialModel {
	return &SpatialModel{
		locations: make(map[string]core.Location),
		edges:     make(map[string][]edge),
	}
}

func (s *SpatialModel) addEntity(id string, loc core.Location) {
	s.locations[id] = loc
}

func (s *SpatialModel) moveEntity(id string, loc core.Location) bool {
	if _, ok := s.locations[id]; !ok {
		return false
	}
	s.locations[id] = loc
	return true
}

func (s *SpatialModel) addConnection(from, to string, kind ConnectionKind) {
	s.edges[from] = append(s.edges[from], edge{to: to, kind: kind})
}

func (s *SpatialModel) location(id string) (core.Location, bool) {
	loc, ok := s.locations[id]
	return loc, ok
}

// neighboursWithinRadius returns every entity whose distance to id is
// <= radius, per spec §4.3 ("neighbours-within-radius").
func (s *SpatialModel) neighboursWithinRadius(id string, radius float64) []string {
	origin, ok := s.locations[id]
	if !ok {
		return nil
	}
	var out []string
	for other, loc := range s.locations {
		if other == id {
			continue
		}
		if origin.Distance(loc) <= radius {
			out = append(out, other)
		}
	}
	return out
}

// membersOfNamespace returns every entity whose location.Namespace
// matches ns (spec §4.3: "membership-by-namespace").
func (s *SpatialModel) membersOfNamespace(ns string) []string {
	var out []string
	for id, loc := range s.locations {
		if loc.Namespace == ns {
			out = append(out, id)
		}
	}
	return out
}

// directConnections returns the ids this entity has an outbound edge
// to, regardless of kind, used by the NETWORK observability level.
func (s *SpatialModel) directConnections(id string) []string {
	edges := s.edges[id]
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.to)
	}
	return out
}
