package core

import (
	"math"
	"time"
)

// Location is a software-location tuple (spec §3): host, process, and
// container/namespace identity, plus optional abstract coordinates for
// agents that have no real topology but still want a distance metric.
type Location struct {
	Host        string
	ProcessID   string
	ContainerID string
	Namespace   string
	HasCoords   bool
	X, Y        float64
}

// Distance implements the spec §3 distance function: different host is
// "large" (modelled as a fixed penalty well above any coordinate-based
// distance), same host but different process is "small", otherwise
// Euclidean on coordinates when both sides carry them, or a constant
// when neither does.
func (l Location) Distance(other Location) float64 {
	const (
		differentHostDistance  = 1_000_000.0
		differentProcessSmall  = 10.0
		sameLocationConstant   = 1.0
	)
	if l.Host != other.Host {
		return differentHostDistance
	}
	if l.ProcessID != other.ProcessID {
		return differentProcessSmall
	}
	if l.HasCoords && other.HasCoords {
		dx := l.X - other.X
		dy := l.Y - other.Y
		return math.Sqrt(dx*dx + dy*dy)
	}
	return sameLocationConstant
}

// ResourceKind enumerates the resource types the environment accounts
// for (spec §3).
type ResourceKind string

const (
	ResourceCPU             ResourceKind = "cpu"
	ResourceMemory          ResourceKind = "memory"
	ResourceDiskIOBandwidth ResourceKind = "disk_io_bandwidth"
	ResourceNetworkBandwidth ResourceKind = "network_bandwidth"
	ResourceFileHandles     ResourceKind = "file_handles"
	ResourceThreads         ResourceKind = "threads"
)

// AllResourceKinds lists every accounted resource, used to initialise a
// fresh ledger with zero totals for anything the caller didn't specify.
var AllResourceKinds = []ResourceKind{
	ResourceCPU, ResourceMemory, ResourceDiskIOBandwidth,
	ResourceNetworkBandwidth, ResourceFileHandles, ResourceThreads,
}

// ResourceUsage is the snapshot shape returned by the resource manager's
// usage() call (spec §4.3): total/available/used/utilisation per kind.
type ResourceUsage struct {
	Kind            ResourceKind
	Total           float64
	Available       float64
	Used            float64
	UtilisationPct  float64
}

// EnvEventType tags what kind of environment event occurred.
type EnvEventType string

const (
	EventAgentMoved       EnvEventType = "agent_moved"
	EventResourceGranted  EnvEventType = "resource_granted"
	EventResourceReleased EnvEventType = "resource_released"
	EventResourceDenied   EnvEventType = "resource_denied"
	EventMessageRouted    EnvEventType = "message_routed"
	EventProcessSpawned   EnvEventType = "process_spawned"
	EventConstraintHit    EnvEventType = "constraint_violation"
	EventDynamicsRule     EnvEventType = "dynamics_rule_fired"
)

// EnvEvent is one entry in the environment's append-only ring (spec §3:
// "type tag, source id, data payload, timestamp; append-only ring
// (bounded, typically 10 000 entries)").
type EnvEvent struct {
	Type      EnvEventType
	SourceID  string
	Data      map[string]interface{}
	Timestamp time.Time
}

// VisibilityLevel is the per-agent observability tier (spec §4.3).
type VisibilityLevel string

const (
	VisibilityFull      VisibilityLevel = "full"
	VisibilityNamespace VisibilityLevel = "namespace"
	VisibilityProcess   VisibilityLevel = "process"
	VisibilityNetwork   VisibilityLevel = "network"
	VisibilityNone      VisibilityLevel = "none"
)

// ConstraintKind tags the category of a constraint, for reporting and
// for ordering the default constraint list (spec §3).
type ConstraintKind string

const (
	ConstraintSecurity    ConstraintKind = "security"
	ConstraintPerformance ConstraintKind = "performance"
	ConstraintResource    ConstraintKind = "resource"
	ConstraintNetwork     ConstraintKind = "network"
	ConstraintScheduling  ConstraintKind = "scheduling"
)

// ActionRequest is the (action, context) pair constraints are evaluated
// against (spec §4.3). Kind names the dispatcher verb (move,
// allocate_resource, communicate, spawn_process); Params carries verb-
// specific arguments.
type ActionRequest struct {
	AgentID string
	Kind    string
	Params  map[string]interface{}
}

// Violation pairs a failed constraint with its human-readable message;
// the constraint engine returns the full list rather than short-
// circuiting on the first hit (spec §4.3).
type Violation struct {
	Kind    ConstraintKind
	Message string
}

// Constraint evaluates a proposed action and returns a human-readable
// violation message plus whether it fired; callers collect every
// violation across the ordered constraint list before denying an
// action.
type Constraint interface {
	Kind() ConstraintKind
	Evaluate(req ActionRequest, snapshot EnvSnapshot) (violated bool, message string)
}

// EnvSnapshot is the read-only view of environment state a Constraint
// or Dynamics rule needs to evaluate without taking the environment's
// lock itself; package environment constructs it under lock and passes
// it down.
type EnvSnapshot struct {
	Usage       map[ResourceKind]ResourceUsage
	CPUPercent  float64
	MemPercent  float64
	NetworkCongestion float64
	Timestamp   time.Time
}
