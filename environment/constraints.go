package environment

import (
	"fmt"

	"github.com/swarmmind/swarmmind/core"
)

// ConstraintEngine evaluates every registered core.Constraint against a
// proposed ActionRequest and collects the full violation list rather
// than stopping at the first hit (spec §4.3).
type ConstraintEngine struct {
	constraints []core.Constraint
}

func newConstraintEngine(extra ...core.Constraint) *ConstraintEngine {
	e := &ConstraintEngine{}
	e.constraints = append(e.constraints, defaultConstraints()...)
	e.constraints = append(e.constraints, extra...)
	return e
}

func (e *ConstraintEngine) evaluate(req core.ActionRequest, snapshot core.EnvSnapshot) []core.Violation {
	var violations []core.Violation
	for _, c := range e.constraints {
		if violated, msg := c.Evaluate(req, snapshot); violated {
			violations = append(violations, core.Violation{Kind: c.Kind(), Message: msg})
		}
	}
	return violations
}

// defaultConstraints returns the spec §4.3 baseline list: CPU headroom,
// memory headroom, network bandwidth headroom, and namespace access.
func defaultConstraints() []core.Constraint {
	return []core.Constraint{
		cpuHeadroomConstraint{maxPercent: 90},
		memoryHeadroomConstraint{maxPercent: 90},
		networkBandwidthConstraint{},
		namespaceAccessConstraint{},
	}
}

type cpuHeadroomConstraint struct{ maxPercent float64 }

func (c cpuHeadroomConstraint) Kind() core.ConstraintKind { return core.ConstraintResource }

func (c cpuHeadroomConstraint) Evaluate(req core.ActionRequest, snap core.EnvSnapshot) (bool, string) {
	if req.Kind != "allocate_resource" {
		return false, ""
	}
	if snap.CPUPercent >= c.maxPercent {
		return true, fmt.Sprintf("cpu headroom exhausted: %.1f%% >= %.1f%% threshold", snap.CPUPercent, c.maxPercent)
	}
	return false, ""
}

type memoryHeadroomConstraint struct{ maxPercent float64 }

func (c memoryHeadroomConstraint) Kind() core.ConstraintKind { return core.ConstraintResource }

func (c memoryHeadroomConstraint) Evaluate(req core.ActionRequest, snap core.EnvSnapshot) (bool, string) {
	if req.Kind != "allocate_resource" {
		return false, ""
	}
	if snap.MemPercent >= c.maxPercent {
		return true, fmt.Sprintf("memory headroom exhausted: %.1f%% >= %.1f%% threshold", snap.MemPercent, c.maxPercent)
	}
	return false, ""
}

type networkBandwidthConstraint struct{}

func (c networkBandwidthConstraint) Kind() core.ConstraintKind { return core.ConstraintNetwork }

func (c networkBandwidthConstraint) Evaluate(req core.ActionRequest, snap core.EnvSnapshot) (bool, string) {
	if req.Kind != "communicate" {
		return false, ""
	}
	usage, ok := snap.Usage[core.ResourceNetworkBandwidth]
	if !ok {
		return false, ""
	}
	if usage.UtilisationPct >= 95 {
		return true, fmt.Sprintf("network bandwidth saturated: %.1f%% utilised", usage.UtilisationPct)
	}
	return false, ""
}

type namespaceAccessConstraint struct{}

func (c namespaceAccessConstraint) Kind() core.ConstraintKind { return core.ConstraintSecurity }

func (c namespaceAccessConstraint) Evaluate(req core.ActionRequest, snap core.EnvSnapshot) (bool, string) {
	if req.Kind != "move" && req.Kind != "spawn_process" {
		return false, ""
	}
	targetNS, _ := req.Params["namespace"].(string)
	allowedNS, hasAllow := req.Params["allowed_namespace"].(string)
	if hasAllow && targetNS != "" && targetNS != allowedNS {
		return true, fmt.Sprintf("namespace access denied: %s not permitted to enter %s", req.AgentID, targetNS)
	}
	return false, ""
}
