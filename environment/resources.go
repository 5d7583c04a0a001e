package environment

import (
	"github.com/swarmmind/swarmmind/core"
)

// resourcePool tracks one resource kind's total/available and the
// per-agent allocation ledger (spec §3: "sum(allocated) + available ==
// total").
type resourcePool struct {
	total     float64
	available float64
	allocated map[string]float64
}

func newResourcePool(total float64) *resourcePool {
	return &resourcePool{total: total, available: total, allocated: make(map[string]float64)}
}

func (p *resourcePool) usage(kind core.ResourceKind) core.ResourceUsage {
	used := p.total - p.available
	pct := 0.0
	if p.total > 0 {
		pct = used / p.total * 100
	}
	return core.ResourceUsage{Kind: kind, Total: p.total, Available: p.available, Used: used, UtilisationPct: pct}
}

// ResourceManager performs transactional multi-resource allocation
// (spec §4.3): request() atomically succeeds only if every requested
// amount is available across all requested kinds; release() is
// idempotent and clamped.
type ResourceManager struct {
	pools map[core.ResourceKind]*resourcePool
}

// NewResourceManager builds a manager seeded with totals; any kind in
// core.AllResourceKinds absent from totals starts at zero.
func NewResourceManager(totals map[core.ResourceKind]float64) *ResourceManager {
	rm := &ResourceManager{pools: make(map[core.ResourceKind]*resourcePool, len(core.AllResourceKinds))}
	for _, kind := range core.AllResourceKinds {
		rm.pools[kind] = newResourcePool(totals[kind])
	}
	return rm
}

// Request atomically allocates every (kind, amount) pair to agentID,
// or allocates nothing and returns ErrResourceDenied if any single
// kind cannot satisfy its amount.
func (rm *ResourceManager) Request(agentID string, amounts map[core.ResourceKind]float64) error {
	for kind, amt := range amounts {
		pool, ok := rm.pools[kind]
		if !ok || pool.available < amt {
			return core.Wrap("environment.resources", "Request", string(kind), core.ErrResourceDenied)
		}
	}
	for kind, amt := range amounts {
		pool := rm.pools[kind]
		pool.available -= amt
		pool.allocated[agentID] += amt
	}
	return nil
}

// Release returns resources to the pool, clamping at zero so a
// double-release or an over-large release never drives available
// above total (spec §4.3: "idempotent and clamped").
func (rm *ResourceManager) Release(agentID string, amounts map[core.ResourceKind]float64) {
	for kind, amt := range amounts {
		pool, ok := rm.pools[kind]
		if !ok {
			continue
		}
		held := pool.allocated[agentID]
		if amt > held {
			amt = held
		}
		pool.allocated[agentID] = held - amt
		pool.available += amt
		if pool.available > pool.total {
			pool.available = pool.total
		}
	}
}

// Usage returns a usage snapshot for every accounted resource kind.
func (rm *ResourceManager) Usage() map[core.ResourceKind]core.ResourceUsage {
	out := make(map[core.ResourceKind]core.ResourceUsage, len(rm.pools))
	for kind, pool := range rm.pools {
		out[kind] = pool.usage(kind)
	}
	return out
}

// releaseAll frees every allocation held by agentID, used when an
// agent stops.
func (rm *ResourceManager) releaseAll(agentID string) {
	for kind, pool := range rm.pools {
		if held := pool.allocated[agentID]; held > 0 {
			rm.Release(agentID, map[core.ResourceKind]float64{kind: held})
		}
	}
}
