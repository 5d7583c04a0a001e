package environment

import (
	"time"

	"github.com/swarmmind/swarmmind/core"
)

// DynamicsRule is a condition/effect pair sampled on every update(dt)
// tick (spec §4.3: "condition/effect rule list"). Condition inspects
// the current snapshot; Effect mutates it in place when the condition
// holds.
type DynamicsRule struct {
	Name      string
	Condition func(core.EnvSnapshot) bool
	Effect    func(*core.EnvSnapshot, float64)
}

// Dynamics samples host metrics (here a deterministic synthetic model,
// since no real host probe is wired) and simulated variables such as
// network congestion during a high-traffic window, advancing on each
// update(dt) call (spec §4.3, supplemented from the original
// EnvironmentDynamics sampler).
type Dynamics struct {
	rules        []DynamicsRule
	elapsed      time.Duration
	cpuBaseline  float64
	memBaseline  float64
	trafficStart time.Duration
	trafficEnd   time.Duration
}

func newDynamics() *Dynamics {
	d := &Dynamics{
		cpuBaseline:  15,
		memBaseline:  30,
		trafficStart: 5 * time.Minute,
		trafficEnd:   15 * time.Minute,
	}
	d.rules = []DynamicsRule{
		{
			Name:      "high_traffic_congestion",
			Condition: func(core.EnvSnapshot) bool { return true },
			Effect:    d.applyTrafficWindow,
		},
	}
	return d
}

// addRule registers an additional condition/effect rule, evaluated
// after the built-in traffic-window rule.
func (d *Dynamics) addRule(r DynamicsRule) {
	d.rules = append(d.rules, r)
}

// update advances simulated elapsed time by dt and samples every rule
// whose condition holds against base, returning the resulting
// snapshot plus the names of rules that fired (for event logging).
func (d *Dynamics) update(dt time.Duration, base core.EnvSnapshot) (core.EnvSnapshot, []string) {
	d.elapsed += dt
	out := base
	var fired []string
	for _, rule := range d.rules {
		if rule.Condition(out) {
			rule.Effect(&out, dt.Seconds())
			fired = append(fired, rule.Name)
		}
	}
	return out, fired
}

// applyTrafficWindow raises simulated CPU, memory, and network
// congestion while elapsed sits within [trafficStart, trafficEnd),
// decaying back toward baseline outside it.
func (d *Dynamics) applyTrafficWindow(snap *core.EnvSnapshot, _ float64) {
	inWindow := d.elapsed >= d.trafficStart && d.elapsed < d.trafficEnd
	if inWindow {
		snap.CPUPercent = clampPercent(d.cpuBaseline + 45)
		snap.MemPercent = clampPercent(d.memBaseline + 25)
		snap.NetworkCongestion = 0.8
		return
	}
	snap.CPUPercent = clampPercent(d.cpuBaseline)
	snap.MemPercent = clampPercent(d.memBaseline)
	snap.NetworkCongestion = 0.1
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
