package swarm

import (
	"strings"

	"github.com/swarmmind/swarmmind/core"
)

// Candidate is the scheduler's view of one agent eligible for
// selection: just enough state to compute the scoring formula without
// the selector depending on runtime.Runtime or agents.Core directly.
type Candidate struct {
	AgentID         string
	Role            string
	Capabilities    []string
	Idle            bool
	Offline         bool
	ActiveTaskCount int
	Completed       int64
	Failed          int64
	AvgValidation   float64 // 0-100
}

// typeKeywords maps a task type to the keywords checked for capability
// overlap (spec §4.9: "capability keyword overlap: +10 per matching
// keyword of the task type").
var typeKeywords = map[core.TaskType][]string{
	core.TaskAnalysis:       {"analysis", "research", "investigate"},
	core.TaskDesign:         {"design", "architecture", "plan"},
	core.TaskImplementation: {"implementation", "coding", "development"},
	core.TaskTesting:        {"testing", "qa", "validation"},
	core.TaskDeployment:     {"deployment", "ops", "infrastructure"},
	core.TaskValidation:     {"validation", "review", "qa"},
	core.TaskGeneral:        {"general"},
}

// Score computes the multi-criteria selection score for one candidate
// against one task (spec §4.9's agent-selection formula, verbatim):
//
//	required-type match:      +20 if task.Metadata["required_agent_type"] == candidate.Role
//	capability keyword match: +10 per matching keyword of the task type
//	idle bonus:               +5 if candidate is idle
//	success-rate bonus:       +(1 - failed/completed) * 5, skipped while completed is 0
//	validation-score bonus:   +(avg_validation/100) * 5
//	workload penalty:         -2 per active task assigned
func Score(task *core.Task, c Candidate) float64 {
	var score float64

	if requiredType, ok := task.Metadata["required_agent_type"].(string); ok && requiredType == c.Role {
		score += 20
	}

	for _, keyword := range typeKeywords[task.Type] {
		for _, cap := range c.Capabilities {
			if strings.EqualFold(cap, keyword) {
				score += 10
			}
		}
	}

	if c.Idle {
		score += 5
	}

	if c.Completed > 0 {
		successRate := 1 - float64(c.Failed)/float64(c.Completed)
		score += successRate * 5
	}

	score += (c.AvgValidation / 100) * 5

	score -= float64(c.ActiveTaskCount) * 2

	return score
}

// SelectAgent returns the highest-scoring non-offline candidate, or
// false if none qualify (spec §4.9: "If none qualifies, the task is
// re-queued"). An agent already at the max-in-flight cap (maxActive,
// 0 = unbounded) is excluded as overloaded.
func SelectAgent(task *core.Task, candidates []Candidate, maxActive int) (string, bool) {
	best := ""
	bestScore := 0.0
	found := false
	for _, c := range candidates {
		if c.Offline {
			continue
		}
		if maxActive > 0 && c.ActiveTaskCount >= maxActive {
			continue
		}
		s := Score(task, c)
		if !found || s > bestScore {
			best, bestScore, found = c.AgentID, s, true
		}
	}
	return best, found
}
