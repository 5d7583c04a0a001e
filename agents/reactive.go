package agents

import (
	"context"
	"fmt"

	"github.com/swarmmind/swarmmind/core"
)

// ConditionOp is a comparison operator usable inside a mapping
// condition (spec §4.5: "$gt,$lt,$eq,$in").
type ConditionOp string

const (
	OpGreaterThan ConditionOp = "$gt"
	OpLessThan    ConditionOp = "$lt"
	OpEqual       ConditionOp = "$eq"
	OpIn          ConditionOp = "$in"
)

// Predicate is the callable form a Rule's condition may take instead
// of a field-mapping.
type Predicate func(Stimulus) bool

// FieldCondition is a {field: value} or {field: {op: value}} mapping
// condition, per spec §4.5.
type FieldCondition map[string]interface{}

// Rule is one entry in a reactive agent's priority-ordered rule list
// (spec §4.5): `[(name, priority, condition, action_template)]`.
// Exactly one of Predicate / Condition should be set.
type Rule struct {
	Name            string
	Priority        int
	Predicate       Predicate
	Condition       FieldCondition
	ActionTemplate  func(Stimulus) Action
	ContinueMatching bool
}

func (r Rule) matches(s Stimulus) bool {
	if r.Predicate != nil {
		return r.Predicate(s)
	}
	return matchFieldCondition(r.Condition, s.Fields)
}

func matchFieldCondition(cond FieldCondition, fields map[string]interface{}) bool {
	for field, want := range cond {
		have, ok := fields[field]
		if !ok {
			return false
		}
		if opMap, isOpMap := want.(map[string]interface{}); isOpMap {
			if !matchOps(opMap, have) {
				return false
			}
			continue
		}
		if !valuesEqual(have, want) {
			return false
		}
	}
	return true
}

func matchOps(ops map[string]interface{}, have interface{}) bool {
	for op, want := range ops {
		switch ConditionOp(op) {
		case OpGreaterThan:
			if !numericCompare(have, want, func(a, b float64) bool { return a > b }) {
				return false
			}
		case OpLessThan:
			if !numericCompare(have, want, func(a, b float64) bool { return a < b }) {
				return false
			}
		case OpEqual:
			if !valuesEqual(have, want) {
				return false
			}
		case OpIn:
			if !memberOf(have, want) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func numericCompare(have, want interface{}, cmp func(a, b float64) bool) bool {
	a, aok := toFloat(have)
	b, bok := toFloat(want)
	if !aok || !bok {
		return false
	}
	return cmp(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func valuesEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func memberOf(have, want interface{}) bool {
	list, ok := want.([]interface{})
	if !ok {
		return false
	}
	for _, item := range list {
		if valuesEqual(have, item) {
			return true
		}
	}
	return false
}

// ReactiveBehavior matches incoming stimuli against a priority-ordered
// rule list and emits one action per firing rule, in priority order,
// stopping after the first match unless that rule opts into
// ContinueMatching (spec §4.5).
type ReactiveBehavior struct {
	rules   []Rule
	lastObs []Stimulus
}

// NewReactiveBehavior seeds the rule list with defaults derived from
// the agent's capability set (spec §4.5: "capability `monitoring` seeds
// a threshold-alert rule"), plus any caller-supplied rules, then sorts
// by priority descending.
func NewReactiveBehavior(agent *core.Agent, extra ...Rule) *ReactiveBehavior {
	rb := &ReactiveBehavior{}
	rb.rules = append(rb.rules, defaultRulesForCapabilities(agent)...)
	rb.rules = append(rb.rules, extra...)
	rb.sortRules()
	return rb
}

func defaultRulesForCapabilities(agent *core.Agent) []Rule {
	var rules []Rule
	if agent.Capabilities.Has("monitoring") {
		rules = append(rules, Rule{
			Name:     "threshold_alert",
			Priority: 100,
			Condition: FieldCondition{
				"type": "metric_reading",
				"value": map[string]interface{}{"$gt": 90.0},
			},
			ActionTemplate: func(s Stimulus) Action {
				return Action{
					Type: ActionUpdateBelief,
					Params: map[string]interface{}{
						"alert": true,
						"alert_source": s.Fields["source_id"],
					},
				}
			},
		})
	}
	return rules
}

func (rb *ReactiveBehavior) sortRules() {
	for i := 1; i < len(rb.rules); i++ {
		for j := i; j > 0 && rb.rules[j-1].Priority < rb.rules[j].Priority; j-- {
			rb.rules[j-1], rb.rules[j] = rb.rules[j], rb.rules[j-1]
		}
	}
}

// AddRule appends a rule and re-sorts by priority.
func (rb *ReactiveBehavior) AddRule(r Rule) {
	rb.rules = append(rb.rules, r)
	rb.sortRules()
}

func (rb *ReactiveBehavior) Perceive(ctx context.Context, agent *core.Agent, stimuli []Stimulus) (map[string]interface{}, error) {
	rb.lastObs = stimuli
	return nil, nil
}

// Deliberate finds every rule whose condition matches at least one
// stimulus and returns `execute_rule_<name>` intentions in priority
// order (spec §4.5).
func (rb *ReactiveBehavior) Deliberate(ctx context.Context, agent *core.Agent) ([]string, error) {
	var intentions []string
	for _, rule := range rb.rules {
		if rb.firstMatch(rule) != nil {
			intentions = append(intentions, "execute_rule_"+rule.Name)
		}
	}
	return intentions, nil
}

func (rb *ReactiveBehavior) firstMatch(rule Rule) *Stimulus {
	for i := range rb.lastObs {
		if rule.matches(rb.lastObs[i]) {
			return &rb.lastObs[i]
		}
	}
	return nil
}

// Act produces one action per firing rule in priority order (spec
// §4.5).
func (rb *ReactiveBehavior) Act(ctx context.Context, agent *core.Agent) ([]Action, error) {
	var actions []Action
	for _, rule := range rb.rules {
		if stim := rb.firstMatch(rule); stim != nil && rule.ActionTemplate != nil {
			actions = append(actions, rule.ActionTemplate(*stim))
			if !rule.ContinueMatching {
				break
			}
		}
	}
	return actions, nil
}

func (rb *ReactiveBehavior) HandleMessage(ctx context.Context, agent *core.Agent, msg core.Message) error {
	rb.lastObs = append(rb.lastObs, Stimulus{
		Kind:   StimulusMessage,
		Fields: map[string]interface{}{"type": string(msg.Performative), "sender_id": msg.SenderID, "content": msg.Content},
	})
	return nil
}

// HandleTask treats the task as an immediate rule-driven stimulus:
// there is no multi-step solve pipeline, so completion happens
// synchronously here rather than through the coordinator's validation
// pass (spec §4.9: "validation ... if enabled" implies not every task
// route needs it).
func (rb *ReactiveBehavior) HandleTask(ctx context.Context, agent *core.Agent, task *core.Task) error {
	stim := Stimulus{
		Kind:     StimulusTask,
		Fields:   map[string]interface{}{"type": string(task.Type), "id": task.ID},
		Priority: int(task.Priority),
	}
	rb.lastObs = append(rb.lastObs, stim)

	_ = task.Transition(core.StateInProgress)
	var matched string
	for _, rule := range rb.rules {
		if rule.matches(stim) {
			matched = rule.Name
			break
		}
	}
	if matched == "" {
		task.Error = "no reactive rule matched"
		_ = task.Transition(core.StateFailed)
		agent.Metrics.IncTasksFailed()
		return nil
	}
	task.Result = map[string]interface{}{"matched_rule": matched}
	_ = task.Transition(core.StateCompleted)
	agent.Metrics.IncTasksCompleted()
	return nil
}
