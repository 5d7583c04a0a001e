package agents

import (
	"context"
	"sync"

	"github.com/swarmmind/swarmmind/core"
)

// complexityExperience is one logged (score, mode, success, duration)
// sample used by the online threshold-learning pass (spec §4.7).
type complexityExperience struct {
	score    float64
	mode     core.AgentMode
	success  bool
	duration float64
}

// HybridBehavior routes between a reactive and a cognitive sub-
// behavior per cycle based on a learned complexity threshold (spec
// §4.7).
type HybridBehavior struct {
	Reactive  *ReactiveBehavior
	Cognitive *CognitiveBehavior

	mu              sync.Mutex
	threshold       float64
	learningRate    float64
	experiences     []complexityExperience
	adjustments     map[string]float64 // per-factor learned multiplier
	maxActionsPerCycle int
}

const (
	minThreshold = 0.5
	maxThreshold = 4.0
	experienceBatchSize = 100
)

// NewHybridBehavior seeds threshold=1.0 and learningRate=0.1 matching
// the original's defaults; both are fixed values set here, not
// constructor parameters.
func NewHybridBehavior(reactive *ReactiveBehavior, cognitive *CognitiveBehavior) *HybridBehavior {
	return &HybridBehavior{
		Reactive:     reactive,
		Cognitive:    cognitive,
		threshold:    1.0,
		learningRate: 0.1,
		adjustments:  make(map[string]float64),
		maxActionsPerCycle: 5,
	}
}

// complexityFactors are the raw, pre-adjustment inputs to the score
// formula (spec §4.7).
type complexityFactors struct {
	stimuliCount      float64
	uniqueTypes       float64
	maxPriority       float64
	interdependencies float64
	requiresReasoning bool
}

func (h *HybridBehavior) adjustment(factor string) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.adjustments[factor]; ok {
		return v
	}
	return 1.0
}

// ComplexityScore computes the weighted complexity score (spec §4.7):
//
//	score = 0.1*stimuli_count + 0.2*unique_types + 0.1*max_priority +
//	        0.3*interdependencies + (1.0 if requires_reasoning else 0)
//
// each term scaled by its own learned multiplicative adjustment.
func (h *HybridBehavior) ComplexityScore(f complexityFactors) float64 {
	score := 0.1*f.stimuliCount*h.adjustment("stimuli_count") +
		0.2*f.uniqueTypes*h.adjustment("unique_types") +
		0.1*f.maxPriority*h.adjustment("max_priority") +
		0.3*f.interdependencies*h.adjustment("interdependencies")
	if f.requiresReasoning {
		score += 1.0 * h.adjustment("requires_reasoning")
	}
	return score
}

func factorsFromStimuli(stimuli []Stimulus) complexityFactors {
	types := make(map[StimulusKind]bool)
	maxPriority := 0
	interdeps := 0
	requiresReasoning := false
	for _, s := range stimuli {
		types[s.Kind] = true
		if s.Priority > maxPriority {
			maxPriority = s.Priority
		}
		if deps, ok := s.Fields["dependencies"].([]interface{}); ok {
			interdeps += len(deps)
		}
		if s.Kind == StimulusTask {
			if taskType, ok := s.Fields["type"].(string); ok && (taskType == string(core.TaskDesign) || taskType == string(core.TaskImplementation)) {
				requiresReasoning = true
			}
		}
	}
	return complexityFactors{
		stimuliCount:      float64(len(stimuli)),
		uniqueTypes:       float64(len(types)),
		maxPriority:       float64(maxPriority),
		interdependencies: float64(interdeps),
		requiresReasoning: requiresReasoning,
	}
}

// Mode picks reactive/cognitive/hybrid for a given score against the
// current threshold (spec §4.7: "score < 0.5*threshold -> reactive;
// score > 1.5*threshold -> cognitive; otherwise hybrid").
func (h *HybridBehavior) Mode(score float64) core.AgentMode {
	h.mu.Lock()
	t := h.threshold
	h.mu.Unlock()
	switch {
	case score < 0.5*t:
		return core.ModeReactive
	case score > 1.5*t:
		return core.ModeCognitive
	default:
		return core.ModeHybrid
	}
}

func (h *HybridBehavior) Perceive(ctx context.Context, agent *core.Agent, stimuli []Stimulus) (map[string]interface{}, error) {
	score := h.ComplexityScore(factorsFromStimuli(stimuli))
	if _, err := h.Reactive.Perceive(ctx, agent, stimuli); err != nil {
		return nil, err
	}
	return map[string]interface{}{"complexity_score": score}, nil
}

func (h *HybridBehavior) Deliberate(ctx context.Context, agent *core.Agent) ([]string, error) {
	scoreVal, _ := agent.BDI.Beliefs.Get("complexity_score")
	score, _ := scoreVal.(float64)
	mode := h.Mode(score)

	switch mode {
	case core.ModeReactive:
		return h.Reactive.Deliberate(ctx, agent)
	case core.ModeCognitive:
		return []string{"run_cognitive_pipeline"}, nil
	default:
		intentions, err := h.Reactive.Deliberate(ctx, agent)
		if err != nil {
			return nil, err
		}
		return append(intentions, "run_cognitive_pipeline"), nil
	}
}

// Act produces the reactive sub-behavior's actions, bounded to
// maxActionsPerCycle (spec §4.7: "hybrid ... bounded by an
// action-count cap of 5 per cycle"). The cognitive half of a "hybrid"
// mode cycle does not run here: when Deliberate's
// "run_cognitive_pipeline" intention is present, Act only appends an
// update_belief action setting "cognitive_pipeline_pending" to true.
// Nothing else in this package reads that belief; cognitive work runs
// only through HandleTask/HandleMessage.
func (h *HybridBehavior) Act(ctx context.Context, agent *core.Agent) ([]Action, error) {
	var actions []Action
	reactiveActions, err := h.Reactive.Act(ctx, agent)
	if err != nil {
		return nil, err
	}
	actions = append(actions, reactiveActions...)
	if agent.BDI.Intentions.Has("run_cognitive_pipeline") {
		actions = append(actions, Action{Type: ActionUpdateBelief, Params: map[string]interface{}{"cognitive_pipeline_pending": true}})
	}
	if len(actions) > h.maxActionsPerCycle {
		actions = actions[:h.maxActionsPerCycle]
	}
	return actions, nil
}

// HandleMessage assesses the single message's complexity and routes
// it to the matching sub-behavior (spec §4.7: "Per-message and
// per-task entry points first assess complexity of that single
// stimulus and route accordingly").
func (h *HybridBehavior) HandleMessage(ctx context.Context, agent *core.Agent, msg core.Message) error {
	stim := Stimulus{Kind: StimulusMessage, Fields: map[string]interface{}{"type": string(msg.Performative), "sender_id": msg.SenderID}}
	score := h.ComplexityScore(factorsFromStimuli([]Stimulus{stim}))
	if h.Mode(score) == core.ModeReactive {
		return h.Reactive.HandleMessage(ctx, agent, msg)
	}
	return h.Cognitive.HandleMessage(ctx, agent, msg)
}

// HandleTask assesses the single task's complexity and routes it
// accordingly (spec §4.7).
func (h *HybridBehavior) HandleTask(ctx context.Context, agent *core.Agent, task *core.Task) error {
	stim := Stimulus{Kind: StimulusTask, Fields: map[string]interface{}{"type": string(task.Type)}, Priority: int(task.Priority)}
	score := h.ComplexityScore(factorsFromStimuli([]Stimulus{stim}))
	mode := h.Mode(score)
	if mode == core.ModeReactive {
		return h.Reactive.HandleTask(ctx, agent, task)
	}
	return h.Cognitive.HandleTask(ctx, agent, task)
}

// LogExperience records one (score, mode, success, duration) sample
// and triggers threshold learning every 100 experiences (spec §4.7).
func (h *HybridBehavior) LogExperience(score float64, mode core.AgentMode, success bool, durationSeconds float64) {
	h.mu.Lock()
	h.experiences = append(h.experiences, complexityExperience{score: score, mode: mode, success: success, duration: durationSeconds})
	shouldLearn := len(h.experiences)%experienceBatchSize == 0
	h.mu.Unlock()
	if shouldLearn {
		h.learnThreshold()
	}
}

// learnThreshold compares aggregate success rate between reactive and
// cognitive across every experience logged so far and nudges the
// threshold when one mode dominates by more than 20 percentage points
// (spec §4.7). This pools all experiences rather than bucketing by
// score sub-range,
// since with a 100-experience batch size per-bucket samples would be
// too thin to compare reliably; see DESIGN.md.
func (h *HybridBehavior) learnThreshold() {
	h.mu.Lock()
	defer h.mu.Unlock()

	var reactiveSuccess, reactiveTotal, cognitiveSuccess, cognitiveTotal int
	for _, e := range h.experiences {
		switch e.mode {
		case core.ModeReactive:
			reactiveTotal++
			if e.success {
				reactiveSuccess++
			}
		case core.ModeCognitive:
			cognitiveTotal++
			if e.success {
				cognitiveSuccess++
			}
		}
	}
	if reactiveTotal == 0 || cognitiveTotal == 0 {
		return
	}
	reactiveRate := float64(reactiveSuccess) / float64(reactiveTotal) * 100
	cognitiveRate := float64(cognitiveSuccess) / float64(cognitiveTotal) * 100

	delta := h.learningRate * 0.1
	switch {
	case reactiveRate-cognitiveRate > 20:
		h.threshold += delta // reactive dominates: raise the bar for escalating to cognitive
	case cognitiveRate-reactiveRate > 20:
		h.threshold -= delta
	default:
		return
	}
	if h.threshold < minThreshold {
		h.threshold = minThreshold
	}
	if h.threshold > maxThreshold {
		h.threshold = maxThreshold
	}
}

// Threshold returns the current learned threshold, for observability.
func (h *HybridBehavior) Threshold() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.threshold
}
