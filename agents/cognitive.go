package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/swarmmind/swarmmind/core"
	"github.com/swarmmind/swarmmind/llm"
)

// FileToCreate is one entry of a solve step's files_to_create[] (spec
// §4.6).
type FileToCreate struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// AnalysisResult is the strict JSON envelope the analyse step demands
// (spec §4.6 step 1).
type AnalysisResult struct {
	Type             string   `json:"type"` // simple/medium/complex/very_complex
	Domains          []string `json:"domains"`
	RequiredOutputs  []string `json:"required_outputs"`
	RequiresDecompose bool    `json:"requires_decompose"`
}

// Subtask is one decomposition-step output (spec §4.6 step 2).
type Subtask struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Dependencies      []string `json:"dependencies"`
	RequiredAgentType string   `json:"required_agent_type"`
}

// Solution is the solve step's output shape (spec §4.6 step 3).
type Solution struct {
	SolutionText   string         `json:"solution"`
	Code           string         `json:"code"`
	Steps          []string       `json:"steps"`
	Validation     string         `json:"validation"`
	Output         string         `json:"output"`
	FilesToCreate  []FileToCreate `json:"files_to_create"`
}

// ValidationResult is validate_solution's return shape (spec §4.6
// step 4).
type ValidationResult struct {
	IsValid      bool     `json:"is_valid"`
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Improvements []string `json:"improvements"`
	FinalVerdict string   `json:"final_verdict"`
}

// MessageIntent is the structured envelope a cognitive agent asks the
// LLM to produce when interpreting an inbound message (spec §4.6).
type MessageIntent struct {
	SenderIntent       string                 `json:"sender_intent"`
	RelevanceToGoals   float64                `json:"relevance_to_goals"`
	BeliefUpdates      map[string]interface{} `json:"belief_updates"`
	SuggestedResponse  string                 `json:"suggested_response"`
	Priority           string                 `json:"priority"`
}

// FileWriter is the narrow filesystem-tool capability the cognitive
// behavior needs to materialise files_to_create[] entries.
type FileWriter interface {
	Execute(ctx context.Context, params map[string]interface{}) (*core.ToolResult, error)
}

// CognitiveBehavior drives the fixed 4-step analyse/decompose/solve/
// validate pipeline through an llm.Adapter (spec §4.6). Decomposition
// is only invoked by the coordinator against root tasks; a leaf
// cognitive agent only ever runs analyse+solve via HandleTask.
//
// The periodic BDI cycle is a no-op for this behavior: all of a
// cognitive agent's real work is synchronous, driven by HandleTask and
// HandleMessage, since every step already goes through the adapter's
// own bounded timeout and retry policy.
type CognitiveBehavior struct {
	Adapter *llm.Adapter
	Files   FileWriter
	Router  MessageRouter
}

func NewCognitiveBehavior(adapter *llm.Adapter, files FileWriter) *CognitiveBehavior {
	return &CognitiveBehavior{Adapter: adapter, Files: files}
}

func (c *CognitiveBehavior) Perceive(ctx context.Context, agent *core.Agent, stimuli []Stimulus) (map[string]interface{}, error) {
	return nil, nil
}

func (c *CognitiveBehavior) Deliberate(ctx context.Context, agent *core.Agent) ([]string, error) {
	return nil, nil
}

func (c *CognitiveBehavior) Act(ctx context.Context, agent *core.Agent) ([]Action, error) {
	return nil, nil
}

// Analyse runs step 1: classify the task and decide whether it needs
// decomposition (spec §4.6 step 1). A bounded-size context is built
// from the task description and the agent's capability list.
func (c *CognitiveBehavior) Analyse(ctx context.Context, agent *core.Agent, task *core.Task) (*AnalysisResult, error) {
	prompt := fmt.Sprintf(
		"Analyse this task and respond with a strict JSON object {type, domains, required_outputs, requires_decompose}.\nTask: %s\nDescription: %s\nAgent capabilities: %v",
		task.Name, task.Description, agent.Capabilities.List(),
	)
	env := c.Adapter.Generate(ctx, prompt, llm.GenerateOptions{JSONResponse: true, TaskType: llm.TaskComplex})
	if !env.Success {
		return nil, analysisError(env)
	}
	return decodeEnvelope[AnalysisResult](env)
}

// Decompose runs step 2, invoked by the coordinator only against root
// tasks that Analyse flagged as requiring decomposition (spec §4.6
// step 2).
func (c *CognitiveBehavior) Decompose(ctx context.Context, task *core.Task, analysis *AnalysisResult) ([]Subtask, error) {
	prompt := fmt.Sprintf(
		"Decompose this task into ordered subtasks with declared dependencies referring to sibling names. Respond with a strict JSON array of {name, description, dependencies, required_agent_type}.\nTask: %s\nAnalysis domains: %v",
		task.Description, analysis.Domains,
	)
	env := c.Adapter.Generate(ctx, prompt, llm.GenerateOptions{JSONResponse: true, TaskType: llm.TaskComplex})
	if !env.Success {
		return nil, analysisError(env)
	}
	raw, err := json.Marshal(env.Response)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Subtasks []Subtask `json:"subtasks"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Subtasks) > 0 {
		return wrapper.Subtasks, nil
	}
	var list []Subtask
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	return nil, nil
}

// Solve runs step 3: ask for a solution object and materialise every
// files_to_create[] entry into the project workspace via the layout
// policy (spec §4.6 step 3, spec §6).
func (c *CognitiveBehavior) Solve(ctx context.Context, agent *core.Agent, task *core.Task) (*Solution, error) {
	prompt := fmt.Sprintf(
		"Solve this task and respond with a strict JSON object {solution, code, steps, validation, output, files_to_create}.\nTask: %s\nDescription: %s",
		task.Name, task.Description,
	)
	env := c.Adapter.Generate(ctx, prompt, llm.GenerateOptions{JSONResponse: true, TaskType: llm.TaskComplex, Stream: true})
	if !env.Success {
		return nil, analysisError(env)
	}
	solution, err := decodeEnvelope[Solution](env)
	if err != nil {
		return nil, err
	}
	if c.Files != nil {
		for _, f := range solution.FilesToCreate {
			destPath := CanonicalizePath(f.Path)
			if _, err := c.Files.Execute(ctx, map[string]interface{}{
				"operation": "write", "path": destPath, "content": f.Content,
			}); err != nil {
				return solution, err
			}
		}
	}
	return solution, nil
}

// ValidateSolution is the agent-side helper exposed for the
// coordinator's validation pass (spec §4.6 step 4); the coordinator,
// not the agent, decides what to do with the verdict.
func (c *CognitiveBehavior) ValidateSolution(ctx context.Context, task *core.Task, solution *Solution) (*ValidationResult, error) {
	prompt := fmt.Sprintf(
		"Validate this solution against the task description. Respond with a strict JSON object {is_valid, score, strengths, weaknesses, improvements, final_verdict}.\nTask: %s\nSolution: %s",
		task.Description, solution.SolutionText,
	)
	env := c.Adapter.Generate(ctx, prompt, llm.GenerateOptions{JSONResponse: true, TaskType: llm.TaskComplex})
	if !env.Success {
		return nil, analysisError(env)
	}
	return decodeEnvelope[ValidationResult](env)
}

// HandleTask runs analyse then solve against the task (decomposition
// is coordinator-driven, not part of this per-agent entry point),
// transitioning the task to in-progress on start, then to validating
// on success or failed on error, so a coordinator's result-handling
// loop observes the state change without needing a separate callback
// channel.
func (c *CognitiveBehavior) HandleTask(ctx context.Context, agent *core.Agent, task *core.Task) error {
	_ = task.Transition(core.StateInProgress)

	analysis, err := c.Analyse(ctx, agent, task)
	if err != nil {
		return c.failTask(agent, task, err)
	}
	agent.BDI.Beliefs.Set("last_analysis", analysis)

	solution, err := c.Solve(ctx, agent, task)
	if err != nil {
		return c.failTask(agent, task, err)
	}
	task.Result = map[string]interface{}{
		"solution": solution.SolutionText,
		"code":     solution.Code,
		"output":   solution.Output,
	}
	if err := task.Transition(core.StateValidating); err != nil {
		return c.failTask(agent, task, err)
	}
	agent.Metrics.IncTasksCompleted()
	return nil
}

func (c *CognitiveBehavior) failTask(agent *core.Agent, task *core.Task, cause error) error {
	task.Error = cause.Error()
	_ = task.Transition(core.StateFailed)
	agent.Metrics.IncTasksFailed()
	return cause
}

// HandleMessage interprets the sender's intent via the LLM into a
// structured envelope, merges belief updates, and replies with the
// suggested performative (spec §4.6).
func (c *CognitiveBehavior) HandleMessage(ctx context.Context, agent *core.Agent, msg core.Message) error {
	prompt := fmt.Sprintf(
		"Interpret this incoming message and respond with a strict JSON object {sender_intent, relevance_to_goals, belief_updates, suggested_response, priority}.\nFrom: %s\nPerformative: %s\nContent: %v",
		msg.SenderID, msg.Performative, msg.Content,
	)
	env := c.Adapter.Generate(ctx, prompt, llm.GenerateOptions{JSONResponse: true, TaskType: llm.TaskNormal})
	if !env.Success {
		return analysisError(env)
	}
	intent, err := decodeEnvelope[MessageIntent](env)
	if err != nil {
		return err
	}
	if intent.BeliefUpdates != nil {
		agent.BDI.Beliefs.Merge(intent.BeliefUpdates, "message_intent")
	}
	if c.Router != nil && intent.SuggestedResponse != "" {
		return c.Router.SendMessage(ctx, agent.ID, msg.SenderID,
			map[string]interface{}{"text": intent.SuggestedResponse},
			core.PerformativeInform, msg.ConversationID)
	}
	return nil
}

// decodeEnvelope decodes env's response into T and rejects it if any of
// T's json-tagged fields is absent from the raw object: a field merely
// carrying its zero value is indistinguishable from json.Unmarshal's
// default-on-absence behaviour, so the analyse/solve/validate steps
// would otherwise silently accept a malformed, key-missing response
// instead of treating it as an extraction failure (spec §4.6 step 1).
func decodeEnvelope[T any](env *llm.Envelope) (*T, error) {
	raw, err := json.Marshal(env.Response)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, core.Wrap("agents.cognitive", "decodeEnvelope", "", core.ErrInvalidJSON)
	}
	var out T
	for _, key := range jsonTagsOf(out) {
		if _, ok := fields[key]; !ok {
			return nil, core.Wrap("agents.cognitive", "decodeEnvelope", "", core.ErrInvalidJSON)
		}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, core.Wrap("agents.cognitive", "decodeEnvelope", "", core.ErrInvalidJSON)
	}
	return &out, nil
}

// jsonTagsOf lists the top-level json field names of a struct, in
// declaration order, ignoring "-" and untagged fields.
func jsonTagsOf(v interface{}) []string {
	t := reflect.TypeOf(v)
	if t.Kind() != reflect.Struct {
		return nil
	}
	tags := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name == "" {
			continue
		}
		tags = append(tags, name)
	}
	return tags
}

func analysisError(env *llm.Envelope) error {
	if env.Error == "" && env.FallbackResponse != nil {
		return core.Wrap("agents.cognitive", "Generate", "", core.ErrInvalidJSON)
	}
	return core.Wrap("agents.cognitive", "Generate", "", core.ErrTimeout)
}
