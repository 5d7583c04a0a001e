// Package llm implements the bounded-timeout, JSON-extracting LLM
// adapter every agent mode calls through (spec §4.1): a single
// Generate operation that never raises to the caller, instead always
// returning a well-typed Envelope, backed by a pluggable Provider.
package llm

import "time"

// TaskType selects the adapter's timeout tier (spec §4.1).
type TaskType string

const (
	TaskSimple    TaskType = "simple"
	TaskNormal    TaskType = "normal"
	TaskComplex   TaskType = "complex"
	TaskReasoning TaskType = "reasoning"
)

// GenerateOptions mirrors the spec's generate(prompt, {...}) call shape.
type GenerateOptions struct {
	SystemPrompt string
	JSONResponse bool
	TaskType     TaskType
	Temperature  float64
	MaxTokens    int
	Stream       bool
}

// Envelope is the uniform result of Generate: callers branch on
// Success and never see a raw provider error (spec §4.1: "caller
// always receives a well-typed envelope - never raises to BDI loop").
type Envelope struct {
	Success bool `json:"success"`
	// Response is the parsed JSON payload when JSONResponse was
	// requested and extraction/repair succeeded.
	Response map[string]interface{} `json:"response,omitempty"`
	// RawText is the provider's raw completion text, always populated
	// on success regardless of JSONResponse.
	RawText string `json:"raw_text,omitempty"`
	Error   string `json:"error,omitempty"`
	// FallbackResponse is populated when JSONResponse was requested but
	// no valid JSON could be extracted even after repair (Error is then
	// empty), and also when the provider call failed after all retries
	// (Error then carries the cause).
	FallbackResponse *FallbackEnvelope `json:"fallback_response,omitempty"`

	Model      string        `json:"model,omitempty"`
	Attempts   int           `json:"attempts"`
	Elapsed    time.Duration `json:"elapsed"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
}

// FallbackEnvelope is the deterministic shape returned when JSON
// extraction and repair both fail (spec §4.1).
type FallbackEnvelope struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	PromptHead string `json:"prompt_head"`
}

// timeoutForTier returns the timeout for a task type, forcing the
// reasoning tier when reasoningClass is true regardless of the
// requested tier (spec §4.1: "Models flagged as 'reasoning-class'
// force the 600s tier regardless").
func timeoutForTier(t TaskType, reasoningClass bool, tiers [4]time.Duration) time.Duration {
	if reasoningClass {
		return tiers[3]
	}
	switch t {
	case TaskSimple:
		return tiers[0]
	case TaskComplex:
		return tiers[2]
	case TaskReasoning:
		return tiers[3]
	default:
		return tiers[1]
	}
}
