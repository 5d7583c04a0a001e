package llm

import "context"

// ProviderRequest is the normalised request shape Adapter hands to a
// Provider, after options defaulting but before any provider-specific
// wire format.
type ProviderRequest struct {
	SystemPrompt string
	Prompt       string
	Model        string
	Temperature  float64
	MaxTokens    int
	JSONMode     bool
}

// ProviderResponse is what a Provider hands back on a non-streaming
// call.
type ProviderResponse struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// StreamChunk is one delta emitted by a streaming Provider call.
type StreamChunk struct {
	Delta string
	Done  bool
}

// Provider is the pluggable backend the adapter drives. Two
// implementations ship: one using the go-openai SDK, one a raw-HTTP
// client in the teacher's manual-request style for providers without
// SDK coverage.
type Provider interface {
	Complete(ctx context.Context, req ProviderRequest) (*ProviderResponse, error)
	Stream(ctx context.Context, req ProviderRequest, chunks chan<- StreamChunk) error
	// IsReasoningClass reports whether this provider's configured model
	// is a reasoning-class model that always forces the longest timeout
	// tier (spec §4.1).
	IsReasoningClass() bool
}
