package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/swarmmind/swarmmind/core"
	"github.com/swarmmind/swarmmind/resilience"
)

// Adapter is the single entry point every agent mode calls through to
// reach an LLM backend (spec §4.1).
type Adapter struct {
	provider Provider
	logger   core.ComponentLogger
	tiers    [4]time.Duration // simple, normal, complex, reasoning
	retry    resilience.RetryConfig
	breaker  *resilience.CircuitBreaker
}

// AdapterOption configures optional Adapter behaviour.
type AdapterOption func(*Adapter)

func WithTimeoutTiers(simple, normal, complex, reasoning time.Duration) AdapterOption {
	return func(a *Adapter) { a.tiers = [4]time.Duration{simple, normal, complex, reasoning} }
}

func WithRetryConfig(cfg resilience.RetryConfig) AdapterOption {
	return func(a *Adapter) { a.retry = cfg }
}

func WithCircuitBreaker(cb *resilience.CircuitBreaker) AdapterOption {
	return func(a *Adapter) { a.breaker = cb }
}

func WithLogger(logger core.ComponentLogger) AdapterOption {
	return func(a *Adapter) { a.logger = logger }
}

// NewAdapter builds an Adapter over provider with spec-default timeout
// tiers (60/120/300/600s) and retry policy (5 attempts, 2s base, 60s
// cap), overridable via opts.
func NewAdapter(provider Provider, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		provider: provider,
		tiers:    [4]time.Duration{60 * time.Second, 120 * time.Second, 300 * time.Second, 600 * time.Second},
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.retry.IsRetryable == nil {
		a.retry.IsRetryable = isTransient
	}
	return a
}

// isTransient classifies a provider error as retryable; anything that
// isn't a context error is treated as transient, since the provider
// interface already collapses HTTP status and SDK errors into a plain
// error and spec §4.1 only singles out timeouts as classified-transient
// by name while leaving the rest to the adapter's judgement.
func isTransient(err error) bool {
	return err != context.Canceled && err != context.DeadlineExceeded
}

// Generate runs the full adapter contract: tiered timeout selection,
// streaming accumulation when requested, retrying transient failures,
// and, for JSON responses, extraction+repair with a deterministic
// fallback on failure. It never returns a Go error: every outcome is
// reported through the returned Envelope (spec §4.1).
func (a *Adapter) Generate(ctx context.Context, prompt string, opts GenerateOptions) *Envelope {
	start := time.Now()
	timeout := timeoutForTier(opts.TaskType, a.provider.IsReasoningClass(), a.tiers)

	var resp *ProviderResponse
	attempts := 0

	runOnce := func(ctx context.Context, attempt int) error {
		attempts = attempt
		var err error
		if opts.Stream {
			resp, err = a.generateStreamed(ctx, prompt, opts)
		} else {
			resp, err = a.generateOnce(ctx, prompt, opts)
		}
		return err
	}

	var err error
	if opts.Stream {
		// Streaming ignores the per-request timeout tier in favour of
		// per-chunk inactivity (spec §4.1), so no context deadline is
		// attached here; generateStreamed enforces a fixed 30s per-chunk
		// inactivity limit (the configured StreamChunkInactivity is not
		// read).
		err = resilience.Retry(ctx, a.retry, runOnce)
	} else {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err = resilience.Retry(callCtx, a.retry, runOnce)
		cancel()
	}

	if err != nil {
		a.logError("llm generate failed", err, attempts)
		return a.fallbackEnvelope(prompt, attempts, time.Since(start), err)
	}

	env := &Envelope{
		Success:          true,
		RawText:          resp.Text,
		Model:            resp.Model,
		Attempts:         attempts,
		Elapsed:          time.Since(start),
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
	}

	if opts.JSONResponse {
		parsed, ok := a.extractAndParse(resp.Text)
		if !ok {
			env.Success = false
			env.FallbackResponse = &FallbackEnvelope{
				Status:     "fallback",
				Message:    "could not extract valid json from model response",
				PromptHead: promptHead(prompt),
			}
			return env
		}
		env.Response = parsed
	}

	return env
}

func (a *Adapter) generateOnce(ctx context.Context, prompt string, opts GenerateOptions) (*ProviderResponse, error) {
	req := ProviderRequest{
		SystemPrompt: opts.SystemPrompt,
		Prompt:       prompt,
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
		JSONMode:     opts.JSONResponse,
	}
	if a.breaker != nil && !a.breaker.Allow() {
		return nil, resilience.ErrCircuitOpen
	}
	resp, err := a.provider.Complete(ctx, req)
	if a.breaker != nil {
		if err != nil {
			a.breaker.RecordFailure()
		} else {
			a.breaker.RecordSuccess()
		}
	}
	return resp, err
}

// generateStreamed accumulates delta chunks into one string, resetting
// an inactivity timer on every chunk rather than bounding the whole
// call by the tiered timeout (spec §4.1).
func (a *Adapter) generateStreamed(ctx context.Context, prompt string, opts GenerateOptions) (*ProviderResponse, error) {
	req := ProviderRequest{
		SystemPrompt: opts.SystemPrompt,
		Prompt:       prompt,
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
		JSONMode:     opts.JSONResponse,
	}
	chunks := make(chan StreamChunk)
	errCh := make(chan error, 1)
	go func() { errCh <- a.provider.Stream(ctx, req, chunks) }()

	inactivity := 30 * time.Second
	timer := time.NewTimer(inactivity)
	defer timer.Stop()

	var accumulated []byte
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return &ProviderResponse{Text: string(accumulated)}, <-errCh
			}
			if chunk.Done {
				continue
			}
			accumulated = append(accumulated, chunk.Delta...)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(inactivity)
		case <-timer.C:
			return nil, fmt.Errorf("llm: stream inactive for %s", inactivity)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (a *Adapter) extractAndParse(text string) (map[string]interface{}, bool) {
	candidate, ok := ExtractJSON(text)
	if !ok {
		return nil, false
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
		return parsed, true
	}
	repaired := Repair(candidate)
	if err := json.Unmarshal([]byte(repaired), &parsed); err == nil {
		return parsed, true
	}
	return nil, false
}

func (a *Adapter) fallbackEnvelope(prompt string, attempts int, elapsed time.Duration, cause error) *Envelope {
	return &Envelope{
		Success:  false,
		Error:    cause.Error(),
		Attempts: attempts,
		Elapsed:  elapsed,
		FallbackResponse: &FallbackEnvelope{
			Status:     "fallback",
			Message:    cause.Error(),
			PromptHead: promptHead(prompt),
		},
	}
}

func promptHead(prompt string) string {
	const max = 200
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max]
}

func (a *Adapter) logError(msg string, err error, attempts int) {
	if a.logger == nil {
		return
	}
	a.logger.Error(msg, map[string]interface{}{"error": err.Error(), "attempts": attempts})
}
