package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/resilience"
)

type fakeProvider struct {
	responses []*ProviderResponse
	errs      []error
	calls     int
	reasoning bool
}

func (f *fakeProvider) Complete(ctx context.Context, req ProviderRequest) (*ProviderResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	if len(f.responses) == 0 {
		return nil, errors.New("fakeProvider: no more responses or errors configured")
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeProvider) Stream(ctx context.Context, req ProviderRequest, chunks chan<- StreamChunk) error {
	defer close(chunks)
	return nil
}

func (f *fakeProvider) IsReasoningClass() bool { return f.reasoning }

func fastRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestGenerateSuccessPlainText(t *testing.T) {
	p := &fakeProvider{responses: []*ProviderResponse{{Text: "hello world", Model: "gpt-4"}}}
	a := NewAdapter(p, WithRetryConfig(fastRetryConfig()))
	env := a.Generate(context.Background(), "say hi", GenerateOptions{TaskType: TaskSimple})
	require.True(t, env.Success)
	assert.Equal(t, "hello world", env.RawText)
	assert.Equal(t, 1, env.Attempts)
}

func TestGenerateJSONResponseExtractsPayload(t *testing.T) {
	p := &fakeProvider{responses: []*ProviderResponse{{Text: `here: {"status": "ok"}`}}}
	a := NewAdapter(p, WithRetryConfig(fastRetryConfig()))
	env := a.Generate(context.Background(), "give json", GenerateOptions{TaskType: TaskSimple, JSONResponse: true})
	require.True(t, env.Success)
	assert.Equal(t, "ok", env.Response["status"])
}

func TestGenerateJSONResponseFallsBackOnUnparseable(t *testing.T) {
	p := &fakeProvider{responses: []*ProviderResponse{{Text: "no json here at all"}}}
	a := NewAdapter(p, WithRetryConfig(fastRetryConfig()))
	env := a.Generate(context.Background(), "give json", GenerateOptions{TaskType: TaskSimple, JSONResponse: true})
	require.False(t, env.Success)
	require.NotNil(t, env.FallbackResponse)
	assert.Equal(t, "fallback", env.FallbackResponse.Status)
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	p := &fakeProvider{
		errs:      []error{errors.New("transient 1"), errors.New("transient 2")},
		responses: []*ProviderResponse{nil, nil, {Text: "recovered"}},
	}
	a := NewAdapter(p, WithRetryConfig(fastRetryConfig()))
	env := a.Generate(context.Background(), "retry me", GenerateOptions{TaskType: TaskSimple})
	require.True(t, env.Success)
	assert.Equal(t, "recovered", env.RawText)
	assert.Equal(t, 3, env.Attempts)
}

func TestGenerateReasoningClassForcesLongestTier(t *testing.T) {
	p := &fakeProvider{responses: []*ProviderResponse{{Text: "ok"}}, reasoning: true}
	a := NewAdapter(p, WithRetryConfig(fastRetryConfig()))
	timeout := timeoutForTier(TaskSimple, p.IsReasoningClass(), a.tiers)
	assert.Equal(t, 600*time.Second, timeout)
}

func TestGenerateExhaustsRetriesReturnsFallback(t *testing.T) {
	p := &fakeProvider{errs: []error{errors.New("e1"), errors.New("e2"), errors.New("e3")}}
	a := NewAdapter(p, WithRetryConfig(fastRetryConfig()))
	env := a.Generate(context.Background(), "doomed prompt", GenerateOptions{TaskType: TaskSimple})
	require.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}
