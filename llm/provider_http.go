package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/swarmmind/swarmmind/core"
)

// HTTPProvider is a manual-request Provider for OpenAI-compatible
// chat-completion endpoints that don't have SDK coverage, built the
// way the teacher's own AI client talks to OpenAI: a plain
// encoding/json request body over net/http rather than a generated
// client. Streaming is implemented by reading the SSE-style
// "data: {...}" lines the chat-completions endpoint emits when
// stream=true.
type HTTPProvider struct {
	apiKey         string
	baseURL        string
	model          string
	reasoningClass bool
	httpClient     *http.Client
	logger         core.Logger
}

func NewHTTPProvider(apiKey, baseURL, model string, reasoningClass bool, logger core.Logger) *HTTPProvider {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &HTTPProvider{
		apiKey:         apiKey,
		baseURL:        baseURL,
		model:          model,
		reasoningClass: reasoningClass,
		httpClient:     &http.Client{Timeout: 0}, // caller's ctx carries the deadline
		logger:         logger,
	}
}

func (p *HTTPProvider) IsReasoningClass() bool { return p.reasoningClass }

func (p *HTTPProvider) modelFor(req ProviderRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.model
}

func (p *HTTPProvider) buildBody(req ProviderRequest, stream bool) ([]byte, error) {
	messages := []map[string]string{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]interface{}{
		"model":       p.modelFor(req),
		"messages":    messages,
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
		"stream":      stream,
	}
	if req.JSONMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	return json.Marshal(body)
}

func (p *HTTPProvider) Complete(ctx context.Context, req ProviderRequest) (*ProviderResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("llm: no API key configured for http provider")
	}
	payload, err := p.buildBody(req, false)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm: provider returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("llm: parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("llm: no choices in response")
	}

	return &ProviderResponse{
		Text:             parsed.Choices[0].Message.Content,
		Model:            parsed.Model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func (p *HTTPProvider) Stream(ctx context.Context, req ProviderRequest, chunks chan<- StreamChunk) error {
	defer close(chunks)
	if p.apiKey == "" {
		return fmt.Errorf("llm: no API key configured for http provider")
	}
	payload, err := p.buildBody(req, true)
	if err != nil {
		return fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("llm: provider returned status %d: %s", resp.StatusCode, string(data))
	}

	return scanSSE(ctx, resp.Body, chunks)
}

// scanSSE reads "data: {...}"-framed lines and emits each delta's
// content as a StreamChunk, terminating on the literal "data: [DONE]"
// sentinel the chat-completions streaming endpoint sends.
func scanSSE(ctx context.Context, body io.Reader, chunks chan<- StreamChunk) error {
	const prefix = "data: "
	reader := bufio.NewReader(body)

	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && strings.HasPrefix(trimmed, prefix) {
			data := trimmed[len(prefix):]
			if data == "[DONE]" {
				select {
				case chunks <- StreamChunk{Done: true}:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			}
			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if jsonErr := json.Unmarshal([]byte(data), &chunk); jsonErr == nil && len(chunk.Choices) > 0 {
				delta := chunk.Choices[0].Delta.Content
				if delta != "" {
					select {
					case chunks <- StreamChunk{Delta: delta}:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("llm: stream read: %w", err)
		}
	}
}
