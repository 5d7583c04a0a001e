package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/swarmmind/swarmmind/core"
)

// OpenAIProvider implements Provider against the OpenAI chat-completion
// API via the go-openai SDK, replacing the teacher's hand-rolled HTTP
// client with the richer SDK the rest of this corpus favours for this
// concern.
type OpenAIProvider struct {
	client         *openai.Client
	model          string
	reasoningClass bool
	logger         core.Logger
}

// reasoningModelPrefixes lists model names treated as reasoning-class
// per spec §4.1, forcing the 600s timeout tier regardless of TaskType.
var reasoningModelPrefixes = []string{"o1", "o3", "o4-mini"}

// NewOpenAIProvider builds a provider. baseURL may be empty to use the
// default OpenAI endpoint, or point at an OpenAI-compatible gateway.
func NewOpenAIProvider(apiKey, baseURL, model string, logger core.Logger) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	reasoning := false
	for _, prefix := range reasoningModelPrefixes {
		if strings.HasPrefix(model, prefix) {
			reasoning = true
			break
		}
	}
	return &OpenAIProvider{
		client:         openai.NewClientWithConfig(cfg),
		model:          model,
		reasoningClass: reasoning,
		logger:         logger,
	}
}

func (p *OpenAIProvider) IsReasoningClass() bool { return p.reasoningClass }

func (p *OpenAIProvider) messages(req ProviderRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: req.Prompt,
	})
	return msgs
}

func (p *OpenAIProvider) model_(req ProviderRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.model
}

func (p *OpenAIProvider) Complete(ctx context.Context, req ProviderRequest) (*ProviderResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       p.model_(req),
		Messages:    p.messages(req),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices")
	}
	return &ProviderResponse{
		Text:             resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (p *OpenAIProvider) Stream(ctx context.Context, req ProviderRequest, chunks chan<- StreamChunk) error {
	defer close(chunks)

	chatReq := openai.ChatCompletionRequest{
		Model:       p.model_(req),
		Messages:    p.messages(req),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	}
	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return fmt.Errorf("openai: stream create: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				chunks <- StreamChunk{Done: true}
				return nil
			}
			return fmt.Errorf("openai: stream recv: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		select {
		case chunks <- StreamChunk{Delta: delta}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
