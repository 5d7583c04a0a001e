package tools

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/swarmmind/swarmmind/core"
)

// HTTPTool answers the "http" capability: issues a single HTTP request
// on the agent's behalf, returning status/headers/body in Data so the
// coordinator can capture side effects as spec §3 requires ("any side
// effects... are captured in the returned data").
type HTTPTool struct {
	client *http.Client
}

func NewHTTPTool(timeout time.Duration) *HTTPTool {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTool{client: &http.Client{Timeout: timeout}}
}

func (t *HTTPTool) Name() string { return "http" }

func (t *HTTPTool) Describe() string {
	return "issues an HTTP request (method, url, headers, body) and returns status, headers and body"
}

func (t *HTTPTool) Execute(ctx context.Context, params map[string]interface{}) (*core.ToolResult, error) {
	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	url, _ := params["url"].(string)
	if url == "" {
		return &core.ToolResult{Success: false, Error: "http: url is required"}, nil
	}

	var body io.Reader
	if b, ok := params["body"].(string); ok && b != "" {
		body = strings.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, body)
	if err != nil {
		return &core.ToolResult{Success: false, Error: err.Error()}, nil
	}
	if headers, ok := params["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return &core.ToolResult{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &core.ToolResult{Success: false, Error: err.Error()}, nil
	}

	headers := make(map[string]interface{}, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &core.ToolResult{
		Success: resp.StatusCode < 400,
		Data: map[string]interface{}{
			"status_code": resp.StatusCode,
			"headers":     headers,
			"body":        string(data),
		},
	}, nil
}
