package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/swarmmind/swarmmind/core"
)

// WebSearchTool answers the "web_search" capability via a configurable
// search API endpoint (e.g. a self-hosted SearxNG instance or a
// provider's REST search endpoint) that returns a JSON array of
// {title, url, snippet} results.
type WebSearchTool struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewWebSearchTool(endpoint, apiKey string) *WebSearchTool {
	return &WebSearchTool{endpoint: endpoint, apiKey: apiKey, client: &http.Client{Timeout: 15 * time.Second}}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Describe() string {
	return "runs a web search query and returns a ranked list of {title, url, snippet} results"
}

func (t *WebSearchTool) Execute(ctx context.Context, params map[string]interface{}) (*core.ToolResult, error) {
	query, _ := params["query"].(string)
	if query == "" {
		return &core.ToolResult{Success: false, Error: "web_search: query is required"}, nil
	}
	limit := 5
	if n, ok := params["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}

	reqURL := fmt.Sprintf("%s?q=%s&limit=%d", t.endpoint, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &core.ToolResult{Success: false, Error: err.Error()}, nil
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return &core.ToolResult{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &core.ToolResult{Success: false, Error: err.Error()}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return &core.ToolResult{Success: false, Error: fmt.Sprintf("web_search: status %d", resp.StatusCode)}, nil
	}

	var results []map[string]interface{}
	if err := json.Unmarshal(body, &results); err != nil {
		return &core.ToolResult{Success: false, Error: "web_search: could not parse provider response: " + err.Error()}, nil
	}

	return &core.ToolResult{Success: true, Data: map[string]interface{}{"results": results}}, nil
}
