// Package httprequest provides the action.http_request node handler.
package httprequest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/weftworks/weft/pkg/expression"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/protocol"
)

const defaultTimeout = 30 * time.Second

// Handler performs an HTTP call with templated url/headers/body and
// returns the parsed JSON response body, with status and headers in the
// item metadata.
type Handler struct {
	client *http.Client
}

// NewHandler creates the action.http_request handler. A nil client gets a
// default with a 30s timeout.
func NewHandler(client *http.Client) *Handler {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &Handler{client: client}
}

// Type returns the node type.
func (h *Handler) Type() string {
	return models.NodeTypeHTTPRequest
}

// Execute performs the request. Network and body-parse failures surface as
// ErrHTTPRequestFailed, which the executor may retry.
func (h *Handler) Execute(ctx context.Context, _ []models.NodeExecutionData, node *models.WorkflowNode, execution *models.ExecutionContext) (*models.NodeExecutionResult, error) {
	params := expression.ResolveParameters(execution.ExpressionScope(), node.Parameters)

	url, _ := params["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("missing required parameter 'url'")
	}

	method := http.MethodGet
	if m, ok := params["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}

	body, hasBody, err := encodeBody(params["body"])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrHTTPRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrHTTPRequestFailed, err)
	}

	if headers, ok := params["headers"].(map[string]any); ok {
		for key, value := range headers {
			if s, ok := value.(string); ok {
				req.Header.Set(key, s)
			}
		}
	}

	if hasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrHTTPRequestFailed, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", protocol.ErrHTTPRequestFailed, err)
	}

	var parsed any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", protocol.ErrHTTPRequestFailed, err)
	}

	metadata := map[string]any{
		"status":  resp.StatusCode,
		"headers": flattenHeaders(resp.Header),
	}

	return &models.NodeExecutionResult{
		OutputData: models.SingleOutput(parsed, metadata),
		Metadata:   metadata,
	}, nil
}

func encodeBody(body any) (io.Reader, bool, error) {
	switch v := body.(type) {
	case nil:
		return nil, false, nil
	case string:
		if v == "" {
			return nil, false, nil
		}

		return strings.NewReader(v), true, nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, false, fmt.Errorf("failed to encode request body: %w", err)
		}

		return bytes.NewReader(encoded), true, nil
	}
}

func flattenHeaders(header http.Header) map[string]any {
	flat := make(map[string]any, len(header))
	for key := range header {
		flat[key] = header.Get(key)
	}

	return flat
}

// Schema returns the parameter schema.
func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL. Supports templating, e.g. https://{{ workflow.api_host }}/data",
			},
			"method": map[string]any{
				"type":    "string",
				"default": "GET",
				"enum":    []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers. Values support templating",
			},
			"body": map[string]any{
				"description": "Request body; objects are JSON-encoded, strings sent as-is",
			},
		},
		"required": []string{"url"},
	}
}
