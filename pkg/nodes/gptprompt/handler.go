// Package gptprompt provides the action.gpt_prompt node handler, backed by
// an OpenAI-compatible chat-completions endpoint.
package gptprompt

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/weftworks/weft/pkg/credentials"
	"github.com/weftworks/weft/pkg/expression"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/protocol"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.7
)

// Handler sends the resolved prompt to the text-generation service and
// returns the generated text plus token-usage metadata.
type Handler struct {
	resolver credentials.Resolver
	baseURL  string // override for tests and self-hosted gateways
}

// NewHandler creates the action.gpt_prompt handler.
func NewHandler(resolver credentials.Resolver, baseURL string) *Handler {
	return &Handler{resolver: resolver, baseURL: baseURL}
}

// Type returns the node type.
func (h *Handler) Type() string {
	return models.NodeTypeGPTPrompt
}

// Execute resolves the prompt and calls the upstream service. A missing
// API credential is ErrCredentialMissing; upstream failures are
// ErrUpstream and eligible for retry.
func (h *Handler) Execute(ctx context.Context, _ []models.NodeExecutionData, node *models.WorkflowNode, execution *models.ExecutionContext) (*models.NodeExecutionResult, error) {
	params := expression.ResolveParameters(execution.ExpressionScope(), node.Parameters)

	prompt, _ := params["prompt"].(string)
	if prompt == "" {
		return nil, fmt.Errorf("missing required parameter 'prompt'")
	}

	model := defaultModel
	if m, ok := params["model"].(string); ok && m != "" {
		model = m
	}

	temperature := float32(defaultTemperature)
	if t, ok := params["temperature"].(float64); ok {
		temperature = float32(t)
	}

	credentialType := credentials.TypeOpenAI
	credentialName := ""

	if node.Credentials != nil {
		if node.Credentials.Type != "" {
			credentialType = node.Credentials.Type
		}

		credentialName = node.Credentials.Name
	}

	apiKey, err := h.resolver.Resolve(ctx, credentialType, credentialName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrCredentialMissing, err)
	}

	config := openai.DefaultConfig(apiKey)
	if h.baseURL != "" {
		config.BaseURL = h.baseURL
	}

	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion response", protocol.ErrUpstream)
	}

	output := map[string]any{
		"result": resp.Choices[0].Message.Content,
		"usage": map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}

	return &models.NodeExecutionResult{
		OutputData: models.SingleOutput(output, nil),
		Metadata:   map[string]any{"model": model},
	}, nil
}

// Schema returns the parameter schema.
func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Prompt text. Supports templating, e.g. Analyze: {{ $prev.json }}",
			},
			"model": map[string]any{
				"type":    "string",
				"default": defaultModel,
			},
			"temperature": map[string]any{
				"type":    "number",
				"default": defaultTemperature,
				"minimum": 0,
				"maximum": 2,
			},
		},
		"required": []string{"prompt"},
	}
}
