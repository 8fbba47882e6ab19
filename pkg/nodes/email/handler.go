// Package email provides the action.email node handler. Delivery goes
// through a Sender collaborator; the baseline ships a simulated sender.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/weftworks/weft/pkg/expression"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/protocol"
)

// Message is one outbound mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers mail. Implementations must honor ctx cancellation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SimulatedSender logs the message instead of delivering it.
type SimulatedSender struct {
	logger *slog.Logger
}

// NewSimulatedSender creates a sender that only logs.
func NewSimulatedSender(logger *slog.Logger) *SimulatedSender {
	return &SimulatedSender{logger: logger}
}

// Send logs the outbound message and succeeds.
func (s *SimulatedSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("simulated email delivery", "to", msg.To, "subject", msg.Subject)

	return nil
}

// Handler hands a resolved message to the Sender and returns a
// sent-confirmation record.
type Handler struct {
	sender Sender
}

// NewHandler creates the action.email handler.
func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

// Type returns the node type.
func (h *Handler) Type() string {
	return models.NodeTypeEmail
}

// Execute resolves the message parameters and dispatches it.
func (h *Handler) Execute(ctx context.Context, _ []models.NodeExecutionData, node *models.WorkflowNode, execution *models.ExecutionContext) (*models.NodeExecutionResult, error) {
	params := expression.ResolveParameters(execution.ExpressionScope(), node.Parameters)

	msg := Message{}
	msg.To, _ = params["to"].(string)
	msg.Subject, _ = params["subject"].(string)
	msg.Body, _ = params["body"].(string)

	if msg.To == "" || msg.Subject == "" {
		return nil, fmt.Errorf("missing required parameter 'to' or 'subject'")
	}

	if err := h.sender.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrUpstream, err)
	}

	output := map[string]any{
		"sent":      true,
		"to":        msg.To,
		"subject":   msg.Subject,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	return &models.NodeExecutionResult{OutputData: models.SingleOutput(output, nil)}, nil
}

// Schema returns the parameter schema.
func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":      map[string]any{"type": "string"},
			"subject": map[string]any{"type": "string"},
			"body":    map[string]any{"type": "string"},
		},
		"required": []string{"to", "subject", "body"},
	}
}
