// Package registry maps node types to their handler implementations.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// ErrUnknownNodeType indicates a node type no handler is registered for.
var ErrUnknownNodeType = errors.New("unknown node type")

// Registry holds the closed set of known node handlers. It is populated at
// process start and read-only thereafter, so it is safe for concurrent use
// by many executions without locking.
type Registry struct {
	logger   *slog.Logger
	handlers map[string]protocol.NodeHandler
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger,
		handlers: make(map[string]protocol.NodeHandler),
	}
}

// Register binds a handler to its node type. Registering a second handler
// under the same type replaces the first.
func (r *Registry) Register(handler protocol.NodeHandler) {
	r.handlers[handler.Type()] = handler
}

// Handler returns the handler for a node type.
func (r *Registry) Handler(nodeType string) (protocol.NodeHandler, error) {
	handler, ok := r.handlers[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	return handler, nil
}

// IsRegistered reports whether a node type has a handler.
func (r *Registry) IsRegistered(nodeType string) bool {
	_, ok := r.handlers[nodeType]

	return ok
}

// ListByCategory returns the registered node types within a category
// ("trigger", "action", "condition", "utility"), sorted for stable output.
func (r *Registry) ListByCategory(category string) []string {
	types := make([]string, 0)

	for nodeType := range r.handlers {
		if models.NodeCategory(nodeType) == category {
			types = append(types, nodeType)
		}
	}

	sort.Strings(types)

	return types
}

// Types returns all registered node types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for nodeType := range r.handlers {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// ValidateParameters checks a raw parameter bag against the handler's JSON
// schema. Templated values pass as strings; type errors surface at
// execution time instead.
func (r *Registry) ValidateParameters(nodeType string, parameters map[string]any) error {
	handler, err := r.Handler(nodeType)
	if err != nil {
		return err
	}

	schema := handler.Schema()
	if schema == nil {
		return nil
	}

	if parameters == nil {
		parameters = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(parameters),
	)
	if err != nil {
		return fmt.Errorf("failed to validate parameters for %s: %w", nodeType, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, description := range result.Errors() {
			messages = append(messages, description.String())
		}

		sort.Strings(messages)

		return fmt.Errorf("invalid parameters for %s: %v", nodeType, messages)
	}

	return nil
}
