package cmd

import (
	"log/slog"

	"github.com/weftworks/weft/pkg/registry"
)

// NewRegistry builds the node handler registry with the default handler set
// and environment-backed credential resolution.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	return registry.NewDefaultRegistry(registry.Deps{Logger: logger})
}
