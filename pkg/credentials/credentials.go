// Package credentials resolves decrypted secrets for node types that need
// them. The engine never stores resolved secrets in variables or logs.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound indicates no secret is configured for the requested key.
var ErrNotFound = errors.New("credential not found")

// Resolver fetches a decrypted secret keyed by credential type and an
// optional name.
type Resolver interface {
	Resolve(ctx context.Context, credentialType, name string) (string, error)
}

// Built-in credential types.
const (
	TypeOpenAI = "openai_api"
)

// EnvResolver resolves credentials from environment variables. Known types
// map to conventional variable names; unknown types fall back to the
// upper-cased type.
type EnvResolver struct {
	mapping map[string]string
}

// NewEnvResolver creates a resolver with the default type mapping.
func NewEnvResolver() *EnvResolver {
	return &EnvResolver{
		mapping: map[string]string{
			TypeOpenAI: "OPENAI_API_KEY",
		},
	}
}

// Resolve returns the secret for (type, name), preferring a name-scoped
// variable ("<VAR>_<NAME>") when a name is given.
func (r *EnvResolver) Resolve(_ context.Context, credentialType, name string) (string, error) {
	variable, ok := r.mapping[credentialType]
	if !ok {
		variable = strings.ToUpper(strings.ReplaceAll(credentialType, ".", "_"))
	}

	if name != "" {
		scoped := variable + "_" + strings.ToUpper(name)
		if value := os.Getenv(scoped); value != "" {
			return value, nil
		}
	}

	value := os.Getenv(variable)
	if value == "" {
		return "", fmt.Errorf("%w: type %q", ErrNotFound, credentialType)
	}

	return value, nil
}
