package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvResolver_Resolve_KnownType(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-default")

	resolver := NewEnvResolver()

	value, err := resolver.Resolve(context.Background(), TypeOpenAI, "")
	require.NoError(t, err)
	assert.Equal(t, "sk-default", value)
}

func TestEnvResolver_Resolve_NameScopedWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-default")
	t.Setenv("OPENAI_API_KEY_BILLING", "sk-billing")

	resolver := NewEnvResolver()

	value, err := resolver.Resolve(context.Background(), TypeOpenAI, "billing")
	require.NoError(t, err)
	assert.Equal(t, "sk-billing", value)
}

func TestEnvResolver_Resolve_UnknownTypeFallsBack(t *testing.T) {
	t.Setenv("SENDGRID_API", "sg-1")

	resolver := NewEnvResolver()

	value, err := resolver.Resolve(context.Background(), "sendgrid.api", "")
	require.NoError(t, err)
	assert.Equal(t, "sg-1", value)
}

func TestEnvResolver_Resolve_Missing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	resolver := NewEnvResolver()

	_, err := resolver.Resolve(context.Background(), TypeOpenAI, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
