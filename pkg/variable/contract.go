package variable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/domain"
)

// RunServiceContract verifies that a Service implementation adheres to the
// interface contract. svc must start empty.
func RunServiceContract(t *testing.T, svc Service) {
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, svc.Set(ctx, "OPENAI_API_KEY", "sk-123"))

		v, err := svc.Get(ctx, "OPENAI_API_KEY")
		require.NoError(t, err)
		assert.Equal(t, "sk-123", v)

		require.NoError(t, svc.Set(ctx, "OPENAI_API_KEY", "sk-456"), "Set overwrites")
		v, err = svc.Get(ctx, "OPENAI_API_KEY")
		require.NoError(t, err)
		assert.Equal(t, "sk-456", v)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrVariableNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, svc.Set(ctx, "temp", "x"))
		require.NoError(t, svc.Delete(ctx, "temp"))

		_, err := svc.Get(ctx, "temp")
		assert.ErrorIs(t, err, domain.ErrVariableNotFound)
		assert.NoError(t, svc.Delete(ctx, "temp"), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, svc.Set(ctx, "b_var", "2"))
		require.NoError(t, svc.Set(ctx, "a_var", "1"))
		defer func() {
			_ = svc.Delete(ctx, "a_var")
			_ = svc.Delete(ctx, "b_var")
		}()

		names, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, "a_var")
		assert.Contains(t, names, "b_var")
		assert.NotContains(t, names, "temp")
	})
}
