package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintgate/internal/registry/models"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("grant then check", func(t *testing.T) {
		store := NewInMemoryStore()

		ok, err := store.HasRole(ctx, models.RoleMinter, "alice")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Grant(ctx, models.RoleMinter, "alice"))

		ok, err = store.HasRole(ctx, models.RoleMinter, "alice")
		require.NoError(t, err)
		assert.True(t, ok)

		// Membership is per-role.
		ok, err = store.HasRole(ctx, models.RoleAdmin, "alice")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("grant is idempotent", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.Grant(ctx, models.RoleAdmin, "alice"))
		require.NoError(t, store.Grant(ctx, models.RoleAdmin, "alice"))

		roles, err := store.RolesOf(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []models.Role{models.RoleAdmin}, roles)
	})

	t.Run("revoke removes membership", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.Grant(ctx, models.RoleMinter, "alice"))
		require.NoError(t, store.Revoke(ctx, models.RoleMinter, "alice"))

		ok, err := store.HasRole(ctx, models.RoleMinter, "alice")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("revoking an absent grant is a no-op", func(t *testing.T) {
		store := NewInMemoryStore()
		assert.NoError(t, store.Revoke(ctx, models.RoleMinter, "ghost"))
	})

	t.Run("rolesOf lists all memberships", func(t *testing.T) {
		store := NewInMemoryStore()
		for _, role := range models.AllRoles() {
			require.NoError(t, store.Grant(ctx, role, "root"))
		}

		roles, err := store.RolesOf(ctx, "root")
		require.NoError(t, err)
		assert.ElementsMatch(t, models.AllRoles(), roles)
	})
}
