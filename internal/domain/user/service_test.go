package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenboard/lumenboard/internal/utils"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	db := utils.SetupTestDB(t, &User{})
	return NewService(NewRepository(db))
}

func TestUpsert_FirstUserBecomesAdmin(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Upsert(Identity{Email: "alice@example.com", Name: "Alice", SubjectID: "sub-1"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, first.Role)
	assert.True(t, first.IsActive)
	assert.NotNil(t, first.LastLogin)

	second, err := svc.Upsert(Identity{Email: "bob@example.com", Name: "Bob", SubjectID: "sub-2"})
	require.NoError(t, err)
	assert.Equal(t, RoleUser, second.Role)
}

func TestUpsert_ReturningUserRefreshed(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Upsert(Identity{Email: "alice@example.com", Name: "Alice", SubjectID: "sub-1"})
	require.NoError(t, err)

	updated, err := svc.Upsert(Identity{Email: "alice@example.com", Name: "Alice B", SubjectID: "sub-1-new"})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID, "same account, not a duplicate")
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, "sub-1-new", updated.SubjectID)
	assert.Equal(t, RoleAdmin, updated.Role, "role survives re-login")
}

func TestChangeRole(t *testing.T) {
	svc := newTestService(t)

	admin, err := svc.Upsert(Identity{Email: "admin@example.com", SubjectID: "sub-a"})
	require.NoError(t, err)
	u, err := svc.Upsert(Identity{Email: "user@example.com", SubjectID: "sub-u"})
	require.NoError(t, err)

	t.Run("promote", func(t *testing.T) {
		require.NoError(t, svc.ChangeRole(u.ID.String(), RoleAdmin, admin.ID.String()))
		got, err := svc.Get(u.ID.String())
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, got.Role)
	})

	t.Run("self demotion rejected", func(t *testing.T) {
		err := svc.ChangeRole(admin.ID.String(), RoleUser, admin.ID.String())
		assert.ErrorIs(t, err, ErrSelfDemotion)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		err := svc.ChangeRole(u.ID.String(), Role("owner"), admin.ID.String())
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := svc.ChangeRole("7a5ef0aa-0000-0000-0000-000000000000", RoleUser, admin.ID.String())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestToggleActive(t *testing.T) {
	svc := newTestService(t)

	admin, err := svc.Upsert(Identity{Email: "admin@example.com", SubjectID: "sub-a"})
	require.NoError(t, err)
	u, err := svc.Upsert(Identity{Email: "user@example.com", SubjectID: "sub-u"})
	require.NoError(t, err)

	active, err := svc.ToggleActive(u.ID.String(), admin.ID.String())
	require.NoError(t, err)
	assert.False(t, active)

	active, err = svc.ToggleActive(u.ID.String(), admin.ID.String())
	require.NoError(t, err)
	assert.True(t, active)

	_, err = svc.ToggleActive(admin.ID.String(), admin.ID.String())
	assert.ErrorIs(t, err, ErrSelfDeactivation)
}
