package permission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenboard/lumenboard/internal/domain/group"
	"github.com/lumenboard/lumenboard/internal/domain/user"
	"github.com/lumenboard/lumenboard/internal/utils"
)

type testEnv struct {
	perms  Service
	groups group.Service
	users  user.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := utils.SetupTestDB(t, &user.User{}, &group.Group{}, &group.Member{},
		&Permission{}, &WidgetPermission{}, &GroupWidgetPermission{})

	users := user.NewService(user.NewRepository(db))
	groups := group.NewService(group.NewRepository(db), users)
	perms := NewService(NewRepository(db), groups)

	return &testEnv{perms: perms, groups: groups, users: users}
}

func (e *testEnv) addUser(t *testing.T, email string) *user.User {
	t.Helper()
	u, err := e.users.Upsert(user.Identity{Email: email, SubjectID: "sub-" + email})
	require.NoError(t, err)
	return u
}

func TestFlatGrants(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com") // first user, admin role
	u := env.addUser(t, "bob@example.com")
	id := u.ID.String()

	require.NoError(t, env.perms.Grant(id, "export_reports", admin.ID.String()))

	t.Run("duplicate grant rejected", func(t *testing.T) {
		err := env.perms.Grant(id, "export_reports", admin.ID.String())
		assert.ErrorIs(t, err, ErrDuplicateGrant)
	})

	t.Run("direct grant answers", func(t *testing.T) {
		ok, err := env.perms.HasPermission(id, user.RoleUser, "export_reports")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ungranted permission denied", func(t *testing.T) {
		ok, err := env.perms.HasPermission(id, user.RoleUser, "manage_billing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("role baseline answers without a row", func(t *testing.T) {
		ok, err := env.perms.HasPermission(id, user.RoleUser, "view_dashboard")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("admin short-circuits everything", func(t *testing.T) {
		ok, err := env.perms.HasPermission(admin.ID.String(), user.RoleAdmin, "anything_at_all")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("revoke removes the grant", func(t *testing.T) {
		require.NoError(t, env.perms.Revoke(id, "export_reports"))
		ok, err := env.perms.HasPermission(id, user.RoleUser, "export_reports")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.ErrorIs(t, env.perms.Revoke(id, "export_reports"), ErrGrantNotFound)
	})
}

func TestWidgetAccess_Direct(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	u := env.addUser(t, "bob@example.com")
	id := u.ID.String()

	require.NoError(t, env.perms.GrantWidget(id, "calendar", AccessEdit, admin.ID.String(), nil))

	ok, err := env.perms.HasWidgetAccess(id, user.RoleUser, "calendar", AccessView)
	require.NoError(t, err)
	assert.True(t, ok, "edit satisfies view")

	ok, err = env.perms.HasWidgetAccess(id, user.RoleUser, "calendar", AccessAdmin)
	require.NoError(t, err)
	assert.False(t, ok, "edit does not satisfy admin")

	ok, err = env.perms.HasWidgetAccess(id, user.RoleUser, "weather", AccessView)
	require.NoError(t, err)
	assert.False(t, ok, "no grant at all")

	ok, err = env.perms.HasWidgetAccess(id, user.RoleAdmin, "weather", AccessAdmin)
	require.NoError(t, err)
	assert.True(t, ok, "admin role bypasses grants")
}

func TestWidgetAccess_GrantIsUpsert(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	u := env.addUser(t, "bob@example.com")
	id := u.ID.String()

	require.NoError(t, env.perms.GrantWidget(id, "calendar", AccessView, admin.ID.String(), nil))
	require.NoError(t, env.perms.GrantWidget(id, "calendar", AccessAdmin, admin.ID.String(), nil))

	grants, err := env.perms.ListWidgetsForUser(id)
	require.NoError(t, err)
	require.Len(t, grants, 1, "second grant updates, not duplicates")
	assert.Equal(t, AccessAdmin, grants[0].AccessLevel)
}

func TestWidgetAccess_GroupFallback(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	u := env.addUser(t, "bob@example.com")
	id := u.ID.String()

	viewers, err := env.groups.Create("viewers", "", "", admin.ID.String())
	require.NoError(t, err)
	editors, err := env.groups.Create("editors", "", "", admin.ID.String())
	require.NoError(t, err)
	require.NoError(t, env.groups.AddMembers(viewers.ID.String(), []string{id}))
	require.NoError(t, env.groups.AddMembers(editors.ID.String(), []string{id}))

	require.NoError(t, env.perms.GrantGroupWidget(viewers.ID.String(), "calendar", AccessView, admin.ID.String(), nil))
	require.NoError(t, env.perms.GrantGroupWidget(editors.ID.String(), "calendar", AccessEdit, admin.ID.String(), nil))

	// The highest group grant wins
	ok, err := env.perms.HasWidgetAccess(id, user.RoleUser, "calendar", AccessEdit)
	require.NoError(t, err)
	assert.True(t, ok)

	// A direct grant takes precedence even when it is lower
	require.NoError(t, env.perms.GrantWidget(id, "calendar", AccessView, admin.ID.String(), nil))
	ok, err = env.perms.HasWidgetAccess(id, user.RoleUser, "calendar", AccessEdit)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWidgetAccess_Expiry(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	u := env.addUser(t, "bob@example.com")
	id := u.ID.String()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	t.Run("expired direct grant falls through to groups", func(t *testing.T) {
		g, err := env.groups.Create("editors", "", "", admin.ID.String())
		require.NoError(t, err)
		require.NoError(t, env.groups.AddMembers(g.ID.String(), []string{id}))
		require.NoError(t, env.perms.GrantGroupWidget(g.ID.String(), "calendar", AccessEdit, admin.ID.String(), &future))

		require.NoError(t, env.perms.GrantWidget(id, "calendar", AccessAdmin, admin.ID.String(), &past))

		ok, err := env.perms.HasWidgetAccess(id, user.RoleUser, "calendar", AccessAdmin)
		require.NoError(t, err)
		assert.False(t, ok, "expired direct admin grant does not count")

		ok, err = env.perms.HasWidgetAccess(id, user.RoleUser, "calendar", AccessEdit)
		require.NoError(t, err)
		assert.True(t, ok, "the live group grant still applies")
	})

	t.Run("expired group grant ignored", func(t *testing.T) {
		g, err := env.groups.Create("stale", "", "", admin.ID.String())
		require.NoError(t, err)
		require.NoError(t, env.groups.AddMembers(g.ID.String(), []string{id}))
		require.NoError(t, env.perms.GrantGroupWidget(g.ID.String(), "weather", AccessAdmin, admin.ID.String(), &past))

		ok, err := env.perms.HasWidgetAccess(id, user.RoleUser, "weather", AccessView)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGroupDelete_RemovesWidgetGrants(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	u := env.addUser(t, "bob@example.com")
	id := u.ID.String()

	g, err := env.groups.Create("viewers", "", "", admin.ID.String())
	require.NoError(t, err)
	require.NoError(t, env.groups.AddMembers(g.ID.String(), []string{id}))
	require.NoError(t, env.perms.GrantGroupWidget(g.ID.String(), "calendar", AccessEdit, admin.ID.String(), nil))

	ok, err := env.perms.HasWidgetAccess(id, user.RoleUser, "calendar", AccessEdit)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, env.groups.Delete(g.ID.String()))

	ok, err = env.perms.HasWidgetAccess(id, user.RoleUser, "calendar", AccessView)
	require.NoError(t, err)
	assert.False(t, ok, "grants of a deleted group no longer apply")

	grants, err := env.perms.ListWidgetsForGroup(g.ID.String())
	require.NoError(t, err)
	assert.Empty(t, grants, "the grant rows are gone, not just unreachable")
}

func TestRevokeWidget(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	id := uuid.NewString()

	require.NoError(t, env.perms.GrantWidget(id, "calendar", AccessView, admin.ID.String(), nil))
	require.NoError(t, env.perms.RevokeWidget(id, "calendar"))
	assert.ErrorIs(t, env.perms.RevokeWidget(id, "calendar"), ErrGrantNotFound)
}

func TestInvalidAccessLevel(t *testing.T) {
	env := newTestEnv(t)

	err := env.perms.GrantWidget(uuid.NewString(), "calendar", AccessLevel("owner"), "", nil)
	assert.ErrorIs(t, err, ErrInvalidAccessLevel)

	_, err = env.perms.HasWidgetAccess(uuid.NewString(), user.RoleUser, "calendar", AccessLevel("owner"))
	assert.ErrorIs(t, err, ErrInvalidAccessLevel)
}
