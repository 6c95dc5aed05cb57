package group_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenboard/lumenboard/internal/domain/group"
	"github.com/lumenboard/lumenboard/internal/domain/permission"
	"github.com/lumenboard/lumenboard/internal/domain/user"
	"github.com/lumenboard/lumenboard/internal/utils"
)

type testEnv struct {
	groups group.Service
	users  user.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := utils.SetupTestDB(t, &user.User{}, &group.Group{}, &group.Member{}, &permission.GroupWidgetPermission{})
	users := user.NewService(user.NewRepository(db))
	return &testEnv{
		groups: group.NewService(group.NewRepository(db), users),
		users:  users,
	}
}

func (e *testEnv) addUser(t *testing.T, email string) *user.User {
	t.Helper()
	u, err := e.users.Upsert(user.Identity{Email: email, SubjectID: uuid.NewString()})
	require.NoError(t, err)
	return u
}

func TestCreate_DuplicateName(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")

	g, err := env.groups.Create("Engineering", "eng team", "#ff0000", admin.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Engineering", g.Name)

	_, err = env.groups.Create("Engineering", "", "", admin.ID.String())
	assert.ErrorIs(t, err, group.ErrDuplicateName)
}

func TestAddMembers_DropsUnknownUsers(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	alice := env.addUser(t, "alice@example.com")

	g, err := env.groups.Create("Engineering", "", "", admin.ID.String())
	require.NoError(t, err)

	err = env.groups.AddMembers(g.ID.String(), []string{alice.ID.String(), uuid.NewString()})
	require.NoError(t, err)

	detail, err := env.groups.Get(g.ID.String())
	require.NoError(t, err)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, alice.Email, detail.Members[0].Email)
}

func TestAddMembers_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	alice := env.addUser(t, "alice@example.com")

	g, err := env.groups.Create("Engineering", "", "", admin.ID.String())
	require.NoError(t, err)

	require.NoError(t, env.groups.AddMembers(g.ID.String(), []string{alice.ID.String()}))
	require.NoError(t, env.groups.AddMembers(g.ID.String(), []string{alice.ID.String()}))

	detail, err := env.groups.Get(g.ID.String())
	require.NoError(t, err)
	assert.Len(t, detail.Members, 1)
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	alice := env.addUser(t, "alice@example.com")

	g, err := env.groups.Create("Engineering", "", "", admin.ID.String())
	require.NoError(t, err)
	require.NoError(t, env.groups.AddMembers(g.ID.String(), []string{alice.ID.String()}))

	require.NoError(t, env.groups.RemoveMember(g.ID.String(), alice.ID.String()))

	err = env.groups.RemoveMember(g.ID.String(), alice.ID.String())
	assert.ErrorIs(t, err, group.ErrMemberNotFound)
}

func TestDelete_RemovesMemberships(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")
	alice := env.addUser(t, "alice@example.com")

	g, err := env.groups.Create("Engineering", "", "", admin.ID.String())
	require.NoError(t, err)
	require.NoError(t, env.groups.AddMembers(g.ID.String(), []string{alice.ID.String()}))

	require.NoError(t, env.groups.Delete(g.ID.String()))

	_, err = env.groups.Get(g.ID.String())
	assert.ErrorIs(t, err, group.ErrGroupNotFound)

	ids, err := env.groups.GroupIDsForUser(alice.ID.String())
	require.NoError(t, err)
	assert.Empty(t, ids)

	err = env.groups.Delete(g.ID.String())
	assert.ErrorIs(t, err, group.ErrGroupNotFound)
}

func TestUpdate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin@example.com")

	g, err := env.groups.Create("Engineering", "eng team", "#ff0000", admin.ID.String())
	require.NoError(t, err)
	_, err = env.groups.Create("Design", "", "", admin.ID.String())
	require.NoError(t, err)

	t.Run("rename and recolor", func(t *testing.T) {
		updated, err := env.groups.Update(g.ID.String(), "Platform", "", "#00ff00")
		require.NoError(t, err)
		assert.Equal(t, "Platform", updated.Name)
		assert.Equal(t, "eng team", updated.Description, "empty fields are left alone")
		assert.Equal(t, "#00ff00", updated.Color)
	})

	t.Run("rename onto taken name", func(t *testing.T) {
		_, err := env.groups.Update(g.ID.String(), "Design", "", "")
		assert.ErrorIs(t, err, group.ErrDuplicateName)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := env.groups.Update(uuid.NewString(), "X", "", "")
		assert.ErrorIs(t, err, group.ErrGroupNotFound)
	})
}
