package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/session"
	"github.com/lumenboard/lumenboard/internal/domain/user"
	"github.com/lumenboard/lumenboard/internal/identity"
	"github.com/lumenboard/lumenboard/internal/utils"
)

// stubVerifier stands in for the upstream identity provider
type stubVerifier struct {
	profile *identity.Profile
	err     error
}

func (s *stubVerifier) AuthURL(state string) string {
	return "https://idp.example.com/auth?state=" + state
}

func (s *stubVerifier) Exchange(_ context.Context, _ string) (*identity.Profile, error) {
	return s.profile, s.err
}

type testEnv struct {
	auth     *Service
	users    user.Service
	sessions session.Service
	verifier *stubVerifier
}

func newTestEnv(t *testing.T, allowedDomains []string) *testEnv {
	t.Helper()

	db := utils.SetupTestDB(t, &user.User{}, &session.Session{}, &session.DeviceSession{}, &audit.Entry{})

	users := user.NewService(user.NewRepository(db))
	sessions := session.NewService(session.NewRepository(db))
	auditRepo := audit.NewRepository(db)
	tokens := newTokenService(t, "lumenboard-suite", "lumenboard-dash", 15)
	verifier := &stubVerifier{}

	svc := NewService(users, sessions, tokens, verifier, auditRepo, allowedDomains, 90*24*time.Hour)
	return &testEnv{auth: svc, users: users, sessions: sessions, verifier: verifier}
}

func (e *testEnv) login(t *testing.T, email, sub string) *LoginResult {
	t.Helper()
	e.verifier.profile = &identity.Profile{Email: email, Name: "Test User", SubjectID: sub}
	result, err := e.auth.Callback(context.Background(), "code", "test-agent", "127.0.0.1")
	require.NoError(t, err)
	return result
}

func TestCallback(t *testing.T) {
	env := newTestEnv(t, nil)

	result := env.login(t, "alice@example.com", "sub-1")

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, user.RoleAdmin, result.User.Role, "first user is promoted")

	// The refresh token must be backed by a session row
	ref, err := env.sessions.FindByToken(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, ref.UserID)
	assert.Equal(t, session.KindBrowser, ref.Kind)
}

func TestCallback_DomainNotAllowed(t *testing.T) {
	env := newTestEnv(t, []string{"example.com"})

	env.verifier.profile = &identity.Profile{Email: "eve@evil.org", SubjectID: "sub-x"}
	_, err := env.auth.Callback(context.Background(), "code", "", "")
	assert.ErrorIs(t, err, ErrDomainNotAllowed)

	// A listed domain passes, case-insensitively
	env.verifier.profile = &identity.Profile{Email: "alice@EXAMPLE.com", SubjectID: "sub-1"}
	_, err = env.auth.Callback(context.Background(), "code", "", "")
	assert.NoError(t, err)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t, nil)
	result := env.login(t, "alice@example.com", "sub-1")

	refreshed, err := env.auth.Refresh(result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	t.Run("access token cannot refresh", func(t *testing.T) {
		_, err := env.auth.Refresh(result.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := env.auth.Refresh("garbage")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRefresh_RevokedSession(t *testing.T) {
	env := newTestEnv(t, nil)
	result := env.login(t, "alice@example.com", "sub-1")

	require.NoError(t, env.sessions.DeleteAllForUser(result.User.ID))

	// The signature is still valid; the missing row must reject it anyway
	_, err := env.auth.Refresh(result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_DeactivatedUser(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.login(t, "admin@example.com", "sub-a")
	other := env.login(t, "bob@example.com", "sub-b")

	_, err := env.users.ToggleActive(other.User.ID, admin.User.ID)
	require.NoError(t, err)

	_, err = env.auth.Refresh(other.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	result := env.login(t, "alice@example.com", "sub-1")

	require.NoError(t, env.auth.Logout(result.RefreshToken, "127.0.0.1"))

	// The session is gone, so both refresh and a second logout fail
	_, err := env.auth.Refresh(result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, env.auth.Logout(result.RefreshToken, "127.0.0.1"), ErrInvalidToken)
}

func TestAuthURL_PassesState(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, "https://idp.example.com/auth?state=xyz", env.auth.AuthURL("xyz"))
}
