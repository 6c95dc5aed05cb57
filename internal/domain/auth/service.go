package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/session"
	"github.com/lumenboard/lumenboard/internal/domain/user"
	"github.com/lumenboard/lumenboard/internal/identity"
)

// LoginResult is returned by a successful callback exchange
type LoginResult struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
	User         *user.Summary `json:"user"`
}

// RefreshResult is returned by a successful token refresh
type RefreshResult struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Service handles the login, refresh and logout flows.
//
// Access tokens are not tracked server side, so revoking a session only
// cuts off refresh; an already minted access token stays usable until it
// expires, at most the configured access TTL later.
type Service struct {
	Users    user.Service
	Sessions session.Service
	Tokens   *TokenService
	Verifier identity.Verifier
	Audit    audit.Repository

	allowedDomains []string
	auditRetention time.Duration
}

// NewService creates a new auth service
func NewService(users user.Service, sessions session.Service, tokens *TokenService, verifier identity.Verifier, auditRepo audit.Repository, allowedDomains []string, auditRetention time.Duration) *Service {
	return &Service{
		Users:          users,
		Sessions:       sessions,
		Tokens:         tokens,
		Verifier:       verifier,
		Audit:          auditRepo,
		allowedDomains: allowedDomains,
		auditRetention: auditRetention,
	}
}

// AuthURL returns the upstream authorization URL for the login redirect
func (s *Service) AuthURL(state string) string {
	return s.Verifier.AuthURL(state)
}

// Callback exchanges the authorization code, upserts the user and opens a
// browser session. Housekeeping (expired row sweep, audit trim) rides on
// this path instead of a background job.
func (s *Service) Callback(ctx context.Context, code, userAgent, ip string) (*LoginResult, error) {
	profile, err := s.Verifier.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	if !s.domainAllowed(profile.Email) {
		return nil, ErrDomainNotAllowed
	}

	u, err := s.Users.Upsert(user.Identity{
		Email:     profile.Email,
		Name:      profile.Name,
		SubjectID: profile.SubjectID,
	})
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	result, err := s.openSession(u, userAgent, ip)
	if err != nil {
		return nil, err
	}

	if err := s.Audit.Log(u.ID.String(), audit.ActionLogin, "browser login", ip); err != nil {
		slog.Warn("failed to write audit entry", "error", err, "action", audit.ActionLogin)
	}
	s.housekeep()

	return result, nil
}

// openSession mints the token pair and records the backing session row
func (s *Service) openSession(u *user.User, userAgent, ip string) (*LoginResult, error) {
	sid := uuid.New()

	access, err := s.Tokens.IssueAccessToken(u, sid.String())
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(u, sid.String())
	if err != nil {
		return nil, err
	}

	if _, err := s.Sessions.Create(sid, u.ID, refresh, userAgent, ip, s.Tokens.RefreshTTL()); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.Tokens.AccessTTL().Seconds()),
		User:         u.ToSummary(),
	}, nil
}

// Refresh verifies a refresh token and mints a fresh access token. The
// token must still be backed by a live session row; a deleted or expired
// row rejects the refresh even though the signature is valid.
func (s *Service) Refresh(refreshToken string) (*RefreshResult, error) {
	claims, err := s.Tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	ref, err := s.Sessions.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if ref.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	u, err := s.Users.Get(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !u.IsActive {
		return nil, ErrInvalidToken
	}

	access, err := s.Tokens.IssueAccessToken(u, ref.ID.String())
	if err != nil {
		return nil, err
	}

	if err := s.Sessions.TouchLastUsed(ref); err != nil {
		slog.Warn("failed to touch session", "error", err, "session_id", ref.ID.String())
	}

	return &RefreshResult{
		AccessToken: access,
		ExpiresIn:   int(s.Tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout deletes the session row behind a refresh token
func (s *Service) Logout(refreshToken, ip string) error {
	if _, err := s.Tokens.Verify(refreshToken, TokenTypeRefresh); err != nil {
		return ErrInvalidToken
	}

	ref, err := s.Sessions.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if err := s.Sessions.Delete(ref); err != nil {
		return err
	}

	if err := s.Audit.Log(ref.UserID, audit.ActionLogout, "logout", ip); err != nil {
		slog.Warn("failed to write audit entry", "error", err, "action", audit.ActionLogout)
	}

	return nil
}

func (s *Service) domainAllowed(email string) bool {
	if len(s.allowedDomains) == 0 {
		return true
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])

	for _, allowed := range s.allowedDomains {
		if domain == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func (s *Service) housekeep() {
	if err := s.Sessions.SweepExpired(); err != nil {
		slog.Warn("failed to sweep expired sessions", "error", err)
	}
	if s.auditRetention > 0 {
		cutoff := time.Now().UTC().Add(-s.auditRetention)
		if err := s.Audit.TrimOlderThan(cutoff); err != nil {
			slog.Warn("failed to trim audit log", "error", err)
		}
	}
}
