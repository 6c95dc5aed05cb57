package auth

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/lumenboard/lumenboard/internal/config"
	"github.com/lumenboard/lumenboard/internal/domain/user"
)

// TokenType discriminates access tokens from refresh tokens. A refresh
// token is never accepted where an access token is required, and vice versa.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the verified content of a token after a successful Verify
type Claims struct {
	UserID    string
	Email     string
	Role      user.Role
	Type      TokenType
	SessionID string
	ExpiresAt time.Time
}

// TokenService mints and verifies the suite's signed tokens. Every app in
// the suite shares the signing secret, issuer and audience list, so a
// token minted here validates anywhere in the suite.
type TokenService struct {
	key        jwk.Key
	issuer     string
	audiences  []string
	appID      string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService imports the shared signing secret and captures the
// suite-wide issuer and audience list.
func NewTokenService(secret string, appCfg *config.AppConfig, authCfg *config.AuthConfig) (*TokenService, error) {
	key, err := jwk.Import([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to import signing secret: %w", err)
	}

	return &TokenService{
		key:        key,
		issuer:     authCfg.Issuer,
		audiences:  authCfg.Audiences,
		appID:      appCfg.ID,
		accessTTL:  authCfg.AccessTTL(),
		refreshTTL: authCfg.RefreshTTL(),
	}, nil
}

// AccessTTL returns the configured access token lifetime
func (ts *TokenService) AccessTTL() time.Duration {
	return ts.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime
func (ts *TokenService) RefreshTTL() time.Duration {
	return ts.refreshTTL
}

// IssueAccessToken mints a short-lived access token for the user and session
func (ts *TokenService) IssueAccessToken(u *user.User, sessionID string) (string, error) {
	return ts.issue(u, sessionID, TokenTypeAccess, ts.accessTTL)
}

// IssueRefreshToken mints a long-lived refresh token for the user and session
func (ts *TokenService) IssueRefreshToken(u *user.User, sessionID string) (string, error) {
	return ts.issue(u, sessionID, TokenTypeRefresh, ts.refreshTTL)
}

func (ts *TokenService) issue(u *user.User, sessionID string, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		Subject(u.ID.String()).
		Issuer(ts.issuer).
		Audience(ts.audiences).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(ttl)).
		Claim("user_id", u.ID.String()).
		Claim("email", u.Email).
		Claim("role", string(u.Role)).
		Claim("type", string(typ)).
		Claim("sid", sessionID).
		Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), ts.key))
	if err != nil {
		return "", err
	}

	return string(signed), nil
}

// Verify parses and validates a token, checking signature, expiry, issuer,
// audience and type. All failures return ErrInvalidToken.
func (ts *TokenService) Verify(tokenString string, wantType TokenType) (*Claims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), ts.key),
		jwt.WithIssuer(ts.issuer),
		jwt.WithAudience(ts.appID),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, err := extractClaims(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != wantType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func extractClaims(token jwt.Token) (*Claims, error) {
	sub, ok := token.Subject()
	if !ok || sub == "" {
		return nil, ErrInvalidToken
	}
	exp, ok := token.Expiration()
	if !ok {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		UserID:    sub,
		ExpiresAt: exp,
	}

	var email, role, typ, sid string
	if err := token.Get("email", &email); err != nil {
		return nil, ErrInvalidToken
	}
	if err := token.Get("role", &role); err != nil {
		return nil, ErrInvalidToken
	}
	if err := token.Get("type", &typ); err != nil {
		return nil, ErrInvalidToken
	}
	if err := token.Get("sid", &sid); err != nil {
		return nil, ErrInvalidToken
	}

	claims.Email = email
	claims.Role = user.Role(role)
	claims.Type = TokenType(typ)
	claims.SessionID = sid

	return claims, nil
}
