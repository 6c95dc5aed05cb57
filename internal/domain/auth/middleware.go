package auth

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenboard/lumenboard/internal/domain/user"
	"github.com/lumenboard/lumenboard/internal/utils"
)

const identityKey = "identity"

// Identity is the authenticated caller attached to the request context.
// Role comes from the user row, not the token, so a role change takes
// effect on the next request rather than at token expiry.
type Identity struct {
	UserID    string
	Email     string
	Role      user.Role
	SessionID string
}

// IsAdmin reports whether the caller holds the admin role
func (i *Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

// CurrentIdentity returns the identity set by RequireAuth, or nil
func CurrentIdentity(c *fiber.Ctx) *Identity {
	id, _ := c.Locals(identityKey).(*Identity)
	return id
}

// RequireAuth validates the bearer access token and loads the account.
// Missing, malformed, expired and revoked tokens all produce the same
// 401 response.
func RequireAuth(tokens *TokenService, users user.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return utils.APIErrorResponse(c, utils.ErrAuthenticationRequired)
		}

		claims, err := tokens.Verify(token, TokenTypeAccess)
		if err != nil {
			return utils.APIErrorResponse(c, utils.ErrAuthenticationRequired)
		}

		u, err := users.Get(claims.UserID)
		if err != nil || !u.IsActive {
			return utils.APIErrorResponse(c, utils.ErrAuthenticationRequired)
		}

		if err := users.TouchLastActive(claims.UserID); err != nil {
			slog.Debug("failed to touch last active", "error", err, "user_id", claims.UserID)
		}

		c.Locals(identityKey, &Identity{
			UserID:    claims.UserID,
			Email:     u.Email,
			Role:      u.Role,
			SessionID: claims.SessionID,
		})

		return c.Next()
	}
}

// RequireAdmin gates a route to admin users. Must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := CurrentIdentity(c)
		if identity == nil {
			return utils.APIErrorResponse(c, utils.ErrAuthenticationRequired)
		}
		if !identity.IsAdmin() {
			return utils.APIErrorResponse(c, utils.ErrInsufficientPermission)
		}
		return c.Next()
	}
}
