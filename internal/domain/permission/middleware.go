package permission

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/utils"
)

// Require gates a route behind a flat permission. Must run after
// auth.RequireAuth.
func Require(perms Service, perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := auth.CurrentIdentity(c)
		if identity == nil {
			return utils.APIErrorResponse(c, utils.ErrAuthenticationRequired)
		}

		ok, err := perms.HasPermission(identity.UserID, identity.Role, perm)
		if err != nil {
			slog.Error("permission check failed", "error", err, "permission", perm)
			return utils.APIErrorResponse(c, utils.ErrInternalServer)
		}
		if !ok {
			return utils.APIErrorResponse(c, utils.ErrInsufficientPermission)
		}

		return c.Next()
	}
}
