package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenboard/lumenboard/internal/config"
	"github.com/lumenboard/lumenboard/internal/domain/admin"
	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/domain/device"
	"github.com/lumenboard/lumenboard/internal/domain/group"
	"github.com/lumenboard/lumenboard/internal/domain/permission"
	"github.com/lumenboard/lumenboard/internal/domain/preference"
	"github.com/lumenboard/lumenboard/internal/domain/session"
	"github.com/lumenboard/lumenboard/internal/domain/user"
	"github.com/lumenboard/lumenboard/internal/ratelimit"
	"github.com/lumenboard/lumenboard/internal/realtime"
)

// Dependencies carries the wired services and handlers into route setup
type Dependencies struct {
	Config   *config.Config
	Tokens   *auth.TokenService
	Users    user.Service
	Sessions session.Service
	Limiter  *ratelimit.Limiter
	Hub      *realtime.Hub

	Perms permission.Service

	AuthHandler   *auth.Handler
	DeviceHandler *device.Handler
	PrefsHandler  *preference.Handler
	GroupHandler  *group.Handler
	PermHandler   *permission.Handler
	AdminHandler  *admin.Handler
}

// SetupRoutes sets up the routes for the application
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	requireAuth := auth.RequireAuth(deps.Tokens, deps.Users)
	requireAdmin := auth.RequireAdmin()
	requirePerm := func(perm string) fiber.Handler {
		return permission.Require(deps.Perms, perm)
	}
	limit := func(max int, window time.Duration) fiber.Handler {
		return ratelimit.Limit(deps.Limiter, max, window)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Get("/login", limit(30, time.Minute), deps.AuthHandler.Login)
	authGroup.Get("/callback", limit(30, time.Minute), deps.AuthHandler.Callback)
	authGroup.Post("/refresh", limit(60, time.Minute), deps.AuthHandler.Refresh)
	authGroup.Post("/logout", requireAuth, deps.AuthHandler.Logout)
	authGroup.Get("/me", requireAuth, deps.AuthHandler.Me)
	authGroup.Get("/sessions", requireAuth, deps.AuthHandler.ListSessions)
	authGroup.Delete("/sessions/:id", requireAuth, deps.AuthHandler.DeleteSession)

	deviceGroup := api.Group("/device")
	deviceGroup.Post("/code", limit(10, time.Minute), deps.DeviceHandler.RequestCode)
	deviceGroup.Post("/pair", requireAuth, requirePerm("pair_devices"), limit(30, time.Minute), deps.DeviceHandler.Pair)
	deviceGroup.Post("/poll", limit(1000, time.Minute), deps.DeviceHandler.Poll)
	deviceGroup.Get("/sessions", requireAuth, deps.DeviceHandler.ListSessions)
	deviceGroup.Delete("/sessions/:id", requireAuth, deps.DeviceHandler.DeleteSession)

	prefsGroup := api.Group("/preferences", requireAuth, requirePerm("manage_own_preferences"))
	prefsGroup.Get("/", limit(300, time.Minute), deps.PrefsHandler.Get)
	prefsGroup.Put("/", limit(300, time.Minute), deps.PrefsHandler.Set)
	prefsGroup.Patch("/", limit(300, time.Minute), deps.PrefsHandler.Update)
	prefsGroup.Delete("/:key", limit(100, time.Minute), deps.PrefsHandler.DeleteKey)
	prefsGroup.Post("/batch-delete", limit(100, time.Minute), deps.PrefsHandler.BatchDelete)

	widgetGroup := api.Group("/widgets", requireAuth)
	widgetGroup.Get("/permissions", deps.PermHandler.MyWidgets)
	widgetGroup.Get("/:widgetId/access", deps.PermHandler.CheckAccess)
	widgetGroup.Post("/grant", requireAdmin, deps.PermHandler.GrantWidget)
	widgetGroup.Post("/revoke", requireAdmin, deps.PermHandler.RevokeWidget)

	groupGroup := api.Group("/groups", requireAuth, requireAdmin)
	groupGroup.Get("/", deps.GroupHandler.List)
	groupGroup.Post("/", deps.GroupHandler.Create)
	groupGroup.Get("/:id", deps.GroupHandler.Get)
	groupGroup.Put("/:id", deps.GroupHandler.Update)
	groupGroup.Delete("/:id", deps.GroupHandler.Delete)
	groupGroup.Post("/:id/members", deps.GroupHandler.AddMembers)
	groupGroup.Delete("/:id/members/:userId", deps.GroupHandler.RemoveMember)

	adminGroup := api.Group("/admin", requireAuth, requireAdmin)
	adminGroup.Get("/users", deps.AdminHandler.ListUsers)
	adminGroup.Get("/users/:id", deps.AdminHandler.GetUser)
	adminGroup.Put("/users/:id/role", deps.AdminHandler.ChangeRole)
	adminGroup.Post("/users/:id/toggle", deps.AdminHandler.ToggleActive)
	adminGroup.Post("/users/:id/permissions", deps.AdminHandler.GrantPermission)
	adminGroup.Delete("/users/:id/permissions", deps.AdminHandler.RevokePermission)
	adminGroup.Post("/users/:id/revoke-sessions", deps.AdminHandler.RevokeSessions)
	adminGroup.Get("/audit", deps.AdminHandler.AuditLog)
	adminGroup.Get("/stats", deps.AdminHandler.Stats)

	app.Get("/ws", realtime.Upgrade, realtime.NewWebsocketHandler(deps.Hub, deps.Tokens))
}
