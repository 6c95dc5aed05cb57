// Package admin exposes the management surface: user administration,
// flat permission grants, session revocation, audit access and stats.
// Every route is mounted behind auth.RequireAuth and auth.RequireAdmin.
package admin

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/domain/group"
	"github.com/lumenboard/lumenboard/internal/domain/permission"
	"github.com/lumenboard/lumenboard/internal/domain/session"
	"github.com/lumenboard/lumenboard/internal/domain/user"
	"github.com/lumenboard/lumenboard/internal/utils"
)

// Handler handles admin HTTP endpoints
type Handler struct {
	Users    user.Service
	Sessions session.Service
	Perms    permission.Service
	Groups   group.Service
	Audit    audit.Repository
}

// NewHandler creates a new admin handler
func NewHandler(users user.Service, sessions session.Service, perms permission.Service, groups group.Service, auditRepo audit.Repository) *Handler {
	return &Handler{
		Users:    users,
		Sessions: sessions,
		Perms:    perms,
		Groups:   groups,
		Audit:    auditRepo,
	}
}

// ListUsers returns every account with its live session count
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.List()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	items := make([]fiber.Map, 0, len(users))
	for i := range users {
		u := &users[i]
		count, err := h.Sessions.CountForUser(u.ID.String())
		if err != nil {
			count = 0
		}
		items = append(items, fiber.Map{
			"user":          u,
			"session_count": count,
		})
	}

	return utils.SuccessResponse(c, fiber.Map{"users": items}, "")
}

// GetUser returns one account with its grants and group memberships
func (h *Handler) GetUser(c *fiber.Ctx) error {
	u, err := h.Users.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("User not found"))
		}
		slog.Error("failed to get user", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	id := u.ID.String()
	perms, err := h.Perms.ListForUser(id)
	if err != nil {
		slog.Error("failed to list permissions", "error", err, "user_id", id)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}
	widgets, err := h.Perms.ListWidgetsForUser(id)
	if err != nil {
		slog.Error("failed to list widget grants", "error", err, "user_id", id)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}
	groupIDs, err := h.Groups.GroupIDsForUser(id)
	if err != nil {
		slog.Error("failed to list group memberships", "error", err, "user_id", id)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user":        u,
		"permissions": perms,
		"widgets":     widgets,
		"group_ids":   groupIDs,
	}, "")
}

type roleRequest struct {
	Role string `json:"role"`
}

// ChangeRole updates an account's role. Changing your own role away from
// admin is rejected.
func (h *Handler) ChangeRole(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req roleRequest
	if err := c.BodyParser(&req); err != nil || req.Role == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("role is required"))
	}

	id := c.Params("id")
	if err := h.Users.ChangeRole(id, user.Role(req.Role), identity.UserID); err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidRole):
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Invalid role"))
		case errors.Is(err, user.ErrSelfDemotion):
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("You cannot change your own role"))
		case errors.Is(err, user.ErrUserNotFound):
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("User not found"))
		default:
			slog.Error("failed to change role", "error", err, "user_id", id)
			return utils.APIErrorResponse(c, utils.ErrInternalServer)
		}
	}

	h.logAction(identity.UserID, audit.ActionRoleChanged, "user "+id+" -> "+req.Role, c.IP())
	return utils.SuccessResponse(c, nil, "Role updated")
}

// ToggleActive flips an account's active flag. Deactivation revokes all
// of the user's sessions so refresh stops immediately.
func (h *Handler) ToggleActive(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)
	id := c.Params("id")

	active, err := h.Users.ToggleActive(id, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrSelfDeactivation):
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("You cannot deactivate your own account"))
		case errors.Is(err, user.ErrUserNotFound):
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("User not found"))
		default:
			slog.Error("failed to toggle user", "error", err, "user_id", id)
			return utils.APIErrorResponse(c, utils.ErrInternalServer)
		}
	}

	if !active {
		if err := h.Sessions.DeleteAllForUser(id); err != nil {
			slog.Error("failed to revoke sessions of deactivated user", "error", err, "user_id", id)
		}
	}

	h.logAction(identity.UserID, audit.ActionUserToggled, "user "+id, c.IP())
	return utils.SuccessResponse(c, fiber.Map{"is_active": active}, "User updated")
}

type permissionRequest struct {
	Permission string `json:"permission"`
}

// GrantPermission adds a flat permission to an account
func (h *Handler) GrantPermission(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req permissionRequest
	if err := c.BodyParser(&req); err != nil || req.Permission == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("permission is required"))
	}

	id := c.Params("id")
	if _, err := h.Users.Get(id); err != nil {
		return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("User not found"))
	}

	if err := h.Perms.Grant(id, req.Permission, identity.UserID); err != nil {
		if errors.Is(err, permission.ErrDuplicateGrant) {
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Permission already granted"))
		}
		slog.Error("failed to grant permission", "error", err, "user_id", id)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	h.logAction(identity.UserID, audit.ActionPermissionGranted, req.Permission+" to "+id, c.IP())
	return utils.SuccessResponse(c, nil, "Permission granted", fiber.StatusCreated)
}

// RevokePermission removes a flat permission from an account
func (h *Handler) RevokePermission(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req permissionRequest
	if err := c.BodyParser(&req); err != nil || req.Permission == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("permission is required"))
	}

	id := c.Params("id")
	if err := h.Perms.Revoke(id, req.Permission); err != nil {
		if errors.Is(err, permission.ErrGrantNotFound) {
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Permission grant not found"))
		}
		slog.Error("failed to revoke permission", "error", err, "user_id", id)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	h.logAction(identity.UserID, audit.ActionPermissionRevoked, req.Permission+" from "+id, c.IP())
	return utils.SuccessResponse(c, nil, "Permission revoked")
}

// RevokeSessions deletes every session of an account, both kinds
func (h *Handler) RevokeSessions(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)
	id := c.Params("id")

	if _, err := h.Users.Get(id); err != nil {
		return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("User not found"))
	}

	if err := h.Sessions.DeleteAllForUser(id); err != nil {
		slog.Error("failed to revoke sessions", "error", err, "user_id", id)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	h.logAction(identity.UserID, audit.ActionSessionsRevoked, "user "+id, c.IP())
	return utils.SuccessResponse(c, nil, "Sessions revoked")
}

// AuditLog returns recent audit entries, optionally filtered to one user
func (h *Handler) AuditLog(c *fiber.Ctx) error {
	entries, err := h.Audit.List(c.QueryInt("limit", 100), c.Query("user_id"))
	if err != nil {
		slog.Error("failed to list audit entries", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}
	return utils.SuccessResponse(c, fiber.Map{"entries": entries}, "")
}

// Stats returns headline counts for the admin dashboard
func (h *Handler) Stats(c *fiber.Ctx) error {
	users, err := h.Users.List()
	if err != nil {
		slog.Error("failed to list users for stats", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	sessionCount, err := h.Sessions.CountAll()
	if err != nil {
		slog.Error("failed to count sessions", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	var active, admins, recentLogins int
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	for i := range users {
		u := &users[i]
		if u.IsActive {
			active++
		}
		if u.Role == user.RoleAdmin {
			admins++
		}
		if u.LastLogin != nil && u.LastLogin.After(cutoff) {
			recentLogins++
		}
	}

	return utils.SuccessResponse(c, fiber.Map{
		"total_users":   len(users),
		"active_users":  active,
		"admins":        admins,
		"sessions":      sessionCount,
		"recent_logins": recentLogins,
	}, "")
}

func (h *Handler) logAction(userID, action, details, ip string) {
	if err := h.Audit.Log(userID, action, details, ip); err != nil {
		slog.Warn("failed to write audit entry", "error", err, "action", action)
	}
}
