package permission

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/utils"
)

// Handler handles widget permission endpoints
type Handler struct {
	Perms Service
	Audit audit.Repository
}

// NewHandler creates a new permission handler
func NewHandler(perms Service, auditRepo audit.Repository) *Handler {
	return &Handler{Perms: perms, Audit: auditRepo}
}

// MyWidgets returns the caller's direct widget grants
func (h *Handler) MyWidgets(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	grants, err := h.Perms.ListWidgetsForUser(identity.UserID)
	if err != nil {
		slog.Error("failed to list widget grants", "error", err, "user_id", identity.UserID)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	return utils.SuccessResponse(c, fiber.Map{"widgets": grants}, "")
}

// CheckAccess reports whether the caller reaches the required level on a
// widget. The level defaults to view.
func (h *Handler) CheckAccess(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	required := AccessLevel(c.Query("level", string(AccessView)))
	allowed, err := h.Perms.HasWidgetAccess(identity.UserID, identity.Role, c.Params("widgetId"), required)
	if err != nil {
		if errors.Is(err, ErrInvalidAccessLevel) {
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Invalid access level"))
		}
		slog.Error("widget access check failed", "error", err, "user_id", identity.UserID)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"widget_id": c.Params("widgetId"),
		"level":     required,
		"allowed":   allowed,
	}, "")
}

type widgetGrantRequest struct {
	UserID      string     `json:"user_id"`
	GroupID     string     `json:"group_id"`
	WidgetID    string     `json:"widget_id"`
	AccessLevel string     `json:"access_level"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// GrantWidget creates or refreshes a widget grant for a user or a group.
// Admin only.
func (h *Handler) GrantWidget(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req widgetGrantRequest
	if err := c.BodyParser(&req); err != nil || req.WidgetID == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("widget_id is required"))
	}
	if (req.UserID == "") == (req.GroupID == "") {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Exactly one of user_id or group_id is required"))
	}

	level := AccessLevel(req.AccessLevel)
	var err error
	if req.UserID != "" {
		err = h.Perms.GrantWidget(req.UserID, req.WidgetID, level, identity.UserID, req.ExpiresAt)
	} else {
		err = h.Perms.GrantGroupWidget(req.GroupID, req.WidgetID, level, identity.UserID, req.ExpiresAt)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidAccessLevel) {
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Invalid access level"))
		}
		slog.Error("failed to grant widget access", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	h.logAction(identity.UserID, audit.ActionPermissionGranted, "widget "+req.WidgetID, c.IP())
	return utils.SuccessResponse(c, nil, "Widget access granted")
}

// RevokeWidget removes a widget grant from a user or a group. Admin only.
func (h *Handler) RevokeWidget(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req widgetGrantRequest
	if err := c.BodyParser(&req); err != nil || req.WidgetID == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("widget_id is required"))
	}
	if (req.UserID == "") == (req.GroupID == "") {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Exactly one of user_id or group_id is required"))
	}

	var err error
	if req.UserID != "" {
		err = h.Perms.RevokeWidget(req.UserID, req.WidgetID)
	} else {
		err = h.Perms.RevokeGroupWidget(req.GroupID, req.WidgetID)
	}
	if err != nil {
		if errors.Is(err, ErrGrantNotFound) {
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Widget grant not found"))
		}
		slog.Error("failed to revoke widget access", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	h.logAction(identity.UserID, audit.ActionPermissionRevoked, "widget "+req.WidgetID, c.IP())
	return utils.SuccessResponse(c, nil, "Widget access revoked")
}

func (h *Handler) logAction(userID, action, details, ip string) {
	if err := h.Audit.Log(userID, action, details, ip); err != nil {
		slog.Warn("failed to write audit entry", "error", err, "action", action)
	}
}
