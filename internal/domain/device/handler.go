package device

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/domain/session"
	"github.com/lumenboard/lumenboard/internal/utils"
)

// Handler handles device pairing HTTP endpoints
type Handler struct {
	Devices  Service
	Sessions session.Service
	Audit    audit.Repository
}

// NewHandler creates a new device handler
func NewHandler(devices Service, sessions session.Service, auditRepo audit.Repository) *Handler {
	return &Handler{
		Devices:  devices,
		Sessions: sessions,
		Audit:    auditRepo,
	}
}

type requestCodeRequest struct {
	DeviceName string `json:"device_name"`
}

// RequestCode issues a pairing code pair to an unauthenticated device
func (h *Handler) RequestCode(c *fiber.Ctx) error {
	var req requestCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Invalid request body"))
	}
	if req.DeviceName == "" {
		req.DeviceName = "Unnamed device"
	}

	grant, err := h.Devices.RequestCode(req.DeviceName)
	if err != nil {
		slog.Error("failed to issue device code", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"device_code": grant.DeviceCode,
		"user_code":   grant.UserCode,
		"expires_at":  grant.ExpiresAt,
		"interval":    grant.Interval,
	}, "Pairing code issued")
}

type pairRequest struct {
	UserCode string `json:"user_code"`
}

// Pair attaches the authenticated user to a pending pairing code
func (h *Handler) Pair(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req pairRequest
	if err := c.BodyParser(&req); err != nil || req.UserCode == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Missing user code"))
	}

	if err := h.Devices.Pair(req.UserCode, identity.UserID, c.IP()); err != nil {
		switch {
		case errors.Is(err, ErrCodeNotFound):
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Pairing code not found"))
		case errors.Is(err, ErrCodeExpired):
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Pairing code expired"))
		case errors.Is(err, ErrCodeAlreadyUsed):
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Pairing code already used"))
		default:
			slog.Error("pairing failed", "error", err, "user_id", identity.UserID)
			return utils.APIErrorResponse(c, utils.ErrInternalServer)
		}
	}

	return utils.SuccessResponse(c, nil, "Device paired")
}

type pollRequest struct {
	DeviceCode string `json:"device_code"`
}

// Poll reports pairing progress to the device. The status field is the
// machine-readable discriminator; tokens ride along exactly once.
func (h *Handler) Poll(c *fiber.Ctx) error {
	var req pollRequest
	if err := c.BodyParser(&req); err != nil || req.DeviceCode == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Missing device code"))
	}

	result, err := h.Devices.Poll(req.DeviceCode)
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeNotFound):
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Device code not found"))
		case errors.Is(err, ErrCodeExpired):
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Device code expired"), fiber.Map{"status": StatusExpired})
		case errors.Is(err, ErrCodeAlreadyUsed):
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Device code already used"))
		default:
			slog.Error("device poll failed", "error", err)
			return utils.APIErrorResponse(c, utils.ErrInternalServer)
		}
	}

	body := fiber.Map{"status": result.Status}
	if result.Status == StatusPending {
		body["interval"] = result.Interval
	}
	if result.Status == StatusAuthorized {
		body["access_token"] = result.AccessToken
		body["refresh_token"] = result.RefreshToken
		body["expires_in"] = result.ExpiresIn
		body["user"] = result.User
	}

	return utils.SuccessResponse(c, body, "")
}

// ListSessions returns the caller's active device sessions
func (h *Handler) ListSessions(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	sessions, err := h.Sessions.ListActiveDevices(identity.UserID)
	if err != nil {
		slog.Error("failed to list device sessions", "error", err, "user_id", identity.UserID)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	items := make([]fiber.Map, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, fiber.Map{
			"id":          sess.ID.String(),
			"device_name": sess.DeviceName,
			"created_at":  sess.CreatedAt,
			"last_used":   sess.LastUsedAt,
			"expires_at":  sess.ExpiresAt,
		})
	}

	return utils.SuccessResponse(c, fiber.Map{"sessions": items}, "")
}

// DeleteSession revokes one of the caller's device sessions
func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Invalid session id"))
	}

	if err := h.Sessions.DeleteDeviceByID(identity.UserID, id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Session not found"))
		}
		slog.Error("failed to delete device session", "error", err, "user_id", identity.UserID)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	if err := h.Audit.Log(identity.UserID, audit.ActionSessionDeleted, "device session "+id.String(), c.IP()); err != nil {
		slog.Warn("failed to write audit entry", "error", err, "action", audit.ActionSessionDeleted)
	}

	return utils.SuccessResponse(c, nil, "Session revoked")
}
