package preference

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/realtime"
	"github.com/lumenboard/lumenboard/internal/utils"
)

// Handler handles preference HTTP endpoints. Every successful mutation is
// broadcast to the user's realtime room, skipping the originating session.
type Handler struct {
	Prefs Service
	Hub   *realtime.Hub
	Audit audit.Repository
}

// NewHandler creates a new preference handler
func NewHandler(prefs Service, hub *realtime.Hub, auditRepo audit.Repository) *Handler {
	return &Handler{
		Prefs: prefs,
		Hub:   hub,
		Audit: auditRepo,
	}
}

type mutationRequest struct {
	Preferences map[string]any `json:"preferences"`
	Keys        []string       `json:"keys"`
	Version     *int           `json:"version"`
	SessionID   string         `json:"session_id"`
}

// originSession prefers the client-supplied session id and falls back to
// the one in the access token.
func originSession(c *fiber.Ctx, req *mutationRequest) string {
	if req.SessionID != "" {
		return req.SessionID
	}
	return auth.CurrentIdentity(c).SessionID
}

// Get returns the caller's preference document
func (h *Handler) Get(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	snapshot, err := h.Prefs.Get(identity.UserID)
	if err != nil {
		slog.Error("failed to load preferences", "error", err, "user_id", identity.UserID)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"preferences": snapshot.Preferences,
		"version":     snapshot.Version,
		"updated_at":  snapshot.UpdatedAt,
	}, "")
}

// Set replaces the whole preference document
func (h *Handler) Set(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req mutationRequest
	if err := c.BodyParser(&req); err != nil || req.Preferences == nil {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("preferences object is required"))
	}

	snapshot, err := h.Prefs.Set(identity.UserID, req.Preferences, req.Version)
	return h.respond(c, &req, snapshot, err, audit.ActionPreferencesSet)
}

// Update deep-merges a partial document into the stored one
func (h *Handler) Update(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req mutationRequest
	if err := c.BodyParser(&req); err != nil || req.Preferences == nil {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("preferences object is required"))
	}

	snapshot, err := h.Prefs.Update(identity.UserID, req.Preferences, req.Version)
	return h.respond(c, &req, snapshot, err, audit.ActionPreferencesUpdate)
}

// DeleteKey removes one dot-delimited preference path
func (h *Handler) DeleteKey(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Missing preference key"))
	}

	var req mutationRequest
	// The body is optional on deletes; version and session id may ride in it
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Invalid request body"))
	}

	identity := auth.CurrentIdentity(c)
	snapshot, err := h.Prefs.Delete(identity.UserID, []string{key}, req.Version)
	return h.respond(c, &req, snapshot, err, audit.ActionPreferencesDelete)
}

// BatchDelete removes several preference paths in one mutation
func (h *Handler) BatchDelete(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req mutationRequest
	if err := c.BodyParser(&req); err != nil || len(req.Keys) == 0 {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("keys is required"))
	}

	snapshot, err := h.Prefs.Delete(identity.UserID, req.Keys, req.Version)
	return h.respond(c, &req, snapshot, err, audit.ActionPreferencesDelete)
}

func (h *Handler) respond(c *fiber.Ctx, req *mutationRequest, snapshot *Snapshot, err error, action string) error {
	identity := auth.CurrentIdentity(c)

	if err != nil {
		switch {
		case errors.Is(err, ErrVersionConflict):
			return utils.APIErrorResponse(c, utils.ErrVersionConflict, fiber.Map{"conflict": true})
		case errors.Is(err, ErrInvalidDocument):
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Preferences must be a JSON object"))
		default:
			slog.Error("preference mutation failed", "error", err, "user_id", identity.UserID)
			return utils.APIErrorResponse(c, utils.ErrInternalServer)
		}
	}

	origin := originSession(c, req)
	h.Hub.BroadcastPreferences(identity.UserID, snapshot.Preferences, snapshot.Version, origin)

	if err := h.Audit.Log(identity.UserID, action, "", c.IP()); err != nil {
		slog.Warn("failed to write audit entry", "error", err, "action", action)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"preferences": snapshot.Preferences,
		"version":     snapshot.Version,
		"updated_at":  snapshot.UpdatedAt,
	}, "Preferences saved")
}
