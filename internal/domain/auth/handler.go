package auth

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/session"
	"github.com/lumenboard/lumenboard/internal/utils"
)

// Handler handles authentication HTTP endpoints
type Handler struct {
	Auth     *Service
	Sessions session.Service
	Audit    audit.Repository
}

// NewHandler creates a new auth handler
func NewHandler(authService *Service, sessions session.Service, auditRepo audit.Repository) *Handler {
	return &Handler{
		Auth:     authService,
		Sessions: sessions,
		Audit:    auditRepo,
	}
}

// Login returns the upstream authorization URL. The optional state query
// parameter is passed through untouched for the client to verify.
func (h *Handler) Login(c *fiber.Ctx) error {
	state := c.Query("state")
	return utils.SuccessResponse(c, fiber.Map{
		"auth_url": h.Auth.AuthURL(state),
	}, "Redirect to the identity provider")
}

// Callback exchanges the authorization code for the suite token pair
func (h *Handler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Missing authorization code"))
	}

	result, err := h.Auth.Callback(c.Context(), code, c.Get(fiber.HeaderUserAgent), c.IP())
	if err != nil {
		switch {
		case errors.Is(err, ErrDomainNotAllowed):
			return utils.APIErrorResponse(c, utils.ErrInsufficientPermission.WithMessage("Email domain is not allowed"))
		case errors.Is(err, ErrAccountDisabled):
			return utils.APIErrorResponse(c, utils.ErrInsufficientPermission.WithMessage("Account is deactivated"))
		default:
			slog.Error("callback exchange failed", "error", err)
			return utils.APIErrorResponse(c, utils.ErrUpstreamIdentityFailure)
		}
	}

	return utils.SuccessResponse(c, fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_in":    result.ExpiresIn,
		"user":          result.User,
	}, "Login successful")
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh mints a new access token from a refresh token
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Missing refresh token"))
	}

	result, err := h.Auth.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return utils.APIErrorResponse(c, utils.ErrAuthenticationRequired)
		}
		slog.Error("refresh failed", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"access_token": result.AccessToken,
		"expires_in":   result.ExpiresIn,
	}, "Token refreshed")
}

// Logout revokes the session behind the presented refresh token
func (h *Handler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Missing refresh token"))
	}

	if err := h.Auth.Logout(req.RefreshToken, c.IP()); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return utils.APIErrorResponse(c, utils.ErrAuthenticationRequired)
		}
		slog.Error("logout failed", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	return utils.SuccessResponse(c, nil, "Logged out")
}

// Me returns the authenticated user's account
func (h *Handler) Me(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)

	u, err := h.Auth.Users.Get(identity.UserID)
	if err != nil {
		return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("User not found"))
	}

	return utils.SuccessResponse(c, fiber.Map{"user": u}, "")
}

// ListSessions returns the caller's active browser sessions, flagging the
// one backing this request.
func (h *Handler) ListSessions(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)

	sessions, err := h.Sessions.ListActive(identity.UserID)
	if err != nil {
		slog.Error("failed to list sessions", "error", err, "user_id", identity.UserID)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	items := make([]fiber.Map, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, fiber.Map{
			"id":         sess.ID.String(),
			"user_agent": sess.UserAgent,
			"ip_address": sess.IPAddress,
			"created_at": sess.CreatedAt,
			"last_used":  sess.LastUsedAt,
			"expires_at": sess.ExpiresAt,
			"current":    sess.ID.String() == identity.SessionID,
		})
	}

	return utils.SuccessResponse(c, fiber.Map{"sessions": items}, "")
}

// DeleteSession revokes one of the caller's browser sessions
func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Invalid session id"))
	}

	if err := h.Sessions.DeleteByID(identity.UserID, id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Session not found"))
		}
		slog.Error("failed to delete session", "error", err, "user_id", identity.UserID)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	if err := h.Audit.Log(identity.UserID, audit.ActionSessionDeleted, "session "+id.String(), c.IP()); err != nil {
		slog.Warn("failed to write audit entry", "error", err, "action", audit.ActionSessionDeleted)
	}

	return utils.SuccessResponse(c, nil, "Session revoked")
}
