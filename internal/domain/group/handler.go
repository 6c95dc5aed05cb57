package group

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/utils"
)

// Handler handles group management endpoints. All routes are admin-only.
type Handler struct {
	Groups Service
	Audit  audit.Repository
}

// NewHandler creates a new group handler
func NewHandler(groups Service, auditRepo audit.Repository) *Handler {
	return &Handler{Groups: groups, Audit: auditRepo}
}

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// List returns all groups
func (h *Handler) List(c *fiber.Ctx) error {
	groups, err := h.Groups.List()
	if err != nil {
		slog.Error("failed to list groups", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}
	return utils.SuccessResponse(c, fiber.Map{"groups": groups}, "")
}

// Create creates a new group
func (h *Handler) Create(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req groupRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Group name is required"))
	}

	g, err := h.Groups.Create(req.Name, req.Description, req.Color, identity.UserID)
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Group name already exists"))
		}
		slog.Error("failed to create group", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	h.logAction(identity.UserID, "created group "+g.Name, c.IP())
	return utils.SuccessResponse(c, fiber.Map{"group": g}, "Group created", fiber.StatusCreated)
}

// Get returns a group with its members
func (h *Handler) Get(c *fiber.Ctx) error {
	detail, err := h.Groups.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Group not found"))
		}
		slog.Error("failed to get group", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}
	return utils.SuccessResponse(c, fiber.Map{
		"group":   detail.Group,
		"members": detail.Members,
	}, "")
}

// Update changes a group's metadata
func (h *Handler) Update(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req groupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Invalid request body"))
	}

	g, err := h.Groups.Update(c.Params("id"), req.Name, req.Description, req.Color)
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Group not found"))
		case errors.Is(err, ErrDuplicateName):
			return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("Group name already exists"))
		default:
			slog.Error("failed to update group", "error", err)
			return utils.APIErrorResponse(c, utils.ErrInternalServer)
		}
	}

	h.logAction(identity.UserID, "updated group "+g.Name, c.IP())
	return utils.SuccessResponse(c, fiber.Map{"group": g}, "Group updated")
}

// Delete removes a group
func (h *Handler) Delete(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	if err := h.Groups.Delete(c.Params("id")); err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Group not found"))
		}
		slog.Error("failed to delete group", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	h.logAction(identity.UserID, "deleted group "+c.Params("id"), c.IP())
	return utils.SuccessResponse(c, nil, "Group deleted")
}

type addMembersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// AddMembers adds one or more users to a group
func (h *Handler) AddMembers(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	var req addMembersRequest
	if err := c.BodyParser(&req); err != nil || len(req.UserIDs) == 0 {
		return utils.APIErrorResponse(c, utils.ErrValidation.WithMessage("user_ids is required"))
	}

	if err := h.Groups.AddMembers(c.Params("id"), req.UserIDs); err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("Group not found"))
		}
		slog.Error("failed to add group members", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	h.logAction(identity.UserID, "added members to group "+c.Params("id"), c.IP())
	return utils.SuccessResponse(c, nil, "Members added")
}

// RemoveMember removes a user from a group
func (h *Handler) RemoveMember(c *fiber.Ctx) error {
	identity := auth.CurrentIdentity(c)

	if err := h.Groups.RemoveMember(c.Params("id"), c.Params("userId")); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return utils.APIErrorResponse(c, utils.ErrNotFound.WithMessage("User is not a member of this group"))
		}
		slog.Error("failed to remove group member", "error", err)
		return utils.APIErrorResponse(c, utils.ErrInternalServer)
	}

	h.logAction(identity.UserID, "removed member from group "+c.Params("id"), c.IP())
	return utils.SuccessResponse(c, nil, "Member removed")
}

func (h *Handler) logAction(userID, details, ip string) {
	if err := h.Audit.Log(userID, audit.ActionGroupChanged, details, ip); err != nil {
		slog.Warn("failed to write audit entry", "error", err, "action", audit.ActionGroupChanged)
	}
}
