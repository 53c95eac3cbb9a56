package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AdminHandler serves super-admin endpoints.
type AdminHandler struct {
	invites      *service.InviteService
	deactivation *service.DeactivationService
	resources    *service.ResourceService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(invites *service.InviteService, deactivation *service.DeactivationService, resources *service.ResourceService) *AdminHandler {
	return &AdminHandler{invites: invites, deactivation: deactivation, resources: resources}
}

// IssueInvite POST /admin/invites.
func (h *AdminHandler) IssueInvite(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	invite, err := h.invites.Issue(c.UserContext(), p.Actor)
	if err != nil {
		return err
	}
	view := service.InviteView{SuperAdminInvite: *invite, State: domain.InviteStateActive}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": inviteResponse(view)})
}

// ListInvites GET /admin/invites?email=.
func (h *AdminHandler) ListInvites(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	views, err := h.invites.List(c.UserContext(), p.Actor, service.InviteListFilter{
		Email:  c.Query("email"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	items := make([]dto.InviteResponse, 0, len(views))
	for _, v := range views {
		items = append(items, inviteResponse(v))
	}
	return c.JSON(fiber.Map{"data": items})
}

// InviteSummary GET /admin/invites/summary.
func (h *AdminHandler) InviteSummary(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	summary, err := h.invites.Summary(c.UserContext(), p.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.InviteSummaryResponse{
		Total:   summary.Total,
		Active:  summary.Active,
		Used:    summary.Used,
		Revoked: summary.Revoked,
		Expired: summary.Expired,
	}})
}

// InviteStatus GET /admin/invites/:id.
func (h *AdminHandler) InviteStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.invites.Status(c.UserContext(), p.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": inviteResponse(*view)})
}

// RevokeInvite POST /admin/invites/:id/revoke.
func (h *AdminHandler) RevokeInvite(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.RevokeInviteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.invites.Revoke(c.UserContext(), p.Actor, c.Params("id"), req.Reason); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeactivateProfile POST /admin/profiles/:id/deactivate.
func (h *AdminHandler) DeactivateProfile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.DeactivateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profileID := c.Params("id")
	result, err := h.deactivation.Deactivate(c.UserContext(), p.Actor, profileID, req.Reason)
	if err != nil {
		return err
	}
	affected := make(map[string]int64, len(result))
	for step, n := range result {
		affected[string(step)] = n
	}
	return c.JSON(fiber.Map{"data": dto.DeactivationResponse{ProfileID: profileID, Affected: affected}})
}

// CreateCollaborator POST /admin/collaborators.
func (h *AdminHandler) CreateCollaborator(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateCollaboratorRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	collaborator, err := h.resources.CreateCollaborator(c.UserContext(), p.Actor, service.CollaboratorInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		AccessLevel: domain.AccessLevel(req.AccessLevel),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": collaboratorResponse(collaborator)})
}

// IssueAuthCode POST /admin/auth-codes.
func (h *AdminHandler) IssueAuthCode(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	code, err := h.resources.IssueAuthCode(c.UserContext(), p.Actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AuthCodeResponse{
		ID:        code.ID,
		Code:      code.Code,
		IsActive:  code.IsActive,
		CreatedAt: code.CreatedAt,
	}})
}
