package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/ratelimit"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthHandler serves the unauthenticated login and registration endpoints.
type AuthHandler struct {
	auth         *service.AuthService
	invites      *service.InviteService
	registration *service.RegistrationService
	limiter      ratelimit.Limiter
	logger       *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, invites *service.InviteService, registration *service.RegistrationService, limiter ratelimit.Limiter, logger *zap.Logger) *AuthHandler {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: authService, invites: invites, registration: registration, limiter: limiter, logger: logger}
}

// LoginProfile POST /auth/profiles/login.
func (h *AuthHandler) LoginProfile(c *fiber.Ctx) error {
	var req dto.ProfileLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profile, session, err := h.auth.LoginProfile(c.UserContext(), req.Login, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"session": sessionResponse(session, profile.ID, domain.SubjectTypeProfile),
		"profile": profileResponse(profile),
	}})
}

// LoginCollaborator POST /auth/collaborators/login.
func (h *AuthHandler) LoginCollaborator(c *fiber.Ctx) error {
	var req dto.CollaboratorLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	collaborator, session, err := h.auth.LoginCollaborator(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"session":      sessionResponse(session, collaborator.ID, domain.SubjectTypeCollaborator),
		"collaborator": collaboratorResponse(collaborator),
	}})
}

// ValidateInvite POST /auth/invites/validate.
func (h *AuthHandler) ValidateInvite(c *fiber.Ctx) error {
	return h.limited(c, func(ctx context.Context) error {
		var req dto.ValidateInviteRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		invite, err := h.invites.Validate(ctx, req.Code)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.ValidateInviteResponse{Valid: true, ExpiresAt: invite.ExpiresAt}})
	})
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	return h.limited(c, func(ctx context.Context) error {
		var req dto.RegisterRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		profile, err := h.registration.Register(ctx, service.RegistrationInput{
			Code:     req.Code,
			Username: req.Username,
			Email:    req.Email,
			Phone:    req.Phone,
			Password: req.Password,
		})
		if err != nil {
			return err
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{"data": profileResponse(profile)})
	})
}

// RegisterDevice POST /auth/devices/register.
func (h *AuthHandler) RegisterDevice(c *fiber.Ctx) error {
	var req dto.RegisterDeviceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ip := c.IP()
	device, session, err := h.auth.RegisterDevice(c.UserContext(), service.DeviceRegistrationInput{
		AuthCode:   req.AuthCode,
		DeviceName: req.DeviceName,
		UserEmail:  req.UserEmail,
		UserName:   req.UserName,
		OSName:     req.OSName,
		OSVersion:  req.OSVersion,
		AppVersion: req.AppVersion,
		IPAddress:  &ip,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"session": sessionResponse(session, device.ID, domain.SubjectTypeDevice),
		"device":  deviceResponse(device),
	}})
}

// limited runs fn under the per-IP failure budget. Every client failure counts
// the same, whatever the reason the code was rejected.
func (h *AuthHandler) limited(c *fiber.Ctx, fn func(ctx context.Context) error) error {
	ctx := c.UserContext()
	key := c.IP()
	allowed, err := h.limiter.Allow(ctx, key)
	if err != nil {
		h.logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
		allowed = true
	}
	if !allowed {
		return apperrors.NewRateLimited()
	}

	err = fn(ctx)
	if err == nil {
		return nil
	}
	if status := apperrors.ToDomainError(err).HTTPStatus; status >= 400 && status < 500 {
		if recErr := h.limiter.RecordFailure(ctx, key); recErr != nil {
			h.logger.Warn("rate limiter record failed", zap.Error(recErr))
		}
	}
	return err
}
