package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Exactly one of the entity fields is set.
type Principal struct {
	Actor        domain.Actor
	Profile      *domain.Profile
	Collaborator *domain.Collaborator
	Device       *domain.Device
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens        *TokenManager
	profiles      repository.ProfileRepository
	collaborators repository.CollaboratorRepository
	devices       repository.DeviceRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, profiles repository.ProfileRepository, collaborators repository.CollaboratorRepository, devices repository.DeviceRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, profiles: profiles, collaborators: collaborators, devices: devices}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{Actor: claims.Actor()}
	ctx := c.UserContext()

	switch claims.Subject {
	case domain.SubjectTypeProfile:
		profile, err := m.profiles.GetByID(ctx, claims.SubjectID)
		if err != nil {
			return lookupError(err, "profile not found")
		}
		if !profile.IsActive {
			return apperrors.NewUnauthorized("profile inactive")
		}
		principal.Profile = profile
	case domain.SubjectTypeCollaborator:
		collaborator, err := m.collaborators.GetByID(ctx, claims.SubjectID)
		if err != nil {
			return lookupError(err, "collaborator not found")
		}
		if !collaborator.IsActive {
			return apperrors.NewUnauthorized("collaborator inactive")
		}
		principal.Collaborator = collaborator
	case domain.SubjectTypeDevice:
		device, err := m.devices.GetDeviceByID(ctx, claims.SubjectID)
		if err != nil {
			return lookupError(err, "device not found")
		}
		if !device.IsActive {
			return apperrors.NewUnauthorized("device inactive")
		}
		principal.Device = device
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func lookupError(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewUnauthorized(msg)
	}
	return apperrors.MapError(err)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// WithPrincipal stores a principal on the request; used by tests and internal mounts.
func WithPrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(principalKey, principal)
}
