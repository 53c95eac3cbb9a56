package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RequireSuperAdmin ensures an active super-admin profile is authenticated.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Actor.Kind != domain.SubjectTypeProfile || !principal.Profile.CanAdminister() {
			return apperrors.NewForbidden("super admin required")
		}
		return c.Next()
	}
}

// RequireCollaborator ensures a collaborator is authenticated.
func RequireCollaborator() fiber.Handler {
	return requireKind(domain.SubjectTypeCollaborator, "collaborator required")
}

// RequireDevice ensures a registered device is authenticated.
func RequireDevice() fiber.Handler {
	return requireKind(domain.SubjectTypeDevice, "device required")
}

func requireKind(kind domain.SubjectType, msg string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.Actor.Kind != kind {
			return apperrors.NewForbidden(msg)
		}
		return c.Next()
	}
}
