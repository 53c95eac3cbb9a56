package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Clock returns the current time; services take one so tests can pin it.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// requireSuperAdmin loads the acting profile and rejects anything but an active super admin.
func requireSuperAdmin(ctx context.Context, profiles repository.ProfileRepository, actor domain.Actor) (*domain.Profile, error) {
	if actor.Kind != domain.SubjectTypeProfile || actor.ID == "" {
		return nil, apperrors.NewInsufficientAccess("super admin required")
	}
	profile, err := profiles.GetByID(ctx, actor.ID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewInsufficientAccess("super admin required")
		}
		return nil, err
	}
	if !profile.CanAdminister() {
		return nil, apperrors.NewInsufficientAccess("super admin required")
	}
	return profile, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func stringPreview(body string, limit int) string {
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "..."
}
