package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RegistrationInput carries a super-admin sign-up request.
type RegistrationInput struct {
	Code     string
	Username string
	Email    string
	Phone    *string
	Password string
}

// RegistrationService creates super-admin profiles by redeeming invite codes.
type RegistrationService struct {
	invites     *InviteService
	profiles    repository.ProfileRepository
	bcryptCost  int
	minPassword int
	logger      *zap.Logger
}

// NewRegistrationService constructs the service.
func NewRegistrationService(invites *InviteService, profiles repository.ProfileRepository, bcryptCost, minPassword int, logger *zap.Logger) *RegistrationService {
	if minPassword <= 0 {
		minPassword = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		invites:     invites,
		profiles:    profiles,
		bcryptCost:  bcryptCost,
		minPassword: minPassword,
		logger:      logger,
	}
}

// Register validates the code, creates the profile, then consumes the code.
// When the consume fails the new profile is deleted and the error returned.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput) (*domain.Profile, error) {
	if _, err := s.invites.Validate(ctx, input.Code); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" {
		return nil, apperrors.NewValidationError("username and email are required", nil)
	}
	if !auth.PasswordLongEnough(input.Password, s.minPassword) {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": s.minPassword})
	}

	if _, err := s.profiles.GetActiveByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !isNoRows(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	profile := &domain.Profile{
		Username:     username,
		Email:        email,
		Phone:        input.Phone,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperAdmin: true,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.NewConflict("email or username already registered", nil)
		}
		return nil, err
	}

	if err := s.invites.Consume(ctx, input.Code, profile.ID); err != nil {
		s.compensate(ctx, profile.ID, err)
		return nil, err
	}
	return profile, nil
}

func (s *RegistrationService) compensate(ctx context.Context, profileID string, cause error) {
	s.logger.Warn("invite consume failed after profile creation, rolling back",
		zap.String("profile_id", profileID), zap.Error(cause))
	if err := s.profiles.Delete(context.WithoutCancel(ctx), profileID); err != nil {
		s.logger.Error("compensating profile delete failed", zap.String("profile_id", profileID), zap.Error(err))
	}
}
