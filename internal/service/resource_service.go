package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const maxAuthCodeAttempts = 5

// CollaboratorInput describes a new collaborator account.
type CollaboratorInput struct {
	Username    string
	Email       string
	Password    string
	AccessLevel domain.AccessLevel
}

// ResourceService manages what a profile owns: collaborators and device auth codes.
type ResourceService struct {
	profiles      repository.ProfileRepository
	collaborators repository.CollaboratorRepository
	devices       repository.DeviceRepository
	bcryptCost    int
	minPassword   int
	random        io.Reader
}

// ResourceDependencies bundles collaborators for the resource service.
type ResourceDependencies struct {
	ProfileRepo      repository.ProfileRepository
	CollaboratorRepo repository.CollaboratorRepository
	DeviceRepo       repository.DeviceRepository
	BcryptCost       int
	MinPassword      int
	Random           io.Reader
}

// NewResourceService constructs the service.
func NewResourceService(deps ResourceDependencies) *ResourceService {
	minPassword := deps.MinPassword
	if minPassword <= 0 {
		minPassword = 6
	}
	return &ResourceService{
		profiles:      deps.ProfileRepo,
		collaborators: deps.CollaboratorRepo,
		devices:       deps.DeviceRepo,
		bcryptCost:    deps.BcryptCost,
		minPassword:   minPassword,
		random:        deps.Random,
	}
}

// CreateCollaborator adds a collaborator owned by the acting profile.
func (s *ResourceService) CreateCollaborator(ctx context.Context, actor domain.Actor, input CollaboratorInput) (*domain.Collaborator, error) {
	owner, err := requireSuperAdmin(ctx, s.profiles, actor)
	if err != nil {
		return nil, err
	}
	level := input.AccessLevel
	if level == "" {
		level = domain.AccessLevelEditor
	}
	if !level.IsValid() {
		return nil, apperrors.NewValidationError("invalid access level", map[string]any{"access_level": level})
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperrors.NewValidationError("username is required", nil)
	}
	if !auth.PasswordLongEnough(input.Password, s.minPassword) {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": s.minPassword})
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	collaborator := &domain.Collaborator{
		OwnerID:      owner.ID,
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		AccessLevel:  level,
		IsActive:     true,
	}
	if err := s.collaborators.Create(ctx, collaborator); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.NewConflict("username already taken", nil)
		}
		return nil, err
	}
	return collaborator, nil
}

// IssueAuthCode creates a device registration code owned by the acting profile.
func (s *ResourceService) IssueAuthCode(ctx context.Context, actor domain.Actor) (*domain.AuthCode, error) {
	owner, err := requireSuperAdmin(ctx, s.profiles, actor)
	if err != nil {
		return nil, err
	}
	for attempt := 1; attempt <= maxAuthCodeAttempts; attempt++ {
		code, err := randomCode(s.random, authCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generate auth code: %w", err)
		}
		authCode := &domain.AuthCode{OwnerID: owner.ID, Code: code, IsActive: true}
		err = s.devices.CreateAuthCode(ctx, authCode)
		if errors.Is(err, repository.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return authCode, nil
	}
	return nil, apperrors.NewInternalError(fmt.Errorf("auth code collided %d times", maxAuthCodeAttempts))
}
