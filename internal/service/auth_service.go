package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// DeviceRegistrationInput describes a device enrolling with an auth code.
type DeviceRegistrationInput struct {
	AuthCode   string
	DeviceName string
	UserEmail  string
	UserName   *string
	OSName     *string
	OSVersion  *string
	AppVersion *string
	IPAddress  *string
}

// Session is an issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates login flows and device enrollment.
type AuthService struct {
	profiles      repository.ProfileRepository
	collaborators repository.CollaboratorRepository
	devices       repository.DeviceRepository
	tokenMgr      *auth.TokenManager
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	ProfileRepo      repository.ProfileRepository
	CollaboratorRepo repository.CollaboratorRepository
	DeviceRepo       repository.DeviceRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		profiles:      deps.ProfileRepo,
		collaborators: deps.CollaboratorRepo,
		devices:       deps.DeviceRepo,
		tokenMgr:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
	}
}

// LoginProfile authenticates a super admin by email or username.
func (s *AuthService) LoginProfile(ctx context.Context, login, password string) (*domain.Profile, Session, error) {
	profile, err := s.profiles.FindByEmailOrUsername(ctx, strings.TrimSpace(login))
	if err != nil {
		if isNoRows(err) {
			return nil, Session{}, invalidCredentials()
		}
		return nil, Session{}, err
	}
	if err := auth.ComparePassword(profile.PasswordHash, password); err != nil {
		return nil, Session{}, invalidCredentials()
	}
	if !profile.IsActive {
		return nil, Session{}, invalidCredentials()
	}
	session, err := s.issue(profile.ID, domain.SubjectTypeProfile)
	return profile, session, err
}

// LoginCollaborator authenticates a collaborator by username.
func (s *AuthService) LoginCollaborator(ctx context.Context, username, password string) (*domain.Collaborator, Session, error) {
	collaborator, err := s.collaborators.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if isNoRows(err) {
			return nil, Session{}, invalidCredentials()
		}
		return nil, Session{}, err
	}
	if err := auth.ComparePassword(collaborator.PasswordHash, password); err != nil {
		return nil, Session{}, invalidCredentials()
	}
	if !collaborator.IsActive {
		return nil, Session{}, invalidCredentials()
	}
	session, err := s.issue(collaborator.ID, domain.SubjectTypeCollaborator)
	return collaborator, session, err
}

// RegisterDevice enrolls a device with an active auth code and returns its token.
func (s *AuthService) RegisterDevice(ctx context.Context, input DeviceRegistrationInput) (*domain.Device, Session, error) {
	code, err := s.devices.GetAuthCodeByCode(ctx, normalizeCode(input.AuthCode))
	if err != nil {
		if isNoRows(err) {
			return nil, Session{}, apperrors.NewUnauthorized("invalid auth code")
		}
		return nil, Session{}, err
	}
	if !code.IsActive {
		return nil, Session{}, apperrors.NewUnauthorized("invalid auth code")
	}

	codeID := code.ID
	ownerID := code.OwnerID
	device := &domain.Device{
		AuthCodeID: &codeID,
		OwnerID:    &ownerID,
		DeviceName: strings.TrimSpace(input.DeviceName),
		UserEmail:  strings.ToLower(strings.TrimSpace(input.UserEmail)),
		UserName:   input.UserName,
		OSName:     input.OSName,
		OSVersion:  input.OSVersion,
		AppVersion: input.AppVersion,
		IPAddress:  input.IPAddress,
		IsActive:   true,
	}
	if err := s.devices.CreateDevice(ctx, device); err != nil {
		if errors.Is(err, repository.ErrInactiveAuthCode) {
			return nil, Session{}, apperrors.NewUnauthorized("invalid auth code")
		}
		return nil, Session{}, err
	}
	session, err := s.issue(device.ID, domain.SubjectTypeDevice)
	return device, session, err
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(subjectID string, subject domain.SubjectType) (Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(subjectID, subject)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp}, nil
}

func invalidCredentials() error {
	return apperrors.NewUnauthorized("invalid credentials")
}
