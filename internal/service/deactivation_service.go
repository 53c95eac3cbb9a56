package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// DeactivationService cascades a profile deactivation to everything it owns.
type DeactivationService struct {
	profiles     repository.ProfileRepository
	deactivation repository.DeactivationRepository
	audit        AuditSink
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	now          Clock
}

// DeactivationDependencies bundles collaborators for the deactivation service.
type DeactivationDependencies struct {
	ProfileRepo      repository.ProfileRepository
	DeactivationRepo repository.DeactivationRepository
	Audit            AuditSink
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Clock            Clock
}

// NewDeactivationService constructs the service.
func NewDeactivationService(deps DeactivationDependencies) *DeactivationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeactivationService{
		profiles:     deps.ProfileRepo,
		deactivation: deps.DeactivationRepo,
		audit:        deps.Audit,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		now:          clockOrNow(deps.Clock),
	}
}

// Deactivate runs the cascade for profileID. Repeating it on an inactive profile succeeds.
func (s *DeactivationService) Deactivate(ctx context.Context, actor domain.Actor, profileID, reason string) (domain.CascadeResult, error) {
	if _, err := requireSuperAdmin(ctx, s.profiles, actor); err != nil {
		return nil, err
	}
	return s.deactivate(ctx, actor, profileID, reason)
}

// DeactivateAsOperator skips the actor check. Only the admin CLI calls it.
func (s *DeactivationService) DeactivateAsOperator(ctx context.Context, profileID, reason string) (domain.CascadeResult, error) {
	return s.deactivate(ctx, domain.Actor{}, profileID, reason)
}

func (s *DeactivationService) deactivate(ctx context.Context, actor domain.Actor, profileID, reason string) (domain.CascadeResult, error) {
	if _, err := s.profiles.GetByID(ctx, profileID); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": profileID})
		}
		return nil, err
	}

	details := map[string]any{}
	if reason = strings.TrimSpace(reason); reason != "" {
		details["reason"] = reason
	}
	if s.audit != nil {
		s.audit.Record(ctx, auditEntry(actor, domain.AuditActionDeactivateProfile, domain.AuditResourceProfiles, profileID, details))
	}

	result, err := s.deactivation.Deactivate(ctx, profileID, domain.DeactivationCascade)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": profileID})
		}
		return nil, err
	}

	s.logger.Info("profile deactivated",
		zap.String("profile_id", profileID),
		zap.Int64("collaborators", result[domain.CascadeStepCollaborators]),
		zap.Int64("devices", result[domain.CascadeStepDevices]))

	if s.dispatcher != nil {
		event := events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventProfileDeactivated,
			AggregateID: profileID,
			Actor:       actor,
			Timestamp:   s.now(),
			Payload:     events.ProfileDeactivatedPayload{Affected: result},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
		}
	}
	return result, nil
}
