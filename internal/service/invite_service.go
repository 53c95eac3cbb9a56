package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const defaultRevocationReason = "Revoked by admin"

// InviteView is an invite with its derived display state and redeemer.
type InviteView struct {
	domain.SuperAdminInvite
	State          domain.InviteState
	UsedByUsername *string
	UsedByEmail    *string
}

// InviteListFilter narrows the admin listing.
type InviteListFilter struct {
	// Email is a case-insensitive substring of the redeemer's email.
	Email  string
	Limit  int
	Offset int
}

// InviteSummary counts invites per display state.
type InviteSummary struct {
	Total   int
	Active  int
	Used    int
	Revoked int
	Expired int
}

// InviteService issues and redeems super-admin invite codes.
type InviteService struct {
	invites       repository.InviteRepository
	profiles      repository.ProfileRepository
	audit         AuditSink
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	ttl           time.Duration
	maxAttempts   int
	defaultReason string
	now           Clock
	random        io.Reader
}

// InviteDependencies bundles collaborators for the invite service.
type InviteDependencies struct {
	InviteRepo    repository.InviteRepository
	ProfileRepo   repository.ProfileRepository
	Audit         AuditSink
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	TTL           time.Duration
	MaxAttempts   int
	DefaultReason string
	Clock         Clock
	// Random overrides crypto/rand; tests use it to force collisions.
	Random io.Reader
}

// NewInviteService constructs the service.
func NewInviteService(deps InviteDependencies) *InviteService {
	s := &InviteService{
		invites:       deps.InviteRepo,
		profiles:      deps.ProfileRepo,
		audit:         deps.Audit,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
		ttl:           deps.TTL,
		maxAttempts:   deps.MaxAttempts,
		defaultReason: deps.DefaultReason,
		now:           clockOrNow(deps.Clock),
		random:        deps.Random,
	}
	if s.ttl <= 0 {
		s.ttl = 7 * 24 * time.Hour
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 5
	}
	if strings.TrimSpace(s.defaultReason) == "" {
		s.defaultReason = defaultRevocationReason
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Issue creates a fresh invite on behalf of an active super admin.
func (s *InviteService) Issue(ctx context.Context, issuer domain.Actor) (*domain.SuperAdminInvite, error) {
	if _, err := requireSuperAdmin(ctx, s.profiles, issuer); err != nil {
		return nil, err
	}
	return s.issue(ctx, &issuer)
}

// IssueBootstrap creates an invite with no issuer. Only the admin CLI calls it.
func (s *InviteService) IssueBootstrap(ctx context.Context) (*domain.SuperAdminInvite, error) {
	return s.issue(ctx, nil)
}

func (s *InviteService) issue(ctx context.Context, issuer *domain.Actor) (*domain.SuperAdminInvite, error) {
	now := s.now().UTC().Truncate(time.Second)
	var createdBy *string
	if issuer != nil {
		id := issuer.ID
		createdBy = &id
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := randomCode(s.random, inviteCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generate invite code: %w", err)
		}
		invite := &domain.SuperAdminInvite{
			Code:      code,
			CreatedBy: createdBy,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}
		err = s.invites.Create(ctx, invite)
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.logger.Warn("invite code collision, regenerating", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		actor := domain.Actor{}
		if issuer != nil {
			actor = *issuer
		}
		s.record(ctx, actor, domain.AuditActionIssueInvite, invite.ID, map[string]any{
			"expires_at": invite.ExpiresAt,
		})
		return invite, nil
	}
	return nil, apperrors.NewInternalError(fmt.Errorf("invite code collided %d times", s.maxAttempts))
}

// Validate returns the invite when it is redeemable. Every other outcome is the same InvalidCode.
func (s *InviteService) Validate(ctx context.Context, code string) (*domain.SuperAdminInvite, error) {
	normalized := normalizeCode(code)
	if normalized == "" {
		return nil, apperrors.NewInvalidCode()
	}
	invite, err := s.invites.GetByCode(ctx, normalized)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewInvalidCode()
		}
		return nil, err
	}
	if !invite.RedeemableAt(s.now()) {
		s.logger.Debug("invite rejected",
			zap.String("invite_id", invite.ID),
			zap.String("state", string(invite.StateAt(s.now()))))
		return nil, apperrors.NewInvalidCode()
	}
	return invite, nil
}

// Consume marks the code used by profileID. A lost race reports PartialRegistration,
// which also matches InvalidCode, so the caller compensates the created account.
func (s *InviteService) Consume(ctx context.Context, code, profileID string) error {
	normalized := normalizeCode(code)
	ok, err := s.invites.MarkUsed(ctx, normalized, profileID, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewPartialRegistration(profileID, apperrors.NewInvalidCode())
	}
	s.publish(ctx, events.Event{
		Type:        events.EventInviteConsumed,
		AggregateID: normalized,
		Actor:       domain.ProfileActor(profileID),
		Payload:     events.InviteConsumedPayload{ProfileID: profileID},
	})
	return nil
}

// Revoke retires an active code. Used or already revoked codes yield AlreadyTerminal.
func (s *InviteService) Revoke(ctx context.Context, actor domain.Actor, inviteID, reason string) error {
	if _, err := requireSuperAdmin(ctx, s.profiles, actor); err != nil {
		return err
	}
	return s.revoke(ctx, actor, inviteID, reason)
}

// RevokeAsOperator skips the actor check and leaves revoked_by empty. Only the admin CLI calls it.
func (s *InviteService) RevokeAsOperator(ctx context.Context, inviteID, reason string) error {
	return s.revoke(ctx, domain.Actor{}, inviteID, reason)
}

func (s *InviteService) revoke(ctx context.Context, actor domain.Actor, inviteID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = s.defaultReason
	}

	ok, err := s.invites.Revoke(ctx, inviteID, actor.ID, reason, s.now())
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.invites.GetByID(ctx, inviteID); err != nil {
			if isNoRows(err) {
				return apperrors.NewNotFound("invite", map[string]any{"id": inviteID})
			}
			return err
		}
		return apperrors.NewAlreadyTerminal(map[string]any{"id": inviteID})
	}

	s.record(ctx, actor, domain.AuditActionRevokeInvite, inviteID, map[string]any{"reason": reason})
	s.publish(ctx, events.Event{
		Type:        events.EventInviteRevoked,
		AggregateID: inviteID,
		Actor:       actor,
	})
	return nil
}

// List returns invites newest first with their display state.
func (s *InviteService) List(ctx context.Context, actor domain.Actor, filter InviteListFilter) ([]InviteView, error) {
	if _, err := requireSuperAdmin(ctx, s.profiles, actor); err != nil {
		return nil, err
	}
	repoFilter := repository.InviteFilter{Limit: filter.Limit, Offset: filter.Offset}
	if email := strings.TrimSpace(filter.Email); email != "" {
		repoFilter.UsedByEmail = &email
	}
	records, err := s.invites.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]InviteView, 0, len(records))
	for _, rec := range records {
		views = append(views, toInviteView(rec, now))
	}
	return views, nil
}

// Status reveals the exact state of one invite to an administrator.
func (s *InviteService) Status(ctx context.Context, actor domain.Actor, inviteID string) (*InviteView, error) {
	if _, err := requireSuperAdmin(ctx, s.profiles, actor); err != nil {
		return nil, err
	}
	rec, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("invite", map[string]any{"id": inviteID})
		}
		return nil, err
	}
	view := toInviteView(*rec, s.now())
	return &view, nil
}

const summaryPageSize = 500

// Summary counts every invite by display state.
func (s *InviteService) Summary(ctx context.Context, actor domain.Actor) (InviteSummary, error) {
	var summary InviteSummary
	if _, err := requireSuperAdmin(ctx, s.profiles, actor); err != nil {
		return summary, err
	}
	now := s.now()
	for offset := 0; ; offset += summaryPageSize {
		records, err := s.invites.List(ctx, repository.InviteFilter{Limit: summaryPageSize, Offset: offset})
		if err != nil {
			return summary, err
		}
		for i := range records {
			summary.Total++
			switch records[i].Invite.StateAt(now) {
			case domain.InviteStateActive:
				summary.Active++
			case domain.InviteStateUsed:
				summary.Used++
			case domain.InviteStateRevoked:
				summary.Revoked++
			case domain.InviteStateExpired:
				summary.Expired++
			}
		}
		if len(records) < summaryPageSize {
			return summary, nil
		}
	}
}

func (s *InviteService) record(ctx context.Context, actor domain.Actor, action, inviteID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, auditEntry(actor, action, domain.AuditResourceInvites, inviteID, details))
}

func (s *InviteService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func toInviteView(rec repository.InviteRecord, now time.Time) InviteView {
	return InviteView{
		SuperAdminInvite: rec.Invite,
		State:            rec.Invite.StateAt(now),
		UsedByUsername:   rec.UsedByUsername,
		UsedByEmail:      rec.UsedByEmail,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
