package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type inviteFixture struct {
	store   *memStore
	clock   *fixedClock
	service *InviteService
	admin   domain.Profile
	events  *[]events.Event
}

func newInviteFixture(t *testing.T, random *bytes.Reader) inviteFixture {
	t.Helper()
	store := newMemStore()
	clock := newFixedClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	dispatcher := events.NewInMemoryDispatcher()
	published := &[]events.Event{}
	var mu sync.Mutex
	for _, typ := range []events.EventType{events.EventInviteConsumed, events.EventInviteRevoked} {
		dispatcher.Subscribe(typ, func(_ context.Context, e events.Event) error {
			mu.Lock()
			defer mu.Unlock()
			*published = append(*published, e)
			return nil
		})
	}
	deps := InviteDependencies{
		InviteRepo:  memInvites{store},
		ProfileRepo: memProfiles{store},
		Audit:       NewAuditSink(memSystemLogs{store}, time.Second, nil),
		Dispatcher:  dispatcher,
		TTL:         7 * 24 * time.Hour,
		Clock:       clock.Now,
	}
	if random != nil {
		deps.Random = random
	}
	return inviteFixture{
		store:   store,
		clock:   clock,
		service: NewInviteService(deps),
		admin:   store.seedProfile("root", true, true),
		events:  published,
	}
}

func TestInviteService_Issue_RoundTrip(t *testing.T) {
	f := newInviteFixture(t, nil)
	ctx := context.Background()

	invite, err := f.service.Issue(ctx, domain.ProfileActor(f.admin.ID))
	require.NoError(t, err)

	assert.Len(t, invite.Code, 26)
	for _, r := range invite.Code {
		assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected symbol %q", r)
	}
	assert.Equal(t, 7*24*time.Hour, invite.ExpiresAt.Sub(f.clock.Now()))
	require.NotNil(t, invite.CreatedBy)
	assert.Equal(t, f.admin.ID, *invite.CreatedBy)

	validated, err := f.service.Validate(ctx, invite.Code)
	require.NoError(t, err)
	assert.Equal(t, invite.ID, validated.ID)

	require.Len(t, f.store.logs, 1)
	assert.Equal(t, domain.AuditActionIssueInvite, f.store.logs[0].Action)
}

func TestInviteService_Issue_RegeneratesOnCollision(t *testing.T) {
	zeros := bytes.Repeat([]byte{0}, inviteCodeLength)
	ones := bytes.Repeat([]byte{1}, inviteCodeLength)
	stream := append(append(append([]byte{}, zeros...), zeros...), ones...)
	f := newInviteFixture(t, bytes.NewReader(stream))
	ctx := context.Background()

	first, err := f.service.Issue(ctx, domain.ProfileActor(f.admin.ID))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", inviteCodeLength), first.Code)

	second, err := f.service.Issue(ctx, domain.ProfileActor(f.admin.ID))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("B", inviteCodeLength), second.Code)
}

func TestInviteService_Issue_GivesUpAfterMaxAttempts(t *testing.T) {
	zeros := bytes.Repeat([]byte{0}, inviteCodeLength*6)
	f := newInviteFixture(t, bytes.NewReader(zeros))
	ctx := context.Background()

	_, err := f.service.Issue(ctx, domain.ProfileActor(f.admin.ID))
	require.NoError(t, err)

	_, err = f.service.Issue(ctx, domain.ProfileActor(f.admin.ID))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.ToDomainError(err).Code)
}

func TestInviteService_Issue_RejectsNonAdmins(t *testing.T) {
	f := newInviteFixture(t, nil)
	ctx := context.Background()
	inactive := f.store.seedProfile("former", true, false)
	plain := f.store.seedProfile("plain", false, true)
	collaborator := f.store.seedCollaborator(f.admin.ID, "agent", domain.AccessLevelAdmin)

	tests := []struct {
		name  string
		actor domain.Actor
	}{
		{name: "inactive profile", actor: domain.ProfileActor(inactive.ID)},
		{name: "not super admin", actor: domain.ProfileActor(plain.ID)},
		{name: "unknown profile", actor: domain.ProfileActor(uuid.NewString())},
		{name: "collaborator", actor: domain.CollaboratorActor(collaborator.ID)},
		{name: "anonymous", actor: domain.Actor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Issue(ctx, tt.actor)
			assert.ErrorIs(t, err, apperrors.ErrInsufficientAccess)
		})
	}
	assert.Empty(t, f.store.invites)
}

func TestInviteService_IssueBootstrap_HasNoIssuer(t *testing.T) {
	f := newInviteFixture(t, nil)

	invite, err := f.service.IssueBootstrap(context.Background())
	require.NoError(t, err)
	assert.Nil(t, invite.CreatedBy)
	require.Len(t, f.store.logs, 1)
	assert.Nil(t, f.store.logs[0].ActorID)
}

func TestInviteService_Validate_NormalizesInput(t *testing.T) {
	f := newInviteFixture(t, nil)
	ctx := context.Background()
	invite, err := f.service.Issue(ctx, domain.ProfileActor(f.admin.ID))
	require.NoError(t, err)

	got, err := f.service.Validate(ctx, "  "+strings.ToLower(invite.Code)+"\n")
	require.NoError(t, err)
	assert.Equal(t, invite.ID, got.ID)
}

func TestInviteService_Validate_UniformInvalidCode(t *testing.T) {
	f := newInviteFixture(t, nil)
	ctx := context.Background()
	actor := domain.ProfileActor(f.admin.ID)

	used, err := f.service.Issue(ctx, actor)
	require.NoError(t, err)
	require.NoError(t, f.service.Consume(ctx, used.Code, f.admin.ID))

	revoked, err := f.service.Issue(ctx, actor)
	require.NoError(t, err)
	require.NoError(t, f.service.Revoke(ctx, actor, revoked.ID, ""))

	tests := []struct {
		name string
		code string
	}{
		{name: "empty", code: "   "},
		{name: "unknown", code: "ZZZZZZZZZZZZZZZZZZZZZZZZZZ"},
		{name: "used", code: used.Code},
		{name: "revoked", code: revoked.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Validate(ctx, tt.code)
			require.Error(t, err)
			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, apperrors.CodeInvalidCode, domainErr.Code)
			assert.Equal(t, apperrors.ErrInvalidCode.Message, domainErr.Message)
			assert.Empty(t, domainErr.Details)
		})
	}
}

func TestInviteService_Validate_ExpiryBoundary(t *testing.T) {
	f := newInviteFixture(t, nil)
	ctx := context.Background()
	invite, err := f.service.Issue(ctx, domain.ProfileActor(f.admin.ID))
	require.NoError(t, err)

	f.clock.Advance(7*24*time.Hour - time.Second)
	_, err = f.service.Validate(ctx, invite.Code)
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	_, err = f.service.Validate(ctx, invite.Code)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)

	err = f.service.Consume(ctx, invite.Code, f.admin.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
}

func TestInviteService_Consume_ConcurrentExactlyOneWins(t *testing.T) {
	f := newInviteFixture(t, nil)
	ctx := context.Background()
	invite, err := f.service.Issue(ctx, domain.ProfileActor(f.admin.ID))
	require.NoError(t, err)

	const workers = 16
	var wins atomic.Int32
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.service.Consume(ctx, invite.Code, uuid.NewString()); err != nil {
				errs <- err
				return
			}
			wins.Add(1)
		}()
	}
	wg.Wait()
	close(errs)

	assert.Equal(t, int32(1), wins.Load())
	for err := range errs {
		assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
		assert.ErrorIs(t, err, apperrors.ErrPartialRegistration)
	}
}

func TestInviteService_Consume_PublishesEvent(t *testing.T) {
	f := newInviteFixture(t, nil)
	ctx := context.Background()
	invite, err := f.service.Issue(ctx, domain.ProfileActor(f.admin.ID))
	require.NoError(t, err)

	require.NoError(t, f.service.Consume(ctx, invite.Code, "profile-1"))

	require.Len(t, *f.events, 1)
	event := (*f.events)[0]
	assert.Equal(t, events.EventInviteConsumed, event.Type)
	assert.Equal(t, events.InviteConsumedPayload{ProfileID: "profile-1"}, event.Payload)
}

func TestInviteService_Revoke(t *testing.T) {
	f := newInviteFixture(t, nil)
	ctx := context.Background()
	actor := domain.ProfileActor(f.admin.ID)

	t.Run("active code becomes invalid", func(t *testing.T) {
		invite, err := f.service.Issue(ctx, actor)
		require.NoError(t, err)

		require.NoError(t, f.service.Revoke(ctx, actor, invite.ID, "  "))
		_, err = f.service.Validate(ctx, invite.Code)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCode)

		view, err := f.service.Status(ctx, actor, invite.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InviteStateRevoked, view.State)
		require.NotNil(t, view.RevocationReason)
		assert.Equal(t, defaultRevocationReason, *view.RevocationReason)
	})

	t.Run("second revoke is terminal", func(t *testing.T) {
		invite, err := f.service.Issue(ctx, actor)
		require.NoError(t, err)
		require.NoError(t, f.service.Revoke(ctx, actor, invite.ID, "leaked"))

		err = f.service.Revoke(ctx, actor, invite.ID, "again")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyTerminal)
	})

	t.Run("used code is terminal", func(t *testing.T) {
		invite, err := f.service.Issue(ctx, actor)
		require.NoError(t, err)
		require.NoError(t, f.service.Consume(ctx, invite.Code, f.admin.ID))

		err = f.service.Revoke(ctx, actor, invite.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyTerminal)
	})

	t.Run("missing code", func(t *testing.T) {
		err := f.service.Revoke(ctx, actor, uuid.NewString(), "")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("operator revoke has no revoker", func(t *testing.T) {
		invite, err := f.service.IssueBootstrap(ctx)
		require.NoError(t, err)

		require.NoError(t, f.service.RevokeAsOperator(ctx, invite.ID, "rotated"))
		view, err := f.service.Status(ctx, actor, invite.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InviteStateRevoked, view.State)
		assert.Nil(t, view.RevokedBy)
		require.NotNil(t, view.RevocationReason)
		assert.Equal(t, "rotated", *view.RevocationReason)

		err = f.service.RevokeAsOperator(ctx, invite.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyTerminal)
	})
}

func TestInviteService_ListAndSummary(t *testing.T) {
	f := newInviteFixture(t, nil)
	ctx := context.Background()
	actor := domain.ProfileActor(f.admin.ID)
	redeemer := f.store.seedProfile("alice", true, true)

	used, err := f.service.Issue(ctx, actor)
	require.NoError(t, err)
	require.NoError(t, f.service.Consume(ctx, used.Code, redeemer.ID))
	revoked, err := f.service.Issue(ctx, actor)
	require.NoError(t, err)
	require.NoError(t, f.service.Revoke(ctx, actor, revoked.ID, ""))
	_, err = f.service.Issue(ctx, actor)
	require.NoError(t, err)

	views, err := f.service.List(ctx, actor, InviteListFilter{})
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, domain.InviteStateActive, views[0].State)
	assert.Equal(t, domain.InviteStateRevoked, views[1].State)
	assert.Equal(t, domain.InviteStateUsed, views[2].State)

	filtered, err := f.service.List(ctx, actor, InviteListFilter{Email: "ALICE@"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.NotNil(t, filtered[0].UsedByUsername)
	assert.Equal(t, "alice", *filtered[0].UsedByUsername)

	summary, err := f.service.Summary(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, InviteSummary{Total: 3, Active: 1, Used: 1, Revoked: 1}, summary)

	f.clock.Advance(8 * 24 * time.Hour)
	summary, err = f.service.Summary(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, InviteSummary{Total: 3, Used: 1, Revoked: 1, Expired: 1}, summary)
}

func TestInviteService_Status_NotFound(t *testing.T) {
	f := newInviteFixture(t, nil)

	_, err := f.service.Status(context.Background(), domain.ProfileActor(f.admin.ID), uuid.NewString())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
