package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type MockSystemLogRepository struct {
	mock.Mock
}

func (m *MockSystemLogRepository) Create(ctx context.Context, entry *domain.SystemLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func newDeactivationService(store *memStore, logs repository.SystemLogRepository) *DeactivationService {
	return NewDeactivationService(DeactivationDependencies{
		ProfileRepo:      memProfiles{store},
		DeactivationRepo: memDeactivation{store},
		Audit:            NewAuditSink(logs, time.Second, nil),
	})
}

func TestDeactivationService_Deactivate_Cascade(t *testing.T) {
	store := newMemStore()
	admin := store.seedProfile("root", true, true)
	p1 := store.seedProfile("p1", true, true)
	k1 := store.seedCollaborator(p1.ID, "k1", domain.AccessLevelEditor)
	k2 := store.seedCollaborator(p1.ID, "k2", domain.AccessLevelViewer)
	code, d1 := store.seedDevice(p1.ID, "d1")

	other := store.seedProfile("p2", true, true)
	otherCollaborator := store.seedCollaborator(other.ID, "k9", domain.AccessLevelAdmin)
	otherCode, otherDevice := store.seedDevice(other.ID, "d9")

	service := newDeactivationService(store, memSystemLogs{store})
	result, err := service.Deactivate(context.Background(), domain.ProfileActor(admin.ID), p1.ID, " left the company ")
	require.NoError(t, err)

	assert.Equal(t, domain.CascadeResult{
		domain.CascadeStepProfile:       1,
		domain.CascadeStepAuthCodes:     1,
		domain.CascadeStepCollaborators: 2,
		domain.CascadeStepDevices:       1,
	}, result)

	assert.False(t, store.profiles[p1.ID].IsActive)
	assert.False(t, store.collaborators[k1.ID].IsActive)
	assert.False(t, store.collaborators[k2.ID].IsActive)
	assert.False(t, store.authCodes[code.ID].IsActive)
	assert.False(t, store.devices[d1.ID].IsActive)

	assert.True(t, store.profiles[other.ID].IsActive)
	assert.True(t, store.collaborators[otherCollaborator.ID].IsActive)
	assert.True(t, store.authCodes[otherCode.ID].IsActive)
	assert.True(t, store.devices[otherDevice.ID].IsActive)
	assert.True(t, store.profiles[admin.ID].IsActive)

	require.Len(t, store.logs, 1)
	entry := store.logs[0]
	assert.Equal(t, domain.AuditActionDeactivateProfile, entry.Action)
	assert.Equal(t, domain.AuditResourceProfiles, *entry.ResourceType)
	assert.Equal(t, p1.ID, *entry.ResourceID)
	assert.Equal(t, admin.ID, *entry.ActorID)
	assert.Equal(t, "left the company", entry.Details["reason"])
}

func TestDeactivationService_Deactivate_Idempotent(t *testing.T) {
	store := newMemStore()
	admin := store.seedProfile("root", true, true)
	p1 := store.seedProfile("p1", true, true)
	k1 := store.seedCollaborator(p1.ID, "k1", domain.AccessLevelEditor)
	service := newDeactivationService(store, memSystemLogs{store})
	ctx := context.Background()

	_, err := service.Deactivate(ctx, domain.ProfileActor(admin.ID), p1.ID, "")
	require.NoError(t, err)
	_, err = service.Deactivate(ctx, domain.ProfileActor(admin.ID), p1.ID, "")
	require.NoError(t, err)

	assert.False(t, store.profiles[p1.ID].IsActive)
	assert.False(t, store.collaborators[k1.ID].IsActive)
	assert.Len(t, store.logs, 2)
}

func TestDeactivationService_Deactivate_NotFound(t *testing.T) {
	store := newMemStore()
	admin := store.seedProfile("root", true, true)
	service := newDeactivationService(store, memSystemLogs{store})

	_, err := service.Deactivate(context.Background(), domain.ProfileActor(admin.ID), uuid.NewString(), "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, store.logs)
}

func TestDeactivationService_Deactivate_RequiresSuperAdmin(t *testing.T) {
	store := newMemStore()
	owner := store.seedProfile("owner", true, true)
	collaborator := store.seedCollaborator(owner.ID, "k1", domain.AccessLevelAdmin)
	service := newDeactivationService(store, memSystemLogs{store})

	_, err := service.Deactivate(context.Background(), domain.CollaboratorActor(collaborator.ID), owner.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientAccess)
	assert.True(t, store.profiles[owner.ID].IsActive)
}

func TestDeactivationService_Deactivate_AuditFailureIsSwallowed(t *testing.T) {
	store := newMemStore()
	admin := store.seedProfile("root", true, true)
	p1 := store.seedProfile("p1", true, true)

	logs := new(MockSystemLogRepository)
	logs.On("Create", mock.Anything, mock.MatchedBy(func(entry *domain.SystemLog) bool {
		return entry.Action == domain.AuditActionDeactivateProfile && *entry.ResourceID == p1.ID
	})).Return(errors.New("system_logs unavailable")).Once()

	service := newDeactivationService(store, logs)
	result, err := service.Deactivate(context.Background(), domain.ProfileActor(admin.ID), p1.ID, "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), result[domain.CascadeStepProfile])
	assert.False(t, store.profiles[p1.ID].IsActive)
	logs.AssertExpectations(t)
}

func TestDeactivationService_DeactivateAsOperator(t *testing.T) {
	store := newMemStore()
	p1 := store.seedProfile("p1", true, true)
	service := newDeactivationService(store, memSystemLogs{store})

	_, err := service.DeactivateAsOperator(context.Background(), p1.ID, "cli")
	require.NoError(t, err)

	assert.False(t, store.profiles[p1.ID].IsActive)
	require.Len(t, store.logs, 1)
	assert.Nil(t, store.logs[0].ActorID)
}
