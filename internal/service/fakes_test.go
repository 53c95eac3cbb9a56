package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// memStore is an in-memory stand-in for Postgres. Conditional updates hold the
// lock across check and write, which matches the single-statement guarantees
// of the SQL repositories.
type memStore struct {
	mu            sync.Mutex
	profiles      map[string]domain.Profile
	collaborators map[string]domain.Collaborator
	authCodes     map[string]domain.AuthCode
	devices       map[string]domain.Device
	invites       map[string]domain.SuperAdminInvite
	tickets       map[string]domain.Ticket
	comments      []domain.TicketComment
	logs          []domain.SystemLog
	seq           int
}

func newMemStore() *memStore {
	return &memStore{
		profiles:      map[string]domain.Profile{},
		collaborators: map[string]domain.Collaborator{},
		authCodes:     map[string]domain.AuthCode{},
		devices:       map[string]domain.Device{},
		invites:       map[string]domain.SuperAdminInvite{},
		tickets:       map[string]domain.Ticket{},
	}
}

// tick returns strictly increasing timestamps so ordering by created_at is stable.
func (s *memStore) tick() time.Time {
	s.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
}

type (
	memProfiles      struct{ *memStore }
	memCollaborators struct{ *memStore }
	memDevices       struct{ *memStore }
	memInvites       struct{ *memStore }
	memTickets       struct{ *memStore }
	memDeactivation  struct{ *memStore }
	memSystemLogs    struct{ *memStore }
)

// --- profiles

func (r memProfiles) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.Username == p.Username || (existing.IsActive && strings.EqualFold(existing.Email, p.Email)) {
			return repository.ErrDuplicateKey
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = r.tick()
	p.UpdatedAt = p.CreatedAt
	r.profiles[p.ID] = *p
	return nil
}

func (r memProfiles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.profiles, id)
	return nil
}

func (r memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r memProfiles) GetActiveByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.IsActive && strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memProfiles) FindByEmailOrUsername(_ context.Context, login string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if strings.EqualFold(p.Email, login) || p.Username == login {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// --- collaborators

func (r memCollaborators) Create(_ context.Context, c *domain.Collaborator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.collaborators {
		if existing.Username == c.Username {
			return repository.ErrDuplicateKey
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = r.tick()
	r.collaborators[c.ID] = *c
	return nil
}

func (r memCollaborators) GetByID(_ context.Context, id string) (*domain.Collaborator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.collaborators[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r memCollaborators) GetByUsername(_ context.Context, username string) (*domain.Collaborator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.collaborators {
		if c.Username == username {
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// --- devices

func (r memDevices) CreateAuthCode(_ context.Context, code *domain.AuthCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.authCodes {
		if existing.Code == code.Code {
			return repository.ErrDuplicateKey
		}
	}
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	code.CreatedAt = r.tick()
	r.authCodes[code.ID] = *code
	return nil
}

func (r memDevices) GetAuthCodeByCode(_ context.Context, code string) (*domain.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.authCodes {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memDevices) CreateDevice(_ context.Context, d *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.AuthCodeID == nil || !r.authCodes[*d.AuthCodeID].IsActive {
		return repository.ErrInactiveAuthCode
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = r.tick()
	r.devices[d.ID] = *d
	return nil
}

func (r memDevices) GetDeviceByID(_ context.Context, id string) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	d.OwnerID = nil
	if d.AuthCodeID != nil {
		if code, ok := r.authCodes[*d.AuthCodeID]; ok {
			owner := code.OwnerID
			d.OwnerID = &owner
		}
	}
	return &d, nil
}

// --- invites

func (r memInvites) Create(_ context.Context, inv *domain.SuperAdminInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invites {
		if existing.Code == inv.Code {
			return repository.ErrDuplicateKey
		}
	}
	inv.ID = uuid.NewString()
	inv.CreatedAt = r.tick()
	r.invites[inv.ID] = *inv
	return nil
}

func (r memInvites) record(inv domain.SuperAdminInvite) repository.InviteRecord {
	rec := repository.InviteRecord{Invite: inv}
	if inv.UsedBy != nil {
		if p, ok := r.profiles[*inv.UsedBy]; ok {
			username, email := p.Username, p.Email
			rec.UsedByUsername = &username
			rec.UsedByEmail = &email
		}
	}
	return rec
}

func (r memInvites) GetByID(_ context.Context, id string) (*repository.InviteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	rec := r.record(inv)
	return &rec, nil
}

func (r memInvites) GetByCode(_ context.Context, code string) (*domain.SuperAdminInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invites {
		if inv.Code == code {
			return &inv, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memInvites) List(_ context.Context, filter repository.InviteFilter) ([]repository.InviteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.InviteRecord
	for _, inv := range r.invites {
		rec := r.record(inv)
		if filter.UsedByEmail != nil {
			needle := strings.ToLower(*filter.UsedByEmail)
			if rec.UsedByEmail == nil || !strings.Contains(strings.ToLower(*rec.UsedByEmail), needle) {
				continue
			}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Invite.CreatedAt.After(out[j].Invite.CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset, 100), nil
}

func (r memInvites) MarkUsed(_ context.Context, code, profileID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, inv := range r.invites {
		if inv.Code != code {
			continue
		}
		if inv.Used || inv.RevokedAt != nil || !inv.ExpiresAt.After(now) {
			return false, nil
		}
		inv.Used = true
		inv.UsedBy = &profileID
		inv.UsedAt = &now
		r.invites[id] = inv
		return true, nil
	}
	return false, nil
}

func (r memInvites) Revoke(_ context.Context, id, revokedBy, reason string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[id]
	if !ok || inv.Used || inv.RevokedAt != nil {
		return false, nil
	}
	inv.RevokedAt = &now
	if revokedBy != "" {
		inv.RevokedBy = &revokedBy
	}
	inv.RevocationReason = &reason
	r.invites[id] = inv
	return true, nil
}

// --- deactivation

func (r memDeactivation) Deactivate(_ context.Context, profileID string, steps []domain.CascadeStep) (domain.CascadeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profileID]; !ok {
		return nil, pgx.ErrNoRows
	}
	result := domain.CascadeResult{}
	for _, step := range steps {
		switch step {
		case domain.CascadeStepProfile:
			p := r.profiles[profileID]
			p.IsActive = false
			r.profiles[profileID] = p
			result[step] = 1
		case domain.CascadeStepAuthCodes:
			for id, c := range r.authCodes {
				if c.OwnerID == profileID {
					c.IsActive = false
					r.authCodes[id] = c
					result[step]++
				}
			}
		case domain.CascadeStepCollaborators:
			for id, c := range r.collaborators {
				if c.OwnerID == profileID {
					c.IsActive = false
					r.collaborators[id] = c
					result[step]++
				}
			}
		case domain.CascadeStepDevices:
			for id, d := range r.devices {
				if d.AuthCodeID == nil {
					continue
				}
				if code, ok := r.authCodes[*d.AuthCodeID]; ok && code.OwnerID == profileID {
					d.IsActive = false
					r.devices[id] = d
					result[step]++
				}
			}
		}
	}
	return result, nil
}

// --- system logs

func (r memSystemLogs) Create(_ context.Context, entry *domain.SystemLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	r.logs = append(r.logs, *entry)
	return nil
}

// --- tickets

func (r memTickets) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tickets {
		if existing.TicketNumber == t.TicketNumber {
			return repository.ErrDuplicateKey
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = r.tick()
	t.UpdatedAt = t.CreatedAt
	r.tickets[t.ID] = *t
	return nil
}

func (r memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r memTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if filter.OwnerID != nil && (t.OwnerID == nil || *t.OwnerID != *filter.OwnerID) {
			continue
		}
		if filter.DeviceID != nil && (t.DeviceID == nil || *t.DeviceID != *filter.DeviceID) {
			continue
		}
		if filter.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset, 50), nil
}

func (r memTickets) Stats(_ context.Context, ownerID, collaboratorID string) (domain.TicketStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats domain.TicketStats
	for _, t := range r.tickets {
		if t.OwnerID == nil || *t.OwnerID != ownerID {
			continue
		}
		stats.Total++
		if t.AssignedTo != nil && *t.AssignedTo == collaboratorID {
			stats.Assigned++
		}
		switch t.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusResolved:
			stats.Resolved++
		}
	}
	return stats, nil
}

func (r memTickets) Assign(_ context.Context, ticketID, collaboratorID string, comment *domain.TicketComment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[ticketID]
	if !ok || t.AssignedTo != nil || t.Status != domain.TicketStatusOpen {
		return false, nil
	}
	t.AssignedTo = &collaboratorID
	t.Status = domain.TicketStatusInProgress
	t.UpdatedAt = r.tick()
	r.tickets[ticketID] = t
	if comment != nil {
		r.appendComment(comment)
	}
	return true, nil
}

func (r memTickets) Transition(_ context.Context, change repository.TicketTransition, comment *domain.TicketComment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[change.TicketID]
	if !ok || t.Status != change.From {
		return false, nil
	}
	if change.ExpectedAssignee != nil && (t.AssignedTo == nil || *t.AssignedTo != *change.ExpectedAssignee) {
		return false, nil
	}
	t.Status = change.To
	if t.ResolvedAt == nil && change.ResolvedAt != nil {
		t.ResolvedAt = change.ResolvedAt
	}
	if change.ClosedAt != nil {
		t.ClosedAt = change.ClosedAt
	}
	if change.ClearAssignee {
		t.AssignedTo = nil
	}
	t.UpdatedAt = r.tick()
	r.tickets[t.ID] = t
	if comment != nil {
		r.appendComment(comment)
	}
	return true, nil
}

func (r memTickets) AddComment(_ context.Context, comment *domain.TicketComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[comment.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	t.UpdatedAt = r.tick()
	r.tickets[t.ID] = t
	r.appendComment(comment)
	return nil
}

func (r memTickets) ListComments(_ context.Context, ticketIDs []string) (map[string][]domain.TicketComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(ticketIDs))
	for _, id := range ticketIDs {
		wanted[id] = true
	}
	out := make(map[string][]domain.TicketComment, len(ticketIDs))
	for _, c := range r.comments {
		if wanted[c.TicketID] {
			out[c.TicketID] = append(out[c.TicketID], c)
		}
	}
	return out, nil
}

// appendComment requires the lock.
func (r memTickets) appendComment(comment *domain.TicketComment) {
	comment.ID = uuid.NewString()
	comment.CreatedAt = r.tick()
	r.comments = append(r.comments, *comment)
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// --- seeding helpers

func (s *memStore) seedProfile(username string, superAdmin, active bool) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Profile{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		IsActive:     active,
		IsSuperAdmin: superAdmin,
		CreatedAt:    s.tick(),
	}
	s.profiles[p.ID] = p
	return p
}

func (s *memStore) seedCollaborator(ownerID, username string, level domain.AccessLevel) domain.Collaborator {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Collaborator{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Username:    username,
		Email:       username + "@example.com",
		AccessLevel: level,
		IsActive:    true,
		CreatedAt:   s.tick(),
	}
	s.collaborators[c.ID] = c
	return c
}

func (s *memStore) seedDevice(ownerID, name string) (domain.AuthCode, domain.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := domain.AuthCode{ID: uuid.NewString(), OwnerID: ownerID, Code: strings.ToUpper(name) + "CODE", IsActive: true, CreatedAt: s.tick()}
	s.authCodes[code.ID] = code
	codeID := code.ID
	device := domain.Device{ID: uuid.NewString(), AuthCodeID: &codeID, DeviceName: name, UserEmail: name + "@example.com", IsActive: true, CreatedAt: s.tick()}
	s.devices[device.ID] = device
	return code, device
}

func (s *memStore) seedTicket(ownerID string, deviceID *string, status domain.TicketStatus) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := ownerID
	t := domain.Ticket{
		ID:           uuid.NewString(),
		TicketNumber: "T-20260101-" + strings.ToUpper(uuid.NewString()[:6]),
		OwnerID:      &owner,
		DeviceID:     deviceID,
		Title:        "Printer offline",
		Category:     "hardware",
		Priority:     domain.TicketPriorityMedium,
		Status:       status,
		CreatedAt:    s.tick(),
	}
	s.tickets[t.ID] = t
	return t
}

func (s *memStore) ticket(id string) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets[id]
}

func (s *memStore) commentsFor(ticketID string) []domain.TicketComment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TicketComment
	for _, c := range s.comments {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out
}

// fixedClock is a settable clock for deterministic expiry checks.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{now: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
