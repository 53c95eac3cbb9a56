package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	defaultTicketCategory   = "general"
	maxTicketNumberAttempts = 5
)

// allowedTransitions lists setStatus targets per current status. open only leaves through Assign.
var allowedTransitions = map[domain.TicketStatus]map[domain.TicketStatus]bool{
	domain.TicketStatusInProgress: {
		domain.TicketStatusPending:  true,
		domain.TicketStatusResolved: true,
		domain.TicketStatusOpen:     true,
	},
	domain.TicketStatusPending: {
		domain.TicketStatusInProgress: true,
		domain.TicketStatusClosed:     true,
		domain.TicketStatusOpen:       true,
	},
	domain.TicketStatusResolved: {
		domain.TicketStatusClosed: true,
		domain.TicketStatusOpen:   true,
	},
	domain.TicketStatusClosed: {
		domain.TicketStatusOpen: true,
	},
}

func isValidTransition(from, to domain.TicketStatus) bool {
	return allowedTransitions[from][to]
}

// TicketView is a ticket with the comments its reader may see.
type TicketView struct {
	Ticket   domain.Ticket
	Comments []domain.TicketComment
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    domain.TicketPriority
}

// TicketPage bounds a listing.
type TicketPage struct {
	Limit  int
	Offset int
}

// TicketService runs the ticket workflow: take, status changes, comments and scoped reads.
type TicketService struct {
	tickets       repository.TicketRepository
	collaborators repository.CollaboratorRepository
	devices       repository.DeviceRepository
	dispatcher    events.Dispatcher
	labels        *TransitionLabels
	sanitizer     *bluemonday.Policy
	logger        *zap.Logger
	now           Clock
	random        io.Reader
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	CollaboratorRepo repository.CollaboratorRepository
	DeviceRepo       repository.DeviceRepository
	Dispatcher       events.Dispatcher
	Labels           *TransitionLabels
	Logger           *zap.Logger
	Clock            Clock
	Random           io.Reader
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:       deps.TicketRepo,
		collaborators: deps.CollaboratorRepo,
		devices:       deps.DeviceRepo,
		dispatcher:    deps.Dispatcher,
		labels:        deps.Labels,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        deps.Logger,
		now:           clockOrNow(deps.Clock),
		random:        deps.Random,
	}
	if s.labels == nil {
		s.labels = NewTransitionLabels("pt-BR")
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Assign lets a collaborator take an open, unassigned ticket. Exactly one of
// several concurrent callers wins; the rest get AlreadyAssigned.
func (s *TicketService) Assign(ctx context.Context, ticketID, collaboratorID string) (*domain.Ticket, error) {
	collaborator, err := s.mutatingCollaborator(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketForCollaborator(ctx, ticketID, collaborator)
	if err != nil {
		return nil, err
	}
	if ticket.AssignedTo != nil || ticket.Status != domain.TicketStatusOpen {
		return nil, apperrors.NewAlreadyAssigned(map[string]any{"ticket_id": ticketID})
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		Author:     domain.Author{Kind: domain.AuthorKindSystem, ID: collaborator.ID},
		Content:    s.labels.Assigned(collaborator.Username),
		IsInternal: true,
	}
	taken, err := s.tickets.Assign(ctx, ticket.ID, collaborator.ID, comment)
	if err != nil {
		return nil, err
	}
	if !taken {
		return nil, apperrors.NewAlreadyAssigned(map[string]any{"ticket_id": ticketID})
	}

	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketAssigned,
		AggregateID: ticket.ID,
		Actor:       domain.CollaboratorActor(collaborator.ID),
		Payload: events.TicketAssignedPayload{
			CollaboratorID: collaborator.ID,
			Username:       collaborator.Username,
		},
	})
	return updated, nil
}

// SetStatus moves a ticket along the status graph on behalf of its assignee or an admin collaborator.
func (s *TicketService) SetStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus, collaboratorID string) (*domain.Ticket, error) {
	collaborator, err := s.mutatingCollaborator(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketForCollaborator(ctx, ticketID, collaborator)
	if err != nil {
		return nil, err
	}
	isAssignee := ticket.AssignedTo != nil && *ticket.AssignedTo == collaborator.ID
	if !isAssignee && collaborator.AccessLevel != domain.AccessLevelAdmin {
		return nil, apperrors.NewInsufficientAccess("only the assignee or an admin may change status")
	}
	if !newStatus.IsValid() || !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition(map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	now := s.now()
	change := repository.TicketTransition{
		TicketID:         ticket.ID,
		From:             ticket.Status,
		To:               newStatus,
		ExpectedAssignee: ticket.AssignedTo,
		ClearAssignee:    newStatus == domain.TicketStatusOpen,
	}
	if newStatus == domain.TicketStatusResolved && ticket.ResolvedAt == nil {
		change.ResolvedAt = &now
	}
	if newStatus == domain.TicketStatusClosed {
		change.ClosedAt = &now
	}
	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		Author:     domain.Author{Kind: domain.AuthorKindSystem, ID: collaborator.ID},
		Content:    s.labels.StatusChanged(newStatus, collaborator.Username),
		IsInternal: true,
	}

	applied, err := s.tickets.Transition(ctx, change, comment)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.NewConflict("ticket changed concurrently, reload and retry", map[string]any{"ticket_id": ticketID})
	}

	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketStatusChanged,
		AggregateID: ticket.ID,
		Actor:       domain.CollaboratorActor(collaborator.ID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: ticket.Status,
			NewStatus: newStatus,
		},
	})
	return updated, nil
}

// AddComment appends a comment after stripping markup. Blank content yields EmptyContent.
func (s *TicketService) AddComment(ctx context.Context, author domain.Actor, ticketID, content string, isInternal bool) (*domain.TicketComment, error) {
	body := s.plainText(content)
	if body == "" {
		return nil, apperrors.NewEmptyContent()
	}

	var collaborator *domain.Collaborator
	if author.Kind == domain.SubjectTypeCollaborator {
		var err error
		if collaborator, err = s.mutatingCollaborator(ctx, author.ID); err != nil {
			return nil, err
		}
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	switch author.Kind {
	case domain.SubjectTypeCollaborator:
		if !sameOwner(ticket.OwnerID, collaborator.OwnerID) {
			return nil, ticketNotFound(ticketID)
		}
	case domain.SubjectTypeDevice:
		if isInternal {
			return nil, apperrors.NewInsufficientAccess("devices cannot write internal comments")
		}
		if ticket.DeviceID == nil || *ticket.DeviceID != author.ID {
			return nil, ticketNotFound(ticketID)
		}
	case domain.SubjectTypeProfile:
		if !sameOwner(ticket.OwnerID, author.ID) {
			return nil, ticketNotFound(ticketID)
		}
	default:
		return nil, apperrors.NewInsufficientAccess("unknown author")
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		Author:     domain.AuthorFromActor(author),
		Content:    body,
		IsInternal: isInternal,
	}
	if err := s.tickets.AddComment(ctx, comment); err != nil {
		if isNoRows(err) {
			return nil, ticketNotFound(ticketID)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketCommentAdded,
		AggregateID: ticket.ID,
		Actor:       author,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorKind:  comment.Author.Kind,
			IsInternal:  comment.IsInternal,
			BodyPreview: stringPreview(comment.Content, 120),
		},
	})
	return comment, nil
}

// List returns the reader's tickets. Devices see only their own tickets and never internal comments.
func (s *TicketService) List(ctx context.Context, reader domain.Actor, scope domain.TicketScope, page TicketPage) ([]TicketView, error) {
	if scope == "" {
		scope = domain.TicketScopeAll
	}
	if !scope.IsValid() {
		return nil, apperrors.NewValidationError("invalid scope", map[string]any{"scope": scope})
	}

	filter := repository.TicketFilter{Limit: page.Limit, Offset: page.Offset}
	switch reader.Kind {
	case domain.SubjectTypeCollaborator:
		collaborator, err := s.readingCollaborator(ctx, reader.ID)
		if err != nil {
			return nil, err
		}
		filter.OwnerID = &collaborator.OwnerID
		applyScope(&filter, scope, collaborator.ID)
	case domain.SubjectTypeProfile:
		ownerID := reader.ID
		filter.OwnerID = &ownerID
		applyScope(&filter, scope, reader.ID)
	case domain.SubjectTypeDevice:
		deviceID := reader.ID
		filter.DeviceID = &deviceID
	default:
		return nil, apperrors.NewInsufficientAccess("unknown reader")
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.withComments(ctx, tickets, reader)
}

// Get returns one ticket if the reader can see it.
func (s *TicketService) Get(ctx context.Context, reader domain.Actor, ticketID string) (*TicketView, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch reader.Kind {
	case domain.SubjectTypeCollaborator:
		collaborator, err := s.readingCollaborator(ctx, reader.ID)
		if err != nil {
			return nil, err
		}
		if !sameOwner(ticket.OwnerID, collaborator.OwnerID) {
			return nil, ticketNotFound(ticketID)
		}
	case domain.SubjectTypeProfile:
		if !sameOwner(ticket.OwnerID, reader.ID) {
			return nil, ticketNotFound(ticketID)
		}
	case domain.SubjectTypeDevice:
		if ticket.DeviceID == nil || *ticket.DeviceID != reader.ID {
			return nil, ticketNotFound(ticketID)
		}
	default:
		return nil, apperrors.NewInsufficientAccess("unknown reader")
	}

	views, err := s.withComments(ctx, []domain.Ticket{*ticket}, reader)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Create opens a new ticket for a device or a profile.
func (s *TicketService) Create(ctx context.Context, creator domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = defaultTicketCategory
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: s.plainText(input.Description),
		Category:    category,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
	}
	switch creator.Kind {
	case domain.SubjectTypeDevice:
		device, err := s.devices.GetDeviceByID(ctx, creator.ID)
		if err != nil {
			if isNoRows(err) {
				return nil, apperrors.NewInsufficientAccess("device not registered")
			}
			return nil, err
		}
		if !device.IsActive || device.OwnerID == nil {
			return nil, apperrors.NewInsufficientAccess("device is not linked to an active owner")
		}
		deviceID := device.ID
		ticket.DeviceID = &deviceID
		ticket.OwnerID = device.OwnerID
	case domain.SubjectTypeProfile:
		ownerID := creator.ID
		ticket.OwnerID = &ownerID
	default:
		return nil, apperrors.NewInsufficientAccess("only devices and profiles open tickets")
	}

	for attempt := 1; ; attempt++ {
		number, err := s.ticketNumber()
		if err != nil {
			return nil, err
		}
		ticket.TicketNumber = number
		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateKey) || attempt == maxTicketNumberAttempts {
			return nil, err
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketCreated,
		AggregateID: ticket.ID,
		Actor:       creator,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// Stats returns the collaborator's dashboard counters.
func (s *TicketService) Stats(ctx context.Context, collaboratorID string) (domain.TicketStats, error) {
	collaborator, err := s.readingCollaborator(ctx, collaboratorID)
	if err != nil {
		return domain.TicketStats{}, err
	}
	return s.tickets.Stats(ctx, collaborator.OwnerID, collaborator.ID)
}

// readingCollaborator loads an active collaborator. A deactivated one loses read access too.
func (s *TicketService) readingCollaborator(ctx context.Context, collaboratorID string) (*domain.Collaborator, error) {
	collaborator, err := s.collaborators.GetByID(ctx, collaboratorID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewInsufficientAccess("collaborator not found")
		}
		return nil, err
	}
	if !collaborator.IsActive {
		return nil, apperrors.NewInsufficientAccess("collaborator is inactive")
	}
	return collaborator, nil
}

func (s *TicketService) mutatingCollaborator(ctx context.Context, collaboratorID string) (*domain.Collaborator, error) {
	collaborator, err := s.collaborators.GetByID(ctx, collaboratorID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewInsufficientAccess("collaborator not found")
		}
		return nil, err
	}
	if !collaborator.CanMutateTickets() {
		return nil, apperrors.NewInsufficientAccess("access level does not allow ticket changes")
	}
	return collaborator, nil
}

func (s *TicketService) ticketForCollaborator(ctx context.Context, ticketID string, collaborator *domain.Collaborator) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !sameOwner(ticket.OwnerID, collaborator.OwnerID) {
		return nil, ticketNotFound(ticketID)
	}
	return ticket, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if isNoRows(err) {
			return nil, ticketNotFound(ticketID)
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) withComments(ctx context.Context, tickets []domain.Ticket, reader domain.Actor) ([]TicketView, error) {
	ids := make([]string, 0, len(tickets))
	for i := range tickets {
		ids = append(ids, tickets[i].ID)
	}
	comments, err := s.tickets.ListComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]TicketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, TicketView{
			Ticket:   tickets[i],
			Comments: domain.FilterComments(comments[tickets[i].ID], reader),
		})
	}
	return views, nil
}

// plainText strips markup and surrounding whitespace from user input.
func (s *TicketService) plainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(raw)))
}

func (s *TicketService) ticketNumber() (string, error) {
	suffix, err := randomCode(s.random, ticketSuffixLength)
	if err != nil {
		return "", fmt.Errorf("generate ticket number: %w", err)
	}
	return fmt.Sprintf("T-%s-%s", s.now().UTC().Format("20060102"), suffix), nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func applyScope(filter *repository.TicketFilter, scope domain.TicketScope, assigneeID string) {
	switch scope {
	case domain.TicketScopeAssigned:
		filter.AssignedTo = &assigneeID
	case domain.TicketScopeOpen:
		filter.Statuses = []domain.TicketStatus{domain.TicketStatusOpen}
	}
}

func sameOwner(ticketOwner *string, ownerID string) bool {
	return ticketOwner != nil && *ticketOwner == ownerID
}

func ticketNotFound(ticketID string) error {
	return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
}
