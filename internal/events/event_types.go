package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventInviteConsumed      EventType = "invite_consumed"
	EventInviteRevoked       EventType = "invite_revoked"
	EventProfileDeactivated  EventType = "profile_deactivated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string       `json:"id"`
	Type        EventType    `json:"type"`
	AggregateID string       `json:"aggregate_id"`
	Actor       domain.Actor `json:"actor"`
	Timestamp   time.Time    `json:"timestamp"`
	Payload     interface{}  `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	CollaboratorID string `json:"collaborator_id"`
	Username       string `json:"username"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string            `json:"comment_id"`
	AuthorKind  domain.AuthorKind `json:"author_kind"`
	IsInternal  bool              `json:"is_internal"`
	BodyPreview string            `json:"body_preview"`
}

// InviteConsumedPayload payload.
type InviteConsumedPayload struct {
	ProfileID string `json:"profile_id"`
}

// ProfileDeactivatedPayload payload.
type ProfileDeactivatedPayload struct {
	Affected domain.CascadeResult `json:"affected"`
}
