package dto

import (
	"time"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=10000"`
	Category    string `json:"category" validate:"max=64"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// SetStatusRequest payload.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress pending resolved closed"`
}

// CreateCommentRequest payload. Blank content is rejected by the workflow, not here.
type CreateCommentRequest struct {
	Content    string `json:"content" validate:"max=10000"`
	IsInternal bool   `json:"is_internal"`
}

// TicketResponse describes a ticket and its visible comments.
type TicketResponse struct {
	ID             string            `json:"id"`
	TicketNumber   string            `json:"ticket_number"`
	OwnerID        *string           `json:"owner_id,omitempty"`
	DeviceID       *string           `json:"device_id,omitempty"`
	CollaboratorID *string           `json:"collaborator_id,omitempty"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	Priority       string            `json:"priority"`
	Status         string            `json:"status"`
	AssignedTo     *string           `json:"assigned_to"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
	ClosedAt       *time.Time        `json:"closed_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Comments       []CommentResponse `json:"comments,omitempty"`
}

// CommentResponse describes one visible comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorKind string    `json:"author_kind"`
	AuthorID   string    `json:"author_id,omitempty"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketStatsResponse holds dashboard counters.
type TicketStatsResponse struct {
	Total    int `json:"total"`
	Assigned int `json:"assigned"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
}
