package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// IsValid reports whether the status is known.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPending, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// IsValid reports whether the priority is known.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID             string
	TicketNumber   string
	OwnerID        *string
	DeviceID       *string
	CollaboratorID *string
	Title          string
	Description    string
	Category       string
	Priority       TicketPriority
	Status         TicketStatus
	AssignedTo     *string
	ResolvedAt     *time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TicketScope selects a listing view.
type TicketScope string

const (
	TicketScopeAll      TicketScope = "all"
	TicketScopeAssigned TicketScope = "assigned"
	TicketScopeOpen     TicketScope = "open"
)

// IsValid reports whether the scope is known.
func (s TicketScope) IsValid() bool {
	return s == TicketScopeAll || s == TicketScopeAssigned || s == TicketScopeOpen
}

// TicketStats summarises a collaborator's dashboard counters.
type TicketStats struct {
	Total    int
	Assigned int
	Open     int
	Resolved int
}
