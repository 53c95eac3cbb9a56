package domain

import "time"

// AccessLevel enumerates collaborator permissions on tickets.
type AccessLevel string

const (
	AccessLevelViewer AccessLevel = "viewer"
	AccessLevelEditor AccessLevel = "editor"
	AccessLevelAdmin  AccessLevel = "admin"
)

// IsValid reports whether the level is one of the known values.
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessLevelViewer, AccessLevelEditor, AccessLevelAdmin:
		return true
	}
	return false
}

// Collaborator models a support agent owned by a Profile.
type Collaborator struct {
	ID           string
	OwnerID      string
	Username     string
	Email        string
	PasswordHash string
	AccessLevel  AccessLevel
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanMutateTickets is false for viewers and inactive collaborators.
func (c *Collaborator) CanMutateTickets() bool {
	return c != nil && c.IsActive && c.AccessLevel != AccessLevelViewer
}
