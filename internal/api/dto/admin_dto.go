package dto

import "time"

// InviteResponse describes an invite with its display state.
type InviteResponse struct {
	ID               string     `json:"id"`
	Code             string     `json:"code"`
	State            string     `json:"state"`
	Used             bool       `json:"used"`
	UsedBy           *string    `json:"used_by,omitempty"`
	UsedByUsername   *string    `json:"used_by_username,omitempty"`
	UsedByEmail      *string    `json:"used_by_email,omitempty"`
	UsedAt           *time.Time `json:"used_at,omitempty"`
	CreatedBy        *string    `json:"created_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevokedBy        *string    `json:"revoked_by,omitempty"`
	RevocationReason *string    `json:"revocation_reason,omitempty"`
}

// InviteSummaryResponse counts invites per state.
type InviteSummaryResponse struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Used    int `json:"used"`
	Revoked int `json:"revoked"`
	Expired int `json:"expired"`
}

// RevokeInviteRequest payload. Reason defaults server side.
type RevokeInviteRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// DeactivateProfileRequest payload.
type DeactivateProfileRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// DeactivationResponse reports rows touched per cascade step.
type DeactivationResponse struct {
	ProfileID string           `json:"profile_id"`
	Affected  map[string]int64 `json:"affected"`
}

// CreateCollaboratorRequest payload.
type CreateCollaboratorRequest struct {
	Username    string `json:"username" validate:"required,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	AccessLevel string `json:"access_level" validate:"omitempty,oneof=viewer editor admin"`
}

// AuthCodeResponse describes a device registration code.
type AuthCodeResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
