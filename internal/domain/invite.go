package domain

import "time"

// InviteState is the derived display state of an invite code.
type InviteState string

const (
	InviteStateActive  InviteState = "ACTIVE"
	InviteStateUsed    InviteState = "USED"
	InviteStateExpired InviteState = "EXPIRED"
	InviteStateRevoked InviteState = "REVOKED"
)

// SuperAdminInvite is a one-time authorization token gating super-admin registration.
type SuperAdminInvite struct {
	ID               string
	Code             string
	Used             bool
	UsedBy           *string
	UsedAt           *time.Time
	CreatedBy        *string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	RevokedBy        *string
	RevocationReason *string
}

// StateAt derives the display state; first match wins: revoked, used, expired, active.
func (i *SuperAdminInvite) StateAt(now time.Time) InviteState {
	switch {
	case i.RevokedAt != nil:
		return InviteStateRevoked
	case i.Used:
		return InviteStateUsed
	case !now.Before(i.ExpiresAt):
		return InviteStateExpired
	default:
		return InviteStateActive
	}
}

// RedeemableAt reports whether the code may still be used for registration.
func (i *SuperAdminInvite) RedeemableAt(now time.Time) bool {
	return i.StateAt(now) == InviteStateActive
}

// Revocable reports whether revoke is still permitted.
func (i *SuperAdminInvite) Revocable() bool {
	return !i.Used && i.RevokedAt == nil
}
