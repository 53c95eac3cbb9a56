package domain

import "time"

// Audit actions and resource types.
const (
	AuditActionDeactivateProfile = "deactivate_profile"
	AuditActionRevokeInvite      = "revoke_invite"
	AuditActionIssueInvite       = "issue_invite"
	AuditResourceProfiles        = "profiles"
	AuditResourceInvites         = "super_admin_invites"
)

// SystemLog is an append-only audit record.
type SystemLog struct {
	ID           string
	ActorID      *string
	ActorType    *string
	Action       string
	ResourceType *string
	ResourceID   *string
	Details      map[string]any
	IPAddress    *string
	UserAgent    *string
	CreatedAt    time.Time
}
