package domain

import "time"

// SubjectType differentiates the kinds of authenticated callers.
type SubjectType string

const (
	SubjectTypeProfile      SubjectType = "PROFILE"
	SubjectTypeCollaborator SubjectType = "COLLABORATOR"
	SubjectTypeDevice       SubjectType = "DEVICE"
)

// Token represents issued authentication tokens metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Actor is the explicit caller identity threaded into every core operation.
type Actor struct {
	Kind SubjectType
	ID   string
}

// ProfileActor builds an actor for a super-admin profile.
func ProfileActor(id string) Actor { return Actor{Kind: SubjectTypeProfile, ID: id} }

// CollaboratorActor builds an actor for a collaborator.
func CollaboratorActor(id string) Actor { return Actor{Kind: SubjectTypeCollaborator, ID: id} }

// DeviceActor builds an actor for a registered device.
func DeviceActor(id string) Actor { return Actor{Kind: SubjectTypeDevice, ID: id} }

// IsStaff reports whether the actor may read internal comments.
func (a Actor) IsStaff() bool {
	return a.Kind == SubjectTypeProfile || a.Kind == SubjectTypeCollaborator
}
