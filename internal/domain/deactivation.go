package domain

// CascadeStep is one sub-mutation of a profile deactivation.
type CascadeStep string

const (
	CascadeStepProfile       CascadeStep = "profile"
	CascadeStepAuthCodes     CascadeStep = "auth_codes"
	CascadeStepCollaborators CascadeStep = "collaborators"
	CascadeStepDevices       CascadeStep = "devices"
)

// DeactivationCascade is the required order of sub-mutations.
var DeactivationCascade = []CascadeStep{
	CascadeStepProfile,
	CascadeStepAuthCodes,
	CascadeStepCollaborators,
	CascadeStepDevices,
}

// CascadeResult records rows touched per step.
type CascadeResult map[CascadeStep]int64
