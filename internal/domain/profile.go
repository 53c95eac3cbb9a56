package domain

import "time"

// Profile is a super-admin account.
type Profile struct {
	ID           string
	Username     string
	Email        string
	Phone        *string
	PasswordHash string
	IsActive     bool
	IsSuperAdmin bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanAdminister reports whether the profile may run privileged operations.
func (p *Profile) CanAdminister() bool {
	return p != nil && p.IsActive && p.IsSuperAdmin
}
