package domain

import "time"

// AuthCode is a device registration token owned by a Profile.
type AuthCode struct {
	ID        string
	OwnerID   string
	Code      string
	IsActive  bool
	CreatedAt time.Time
}

// Device is an end-user machine registered through an AuthCode.
type Device struct {
	ID         string
	AuthCodeID *string
	// OwnerID is resolved through the auth code.
	OwnerID    *string
	DeviceName string
	UserEmail  string
	UserName   *string
	OSName     *string
	OSVersion  *string
	AppVersion *string
	IPAddress  *string
	IsActive   bool
	LastSeen   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
