package dto

import "time"

// ProfileLoginRequest payload. Login accepts an email or a username.
type ProfileLoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CollaboratorLoginRequest payload.
type CollaboratorLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ValidateInviteRequest payload.
type ValidateInviteRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// ValidateInviteResponse tells the registration form whether to proceed.
type ValidateInviteResponse struct {
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterRequest payload for super-admin sign-up.
type RegisterRequest struct {
	Code     string  `json:"code" validate:"required,max=64"`
	Username string  `json:"username" validate:"required,max=64"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Password string  `json:"password" validate:"required"`
}

// RegisterDeviceRequest payload.
type RegisterDeviceRequest struct {
	AuthCode   string  `json:"auth_code" validate:"required,max=32"`
	DeviceName string  `json:"device_name" validate:"required,max=128"`
	UserEmail  string  `json:"user_email" validate:"required,email"`
	UserName   *string `json:"user_name" validate:"omitempty,max=128"`
	OSName     *string `json:"os_name"`
	OSVersion  *string `json:"os_version"`
	AppVersion *string `json:"app_version"`
}

// SessionResponse carries an issued token.
type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	SubjectID   string    `json:"subject_id"`
	Subject     string    `json:"subject"`
}

// ProfileResponse is the public shape of a profile.
type ProfileResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// CollaboratorResponse is the public shape of a collaborator.
type CollaboratorResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	AccessLevel string    `json:"access_level"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeviceResponse is the public shape of a device.
type DeviceResponse struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"device_name"`
	UserEmail  string    `json:"user_email"`
	UserName   *string   `json:"user_name,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}
