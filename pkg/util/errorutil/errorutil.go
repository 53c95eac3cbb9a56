package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes shared by the service layer and the HTTP error middleware.
const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInvalidCode         = "INVALID_CODE"
	CodeAlreadyTerminal     = "ALREADY_TERMINAL"
	CodePartialRegistration = "PARTIAL_REGISTRATION"
	CodeAlreadyAssigned     = "ALREADY_ASSIGNED"
	CodeInsufficientAccess  = "INSUFFICIENT_ACCESS"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeEmptyContent        = "EMPTY_CONTENT"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	// Retryable marks expected contention outcomes the caller may retry after re-fetching state.
	Retryable bool
	Err       error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "not found", http.StatusNotFound, nil)
	ErrInvalidCode         = NewDomainError(CodeInvalidCode, "invalid, expired or already used invite code", http.StatusBadRequest, nil)
	ErrAlreadyTerminal     = NewDomainError(CodeAlreadyTerminal, "invite code is no longer active", http.StatusConflict, nil)
	ErrPartialRegistration = NewDomainError(CodePartialRegistration, "registration could not be completed", http.StatusConflict, nil)
	ErrAlreadyAssigned     = NewDomainError(CodeAlreadyAssigned, "ticket already assigned", http.StatusConflict, nil)
	ErrInsufficientAccess  = NewDomainError(CodeInsufficientAccess, "insufficient access level", http.StatusForbidden, nil)
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "invalid status transition", http.StatusUnprocessableEntity, nil)
	ErrEmptyContent        = NewDomainError(CodeEmptyContent, "comment content is empty", http.StatusBadRequest, nil)
	ErrRateLimited         = NewDomainError(CodeRateLimited, "too many attempts", http.StatusTooManyRequests, nil)
)

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidCode never says why the code is unusable.
func NewInvalidCode() error {
	return NewDomainError(CodeInvalidCode, ErrInvalidCode.Message, http.StatusBadRequest, nil)
}

func NewAlreadyTerminal(details map[string]any) error {
	return NewDomainError(CodeAlreadyTerminal, ErrAlreadyTerminal.Message, http.StatusConflict, details)
}

// NewPartialRegistration reports that the account was created but the invite
// could not be consumed. It unwraps to cause so errors.Is(err, ErrInvalidCode)
// holds when the consume lost a race.
func NewPartialRegistration(profileID string, cause error) error {
	return &DomainError{
		Code:       CodePartialRegistration,
		Message:    ErrPartialRegistration.Message,
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"profile_id": profileID},
		Retryable:  true,
		Err:        cause,
	}
}

func NewAlreadyAssigned(details map[string]any) error {
	return &DomainError{
		Code:       CodeAlreadyAssigned,
		Message:    ErrAlreadyAssigned.Message,
		HTTPStatus: http.StatusConflict,
		Details:    details,
		Retryable:  true,
	}
}

func NewInsufficientAccess(message string) error {
	return NewDomainError(CodeInsufficientAccess, message, http.StatusForbidden, nil)
}

func NewInvalidTransition(details map[string]any) error {
	return NewDomainError(CodeInvalidTransition, ErrInvalidTransition.Message, http.StatusUnprocessableEntity, details)
}

func NewEmptyContent() error {
	return NewDomainError(CodeEmptyContent, ErrEmptyContent.Message, http.StatusBadRequest, nil)
}

func NewRateLimited() error {
	return &DomainError{
		Code:       CodeRateLimited,
		Message:    ErrRateLimited.Message,
		HTTPStatus: http.StatusTooManyRequests,
		Retryable:  true,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsRetryable reports whether err is an expected contention outcome.
func IsRetryable(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Retryable
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}
