package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes exposed to API clients.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInvalidState    = "INVALID_STATE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
)

// statusByCode is the error taxonomy. Conflicts are answered with 400 to
// keep the existing client contract.
var statusByCode = map[string]int{
	CodeUnauthenticated: http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusBadRequest,
	CodeInvalidInput:    http.StatusBadRequest,
	CodeInvalidState:    http.StatusBadRequest,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeInternal:        http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for code, 500 when unknown.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainError is the error type every layer above the repositories returns.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
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

// Is matches any DomainError with the same code, so errors.Is(err,
// &DomainError{Code: CodeNotFound}) works across messages.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError constructs a DomainError with an explicit status.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func newCoded(code, message string, details map[string]any) error {
	return NewDomainError(code, message, StatusFor(code), details)
}

func NewValidationError(message string, details map[string]any) error {
	return newCoded(CodeInvalidInput, message, details)
}

// NewNotFound reports a missing resource as "<resource> not found".
func NewNotFound(resource string, details map[string]any) error {
	return newCoded(CodeNotFound, fmt.Sprintf("%s not found", resource), details)
}

func NewUnauthorized(message string) error {
	return newCoded(CodeUnauthenticated, message, nil)
}

func NewForbidden(message string) error {
	return newCoded(CodeForbidden, message, nil)
}

// NewConflict reports a uniqueness violation.
func NewConflict(message string, details map[string]any) error {
	return newCoded(CodeConflict, message, details)
}

// NewInvalidState reports a rejected ticket status value or transition.
func NewInvalidState(message string, details map[string]any) error {
	return newCoded(CodeInvalidState, message, details)
}

func NewRateLimited(message string, retryAfterSeconds int) error {
	return newCoded(CodeRateLimited, message, map[string]any{
		"retry_after_seconds": retryAfterSeconds,
	})
}

// NewInternalError hides err from clients and keeps it for logs.
func NewInternalError(err error) error {
	domainErr := NewDomainError(CodeInternal, "internal server error", http.StatusInternalServerError, nil)
	domainErr.Err = err
	return domainErr
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
	return NewInternalError(err).(*DomainError)
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	return errors.Is(err, &DomainError{Code: code})
}
