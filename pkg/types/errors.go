package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeServiceUnavailable ErrorType = "service_unavailable"
	ErrorTypePastDateTime       ErrorType = "past_datetime"
	ErrorTypeSlotConflict       ErrorType = "slot_conflict"
	ErrorTypeConflict           ErrorType = "conflict"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeAccessDenied       ErrorType = "access_denied"
	ErrorTypeAuthentication     ErrorType = "authentication"
	ErrorTypeRateLimit          ErrorType = "rate_limit"
	ErrorTypeExternalSync       ErrorType = "external_sync"
	ErrorTypeInternal           ErrorType = "internal"
)

// LabError represents a structured error raised by the laboratory services
type LabError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *LabError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *LabError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a LabError of the same type and code.
// A target with an empty code matches any code of that type.
func (e *LabError) Is(target error) bool {
	t, ok := target.(*LabError)
	if !ok {
		return false
	}
	return e.Type == t.Type && (t.Code == "" || e.Code == t.Code)
}

// Sentinels usable with errors.Is.
var (
	ErrServiceUnavailable = &LabError{Type: ErrorTypeServiceUnavailable}
	ErrPastDateTime       = &LabError{Type: ErrorTypePastDateTime}
	ErrSlotConflict       = &LabError{Type: ErrorTypeSlotConflict}
	ErrNotFound           = &LabError{Type: ErrorTypeNotFound}
	ErrAccessDenied       = &LabError{Type: ErrorTypeAccessDenied}
	ErrValidation         = &LabError{Type: ErrorTypeValidation}
	ErrConflict           = &LabError{Type: ErrorTypeConflict}
	ErrReferenceTaken     = &LabError{Type: ErrorTypeConflict, Code: ErrCodeReferenceTaken}
)

// ErrorTypeOf returns the LabError type carried by err, or internal when err
// is not a LabError.
func ErrorTypeOf(err error) ErrorType {
	var le *LabError
	if errors.As(err, &le) {
		return le.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err carries a LabError of type t.
func IsType(err error, t ErrorType) bool {
	return err != nil && ErrorTypeOf(err) == t
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *LabError {
	return &LabError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewServiceUnavailableError reports services that cannot currently be booked
func NewServiceUnavailableError(serviceNames []string) *LabError {
	return &LabError{
		Type:    ErrorTypeServiceUnavailable,
		Code:    ErrCodeServiceUnavailable,
		Message: "one or more selected services are currently unavailable",
		Details: map[string]interface{}{"services": serviceNames},
	}
}

// NewPastDateTimeError creates a new past date/time error
func NewPastDateTimeError() *LabError {
	return &LabError{
		Type:    ErrorTypePastDateTime,
		Code:    ErrCodePastDateTime,
		Message: "appointment date and time must be in the future",
	}
}

// NewSlotConflictError creates a new slot conflict error
func NewSlotConflictError(cause error) *LabError {
	return &LabError{
		Type:    ErrorTypeSlotConflict,
		Code:    ErrCodeSlotConflict,
		Message: "you already have an appointment at this date and time",
		Cause:   cause,
	}
}

// NewReferenceTakenError reports a reference or receipt number that is already in use
func NewReferenceTakenError(cause error) *LabError {
	return &LabError{
		Type:    ErrorTypeConflict,
		Code:    ErrCodeReferenceTaken,
		Message: "reference number already in use",
		Cause:   cause,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string, details map[string]interface{}) *LabError {
	return &LabError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewAccessDeniedError creates a new access denied error
func NewAccessDeniedError(message string) *LabError {
	return &LabError{
		Type:    ErrorTypeAccessDenied,
		Code:    ErrCodeForbidden,
		Message: message,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(code, message string) *LabError {
	return &LabError{
		Type:    ErrorTypeAuthentication,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *LabError {
	return &LabError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewExternalSyncError wraps a failed document-store write
func NewExternalSyncError(collection, docID string, cause error) *LabError {
	return &LabError{
		Type:    ErrorTypeExternalSync,
		Code:    ErrCodeExternalSyncFailed,
		Message: "document store write failed",
		Details: map[string]interface{}{"collection": collection, "doc_id": docID},
		Cause:   cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *LabError {
	return &LabError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes
const (
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeConflict              = "CONFLICT"
	ErrCodeInternalError         = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	ErrCodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodePastDateTime          = "PAST_DATETIME"
	ErrCodeSlotConflict          = "SLOT_CONFLICT"
	ErrCodeOutsideOperatingHours = "OUTSIDE_OPERATING_HOURS"
	ErrCodeBeyondHorizon         = "BEYOND_BOOKING_HORIZON"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeResultExists          = "RESULT_EXISTS"
	ErrCodeReferenceTaken        = "REFERENCE_TAKEN"
	ErrCodeExternalSyncFailed    = "EXTERNAL_SYNC_FAILED"
)
