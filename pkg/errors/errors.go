package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusInternalServerError, "cache miss")
)

// Booking and availability errors. Store-level errors bubble unmodified
// through the booking coordinator to the HTTP layer.
var (
	ErrDayNotConfigured  = New("DAY_NOT_CONFIGURED", http.StatusConflict, "doctor has no availability set for this day")
	ErrDayUnavailable    = New("DAY_UNAVAILABLE", http.StatusConflict, "doctor is not available on this day")
	ErrSlotNotFound      = New("SLOT_NOT_FOUND", http.StatusNotFound, "requested time slot not found")
	ErrSlotAlreadyBooked = New("SLOT_ALREADY_BOOKED", http.StatusConflict, "this time slot is already booked")
	ErrDoctorOffline     = New("DOCTOR_OFFLINE", http.StatusConflict, "doctor is currently offline and not accepting appointments")
	ErrTooManyConflicts  = New("TOO_MANY_CONFLICTS", http.StatusConflict, "availability update conflicted repeatedly, please retry")
	ErrLockContention    = New("LOCK_CONTENTION", http.StatusConflict, "slot is currently being booked, please retry")
	ErrInconsistentState = New("INCONSISTENT_STATE", http.StatusInternalServerError, "slot claimed but appointment record could not be written; manual reconciliation required")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
