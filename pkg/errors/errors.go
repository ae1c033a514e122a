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

// Is reports whether target carries the same code, so clones and wraps of a
// predefined error still match it through errors.Is.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
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
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Memorization engine errors.
var (
	ErrOutOfRangeVerse        = New("OUT_OF_RANGE_VERSE", http.StatusUnprocessableEntity, "verse is outside the page range")
	ErrRecordAlreadyFinalized = New("RECORD_ALREADY_FINALIZED", http.StatusConflict, "hafalan record no longer accepts verse changes")
	ErrNoRecheckPending       = New("NO_RECHECK_PENDING", http.StatusConflict, "hafalan record is not waiting for recheck")
	ErrInvalidRecheckScope    = New("INVALID_RECHECK_SCOPE", http.StatusUnprocessableEntity, "reported verses are outside the current recheck scope")
	ErrInvalidPercentage      = New("INVALID_PERCENTAGE", http.StatusUnprocessableEntity, "percentage must be between 1 and 99")
	ErrDuplicateOpenRecord    = New("DUPLICATE_OPEN_RECORD", http.StatusInternalServerError, "more than one open hafalan record for student page")
	ErrConcurrentModification = New("CONCURRENT_MODIFICATION", http.StatusConflict, "record was modified concurrently, reload and try again")
	ErrPageNotFound           = New("PAGE_NOT_FOUND", http.StatusNotFound, "page is not in the verse roster")
	ErrPartialInProgress      = New("PARTIAL_IN_PROGRESS", http.StatusConflict, "verse already has partial progress in progress")
	ErrPartialNotInProgress   = New("PARTIAL_NOT_IN_PROGRESS", http.StatusConflict, "partial hafalan is no longer in progress")
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
