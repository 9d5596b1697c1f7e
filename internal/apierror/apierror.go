// Package apierror defines the typed errors the registration flow returns.
// Each carries the HTTP status and client-facing message the boundary
// writes back.
package apierror

import (
	"errors"
	"net/http"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindUpload     Kind = "upload"
	KindInternal   Kind = "internal"
)

// Error is a client-facing failure with a status code.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	// Err is the underlying cause, if any. It is never shown to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation is a 400 for missing or malformed client input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

// Conflict is a 400 for a username or email that is already registered.
func Conflict(message string, cause error) *Error {
	return &Error{Kind: KindConflict, Status: http.StatusBadRequest, Message: message, Err: cause}
}

// Upload is a 500 for a required asset upload that produced no URL.
func Upload(message string, cause error) *Error {
	return &Error{Kind: KindUpload, Status: http.StatusInternalServerError, Message: message, Err: cause}
}

// Internal is a 500 for store inconsistencies.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: message, Err: cause}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
