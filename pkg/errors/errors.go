package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed editor error. Code doubles as the localisation key
// the UI uses to pick the message shown to the user; Status makes the error
// directly usable on the HTTP surface.
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

// General errors.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrNoDatabase = New("NO_DATABASE", http.StatusConflict, "no database loaded")
)

// Form validation errors. The codes are the localisation keys of the edit
// forms; the messages are fallbacks for surfaces without a bundle.
var (
	ErrCourseName    = New("nameError", http.StatusBadRequest, "short and long name are required")
	ErrCourseDegree  = New("degreeError", http.StatusBadRequest, "a degree must be selected")
	ErrCourseCredits = New("creditsError", http.StatusBadRequest, "credit points must be a number")
	ErrCoursePo      = New("poError", http.StatusBadRequest, "the examination regulation version must be a number")

	ErrSessionDay      = New("dayError", http.StatusBadRequest, "the day must be a weekday")
	ErrSessionTime     = New("timeError", http.StatusBadRequest, "the time slot must be positive")
	ErrSessionDuration = New("durationError", http.StatusBadRequest, "the duration must be positive")
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

// Is reports whether err carries the given typed error's code.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
