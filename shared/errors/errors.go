package errors

import (
	"errors"
	"fmt"
)

// Messages shown to users when nothing more specific is known.
const (
	MsgUnavailable   = "Something went wrong. Please try again later."
	MsgRequestFailed = "Request failed. Please try again."
)

// ErrBackendUnavailable marks transport failures: the remote API never answered.
var ErrBackendUnavailable = errors.New("backend unavailable")

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// ValidationError is a local input failure caught before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StatusCode returns the HTTP status attached to err, or 0.
func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// UserMessage maps err to the text a user should see: validation and server
// messages verbatim, transport failures and anything unknown generically.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	var s *ErrorWithStatusCode
	if errors.As(err, &s) && s.Message != "" {
		return s.Message
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return MsgUnavailable
	}
	return MsgRequestFailed
}
