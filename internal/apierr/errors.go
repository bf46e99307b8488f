// Package apierr classifies failures of the client into user-displayable messages.
package apierr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNetwork
	KindTimeout
	KindHTTP
	KindParse
)

// String returns the kind name used in logs
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// DefaultMessage is shown when an error carries nothing displayable
const DefaultMessage = "An unexpected error occurred"

// Error is the single tagged error type produced by the client
type Error struct {
	Kind       Kind
	StatusCode int // zero when no response was received
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return DefaultMessage
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a local, pre-dispatch error
func Validation(err error, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

// Network creates a transport failure error
func Network(err error, message string) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// Timeout creates a deadline exceeded error
func Timeout(err error, message string) *Error {
	return &Error{Kind: KindTimeout, Message: message, Err: err}
}

// HTTP creates an error for a non-success response
func HTTP(statusCode int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("HTTP error: status %d", statusCode)
	}
	return &Error{Kind: KindHTTP, StatusCode: statusCode, Message: message}
}

// Parse creates an error for a malformed response body
func Parse(statusCode int, err error) *Error {
	return &Error{Kind: KindParse, StatusCode: statusCode, Message: "Invalid JSON response", Err: err}
}

// KindOf returns the kind of err, or KindUnknown if it is not an *Error
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// StatusCode returns the HTTP status carried by err, or zero
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsTimeout reports whether err is a timeout
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsNetwork reports whether err failed before any response arrived
func IsNetwork(err error) bool {
	return KindOf(err) == KindNetwork
}

// IsValidation reports whether err was raised before dispatch
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// Message extracts a user-displayable message from any error value
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultMessage
}
