// Package apierr holds the error taxonomy shared by the transport, the
// authenticated request engine and the backend router. Callers use Classify
// to decide between retrying later, showing a rejection, or asking the user
// for a different value.
package apierr

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout means no response arrived before the deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrRequestTimeout is the authenticated engine's deadline expiry. It
	// matches ErrTimeout under errors.Is.
	ErrRequestTimeout = fmt.Errorf("authenticated request deadline exceeded: %w", ErrTimeout)
)

// NetworkError reports that the server could not be reached at all.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response. It keeps the request body and the raw
// response text so production reports carry everything needed to reproduce.
type HTTPError struct {
	Method      string
	URL         string
	RequestBody string
	Status      int
	Body        string
	// Message and Code are lifted from an envelope-shaped body when present.
	Message string
	Code    string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	if e.RequestBody != "" {
		msg += fmt.Sprintf(" (request body: %s)", e.RequestBody)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ParseError reports a response body that is not valid JSON.
type ParseError struct {
	URL  string
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EnvelopeError reports a well-formed response whose isSuccess flag is false
// or missing.
type EnvelopeError struct {
	Message string
	Code    string
}

func (e *EnvelopeError) Error() string {
	if e.Message == "" {
		return "request was not successful"
	}
	return e.Message
}

// ConflictError reports a value the backend refused because it is already
// taken (a duplicate phone during signup). Err is the backend failure that
// was recognised as a conflict.
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already in use: %v", e.Field, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Kind groups errors by what the caller should do next.
type Kind int

const (
	KindUnknown Kind = iota
	// KindRetryLater covers timeouts and unreachable servers.
	KindRetryLater
	// KindRejected covers inputs the server refused or could not answer sensibly.
	KindRejected
	// KindConflict asks the user to pick a different value.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindRetryLater:
		return "retry_later"
	case KindRejected:
		return "rejected"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Classify maps err onto a Kind. Conflicts are checked first because a
// ConflictError wraps the rejection it was derived from.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var (
		conflict *ConflictError
		network  *NetworkError
		httpErr  *HTTPError
		envErr   *EnvelopeError
		parseErr *ParseError
	)
	switch {
	case errors.As(err, &conflict):
		return KindConflict
	case errors.Is(err, ErrTimeout), errors.As(err, &network):
		return KindRetryLater
	case errors.As(err, &httpErr), errors.As(err, &envErr), errors.As(err, &parseErr):
		return KindRejected
	default:
		return KindUnknown
	}
}

// Message returns the backend supplied message carried by err, if any.
func Message(err error) string {
	var envErr *EnvelopeError
	if errors.As(err, &envErr) {
		return envErr.Message
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return ""
}

// Code returns the backend supplied error code carried by err, if any.
func Code(err error) string {
	var envErr *EnvelopeError
	if errors.As(err, &envErr) {
		return envErr.Code
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return ""
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
