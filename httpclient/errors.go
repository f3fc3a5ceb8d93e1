package httpclient

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failed call
type ErrorKind string

const (
	KindInvalidURL            ErrorKind = "invalid_url"
	KindInvalidResponse       ErrorKind = "invalid_response"
	KindServerError           ErrorKind = "server_error"
	KindDecodingFailed        ErrorKind = "decoding_failed"
	KindTimeout               ErrorKind = "timeout"
	KindNetworkFailure        ErrorKind = "network_failure"
	KindCancelled             ErrorKind = "cancelled"
	KindPreconditionViolation ErrorKind = "precondition_violation"
)

// ErrNotConfigured is wrapped by PreconditionViolation errors raised when a
// client is used before it has a configuration.
var ErrNotConfigured = errors.New("client is not configured")

// Error is the single error type returned by client calls.
// Which fields are set depends on Kind.
type Error struct {
	Kind ErrorKind
	// URL is the request target when known
	URL string
	// StatusCode and Body are set for KindServerError
	StatusCode int
	Body       []byte
	// Timeout is the effective timeout for KindTimeout
	Timeout time.Duration
	// Err is the underlying cause, if any
	Err error
}

// Description returns the human-readable message for the error kind
func (e *Error) Description() string {
	switch e.Kind {
	case KindInvalidURL:
		return "Invalid URL"
	case KindInvalidResponse:
		return "Invalid response from server"
	case KindServerError:
		return fmt.Sprintf("Server error with status code: %d", e.StatusCode)
	case KindDecodingFailed:
		return fmt.Sprintf("Decoding failed: %v", e.Err)
	case KindTimeout:
		return "Request timed out"
	case KindNetworkFailure:
		return fmt.Sprintf("Network error: %v", e.Err)
	case KindCancelled:
		return "Request was cancelled"
	case KindPreconditionViolation:
		return fmt.Sprintf("Precondition violated: %v", e.Err)
	default:
		return "Unknown error"
	}
}

func (e *Error) Error() string {
	msg := e.Description()
	if e.URL != "" {
		msg = fmt.Sprintf("%s (url: %s)", msg, e.URL)
	}
	if e.Kind == KindTimeout && e.Timeout > 0 {
		msg = fmt.Sprintf("%s (timeout: %v)", msg, e.Timeout)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, url string, err error) *Error {
	return &Error{Kind: kind, URL: url, Err: err}
}

func newServerError(url string, status int, body []byte) *Error {
	return &Error{Kind: KindServerError, URL: url, StatusCode: status, Body: body}
}

func newTimeoutError(url string, timeout time.Duration, err error) *Error {
	return &Error{Kind: KindTimeout, URL: url, Timeout: timeout, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// IsServerStatus reports whether err is a server error with the given status code
func IsServerStatus(err error, statusCode int) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindServerError && e.StatusCode == statusCode
	}
	return false
}

// IsSuccessStatus reports whether statusCode is 2xx
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
