package provider

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of error that occurred during a provider call
type ErrorKind string

const (
	// KindInvalidTicker indicates the requested symbol failed validation
	KindInvalidTicker ErrorKind = "invalid_ticker"
	// KindRateLimit indicates the request was rejected by the local limiter,
	// a per-operation cooldown, or a provider rate-limit response
	KindRateLimit ErrorKind = "rate_limit"
	// KindUpstream indicates the provider returned a non-success status or an
	// error payload embedded in a success response
	KindUpstream ErrorKind = "upstream"
	// KindNetwork indicates a transport-level failure (connection refused, DNS,
	// CORS-class rejection, timeout)
	KindNetwork ErrorKind = "network"
	// KindAuthRequired indicates a missing or expired bearer credential
	KindAuthRequired ErrorKind = "auth_required"
	// KindNoData indicates the provider responded successfully but returned
	// nothing usable for the symbol
	KindNoData ErrorKind = "no_data"
)

// Error is the tagged outcome of a failed provider call. Adapters never let a
// raw transport or decode error cross into the aggregator; everything is
// resolved into this shape so partial failures stay partial.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Timeout    bool
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf extracts the ErrorKind from err, or empty string when err is not a
// provider error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// NewInvalidTickerError creates an invalid-ticker error
func NewInvalidTickerError(raw string) *Error {
	return &Error{
		Kind:    KindInvalidTicker,
		Message: fmt.Sprintf("invalid ticker %q", raw),
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(message string) *Error {
	return &Error{
		Kind:    KindRateLimit,
		Message: message,
	}
}

// NewUpstreamError creates an upstream error carrying the provider's status
// and message
func NewUpstreamError(statusCode int, message string) *Error {
	return &Error{
		Kind:       KindUpstream,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewNetworkError creates a transport-level error
func NewNetworkError(cause error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: "network request failed",
		Cause:   cause,
	}
}

// NewTimeoutError creates a network error flagged as a deadline expiry
func NewTimeoutError(cause error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Timeout: true,
		Message: "request deadline exceeded",
		Cause:   cause,
	}
}

// NewAuthRequiredError creates an auth-required error. The caller is expected
// to surface it so the embedding layer can initiate re-authorization; the core
// never does that itself.
func NewAuthRequiredError(message string) *Error {
	return &Error{
		Kind:    KindAuthRequired,
		Message: message,
	}
}

// NewNoDataError creates a no-data error
func NewNoDataError(message string) *Error {
	return &Error{
		Kind:    KindNoData,
		Message: message,
	}
}

// ClassifyHTTPStatus maps a non-success HTTP status into the error taxonomy
func ClassifyHTTPStatus(statusCode int, message string) *Error {
	switch {
	case statusCode == 429:
		return &Error{Kind: KindRateLimit, StatusCode: statusCode, Message: "provider rate limit exceeded"}
	case statusCode == 401 || statusCode == 403:
		return &Error{Kind: KindAuthRequired, StatusCode: statusCode, Message: message}
	default:
		return NewUpstreamError(statusCode, message)
	}
}
