package upstream

import (
	"fmt"
	"time"
)

// ConfigError reports a missing or invalid piece of provider configuration.
// It is detected before any upstream call is made.
type ConfigError struct {
	// Provider is the name of the misconfigured provider.
	Provider string

	// Field is the configuration field that is missing or invalid.
	Field string

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// AuthError reports that every attempted credential transport was rejected
// with an auth-shaped status (400, 401, or 403). It carries the last
// attempt's status and body plus the redacted trace of every style tried.
type AuthError struct {
	// Provider is the name of the provider that rejected every style.
	Provider string

	// Status is the HTTP status of the final attempt.
	Status int

	// Body is the final attempt's response body.
	Body []byte

	// Attempts is the redacted trace, one entry per style tried.
	Attempts []Attempt
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q rejected all %d credential transports (last status %d)",
		e.Provider, len(e.Attempts), e.Status)
}

// TransientError reports a 429 or 5xx that persisted through the bounded
// retry loop. The last upstream status and body are surfaced to the caller.
type TransientError struct {
	// Provider is the name of the provider.
	Provider string

	// Status is the HTTP status of the final retry.
	Status int

	// Body is the final retry's response body.
	Body []byte

	// Attempts is the redacted trace including every retry.
	Attempts []Attempt
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("provider %q still failing after retries (status %d)", e.Provider, e.Status)
}

// TerminalError reports a non-auth 4xx that is passed through unchanged and
// never retried.
type TerminalError struct {
	// Provider is the name of the provider.
	Provider string

	// Status is the upstream HTTP status.
	Status int

	// Body is the upstream response body.
	Body []byte

	// ContentType is the upstream Content-Type header.
	ContentType string
}

// Error implements the error interface.
func (e *TerminalError) Error() string {
	return fmt.Sprintf("provider %q returned terminal status %d", e.Provider, e.Status)
}

// TransportError reports a network-level failure (connection refused, DNS,
// timeout) with no upstream status to relay.
type TransportError struct {
	// Provider is the name of the provider.
	Provider string

	// Cause is the underlying transport error.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %q transport failure: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NotFoundError reports a geocoding query that matched no places.
type NotFoundError struct {
	// Query is the place string that produced no results.
	Query string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no results for place %q", e.Query)
}

// ParseError reports an upstream response body that could not be decoded.
type ParseError struct {
	// Provider is the name of the provider.
	Provider string

	// Cause is the underlying decode error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Attempt is one redacted entry in an upstream call trace: which credential
// transport was used, what came back, and how long it took. Bodies and
// credentials are never recorded here.
type Attempt struct {
	// Style is the redacted auth-style tag (e.g. "header:bearer").
	Style string `json:"style"`

	// Status is the HTTP status received, or 0 on transport failure.
	Status int `json:"status"`

	// Retries is how many transient retries this style consumed beyond the
	// first try.
	Retries int `json:"retries"`

	// Duration is the total wall time spent on this style.
	Duration time.Duration `json:"duration"`

	// Err holds a transport error message when Status is 0.
	Err string `json:"err,omitempty"`
}
