package relay

import "fmt"

// RequestError reports a client payload problem detected before any
// upstream call: unreadable body, invalid JSON, oversized request, or a
// missing parameter.
type RequestError struct {
	// Message describes the problem in client-facing terms.
	Message string

	// Param names the offending field or parameter, when there is one.
	Param string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("invalid request (%s): %s", e.Param, e.Message)
	}
	return "invalid request: " + e.Message
}
