package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"astro-natal/relay/pkg/upstream"
)

// Record is the audit trail entry for a single relayed request.
type Record struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // From the request id middleware

	// Timestamps
	ReceivedAt  time.Time `json:"received_at"`
	CompletedAt time.Time `json:"completed_at"`

	// Request
	Operation string `json:"operation"` // geocode, planets, wheel, houses, aspects, natal
	ClientIP  string `json:"client_ip"`

	// Outcome
	Status         int                `json:"status"`          // status returned to the client
	UpstreamStatus int                `json:"upstream_status"` // last upstream status, 0 if none
	AuthStyle      string             `json:"auth_style"`      // accepted style tag, redacted form
	Attempts       []upstream.Attempt `json:"attempts"`        // redacted attempt trace
	Retries        int                `json:"retries"`         // transient retries across all attempts

	// Latency is the end-to-end handler time.
	Latency time.Duration `json:"latency"`

	// Error info, empty on success.
	Error     string `json:"error"`
	ErrorType string `json:"error_type"` // taxonomy tag: config, auth, transient, terminal, transport, not_found, parse, input
}

// NewRecord creates a record with a fresh UUID and the received timestamp set.
func NewRecord(requestID, operation, clientIP string) *Record {
	return &Record{
		ID:         uuid.New().String(),
		RequestID:  requestID,
		Operation:  operation,
		ClientIP:   clientIP,
		ReceivedAt: time.Now().UTC(),
	}
}

// Finish stamps the completion time and computes the latency.
func (r *Record) Finish() {
	r.CompletedAt = time.Now().UTC()
	r.Latency = r.CompletedAt.Sub(r.ReceivedAt)
}

// SetOutcome fills the upstream fields from a client result. The trace is
// stored as-is; upstream.Attempt carries only redacted style tags.
func (r *Record) SetOutcome(status int, result *upstream.Result) {
	r.Status = status
	if result == nil {
		return
	}
	r.UpstreamStatus = result.Status
	r.Attempts = result.Attempts
	if n := len(result.Attempts); n > 0 {
		r.AuthStyle = result.Attempts[n-1].Style
	}
	for _, a := range result.Attempts {
		r.Retries += a.Retries
	}
}

// SetError records the failure taxonomy tag and message. The message comes
// from the error's Error() text, which is already credential-free.
func (r *Record) SetError(errType string, err error) {
	if err == nil {
		return
	}
	r.ErrorType = errType
	r.Error = err.Error()
}

// StorageError wraps a failure in the audit storage backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
