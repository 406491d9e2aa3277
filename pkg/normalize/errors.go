package normalize

import (
	"fmt"
	"strings"
)

// MissingFieldError reports every required query field that was absent from
// the client payload or failed to parse as a finite number. Fields are listed
// in a stable order so clients and tests can rely on the message shape.
type MissingFieldError struct {
	// Fields is the ordered list of missing or invalid canonical field names.
	Fields []string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}
