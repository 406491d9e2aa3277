package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// MaxRequestBodySize is the maximum allowed request body size (1MB). The
// canonical query is a handful of scalars; anything near this limit is not
// a legitimate form submission.
const MaxRequestBodySize = 1 << 20

// ParseJSONBody decodes the request body into a generic JSON object. The
// body is size-limited, an empty body decodes to an empty object, and
// anything that is not a JSON object fails with a *RequestError.
func ParseJSONBody(r *http.Request) (map[string]any, error) {
	limitedReader := io.LimitReader(r.Body, MaxRequestBodySize)

	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, &RequestError{Message: "failed to read request body", Param: "body"}
	}
	if len(body) >= MaxRequestBodySize {
		return nil, &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", MaxRequestBodySize),
			Param:   "body",
		}
	}
	if len(body) == 0 {
		return map[string]any{}, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &RequestError{Message: "invalid JSON body", Param: "body"}
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}
