package relay

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"astro-natal/relay/pkg/normalize"
	"astro-natal/relay/pkg/upstream"
)

// BodyEncodingHeader flags a base64-transported binary body so the caller
// decodes before handing bytes to the browser.
const BodyEncodingHeader = "Content-Transfer-Encoding"

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes the relay's structured error shape: {"error", "detail"}.
func WriteError(w http.ResponseWriter, statusCode int, errTag, detail string) {
	WriteJSON(w, statusCode, map[string]string{
		"error":  errTag,
		"detail": detail,
	})
}

// WriteUpstream relays a successful upstream result. JSON and other
// textual bodies pass through byte for byte with the upstream status and
// Content-Type. Binary bodies (chart images) are base64-encoded with the
// upstream Content-Type preserved and the encoding flagged via
// Content-Transfer-Encoding so the receiving side can restore the exact
// bytes.
func WriteUpstream(w http.ResponseWriter, result *upstream.Result) {
	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if isTextual(contentType) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(result.Status)
		_, _ = w.Write(result.Body)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set(BodyEncodingHeader, "base64")
	w.WriteHeader(result.Status)

	encoder := base64.NewEncoder(base64.StdEncoding, w)
	_, _ = encoder.Write(result.Body)
	_ = encoder.Close()
}

// isTextual reports whether a Content-Type carries a body safe to relay
// as-is. Everything else rides base64, including image/svg+xml: chart
// wheels must reach the decoder in one shape whether the provider renders
// PNG or SVG.
func isTextual(contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.HasPrefix(ct, "image/") {
		return false
	}
	switch {
	case strings.Contains(ct, "json"),
		strings.HasPrefix(ct, "text/"),
		strings.Contains(ct, "xml"):
		return true
	}
	return false
}

// WriteFailure maps an error from the taxonomy to the client response and
// returns the status written plus the taxonomy tag for metrics and audit.
// Every path produces a structured body; nothing is ever re-panicked.
func WriteFailure(w http.ResponseWriter, err error) (status int, tag string) {
	var reqErr *RequestError
	var missingErr *normalize.MissingFieldError
	var notFoundErr *upstream.NotFoundError
	var authErr *upstream.AuthError
	var transientErr *upstream.TransientError
	var terminalErr *upstream.TerminalError
	var transportErr *upstream.TransportError
	var parseErr *upstream.ParseError
	var configErr *upstream.ConfigError

	switch {
	case errors.As(err, &missingErr):
		WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "missing_fields",
			"detail":  missingErr.Error(),
			"missing": missingErr.Fields,
		})
		return http.StatusBadRequest, "input"

	case errors.As(err, &reqErr):
		WriteError(w, http.StatusBadRequest, "bad_request", reqErr.Error())
		return http.StatusBadRequest, "input"

	case errors.As(err, &notFoundErr):
		WriteError(w, http.StatusNotFound, "not_found", notFoundErr.Error())
		return http.StatusNotFound, "not_found"

	case errors.As(err, &authErr):
		// The last attempt's status and body are the client's best signal;
		// the trace shows which transports were tried, credential redacted.
		WriteJSON(w, authErr.Status, map[string]any{
			"error":    "upstream_auth_rejected",
			"detail":   string(authErr.Body),
			"attempts": authErr.Attempts,
		})
		return authErr.Status, "auth"

	case errors.As(err, &transientErr):
		WriteJSON(w, transientErr.Status, map[string]any{
			"error":  "upstream_unavailable",
			"detail": string(transientErr.Body),
		})
		return transientErr.Status, "transient"

	case errors.As(err, &terminalErr):
		// Non-auth 4xx passes through unchanged.
		contentType := terminalErr.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(terminalErr.Status)
		_, _ = w.Write(terminalErr.Body)
		return terminalErr.Status, "terminal"

	case errors.As(err, &transportErr):
		WriteError(w, http.StatusBadGateway, "upstream_unreachable", transportErr.Error())
		return http.StatusBadGateway, "transport"

	case errors.As(err, &parseErr):
		WriteError(w, http.StatusBadGateway, "upstream_parse_error", parseErr.Error())
		return http.StatusBadGateway, "parse"

	case errors.As(err, &configErr):
		WriteError(w, http.StatusInternalServerError, "configuration_error", configErr.Error())
		return http.StatusInternalServerError, "config"

	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return http.StatusInternalServerError, "internal"
	}
}
