package handlers

import (
	"net/http"
	"time"

	"astro-natal/relay/pkg/relay"
)

// VersionHeader carries the relay build version on health responses.
const VersionHeader = "X-Relay-Version"

// HealthHandler answers local liveness probes. It never touches an
// upstream.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(version string) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{version: version}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		relay.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	w.Header().Set(VersionHeader, h.version)
	relay.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"name": "astro-natal relay",
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}
