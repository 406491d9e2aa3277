package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"astro-natal/relay/pkg/normalize"
	"astro-natal/relay/pkg/relay"
	"astro-natal/relay/pkg/upstream"
)

// natalRequired fixes the fields the strict natal contract demands and the
// order they are reported missing in.
var natalRequired = []string{"year", "month", "day", "hour", "minute", "latitude", "longitude", "timezone"}

// NatalHandler serves the strict natal operation. Unlike the chart
// handlers it accepts no aliases and no combined date/time strings: every
// required field must be present under its canonical name with a numeric
// value. GET answers a readiness probe so callers can check wiring without
// burning an upstream call.
type NatalHandler struct {
	path     string
	client   *upstream.Client
	language string
	observer *Observer
}

// NewNatalHandler creates the natal handler.
func NewNatalHandler(path string, client *upstream.Client, language string, observer *Observer) *NatalHandler {
	if language == "" {
		language = "en"
	}
	return &NatalHandler{
		path:     path,
		client:   client,
		language: language,
		observer: observer,
	}
}

// ServeHTTP implements http.Handler.
func (h *NatalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		relay.WriteJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"message": "natal relay ready",
		})
		return
	case http.MethodPost:
	default:
		relay.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or POST")
		return
	}

	payload, err := relay.ParseJSONBody(r)
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), "natal", status, nil, tag, err)
		return
	}

	fields, err := h.validate(payload)
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), "natal", status, nil, tag, err)
		return
	}

	upstreamPayload := map[string]any{
		"year":      int(fields["year"]),
		"month":     int(fields["month"]),
		"day":       int(fields["day"]),
		"hour":      int(fields["hour"]),
		"minute":    int(fields["minute"]),
		"seconds":   0,
		"latitude":  fields["latitude"],
		"longitude": fields["longitude"],
		"timezone":  fields["timezone"],
		"language":  h.language,
	}
	if lang, ok := payload["language"].(string); ok && lang != "" {
		upstreamPayload["language"] = lang
	}
	if secs, ok := payload["seconds"]; ok {
		if n, ok := asFloat(secs); ok {
			upstreamPayload["seconds"] = int(n)
		}
	}

	body, err := json.Marshal(upstreamPayload)
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), "natal", status, nil, tag, err)
		return
	}

	result, err := h.client.Post(r.Context(), h.path, body)
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), "natal", status, attemptsFromError(err), tag, err)
		return
	}

	relay.WriteUpstream(w, result)
	h.observer.observe(r.Context(), "natal", result.Status, result, "", nil)
}

// validate checks every required field is a present number, collecting all
// failures instead of stopping at the first.
func (h *NatalHandler) validate(payload map[string]any) (map[string]float64, error) {
	fields := make(map[string]float64, len(natalRequired))
	var missing []string

	for _, name := range natalRequired {
		v, ok := payload[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		n, ok := asFloat(v)
		if !ok {
			missing = append(missing, name)
			continue
		}
		fields[name] = n
	}

	if len(missing) > 0 {
		return nil, &normalize.MissingFieldError{Fields: missing}
	}
	return fields, nil
}

// asFloat accepts JSON numbers and numeric strings.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
