package handlers

import (
	"encoding/json"
	"net/http"

	"astro-natal/relay/pkg/normalize"
	"astro-natal/relay/pkg/relay"
	"astro-natal/relay/pkg/upstream"
)

// ChartHandler serves one chart operation: planets, wheel, houses, or
// aspects. All four share the alias-tolerant request contract and the
// upstream dispatch; they differ only in operation name, upstream path,
// and whether the response is JSON or a binary image (the response relay
// detects that from the upstream Content-Type, so the handler does not
// care).
type ChartHandler struct {
	operation string
	path      string
	client    *upstream.Client
	defaults  normalize.Defaults
	bodyKeys  map[string]string
	observer  *Observer
}

// NewChartHandler creates a handler for one chart operation. bodyKeys
// optionally renames canonical upstream body fields for providers with
// different conventions (e.g. "hour" -> "hours"); nil sends the canonical
// names.
func NewChartHandler(operation, path string, client *upstream.Client, defaults normalize.Defaults, bodyKeys map[string]string, observer *Observer) *ChartHandler {
	return &ChartHandler{
		operation: operation,
		path:      path,
		client:    client,
		defaults:  defaults,
		bodyKeys:  bodyKeys,
		observer:  observer,
	}
}

// ServeHTTP implements http.Handler.
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		relay.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	payload, err := relay.ParseJSONBody(r)
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), h.operation, status, nil, tag, err)
		return
	}

	query, err := normalize.Resolve(payload, h.defaults)
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), h.operation, status, nil, tag, err)
		return
	}

	body, err := json.Marshal(h.upstreamBody(query))
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), h.operation, status, nil, tag, err)
		return
	}

	result, err := h.client.Post(r.Context(), h.path, body)
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), h.operation, status, attemptsFromError(err), tag, err)
		return
	}

	relay.WriteUpstream(w, result)
	h.observer.observe(r.Context(), h.operation, result.Status, result, "", nil)
}

// upstreamBody builds the canonical provider body from the resolved query.
// The timezone rides as numeric hours when derivable, otherwise as the
// zone string for the provider's own calendar lookup.
func (h *ChartHandler) upstreamBody(q *normalize.Query) map[string]any {
	body := map[string]any{
		"year":         q.Year,
		"month":        q.Month,
		"day":          q.Day,
		"hour":         q.Hour,
		"min":          q.Minute,
		"lat":          q.Latitude,
		"lon":          q.Longitude,
		"house_system": q.HouseSystem,
		"lang":         q.Language,
	}
	// An absent timezone is omitted outright so the provider rejects it
	// itself; silently defaulting would chart the wrong sky.
	switch {
	case q.Timezone.HoursKnown:
		body["tzone"] = q.Timezone.Hours
	case !q.Timezone.IsZero():
		body["tzone"] = q.Timezone.String
	}
	if q.SubjectName != "" {
		body["name"] = q.SubjectName
	}

	if len(h.bodyKeys) == 0 {
		return body
	}
	renamed := make(map[string]any, len(body))
	for k, v := range body {
		if alt, ok := h.bodyKeys[k]; ok && alt != "" {
			renamed[alt] = v
		} else {
			renamed[k] = v
		}
	}
	return renamed
}
