package handlers

import (
	"net/http"
	"strings"

	"astro-natal/relay/pkg/relay"
	"astro-natal/relay/pkg/upstream"
)

// GeocodeHandler resolves a place name to coordinates via the geocoding
// upstream. It accepts the query as POST JSON {"place"} or {"q"}, or as
// GET ?place=/?q= for callers that prefer a plain link.
type GeocodeHandler struct {
	geocoder *upstream.Geocoder
	observer *Observer
}

// NewGeocodeHandler creates the geocode handler.
func NewGeocodeHandler(geocoder *upstream.Geocoder, observer *Observer) *GeocodeHandler {
	return &GeocodeHandler{
		geocoder: geocoder,
		observer: observer,
	}
}

// ServeHTTP implements http.Handler.
func (h *GeocodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		relay.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or POST")
		return
	}

	place, err := h.placeQuery(r)
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), "geocode", status, nil, tag, err)
		return
	}

	plc, err := h.geocoder.Search(r.Context(), place)
	if err != nil {
		status, tag := relay.WriteFailure(w, err)
		h.observer.observe(r.Context(), "geocode", status, nil, tag, err)
		return
	}

	relay.WriteJSON(w, http.StatusOK, plc)
	h.observer.observe(r.Context(), "geocode", http.StatusOK, nil, "", nil)
}

// placeQuery extracts the place string from either transport.
func (h *GeocodeHandler) placeQuery(r *http.Request) (string, error) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		place := q.Get("place")
		if place == "" {
			place = q.Get("q")
		}
		if strings.TrimSpace(place) == "" {
			return "", &relay.RequestError{Message: "missing place query parameter", Param: "place"}
		}
		return strings.TrimSpace(place), nil

	default:
		payload, err := relay.ParseJSONBody(r)
		if err != nil {
			return "", err
		}
		place, _ := payload["place"].(string)
		if place == "" {
			place, _ = payload["q"].(string)
		}
		if strings.TrimSpace(place) == "" {
			return "", &relay.RequestError{Message: "missing place field", Param: "place"}
		}
		return strings.TrimSpace(place), nil
	}
}
