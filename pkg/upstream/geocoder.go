package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultGeocoderBaseURL is the public Nominatim instance, used when no
	// geocoder is configured.
	DefaultGeocoderBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies this relay to the public geocoder, which
	// rejects anonymous or default user agents outright.
	DefaultUserAgent = "astro-natal-relay/1.0 (birth chart form)"
)

// GeocoderConfig contains the geocoding provider configuration.
type GeocoderConfig struct {
	// BaseURL is the geocoder's scheme+host. Default: the public Nominatim
	// instance.
	BaseURL string

	// UserAgent is sent on every request. A descriptive value is a hard
	// requirement of the public geocoder, not a nicety. Default:
	// DefaultUserAgent.
	UserAgent string

	// Limit is the maximum number of results requested. Default: 1.
	Limit int

	// Timeout is the per-request HTTP timeout. Default: 10s.
	Timeout time.Duration
}

// Place is the normalized geocoding result, independent of which field names
// the upstream geocoder used.
type Place struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// Geocoder resolves place names to coordinates through a Nominatim-style
// search endpoint.
type Geocoder struct {
	config GeocoderConfig
	client *http.Client
	logger *slog.Logger
}

// NewGeocoder creates a geocoder client with defaults applied.
func NewGeocoder(cfg GeocoderConfig) *Geocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeocoderBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Geocoder{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default().With("component", "upstream", "provider", "geocoder"),
	}
}

// nominatimResult mirrors the subset of the upstream response we consume.
// Nominatim encodes coordinates as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search resolves a place name to its best match. An empty upstream result
// set yields *NotFoundError rather than an empty Place.
func (g *Geocoder) Search(ctx context.Context, place string) (*Place, error) {
	places, err := g.SearchAll(ctx, place)
	if err != nil {
		return nil, err
	}
	return &places[0], nil
}

// SearchAll resolves a place name to up to Limit matches, best first.
func (g *Geocoder) SearchAll(ctx context.Context, place string) ([]Place, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d",
		g.config.BaseURL, url.QueryEscape(place), g.config.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.config.UserAgent)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: "geocoder", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: "geocoder", Cause: err}
	}

	g.logger.Debug("geocode lookup",
		"place", place,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, &TerminalError{
			Provider:    "geocoder",
			Status:      resp.StatusCode,
			Body:        body,
			ContentType: resp.Header.Get("Content-Type"),
		}
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &ParseError{Provider: "geocoder", Cause: err}
	}
	if len(results) == 0 {
		return nil, &NotFoundError{Query: place}
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			return nil, &ParseError{
				Provider: "geocoder",
				Cause:    fmt.Errorf("non-numeric coordinates %q, %q", r.Lat, r.Lon),
			}
		}
		places = append(places, Place{
			Latitude:    lat,
			Longitude:   lon,
			DisplayName: r.DisplayName,
		})
	}

	return places, nil
}
