package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"astro-natal/relay/pkg/normalize"
	"astro-natal/relay/pkg/upstream"
)

func newChartClient(t *testing.T, serverURL string) *upstream.Client {
	t.Helper()
	client, err := upstream.NewClient(upstream.Config{
		Name:        "astro",
		BaseURL:     serverURL,
		Credential:  "sk-test-key-0001",
		MaxAttempts: 1,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChartHandlerPlanetsPassthrough(t *testing.T) {
	var upstreamBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "sk-test-key-0001" {
			t.Errorf("upstream x-api-key = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &upstreamBody); err != nil {
			t.Errorf("upstream body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"planets":[{"name":"Sun"}]}`))
	}))
	defer srv.Close()

	handler := NewChartHandler("planets", "/western/planets",
		newChartClient(t, srv.URL), normalize.Defaults{}, nil, nil)

	rec := postJSON(t, handler, "/api/planets", `{
		"date": "1990-05-04",
		"time": "下午 02:05",
		"lat": 25.033,
		"lng": 121.565,
		"tz": "8"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `{"planets":[{"name":"Sun"}]}` {
		t.Errorf("body = %q, want upstream passthrough", got)
	}

	// The upstream saw the canonical resolved query.
	if upstreamBody["year"] != float64(1990) || upstreamBody["month"] != float64(5) || upstreamBody["day"] != float64(4) {
		t.Errorf("date fields = %v/%v/%v", upstreamBody["year"], upstreamBody["month"], upstreamBody["day"])
	}
	if upstreamBody["hour"] != float64(14) || upstreamBody["min"] != float64(5) {
		t.Errorf("time fields = %v:%v, want 14:5", upstreamBody["hour"], upstreamBody["min"])
	}
	if upstreamBody["tzone"] != float64(8) {
		t.Errorf("tzone = %v, want 8", upstreamBody["tzone"])
	}
	if upstreamBody["lon"] != float64(121.565) {
		t.Errorf("lon = %v, want 121.565", upstreamBody["lon"])
	}
	if upstreamBody["house_system"] != "placidus" {
		t.Errorf("house_system = %v, want placidus default", upstreamBody["house_system"])
	}
}

func TestChartHandlerMissingFields(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	handler := NewChartHandler("planets", "/western/planets",
		newChartClient(t, srv.URL), normalize.Defaults{}, nil, nil)

	rec := postJSON(t, handler, "/api/planets", `{"year": 1990, "month": 5}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Error("upstream must not be called on client input errors")
	}

	var body struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	want := []string{"day", "hour", "minute", "latitude", "longitude"}
	if len(body.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", body.Missing, want)
	}
	for i := range want {
		if body.Missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, body.Missing[i], want[i])
		}
	}
}

func TestChartHandlerWheelBinary(t *testing.T) {
	png := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0xAB}, 64)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}))
	defer srv.Close()

	handler := NewChartHandler("wheel", "/western/natal-wheel-chart",
		newChartClient(t, srv.URL), normalize.Defaults{}, nil, nil)

	rec := postJSON(t, handler, "/api/wheel", `{
		"year": 1990, "month": 5, "day": 4,
		"hour": 14, "min": 5,
		"lat": 25.033, "lon": 121.565, "tzone": 8
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	if got := rec.Header().Get("Content-Transfer-Encoding"); got != "base64" {
		t.Errorf("encoding flag = %q, want base64", got)
	}

	decoded, err := base64.StdEncoding.DecodeString(rec.Body.String())
	if err != nil {
		t.Fatalf("body is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, png) {
		t.Error("decoded body differs from upstream bytes")
	}
}

func TestChartHandlerBodyKeyRenames(t *testing.T) {
	var upstreamBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &upstreamBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	bodyKeys := map[string]string{
		"hour": "hours",
		"min":  "minutes",
		"lat":  "latitude",
		"lon":  "longitude",
	}
	handler := NewChartHandler("houses", "/western/houses",
		newChartClient(t, srv.URL), normalize.Defaults{}, bodyKeys, nil)

	rec := postJSON(t, handler, "/api/houses", `{
		"year": 1990, "month": 5, "day": 4,
		"hour": 14, "min": 5,
		"lat": 25.033, "lon": 121.565, "tzone": 8
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := upstreamBody["hour"]; ok {
		t.Error("renamed key should not appear under canonical name")
	}
	if upstreamBody["hours"] != float64(14) || upstreamBody["minutes"] != float64(5) {
		t.Errorf("renamed time fields = %v:%v", upstreamBody["hours"], upstreamBody["minutes"])
	}
	if upstreamBody["latitude"] != float64(25.033) {
		t.Errorf("latitude = %v", upstreamBody["latitude"])
	}
}

func TestChartHandlerUpstreamTerminalPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"unknown ayanamsha"}`))
	}))
	defer srv.Close()

	handler := NewChartHandler("aspects", "/western/aspects",
		newChartClient(t, srv.URL), normalize.Defaults{}, nil, nil)

	rec := postJSON(t, handler, "/api/aspects", `{
		"year": 1990, "month": 5, "day": 4,
		"hour": 14, "min": 5,
		"lat": 25.033, "lon": 121.565, "tzone": 8
	}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 passthrough", rec.Code)
	}
	if got := rec.Body.String(); got != `{"message":"unknown ayanamsha"}` {
		t.Errorf("body = %q, want verbatim upstream body", got)
	}
}

func TestChartHandlerMethodNotAllowed(t *testing.T) {
	handler := NewChartHandler("planets", "/western/planets", nil, normalize.Defaults{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/planets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestChartHandlerOmitsUnresolvedTimezone(t *testing.T) {
	var upstreamBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &upstreamBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	handler := NewChartHandler("planets", "/western/planets",
		newChartClient(t, srv.URL), normalize.Defaults{}, nil, nil)

	rec := postJSON(t, handler, "/api/planets", `{
		"year": 1990, "month": 5, "day": 4,
		"hour": 14, "min": 5,
		"lat": 25.033, "lon": 121.565
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if v, ok := upstreamBody["tzone"]; ok {
		t.Errorf("tzone = %v, want the field omitted when no timezone was supplied", v)
	}
}
