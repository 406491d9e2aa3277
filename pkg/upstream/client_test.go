package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const testCredential = "sk-test-credential-000"

// newTestClient builds a client pointed at the given server with fast retries.
func newTestClient(t *testing.T, serverURL string, discover bool) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Name:           "astro",
		BaseURL:        serverURL,
		Credential:     testCredential,
		Discover:       discover,
		MaxAttempts:    4,
		RetryBaseDelay: time.Millisecond,
		MaxRetryDelay:  5 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClient_SuccessFirstTry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header["x-api-key"]; len(got) != 1 || got[0] != testCredential {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"planets":[]}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, true)
	res, err := c.Post(context.Background(), "/western/planets", []byte(`{}`))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", res.Status)
	}
	if len(res.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1 when the first style succeeds", len(res.Attempts))
	}
}

func TestClient_AuthFallbackDeterminism(t *testing.T) {
	// The mock accepts only "Authorization: Bearer <key>" and answers 403 to
	// everything else: discovery must succeed on the 5th style with exactly
	// 4 rejected attempts in the trace.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+testCredential {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"ok":true}`)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, true)
	res, err := c.Post(context.Background(), "/western/planets", []byte(`{}`))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if res.Status != http.StatusOK || string(res.Body) != `{"ok":true}` {
		t.Errorf("result = %d %q, want 200 with mock body", res.Status, res.Body)
	}
	if len(res.Attempts) != 5 {
		t.Fatalf("trace has %d attempts, want 5 (4 rejected + 1 success)", len(res.Attempts))
	}
	for i, a := range res.Attempts[:4] {
		if a.Status != http.StatusForbidden {
			t.Errorf("attempt %d status = %d, want 403", i, a.Status)
		}
	}
	if res.Attempts[4].Style != "header:bearer" {
		t.Errorf("successful style = %q, want header:bearer", res.Attempts[4].Style)
	}
}

func TestClient_AuthExhaustedReturnsLastAttempt(t *testing.T) {
	var statuses = []int{400, 401, 403}
	var mu sync.Mutex
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		status := statuses[calls%len(statuses)]
		calls++
		mu.Unlock()
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"denied":%d}`, status)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, true)
	_, err := c.Post(context.Background(), "/western/planets", []byte(`{}`))

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
	if len(authErr.Attempts) != len(DiscoveryOrder()) {
		t.Errorf("trace has %d attempts, want all %d styles", len(authErr.Attempts), len(DiscoveryOrder()))
	}
	// 11 styles cycling through 400/401/403: the last (11th) call gets 401.
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("final status = %d, want the last attempt's 401", authErr.Status)
	}

	// The credential must not leak through the error or its trace.
	if strings.Contains(authErr.Error(), testCredential) {
		t.Error("credential leaked into error message")
	}
	trace, _ := json.Marshal(authErr.Attempts)
	if strings.Contains(string(trace), testCredential) {
		t.Error("credential leaked into attempt trace")
	}
}

func TestClient_RetryBoundOnPersistent503(t *testing.T) {
	var mu sync.Mutex
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"down":true}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, false)
	_, err := c.Post(context.Background(), "/western/planets", []byte(`{}`))

	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransientError", err)
	}
	if te.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", te.Status)
	}
	if string(te.Body) != `{"down":true}` {
		t.Errorf("body = %q, want last upstream body", te.Body)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 4 {
		t.Errorf("upstream saw %d calls, want exactly MaxAttempts=4", calls)
	}
}

func TestClient_429RetriesThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, false)
	res, err := c.Post(context.Background(), "/western/planets", []byte(`{}`))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("status = %d, want 200 after retries", res.Status)
	}
	if len(res.Attempts) != 1 || res.Attempts[0].Retries != 2 {
		t.Errorf("attempts = %+v, want one style with 2 retries", res.Attempts)
	}
}

func TestClient_AuthoritativeStyleNeverRotates(t *testing.T) {
	var mu sync.Mutex
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, false)
	_, err := c.Post(context.Background(), "/western/planets", []byte(`{}`))

	var term *TerminalError
	if !errors.As(err, &term) {
		t.Fatalf("error = %v, want *TerminalError (no rotation for an authoritative style)", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("upstream saw %d calls, want exactly 1", calls)
	}
}

func TestClient_TerminalStatusPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":"bad zodiac"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, true)
	_, err := c.Post(context.Background(), "/western/planets", []byte(`{}`))

	var term *TerminalError
	if !errors.As(err, &term) {
		t.Fatalf("error = %v, want *TerminalError", err)
	}
	if term.Status != http.StatusUnprocessableEntity || string(term.Body) != `{"error":"bad zodiac"}` {
		t.Errorf("terminal = %d %q, want 422 passthrough", term.Status, term.Body)
	}
}

func TestNewClient_FailsFastWithoutCredential(t *testing.T) {
	_, err := NewClient(Config{Name: "astro", BaseURL: "https://api.example.com"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("field = %q, want api_key", cfgErr.Field)
	}
}

func TestNewClient_FailsFastWithoutBaseURL(t *testing.T) {
	_, err := NewClient(Config{Name: "astro", Credential: "k"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
}
