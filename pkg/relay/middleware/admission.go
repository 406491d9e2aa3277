package middleware

import (
	"encoding/json"
	"net/http"

	"astro-natal/relay/pkg/limits/admission"
	"astro-natal/relay/pkg/telemetry/metrics"
)

// AdmissionMiddleware applies the per-caller gate to non-OPTIONS requests.
// Rejected callers get 429 with a Retry-After hint; the slot is released
// when the handler returns. A nil gate disables admission entirely.
//
// The gate is best effort and per process. Two relay instances behind a
// load balancer each enforce their own window.
func AdmissionMiddleware(gate admission.Gate, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if gate == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Preflight requests carry no upstream cost.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientIP(r)
			if !gate.Admit(key) {
				if collector != nil {
					collector.ObserveGateRejection()
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":  "rate_limited",
					"detail": "too many requests, slow down",
				})
				return
			}
			defer gate.Release(key)

			next.ServeHTTP(w, r)
		})
	}
}
