// Package upstream dispatches requests to the external astrology and
// geocoding providers.
//
// The astrology provider's credential transport is not reliably knowable
// ahead of time: deployments have variously required x-api-key style headers,
// Authorization headers, or query parameters. AuthStyle models each transport
// as a closed variant, and the Client either uses the one configured style
// authoritatively or walks a fixed discovery order until the provider stops
// answering with an auth-shaped rejection.
//
// Two bounded loops are kept deliberately separate: transient-failure retry
// (429 and 5xx, geometric backoff with jitter) and auth-style rotation
// (400/401/403). Each is testable and bounded on its own.
//
// Every call produces a redacted attempt trace; the credential value never
// appears in traces, errors, or logs.
package upstream
