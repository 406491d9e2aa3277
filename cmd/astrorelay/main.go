// Astrorelay is a small proxy that sits between a birth chart form and its
// astrology and geocoding upstreams.
//
// It normalizes inconsistent client payloads, adapts credential transport
// to whatever the astrology provider accepts this month, retries transient
// upstream failures, and relays chart images intact:
//   - Field alias resolution and CJK-aware date/time normalization
//   - Ordered auth-style discovery with a redacted attempt trace
//   - Bounded retry with geometric backoff and jitter
//   - Base64 relay for binary chart images
//   - Per-caller admission gating for the rate-limited free tiers
//
// Usage:
//
//	# Start with default configuration
//	astrorelay run
//
//	# Start with a custom configuration file
//	astrorelay run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	astrorelay validate --config /path/to/config.yaml
//
//	# Show version information
//	astrorelay version
package main

func main() {
	Execute()
}
