// Package handlers implements the relay's HTTP endpoints: geocoding, the
// chart operations (planets, wheel, houses, aspects), the strict natal
// variant, and the local health probe.
//
// Every handler follows the same contract: resolve the client payload to
// the canonical query, dispatch upstream, then either relay the upstream
// result or map the failure through the error taxonomy. Outcomes are
// reported to the metrics collector and the audit store when configured.
package handlers
