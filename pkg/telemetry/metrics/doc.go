// Package metrics exposes Prometheus instrumentation for the relay: request
// counts and latencies per logical operation, upstream attempt outcomes per
// auth style, transient retries, and admission-gate rejections.
package metrics
