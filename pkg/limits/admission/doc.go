// Package admission provides a best-effort, single-process admission gate
// keyed by caller address.
//
// The gate enforces a minimum interval between calls and a small in-flight
// cap per caller. Its state lives in one process: it offers NO guarantee
// across concurrently running instances and must never be relied on for
// correctness. It exists to keep one browser from hammering the upstream
// provider, nothing more. The Gate interface keeps the backend swappable for
// a shared store should a real guarantee ever be needed.
package admission
