// Package middleware provides the HTTP middleware chain for the relay:
// panic recovery, request IDs, structured request logging, permissive CORS
// with preflight handling, and the per-caller admission gate.
package middleware
