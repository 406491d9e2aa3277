// Package audit persists a trail of relayed requests: which operation ran,
// which authentication style the upstream finally accepted, how many
// retries it took, and what status the client received.
//
// Records never contain credentials. Attempt traces store the redacted
// style tag (e.g. "header:x-api-key"), not the key itself.
//
// Storage is SQLite with WAL mode. A cron-scheduled pruner enforces the
// retention window.
package audit
