// Package logging configures structured logging for the relay.
//
// It wires log/slog with a JSON or text handler and wraps it in a redacting
// handler that masks credential-shaped values before they reach the output.
// Upstream API keys travel through headers, query strings, and error bodies;
// the redactor is the last line of defence against one of them landing in a
// log line.
package logging
