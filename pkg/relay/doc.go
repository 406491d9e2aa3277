// Package relay implements the HTTP surface between the browser form and
// the upstreams: request parsing with alias tolerance, the response
// conventions (JSON passthrough, base64 binary transport, structured
// errors), and the mapping from the error taxonomy to client statuses.
//
// Handlers live in the handlers subpackage, the middleware chain in
// middleware.
package relay
