package upstream

import (
	"fmt"
	"net/http"
	"strings"
)

// authKind discriminates the credential transport variants.
type authKind int

const (
	authHeaderKey authKind = iota // bare header, credential is the value
	authBearer                    // Authorization: Bearer <credential>
	authRaw                       // Authorization: <credential>
	authQuery                     // ?<name>=<credential>
)

// AuthStyle is one concrete credential transport: a named header, an
// Authorization header (bearer or raw), or a named query parameter.
type AuthStyle struct {
	kind authKind
	name string
}

// HeaderKey returns a style that sends the credential as the value of the
// named header. The header name's casing is preserved on the wire; some
// provider deployments have matched it case-sensitively.
func HeaderKey(name string) AuthStyle {
	return AuthStyle{kind: authHeaderKey, name: name}
}

// Bearer returns the "Authorization: Bearer <credential>" style.
func Bearer() AuthStyle {
	return AuthStyle{kind: authBearer, name: "Authorization"}
}

// RawAuthorization returns the "Authorization: <credential>" style, with no
// scheme prefix.
func RawAuthorization() AuthStyle {
	return AuthStyle{kind: authRaw, name: "Authorization"}
}

// QueryParam returns a style that appends the credential as the named query
// parameter.
func QueryParam(name string) AuthStyle {
	return AuthStyle{kind: authQuery, name: name}
}

// DiscoveryOrder is the fixed, deterministic sequence of styles tried when
// the correct transport is being discovered. Header styles come before query
// styles; within each group the empirically most common names come first.
func DiscoveryOrder() []AuthStyle {
	return []AuthStyle{
		HeaderKey("x-api-key"),
		HeaderKey("X-API-Key"),
		HeaderKey("apikey"),
		HeaderKey("api-key"),
		Bearer(),
		RawAuthorization(),
		QueryParam("api_key"),
		QueryParam("apikey"),
		QueryParam("key"),
		QueryParam("token"),
		QueryParam("auth"),
	}
}

// ParseStyle parses a configured style tag. Recognized tags are the header
// names themselves ("x-api-key", "apikey", "api-key"), "bearer", "auth-raw",
// and "query:<param>".
func ParseStyle(tag string) (AuthStyle, error) {
	s := strings.TrimSpace(tag)
	switch strings.ToLower(s) {
	case "", "x-api-key":
		return HeaderKey("x-api-key"), nil
	case "apikey":
		return HeaderKey("apikey"), nil
	case "api-key":
		return HeaderKey("api-key"), nil
	case "bearer":
		return Bearer(), nil
	case "auth-raw", "authorization":
		return RawAuthorization(), nil
	}
	if param, ok := strings.CutPrefix(strings.ToLower(s), "query:"); ok {
		if param == "" {
			return AuthStyle{}, fmt.Errorf("auth style %q: empty query parameter name", tag)
		}
		return QueryParam(param), nil
	}
	return AuthStyle{}, fmt.Errorf("unknown auth style %q", tag)
}

// Apply attaches the credential to the outgoing request in this style.
// Query styles rewrite the request URL; header styles set a header. Header
// names are written directly into the header map so their casing survives
// canonicalization.
func (s AuthStyle) Apply(req *http.Request, credential string) {
	if credential == "" {
		return
	}
	switch s.kind {
	case authHeaderKey:
		req.Header[s.name] = []string{credential}
	case authBearer:
		req.Header.Set("Authorization", "Bearer "+credential)
	case authRaw:
		req.Header.Set("Authorization", credential)
	case authQuery:
		q := req.URL.Query()
		q.Set(s.name, credential)
		req.URL.RawQuery = q.Encode()
	}
}

// String returns the redacted tag used in traces and logs. It identifies the
// transport only; the credential value is never part of it.
func (s AuthStyle) String() string {
	switch s.kind {
	case authHeaderKey:
		return "header:" + s.name
	case authBearer:
		return "header:bearer"
	case authRaw:
		return "header:authorization-raw"
	case authQuery:
		return "query:" + s.name
	default:
		return "unknown"
	}
}
