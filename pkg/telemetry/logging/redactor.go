package logging

import "regexp"

// Redactor masks credential-shaped substrings in log output.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Pattern names for the built-in redactions.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternQueryKey    = "query_credential"
)

// NewRedactor creates a Redactor with the built-in credential patterns plus
// any extra literal secrets that must never appear verbatim (the configured
// API key itself is registered here at startup).
func NewRedactor(literalSecrets ...string) *Redactor {
	r := &Redactor{}

	// Bearer and raw Authorization values.
	r.add(PatternBearerToken, `(?i)(bearer\s+)[A-Za-z0-9._\-]+`, "${1}***")

	// sk- prefixed keys.
	r.add(PatternAPIKey, `sk-[A-Za-z0-9\-]{4,}`, "sk-***")

	// api_key/apikey/api-key/x-api-key header or field assignments.
	r.add(PatternAPIKey, `(?i)((?:x-)?api[-_]?key["']?\s*[:=]\s*["']?)[A-Za-z0-9._\-]+`, "${1}***")

	// Credentials smuggled through query strings in logged URLs.
	r.add(PatternQueryKey, `(?i)([?&](api_key|apikey|key|token|auth)=)[^&\s"']+`, "${1}***")

	for _, secret := range literalSecrets {
		if secret == "" {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        "literal",
			regex:       regexp.MustCompile(regexp.QuoteMeta(secret)),
			replacement: "***",
		})
	}

	return r
}

func (r *Redactor) add(name, pattern, replacement string) {
	r.patterns = append(r.patterns, &redactPattern{
		name:        name,
		regex:       regexp.MustCompile(pattern),
		replacement: replacement,
	})
}

// Redact returns s with every credential-shaped substring masked.
func (r *Redactor) Redact(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}
