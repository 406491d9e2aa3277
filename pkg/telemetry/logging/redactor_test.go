package logging

import (
	"strings"
	"testing"
)

func TestRedactor_BuiltinPatterns(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name   string
		input  string
		leaked string
		keeps  string
	}{
		{
			name:   "bearer token",
			input:  "Authorization: Bearer sk-live-abc123",
			leaked: "abc123",
			keeps:  "Bearer",
		},
		{
			name:   "sk key in body",
			input:  `{"detail":"invalid key sk-prod-9f8e7d"}`,
			leaked: "9f8e7d",
			keeps:  "invalid key",
		},
		{
			name:   "header assignment",
			input:  "x-api-key: topsecret123",
			leaked: "topsecret123",
			keeps:  "x-api-key",
		},
		{
			name:   "query credential",
			input:  "GET /western/planets?api_key=topsecret&lang=en",
			leaked: "topsecret",
			keeps:  "lang=en",
		},
		{
			name:   "query token",
			input:  "https://api.example.com/x?token=abcdef",
			leaked: "abcdef",
			keeps:  "api.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Redact(tt.input)
			if strings.Contains(got, tt.leaked) {
				t.Errorf("Redact(%q) = %q, still contains %q", tt.input, got, tt.leaked)
			}
			if !strings.Contains(got, tt.keeps) {
				t.Errorf("Redact(%q) = %q, lost surrounding context %q", tt.input, got, tt.keeps)
			}
		})
	}
}

func TestRedactor_LiteralSecret(t *testing.T) {
	r := NewRedactor("opaque credential with spaces")

	got := r.Redact("upstream said: opaque credential with spaces is wrong")
	if strings.Contains(got, "opaque credential with spaces") {
		t.Errorf("literal secret survived redaction: %q", got)
	}
}

func TestRedactor_PlainTextUntouched(t *testing.T) {
	r := NewRedactor()

	in := "geocode lookup place=Taipei status=200"
	if got := r.Redact(in); got != in {
		t.Errorf("Redact(%q) = %q, want unchanged", in, got)
	}
}
