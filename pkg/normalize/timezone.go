package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numericTzRe = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	offsetTzRe  = regexp.MustCompile(`^[+-]\d{2}:\d{2}$`)
)

// Offset is the normalized timezone representation. Upstream providers expect
// either a display-form offset string or a numeric hour offset depending on
// the endpoint, so both are carried and each consumer picks what it needs.
type Offset struct {
	// String is the display form: "+08:00", "-05:30", or an IANA zone name
	// passed through when no fixed offset can be derived.
	String string

	// Hours is the signed numeric hour offset (e.g. 8, -5.5).
	Hours float64

	// HoursKnown reports whether Hours was derivable from the input. It is
	// false for bare IANA zone names: resolving those to a fixed offset
	// requires a date-aware calendar lookup the provider performs itself.
	HoursKnown bool
}

// IsZero reports whether no timezone was supplied at all. Absence is kept
// distinct from UTC: the provider rejects a missing timezone itself, and
// inventing one would yield a wrong chart rather than an error.
func (o Offset) IsZero() bool {
	return o.String == "" && !o.HoursKnown
}

// NormalizeTimezone produces an Offset from any of the timezone encodings the
// form submits: a signed decimal number of hours ("8", "-5.5"), a "±HH:MM"
// offset string, or an IANA zone name ("Asia/Taipei").
//
// An empty value yields the zero Offset, which IsZero reports as absent.
// Like the other normalizers this never fails; unrecognized strings are
// treated as zone names and passed through.
func NormalizeTimezone(value string) Offset {
	s := strings.TrimSpace(value)
	if s == "" {
		return Offset{}
	}

	if numericTzRe.MatchString(s) {
		h, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return Offset{String: FormatOffset(h), Hours: h, HoursKnown: true}
		}
	}

	if offsetTzRe.MatchString(s) {
		hh, _ := strconv.Atoi(s[1:3])
		mm, _ := strconv.Atoi(s[4:6])
		hours := float64(hh) + float64(mm)/60
		if s[0] == '-' {
			hours = -hours
		}
		return Offset{String: s, Hours: hours, HoursKnown: true}
	}

	// IANA name or unknown shape: keep the string, leave the offset unresolved.
	return Offset{String: s}
}

// NormalizeTimezoneHours produces an Offset from a numeric hour offset.
func NormalizeTimezoneHours(hours float64) Offset {
	return Offset{String: FormatOffset(hours), Hours: hours, HoursKnown: true}
}

// FormatOffset renders a signed decimal hour offset as "±HH:MM".
func FormatOffset(hours float64) string {
	sign := "+"
	if hours < 0 {
		sign = "-"
	}
	// Round to whole minutes first so e.g. 7.999 carries into the hour
	// instead of rendering as "+07:60".
	total := int(math.Round(math.Abs(hours) * 60))
	hh := total / 60
	mm := total % 60
	return fmt.Sprintf("%s%02d:%02d", sign, hh, mm)
}
