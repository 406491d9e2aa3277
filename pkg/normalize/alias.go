package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Query is the canonical point-in-time-and-place every chart operation works
// with, independent of the field names or encodings the client used.
type Query struct {
	// Gregorian calendar fields.
	Year  int
	Month int
	Day   int

	// 24-hour clock, already disambiguated from AM/PM or locale forms.
	Hour   int
	Minute int

	// WGS84 degrees.
	Latitude  float64
	Longitude float64

	// Timezone carries both the display-form offset and, when derivable,
	// the numeric hour offset.
	Timezone Offset

	HouseSystem string
	Language    string
	SubjectName string
}

// Defaults supplies deployment-level fallbacks applied during resolution.
type Defaults struct {
	// HouseSystem is used when the payload names none. Empty means "placidus".
	HouseSystem string

	// Language is used when the payload names none. Empty means "en".
	Language string
}

// Alias groups, in precedence order. The first present value wins.
var (
	dayAliases       = []string{"day", "date"}
	hourAliases      = []string{"hour", "hours"}
	minuteAliases    = []string{"min", "minute", "minutes"}
	latitudeAliases  = []string{"lat", "latitude"}
	longitudeAliases = []string{"lon", "lng", "longitude"}
	timezoneAliases  = []string{"tz", "tzone", "timezone", "utc_offset"}
	houseAliases     = []string{"house", "house_system", "houseSystem"}
	languageAliases  = []string{"lang", "language"}
	nameAliases      = []string{"name", "subject_name", "subjectName"}
)

// requiredOrder fixes the order missing fields are reported in.
var requiredOrder = []string{"year", "month", "day", "hour", "minute", "latitude", "longitude"}

// Resolve collapses an arbitrary client payload into a canonical Query.
//
// The payload is the decoded JSON object as submitted: values may be numbers,
// numeric strings, or combined date/time strings. A full "date" string fills
// year/month/day; a "time" string is normalized through NormalizeTime before
// being split into hour and minute.
//
// If any of year, month, day, hour, minute, latitude, or longitude is still
// absent (or not a finite number) after alias resolution, Resolve fails with
// a *MissingFieldError naming every such field.
func Resolve(payload map[string]any, defaults Defaults) (*Query, error) {
	q := &Query{}
	present := map[string]bool{}

	// A combined date string supplies all three calendar fields at once.
	if raw, ok := stringValue(payload, "date"); ok {
		if y, m, d, err := ParseDate(raw); err == nil {
			q.Year, q.Month, q.Day = y, m, d
			present["year"], present["month"], present["day"] = true, true, true
		}
	}

	if !present["year"] {
		if n, ok := numberValue(payload, "year"); ok {
			q.Year = int(n)
			present["year"] = true
		}
	}
	if !present["month"] {
		if n, ok := numberValue(payload, "month"); ok {
			q.Month = int(n)
			present["month"] = true
		}
	}
	if !present["day"] {
		if n, ok := numberValue(payload, dayAliases...); ok {
			q.Day = int(n)
			present["day"] = true
		}
	}

	// A combined time string supplies hour and minute at once.
	if raw, ok := stringValue(payload, "time"); ok {
		if hh, mm, ok := ParseTime(raw); ok {
			q.Hour, q.Minute = hh, mm
			present["hour"], present["minute"] = true, true
		}
	}

	if !present["hour"] {
		if n, ok := numberValue(payload, hourAliases...); ok {
			q.Hour = clamp(int(n), 0, 23)
			present["hour"] = true
		}
	}
	if !present["minute"] {
		if n, ok := numberValue(payload, minuteAliases...); ok {
			q.Minute = clamp(int(n), 0, 59)
			present["minute"] = true
		}
	}

	if n, ok := numberValue(payload, latitudeAliases...); ok {
		q.Latitude = n
		present["latitude"] = true
	}
	if n, ok := numberValue(payload, longitudeAliases...); ok {
		q.Longitude = n
		present["longitude"] = true
	}

	var missing []string
	for _, field := range requiredOrder {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldError{Fields: missing}
	}

	q.Timezone = resolveTimezone(payload)

	q.HouseSystem = firstString(payload, houseAliases...)
	if q.HouseSystem == "" {
		q.HouseSystem = defaults.HouseSystem
	}
	if q.HouseSystem == "" {
		q.HouseSystem = "placidus"
	}

	q.Language = firstString(payload, languageAliases...)
	if q.Language == "" {
		q.Language = defaults.Language
	}
	if q.Language == "" {
		q.Language = "en"
	}

	q.SubjectName = firstString(payload, nameAliases...)

	return q, nil
}

// resolveTimezone picks the first present timezone alias and normalizes it.
// A string zone name with an additional numeric utc_offset gets the offset
// filled in as the numeric fallback, mirroring how the form submits both.
// No alias present yields the zero Offset; absence stays absent so the
// provider can reject it itself instead of charting UTC.
func resolveTimezone(payload map[string]any) Offset {
	for _, key := range timezoneAliases {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := asNumber(v); ok {
			return NormalizeTimezoneHours(n)
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			off := NormalizeTimezone(s)
			if !off.HoursKnown {
				if fb, ok := numberValue(payload, "utc_offset"); ok {
					off.Hours = fb
					off.HoursKnown = true
				}
			}
			return off
		}
	}
	return Offset{}
}

// numberValue returns the first alias whose value parses as a finite number.
func numberValue(payload map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := asNumber(v); ok {
			return n, true
		}
		// First present alias wins even when it fails to parse; the field
		// is then reported as missing rather than silently falling through
		// to a lower-precedence alias.
		return 0, false
	}
	return 0, false
}

// asNumber coerces JSON number and numeric string values to a finite float64.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// stringValue returns key's value when it is a non-empty, non-numeric string.
func stringValue(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	if numericTzRe.MatchString(strings.TrimSpace(s)) {
		// A bare number is an alias for a numeric field, not a combined form.
		return "", false
	}
	return s, true
}

func firstString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
