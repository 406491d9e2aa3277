// Package normalize collapses the loosely-specified payloads submitted by the
// browser form into one canonical query shape.
//
// Client payloads arrive with inconsistent field names (lat vs latitude, min
// vs minute), mixed date and time encodings (ISO-ish date strings, 12-hour
// clocks with AM/PM or CJK day-period prefixes), and mixed timezone encodings
// (numeric hour offsets, ±HH:MM strings, IANA zone names). This package
// resolves field aliases, normalizes dates, times, and timezones, and reports
// every missing or unparseable required field in one error.
//
// The date/time/timezone normalizers themselves never fail: input that cannot
// be recognized is passed through unchanged so the upstream provider makes the
// final call. Only alias resolution produces a client-facing validation error,
// and only for fields that are required to build an upstream request at all.
package normalize
