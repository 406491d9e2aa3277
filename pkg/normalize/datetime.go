package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// dateSeparators converts the tolerated date separators to "-".
	dateSeparators = strings.NewReplacer("/", "-", ".", "-")

	// ampmRe matches explicit 12-hour forms like "PM 2:05" or "am 11.30".
	// Both the ASCII colon and the fullwidth colon appear in the wild.
	ampmRe = regexp.MustCompile(`(?i)^(AM|PM)\s*(\d{1,2})[:：.](\d{2})$`)

	// clockRe matches 24-hour forms like "20:50" or "8.05".
	clockRe = regexp.MustCompile(`^(\d{1,2})[:：.](\d{2})$`)

	// compactRe matches the 4-digit compact form "2050".
	compactRe = regexp.MustCompile(`^(\d{2})(\d{2})$`)
)

// cjkDayPeriods maps CJK day-period prefixes to their AM/PM equivalent.
// 中午 (noon) maps to PM so that 中午 12:00 stays 12:00.
var cjkDayPeriods = []struct {
	prefix string
	period string
}{
	{"上午", "AM"},
	{"下午", "PM"},
	{"晚上", "PM"},
	{"中午", "PM"},
}

// ParseDate parses an ISO-like date string into Gregorian calendar fields.
// "/" and "." are accepted as separators in place of "-".
func ParseDate(raw string) (year, month, day int, err error) {
	s := dateSeparators.Replace(strings.TrimSpace(raw))
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("unrecognized date %q: want YYYY-MM-DD", raw)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(strings.TrimSpace(p))
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("unrecognized date %q: %w", raw, convErr)
		}
		nums[i] = n
	}

	if nums[0] == 0 || nums[1] == 0 || nums[2] == 0 {
		return 0, 0, 0, fmt.Errorf("unrecognized date %q: zero component", raw)
	}

	return nums[0], nums[1], nums[2], nil
}

// NormalizeTime converts the time representations browsers produce across
// locales into a 24-hour "HH:MM" string.
//
// Accepted inputs:
//   - 24-hour clock: "20:50", "8:05" (fullwidth colon and "." also accepted)
//   - 12-hour clock: "AM 7:03", "PM 2:05"
//   - CJK day-period prefixes: "上午 08:50", "下午 02:05", "晚上 10:00", "中午 12:00"
//   - 4-digit compact form: "2050"
//
// Out-of-range components are clamped into [0,23] and [0,59] rather than
// rejected. Input that matches none of the known shapes is returned unchanged
// so the upstream provider can reject it itself.
func NormalizeTime(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	// Collapse fullwidth spaces before prefix matching.
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, "　", " ")), " ")

	for _, dp := range cjkDayPeriods {
		if rest, ok := strings.CutPrefix(s, dp.prefix); ok {
			s = dp.period + " " + strings.TrimSpace(rest)
			break
		}
	}

	if m := ampmRe.FindStringSubmatch(s); m != nil {
		hh, _ := strconv.Atoi(m[2])
		mm, _ := strconv.Atoi(m[3])
		if strings.EqualFold(m[1], "PM") {
			if hh != 12 {
				hh += 12
			}
		} else if hh == 12 {
			hh = 0
		}
		return fmt.Sprintf("%02d:%02d", clamp(hh, 0, 23), clamp(mm, 0, 59))
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%02d:%02d", clamp(hh, 0, 23), clamp(mm, 0, 59))
	}

	if m := compactRe.FindStringSubmatch(s); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%02d:%02d", clamp(hh, 0, 23), clamp(mm, 0, 59))
	}

	// Unrecognized shape: pass through unchanged.
	return raw
}

// ParseTime normalizes raw and splits it into hour and minute integers.
// ok is false when the input did not normalize into an "HH:MM" shape.
func ParseTime(raw string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(NormalizeTime(raw))
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
