// Package normalize provides the pure cleaning functions applied by the
// transformer before deduplication.
package normalize

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// timestampLayouts are tried in order when parsing API timestamps.
// The API emits RFC1123 for last_watered and a bare datetime for
// recording_taken; RFC3339 covers replayed artifacts.
var timestampLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	"2006-01-02 15:04:05",
}

// Trim trims surrounding whitespace and maps empty results to nil.
func Trim(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Float parses a numeric field, substituting nil on parse failure.
func Float(s *string) *float64 {
	s = Trim(s)
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Time parses a timestamp field to a UTC instant, substituting nil on
// parse failure.
func Time(s *string) *time.Time {
	s = Trim(s)
	if s == nil {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

// Phone normalizes a phone number for storage:
//   - nil input stays nil
//   - lowercase, with the literal substring "ext" replaced by "x"
//   - every character that is not a digit or 'x' is stripped
//   - the result is the leading run of 3 or more digits plus an optional
//     trailing "x<digits>" extension; if there is no leading digit run the
//     stripped string is returned as-is (possibly empty)
//
// Phone is idempotent: Phone(Phone(s)) == Phone(s).
func Phone(s *string) *string {
	if s == nil {
		return nil
	}

	lowered := strings.ReplaceAll(strings.ToLower(*s), "ext", "x")

	var stripped strings.Builder
	for _, r := range lowered {
		if unicode.IsDigit(r) || r == 'x' {
			stripped.WriteRune(r)
		}
	}
	digits := stripped.String()

	run := leadingDigitRun(digits)
	if len(run) < 3 {
		return &digits
	}

	result := run
	rest := digits[len(run):]
	if ext := extension(rest); ext != "" {
		result += ext
	}
	return &result
}

// leadingDigitRun returns the run of digits at the start of s.
func leadingDigitRun(s string) string {
	for i, r := range s {
		if !unicode.IsDigit(r) {
			return s[:i]
		}
	}
	return s
}

// extension returns "x<digits>" if s starts with exactly that shape.
func extension(s string) string {
	if len(s) < 2 || s[0] != 'x' {
		return ""
	}
	run := leadingDigitRun(s[1:])
	if run == "" {
		return ""
	}
	return "x" + run
}
