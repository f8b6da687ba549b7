package metadata

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	midnightMarker = "T00:00:00"
	dayFirstLayout = "02-01-2006"
	isoDateLayout  = "2006-01-02"
)

// DurationHours converts a raw millisecond duration to hours. Anything that
// is not a digit is dropped first; no digits means zero.
func DurationHours(raw string) float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0
	}
	ms, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return ms / 1000 / 60 / 60
}

// NormalizeDate renders the date part of raw as YYYY-MM-DD when it arrives
// day first. Other shapes pass through unchanged.
//
// A value is treated as day first only when it is exactly 10 characters long
// and its first hyphen sits at index 2.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, midnightMarker, "")
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		s = s[:i]
	}

	if len(s) != 10 || strings.IndexByte(s, '-') != 2 {
		return s
	}
	t, err := time.Parse(dayFirstLayout, s)
	if err != nil {
		return s
	}
	return t.Format(isoDateLayout)
}
