package timecodec

import (
	"fmt"
	"strconv"
	"strings"
)

// Style selects how a duration is rendered.
type Style int

const (
	// Compact drops the leading "0:" for sub-minute durations.
	Compact Style = iota
	// Full always renders M:SS.mmm.
	Full
)

// Placeholder is rendered for unknown durations.
const Placeholder = "-"

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
)

// Parse reads "M:SS.mmm" or "SS.mmm" (fraction optional, 1-3 digits, optional
// leading sign). It returns false for anything it cannot read, including the
// "-" placeholder; callers treat that as unknown.
func Parse(text string) (int64, bool) {
	s := strings.TrimSpace(text)
	if s == "" || s == Placeholder {
		return 0, false
	}

	sign := int64(1)
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}

	var minutes int64
	rest := s
	if m, sec, ok := strings.Cut(s, ":"); ok {
		v, ok := parseDigits(m)
		if !ok {
			return 0, false
		}
		minutes = v
		rest = sec

		// Seconds must be two digits once minutes are present.
		whole, _, _ := strings.Cut(rest, ".")
		if len(whole) != 2 {
			return 0, false
		}
	}

	whole, frac, hasFrac := strings.Cut(rest, ".")
	seconds, ok := parseDigits(whole)
	if !ok {
		return 0, false
	}
	if s != rest && seconds >= 60 {
		return 0, false
	}

	var millis int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 3 {
			return 0, false
		}
		v, ok := parseDigits(frac)
		if !ok {
			return 0, false
		}
		for i := len(frac); i < 3; i++ {
			v *= 10
		}
		millis = v
	}

	return sign * (minutes*msPerMinute + seconds*msPerSecond + millis), true
}

// Format renders ms in the given style.
func Format(ms int64, style Style) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}

	minutes := ms / msPerMinute
	seconds := (ms % msPerMinute) / msPerSecond
	millis := ms % msPerSecond

	if style == Compact && minutes == 0 {
		return fmt.Sprintf("%s%d.%03d", sign, seconds, millis)
	}
	return fmt.Sprintf("%s%d:%02d.%03d", sign, minutes, seconds, millis)
}

// FormatOptional renders nil as the placeholder.
func FormatOptional(ms *int64, style Style) string {
	if ms == nil {
		return Placeholder
	}
	return Format(*ms, style)
}

// Average returns the integral mean of values, truncated toward zero.
func Average(values []int64) (int64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	return sum / int64(len(values)), true
}

func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
