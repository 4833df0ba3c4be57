package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"race-telemetry/core/timecodec"
)

// ToInt converts a loosely typed JSON value to int.
// It handles integer and float kinds, json.Number and numeric strings.
// ok is false for nil, empty strings and anything unparseable.
func ToInt(val any) (int, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case uint32:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// ToMillis converts a duration value to milliseconds.
// Numbers are taken as milliseconds; strings are parsed as "M:SS.mmm",
// "SS.mmm" or a bare integer of milliseconds.
func ToMillis(val any) (int64, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(math.Round(v)), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return int64(math.Round(f)), true
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		return timecodec.Parse(s)
	default:
		return 0, false
	}
}

// ToMillisPtr is ToMillis returning nil when the value is unknown.
func ToMillisPtr(val any) *int64 {
	ms, ok := ToMillis(val)
	if !ok {
		return nil
	}
	return &ms
}

// ToString converts a scalar to its string form. nil becomes "".
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
// It handles bool, numbers (1=true) and strings ("1", "true", "yes").
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "1" || s == "true" || s == "yes"
	default:
		i, ok := ToInt(v)
		return ok && i == 1
	}
}

// ToTime converts RFC 3339 strings and unix epoch milliseconds to a time.
// The zero time is returned with ok false when the value is absent.
func ToTime(val any) (time.Time, bool) {
	if s, isString := val.(string); isString {
		s = strings.TrimSpace(s)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, true
		}
	}
	ms, ok := ToMillis(val)
	if !ok || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
