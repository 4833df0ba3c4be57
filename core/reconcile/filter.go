package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTopN is the size of the "top" filter when no count is given.
const DefaultTopN = 6

// Filter selects which ranked drivers a standings query returns.
// The zero value means "use the engine's active filter".
type Filter struct {
	top int
	set bool
}

// FilterAll returns every driver.
func FilterAll() Filter {
	return Filter{set: true}
}

// FilterTop returns the first k ranked drivers. k below one is treated as one.
func FilterTop(k int) Filter {
	if k < 1 {
		k = 1
	}
	return Filter{top: k, set: true}
}

// ParseFilter accepts "all", "top" (DefaultTopN), "topN" and "top:N".
func ParseFilter(mode string) (Filter, error) {
	m := strings.ToLower(strings.TrimSpace(mode))
	switch {
	case m == "all":
		return FilterAll(), nil
	case m == "top":
		return FilterTop(DefaultTopN), nil
	case strings.HasPrefix(m, "top"):
		digits := strings.TrimPrefix(strings.TrimPrefix(m, "top"), ":")
		k, err := strconv.Atoi(digits)
		if err != nil || k < 1 {
			return Filter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, mode)
		}
		return FilterTop(k), nil
	default:
		return Filter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, mode)
	}
}

// IsZero reports whether f is the unset filter.
func (f Filter) IsZero() bool {
	return !f.set
}

// Limit returns k for a top filter and 0 for all.
func (f Filter) Limit() int {
	return f.top
}

func (f Filter) String() string {
	switch {
	case !f.set:
		return ""
	case f.top == 0:
		return "all"
	default:
		return "top:" + strconv.Itoa(f.top)
	}
}
