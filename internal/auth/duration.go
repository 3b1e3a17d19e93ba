package auth

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/common/model"
)

var longDuration = regexp.MustCompile(`(?i)^(-?(?:\d+)?\.?\d+) *(milliseconds?|msecs?|ms|seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w|years?|yrs?|y)?$`)

var durationUnits = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
	"w":  7 * 24 * time.Hour,
	"y":  time.Duration(365.25 * float64(24*time.Hour)),
}

// ParseDuration converts expiry strings into a time.Duration. It accepts
// compact forms ("1d", "2h30m"), decimals ("1.5h") and long units
// ("2 days", "90 minutes"). A number without a unit is read as milliseconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if d, err := model.ParseDuration(s); err == nil {
		return time.Duration(d), nil
	}

	m := longDuration.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("not a valid duration string: %q", s)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("not a valid duration string: %q", s)
	}
	return time.Duration(n * float64(unitOf(m[2]))), nil
}

func unitOf(unit string) time.Duration {
	unit = strings.ToLower(unit)
	switch {
	case unit == "", strings.HasPrefix(unit, "ms"), strings.HasPrefix(unit, "mil"):
		return durationUnits["ms"]
	case strings.HasPrefix(unit, "mi"), unit == "m":
		return durationUnits["m"]
	default:
		return durationUnits[unit[:1]]
	}
}
