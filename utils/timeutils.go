package utils

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Iso8601 formats t in UTC using RFC3339
func Iso8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Iso8601Nano formats t in UTC keeping sub-second precision
func Iso8601Nano(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseIso8601 accepts RFC3339 with or without fractional seconds.
// A bare unix-seconds value is accepted as well, since archive tooling emits both.
func ParseIso8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if sec, ok := parseUnix(s); ok {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, err
}

// FromUnixSeconds converts a feed timestamp to time.Time; zero stays zero.
func FromUnixSeconds(sec uint64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}

// ValidUntil returns base+interval formatted as ISO8601, or "" when either is unset
func ValidUntil(base time.Time, interval time.Duration) string {
	if base.IsZero() || interval <= 0 {
		return ""
	}
	return Iso8601(base.Add(interval))
}

// ScaleDuration multiplies d by factor. Negative or NaN factors yield 0; results
// beyond the Duration range saturate at its maximum.
func ScaleDuration(d time.Duration, factor float64) time.Duration {
	if d <= 0 || factor <= 0 || math.IsNaN(factor) {
		return 0
	}
	scaled := math.Round(float64(d) * factor)
	if scaled >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(scaled)
}

func parseUnix(s string) (int64, bool) {
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
