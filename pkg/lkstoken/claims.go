package lkstoken

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// textLayouts are tried in order for textual expirations. Fractional
// seconds are accepted by every layout; zone-less values are UTC.
var textLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
}

func lookup(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// firstString returns the first value that renders as a non-empty string.
func firstString(values ...any) string {
	for _, v := range values {
		if s := stringify(v); s != "" {
			return s
		}
	}
	return ""
}

// stringify renders scalar claim values. Numeric student IDs decode as
// float64 and must not come out as "1.2345e+06".
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// parseExpiration turns a seconds-since-epoch number, a numeric string or
// a textual timestamp into an absolute UTC time.
func parseExpiration(v any) (time.Time, error) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %q: %w", t.String(), err)
		}
		return fromSeconds(f)
	case float64:
		return fromSeconds(t)
	case string:
		s := strings.TrimSpace(t)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSeconds(f)
		}
		for _, layout := range textLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported expiration type %T", v)
	}
}

func fromSeconds(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("invalid timestamp %v", f)
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}
