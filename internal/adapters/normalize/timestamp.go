package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp reads a unix-seconds timestamp from a native number or a numeric
// string. Anything else falls back to now, truncated to whole seconds.
func Timestamp(value any, now time.Time) int64 {
	if ts, ok := parseTimestamp(value); ok {
		return ts
	}
	return now.Unix()
}

func parseTimestamp(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return fromUint(v)
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case json.Number:
		return parseTimestampString(v.String())
	case string:
		return parseTimestampString(v)
	default:
		return 0, false
	}
}

func parseTimestampString(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ts, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return fromFloat(f)
}

func fromUint(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func fromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
