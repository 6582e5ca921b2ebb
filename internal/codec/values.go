package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/kailas-cloud/mscatalog/internal/domain"
	"github.com/kailas-cloud/mscatalog/internal/domain/field"
)

// DatetimeLayout is the engine timestamp format. Timestamps are always UTC.
const DatetimeLayout = "2006-01-02T15:04:05Z"

var datetimeInputs = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDatetime accepts time.Time, RFC 3339 and a few common textual layouts, or unix
// seconds as an integer. Anything else is ErrUnparsableDatetime.
func ParseDatetime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, fmt.Errorf("%w: zero time", domain.ErrUnparsableDatetime)
		}
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("%w: nil time", domain.ErrUnparsableDatetime)
		}
		return ParseDatetime(*t)
	case string:
		for _, layout := range datetimeInputs {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrUnparsableDatetime, t)
	}
	if n, ok := integer(v); ok {
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %T", domain.ErrUnparsableDatetime, v)
}

// FormatDatetime parses v and renders it in DatetimeLayout.
func FormatDatetime(v any) (string, error) {
	t, err := ParseDatetime(v)
	if err != nil {
		return "", err
	}
	return t.Format(DatetimeLayout), nil
}

func toTime(v any) (time.Time, bool) {
	t, err := ParseDatetime(v)
	return t, err == nil
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case json.Number:
		return s.String(), true
	case bool:
		return strconv.FormatBool(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	case fmt.Stringer:
		return s.String(), true
	}
	if n, ok := integer(v); ok {
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

func toInt64(v any) (int64, bool) {
	if n, ok := integer(v); ok {
		return n, true
	}
	switch n := v.(type) {
	case float64:
		return floatToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return floatToInt64(f)
		}
	case string:
		if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// floatToInt64 accepts integral floats that fit in int64. 2^63 itself does not.
func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// integer converts Go integer kinds and integral json.Number values.
func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case json.Number:
		parsed, err := n.Int64()
		return parsed, err == nil
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	if n, ok := integer(v); ok {
		return float64(n), true
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	}
	return false, false
}

// asSlice spreads slices and arrays into []any; any other value becomes a one-element slice.
func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case string, []byte:
		return []any{v}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func inferType(v any) field.Type {
	switch n := v.(type) {
	case bool:
		return field.Boolean
	case time.Time:
		return field.Datetime
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return field.Long
		}
		return field.Double
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return field.Long
		}
		return field.Double
	case float32:
		return field.Double
	}
	if _, ok := integer(v); ok {
		return field.Long
	}
	return field.String
}
