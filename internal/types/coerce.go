package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/schemac/internal/ir"
)

// CoercionError reports a value that cannot be converted to a type without
// loss.
type CoercionError struct {
	Type   string
	Value  any
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %T %v to %s: %s", e.Value, e.Value, e.Type, e.Reason)
}

// Coerce converts v to the type's native kind. Conversions are lossless:
// numeric strings become numbers, integral floats become integers, and
// "true"/"false" become booleans. A nil input returns nil.
func (t *Type) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if lit, ok := v.(ir.Value); ok {
		v = ir.ToAny(lit)
		if v == nil {
			return nil, nil
		}
	}

	var (
		out any
		err error
	)
	switch t.Kind {
	case KindString:
		out, err = toString(v)
	case KindInteger:
		out, err = toInteger(v)
	case KindFloat:
		out, err = toFloat(v)
	case KindBoolean:
		out, err = toBoolean(v)
	case KindDate:
		out, err = toDate(v)
	case KindDateTime:
		out, err = toDateTime(v)
	case KindTime:
		out, err = toTime(v)
	default:
		err = fmt.Errorf("unknown kind %s", t.Kind)
	}
	if err != nil {
		return nil, &CoercionError{Type: t.Name, Value: v, Reason: err.Error()}
	}
	return out, nil
}

func toString(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case Date:
		return val.String(), nil
	case DateTime:
		return val.String(), nil
	case TimeOfDay:
		return val.String(), nil
	case json.Number:
		return val.String(), nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	}
	return nil, fmt.Errorf("not a scalar text value")
}

func toInteger(v any) (any, error) {
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("out of int64 range")
		}
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("out of int64 range")
		}
		return int64(val), nil
	case float32:
		return integralFloat(float64(val))
	case float64:
		return integralFloat(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, err
		}
		return integralFloat(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer literal")
		}
		return n, nil
	}
	return nil, fmt.Errorf("not a number")
}

func integralFloat(f float64) (any, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("has a fractional part")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, fmt.Errorf("out of int64 range")
	}
	return int64(f), nil
}

func toFloat(v any) (any, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("not a numeric literal")
		}
		return f, nil
	}
	return nil, fmt.Errorf("not a number")
}

func toBoolean(v any) (any, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean literal")
	}
	return nil, fmt.Errorf("not a boolean")
}

func toDate(v any) (any, error) {
	switch val := v.(type) {
	case Date:
		return val, nil
	case time.Time:
		y, m, d := val.Date()
		return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}, nil
	case string:
		t, err := time.Parse(DateLayout, strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("not a %s date", DateLayout)
		}
		return Date{t}, nil
	}
	return nil, fmt.Errorf("not a date")
}

func toDateTime(v any) (any, error) {
	switch val := v.(type) {
	case DateTime:
		return val, nil
	case time.Time:
		return DateTime{val}, nil
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return DateTime{t}, nil
			}
		}
		return nil, fmt.Errorf("not an RFC 3339 datetime")
	}
	return nil, fmt.Errorf("not a datetime")
}

func toTime(v any) (any, error) {
	switch val := v.(type) {
	case TimeOfDay:
		return val, nil
	case time.Time:
		return TimeOfDay{val}, nil
	case string:
		t, err := time.Parse(TimeLayout, strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("not a %s time", TimeLayout)
		}
		return TimeOfDay{t}, nil
	}
	return nil, fmt.Errorf("not a time")
}
