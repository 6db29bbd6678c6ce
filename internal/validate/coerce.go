package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Kind is the coercion type system: the small set of field types a
// departure record can carry.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	}
	return "unknown"
}

// TimeFormat is the named format for string-encoded timestamps.
const TimeFormat = "2006/01/02, 15:04:05"

// Integer timestamps above this bound are epoch milliseconds.
const epochMillisBound = 1 << 34

type coerceKey struct {
	from Kind
	to   Kind
}

type coerceFunc func(v any) (any, error)

// coercions maps (source-type, target-type) pairs to pure conversion
// functions. Pairs absent from the table are not coercible.
var coercions = map[coerceKey]coerceFunc{
	{KindString, KindString}: func(v any) (any, error) { return v.(string), nil },
	{KindInt, KindInt}:       func(v any) (any, error) { return v.(int64), nil },
	{KindFloat, KindFloat}:   func(v any) (any, error) { return v.(float64), nil },
	{KindBool, KindBool}:     func(v any) (any, error) { return v.(bool), nil },
	{KindTime, KindTime}:     func(v any) (any, error) { return v.(time.Time), nil },

	{KindInt, KindFloat}:  func(v any) (any, error) { return float64(v.(int64)), nil },
	{KindInt, KindBool}:   intToBool,
	{KindInt, KindTime}:   func(v any) (any, error) { return epochToTime(v.(int64)), nil },
	{KindFloat, KindInt}:  floatToInt,
	{KindFloat, KindBool}: floatToBool,
	{KindFloat, KindTime}: floatToTime,
	{KindString, KindInt}: stringToInt,
	{KindString, KindFloat}: func(v any) (any, error) {
		return strconv.ParseFloat(strings.TrimSpace(v.(string)), 64)
	},
	{KindString, KindTime}: func(v any) (any, error) {
		return time.Parse(TimeFormat, v.(string))
	},
}

// Coerce converts a raw JSON value to the target kind via the coercion
// table. The source kind is taken from the dynamic type of v.
func Coerce(v any, to Kind) (any, error) {
	from, ok := kindOf(v)
	if !ok {
		return nil, fmt.Errorf("unsupported source type %T", v)
	}
	fn, ok := coercions[coerceKey{from, to}]
	if !ok {
		return nil, fmt.Errorf("no coercion from %s to %s", from, to)
	}
	out, err := fn(normalize(v))
	if err != nil {
		return nil, fmt.Errorf("cannot coerce %v (%s) to %s: %w", v, from, to, err)
	}
	return out, nil
}

func kindOf(v any) (Kind, bool) {
	switch v.(type) {
	case string:
		return KindString, true
	case int, int64:
		return KindInt, true
	case float64:
		return KindFloat, true
	case bool:
		return KindBool, true
	case time.Time:
		return KindTime, true
	}
	return 0, false
}

// normalize widens int to int64 so the table functions see one integer type.
func normalize(v any) any {
	if i, ok := v.(int); ok {
		return int64(i)
	}
	return v
}

func intToBool(v any) (any, error) {
	i := v.(int64)
	if i != 0 && i != 1 {
		return nil, fmt.Errorf("integer %d is not in {0, 1}", i)
	}
	return i == 1, nil
}

func floatToInt(v any) (any, error) {
	f := v.(float64)
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("float %v has a fractional part", f)
	}
	return int64(f), nil
}

func floatToBool(v any) (any, error) {
	i, err := floatToInt(v)
	if err != nil {
		return nil, err
	}
	return intToBool(i)
}

func floatToTime(v any) (any, error) {
	i, err := floatToInt(v)
	if err != nil {
		return nil, err
	}
	return epochToTime(i.(int64)), nil
}

// epochToTime interprets large epoch values as milliseconds.
func epochToTime(epoch int64) time.Time {
	if epoch > epochMillisBound {
		epoch /= 1000
	}
	return time.Unix(epoch, 0).UTC()
}

func stringToInt(v any) (any, error) {
	s := strings.TrimSpace(v.(string))
	if s == "" {
		return int64(0), nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// ExtractDigits keeps only the digit runes of s, for fields like platform
// numbers that arrive with decoration ("Gleis 4" -> "4").
func ExtractDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
