package sqlval

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface over the SQLite storage classes.
// Only Null, Integer, Real, Text, and Blob implement it.
//
// Values appear in two places: as literals embedded in expression trees,
// and as the ordered bind arguments of a generated statement.
type Value interface {
	sqlValue() // Sealed - only these types implement it
}

// Null represents the SQL NULL value.
// Using an explicit type keeps nil out of Value slices.
type Null struct{}

func (Null) sqlValue() {}

// Integer represents a SQL INTEGER value. Always int64.
type Integer int64

func (Integer) sqlValue() {}

// Real represents a SQL REAL value.
type Real float64

func (Real) sqlValue() {}

// Text represents a SQL TEXT value.
type Text string

func (Text) sqlValue() {}

// Blob represents a SQL BLOB value.
type Blob []byte

func (Blob) sqlValue() {}

// Of converts a Go native value to a Value.
//
// Supported types: nil, bool (stored as INTEGER 0/1, SQLite convention),
// all signed and unsigned integer types, float32/float64, string, []byte,
// and Value itself (passthrough).
func Of(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		if val {
			return Integer(1), nil
		}
		return Integer(0), nil
	case int:
		return Integer(val), nil
	case int8:
		return Integer(val), nil
	case int16:
		return Integer(val), nil
	case int32:
		return Integer(val), nil
	case int64:
		return Integer(val), nil
	case uint:
		return Integer(val), nil
	case uint8:
		return Integer(val), nil
	case uint16:
		return Integer(val), nil
	case uint32:
		return Integer(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("uint64 value %d overflows SQL INTEGER", val)
		}
		return Integer(val), nil
	case float32:
		return Real(val), nil
	case float64:
		return Real(val), nil
	case string:
		return Text(val), nil
	case []byte:
		return Blob(val), nil
	default:
		return nil, fmt.Errorf("unsupported type for SQL value: %T", v)
	}
}

// MustOf is Of for values known at compile time to be convertible.
// Panics on unsupported types - reserved for literal construction sites.
func MustOf(v any) Value {
	val, err := Of(v)
	if err != nil {
		panic(err)
	}
	return val
}

// IsNull reports whether v is the SQL NULL value.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// Bindable converts a Value slice to the []any shape database/sql expects.
func Bindable(values []Value) []any {
	args := make([]any, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case Null:
			args[i] = nil
		case Integer:
			args[i] = int64(val)
		case Real:
			args[i] = float64(val)
		case Text:
			args[i] = string(val)
		case Blob:
			args[i] = []byte(val)
		}
	}
	return args
}

// String renders a Value for diagnostics. Not a SQL literal - generated
// statements always bind values through placeholders.
func String(v Value) string {
	switch val := v.(type) {
	case Null:
		return "NULL"
	case Integer:
		return strconv.FormatInt(int64(val), 10)
	case Real:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Text:
		return strconv.Quote(string(val))
	case Blob:
		return fmt.Sprintf("<%d-byte blob>", len(val))
	default:
		return fmt.Sprintf("<unknown %T>", v)
	}
}
