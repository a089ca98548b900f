package domain

import (
	"fmt"
	"math"
)

// ValueType is the declared type of a property port's value.
type ValueType string

const (
	ValueBool   ValueType = "bool"
	ValueInt    ValueType = "int"
	ValueFloat  ValueType = "float"
	ValueString ValueType = "string"
	ValueAny    ValueType = "any"
)

// ValueTypes lists every supported value type.
var ValueTypes = []ValueType{ValueBool, ValueInt, ValueFloat, ValueString, ValueAny}

// ParseValueType converts a type tag into a ValueType.
func ParseValueType(s string) (ValueType, error) {
	for _, vt := range ValueTypes {
		if string(vt) == s {
			return vt, nil
		}
	}
	return "", fmt.Errorf("unknown value type %q: %w", s, ErrInvalidArgument)
}

// IsValid reports whether vt is one of the supported value types.
func (vt ValueType) IsValid() bool {
	_, err := ParseValueType(string(vt))
	return err == nil
}

// AssignableFrom reports whether a value of type src may flow into a port of
// type vt. Equal types are assignable, any accepts everything, and float
// accepts int.
func (vt ValueType) AssignableFrom(src ValueType) bool {
	switch {
	case vt == src:
		return true
	case vt == ValueAny:
		return true
	case vt == ValueFloat && src == ValueInt:
		return true
	}
	return false
}

// Zero returns the zero value for vt.
func (vt ValueType) Zero() any {
	switch vt {
	case ValueBool:
		return false
	case ValueInt:
		return int64(0)
	case ValueFloat:
		return float64(0)
	case ValueString:
		return ""
	}
	return nil
}

// Check validates v against vt and returns it in canonical form: int64 for
// int, float64 for float. A nil value yields the zero value.
func (vt ValueType) Check(v any) (any, error) {
	if !vt.IsValid() {
		return nil, fmt.Errorf("unknown value type %q: %w", vt, ErrInvalidArgument)
	}
	if v == nil {
		return vt.Zero(), nil
	}
	switch vt {
	case ValueAny:
		return v, nil
	case ValueBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case ValueString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case ValueInt:
		if i, ok := toInt64(v); ok {
			return i, nil
		}
	case ValueFloat:
		switch f := v.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		}
		if i, ok := toInt64(v); ok {
			return float64(i), nil
		}
	}
	return nil, fmt.Errorf("value %v (%T) is not assignable to %s: %w", v, v, vt, ErrInvalidArgument)
}

func toInt64(v any) (int64, bool) {
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
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
