package world

import (
	"encoding/json"
	"fmt"
)

// Value is a sealed interface over the scalar types a property may hold.
// Only Null, Str, Int, and Bool implement it. There is deliberately no
// float variant: floats break cross-host determinism.
type Value interface {
	value() // sealed
}

// Null represents an absent value.
type Null struct{}

func (Null) value() {}

// Str represents a string value.
type Str string

func (Str) value() {}

// Int represents an integer value. Always int64, never float64.
type Int int64

func (Int) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// DecodeValue decodes a JSON scalar into a Value.
// Non-integral numbers, arrays, and objects are rejected.
func DecodeValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return Str(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		return Null{}, nil

	case '[', '{':
		return nil, fmt.Errorf("composite values are not allowed in properties: %s", string(data))

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats are not allowed in properties: %s", string(data))
		}
		return Int(i), nil
	}
}

// MarshalValue encodes a Value as a JSON scalar.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case Str:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	case Bool:
		return json.Marshal(bool(val))
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// String renders a Value the way conditions render literals.
func String(v Value) string {
	switch val := v.(type) {
	case Null:
		return "null"
	case Str:
		return fmt.Sprintf("%q", string(val))
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case Bool:
		return fmt.Sprintf("%t", bool(val))
	default:
		return fmt.Sprintf("<%T>", v)
	}
}

// Equal reports whether two values are the same variant with the same
// content. Values of different variants are never equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	default:
		return false
	}
}

// valueHolder decodes a Value from a JSON document field.
type valueHolder struct {
	v Value
}

func (h *valueHolder) UnmarshalJSON(data []byte) error {
	v, err := DecodeValue(data)
	if err != nil {
		return err
	}
	h.v = v
	return nil
}

func (h valueHolder) MarshalJSON() ([]byte, error) {
	if h.v == nil {
		return []byte("null"), nil
	}
	return MarshalValue(h.v)
}
