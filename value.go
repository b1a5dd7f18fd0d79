package sapling

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotNumeric is returned when a value holding a domain payload is read as
// a number.
var ErrNotNumeric = errors.New("sapling: value cannot be cast to a number")

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNone   Kind = iota // absent (node produced no value)
	KindNumber             // float64
	KindBool               // boolean
	KindOther              // domain-specific payload supplied by a node kind
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Value is the result of evaluating a node. The zero Value is absent.
type Value struct {
	kind    Kind
	num     float64
	b       bool
	payload any
}

// None returns the absent value.
func None() Value { return Value{} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Other wraps a domain payload. A nil payload is the absent value.
func Other(v any) Value {
	if v == nil {
		return Value{}
	}
	return Value{kind: KindOther, payload: v}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is absent.
func (v Value) IsNone() bool { return v.kind == KindNone }

// Payload returns the domain payload for KindOther values, or nil.
func (v Value) Payload() any { return v.payload }

// Float64 coerces v to a number: absent is 0, booleans are 1 or 0, numbers
// pass through. Domain payloads return ErrNotNumeric.
func (v Value) Float64() (float64, error) {
	switch v.kind {
	case KindNone:
		return 0, nil
	case KindNumber:
		return v.num, nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindOther:
		return 0, fmt.Errorf("%w (payload %T)", ErrNotNumeric, v.payload)
	default:
		return 0, fmt.Errorf("%w (kind %d)", ErrNotNumeric, v.kind)
	}
}

// Equal reports whether v and other hold the same variant and contents.
// Domain payloads are compared with ==, so non-comparable payloads panic.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindOther:
		return v.payload == other.payload
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return fmt.Sprintf("%v", v.payload)
	}
}
