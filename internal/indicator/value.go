package indicator

import (
	"encoding/json"
	"math"
)

// Value is an optional float64. The zero Value is undefined.
type Value struct {
	v  float64
	ok bool
}

// Some returns a defined Value. Non-finite inputs collapse to undefined.
func Some(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{v: f, ok: true}
}

// None returns an undefined Value.
func None() Value { return Value{} }

// Get returns the value and whether it is defined.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// Valid reports whether the value is defined.
func (v Value) Valid() bool { return v.ok }

// Float returns the value or 0 when undefined.
func (v Value) Float() float64 {
	if !v.ok {
		return 0
	}
	return v.v
}

// Ptr returns nil for undefined values.
func (v Value) Ptr() *float64 {
	if !v.ok {
		return nil
	}
	f := v.v
	return &f
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Series is an indicator output aligned with its input.
type Series []Value

// Last returns the final element, undefined for an empty series.
func (s Series) Last() Value {
	if len(s) == 0 {
		return None()
	}
	return s[len(s)-1]
}

// Defined counts defined positions.
func (s Series) Defined() int {
	n := 0
	for _, v := range s {
		if v.ok {
			n++
		}
	}
	return n
}

// FirstDefined returns the index of the first defined position or -1.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if v.ok {
			return i
		}
	}
	return -1
}

func undefinedSeries(n int) Series {
	return make(Series, n)
}
