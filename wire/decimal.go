package wire

import (
	"encoding/json"
	"math/big"

	"polygongo/polygonerr"
)

// Volume decodes a non-negative quantity field. The wire may encode volumes
// as plain integers or in scientific notation (e.g. "3.1315282E7" style
// numbers); both are accepted and converted to an exact int64 when possible.
// AllowFractional, when set before decoding, accepts a lexeme that is not an
// exact int64 instead of erroring: Int64 then holds the value truncated toward
// zero and Exact is false. The fractional part itself is not kept.
type Volume struct {
	Int64           int64
	Exact           bool // false if the lexeme had a fractional remainder
	AllowFractional bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Volume) UnmarshalJSON(data []byte) error {
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return polygonerr.NewDecodeError("volume", err)
	}

	if i, err := num.Int64(); err == nil {
		v.Int64 = i
		v.Exact = true
		return nil
	}

	bf, _, err := big.ParseFloat(num.String(), 10, 200, big.ToNearestEven)
	if err != nil {
		return polygonerr.NewDecodeError("volume", err)
	}

	i, acc := bf.Int64()
	v.Int64 = i
	v.Exact = acc == big.Exact
	if !v.Exact && !v.AllowFractional {
		return polygonerr.NewDecodeError("volume", &volumeNotIntegerError{lexeme: num.String()})
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Volume) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Int64)
}

type volumeNotIntegerError struct{ lexeme string }

func (e *volumeNotIntegerError) Error() string {
	return "volume lexeme " + e.lexeme + " is not an exact integer"
}
