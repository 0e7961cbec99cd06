// Package fixedpoint implements the exact R<->S conversions the pool relies
// on: six-decimal fixed-point amounts on both sides of a rate scaled by
// 1e6, computed with a 128-bit intermediate so the multiply never overflows
// before the divide.
package fixedpoint

import (
	"errors"
	"math/bits"
)

// Scale is the fixed-point scale applied to both R and S amounts and to the
// exchange rate itself, which is stored as R_per_S * 10^6.
const Scale = 1_000_000

// ErrArithmeticOverflow reports a quotient that does not fit in 64 bits: a
// bug or an extreme input, always fatal to the enclosing operation.
var ErrArithmeticOverflow = errors.New("fixedpoint: arithmetic overflow")

// ErrInvalidExchangeRate corresponds to InvalidExchangeRate raised by the
// conversion functions themselves when rate == 0.
var ErrInvalidExchangeRate = errors.New("fixedpoint: rate must be positive")

// mul128 multiplies two uint64 values into a 128-bit (hi, lo) pair without
// overflow, mirroring how a systems language would widen before dividing.
func mul128(a, b uint64) (hi, lo uint64) {
	return bits.Mul64(a, b)
}

// div128 divides a 128-bit (hi, lo) numerator by a uint64 divisor, floored,
// returning ErrArithmeticOverflow if the quotient does not fit in 64 bits.
func div128(hi, lo, divisor uint64) (uint64, error) {
	if divisor == 0 {
		return 0, ErrInvalidExchangeRate
	}
	if hi >= divisor {
		// Quotient would need more than 64 bits.
		return 0, ErrArithmeticOverflow
	}
	q, _ := bits.Div64(hi, lo, divisor)
	return q, nil
}

// RToS converts a raw R amount to raw S units at the given rate:
//
//	s_out = floor(r_in * 10^6 / rate)
//
// rate == 0 is rejected with ErrInvalidExchangeRate. Rounds toward zero.
func RToS(rIn uint64, rate uint64) (uint64, error) {
	if rate == 0 {
		return 0, ErrInvalidExchangeRate
	}
	hi, lo := mul128(rIn, Scale)
	return div128(hi, lo, rate)
}

// SToR converts a raw S amount to raw R units at the given rate:
//
//	r_out = floor(s_in * rate / 10^6)
//
// Rounds toward zero.
func SToR(sIn uint64, rate uint64) (uint64, error) {
	if rate == 0 {
		return 0, ErrInvalidExchangeRate
	}
	hi, lo := mul128(sIn, rate)
	return div128(hi, lo, Scale)
}
