package feemath

import "math/bits"

// mulDivFloor computes floor(a*b/d) using a 128-bit intermediate product so
// the multiply cannot silently wrap for any uint64 inputs. ok is false only
// if the quotient itself would not fit in 64 bits.
func mulDivFloor(a, b, d uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, true
}
