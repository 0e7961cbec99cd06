// Package feemath splits a gross R amount into a net payout and a
// basis-point fee, using the same floor-division shape throughout.
package feemath

import "errors"

// MaxBps is the basis-point denominator: 10_000 bps == 100%.
const MaxBps = 10_000

// ErrInvalidFeeRate rejects a bps value past the 100% denominator.
var ErrInvalidFeeRate = errors.New("feemath: bps must not exceed 10000")

// ApplyBps splits amount into (net, fee) where fee = floor(amount*bps/10000)
// and net = amount - fee. bps > MaxBps is rejected.
func ApplyBps(amount uint64, bps uint16) (net uint64, fee uint64, err error) {
	if bps > MaxBps {
		return 0, 0, ErrInvalidFeeRate
	}
	if bps == 0 || amount == 0 {
		return amount, 0, nil
	}
	// amount*bps can exceed 64 bits (at bps == 10000, for any amount above
	// ~1.8e15), so the product is widened to 128 bits the same way the
	// fixed-point package does, staying overflow-safe for the full uint64
	// range.
	feeAmount, ok := mulDivFloor(amount, uint64(bps), MaxBps)
	if !ok {
		// The quotient did not fit in 64 bits, which cannot happen for
		// bps <= 10000 (the fee never exceeds amount), but fail closed
		// rather than silently wrapping.
		return 0, 0, ErrInvalidFeeRate
	}
	return amount - feeAmount, feeAmount, nil
}
