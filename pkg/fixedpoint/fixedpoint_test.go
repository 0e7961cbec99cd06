package fixedpoint_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhbchain/iptpool/pkg/fixedpoint"
)

func TestRToS_HappyPath(t *testing.T) {
	// rate = 1.0342 R/S, deposit 10k R: floor(1e16 / 1_034_200).
	shares, err := fixedpoint.RToS(10_000_000_000, 1_034_200)
	require.NoError(t, err)
	require.Equal(t, uint64(9_669_309_611), shares)
}

func TestSToR_HappyPath(t *testing.T) {
	// Burning 1_000 S at 1.0342 R/S grosses 1_034.2 R.
	gross, err := fixedpoint.SToR(1_000_000_000, 1_034_200)
	require.NoError(t, err)
	require.Equal(t, uint64(1_034_200_000), gross)
}

func TestRToSFloorsTowardZero(t *testing.T) {
	rate := uint64(1_034_200)

	// 1 * 1e6 / 1_034_200 = 0.967 -> 0: the remainder is never credited.
	s, err := fixedpoint.RToS(1, rate)
	require.NoError(t, err)
	require.Equal(t, uint64(0), s)

	// 7 * 1e6 / 1_034_200 = 6.768 -> 6.
	s, err = fixedpoint.RToS(7, rate)
	require.NoError(t, err)
	require.Equal(t, uint64(6), s)
}

func TestZeroRateRejected(t *testing.T) {
	_, err := fixedpoint.RToS(100, 0)
	require.ErrorIs(t, err, fixedpoint.ErrInvalidExchangeRate)

	_, err = fixedpoint.SToR(100, 0)
	require.ErrorIs(t, err, fixedpoint.ErrInvalidExchangeRate)
}

func TestOverflowDetected(t *testing.T) {
	_, err := fixedpoint.RToS(math.MaxUint64, 1)
	require.ErrorIs(t, err, fixedpoint.ErrArithmeticOverflow)
}

func TestSToRDetectsOverflowOnLargeRate(t *testing.T) {
	_, err := fixedpoint.SToR(math.MaxUint64, math.MaxUint64)
	require.ErrorIs(t, err, fixedpoint.ErrArithmeticOverflow)
}
