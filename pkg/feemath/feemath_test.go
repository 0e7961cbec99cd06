package feemath_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhbchain/iptpool/pkg/feemath"
)

func TestApplyBps_HappyPath(t *testing.T) {
	// 100 bps of a 1_034.2 R gross withdrawal.
	net, fee, err := feemath.ApplyBps(1_034_200_000, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(10_342_000), fee)
	require.Equal(t, uint64(1_023_858_000), net)
}

func TestApplyBps_ZeroBpsNeverAccruesFee(t *testing.T) {
	net, fee, err := feemath.ApplyBps(1_000_000, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), fee)
	require.Equal(t, uint64(1_000_000), net)
}

func TestApplyBps_FullRateZeroesNet(t *testing.T) {
	net, fee, err := feemath.ApplyBps(1_000_000, feemath.MaxBps)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), fee)
	require.Equal(t, uint64(0), net)
}

func TestApplyBps_RejectsOutOfRangeBps(t *testing.T) {
	_, _, err := feemath.ApplyBps(1_000_000, feemath.MaxBps+1)
	require.ErrorIs(t, err, feemath.ErrInvalidFeeRate)
}
