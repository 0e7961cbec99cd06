package pool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhbchain/iptpool/pool"
)

func TestRecordRoundTripPreservesQueueAndBalances(t *testing.T) {
	cfg := baseConfig(10, 25, 1_034_200)
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.MintShares(user, 1_000_000_000)
	h.engine.Pool().TotalShareSupply += 1_000_000_000
	h.approvePoolAuthority(user, 1_000_000_000)
	require.NoError(t, h.engine.UserWithdrawalRequest(user, 1_000_000_000, 500_000_000))

	data, err := pool.EncodeRecord(h.engine.Pool())
	require.NoError(t, err)

	decoded, err := pool.DecodeRecord(data)
	require.NoError(t, err)

	require.Equal(t, h.engine.Pool().Snapshot(), decoded.Snapshot())
	entries := decoded.Queue.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, user, entries[0].User)
	require.Equal(t, uint64(1_000_000_000), entries[0].ShareAmount)
	require.Equal(t, uint64(500_000_000), entries[0].MinReserveOut)
}
