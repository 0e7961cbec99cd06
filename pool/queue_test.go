package pool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhbchain/iptpool/pkg/address"
	"github.com/nhbchain/iptpool/pool"
)

func addr(b byte) address.Address {
	var a address.Address
	a[0] = b
	return a
}

func TestQueueEnqueueRejectsDuplicateUser(t *testing.T) {
	q := pool.NewQueue(2)
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(1), ShareAmount: 10}))
	err := q.Enqueue(pool.PendingWithdrawal{User: addr(1), ShareAmount: 20})
	require.Error(t, err)
	require.Equal(t, pool.ErrAlreadyInQueue, pool.KindOf(err))
}

func TestQueueEnqueueRejectsOverCapacity(t *testing.T) {
	q := pool.NewQueue(1)
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(1), ShareAmount: 10}))
	err := q.Enqueue(pool.PendingWithdrawal{User: addr(2), ShareAmount: 10})
	require.Error(t, err)
	require.Equal(t, pool.ErrQueueFull, pool.KindOf(err))
}

func TestQueueFrontAndPopFrontPreserveOrder(t *testing.T) {
	q := pool.NewQueue(3)
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(1), ShareAmount: 1}))
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(2), ShareAmount: 2}))

	front, ok := q.Front()
	require.True(t, ok)
	require.Equal(t, addr(1), front.User)

	popped := q.PopFront()
	require.Equal(t, addr(1), popped.User)

	front, ok = q.Front()
	require.True(t, ok)
	require.Equal(t, addr(2), front.User)
}

func TestQueueRemoveFirstNPopsFromFront(t *testing.T) {
	q := pool.NewQueue(3)
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(1)}))
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(2)}))
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(3)}))

	removed := q.RemoveFirstN(2)
	require.Len(t, removed, 2)
	require.Equal(t, addr(1), removed[0].User)
	require.Equal(t, addr(2), removed[1].User)
	require.Equal(t, 1, q.Len())

	require.Panics(t, func() { q.RemoveFirstN(2) })
}

func TestQueueRemoveAtPreservesRemainingOrder(t *testing.T) {
	q := pool.NewQueue(3)
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(1)}))
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(2)}))
	require.NoError(t, q.Enqueue(pool.PendingWithdrawal{User: addr(3)}))

	idx := q.FindByUser(addr(2))
	require.Equal(t, 1, idx)
	q.RemoveAt(idx)

	require.Equal(t, 2, q.Len())
	entries := q.Entries()
	require.Equal(t, addr(1), entries[0].User)
	require.Equal(t, addr(3), entries[1].User)
}
