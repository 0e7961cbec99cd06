package pool

import "github.com/nhbchain/iptpool/pkg/address"

// PendingWithdrawal is a single queued withdrawal request.
type PendingWithdrawal struct {
	User          address.Address
	ShareAmount   uint64
	MinReserveOut uint64
	EnqueuedAt    uint64
}

// Queue is the bounded, FIFO, unique-by-user pending-withdrawal queue.
// Iteration is always front-to-back; settlement only ever touches the
// front.
type Queue struct {
	capacity uint32
	entries  []PendingWithdrawal
}

// NewQueue constructs an empty queue with the given capacity.
func NewQueue(capacity uint32) *Queue {
	return &Queue{capacity: capacity}
}

// Len returns the number of entries currently queued.
func (q *Queue) Len() int { return len(q.entries) }

// Capacity returns the queue's configured maximum size.
func (q *Queue) Capacity() uint32 { return q.capacity }

// SetCapacity updates the bound enforced by future Enqueue calls. Callers
// (admin_update_config) are responsible for first checking the new capacity
// does not fall below the current length.
func (q *Queue) SetCapacity(capacity uint32) { q.capacity = capacity }

// Entries returns a defensive copy of the queue contents, front first.
func (q *Queue) Entries() []PendingWithdrawal {
	out := make([]PendingWithdrawal, len(q.entries))
	copy(out, q.entries)
	return out
}

// FindByUser returns the index of the entry owned by user, or -1.
func (q *Queue) FindByUser(user address.Address) int {
	for i := range q.entries {
		if q.entries[i].User == user {
			return i
		}
	}
	return -1
}

// Enqueue appends p to the back of the queue.
func (q *Queue) Enqueue(p PendingWithdrawal) error {
	if uint32(len(q.entries)) >= q.capacity {
		return newError(ErrQueueFull, "queue at capacity %d", q.capacity)
	}
	if q.FindByUser(p.User) >= 0 {
		return newError(ErrAlreadyInQueue, "user %s already has a queued withdrawal", p.User)
	}
	q.entries = append(q.entries, p)
	return nil
}

// RemoveFirstN removes and returns the front n entries. It panics if n
// exceeds the current length — callers must bound n against Len() first,
// the way batch_execute_withdraw bounds its batch against the queue.
func (q *Queue) RemoveFirstN(n int) []PendingWithdrawal {
	if n > len(q.entries) {
		panic("pool: RemoveFirstN bound exceeds queue length")
	}
	removed := make([]PendingWithdrawal, n)
	copy(removed, q.entries[:n])
	q.entries = append([]PendingWithdrawal(nil), q.entries[n:]...)
	return removed
}

// RemoveAt removes the entry at index i, preserving order of the rest.
func (q *Queue) RemoveAt(i int) PendingWithdrawal {
	removed := q.entries[i]
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return removed
}

// Front returns the entry at the head of the queue and true, or the zero
// value and false if the queue is empty.
func (q *Queue) Front() (PendingWithdrawal, bool) {
	if len(q.entries) == 0 {
		return PendingWithdrawal{}, false
	}
	return q.entries[0], true
}

// PopFront removes and returns the head entry.
func (q *Queue) PopFront() PendingWithdrawal {
	p := q.entries[0]
	q.entries = q.entries[1:]
	return p
}
