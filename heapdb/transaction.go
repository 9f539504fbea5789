package heapdb

import "sync/atomic"

// TransactionID is an opaque, monotonically increasing identifier. It owns
// no resources itself; the buffer pool and lock manager track everything a
// transaction holds, keyed by this value.
type TransactionID int64

var tidCounter int64

// NewTID allocates a fresh, never-reused transaction id.
func NewTID() TransactionID {
	return TransactionID(atomic.AddInt64(&tidCounter, 1))
}
