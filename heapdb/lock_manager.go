package heapdb

import (
	"math/rand"
	"sync"
	"time"
)

// lockManager grants shared and exclusive locks on individual pages to
// transactions. Unlike a wait-for-graph deadlock detector, it never builds
// a dependency graph: a transaction that cannot acquire a lock within a
// randomized timeout simply gives up and aborts itself. This trades
// optimal concurrency for a much smaller, easier-to-reason-about
// implementation, which is the right call for a teaching engine.
type lockManager struct {
	mu      sync.Mutex
	cond    *sync.Cond
	shared  map[PageId]map[TransactionID]struct{}
	excl    map[PageId]TransactionID
	held    map[TransactionID]map[PageId]struct{} // every page tid currently holds, any mode
}

func newLockManager() *lockManager {
	lm := &lockManager{
		shared: make(map[PageId]map[TransactionID]struct{}),
		excl:   make(map[PageId]TransactionID),
		held:   make(map[TransactionID]map[PageId]struct{}),
	}
	lm.cond = sync.NewCond(&lm.mu)
	return lm
}

func randomTimeout(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// acquire blocks until tid holds perm on pid, or returns TxnAborted once
// the randomized timeout for perm elapses. Re-requesting a lock tid
// already holds at or above perm is a no-op (reentrant). Requesting
// WritePerm while tid is the sole shared holder is a shared-to-exclusive
// upgrade.
func (lm *lockManager) acquire(tid TransactionID, pid PageId, perm RWPerm) error {
	cfg := CurrentConfig()
	var timeout time.Duration
	if perm == WritePerm {
		timeout = randomTimeout(cfg.ExclLockMin, cfg.ExclLockMax)
	} else {
		timeout = randomTimeout(cfg.SharedLockMin, cfg.SharedLockMax)
	}
	deadline := time.Now().Add(timeout)

	lm.mu.Lock()
	defer lm.mu.Unlock()

	for !lm.canGrantLocked(tid, pid, perm) {
		if !time.Now().Before(deadline) {
			return EngineError{Kind: TxnAborted, Msg: "lock acquisition timed out"}
		}
		timer := time.AfterFunc(time.Until(deadline), func() {
			lm.mu.Lock()
			lm.cond.Broadcast()
			lm.mu.Unlock()
		})
		lm.cond.Wait()
		timer.Stop()
	}
	lm.grantLocked(tid, pid, perm)
	return nil
}

func (lm *lockManager) canGrantLocked(tid TransactionID, pid PageId, perm RWPerm) bool {
	if holder, ok := lm.excl[pid]; ok {
		return holder == tid
	}
	if perm == ReadPerm {
		return true
	}
	// WritePerm: fine if nobody holds the page, or tid is the only shared holder.
	holders := lm.shared[pid]
	if len(holders) == 0 {
		return true
	}
	if len(holders) == 1 {
		_, soleHolder := holders[tid]
		return soleHolder
	}
	return false
}

func (lm *lockManager) grantLocked(tid TransactionID, pid PageId, perm RWPerm) {
	if perm == WritePerm {
		if holders := lm.shared[pid]; holders != nil {
			delete(holders, tid)
		}
		lm.excl[pid] = tid
	} else {
		if lm.shared[pid] == nil {
			lm.shared[pid] = make(map[TransactionID]struct{})
		}
		lm.shared[pid][tid] = struct{}{}
	}
	if lm.held[tid] == nil {
		lm.held[tid] = make(map[PageId]struct{})
	}
	lm.held[tid][pid] = struct{}{}
}

// holdsLock reports whether tid holds any lock on pid.
func (lm *lockManager) holdsLock(tid TransactionID, pid PageId) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.excl[pid] == tid {
		return true
	}
	_, ok := lm.shared[pid][tid]
	return ok
}

// releaseAll drops every lock tid holds, waking any transactions blocked on
// those pages.
func (lm *lockManager) releaseAll(tid TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for pid := range lm.held[tid] {
		if lm.excl[pid] == tid {
			delete(lm.excl, pid)
		}
		if holders := lm.shared[pid]; holders != nil {
			delete(holders, tid)
			if len(holders) == 0 {
				delete(lm.shared, pid)
			}
		}
	}
	delete(lm.held, tid)
	lm.cond.Broadcast()
}

// releaseOne drops tid's lock on pid alone, leaving any other locks tid
// holds untouched, and wakes any transactions blocked on pid.
func (lm *lockManager) releaseOne(tid TransactionID, pid PageId) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.excl[pid] == tid {
		delete(lm.excl, pid)
	}
	if holders := lm.shared[pid]; holders != nil {
		delete(holders, tid)
		if len(holders) == 0 {
			delete(lm.shared, pid)
		}
	}
	if held := lm.held[tid]; held != nil {
		delete(held, pid)
		if len(held) == 0 {
			delete(lm.held, tid)
		}
	}
	lm.cond.Broadcast()
}

// pagesHeld returns every page tid currently holds a lock on.
func (lm *lockManager) pagesHeld(tid TransactionID) []PageId {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	pages := make([]PageId, 0, len(lm.held[tid]))
	for pid := range lm.held[tid] {
		pages = append(pages, pid)
	}
	return pages
}
