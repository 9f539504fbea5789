package heapdb

import (
	"container/list"
	"sync"
)

// RWPerm is the permission requested when fetching a page: ReadPerm takes a
// shared lock, WritePerm an exclusive one.
type RWPerm int

const (
	ReadPerm RWPerm = iota
	WritePerm
)

// BufferPool caches pages read from DBFiles, up to a fixed capacity, and is
// the sole path through which pages are read for a transaction: it manages
// LRU eviction (never evicting a dirty page, since the engine is
// NO-STEAL/FORCE) and delegates per-page locking to a lockManager.
type BufferPool struct {
	mu       sync.Mutex
	capacity int
	locks    *lockManager

	// lru orders cached pages from least- (front) to most- (back) recently
	// used; elem.Value is a *poolEntry. entries maps a PageId to its list
	// element so lookups and promotion are O(1).
	lru     *list.List
	entries map[PageId]*list.Element

	txnPages map[TransactionID]map[PageId]struct{} // pages each live transaction has touched
}

type poolEntry struct {
	pid  PageId
	page Page
}

// NewBufferPool creates a buffer pool holding at most numPages pages.
func NewBufferPool(numPages int) (*BufferPool, error) {
	return &BufferPool{
		capacity: numPages,
		locks:    newLockManager(),
		lru:      list.New(),
		entries:  make(map[PageId]*list.Element),
		txnPages: make(map[TransactionID]map[PageId]struct{}),
	}, nil
}

func (bp *BufferPool) touchLocked(tid TransactionID, pid PageId) {
	if bp.txnPages[tid] == nil {
		bp.txnPages[tid] = make(map[PageId]struct{})
	}
	bp.txnPages[tid][pid] = struct{}{}
}

// promote moves pid to the back (most-recently-used end) of the LRU list.
func (bp *BufferPool) promote(pid PageId) {
	if elem, ok := bp.entries[pid]; ok {
		bp.lru.MoveToBack(elem)
	}
}

// GetPage returns the page identified by (file, pageNumber) on behalf of
// tid, first acquiring perm on it. Blocks until the lock is granted or
// tid's lock timeout expires; on timeout tid is aborted (its dirty pages
// discarded and its locks released) and TxnAborted is returned.
func (bp *BufferPool) GetPage(file DBFile, pageNumber int, tid TransactionID, perm RWPerm) (Page, error) {
	pid := PageId{TableId: file.Id(), PageNo: pageNumber}

	if err := bp.locks.acquire(tid, pid, perm); err != nil {
		if IsKind(err, TxnAborted) {
			bp.AbortTransaction(tid)
		}
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.touchLocked(tid, pid)

	if elem, ok := bp.entries[pid]; ok {
		bp.lru.MoveToBack(elem)
		return elem.Value.(*poolEntry).page, nil
	}

	if len(bp.entries) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	page, err := file.ReadPage(pageNumber)
	if err != nil {
		return nil, err
	}
	elem := bp.lru.PushBack(&poolEntry{pid: pid, page: page})
	bp.entries[pid] = elem
	return page, nil
}

// evictLocked removes the least-recently-used clean page from the pool.
// Dirty pages are never eviction candidates under NO-STEAL.
func (bp *BufferPool) evictLocked() error {
	for elem := bp.lru.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*poolEntry)
		if _, dirty := entry.page.IsDirty(); dirty {
			continue
		}
		bp.lru.Remove(elem)
		delete(bp.entries, entry.pid)
		return nil
	}
	return NewEngineError(NoSpace, "buffer pool full of dirty pages")
}

// FlushAllPages writes every dirty cached page back to its file. Intended
// for tests; not transaction-aware.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for elem := bp.lru.Front(); elem != nil; elem = elem.Next() {
		page := elem.Value.(*poolEntry).page
		if _, dirty := page.IsDirty(); !dirty {
			continue
		}
		if err := page.getFile().flushPage(page); err != nil {
			return err
		}
		page.MarkDirty(false, 0)
	}
	return nil
}

// BeginTransaction registers tid as live. Pages aren't touched until
// GetPage is first called for tid.
func (bp *BufferPool) BeginTransaction(tid TransactionID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if _, exists := bp.txnPages[tid]; exists {
		return NewEngineError(TxnAborted, "transaction already started")
	}
	bp.txnPages[tid] = make(map[PageId]struct{})
	return nil
}

// CommitTransaction flushes every page tid dirtied, then releases tid's
// locks. This engine is FORCE/NO-STEAL: committing always writes dirty
// pages to disk immediately, so there is no write-ahead log to replay on
// restart.
func (bp *BufferPool) CommitTransaction(tid TransactionID) error {
	bp.mu.Lock()
	var flushErr error
	for pid := range bp.txnPages[tid] {
		elem, ok := bp.entries[pid]
		if !ok {
			continue
		}
		page := elem.Value.(*poolEntry).page
		if _, dirty := page.IsDirty(); dirty {
			if err := page.getFile().flushPage(page); err != nil {
				flushErr = err
				break
			}
			page.MarkDirty(false, 0)
		}
	}
	delete(bp.txnPages, tid)
	bp.mu.Unlock()

	// Always release tid's locks, even when a flush failed: a failed commit
	// still ends the transaction, and leaving its locks held would block
	// every future transaction touching the same pages forever.
	bp.locks.releaseAll(tid)
	return flushErr
}

// AbortTransaction discards every page tid dirtied (so a later read sees
// the version last flushed to disk, not tid's in-progress edits) and
// releases tid's locks.
func (bp *BufferPool) AbortTransaction(tid TransactionID) {
	bp.mu.Lock()
	for pid := range bp.txnPages[tid] {
		elem, ok := bp.entries[pid]
		if !ok {
			continue
		}
		page := elem.Value.(*poolEntry).page
		if _, dirty := page.IsDirty(); dirty {
			bp.lru.Remove(elem)
			delete(bp.entries, pid)
		}
	}
	delete(bp.txnPages, tid)
	bp.mu.Unlock()

	bp.locks.releaseAll(tid)
}

// HoldsLock reports whether tid currently holds a lock on the page
// identified by (file, pageNumber).
func (bp *BufferPool) HoldsLock(tid TransactionID, file DBFile, pageNumber int) bool {
	return bp.locks.holdsLock(tid, PageId{TableId: file.Id(), PageNo: pageNumber})
}

// UnsafeReleasePage drops tid's lock on a single page ahead of commit or
// abort, without flushing or discarding anything cached for it. It's
// "unsafe" in the usual two-phase-locking sense: releasing a lock before a
// transaction ends can let another transaction observe tid's uncommitted
// writes to that page.
func (bp *BufferPool) UnsafeReleasePage(tid TransactionID, pid PageId) {
	bp.locks.releaseOne(tid, pid)
}

// DiscardPage evicts pid from the cache unconditionally, without flushing
// it even if dirty. Callers are responsible for ensuring that's safe (e.g.
// the page was already flushed, or its writes are being abandoned).
func (bp *BufferPool) DiscardPage(pid PageId) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if elem, ok := bp.entries[pid]; ok {
		bp.lru.Remove(elem)
		delete(bp.entries, pid)
	}
}
