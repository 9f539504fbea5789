package heapdb

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func newBufferPoolTestFile(t *testing.T, capacity int) (*HeapFile, *BufferPool, func()) {
	t.Helper()
	ResetConfig()
	f, err := os.CreateTemp("", "heapdb-bp-*.dat")
	require.NoError(t, err)
	path := f.Name()
	f.Close()
	os.Remove(path)

	desc := &TupleDesc{Fields: []FieldType{{Fname: "id", Ftype: IntType}}}
	bp, err := NewBufferPool(capacity)
	require.NoError(t, err)
	hf, err := NewHeapFile(path, desc, bp)
	require.NoError(t, err)
	return hf, bp, func() { os.Remove(path) }
}

func TestBufferPoolEvictsCleanPagesUnderCapacity(t *testing.T) {
	defer ResetConfig()

	hf, bp, cleanup := newBufferPoolTestFile(t, 2)
	defer cleanup()
	// Set after the helper, which resets the configuration: a 128-byte page
	// holds 31 four-byte int tuples, so a handful spans multiple pages.
	SetPageSize(128)
	desc := hf.TupleDesc()

	// Insert enough tuples, committing after each, to force at least three
	// distinct on-disk pages (100 tuples need four) while the pool only
	// holds two at a time. Each commit flushes and clears the dirty bit, so
	// later inserts can evict an earlier page without hitting NoSpace.
	for i := 0; i < 100; i++ {
		tid := NewTID()
		require.NoError(t, bp.BeginTransaction(tid))
		tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: int32(i)}}}
		require.NoError(t, hf.InsertTuple(tup, tid))
		require.NoError(t, bp.CommitTransaction(tid))
	}
	require.GreaterOrEqual(t, hf.NumPages(), 3)
}

func TestBufferPoolCommitFlushesDirtyPages(t *testing.T) {
	hf, bp, cleanup := newBufferPoolTestFile(t, 5)
	defer cleanup()
	desc := hf.TupleDesc()

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}}}
	require.NoError(t, hf.InsertTuple(tup, tid))
	require.NoError(t, bp.CommitTransaction(tid))

	info, err := os.Stat(hf.BackingFile())
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	// Read page 0 straight from disk, bypassing the pool: the committed
	// tuple must be there, not just the zero-filled page growFile created.
	onDisk, err := hf.ReadPage(0)
	require.NoError(t, err)
	require.Equal(t, 1, onDisk.(*heapPage).getNumUsedSlots())
}

func TestBufferPoolAbortDiscardsDirtyPages(t *testing.T) {
	hf, bp, cleanup := newBufferPoolTestFile(t, 5)
	defer cleanup()
	desc := hf.TupleDesc()

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 99}}}
	require.NoError(t, hf.InsertTuple(tup, tid))
	bp.AbortTransaction(tid)

	// hf.InsertTuple grew the file by one zero-filled page and dirtied it in
	// the cache; abort discarded that cached copy, so a fresh read loads the
	// empty page from disk rather than finding it cached as dirty.
	tid2 := NewTID()
	require.NoError(t, bp.BeginTransaction(tid2))
	_, err := bp.GetPage(hf, 0, tid2, ReadPerm)
	require.NoError(t, err)
	require.NoError(t, bp.CommitTransaction(tid2))
}

func TestBufferPoolFullOfDirtyPagesReturnsNoSpace(t *testing.T) {
	hf, bp, cleanup := newBufferPoolTestFile(t, 1)
	defer cleanup()
	desc := hf.TupleDesc()

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}}}
	require.NoError(t, hf.InsertTuple(tup, tid))

	// Page 0 is now cached and dirty. Forcing a second distinct page into a
	// capacity-1 pool has nothing evictable.
	_, err := bp.GetPage(hf, 1, tid, ReadPerm)
	require.Error(t, err)
	require.True(t, IsKind(err, NoSpace))

	bp.AbortTransaction(tid)
}

func TestBufferPoolUnsafeReleasePageLetsAnotherTxnAcquire(t *testing.T) {
	hf, bp, cleanup := newBufferPoolTestFile(t, 5)
	defer cleanup()
	desc := hf.TupleDesc()

	// Page 0 must exist on disk before GetPage can read it.
	setup := NewTID()
	require.NoError(t, bp.BeginTransaction(setup))
	require.NoError(t, hf.InsertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}}}, setup))
	require.NoError(t, bp.CommitTransaction(setup))

	tid1, tid2 := NewTID(), NewTID()
	require.NoError(t, bp.BeginTransaction(tid1))
	require.NoError(t, bp.BeginTransaction(tid2))

	_, err := bp.GetPage(hf, 0, tid1, WritePerm)
	require.NoError(t, err)
	require.True(t, bp.HoldsLock(tid1, hf, 0))

	pid := PageId{TableId: hf.Id(), PageNo: 0}
	bp.UnsafeReleasePage(tid1, pid)
	require.False(t, bp.HoldsLock(tid1, hf, 0))

	_, err = bp.GetPage(hf, 0, tid2, WritePerm)
	require.NoError(t, err)
	require.True(t, bp.HoldsLock(tid2, hf, 0))

	bp.AbortTransaction(tid1)
	bp.AbortTransaction(tid2)
}

func TestBufferPoolDiscardPageRemovesFromCacheWithoutFlushing(t *testing.T) {
	hf, bp, cleanup := newBufferPoolTestFile(t, 5)
	defer cleanup()
	desc := hf.TupleDesc()

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}}}
	require.NoError(t, hf.InsertTuple(tup, tid))

	pid := PageId{TableId: hf.Id(), PageNo: 0}
	bp.DiscardPage(pid)

	// A fresh GetPage must re-read from disk rather than reuse a cached
	// entry, and must not find any dirty data DiscardPage should have
	// dropped without writing it back.
	page, err := bp.GetPage(hf, 0, tid, ReadPerm)
	require.NoError(t, err)
	_, dirty := page.IsDirty()
	require.False(t, dirty)

	bp.AbortTransaction(tid)
}
