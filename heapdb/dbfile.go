package heapdb

// DBFile is the interface satisfied by on-disk table storage. HeapFile is
// the only implementation in this repository; the interface exists so the
// buffer pool and operators don't need to know that.
type DBFile interface {
	Id() int
	TupleDesc() *TupleDesc
	ReadPage(pageNo int) (Page, error)
	InsertTuple(t *Tuple, tid TransactionID) error
	DeleteTuple(t *Tuple, tid TransactionID) error
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
	NumPages() int
	flushPage(p Page) error
}
