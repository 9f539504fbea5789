package heapdb

// Operator is implemented by every node of a query plan: scans, and the
// operators in filter_op.go, join_op.go, project_op.go, order_by_op.go,
// limit_op.go, insert_op.go, and delete_op.go. Evaluation is pull-based:
// Iterator returns a closure that yields one tuple per call, and a nil
// tuple with a nil error once exhausted.
type Operator interface {
	Descriptor() *TupleDesc
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
}
