package heapdb

import (
	"golang.org/x/exp/slices"
)

// OrderBy sorts its child's tuples on one or more fields, ascending or
// descending per field, in priority order.
type OrderBy struct {
	orderBy       []Expr
	child         Operator
	ascendingList []bool
}

// NewOrderBy constructs an order-by operator. ascending[i] selects
// ascending (true) or descending (false) order for orderByFields[i].
func NewOrderBy(orderByFields []Expr, child Operator, ascending []bool) (*OrderBy, error) {
	return &OrderBy{
		orderBy:       orderByFields,
		child:         child,
		ascendingList: ascending,
	}, nil
}

// Descriptor returns the child's descriptor unchanged: order-by reorders
// tuples, it doesn't change which fields are emitted.
func (o *OrderBy) Descriptor() *TupleDesc {
	return o.child.Descriptor()
}

// Iterator is blocking: it first pulls every tuple from the child into
// memory and sorts them, then returns them one at a time.
func (o *OrderBy) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := o.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	res, err := fetchAllTuples(childIter)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(res, func(ta, tb *Tuple) int {
		if lessTuples(ta, tb, o.orderBy, o.ascendingList) {
			return -1
		}
		if lessTuples(tb, ta, o.orderBy, o.ascendingList) {
			return 1
		}
		return 0
	})

	count := 0
	return func() (*Tuple, error) {
		if count >= len(res) {
			return nil, nil
		}
		tuple := res[count]
		count++
		return tuple, nil
	}, nil
}

// lessTuples evaluates orderBy fields in priority order on ta and tb,
// returning at the first field that distinguishes them.
func lessTuples(ta, tb *Tuple, orderBy []Expr, ascending []bool) bool {
	for i, expr := range orderBy {
		valA, errA := expr.EvalExpr(ta)
		valB, errB := expr.EvalExpr(tb)
		if errA != nil || errB != nil {
			continue
		}
		if valA.EvalPred(valB, OpEq) {
			continue
		}
		if ascending[i] {
			return valA.EvalPred(valB, OpLt)
		}
		return valA.EvalPred(valB, OpGt)
	}
	return false
}
