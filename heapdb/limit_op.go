package heapdb

// LimitOp caps its child's output to the first lim tuples.
type LimitOp struct {
	child     Operator
	limitTups Expr
}

// NewLimitOp constructs a limit operator. lim is an expression evaluating
// to the maximum number of tuples to return (a ConstExpr in practice).
func NewLimitOp(lim Expr, child Operator) *LimitOp {
	return &LimitOp{
		child:     child,
		limitTups: lim,
	}
}

func (l *LimitOp) Descriptor() *TupleDesc {
	return l.child.Descriptor()
}

// Iterator passes through at most lim tuples from the child, then stops.
func (l *LimitOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	count := 0
	limitVal, err := l.limitTups.EvalExpr(nil)
	if err != nil {
		return nil, err
	}
	limit, ok := limitVal.(IntField)
	if !ok {
		return nil, NewEngineError(SchemaMismatch, "limit expression is not an integer")
	}
	childIter, err := l.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	return func() (*Tuple, error) {
		if count >= int(limit.Value) {
			return nil, nil
		}
		tuple, err := childIter()
		if err != nil {
			return nil, err
		}
		if tuple == nil {
			return nil, nil
		}
		count++
		return tuple, nil
	}, nil
}
