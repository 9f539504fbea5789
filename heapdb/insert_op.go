package heapdb

// InsertOp inserts every tuple its child produces into insertFile, and
// yields a single "count" tuple with the number inserted.
type InsertOp struct {
	insertFile DBFile
	child      Operator
	res        *TupleDesc
}

// NewInsertOp constructs an insert operator that inserts the records in
// child into insertFile.
func NewInsertOp(insertFile DBFile, child Operator) *InsertOp {
	return &InsertOp{
		insertFile: insertFile,
		child:      child,
		res: &TupleDesc{Fields: []FieldType{{
			Fname: "count",
			Ftype: IntType,
		}}},
	}
}

func (i *InsertOp) Descriptor() *TupleDesc {
	return i.res
}

// Iterator inserts every tuple the child operator produces, then returns a
// single tuple reporting how many were inserted.
func (iop *InsertOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	child_iter, err := iop.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	counter := int32(0)
	done := false

	return func() (*Tuple, error) {
		if done {
			return nil, nil
		}
		for {
			t, err := child_iter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				break
			}
			if err := iop.insertFile.InsertTuple(t, tid); err != nil {
				return nil, err
			}
			counter++
		}
		done = true
		return &Tuple{
			Desc:   *iop.Descriptor(),
			Fields: []DBValue{IntField{Value: counter}},
		}, nil
	}, nil
}
