package heapdb

// DeleteOp deletes every tuple its child produces from deleteFile, and
// yields a single "count" tuple with the number deleted.
type DeleteOp struct {
	deleteFile DBFile
	child      Operator
	res        *TupleDesc
}

// NewDeleteOp constructs a delete operator that deletes the records in
// child from deleteFile.
func NewDeleteOp(deleteFile DBFile, child Operator) *DeleteOp {
	return &DeleteOp{
		deleteFile: deleteFile,
		child:      child,
		res: &TupleDesc{Fields: []FieldType{{
			Fname: "count",
			Ftype: IntType,
		}}},
	}
}

func (i *DeleteOp) Descriptor() *TupleDesc {
	return i.res
}

// Iterator deletes every tuple the child operator produces, then returns a
// single tuple reporting how many were deleted.
func (dop *DeleteOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	child_iter, err := dop.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	count := int32(0)
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
			if err := dop.deleteFile.DeleteTuple(t, tid); err != nil {
				return nil, err
			}
			count++
		}
		done = true
		return &Tuple{
			Desc:   *dop.Descriptor(),
			Fields: []DBValue{IntField{Value: count}},
		}, nil
	}, nil
}
