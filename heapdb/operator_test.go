package heapdb

import "testing"

// memOp is a minimal in-memory Operator for exercising the query operators
// without needing a HeapFile and buffer pool.
type memOp struct {
	desc   TupleDesc
	tuples []*Tuple
}

func (m *memOp) Descriptor() *TupleDesc { return &m.desc }

func (m *memOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	i := 0
	return func() (*Tuple, error) {
		if i >= len(m.tuples) {
			return nil, nil
		}
		t := m.tuples[i]
		i++
		return t, nil
	}, nil
}

func drainOp(t *testing.T, op Operator, tid TransactionID) []*Tuple {
	t.Helper()
	iter, err := op.Iterator(tid)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	var out []*Tuple
	for {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iterating: %v", err)
		}
		if tup == nil {
			return out
		}
		out = append(out, tup)
	}
}

func intOnlyDesc(name string) TupleDesc {
	return TupleDesc{Fields: []FieldType{{Fname: name, Ftype: IntType}}}
}

func intTuples(desc TupleDesc, values ...int32) []*Tuple {
	out := make([]*Tuple, len(values))
	for i, v := range values {
		out[i] = &Tuple{Desc: desc, Fields: []DBValue{IntField{Value: v}}}
	}
	return out
}
