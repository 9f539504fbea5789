package heapdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterKeepsMatchingTuples(t *testing.T) {
	desc := intOnlyDesc("n")
	child := &memOp{desc: desc, tuples: intTuples(desc, 1, 2, 3, 4, 5)}

	field := NewFieldExpr(desc.Fields[0])
	cutoff := NewConstExpr(IntField{Value: 3}, IntType)

	filt, err := NewFilter(cutoff, OpGt, field, child)
	require.NoError(t, err)
	require.Equal(t, &desc, filt.Descriptor())

	out := drainOp(t, filt, NewTID())
	require.Len(t, out, 2)
	require.Equal(t, int32(4), out[0].Fields[0].(IntField).Value)
	require.Equal(t, int32(5), out[1].Fields[0].(IntField).Value)
}

func TestFilterPropagatesChildError(t *testing.T) {
	desc := intOnlyDesc("n")
	errChild := &erroringOp{desc: desc}
	field := NewFieldExpr(desc.Fields[0])
	cutoff := NewConstExpr(IntField{Value: 0}, IntType)

	filt, err := NewFilter(cutoff, OpGt, field, errChild)
	require.NoError(t, err)

	iter, err := filt.Iterator(NewTID())
	require.NoError(t, err)
	_, err = iter()
	require.Error(t, err)
}

// erroringOp returns an error on its first call, to verify callers don't
// silently swallow it.
type erroringOp struct {
	desc TupleDesc
}

func (e *erroringOp) Descriptor() *TupleDesc { return &e.desc }

func (e *erroringOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	return func() (*Tuple, error) {
		return nil, NewEngineError(IoError, "boom")
	}, nil
}
