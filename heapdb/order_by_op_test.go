package heapdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderByAscending(t *testing.T) {
	desc := intOnlyDesc("n")
	child := &memOp{desc: desc, tuples: intTuples(desc, 3, 1, 2)}

	ob, err := NewOrderBy([]Expr{NewFieldExpr(desc.Fields[0])}, child, []bool{true})
	require.NoError(t, err)

	out := drainOp(t, ob, NewTID())
	require.Len(t, out, 3)
	require.Equal(t, int32(1), out[0].Fields[0].(IntField).Value)
	require.Equal(t, int32(2), out[1].Fields[0].(IntField).Value)
	require.Equal(t, int32(3), out[2].Fields[0].(IntField).Value)
}

func TestOrderByDescending(t *testing.T) {
	desc := intOnlyDesc("n")
	child := &memOp{desc: desc, tuples: intTuples(desc, 3, 1, 2)}

	ob, err := NewOrderBy([]Expr{NewFieldExpr(desc.Fields[0])}, child, []bool{false})
	require.NoError(t, err)

	out := drainOp(t, ob, NewTID())
	require.Len(t, out, 3)
	require.Equal(t, int32(3), out[0].Fields[0].(IntField).Value)
	require.Equal(t, int32(2), out[1].Fields[0].(IntField).Value)
	require.Equal(t, int32(1), out[2].Fields[0].(IntField).Value)
}
