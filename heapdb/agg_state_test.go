package heapdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func aggTestTuples() ([]*Tuple, FieldType) {
	desc := TupleDesc{Fields: []FieldType{{Fname: "n", Ftype: IntType}}}
	ft := desc.Fields[0]
	values := []int32{3, 7, 1, 9, 5}
	tuples := make([]*Tuple, len(values))
	for i, v := range values {
		tuples[i] = &Tuple{Desc: desc, Fields: []DBValue{IntField{Value: v}}}
	}
	return tuples, ft
}

func TestCountAggState(t *testing.T) {
	tuples, ft := aggTestTuples()
	var agg CountAggState
	require.NoError(t, agg.Init("cnt", NewFieldExpr(ft)))
	for _, tup := range tuples {
		agg.AddTuple(tup)
	}
	res := agg.Finalize()
	require.Equal(t, int32(5), res.Fields[0].(IntField).Value)
}

func TestSumAggState(t *testing.T) {
	tuples, ft := aggTestTuples()
	var agg SumAggState
	require.NoError(t, agg.Init("sum", NewFieldExpr(ft)))
	for _, tup := range tuples {
		agg.AddTuple(tup)
	}
	res := agg.Finalize()
	require.Equal(t, int32(25), res.Fields[0].(IntField).Value)
}

func TestAvgAggStateComputesOnFinalizeNotPerTuple(t *testing.T) {
	tuples, ft := aggTestTuples()
	var agg AvgAggState
	require.NoError(t, agg.Init("avg", NewFieldExpr(ft)))
	for _, tup := range tuples {
		agg.AddTuple(tup)
	}
	res := agg.Finalize()
	// (3+7+1+9+5)/5 = 5
	require.Equal(t, int32(5), res.Fields[0].(IntField).Value)
}

func TestMaxMinAggState(t *testing.T) {
	tuples, ft := aggTestTuples()

	var maxAgg MaxAggState
	require.NoError(t, maxAgg.Init("max", NewFieldExpr(ft)))
	var minAgg MinAggState
	require.NoError(t, minAgg.Init("min", NewFieldExpr(ft)))
	for _, tup := range tuples {
		maxAgg.AddTuple(tup)
		minAgg.AddTuple(tup)
	}
	require.Equal(t, int32(9), maxAgg.Finalize().Fields[0].(IntField).Value)
	require.Equal(t, int32(1), minAgg.Finalize().Fields[0].(IntField).Value)
}

func TestMaxMinAggStateDescribesStringFieldType(t *testing.T) {
	desc := TupleDesc{Fields: []FieldType{{Fname: "s", Ftype: StringType}}}
	ft := desc.Fields[0]
	tuples := []*Tuple{
		{Desc: desc, Fields: []DBValue{StringField{Value: "banana"}}},
		{Desc: desc, Fields: []DBValue{StringField{Value: "apple"}}},
		{Desc: desc, Fields: []DBValue{StringField{Value: "cherry"}}},
	}

	var maxAgg MaxAggState
	require.NoError(t, maxAgg.Init("max", NewFieldExpr(ft)))
	var minAgg MinAggState
	require.NoError(t, minAgg.Init("min", NewFieldExpr(ft)))
	for _, tup := range tuples {
		maxAgg.AddTuple(tup)
		minAgg.AddTuple(tup)
	}

	require.Equal(t, StringType, maxAgg.GetTupleDesc().Fields[0].Ftype)
	require.Equal(t, "cherry", maxAgg.Finalize().Fields[0].(StringField).Value)
	require.Equal(t, StringType, minAgg.GetTupleDesc().Fields[0].Ftype)
	require.Equal(t, "apple", minAgg.Finalize().Fields[0].(StringField).Value)
}

func TestAggStateCopyIsIndependent(t *testing.T) {
	tuples, ft := aggTestTuples()
	var agg SumAggState
	require.NoError(t, agg.Init("sum", NewFieldExpr(ft)))
	agg.AddTuple(tuples[0])

	copied := agg.Copy()
	agg.AddTuple(tuples[1])
	copied.AddTuple(tuples[2])

	require.Equal(t, int32(10), agg.Finalize().Fields[0].(IntField).Value)
	require.Equal(t, int32(4), copied.Finalize().Fields[0].(IntField).Value)
}
