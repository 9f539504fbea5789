package heapdb

import (
	"bytes"
	"testing"

	"github.com/d4l3k/messagediff"
	"github.com/stretchr/testify/require"
)

func sampleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{
		{Fname: "name", Ftype: StringType},
		{Fname: "age", Ftype: IntType},
	}}
}

func TestTupleWriteReadRoundTrip(t *testing.T) {
	ResetConfig()
	desc := sampleDesc()
	tup := &Tuple{
		Desc: *desc,
		Fields: []DBValue{
			StringField{Value: "josie"},
			IntField{Value: 20},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, tup.writeTo(&buf))

	got, err := readTupleFrom(&buf, desc)
	require.NoError(t, err)
	require.True(t, tup.equals(got))
}

func TestTupleWriteReadRoundTripManyTuples(t *testing.T) {
	ResetConfig()
	desc := &TupleDesc{Fields: []FieldType{
		{Fname: "id", Ftype: IntType},
	}}

	var buf bytes.Buffer
	const n = 504
	for i := 0; i < n; i++ {
		tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: int32(i)}}}
		require.NoError(t, tup.writeTo(&buf))
	}

	for i := 0; i < n; i++ {
		got, err := readTupleFrom(&buf, desc)
		require.NoError(t, err)
		require.Equal(t, int32(i), got.Fields[0].(IntField).Value)
	}
}

func TestStringFieldTruncatesToConfiguredLength(t *testing.T) {
	ResetConfig()
	cfg := CurrentConfig()
	cfg.StringLength = 4
	SetConfig(cfg)
	defer ResetConfig()

	var buf bytes.Buffer
	require.NoError(t, writeStringField(&buf, StringField{Value: "abcdefgh"}))
	got, err := readStringField(&buf)
	require.NoError(t, err)
	require.Equal(t, "abcd", got.Value)
}

func TestFindFieldInTdAmbiguous(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{
		{Fname: "id", TableQualifier: "a", Ftype: IntType},
		{Fname: "id", TableQualifier: "b", Ftype: IntType},
	}}
	_, err := findFieldInTd(FieldType{Fname: "id", Ftype: IntType}, desc)
	require.Error(t, err)
	require.True(t, IsKind(err, SchemaMismatch))
}

func TestFindFieldInTdQualified(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{
		{Fname: "id", TableQualifier: "a", Ftype: IntType},
		{Fname: "id", TableQualifier: "b", Ftype: IntType},
	}}
	idx, err := findFieldInTd(FieldType{Fname: "id", TableQualifier: "b", Ftype: IntType}, desc)
	require.NoError(t, err)
	require.Equal(t, 1, idx)
}

func TestProjectAndJoinTuples(t *testing.T) {
	desc := sampleDesc()
	t1 := &Tuple{Desc: *desc, Fields: []DBValue{StringField{Value: "josie"}, IntField{Value: 20}}}

	projected, err := t1.project([]FieldType{{Fname: "age", Ftype: IntType}})
	require.NoError(t, err)
	require.Equal(t, int32(20), projected.Fields[0].(IntField).Value)

	other := &Tuple{
		Desc:   TupleDesc{Fields: []FieldType{{Fname: "dept", Ftype: StringType}}},
		Fields: []DBValue{StringField{Value: "eecs"}},
	}
	joined := joinTuples(t1, other)
	require.Len(t, joined.Fields, 3)

	diff, equal := messagediff.PrettyDiff(t1.Fields[0], joined.Fields[0])
	require.True(t, equal, diff)
}
