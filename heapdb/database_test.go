package heapdb

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapCatalogAddAndLookup(t *testing.T) {
	cat := NewMapCatalog()
	desc := &TupleDesc{Fields: []FieldType{{Fname: "id", Ftype: IntType}}}
	bp, err := NewBufferPool(10)
	require.NoError(t, err)
	hf, err := NewHeapFile("irrelevant-for-this-test.dat", desc, bp)
	require.NoError(t, err)

	cat.AddTable("widgets", hf)

	got, err := cat.GetDatabaseFile("widgets")
	require.NoError(t, err)
	require.Equal(t, hf, got)

	name, err := cat.GetTableName(hf.Id())
	require.NoError(t, err)
	require.Equal(t, "widgets", name)

	_, err = cat.GetDatabaseFile("missing")
	require.Error(t, err)
	require.True(t, IsKind(err, TupleNotFound))

	ids := []int{}
	next := cat.TableIdIterator()
	for {
		id, ok := next()
		if !ok {
			break
		}
		ids = append(ids, id)
	}
	require.Equal(t, []int{hf.Id()}, ids)
}

func TestNewDatabaseOpenTableAndStats(t *testing.T) {
	ResetConfig()
	defer ResetConfig()

	db, err := NewDatabase()
	require.NoError(t, err)
	require.NotEmpty(t, db.InstanceID.String())

	f, err := os.CreateTemp("", "heapdb-db-*.dat")
	require.NoError(t, err)
	path := f.Name()
	f.Close()
	os.Remove(path)
	defer os.Remove(path)

	desc := &TupleDesc{Fields: []FieldType{{Fname: "id", Ftype: IntType}}}
	hf, err := db.OpenTable("items", path, desc)
	require.NoError(t, err)

	tid := NewTID()
	require.NoError(t, db.BufferPool.BeginTransaction(tid))
	for i := 0; i < 10; i++ {
		tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: int32(i)}}}
		require.NoError(t, hf.InsertTuple(tup, tid))
	}
	require.NoError(t, db.BufferPool.CommitTransaction(tid))

	stats, err := db.Stats("items")
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalTuples())

	_, err = db.Stats("nonexistent")
	require.Error(t, err)
}
