package heapdb

import (
	"github.com/google/uuid"
)

// Database wires together a Catalog and a BufferPool into the single
// entry point most callers (the debug CLI, tests) use rather than
// constructing each piece by hand. InstanceID is a process-lifetime
// correlation id attached to log lines, not a transaction id.
type Database struct {
	Catalog    *MapCatalog
	BufferPool *BufferPool
	InstanceID uuid.UUID
}

// NewDatabase creates a Database with a fresh in-memory catalog and a
// buffer pool sized from the active configuration's DefaultPages.
func NewDatabase() (*Database, error) {
	bp, err := NewBufferPool(CurrentConfig().DefaultPages)
	if err != nil {
		return nil, err
	}
	db := &Database{
		Catalog:    NewMapCatalog(),
		BufferPool: bp,
		InstanceID: uuid.New(),
	}
	Logger.Info().Str("instance", db.InstanceID.String()).Msg("database instance created")
	return db, nil
}

// OpenTable opens (or creates) a heap file at path, registers it in the
// catalog under tableName, and returns it.
func (db *Database) OpenTable(tableName, path string, desc *TupleDesc) (*HeapFile, error) {
	hf, err := NewHeapFile(path, desc, db.BufferPool)
	if err != nil {
		return nil, err
	}
	db.Catalog.AddTable(tableName, hf)
	Logger.Debug().Str("table", tableName).Str("path", path).Msg("table opened")
	return hf, nil
}

// Stats builds a TableStats snapshot for the named table.
func (db *Database) Stats(tableName string) (*TableStats, error) {
	file, err := db.Catalog.GetDatabaseFile(tableName)
	if err != nil {
		return nil, err
	}
	return BuildTableStats(file, db.BufferPool)
}
