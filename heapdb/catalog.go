package heapdb

import (
	"fmt"
	"sync"
)

// Catalog maps table names to the DBFile backing them, so operators and
// the debug CLI can resolve a name without knowing its storage details.
type Catalog interface {
	GetDatabaseFile(tableName string) (DBFile, error)
	GetTableName(tableId int) (string, error)
	TableIdIterator() func() (int, bool)
}

// MapCatalog is an in-memory Catalog backed by two maps; entries are added
// with AddTable and never removed.
type MapCatalog struct {
	mu      sync.RWMutex
	byName  map[string]DBFile
	idToName map[int]string
}

func NewMapCatalog() *MapCatalog {
	return &MapCatalog{
		byName:   make(map[string]DBFile),
		idToName: make(map[int]string),
	}
}

// AddTable registers file under tableName.
func (c *MapCatalog) AddTable(tableName string, file DBFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[tableName] = file
	c.idToName[file.Id()] = tableName
}

func (c *MapCatalog) GetDatabaseFile(tableName string) (DBFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.byName[tableName]
	if !ok {
		return nil, NewEngineError(TupleNotFound, fmt.Sprintf("no such table: %s", tableName))
	}
	return f, nil
}

func (c *MapCatalog) GetTableName(tableId int) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.idToName[tableId]
	if !ok {
		return "", NewEngineError(TupleNotFound, fmt.Sprintf("no table with id %d", tableId))
	}
	return name, nil
}

// TableIdIterator returns a closure yielding every registered table id,
// then (0, false).
func (c *MapCatalog) TableIdIterator() func() (int, bool) {
	c.mu.RLock()
	ids := make([]int, 0, len(c.idToName))
	for id := range c.idToName {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	i := 0
	return func() (int, bool) {
		if i >= len(ids) {
			return 0, false
		}
		id := ids[i]
		i++
		return id, true
	}
}
