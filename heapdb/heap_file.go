package heapdb

import (
	"bufio"
	"bytes"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// HeapFile is an unordered, paged collection of tuples backed by a single
// file on disk. Its table id is derived deterministically from the
// backing file's absolute path, so the same file always maps to the same
// PageId.TableId across process restarts.
type HeapFile struct {
	backingFile string
	tableId     int
	tupleDesc   *TupleDesc
	bufPool     *BufferPool

	growMu   sync.Mutex // serializes "scan for space, else grow" in InsertTuple
	numPages int
}

// tableIdFromPath derives a stable, non-negative table id from the
// backing file's absolute path using FNV-1a. hash/fnv is used rather than
// a third-party hashing library: this is a one-line, allocation-free stdlib
// call with no concurrency or formatting requirements a library would add.
func tableIdFromPath(path string) int {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	h := fnv.New32a()
	h.Write([]byte(abs))
	id := int(h.Sum32())
	if id < 0 {
		id = -id
	}
	return id
}

// NewHeapFile opens or creates a heap file backed by fromFile, using td as
// its schema and bp as the buffer pool pages are read through.
func NewHeapFile(fromFile string, td *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	hf := &HeapFile{
		backingFile: fromFile,
		tableId:     tableIdFromPath(fromFile),
		tupleDesc:   td,
		bufPool:     bp,
	}
	hf.numPages = hf.computeNumPages()
	return hf, nil
}

func (f *HeapFile) BackingFile() string {
	return f.backingFile
}

func (f *HeapFile) Id() int {
	return f.tableId
}

// computeNumPages derives the page count from the backing file's size on
// disk, using integer division: a partially written trailing page is not
// counted as a full page.
func (f *HeapFile) computeNumPages() int {
	info, err := os.Stat(f.backingFile)
	if err != nil {
		return 0
	}
	return int(info.Size()) / CurrentConfig().PageSize
}

// NumPages returns the number of pages currently in the file, as tracked
// in memory (kept in sync with computeNumPages as pages are appended).
func (f *HeapFile) NumPages() int {
	f.growMu.Lock()
	defer f.growMu.Unlock()
	return f.numPages
}

// LoadFromCSV populates the heap file from a CSV file, one tuple per line.
func (f *HeapFile) LoadFromCSV(file *os.File, hasHeader bool, sep string, skipLastField bool) error {
	scanner := bufio.NewScanner(file)
	cnt := 0
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Split(line, sep)
		if skipLastField {
			fields = fields[0 : len(fields)-1]
		}
		cnt++
		desc := f.TupleDesc()
		if desc == nil || desc.Fields == nil {
			return NewEngineError(SchemaMismatch, "heap file has no descriptor")
		}
		if len(fields) != len(desc.Fields) {
			return NewEngineError(SchemaMismatch, fmt.Sprintf("line %d: expected %d fields, got %d", cnt, len(desc.Fields), len(fields)))
		}
		if cnt == 1 && hasHeader {
			continue
		}
		newFields := make([]DBValue, 0, len(fields))
		for fno, field := range fields {
			switch desc.Fields[fno].Ftype {
			case IntType:
				field = strings.TrimSpace(field)
				floatVal, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return NewEngineError(SchemaMismatch, fmt.Sprintf("line %d: %q is not numeric", cnt, field))
				}
				newFields = append(newFields, IntField{Value: int32(floatVal)})
			case StringType:
				if len(field) > CurrentConfig().StringLength {
					field = field[:CurrentConfig().StringLength]
				}
				newFields = append(newFields, StringField{Value: field})
			}
		}
		newT := Tuple{Desc: *desc, Fields: newFields}
		tid := NewTID()
		if err := f.bufPool.BeginTransaction(tid); err != nil {
			return err
		}
		if err := f.InsertTuple(&newT, tid); err != nil {
			f.bufPool.AbortTransaction(tid)
			return err
		}
		if err := f.bufPool.CommitTransaction(tid); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ReadPage reads page pageNo from the backing file. Called by
// BufferPool.GetPage on a cache miss. Returns InvalidPage if pageNo lies
// beyond the file's current length, or if the file is shorter than a full
// page at that offset; IoError is reserved for genuine disk failures.
func (f *HeapFile) ReadPage(pageNo int) (Page, error) {
	pageSize := CurrentConfig().PageSize
	info, err := os.Stat(f.backingFile)
	if err != nil && !os.IsNotExist(err) {
		return nil, WrapIOError(err, "stat heap file")
	}
	var fileLen int64
	if info != nil {
		fileLen = info.Size()
	}
	if int64(pageNo+1)*int64(pageSize) > fileLen {
		return nil, EngineError{Kind: InvalidPage, Msg: "page number exceeds file length"}
	}

	data := make([]byte, pageSize)
	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return nil, WrapIOError(err, "open heap file")
	}
	defer file.Close()

	offset := int64(pageNo) * int64(pageSize)
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, WrapIOError(err, "seek to page")
	}
	if _, err := io.ReadFull(file, data); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, EngineError{Kind: InvalidPage, Msg: "short read past end of file"}
		}
		return nil, WrapIOError(err, "read page")
	}

	pid := PageId{TableId: f.tableId, PageNo: pageNo}
	return initFromBuffer(bytes.NewBuffer(data), pid, f.tupleDesc, f)
}

// InsertTuple adds t to the first page with a free slot, or appends a new
// page if none has room. growMu ensures the "scan, then possibly append a
// page" sequence is atomic with respect to other inserters on this file;
// per-page locking is still handled by the buffer pool's lock manager.
func (f *HeapFile) InsertTuple(t *Tuple, tid TransactionID) error {
	if len(t.Fields) != len(t.Desc.Fields) {
		return NewEngineError(SchemaMismatch, "tuple does not match heap file descriptor")
	}

	f.growMu.Lock()
	defer f.growMu.Unlock()

	numPages := f.numPages
	for pageNo := 0; pageNo < numPages; pageNo++ {
		page, err := f.bufPool.GetPage(f, pageNo, tid, WritePerm)
		if err != nil {
			return err
		}
		hp := page.(*heapPage)
		if hp.getNumUsedSlots() < hp.getNumSlots() {
			if _, err := hp.insertTuple(t); err != nil {
				return err
			}
			hp.MarkDirty(true, tid)
			return nil
		}
	}

	// No page had room: grow the file by one page (zero-filled, so it reads
	// back as a page with every slot empty) and fetch it through the buffer
	// pool like any other page, so it's subject to the same caching and
	// dirty/commit/abort tracking as every other page in this transaction.
	if err := f.growFile(numPages); err != nil {
		return err
	}
	f.numPages++

	page, err := f.bufPool.GetPage(f, numPages, tid, WritePerm)
	if err != nil {
		return err
	}
	hp := page.(*heapPage)
	if _, err := hp.insertTuple(t); err != nil {
		return err
	}
	hp.MarkDirty(true, tid)
	return nil
}

// growFile extends the backing file by one page, zero-filled, so that page
// pageNo reads back as an empty heapPage.
func (f *HeapFile) growFile(pageNo int) error {
	pageSize := CurrentConfig().PageSize
	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return WrapIOError(err, "open heap file")
	}
	defer file.Close()
	if err := file.Truncate(int64(pageNo+1) * int64(pageSize)); err != nil {
		return WrapIOError(err, "grow heap file")
	}
	return nil
}

// DeleteTuple removes t, identified by t.Rid, from the file.
func (f *HeapFile) DeleteTuple(t *Tuple, tid TransactionID) error {
	if t.Rid == nil {
		return NewEngineError(TupleNotFound, "tuple has no record id")
	}
	page, err := f.bufPool.GetPage(f, t.Rid.PID.PageNo, tid, WritePerm)
	if err != nil {
		return err
	}
	hp := page.(*heapPage)
	if err := hp.deleteTuple(*t.Rid); err != nil {
		return err
	}
	hp.MarkDirty(true, tid)
	return nil
}

// flushPage writes p back to its offset in the backing file. Called by the
// buffer pool when committing a transaction's dirty pages and from
// FlushAllPages; eviction never flushes, since only clean pages are evicted.
func (f *HeapFile) flushPage(p Page) error {
	hp, ok := p.(*heapPage)
	if !ok {
		return NewEngineError(IoError, "flushPage: not a heap page")
	}
	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return WrapIOError(err, "open heap file")
	}
	defer file.Close()

	offset := int64(hp.pid.PageNo) * int64(CurrentConfig().PageSize)
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return WrapIOError(err, "seek to page")
	}
	buf, err := hp.toBuffer()
	if err != nil {
		return err
	}
	if _, err := buf.WriteTo(file); err != nil {
		return WrapIOError(err, "write page")
	}
	hp.setDirty(false, 0)
	return nil
}

// TupleDesc returns the schema of tuples in this heap file.
func (f *HeapFile) TupleDesc() *TupleDesc {
	return f.tupleDesc
}

// Descriptor satisfies the Operator interface, letting a HeapFile be used
// directly as a sequential scan.
func (f *HeapFile) Descriptor() *TupleDesc {
	return f.tupleDesc
}

// Iterator returns a closure that yields every tuple in the file, reading
// pages through the buffer pool (so caching and locking apply uniformly)
// rather than via ReadPage directly.
func (f *HeapFile) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	pageNo := 0
	var pageIter func() (*Tuple, error)

	return func() (*Tuple, error) {
		for {
			if pageIter == nil {
				if pageNo >= f.NumPages() {
					return nil, nil
				}
				page, err := f.bufPool.GetPage(f, pageNo, tid, ReadPerm)
				if err != nil {
					return nil, err
				}
				hp := page.(*heapPage)
				pageIter = hp.tupleIter()
			}
			t, err := pageIter()
			if err != nil {
				return nil, err
			}
			if t != nil {
				t.Desc = *f.tupleDesc
				return t, nil
			}
			pageIter = nil
			pageNo++
		}
	}, nil
}
