package heapdb

import (
	"bytes"
	"fmt"
)

// heapPage is a single fixed-size page of a HeapFile: a bitmap header
// recording which slots are occupied, followed by numSlots fixed-width
// tuple slots and trailing padding up to PAGE_SIZE.
//
// Slot bytes for empty slots are preserved exactly as read (usually zero,
// but not assumed to be) so that re-serializing an untouched page
// reproduces its header and slot bytes. The trailing padding is not kept:
// toBuffer always writes it as zeros, whatever it held when read.
type heapPage struct {
	pid       PageId
	desc      TupleDesc
	file      *HeapFile
	numSlots  int
	header    []byte // ceil(numSlots/8) bytes, LSB-first bit per slot
	slotBytes [][]byte
	tuples    []*Tuple // nil entry for an empty slot
	dirty     bool
	dirtyTid  TransactionID
}

// numSlotsForTupleSize returns how many fixed-width slots of tupleSize
// bytes fit on a page, after accounting for the one header bit each slot
// costs: numSlots = floor((PAGE_SIZE*8) / (tupleSize*8 + 1)).
func numSlotsForTupleSize(tupleSize int) int {
	pageBits := CurrentConfig().PageSize * 8
	n := pageBits / (tupleSize*8 + 1)
	if n < 1 {
		n = 1
	}
	return n
}

func headerSizeForSlots(numSlots int) int {
	return (numSlots + 7) / 8
}

func newHeapPage(pid PageId, desc *TupleDesc, file *HeapFile) *heapPage {
	tupleSize := tupleWireSize(desc)
	numSlots := numSlotsForTupleSize(tupleSize)
	headerSize := headerSizeForSlots(numSlots)

	slotBytes := make([][]byte, numSlots)
	for i := range slotBytes {
		slotBytes[i] = make([]byte, tupleSize)
	}

	return &heapPage{
		pid:       pid,
		desc:      *desc.copy(),
		file:      file,
		numSlots:  numSlots,
		header:    make([]byte, headerSize),
		slotBytes: slotBytes,
		tuples:    make([]*Tuple, numSlots),
	}
}

func (hp *heapPage) getNumSlots() int {
	return hp.numSlots
}

func (hp *heapPage) getNumUsedSlots() int {
	n := 0
	for _, t := range hp.tuples {
		if t != nil {
			n++
		}
	}
	return n
}

func (hp *heapPage) slotOccupied(i int) bool {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	return hp.header[byteIdx]&(1<<bitIdx) != 0
}

func (hp *heapPage) setSlotOccupied(i int, occupied bool) {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	if occupied {
		hp.header[byteIdx] |= 1 << bitIdx
	} else {
		hp.header[byteIdx] &^= 1 << bitIdx
	}
}

// insertTuple places t into the first free slot and returns its RecordId.
func (hp *heapPage) insertTuple(t *Tuple) (RecordId, error) {
	if !hp.desc.equals(&t.Desc) {
		return RecordId{}, EngineError{Kind: SchemaMismatch, Msg: "tuple descriptor does not match page"}
	}
	for i := 0; i < hp.numSlots; i++ {
		if !hp.slotOccupied(i) {
			var buf bytes.Buffer
			if err := t.writeTo(&buf); err != nil {
				return RecordId{}, err
			}
			raw := make([]byte, len(hp.slotBytes[i]))
			copy(raw, buf.Bytes())
			hp.slotBytes[i] = raw
			stored := *t
			rid := RecordId{PID: hp.pid, SlotNo: i}
			stored.Rid = &rid
			hp.tuples[i] = &stored
			hp.setSlotOccupied(i, true)
			return rid, nil
		}
	}
	return RecordId{}, EngineError{Kind: SlotFull, Msg: "no free slot on page"}
}

// deleteTuple removes the tuple at rid.SlotNo. Its slot bytes are left
// untouched (only the occupancy bit changes) so the page's remaining
// layout doesn't shift.
func (hp *heapPage) deleteTuple(rid RecordId) error {
	if rid.PID != hp.pid {
		return EngineError{Kind: TupleNotFound, Msg: "record id does not belong to this page"}
	}
	if rid.SlotNo < 0 || rid.SlotNo >= hp.numSlots || !hp.slotOccupied(rid.SlotNo) {
		return EngineError{Kind: TupleNotFound, Msg: "slot is not occupied"}
	}
	hp.setSlotOccupied(rid.SlotNo, false)
	hp.tuples[rid.SlotNo] = nil
	return nil
}

func (hp *heapPage) isDirty() (TransactionID, bool) {
	return hp.dirtyTid, hp.dirty
}

func (hp *heapPage) setDirty(dirty bool, tid TransactionID) {
	hp.dirty = dirty
	hp.dirtyTid = tid
}

// Page interface methods (see page_id.go).

func (hp *heapPage) ID() PageId {
	return hp.pid
}

func (hp *heapPage) PageData() []byte {
	buf, err := hp.toBuffer()
	if err != nil {
		return make([]byte, CurrentConfig().PageSize)
	}
	return buf.Bytes()
}

func (hp *heapPage) IsDirty() (TransactionID, bool) {
	return hp.dirtyTid, hp.dirty
}

func (hp *heapPage) MarkDirty(dirty bool, tid TransactionID) {
	hp.dirty = dirty
	hp.dirtyTid = tid
}

func (hp *heapPage) getFile() DBFile {
	return hp.file
}

// toBuffer serializes hp into a PAGE_SIZE buffer: header bitmap, then every
// slot's raw bytes in order, then trailing padding.
func (hp *heapPage) toBuffer() (*bytes.Buffer, error) {
	pageSize := CurrentConfig().PageSize
	buf := new(bytes.Buffer)
	buf.Write(hp.header)
	for _, sb := range hp.slotBytes {
		buf.Write(sb)
	}
	for buf.Len() < pageSize {
		buf.WriteByte(0)
	}
	if buf.Len() != pageSize {
		return nil, fmt.Errorf("serialized page is %d bytes, want %d", buf.Len(), pageSize)
	}
	return buf, nil
}

// initFromBuffer parses a PAGE_SIZE buffer previously produced by toBuffer
// into a heapPage for pid, using desc to size and decode occupied slots.
func initFromBuffer(buf *bytes.Buffer, pid PageId, desc *TupleDesc, file *HeapFile) (*heapPage, error) {
	tupleSize := tupleWireSize(desc)
	numSlots := numSlotsForTupleSize(tupleSize)
	headerSize := headerSizeForSlots(numSlots)

	data := buf.Bytes()
	if len(data) < headerSize+numSlots*tupleSize {
		return nil, EngineError{Kind: IoError, Msg: "page buffer too short"}
	}

	hp := &heapPage{
		pid:       pid,
		desc:      *desc.copy(),
		file:      file,
		numSlots:  numSlots,
		header:    append([]byte{}, data[:headerSize]...),
		slotBytes: make([][]byte, numSlots),
		tuples:    make([]*Tuple, numSlots),
	}

	off := headerSize
	for i := 0; i < numSlots; i++ {
		slot := append([]byte{}, data[off:off+tupleSize]...)
		hp.slotBytes[i] = slot
		off += tupleSize
		if hp.slotOccupied(i) {
			tupBuf := bytes.NewBuffer(slot)
			t, err := readTupleFrom(tupBuf, desc)
			if err != nil {
				return nil, err
			}
			rid := RecordId{PID: pid, SlotNo: i}
			t.Rid = &rid
			hp.tuples[i] = t
		}
	}
	return hp, nil
}

// tupleIter returns a closure yielding each occupied tuple on the page, in
// slot order, then nil.
func (hp *heapPage) tupleIter() func() (*Tuple, error) {
	i := 0
	return func() (*Tuple, error) {
		for i < hp.numSlots {
			t := hp.tuples[i]
			i++
			if t != nil {
				return t, nil
			}
		}
		return nil, nil
	}
}
