package heapdb

import (
	"os"
)

// ComputeFieldSum loads fileName (a comma-delimited CSV with a header) into
// a scratch heap file matching td, then returns the sum of its sumField
// column. It exercises loading, scanning, and tearing down a heap file end
// to end without standing up a full Database.
func ComputeFieldSum(bp *BufferPool, fileName string, td TupleDesc, sumField string) (int, error) {
	scratch, err := os.CreateTemp("", "heapdb-sum-*.dat")
	if err != nil {
		return 0, WrapIOError(err, "create scratch heap file")
	}
	scratchPath := scratch.Name()
	scratch.Close()
	defer os.Remove(scratchPath)

	heapFile, err := NewHeapFile(scratchPath, &td, bp)
	if err != nil {
		return 0, err
	}

	index, err := findFieldInTd(FieldType{Fname: sumField}, &td)
	if err != nil {
		return 0, err
	}

	file, err := os.Open(fileName)
	if err != nil {
		return 0, WrapIOError(err, "open csv file")
	}
	defer file.Close()

	if err := heapFile.LoadFromCSV(file, true, ",", false); err != nil {
		return 0, err
	}

	tid := NewTID()
	if err := bp.BeginTransaction(tid); err != nil {
		return 0, err
	}
	iter, err := heapFile.Iterator(tid)
	if err != nil {
		bp.AbortTransaction(tid)
		return 0, err
	}

	sum := 0
	for {
		t, err := iter()
		if err != nil {
			bp.AbortTransaction(tid)
			return 0, err
		}
		if t == nil {
			break
		}
		val, ok := t.Fields[index].(IntField)
		if !ok {
			bp.AbortTransaction(tid)
			return 0, NewEngineError(SchemaMismatch, sumField+" is not an integer field")
		}
		sum += int(val.Value)
	}

	if err := bp.CommitTransaction(tid); err != nil {
		return 0, err
	}
	return sum, nil
}
