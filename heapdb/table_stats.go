package heapdb

// TableStats holds per-column histograms and page/tuple counts for a
// table, used by the query planner (and, in this teaching engine, by
// anyone calling EstimateSelectivity directly) to estimate the cost and
// cardinality of a scan or predicate without touching disk.
type TableStats struct {
	numPages  int
	numTuples int
	intHists  map[string]*IntHistogram
	strHists  map[string]*StringHistogram
}

// BuildTableStats computes a TableStats for file by scanning it twice:
// once to find each integer column's min/max (so histogram buckets can be
// sized), and once to populate the histograms. Both passes go through bp
// under a fresh, short-lived transaction, holding shared locks only.
func BuildTableStats(file DBFile, bp *BufferPool) (*TableStats, error) {
	desc := file.TupleDesc()
	numBuckets := CurrentConfig().NumHistBins

	mins := make(map[string]int32)
	maxs := make(map[string]int32)
	for _, f := range desc.Fields {
		if f.Ftype == IntType {
			mins[f.Fname] = 1<<31 - 1
			maxs[f.Fname] = -(1 << 31)
		}
	}

	numTuples := 0
	scan := func(visit func(t *Tuple)) error {
		tid := NewTID()
		if err := bp.BeginTransaction(tid); err != nil {
			return err
		}
		iter, err := file.Iterator(tid)
		if err != nil {
			bp.AbortTransaction(tid)
			return err
		}
		for {
			t, err := iter()
			if err != nil {
				bp.AbortTransaction(tid)
				return err
			}
			if t == nil {
				break
			}
			visit(t)
		}
		return bp.CommitTransaction(tid)
	}

	if err := scan(func(t *Tuple) {
		numTuples++
		for i, f := range desc.Fields {
			if f.Ftype != IntType {
				continue
			}
			v := t.Fields[i].(IntField).Value
			if v < mins[f.Fname] {
				mins[f.Fname] = v
			}
			if v > maxs[f.Fname] {
				maxs[f.Fname] = v
			}
		}
	}); err != nil {
		return nil, err
	}

	intHists := make(map[string]*IntHistogram)
	strHists := make(map[string]*StringHistogram)
	for _, f := range desc.Fields {
		switch f.Ftype {
		case IntType:
			lo, hi := mins[f.Fname], maxs[f.Fname]
			if hi < lo {
				lo, hi = 0, 0
			}
			intHists[f.Fname] = NewIntHistogram(numBuckets, lo, hi)
		case StringType:
			strHists[f.Fname] = NewStringHistogram(numBuckets)
		}
	}

	if err := scan(func(t *Tuple) {
		for i, f := range desc.Fields {
			switch f.Ftype {
			case IntType:
				intHists[f.Fname].AddValue(t.Fields[i].(IntField).Value)
			case StringType:
				strHists[f.Fname].AddValue(t.Fields[i].(StringField).Value)
			}
		}
	}); err != nil {
		return nil, err
	}

	return &TableStats{
		numPages:  file.NumPages(),
		numTuples: numTuples,
		intHists:  intHists,
		strHists:  strHists,
	}, nil
}

// EstimateScanCost returns the estimated I/O cost of a full sequential scan.
// The factor of 2 is a fixed convention (one pass to read each page off
// disk, one pass assumed for the OS/buffer-pool write-back it displaces),
// not a tunable.
func (ts *TableStats) EstimateScanCost() int {
	return 2 * ts.numPages * CurrentConfig().IOCostPerPage
}

// EstimateTableCardinality returns the expected number of tuples matching
// a predicate of the given overall selectivity: floor(totalTuples * selectivity).
func (ts *TableStats) EstimateTableCardinality(selectivity float64) int {
	return int(float64(ts.numTuples) * selectivity)
}

// EstimateSelectivityInt estimates the selectivity of "field op v" using
// field's histogram.
func (ts *TableStats) EstimateSelectivityInt(field string, op BoolOp, v int32) float64 {
	h, ok := ts.intHists[field]
	if !ok {
		return 1
	}
	return h.EstimateSelectivity(op, v)
}

// EstimateSelectivityString estimates the selectivity of "field op v" using
// field's histogram.
func (ts *TableStats) EstimateSelectivityString(field string, op BoolOp, v string) float64 {
	h, ok := ts.strHists[field]
	if !ok {
		return 1
	}
	return h.EstimateSelectivity(op, v)
}

// TotalTuples returns the tuple count observed during BuildTableStats.
func (ts *TableStats) TotalTuples() int {
	return ts.numTuples
}
