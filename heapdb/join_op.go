package heapdb

import (
	"errors"

	"golang.org/x/exp/slices"
)

// EqualityJoin implements an equi-join of left and right on
// leftField = rightField, via sort-merge: both sides are pulled fully into
// memory, sorted on the join key, then merged.
type EqualityJoin struct {
	leftField, rightField Expr
	left, right           Operator

	// maxBufferSize bounds how many intermediate tuples the join may hold;
	// unused by the current sort-merge implementation, kept for a future
	// spill-to-disk join.
	maxBufferSize int
}

// NewJoin constructs an equi-join of left and right on leftField = rightField.
// Returns an error if the two fields have different types.
func NewJoin(left Operator, leftField Expr, right Operator, rightField Expr, maxBufferSize int) (*EqualityJoin, error) {
	if leftField.GetExprType().Ftype != rightField.GetExprType().Ftype {
		return nil, errors.New("join fields have different types")
	}
	return &EqualityJoin{leftField, rightField, left, right, maxBufferSize}, nil
}

// Descriptor returns the union of the left and right operators' descriptors.
func (hj *EqualityJoin) Descriptor() *TupleDesc {
	return hj.left.Descriptor().merge(hj.right.Descriptor())
}

// Iterator materializes both sides, sorts each on the join key, and merges
// them, emitting the cross product of every run of equal keys.
func (joinOp *EqualityJoin) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	leftIterator, err := joinOp.left.Iterator(tid)
	if err != nil {
		return nil, err
	}
	leftTuples, err := fetchAllTuples(leftIterator)
	if err != nil {
		return nil, err
	}

	rightIterator, err := joinOp.right.Iterator(tid)
	if err != nil {
		return nil, err
	}
	rightTuples, err := fetchAllTuples(rightIterator)
	if err != nil {
		return nil, err
	}

	sortTupleList(leftTuples, joinOp.leftField)
	sortTupleList(rightTuples, joinOp.rightField)

	joinedTuples := mergeAndJoinTuples(leftTuples, rightTuples, joinOp.leftField, joinOp.rightField)

	currentIndex := 0
	return func() (*Tuple, error) {
		if currentIndex >= len(joinedTuples) {
			return nil, nil
		}
		currentIndex++
		return joinedTuples[currentIndex-1], nil
	}, nil
}

func fetchAllTuples(iterator func() (*Tuple, error)) ([]*Tuple, error) {
	tuples := []*Tuple{}
	for {
		tuple, err := iterator()
		if err != nil {
			return nil, err
		}
		if tuple == nil {
			return tuples, nil
		}
		tuples = append(tuples, tuple)
	}
}

func sortTupleList(tuples []*Tuple, field Expr) {
	slices.SortFunc(tuples, func(a, b *Tuple) int {
		compareResult, _ := a.compareField(b, field)
		switch compareResult {
		case OrderedLessThan:
			return -1
		case OrderedGreaterThan:
			return 1
		default:
			return 0
		}
	})
}

func mergeAndJoinTuples(leftTuples, rightTuples []*Tuple, leftField, rightField Expr) []*Tuple {
	joinedTuples := []*Tuple{}
	leftIndex, rightIndex := 0, 0

	for leftIndex < len(leftTuples) && rightIndex < len(rightTuples) {
		order, err := compareAcrossJoin(leftTuples[leftIndex], rightTuples[rightIndex], leftField, rightField)
		if err != nil {
			break
		}

		switch order {
		case OrderedEqual:
			mergeEqualTuples(leftTuples, rightTuples, leftIndex, rightIndex, leftField, rightField, &joinedTuples)
			leftIndex = findEqualRange(leftTuples, leftIndex, leftField)
			rightIndex = findEqualRange(rightTuples, rightIndex, rightField)
		case OrderedLessThan:
			leftIndex++
		case OrderedGreaterThan:
			rightIndex++
		}
	}

	return joinedTuples
}

func mergeEqualTuples(leftTuples, rightTuples []*Tuple, leftIndex, rightIndex int, leftField, rightField Expr, joinedTuples *[]*Tuple) {
	leftEnd := findEqualRange(leftTuples, leftIndex, leftField)
	rightEnd := findEqualRange(rightTuples, rightIndex, rightField)

	for i := leftIndex; i < leftEnd; i++ {
		for j := rightIndex; j < rightEnd; j++ {
			*joinedTuples = append(*joinedTuples, joinTuples(leftTuples[i], rightTuples[j]))
		}
	}
}

// compareAcrossJoin compares the join keys of a left and right tuple, which
// may come from different TupleDescs, so it evaluates each field against
// its own tuple rather than using Tuple.compareField.
func compareAcrossJoin(leftTuple, rightTuple *Tuple, leftField, rightField Expr) (orderByState, error) {
	leftVal, err := leftField.EvalExpr(leftTuple)
	if err != nil {
		return OrderedEqual, err
	}
	rightVal, err := rightField.EvalExpr(rightTuple)
	if err != nil {
		return OrderedEqual, err
	}
	return compareFields(leftVal, rightVal)
}

// findEqualRange returns the index just past the run of tuples, starting at
// startIndex, whose join key equals tuples[startIndex]'s.
func findEqualRange(tuples []*Tuple, startIndex int, field Expr) int {
	endIndex := startIndex + 1
	for endIndex < len(tuples) {
		result, err := tuples[endIndex].compareField(tuples[startIndex], field)
		if err != nil || result != OrderedEqual {
			break
		}
		endIndex++
	}
	return endIndex
}
