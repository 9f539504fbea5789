package heapdb

import (
	"errors"

	boom "github.com/tylertreat/BoomFilters"
)

// Project selects and renames a subset of its child's fields, optionally
// suppressing duplicate output tuples (DISTINCT).
type Project struct {
	selectFields []Expr
	outputNames  []string
	child        Operator
	distinct     bool
}

// NewProjectOp constructs a projection operator over selectFields, renamed
// to outputNames (must be the same length), from child.
func NewProjectOp(selectFields []Expr, outputNames []string, distinct bool, child Operator) (Operator, error) {
	if len(selectFields) != len(outputNames) {
		return nil, errors.New("selectFields and outputNames must be the same length")
	}
	return &Project{
		selectFields: selectFields,
		outputNames:  outputNames,
		distinct:     distinct,
		child:        child,
	}, nil
}

// Descriptor returns one field per selectFields entry, named per
// outputNames, typed per each expression's GetExprType.
func (p *Project) Descriptor() *TupleDesc {
	projDesc := &TupleDesc{Fields: make([]FieldType, len(p.selectFields))}
	for i := range p.selectFields {
		ft := p.selectFields[i].GetExprType()
		ft.Fname = p.outputNames[i]
		projDesc.Fields[i] = ft
	}
	return projDesc
}

// Iterator projects each child tuple onto selectFields. For DISTINCT
// projections, a Bloom filter is consulted first: when it reports a tuple
// has definitely not been seen, it's emitted with no map lookup at all; a
// "maybe seen" still goes through the exact seenKeys map, since a Bloom
// filter only ever has false positives, never false negatives.
func (p *Project) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := p.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	projDesc := *p.Descriptor()

	var seenKeys map[string]struct{}
	var maybeSeen *boom.BloomFilter
	if p.distinct {
		seenKeys = make(map[string]struct{})
		maybeSeen = boom.NewBloomFilter(1_000_000, 0.01)
	}

	return func() (*Tuple, error) {
		for {
			tuple, err := childIter()
			if err != nil {
				return nil, err
			}
			if tuple == nil {
				return nil, nil
			}

			projected := &Tuple{
				Desc:   projDesc,
				Fields: make([]DBValue, len(p.selectFields)),
			}
			for i, field := range p.selectFields {
				val, err := field.EvalExpr(tuple)
				if err != nil {
					return nil, err
				}
				projected.Fields[i] = val
			}

			if p.distinct {
				key := projected.tupleKey().(string)
				keyBytes := []byte(key)
				if maybeSeen.Test(keyBytes) {
					if _, exists := seenKeys[key]; exists {
						continue
					}
				}
				maybeSeen.Add(keyBytes)
				seenKeys[key] = struct{}{}
			}

			return projected, nil
		}
	}, nil
}
