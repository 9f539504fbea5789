package heapdb

import "fmt"

// BoolOp is the comparison operator used by predicates, both in query
// operators (Filter, OrderBy) and in histogram selectivity estimation.
type BoolOp int

const (
	OpEq BoolOp = iota
	OpNeq
	OpGt
	OpGe
	OpLt
	OpLe
)

func (o BoolOp) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNeq:
		return "<>"
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	default:
		return "?"
	}
}

// Expr evaluates to a DBValue given a tuple. FieldExpr and ConstExpr are the
// two cases query operators need; the parser (out of scope) would add
// arithmetic and function expressions on top of this interface.
type Expr interface {
	EvalExpr(t *Tuple) (DBValue, error)
	GetExprType() FieldType
}

// FieldExpr extracts a named field from a tuple.
type FieldExpr struct {
	field FieldType
}

func NewFieldExpr(f FieldType) *FieldExpr {
	return &FieldExpr{field: f}
}

func (fe *FieldExpr) EvalExpr(t *Tuple) (DBValue, error) {
	idx, err := findFieldInTd(fe.field, &t.Desc)
	if err != nil {
		return nil, err
	}
	return t.Fields[idx], nil
}

func (fe *FieldExpr) GetExprType() FieldType {
	return fe.field
}

// ConstExpr always evaluates to the same value, independent of the tuple.
type ConstExpr struct {
	val DBValue
	typ DBType
}

func NewConstExpr(val DBValue, typ DBType) *ConstExpr {
	return &ConstExpr{val: val, typ: typ}
}

func (ce *ConstExpr) EvalExpr(t *Tuple) (DBValue, error) {
	return ce.val, nil
}

func (ce *ConstExpr) GetExprType() FieldType {
	return FieldType{Ftype: ce.typ}
}

// EvalPred compares f against v using op. Implementations return false for
// type mismatches rather than panicking, matching the parser-free, no-cast
// style of the rest of the package.
func (f IntField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(IntField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == other.Value
	case OpNeq:
		return f.Value != other.Value
	case OpGt:
		return f.Value > other.Value
	case OpGe:
		return f.Value >= other.Value
	case OpLt:
		return f.Value < other.Value
	case OpLe:
		return f.Value <= other.Value
	default:
		return false
	}
}

func (f StringField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(StringField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == other.Value
	case OpNeq:
		return f.Value != other.Value
	case OpGt:
		return f.Value > other.Value
	case OpGe:
		return f.Value >= other.Value
	case OpLt:
		return f.Value < other.Value
	case OpLe:
		return f.Value <= other.Value
	default:
		return false
	}
}

func (f IntField) String() string {
	return fmt.Sprintf("%d", f.Value)
}

func (f StringField) String() string {
	return f.Value
}
