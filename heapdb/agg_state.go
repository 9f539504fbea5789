package heapdb

// AggState accumulates one aggregate function's (COUNT, SUM, AVG, MAX, MIN)
// running value across the tuples pulled from a child operator.
type AggState interface {
	// Init prepares the aggregation state: alias names the output field,
	// expr extracts the value to aggregate from each input tuple.
	Init(alias string, expr Expr) error

	// Copy returns an independent copy of the aggregation state, used when
	// the same aggregate is tracked per group in a GROUP BY.
	Copy() AggState

	// AddTuple folds t into the running aggregate.
	AddTuple(*Tuple)

	// Finalize returns the aggregate's current value as a one-field tuple.
	Finalize() *Tuple

	// GetTupleDesc describes the tuple Finalize returns.
	GetTupleDesc() *TupleDesc
}

// CountAggState implements COUNT(expr).
type CountAggState struct {
	alias string
	expr  Expr
	count int
}

func (a *CountAggState) Copy() AggState {
	return &CountAggState{a.alias, a.expr, a.count}
}

func (a *CountAggState) Init(alias string, expr Expr) error {
	a.count = 0
	a.expr = expr
	a.alias = alias
	return nil
}

func (a *CountAggState) AddTuple(t *Tuple) {
	a.count++
}

func (a *CountAggState) Finalize() *Tuple {
	td := a.GetTupleDesc()
	f := IntField{Value: int32(a.count)}
	return &Tuple{Desc: *td, Fields: []DBValue{f}}
}

func (a *CountAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

// SumAggState implements SUM(expr). The accumulator is int64 even though
// IntField.Value is int32, so a long run of additions doesn't overflow
// before Finalize casts the total back down.
type SumAggState struct {
	sum   int64
	alias string
	expr  Expr
}

func (a *SumAggState) Copy() AggState {
	return &SumAggState{a.sum, a.alias, a.expr}
}

func (a *SumAggState) Init(alias string, expr Expr) error {
	a.sum = 0
	a.alias = alias
	a.expr = expr
	return nil
}

func (a *SumAggState) AddTuple(t *Tuple) {
	get, _ := a.expr.EvalExpr(t)
	add, _ := get.(IntField)
	a.sum += int64(add.Value)
}

func (a *SumAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *SumAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: int32(a.sum)}}}
}

// AvgAggState implements AVG(expr). AddTuple only accumulates sum and
// count; the quotient is computed once, on demand, in Finalize. An earlier
// version divided on every AddTuple call before incrementing count, which
// both wasted work and produced a wrong running average; the aggregate's
// value is only ever observed via Finalize, so there's no reason to keep
// a running average field at all.
type AvgAggState struct {
	alias string
	expr  Expr
	count int
	sum   int64
}

func (a *AvgAggState) Copy() AggState {
	return &AvgAggState{a.alias, a.expr, a.count, a.sum}
}

func (a *AvgAggState) Init(alias string, expr Expr) error {
	a.alias = alias
	a.expr = expr
	a.sum = 0
	a.count = 0
	return nil
}

func (a *AvgAggState) AddTuple(t *Tuple) {
	get, _ := a.expr.EvalExpr(t)
	value, _ := get.(IntField)
	a.sum += int64(value.Value)
	a.count++
}

func (a *AvgAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *AvgAggState) Finalize() *Tuple {
	var avg int64
	if a.count > 0 {
		avg = a.sum / int64(a.count)
	}
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: int32(avg)}}}
}

// MaxAggState implements MAX(expr). AddTuple is always called at least
// once before Finalize, so maximum is never read while nil.
type MaxAggState struct {
	maximum DBValue
	alias   string
	expr    Expr
}

func (a *MaxAggState) Copy() AggState {
	return &MaxAggState{a.maximum, a.alias, a.expr}
}

func (a *MaxAggState) Init(alias string, expr Expr) error {
	a.maximum = nil
	a.alias = alias
	a.expr = expr
	return nil
}

func (a *MaxAggState) AddTuple(t *Tuple) {
	tmpVal, _ := a.expr.EvalExpr(t)
	if a.maximum == nil || tmpVal.EvalPred(a.maximum, OpGt) {
		a.maximum = tmpVal
	}
}

func (a *MaxAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: a.expr.GetExprType().Ftype}}}
}

func (a *MaxAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.maximum}}
}

// MinAggState implements MIN(expr).
type MinAggState struct {
	minimum DBValue
	alias   string
	expr    Expr
}

func (a *MinAggState) Copy() AggState {
	return &MinAggState{a.minimum, a.alias, a.expr}
}

func (a *MinAggState) Init(alias string, expr Expr) error {
	a.minimum = nil
	a.alias = alias
	a.expr = expr
	return nil
}

func (a *MinAggState) AddTuple(t *Tuple) {
	tmpVal, _ := a.expr.EvalExpr(t)
	if a.minimum == nil || tmpVal.EvalPred(a.minimum, OpLt) {
		a.minimum = tmpVal
	}
}

func (a *MinAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: a.expr.GetExprType().Ftype}}}
}

func (a *MinAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.minimum}}
}
