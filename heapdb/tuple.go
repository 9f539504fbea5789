package heapdb

// This file defines the types for working with tuples: DBType, FieldType,
// TupleDesc, DBValue, and Tuple, plus their on-disk (de)serialization.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// DBType is the type of a tuple field, e.g., IntType or StringType.
type DBType int

const (
	IntType DBType = iota
	StringType
	UnknownType // used internally during field resolution when the type isn't known yet
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// FieldType is the type of a field in a tuple: its name, owning table
// qualifier (may be empty), and DBType.
type FieldType struct {
	Fname          string
	TableQualifier string
	Ftype          DBType
}

// TupleDesc is the "type" of a tuple: an ordered list of field types.
type TupleDesc struct {
	Fields []FieldType
}

// equals reports whether d1 and d2 have the same fields, in the same order.
func (d1 *TupleDesc) equals(d2 *TupleDesc) bool {
	if len(d1.Fields) != len(d2.Fields) {
		return false
	}
	for i := range d1.Fields {
		if d1.Fields[i].Fname != d2.Fields[i].Fname {
			return false
		}
		if d1.Fields[i].Ftype != d2.Fields[i].Ftype {
			return false
		}
	}
	return true
}

// findFieldInTd finds the best matching field in desc for field: same
// Ftype and name, preferring a TableQualifier match when field specifies
// one. Returns SchemaMismatch if no field matches, or if the match is
// ambiguous (an unqualified name found in more than one table).
func findFieldInTd(field FieldType, desc *TupleDesc) (int, error) {
	best := -1
	for i, f := range desc.Fields {
		if f.Fname == field.Fname && (f.Ftype == field.Ftype || field.Ftype == UnknownType) {
			if field.TableQualifier == "" && best != -1 {
				return 0, EngineError{Kind: SchemaMismatch, Msg: fmt.Sprintf("field name %s is ambiguous", f.Fname)}
			}
			if f.TableQualifier == field.TableQualifier || best == -1 {
				best = i
			}
		}
	}
	if best != -1 {
		return best, nil
	}
	return -1, EngineError{Kind: SchemaMismatch, Msg: fmt.Sprintf("field %s.%s not found", field.TableQualifier, field.Fname)}
}

// copy returns a deep copy of td's field slice.
func (td *TupleDesc) copy() *TupleDesc {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	return &TupleDesc{Fields: fields}
}

// setTableAlias assigns the TableQualifier of every field to alias.
func (td *TupleDesc) setTableAlias(alias string) {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	for i := range fields {
		fields[i].TableQualifier = alias
	}
	td.Fields = fields
}

// merge returns a new TupleDesc consisting of desc's fields followed by
// desc2's fields.
func (desc *TupleDesc) merge(desc2 *TupleDesc) *TupleDesc {
	fields := make([]FieldType, 0, len(desc.Fields)+len(desc2.Fields))
	fields = append(fields, desc.Fields...)
	fields = append(fields, desc2.Fields...)
	return &TupleDesc{Fields: fields}
}

// ================== Tuple field values ======================

// DBValue is the interface satisfied by a tuple field's value.
type DBValue interface {
	EvalPred(v DBValue, op BoolOp) bool
}

// IntField is a 4-byte signed integer field value (spec §3: on disk, 4-byte
// big-endian). int32 is used directly rather than a wider Go integer so the
// in-memory value always matches what fits on the wire.
type IntField struct {
	Value int32
}

// StringField is a field value for a fixed-capacity string field. Value may
// be longer than StringLength bytes in memory; only its first StringLength
// bytes are written to disk.
type StringField struct {
	Value string
}

// Tuple is an ordered sequence of field values conforming to a TupleDesc,
// plus the record id it was read from (nil until inserted or read from a
// page).
type Tuple struct {
	Desc   TupleDesc
	Fields []DBValue
	Rid    *RecordId
}

func writeIntField(b *bytes.Buffer, f IntField) error {
	return binary.Write(b, binary.BigEndian, f.Value)
}

func readIntField(b *bytes.Buffer) (IntField, error) {
	var v int32
	if err := binary.Read(b, binary.BigEndian, &v); err != nil {
		return IntField{}, err
	}
	return IntField{Value: v}, nil
}

// writeStringField writes a 4-byte big-endian length prefix followed by
// CurrentConfig().StringLength bytes of string content, zero-padded or
// truncated to fit.
func writeStringField(b *bytes.Buffer, f StringField) error {
	cap := CurrentConfig().StringLength
	content := []byte(f.Value)
	if len(content) > cap {
		content = content[:cap]
	}
	if err := binary.Write(b, binary.BigEndian, int32(len(content))); err != nil {
		return err
	}
	padded := make([]byte, cap)
	copy(padded, content)
	_, err := b.Write(padded)
	return err
}

func readStringField(b *bytes.Buffer) (StringField, error) {
	cap := CurrentConfig().StringLength
	var length int32
	if err := binary.Read(b, binary.BigEndian, &length); err != nil {
		return StringField{}, err
	}
	raw := make([]byte, cap)
	if _, err := b.Read(raw); err != nil {
		return StringField{}, err
	}
	if int(length) < 0 || int(length) > cap {
		length = int32(cap)
	}
	return StringField{Value: string(raw[:length])}, nil
}

// writeTo serializes t's fields, in order, into b. Tuples are fixed-width
// given their TupleDesc, so this always writes the same number of bytes for
// a given descriptor.
func (t *Tuple) writeTo(b *bytes.Buffer) error {
	for _, field := range t.Fields {
		switch v := field.(type) {
		case StringField:
			if err := writeStringField(b, v); err != nil {
				return err
			}
		case IntField:
			if err := writeIntField(b, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported field type: %T", field)
		}
	}
	return nil
}

// readTupleFrom reads one fixed-width tuple matching desc from b.
func readTupleFrom(b *bytes.Buffer, desc *TupleDesc) (*Tuple, error) {
	tuple := &Tuple{Desc: *desc, Fields: make([]DBValue, 0, len(desc.Fields))}
	for _, fieldDesc := range desc.Fields {
		switch fieldDesc.Ftype {
		case StringType:
			strField, err := readStringField(b)
			if err != nil {
				return nil, err
			}
			tuple.Fields = append(tuple.Fields, strField)
		default:
			intField, err := readIntField(b)
			if err != nil {
				return nil, err
			}
			tuple.Fields = append(tuple.Fields, intField)
		}
	}
	return tuple, nil
}

// fieldWireSize returns the number of bytes ft occupies on disk.
func fieldWireSize(ft FieldType) int {
	if ft.Ftype == StringType {
		return 4 + CurrentConfig().StringLength
	}
	return 4
}

// tupleWireSize returns the fixed per-tuple byte width for desc.
func tupleWireSize(desc *TupleDesc) int {
	size := 0
	for _, f := range desc.Fields {
		size += fieldWireSize(f)
	}
	return size
}

// equals reports whether t1 and t2 have equal descriptors and field values.
func (t1 *Tuple) equals(t2 *Tuple) bool {
	if t1 == nil && t2 == nil {
		return true
	}
	if t1 == nil || t2 == nil {
		return false
	}
	if len(t1.Fields) != len(t2.Fields) {
		return false
	}
	if !t1.Desc.equals(&t2.Desc) {
		return false
	}
	for ind := range t1.Fields {
		if t1.Fields[ind] != t2.Fields[ind] {
			return false
		}
	}
	return true
}

// joinTuples merges t1 and t2's fields and descriptors, t1's fields first.
func joinTuples(t1 *Tuple, t2 *Tuple) *Tuple {
	if t1 == nil {
		return t2
	}
	if t2 == nil {
		return t1
	}
	return &Tuple{
		Desc:   *t1.Desc.merge(&t2.Desc),
		Fields: append(append([]DBValue{}, t1.Fields...), t2.Fields...),
	}
}

type orderByState int

const (
	OrderedLessThan orderByState = iota
	OrderedEqual
	OrderedGreaterThan
)

// compareField evaluates field on t and t2 and returns their relative order.
func (t *Tuple) compareField(t2 *Tuple, field Expr) (orderByState, error) {
	val1, err := field.EvalExpr(t)
	if err != nil {
		return OrderedEqual, err
	}
	val2, err := field.EvalExpr(t2)
	if err != nil {
		return OrderedEqual, err
	}
	return compareFields(val1, val2)
}

func compareFields(val1, val2 DBValue) (orderByState, error) {
	switch v1 := val1.(type) {
	case IntField:
		if v2, ok := val2.(IntField); ok {
			switch {
			case v1.Value > v2.Value:
				return OrderedGreaterThan, nil
			case v1.Value == v2.Value:
				return OrderedEqual, nil
			default:
				return OrderedLessThan, nil
			}
		}
	case StringField:
		if v2, ok := val2.(StringField); ok {
			switch {
			case v1.Value > v2.Value:
				return OrderedGreaterThan, nil
			case v1.Value == v2.Value:
				return OrderedEqual, nil
			default:
				return OrderedLessThan, nil
			}
		}
	}
	return OrderedEqual, fmt.Errorf("unsupported field comparison between %T and %T", val1, val2)
}

// project returns a new tuple containing just the named fields, preferring a
// TableQualifier match over a bare name match.
func (t *Tuple) project(fields []FieldType) (*Tuple, error) {
	projected := &Tuple{Desc: TupleDesc{}, Fields: []DBValue{}}
	for _, field := range fields {
		matchedIndex := -1
		for i, descField := range t.Desc.Fields {
			if field.Fname == descField.Fname && field.TableQualifier == descField.TableQualifier {
				matchedIndex = i
				break
			}
		}
		if matchedIndex == -1 {
			for i, descField := range t.Desc.Fields {
				if field.Fname == descField.Fname {
					matchedIndex = i
					break
				}
			}
		}
		if matchedIndex == -1 {
			return nil, fmt.Errorf("field %s.%s not found", field.TableQualifier, field.Fname)
		}
		projected.Fields = append(projected.Fields, t.Fields[matchedIndex])
		projected.Desc.Fields = append(projected.Desc.Fields, t.Desc.Fields[matchedIndex])
	}
	return projected, nil
}

// tupleKey computes a key for t suitable for use as a map key (e.g. for
// DISTINCT projection).
func (t *Tuple) tupleKey() any {
	var buf bytes.Buffer
	t.writeTo(&buf)
	return buf.String()
}

var winWidth = 120

func fmtCol(v string, ncols int) string {
	colWid := winWidth / ncols
	nextLen := len(v) + 3
	remLen := colWid - nextLen
	if remLen > 0 {
		spacesRight := remLen / 2
		spacesLeft := remLen - spacesRight
		return strings.Repeat(" ", spacesLeft) + v + strings.Repeat(" ", spacesRight) + " |"
	}
	if colWid-4 < 0 || colWid-4 > len(v) {
		return " " + v + " |"
	}
	return " " + v[0:colWid-4] + " |"
}

// HeaderString renders the field names of d, aligned into columns or as a
// comma-separated list.
func (d *TupleDesc) HeaderString(aligned bool) string {
	outstr := ""
	for i, f := range d.Fields {
		tableName := ""
		if f.TableQualifier != "" {
			tableName = f.TableQualifier + "."
		}
		if aligned {
			outstr = fmt.Sprintf("%s %s", outstr, fmtCol(tableName+f.Fname, len(d.Fields)))
		} else {
			sep := ","
			if i == 0 {
				sep = ""
			}
			outstr = fmt.Sprintf("%s%s%s", outstr, sep, tableName+f.Fname)
		}
	}
	return outstr
}

// PrettyPrintString renders t's field values, aligned into columns or as a
// comma-separated list.
func (t *Tuple) PrettyPrintString(aligned bool) string {
	outstr := ""
	for i, f := range t.Fields {
		str := ""
		switch f := f.(type) {
		case IntField:
			str = strconv.FormatInt(int64(f.Value), 10)
		case StringField:
			str = f.Value
		}
		if aligned {
			outstr = fmt.Sprintf("%s %s", outstr, fmtCol(str, len(t.Fields)))
		} else {
			sep := ","
			if i == 0 {
				sep = ""
			}
			outstr = fmt.Sprintf("%s%s%s", outstr, sep, str)
		}
	}
	return outstr
}
