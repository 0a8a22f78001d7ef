package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/relalg/internal/ir"
)

// readScalar decodes one scalar expression. The discriminating member is
// checked in the order input, literal, op.
func readScalar(f field, node int) (ir.Scalar, error) {
	if err := expectKind(f, cue.StructKind, node); err != nil {
		return nil, err
	}
	if in, ok := f.child("input"); ok {
		idx, err := indexOf(in, node)
		if err != nil {
			return nil, err
		}
		return &ir.AbstractInput{Index: idx}, nil
	}
	if lit, ok := f.child("literal"); ok {
		return readLiteral(f, lit, node)
	}
	if op, ok := f.child("op"); ok {
		return readOperator(f, op, node)
	}
	return nil, malformedAt(f, node, `expression needs one of "input", "literal" or "op"`)
}

// readLiteral decodes a literal whose payload is lit. The payload is read
// according to the declared type; NULL literals skip payload, scale and
// precision entirely.
func readLiteral(f, lit field, node int) (ir.Scalar, error) {
	typeField, err := member(f, "type", node)
	if err != nil {
		return nil, err
	}
	typeName, err := stringOf(typeField, node)
	if err != nil {
		return nil, err
	}
	typ, ok := ir.ParseSQLType(typeName)
	if !ok {
		return nil, malformedAt(typeField, node, "unknown literal type %q", typeName)
	}
	if typ == ir.TypeNull {
		return ir.NewNullLiteral(), nil
	}

	out := &ir.Literal{Type: typ}
	if out.Scale, err = intMember(f, "scale", node); err != nil {
		return nil, err
	}
	if out.Precision, err = intMember(f, "precision", node); err != nil {
		return nil, err
	}
	out.TypeScale, out.TypePrecision = out.Scale, out.Precision
	if ts, ok := f.child("type_scale"); ok {
		if out.TypeScale, err = intOf(ts, node); err != nil {
			return nil, err
		}
	}
	if tp, ok := f.child("type_precision"); ok {
		if out.TypePrecision, err = intOf(tp, node); err != nil {
			return nil, err
		}
	}

	switch typ.DatumKind() {
	case ir.DatumInt:
		n, err := int64Of(lit, node)
		if err != nil {
			return nil, err
		}
		out.Value = ir.IntDatum(n)
	case ir.DatumDouble:
		x, err := float64Of(lit, node)
		if err != nil {
			return nil, err
		}
		out.Value = ir.DoubleDatum(x)
	case ir.DatumString:
		s, err := stringOf(lit, node)
		if err != nil {
			return nil, err
		}
		out.Value = ir.StringDatum(s)
	case ir.DatumBool:
		b, err := boolOf(lit, node)
		if err != nil {
			return nil, err
		}
		out.Value = ir.BoolDatum(b)
	default:
		return nil, malformedAt(typeField, node, "literal type %q carries no value", typeName)
	}
	return out, nil
}

// readOperator decodes an operator and all of its operands.
func readOperator(f, opField field, node int) (ir.Scalar, error) {
	name, err := stringOf(opField, node)
	if err != nil {
		return nil, err
	}
	op, ok := ir.ParseOp(name)
	if !ok {
		return nil, &UnsupportedOperatorError{Node: node, Kind: "op", Name: name, Field: opField.path, Pos: opField.pos()}
	}

	operandsField, err := member(f, "operands", node)
	if err != nil {
		return nil, err
	}
	elems, err := listOf(operandsField, node)
	if err != nil {
		return nil, err
	}
	if !op.AcceptsOperands(len(elems)) {
		lo, hi := op.Operands()
		if hi < 0 {
			return nil, malformedAt(operandsField, node, "operator %s takes at least %d operands, got %d", op, lo, len(elems))
		}
		return nil, malformedAt(operandsField, node, "operator %s takes %d operands, got %d", op, lo, len(elems))
	}

	operands := make([]ir.Scalar, len(elems))
	for i, e := range elems {
		if operands[i], err = readScalar(e, node); err != nil {
			return nil, err
		}
	}
	return &ir.Operator{Op: op, Operands: operands}, nil
}

// readAgg decodes an aggregate call:
//
//	{"agg": "SUM", "distinct": false, "type": {"type": "BIGINT", "nullable": true}, "operands": [1]}
func readAgg(f field, node int) (*ir.Agg, error) {
	if err := expectKind(f, cue.StructKind, node); err != nil {
		return nil, err
	}
	aggField, err := member(f, "agg", node)
	if err != nil {
		return nil, err
	}
	name, err := stringOf(aggField, node)
	if err != nil {
		return nil, err
	}
	kind, ok := ir.ParseAggKind(name)
	if !ok {
		return nil, &UnsupportedOperatorError{Node: node, Kind: "agg", Name: name, Field: aggField.path, Pos: aggField.pos()}
	}

	out := &ir.Agg{Kind: kind}
	distinctField, err := member(f, "distinct", node)
	if err != nil {
		return nil, err
	}
	if out.Distinct, err = boolOf(distinctField, node); err != nil {
		return nil, err
	}

	typeField, err := member(f, "type", node)
	if err != nil {
		return nil, err
	}
	if err := expectKind(typeField, cue.StructKind, node); err != nil {
		return nil, err
	}
	if n := memberCount(typeField); n != 2 {
		return nil, malformedAt(typeField, node, `aggregate type must have exactly "type" and "nullable", got %d members`, n)
	}
	innerType, err := member(typeField, "type", node)
	if err != nil {
		return nil, err
	}
	typeName, err := stringOf(innerType, node)
	if err != nil {
		return nil, err
	}
	if out.Type, ok = ir.ParseSQLType(typeName); !ok {
		return nil, malformedAt(innerType, node, "unknown aggregate type %q", typeName)
	}
	nullable, err := member(typeField, "nullable", node)
	if err != nil {
		return nil, err
	}
	if out.Nullable, err = boolOf(nullable, node); err != nil {
		return nil, err
	}

	operandsField, err := member(f, "operands", node)
	if err != nil {
		return nil, err
	}
	if out.Operands, err = indicesOf(operandsField, node); err != nil {
		return nil, err
	}
	if !kind.AcceptsOperands(len(out.Operands)) {
		return nil, malformedAt(operandsField, node, "aggregate %s does not take %d operands", kind, len(out.Operands))
	}
	return out, nil
}

func intMember(f field, name string, node int) (int, error) {
	m, err := member(f, name, node)
	if err != nil {
		return 0, err
	}
	return intOf(m, node)
}
