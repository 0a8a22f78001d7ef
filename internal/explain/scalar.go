package explain

import (
	"fmt"
	"strings"

	"github.com/roach88/relalg/internal/ir"
)

// FormatScalar renders an expression.
func FormatScalar(s ir.Scalar, flags Flags) string {
	var sb strings.Builder
	formatScalar(&sb, s, flags)
	return sb.String()
}

func formatScalar(sb *strings.Builder, s ir.Scalar, flags Flags) {
	switch v := s.(type) {
	case nil:
	case *ir.AbstractInput:
		fmt.Fprintf(sb, "$%d", v.Index)
	case *ir.Input:
		fmt.Fprintf(sb, "@%d.%d", v.Source, v.Index)
	case *ir.Literal:
		sb.WriteString(v.Value.String())
		if flags.ShowTypes && v.Type != ir.TypeNull {
			fmt.Fprintf(sb, "::%s(%d,%d)", v.Type, v.TypePrecision, v.TypeScale)
		}
	case *ir.Operator:
		formatOperator(sb, v, flags)
	case *ir.Agg:
		sb.WriteString(FormatAgg(v))
	default:
		fmt.Fprintf(sb, "<%T>", s)
	}
}

func formatOperator(sb *strings.Builder, op *ir.Operator, flags Flags) {
	operand := func(i int) {
		formatScalar(sb, op.Operands[i], flags)
	}
	switch {
	case op.Op == ir.OpAnd || op.Op == ir.OpOr:
		sb.WriteByte('(')
		for i := range op.Operands {
			if i > 0 {
				fmt.Fprintf(sb, " %s ", op.Op)
			}
			operand(i)
		}
		sb.WriteByte(')')
	case op.Op == ir.OpNot && len(op.Operands) == 1:
		sb.WriteString("NOT ")
		operand(0)
	case (op.Op == ir.OpIsNull || op.Op == ir.OpIsNotNull) && len(op.Operands) == 1:
		sb.WriteByte('(')
		operand(0)
		fmt.Fprintf(sb, " %s)", op.Op)
	case len(op.Operands) == 2 && op.Op != ir.OpCast:
		sb.WriteByte('(')
		operand(0)
		fmt.Fprintf(sb, " %s ", op.Op)
		operand(1)
		sb.WriteByte(')')
	default:
		fmt.Fprintf(sb, "%s(", op.Op)
		for i := range op.Operands {
			if i > 0 {
				sb.WriteString(", ")
			}
			operand(i)
		}
		sb.WriteByte(')')
	}
}

// FormatAgg renders an aggregate call over input columns, e.g.
// count(*), sum($1) or count(DISTINCT $0).
func FormatAgg(a *ir.Agg) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(string(a.Kind)))
	sb.WriteByte('(')
	if a.Distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(a.Operands) == 0 {
		sb.WriteByte('*')
	}
	sb.WriteString(columnList(a.Operands))
	sb.WriteByte(')')
	return sb.String()
}

// columnList renders input column ordinals as "$0, $2".
func columnList(cols []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("$%d", c)
	}
	return strings.Join(parts, ", ")
}
