package compiler

import (
	"fmt"

	"github.com/roach88/relalg/internal/ir"
)

// bind rewrites every AbstractInput into the Input it denotes. Filter and
// Project bind against their input's schema and Join against the
// concatenated schema of both sides. Scan has no expressions and
// Aggregate indices are already relative to its input.
func (b *build) bind() error {
	r := newResolver(b.nodes)
	for _, n := range b.nodes {
		var err error
		switch v := n.(type) {
		case *ir.Filter:
			schema := r.resolve(v.Inputs()[0])
			v.Condition, err = b.rewrite(v.ID(), "condition", v.Condition, schema)
		case *ir.Project:
			schema := r.resolve(v.Inputs()[0])
			for i, e := range v.Exprs {
				if v.Exprs[i], err = b.rewrite(v.ID(), fmt.Sprintf("exprs[%d]", i), e, schema); err != nil {
					break
				}
			}
		case *ir.Join:
			left := r.resolve(v.Inputs()[0])
			right := r.resolve(v.Inputs()[1])
			schema := append(append(make([]ir.Input, 0, len(left)+len(right)), left...), right...)
			v.Condition, err = b.rewrite(v.ID(), "condition", v.Condition, schema)
		case *ir.Scan, *ir.Aggregate:
		default:
			err = b.malformed(v.ID(), "", "unexpected %s before coalescing", n.Kind())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// rewrite binds one expression tree against schema.
func (b *build) rewrite(id ir.NodeID, path string, s ir.Scalar, schema []ir.Input) (ir.Scalar, error) {
	switch v := s.(type) {
	case *ir.AbstractInput:
		if v.Index >= len(schema) {
			return nil, b.malformed(id, path, "input index %d is out of range for %d input columns", v.Index, len(schema))
		}
		in := schema[v.Index]
		return &ir.Input{Source: in.Source, Index: in.Index}, nil
	case *ir.Operator:
		operands := make([]ir.Scalar, len(v.Operands))
		for i, o := range v.Operands {
			var err error
			if operands[i], err = b.rewrite(id, fmt.Sprintf("%s.operands[%d]", path, i), o, schema); err != nil {
				return nil, err
			}
		}
		return &ir.Operator{Op: v.Op, Operands: operands}, nil
	case *ir.Literal:
		c := *v
		return &c, nil
	default:
		return nil, b.malformed(id, path, "cannot bind %T", s)
	}
}

// malformed reports a contract violation found after decoding, located
// at the node's declaration.
func (b *build) malformed(id ir.NodeID, path, format string, args ...any) error {
	f := fmt.Sprintf("rels[%d]", id)
	if path != "" {
		f += "." + path
	}
	e := &MalformedPlanError{Node: int(id), Field: f, Message: fmt.Sprintf(format, args...)}
	if int(id) < len(b.pos) {
		e.Pos = b.pos[id]
	}
	return e
}
