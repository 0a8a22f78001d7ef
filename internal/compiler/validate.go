package compiler

import (
	"fmt"

	"github.com/roach88/relalg/internal/ir"
)

// Postcondition codes (E210-E219).
const (
	ErrNodeIDMismatch        = "E210" // node id differs from its position
	ErrResidualAbstractInput = "E211" // AbstractInput survived binding
	ErrForwardReference      = "E212" // input edge or provenance not strictly backward
	ErrInputCount            = "E213" // wrong number of inputs for the node kind
	ErrArityMismatch         = "E214" // stored arity disagrees with the node's definition
	ErrBadProvenance         = "E215" // Input names a pass-through node or a missing column
	ErrBadCompound           = "E216" // compound stages inconsistent
)

// ValidationError describes one violated DAG postcondition.
type ValidationError struct {
	Node    int    `json:"node"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] node %d: %s: %s", e.Code, e.Node, e.Field, e.Message)
}

// Validate checks every postcondition a finished DAG must satisfy and
// returns all violations found (it does not stop at the first).
func Validate(d *ir.DAG) []ValidationError {
	v := &validator{dag: d}
	for i, n := range d.Nodes {
		v.node(i, n)
	}
	return v.errs
}

type validator struct {
	dag  *ir.DAG
	errs []ValidationError
}

func (v *validator) add(node int, field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Node:    node,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

var wantInputs = map[ir.NodeKind]int{
	ir.KindScan:      0,
	ir.KindProject:   1,
	ir.KindFilter:    1,
	ir.KindAggregate: 1,
	ir.KindJoin:      2,
	ir.KindCompound:  1,
}

func (v *validator) node(i int, n ir.Node) {
	if int(n.ID()) != i {
		v.add(i, "id", ErrNodeIDMismatch, "id %d at position %d", n.ID(), i)
	}

	inputs := n.Inputs()
	if want := wantInputs[n.Kind()]; len(inputs) != want {
		v.add(i, "inputs", ErrInputCount, "%s has %d inputs, want %d", n.Kind(), len(inputs), want)
		return
	}
	for k, in := range inputs {
		if in < 0 || int(in) >= i {
			v.add(i, fmt.Sprintf("inputs[%d]", k), ErrForwardReference, "input %d is not an earlier node", in)
			return
		}
	}

	if want := v.expectedArity(n); n.Arity() != want {
		v.add(i, "arity", ErrArityMismatch, "%s has arity %d, want %d", n.Kind(), n.Arity(), want)
	}

	switch x := n.(type) {
	case *ir.Project:
		for k, e := range x.Exprs {
			v.scalar(i, fmt.Sprintf("exprs[%d]", k), e)
		}
	case *ir.Filter:
		v.scalar(i, "condition", x.Condition)
	case *ir.Join:
		v.scalar(i, "condition", x.Condition)
	case *ir.Aggregate:
		v.stageIndices(i, "", v.dag.Nodes[inputs[0]].Arity(), x.Group, x.Aggs)
	case *ir.Compound:
		v.compound(i, x)
	}
}

// expectedArity recomputes a node's arity from its definition.
func (v *validator) expectedArity(n ir.Node) int {
	switch x := n.(type) {
	case *ir.Scan:
		return len(x.Table.Columns)
	case *ir.Project:
		return len(x.Exprs)
	case *ir.Filter:
		return v.dag.Nodes[x.Inputs()[0]].Arity()
	case *ir.Aggregate:
		return len(x.Group) + len(x.Aggs)
	case *ir.Join:
		return v.dag.Nodes[x.Inputs()[0]].Arity() + v.dag.Nodes[x.Inputs()[1]].Arity()
	case *ir.Compound:
		switch {
		case x.Rename != nil:
			return len(x.Rename.Columns)
		case x.Aggregate != nil:
			return len(x.Aggregate.Group) + len(x.Aggregate.Aggs)
		default:
			return len(x.Exprs)
		}
	default:
		return -1
	}
}

// scalar checks an expression owned by node i.
func (v *validator) scalar(i int, field string, s ir.Scalar) {
	ir.WalkScalar(s, func(e ir.Scalar) bool {
		switch x := e.(type) {
		case *ir.AbstractInput:
			v.add(i, field, ErrResidualAbstractInput, "unbound input %d", x.Index)
		case *ir.Input:
			v.provenance(i, field, x)
		case *ir.Agg:
			v.add(i, field, ErrBadProvenance, "aggregate call outside an aggregate")
		}
		return true
	})
}

// provenance checks that an Input points backward at a node defining a
// fresh schema, and at a column that node has.
func (v *validator) provenance(i int, field string, in *ir.Input) {
	if in.Source < 0 || int(in.Source) >= i {
		v.add(i, field, ErrForwardReference, "input reads node %d", in.Source)
		return
	}
	src := v.dag.Nodes[in.Source]
	switch src.Kind() {
	case ir.KindFilter, ir.KindJoin:
		v.add(i, field, ErrBadProvenance, "input reads pass-through %s node %d", src.Kind(), in.Source)
		return
	}
	if in.Index < 0 || in.Index >= src.Arity() {
		v.add(i, field, ErrBadProvenance, "column %d is out of range for node %d with arity %d", in.Index, in.Source, src.Arity())
	}
}

func (v *validator) compound(i int, c *ir.Compound) {
	if c.Filter != nil {
		v.scalar(i, "filter", c.Filter)
	}
	for k, e := range c.Exprs {
		v.scalar(i, fmt.Sprintf("exprs[%d]", k), e)
	}
	if len(c.ExprFields) != len(c.Exprs) {
		v.add(i, "expr_fields", ErrBadCompound, "%d expressions but %d names", len(c.Exprs), len(c.ExprFields))
	}
	if c.Rename != nil && c.Aggregate == nil {
		v.add(i, "rename", ErrBadCompound, "rename stage without an aggregate stage")
		return
	}
	if c.Aggregate != nil {
		v.stageIndices(i, "aggregate.", len(c.Exprs), c.Aggregate.Group, c.Aggregate.Aggs)
	}
	if c.Rename != nil {
		width := len(c.Aggregate.Group) + len(c.Aggregate.Aggs)
		for k, col := range c.Rename.Columns {
			if col < 0 || col >= width {
				v.add(i, fmt.Sprintf("rename.columns[%d]", k), ErrBadCompound, "column %d is out of range for %d aggregate outputs", col, width)
			}
		}
	}
}

// stageIndices checks group and aggregate operand indices against the
// width of the stage's input.
func (v *validator) stageIndices(i int, prefix string, width int, group []int, aggs []*ir.Agg) {
	for k, g := range group {
		if g < 0 || g >= width {
			v.add(i, fmt.Sprintf("%sgroup[%d]", prefix, k), ErrBadProvenance, "group column %d is out of range for %d inputs", g, width)
		}
	}
	for k, a := range aggs {
		for _, o := range a.Operands {
			if o < 0 || o >= width {
				v.add(i, fmt.Sprintf("%saggs[%d]", prefix, k), ErrBadProvenance, "operand %d is out of range for %d inputs", o, width)
			}
		}
	}
}
