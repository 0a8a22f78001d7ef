package explain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/relalg/internal/ir"
)

// Emit renders d from its root down through input edges. A node reached
// a second time (a shared subplan or a self-join) is listed by reference
// only.
func Emit(d *ir.DAG, flags Flags) string {
	ob := NewOutputBuilder(flags)
	if root := d.Root(); root != nil {
		e := emitter{ob: ob, dag: d, seen: make(map[ir.NodeID]bool)}
		e.emit(root)
	}
	return ob.BuildString()
}

type emitter struct {
	ob   *OutputBuilder
	dag  *ir.DAG
	seen map[ir.NodeID]bool
}

func (e *emitter) emit(n ir.Node) {
	name := fmt.Sprintf("%s @%d", strings.ToLower(n.Kind().String()), n.ID())
	if e.seen[n.ID()] {
		e.ob.EnterNode(name + " (shared)")
		e.ob.LeaveNode()
		return
	}
	e.seen[n.ID()] = true

	e.ob.EnterNode(name)
	if cols := ir.OutputFields(n); cols != nil {
		e.ob.AddVerboseField("columns", "("+strings.Join(cols, ", ")+")")
	}
	e.ob.AddVerboseField("arity", strconv.Itoa(n.Arity()))
	e.fields(n)
	for _, in := range n.Inputs() {
		if child := e.dag.Node(in); child != nil {
			e.emit(child)
		}
	}
	e.ob.LeaveNode()
}

func (e *emitter) scalar(s ir.Scalar) string {
	return FormatScalar(s, e.ob.flags)
}

func (e *emitter) fields(n ir.Node) {
	switch v := n.(type) {
	case *ir.Scan:
		e.ob.AddField("table", v.Table.Name)
	case *ir.Project:
		e.renders(v.Exprs, v.Fields)
	case *ir.Filter:
		e.ob.AddField("filter", e.scalar(v.Condition))
	case *ir.Aggregate:
		e.aggregate(v.Group, v.Aggs, v.Fields)
	case *ir.Join:
		e.ob.AddField("type", strings.ToLower(string(v.JoinKind)))
		e.ob.AddField("condition", e.scalar(v.Condition))
	case *ir.Compound:
		fused := make([]string, len(v.Fused))
		for i, id := range v.Fused {
			fused[i] = strconv.Itoa(int(id))
		}
		e.ob.AddField("fused", strings.Join(fused, ", "))
		if v.Filter != nil {
			e.ob.AddField("filter", e.scalar(v.Filter))
		}
		e.renders(v.Exprs, v.ExprFields)
		if v.Aggregate != nil {
			e.aggregate(v.Aggregate.Group, v.Aggregate.Aggs, v.Aggregate.Fields)
		}
		if v.Rename != nil {
			for i, col := range v.Rename.Columns {
				e.ob.AddField("rename "+nameAt(v.Rename.Fields, i), fmt.Sprintf("$%d", col))
			}
		}
	}
}

func (e *emitter) renders(exprs []ir.Scalar, names []string) {
	for i, x := range exprs {
		e.ob.AddField("render "+nameAt(names, i), e.scalar(x))
	}
}

func (e *emitter) aggregate(group []int, aggs []*ir.Agg, names []string) {
	if len(group) > 0 {
		e.ob.AddField("group by", columnList(group))
	}
	for i, a := range aggs {
		e.ob.AddField("aggregate "+nameAt(names, len(group)+i), FormatAgg(a))
	}
}

// nameAt returns names[i], or the ordinal when the name is missing.
func nameAt(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return strconv.Itoa(i)
}
