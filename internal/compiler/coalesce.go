package compiler

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/relalg/internal/ir"
)

// matchState is the coalescer's position within a candidate pattern.
type matchState int

const (
	stateInitial matchState = iota
	stateFilter
	stateFirstProject
	stateAggregate
)

// findPatterns scans the bound node list once and returns the runs of
// nodes to fuse, each of the shape Filter? Project (Aggregate Project?)?.
// A run ends at the first node that cannot extend it, and that node is
// then considered afresh as the start of the next run.
//
// A run only grows past a node whose sole consumer is the next node, so
// no fused intermediate is visible outside its compound.
func (b *build) findPatterns() ([][]ir.Node, error) {
	consumers := (&ir.DAG{Nodes: b.nodes}).Consumers()

	var (
		patterns [][]ir.Node
		cur      []ir.Node
		state    = stateInitial
	)
	reset := func() {
		cur, state = nil, stateInitial
	}
	emit := func() {
		patterns = append(patterns, cur)
		reset()
	}
	tailPrivate := func() bool {
		return consumers[cur[len(cur)-1].ID()] == 1
	}

	for i := 0; i < len(b.nodes); {
		n := b.nodes[i]
		switch state {
		case stateInitial:
			switch n.(type) {
			case *ir.Filter:
				cur, state = []ir.Node{n}, stateFilter
			case *ir.Project:
				cur, state = []ir.Node{n}, stateFirstProject
			}
			i++

		case stateFilter:
			if _, ok := n.(*ir.Project); !ok {
				f := cur[0].ID()
				return nil, b.malformed(f, "", "filter must be followed by a project, got %s (node %d)", n.Kind(), n.ID())
			}
			if !tailPrivate() {
				reset()
				continue
			}
			cur, state = append(cur, n), stateFirstProject
			i++

		case stateFirstProject:
			if _, ok := n.(*ir.Aggregate); ok && tailPrivate() {
				cur, state = append(cur, n), stateAggregate
				i++
				continue
			}
			emit()

		case stateAggregate:
			if p, ok := n.(*ir.Project); ok && isRename(p) && tailPrivate() {
				cur = append(cur, n)
				emit()
				i++
				continue
			}
			emit()
		}
	}
	if state == stateFirstProject || state == stateAggregate {
		emit()
	}
	return patterns, nil
}

// isRename reports whether p only selects and renames input columns.
func isRename(p *ir.Project) bool {
	for _, e := range p.Exprs {
		if _, ok := e.(*ir.Input); !ok {
			return false
		}
	}
	return true
}

// coalesce replaces every pattern with one Compound and renumbers the
// arena so ids stay equal to positions. Edges and provenance into a
// pattern are retargeted to its compound.
func (b *build) coalesce(patterns [][]ir.Node) ([]ir.Node, error) {
	if len(patterns) == 0 {
		return b.nodes, nil
	}

	n := len(b.nodes)
	newID := make([]ir.NodeID, n)
	interior := make([]bool, n)
	head := make(map[ir.NodeID][]ir.Node, len(patterns))
	fusedNode := make([]bool, n)
	for _, p := range patterns {
		head[p[0].ID()] = p
		for k, m := range p {
			fusedNode[m.ID()] = true
			interior[m.ID()] = k < len(p)-1
		}
	}

	next := ir.NodeID(0)
	for i := 0; i < n; i++ {
		id := ir.NodeID(i)
		if p, ok := head[id]; ok {
			for _, m := range p {
				newID[m.ID()] = next
			}
			next++
			continue
		}
		if !fusedNode[i] {
			newID[i] = next
			next++
		}
	}

	rm := &remapper{newID: newID, interior: interior}
	out := make([]ir.Node, 0, int(next))
	for i := 0; i < n; i++ {
		id := ir.NodeID(i)
		if p, ok := head[id]; ok {
			c, err := rm.compound(newID[id], p)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
			continue
		}
		if fusedNode[i] {
			continue
		}
		node, err := rm.node(newID[id], b.nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

// remapper rewrites node references from pre- to post-coalescing ids.
type remapper struct {
	newID    []ir.NodeID
	interior []bool
}

func (rm *remapper) id(old ir.NodeID) (ir.NodeID, error) {
	if rm.interior[old] {
		return 0, errors.AssertionFailedf("coalesce: reference to fused interior node %d", old)
	}
	return rm.newID[old], nil
}

func (rm *remapper) scalar(s ir.Scalar) (ir.Scalar, error) {
	switch v := s.(type) {
	case nil:
		return nil, nil
	case *ir.Input:
		src, err := rm.id(v.Source)
		if err != nil {
			return nil, err
		}
		return &ir.Input{Source: src, Index: v.Index}, nil
	case *ir.Operator:
		operands, err := rm.scalars(v.Operands)
		if err != nil {
			return nil, err
		}
		return &ir.Operator{Op: v.Op, Operands: operands}, nil
	case *ir.Literal:
		return v, nil
	default:
		return nil, errors.AssertionFailedf("coalesce: unexpected %T in bound expression", s)
	}
}

func (rm *remapper) scalars(ss []ir.Scalar) ([]ir.Scalar, error) {
	out := make([]ir.Scalar, len(ss))
	for i, s := range ss {
		var err error
		if out[i], err = rm.scalar(s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (rm *remapper) node(id ir.NodeID, n ir.Node) (ir.Node, error) {
	inputs := make([]ir.NodeID, len(n.Inputs()))
	for i, in := range n.Inputs() {
		var err error
		if inputs[i], err = rm.id(in); err != nil {
			return nil, err
		}
	}
	switch v := n.(type) {
	case *ir.Scan:
		return ir.NewScan(id, v.Table, v.FieldNames), nil
	case *ir.Project:
		exprs, err := rm.scalars(v.Exprs)
		if err != nil {
			return nil, err
		}
		return ir.NewProject(id, inputs[0], exprs, v.Fields), nil
	case *ir.Filter:
		cond, err := rm.scalar(v.Condition)
		if err != nil {
			return nil, err
		}
		return ir.NewFilter(id, inputs[0], v.Arity(), cond), nil
	case *ir.Aggregate:
		return ir.NewAggregate(id, inputs[0], v.Group, v.Aggs, v.Fields), nil
	case *ir.Join:
		cond, err := rm.scalar(v.Condition)
		if err != nil {
			return nil, err
		}
		return &ir.Join{
			Base:      ir.Base{NodeID: id, InputIDs: inputs, Width: v.Arity()},
			JoinKind:  v.JoinKind,
			Condition: cond,
		}, nil
	default:
		return nil, errors.AssertionFailedf("coalesce: unexpected %s before coalescing", n.Kind())
	}
}

// compound fuses one pattern.
func (rm *remapper) compound(id ir.NodeID, p []ir.Node) (*ir.Compound, error) {
	var (
		filter ir.Scalar
		proj   *ir.Project
		agg    *ir.Aggregate
		rename *ir.Project
		fused  = make([]ir.NodeID, len(p))
	)
	for i, n := range p {
		fused[i] = n.ID()
		switch v := n.(type) {
		case *ir.Filter:
			filter = v.Condition
		case *ir.Project:
			if proj == nil {
				proj = v
			} else {
				rename = v
			}
		case *ir.Aggregate:
			agg = v
		}
	}
	if proj == nil {
		return nil, errors.AssertionFailedf("coalesce: pattern %v lacks a project", fused)
	}
	if rename != nil && agg == nil {
		return nil, errors.AssertionFailedf("coalesce: pattern %v renames without an aggregate", fused)
	}

	input, err := rm.id(p[0].Inputs()[0])
	if err != nil {
		return nil, err
	}
	filterExpr, err := rm.scalar(filter)
	if err != nil {
		return nil, err
	}
	exprs, err := rm.scalars(proj.Exprs)
	if err != nil {
		return nil, err
	}
	var stage *ir.AggregateStage
	if agg != nil {
		stage = &ir.AggregateStage{Group: agg.Group, Aggs: agg.Aggs, Fields: agg.Fields}
	}

	var renameStage *ir.RenameStage
	if rename != nil {
		renameStage = &ir.RenameStage{Columns: make([]int, len(rename.Exprs)), Fields: rename.Fields}
		for i, e := range rename.Exprs {
			in := e.(*ir.Input)
			if in.Source != agg.ID() {
				return nil, errors.AssertionFailedf("coalesce: rename column %d reads node %d, not the aggregate", i, in.Source)
			}
			renameStage.Columns[i] = in.Index
		}
	}
	return ir.NewCompound(id, input, filterExpr, exprs, proj.Fields, stage, renameStage, fused), nil
}
