package compiler

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/relalg/internal/ir"
)

// Resolve returns the output schema of node id as provenance entries:
// for each output column, the node and column its value originates from.
//
//   - Scan, Project, Aggregate, Compound define a fresh schema (id, i)
//   - Filter passes its input's entries through unchanged
//   - Join concatenates its left then right input's entries
//
// The result must not be modified.
func Resolve(d *ir.DAG, id ir.NodeID) []ir.Input {
	if d.Node(id) == nil {
		return nil
	}
	return newResolver(d.Nodes).resolve(id)
}

// resolver memoizes schemas so that shared subplans are resolved once.
type resolver struct {
	nodes []ir.Node
	cache map[ir.NodeID][]ir.Input
}

func newResolver(nodes []ir.Node) *resolver {
	return &resolver{nodes: nodes, cache: make(map[ir.NodeID][]ir.Input)}
}

func (r *resolver) resolve(id ir.NodeID) []ir.Input {
	if s, ok := r.cache[id]; ok {
		return s
	}
	var out []ir.Input
	switch n := r.nodes[id].(type) {
	case *ir.Scan, *ir.Project, *ir.Aggregate, *ir.Compound:
		out = make([]ir.Input, n.Arity())
		for i := range out {
			out[i] = ir.Input{Source: id, Index: i}
		}
	case *ir.Filter:
		out = r.resolve(n.Inputs()[0])
	case *ir.Join:
		left := r.resolve(n.Inputs()[0])
		right := r.resolve(n.Inputs()[1])
		out = make([]ir.Input, 0, len(left)+len(right))
		out = append(out, left...)
		out = append(out, right...)
	default:
		panic(errors.AssertionFailedf("resolve: unknown node type %T", n))
	}
	r.cache[id] = out
	return out
}
