package ir

// DAG is a finished relational plan. Nodes[i].ID() == i for every i,
// and the last node is the root. A DAG is read-only once returned by
// the builder.
type DAG struct {
	BuildID string
	Nodes   []Node
}

// Root returns the last node, or nil for an empty DAG.
func (d *DAG) Root() Node {
	if len(d.Nodes) == 0 {
		return nil
	}
	return d.Nodes[len(d.Nodes)-1]
}

// Node returns the node with the given id, or nil if out of range.
func (d *DAG) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(d.Nodes) {
		return nil
	}
	return d.Nodes[id]
}

// Len returns the number of nodes.
func (d *DAG) Len() int {
	return len(d.Nodes)
}

// Consumers counts, for every node, how many input edges point at it.
// A self-join contributes two edges.
func (d *DAG) Consumers() []int {
	counts := make([]int, len(d.Nodes))
	for _, n := range d.Nodes {
		for _, in := range n.Inputs() {
			if in >= 0 && int(in) < len(counts) {
				counts[in]++
			}
		}
	}
	return counts
}
