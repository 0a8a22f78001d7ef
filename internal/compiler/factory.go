package compiler

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/relalg/internal/ir"
)

// build is the state of one plan build. It owns the node arena until
// the finished DAG is handed to the caller.
type build struct {
	catalog Catalog
	nodes   []ir.Node
	// pos records where each node was declared, for errors raised after
	// decoding.
	pos []token.Pos
}

// readNodes runs the factory over every rels element in order.
func (b *build) readNodes(rels []field) error {
	for i, f := range rels {
		n, err := b.readNode(i, f)
		if err != nil {
			return err
		}
		b.nodes = append(b.nodes, n)
		b.pos = append(b.pos, f.pos())
	}
	return nil
}

// readNode decodes the node declared at position pos.
func (b *build) readNode(pos int, f field) (ir.Node, error) {
	if err := expectKind(f, cue.StructKind, pos); err != nil {
		return nil, err
	}
	idField, err := member(f, "id", pos)
	if err != nil {
		return nil, err
	}
	id, err := nodeRef(idField, pos)
	if err != nil {
		return nil, err
	}
	if id != pos {
		return nil, malformedAt(idField, pos, "node id %d does not match its position %d", id, pos)
	}

	opField, err := member(f, "relOp", pos)
	if err != nil {
		return nil, err
	}
	relOp, err := stringOf(opField, pos)
	if err != nil {
		return nil, err
	}

	switch ir.RelOp(relOp) {
	case ir.RelOpScan:
		return b.readScan(pos, f)
	case ir.RelOpProject:
		return b.readProject(pos, f)
	case ir.RelOpFilter:
		return b.readFilter(pos, f)
	case ir.RelOpAggregate:
		return b.readAggregate(pos, f)
	case ir.RelOpJoin:
		return b.readJoin(pos, f)
	default:
		return nil, &UnsupportedOperatorError{Node: pos, Kind: "relOp", Name: relOp, Field: opField.path, Pos: opField.pos()}
	}
}

// prev returns the input of a single-input node: the node declared
// immediately before it.
func (b *build) prev(pos int, f field, kind string) (ir.Node, error) {
	if pos == 0 || len(b.nodes) == 0 {
		return nil, malformedAt(f, pos, "%s has no preceding node to take as input", kind)
	}
	return b.nodes[len(b.nodes)-1], nil
}

func (b *build) readScan(pos int, f field) (ir.Node, error) {
	tableField, err := member(f, "table", pos)
	if err != nil {
		return nil, err
	}
	parts, err := stringsOf(tableField, pos)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, malformedAt(tableField, pos, "table must have 3 name parts, got %d", len(parts))
	}
	name := parts[2]
	table, ok := b.catalog.LookupTable(name)
	if !ok {
		return nil, &UnknownTableError{Node: pos, Table: name, Field: tableField.path, Pos: tableField.pos()}
	}

	namesField, err := member(f, "fieldNames", pos)
	if err != nil {
		return nil, err
	}
	names, err := stringsOf(namesField, pos)
	if err != nil {
		return nil, err
	}
	return ir.NewScan(ir.NodeID(pos), table, names), nil
}

func (b *build) readProject(pos int, f field) (ir.Node, error) {
	in, err := b.prev(pos, f, "project")
	if err != nil {
		return nil, err
	}
	exprsField, err := member(f, "exprs", pos)
	if err != nil {
		return nil, err
	}
	elems, err := listOf(exprsField, pos)
	if err != nil {
		return nil, err
	}
	exprs := make([]ir.Scalar, len(elems))
	for i, e := range elems {
		if exprs[i], err = readScalar(e, pos); err != nil {
			return nil, err
		}
	}

	fieldsField, err := member(f, "fields", pos)
	if err != nil {
		return nil, err
	}
	fields, err := stringsOf(fieldsField, pos)
	if err != nil {
		return nil, err
	}
	if len(fields) != len(exprs) {
		return nil, malformedAt(fieldsField, pos, "project has %d expressions but %d field names", len(exprs), len(fields))
	}
	return ir.NewProject(ir.NodeID(pos), in.ID(), exprs, fields), nil
}

func (b *build) readFilter(pos int, f field) (ir.Node, error) {
	in, err := b.prev(pos, f, "filter")
	if err != nil {
		return nil, err
	}
	condField, err := member(f, "condition", pos)
	if err != nil {
		return nil, err
	}
	cond, err := readScalar(condField, pos)
	if err != nil {
		return nil, err
	}
	if !ir.IsBooleanShaped(cond) {
		return nil, malformedAt(condField, pos, "filter condition is not a predicate")
	}
	return ir.NewFilter(ir.NodeID(pos), in.ID(), in.Arity(), cond), nil
}

func (b *build) readAggregate(pos int, f field) (ir.Node, error) {
	in, err := b.prev(pos, f, "aggregate")
	if err != nil {
		return nil, err
	}
	width := in.Arity()

	groupField, err := member(f, "group", pos)
	if err != nil {
		return nil, err
	}
	group, err := indicesOf(groupField, pos)
	if err != nil {
		return nil, err
	}
	for i, g := range group {
		if g >= width {
			return nil, malformedAt(groupField, pos, "group[%d] = %d is out of range for %d input columns", i, g, width)
		}
	}

	aggsField, err := member(f, "aggs", pos)
	if err != nil {
		return nil, err
	}
	elems, err := listOf(aggsField, pos)
	if err != nil {
		return nil, err
	}
	aggs := make([]*ir.Agg, len(elems))
	for i, e := range elems {
		if aggs[i], err = readAgg(e, pos); err != nil {
			return nil, err
		}
		for _, o := range aggs[i].Operands {
			if o >= width {
				return nil, malformedAt(e, pos, "aggregate operand %d is out of range for %d input columns", o, width)
			}
		}
	}

	fieldsField, err := member(f, "fields", pos)
	if err != nil {
		return nil, err
	}
	fields, err := stringsOf(fieldsField, pos)
	if err != nil {
		return nil, err
	}
	if len(fields) != len(group)+len(aggs) {
		return nil, malformedAt(fieldsField, pos, "aggregate has %d outputs but %d field names", len(group)+len(aggs), len(fields))
	}
	return ir.NewAggregate(ir.NodeID(pos), in.ID(), group, aggs, fields), nil
}

func (b *build) readJoin(pos int, f field) (ir.Node, error) {
	kindField, err := member(f, "joinType", pos)
	if err != nil {
		return nil, err
	}
	kindName, err := stringOf(kindField, pos)
	if err != nil {
		return nil, err
	}
	kind, ok := ir.ParseJoinKind(kindName)
	if !ok {
		return nil, &UnsupportedOperatorError{Node: pos, Kind: "joinType", Name: kindName, Field: kindField.path, Pos: kindField.pos()}
	}

	inputsField, err := member(f, "inputs", pos)
	if err != nil {
		return nil, err
	}
	refs, err := listOf(inputsField, pos)
	if err != nil {
		return nil, err
	}
	if len(refs) != 2 {
		return nil, malformedAt(inputsField, pos, "join needs exactly 2 inputs, got %d", len(refs))
	}
	var sides [2]ir.Node
	for i, r := range refs {
		id, err := nodeRef(r, pos)
		if err != nil {
			return nil, err
		}
		if id >= pos {
			return nil, malformedAt(r, pos, "join input %d is not an earlier node", id)
		}
		sides[i] = b.nodes[id]
	}

	condField, err := member(f, "condition", pos)
	if err != nil {
		return nil, err
	}
	cond, err := readScalar(condField, pos)
	if err != nil {
		return nil, err
	}
	if !ir.IsBooleanShaped(cond) {
		return nil, malformedAt(condField, pos, "join condition is not a predicate")
	}
	return ir.NewJoin(ir.NodeID(pos), sides[0].ID(), sides[1].ID(), sides[0].Arity(), sides[1].Arity(), kind, cond), nil
}
