package ir

// NodeID is a node's position in its DAG arena.
type NodeID int

// Node is a sealed interface over relational operators.
// Only Scan, Project, Filter, Aggregate, Join, and Compound implement it.
type Node interface {
	ID() NodeID
	Inputs() []NodeID
	Arity() int
	Kind() NodeKind
	relNode()
}

// Base holds the fields common to every node. Arity is fixed when the
// node is constructed.
type Base struct {
	NodeID   NodeID
	InputIDs []NodeID
	Width    int
}

func (b *Base) ID() NodeID       { return b.NodeID }
func (b *Base) Inputs() []NodeID { return b.InputIDs }
func (b *Base) Arity() int       { return b.Width }
func (b *Base) relNode()         {}

// Scan reads a catalog table.
type Scan struct {
	Base
	Table      *TableDesc
	FieldNames []string
}

// Project computes one output column per expression.
type Project struct {
	Base
	Exprs  []Scalar
	Fields []string
}

// Filter keeps the rows of its input for which Condition holds.
type Filter struct {
	Base
	Condition Scalar
}

// Aggregate groups its input by Group columns and evaluates Aggs.
type Aggregate struct {
	Base
	Group  []int
	Aggs   []*Agg
	Fields []string
}

// Join combines two inputs. Its schema is left columns then right columns.
type Join struct {
	Base
	JoinKind  JoinKind
	Condition Scalar
}

// AggregateStage is the grouping stage of a Compound.
type AggregateStage struct {
	Group  []int
	Aggs   []*Agg
	Fields []string
}

// RenameStage selects and renames columns of the aggregate stage output.
type RenameStage struct {
	Columns []int
	Fields  []string
}

// Compound is a fused [Filter] Project [Aggregate [Project]] pipeline.
// Filter may be nil; Aggregate and Rename are nil when absent.
type Compound struct {
	Base
	Filter     Scalar
	Exprs      []Scalar
	ExprFields []string
	Aggregate  *AggregateStage
	Rename     *RenameStage
	// Fused lists the pre-coalescing ids this node replaced, in order.
	Fused []NodeID
}

func (*Scan) Kind() NodeKind      { return KindScan }
func (*Project) Kind() NodeKind   { return KindProject }
func (*Filter) Kind() NodeKind    { return KindFilter }
func (*Aggregate) Kind() NodeKind { return KindAggregate }
func (*Join) Kind() NodeKind      { return KindJoin }
func (*Compound) Kind() NodeKind  { return KindCompound }

// NewScan returns a Scan whose arity is the table's column count.
func NewScan(id NodeID, table *TableDesc, fieldNames []string) *Scan {
	return &Scan{
		Base:       Base{NodeID: id, Width: len(table.Columns)},
		Table:      table,
		FieldNames: fieldNames,
	}
}

// NewProject returns a Project over input.
func NewProject(id, input NodeID, exprs []Scalar, fields []string) *Project {
	return &Project{
		Base:   Base{NodeID: id, InputIDs: []NodeID{input}, Width: len(exprs)},
		Exprs:  exprs,
		Fields: fields,
	}
}

// NewFilter returns a Filter with the arity of its input.
func NewFilter(id, input NodeID, inputArity int, cond Scalar) *Filter {
	return &Filter{
		Base:      Base{NodeID: id, InputIDs: []NodeID{input}, Width: inputArity},
		Condition: cond,
	}
}

// NewAggregate returns an Aggregate with arity len(group)+len(aggs).
func NewAggregate(id, input NodeID, group []int, aggs []*Agg, fields []string) *Aggregate {
	return &Aggregate{
		Base:   Base{NodeID: id, InputIDs: []NodeID{input}, Width: len(group) + len(aggs)},
		Group:  group,
		Aggs:   aggs,
		Fields: fields,
	}
}

// NewJoin returns a Join whose arity is the sum of both sides.
func NewJoin(id, left, right NodeID, leftArity, rightArity int, kind JoinKind, cond Scalar) *Join {
	return &Join{
		Base:      Base{NodeID: id, InputIDs: []NodeID{left, right}, Width: leftArity + rightArity},
		JoinKind:  kind,
		Condition: cond,
	}
}

// NewCompound returns a Compound whose arity is that of its last stage.
func NewCompound(id, input NodeID, filter Scalar, exprs []Scalar, exprFields []string,
	agg *AggregateStage, rename *RenameStage, fused []NodeID) *Compound {
	width := len(exprs)
	if agg != nil {
		width = len(agg.Group) + len(agg.Aggs)
	}
	if rename != nil {
		width = len(rename.Columns)
	}
	return &Compound{
		Base:       Base{NodeID: id, InputIDs: []NodeID{input}, Width: width},
		Filter:     filter,
		Exprs:      exprs,
		ExprFields: exprFields,
		Aggregate:  agg,
		Rename:     rename,
		Fused:      fused,
	}
}

// OutputFields returns the column names a node exposes, or nil when the
// node does not name its columns (Filter, Join).
func OutputFields(n Node) []string {
	switch v := n.(type) {
	case *Scan:
		return v.FieldNames
	case *Project:
		return v.Fields
	case *Aggregate:
		return v.Fields
	case *Compound:
		switch {
		case v.Rename != nil:
			return v.Rename.Fields
		case v.Aggregate != nil:
			return v.Aggregate.Fields
		default:
			return v.ExprFields
		}
	default:
		return nil
	}
}
