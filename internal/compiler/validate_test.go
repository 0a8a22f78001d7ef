package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relalg/internal/ir"
	"github.com/roach88/relalg/internal/testutil"
)

func scanEmp() *ir.Scan {
	return ir.NewScan(0, testutil.EmpTable(), []string{"id", "name", "dept_id", "salary"})
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

// =============================================================================
// Well-formed DAGs
// =============================================================================

func TestValidateEmpty(t *testing.T) {
	assert.Empty(t, Validate(&ir.DAG{}))
}

func TestValidateValidChain(t *testing.T) {
	d := &ir.DAG{Nodes: []ir.Node{
		scanEmp(),
		ir.NewFilter(1, 0, 4, &ir.Operator{Op: ir.OpIsNull, Operands: []ir.Scalar{&ir.Input{Source: 0, Index: 2}}}),
		ir.NewProject(2, 1, []ir.Scalar{&ir.Input{Source: 0, Index: 1}}, []string{"name"}),
		ir.NewAggregate(3, 2, []int{0}, []*ir.Agg{{Kind: ir.AggCount, Type: ir.TypeBigInt}}, []string{"name", "n"}),
		ir.NewJoin(4, 3, 0, 2, 4, ir.JoinInner, &ir.Operator{Op: ir.OpEq, Operands: []ir.Scalar{
			&ir.Input{Source: 3, Index: 0}, &ir.Input{Source: 0, Index: 1},
		}}),
	}}
	assert.Empty(t, Validate(d))
}

// =============================================================================
// Structural violations
// =============================================================================

func TestValidateIDMismatch(t *testing.T) {
	d := &ir.DAG{Nodes: []ir.Node{ir.NewScan(3, testutil.EmpTable(), nil)}}

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNodeIDMismatch, errs[0].Code)
	assert.Equal(t, "id", errs[0].Field)
}

func TestValidateInputCount(t *testing.T) {
	d := &ir.DAG{Nodes: []ir.Node{
		scanEmp(),
		&ir.Filter{Base: ir.Base{NodeID: 1, Width: 4}, Condition: &ir.Literal{Type: ir.TypeBoolean, Value: ir.BoolDatum(true)}},
	}}

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInputCount, errs[0].Code)
	assert.Equal(t, "Filter has 0 inputs, want 1", errs[0].Message)
}

func TestValidateForwardEdge(t *testing.T) {
	d := &ir.DAG{Nodes: []ir.Node{
		scanEmp(),
		ir.NewProject(1, 1, []ir.Scalar{&ir.Input{Source: 0, Index: 0}}, []string{"id"}),
	}}

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrForwardReference, errs[0].Code)
	assert.Equal(t, "inputs[0]", errs[0].Field)
}

func TestValidateArityMismatch(t *testing.T) {
	d := &ir.DAG{Nodes: []ir.Node{
		scanEmp(),
		&ir.Project{
			Base:   ir.Base{NodeID: 1, InputIDs: []ir.NodeID{0}, Width: 3},
			Exprs:  []ir.Scalar{&ir.Input{Source: 0, Index: 0}},
			Fields: []string{"id"},
		},
	}}

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrArityMismatch, errs[0].Code)
	assert.Equal(t, "Project has arity 3, want 1", errs[0].Message)
}

// =============================================================================
// Expression violations
// =============================================================================

func TestValidateResidualAbstractInput(t *testing.T) {
	d := &ir.DAG{Nodes: []ir.Node{
		scanEmp(),
		ir.NewProject(1, 0, []ir.Scalar{
			&ir.Operator{Op: ir.OpPlus, Operands: []ir.Scalar{&ir.Input{Source: 0, Index: 0}, &ir.AbstractInput{Index: 3}}},
		}, []string{"x"}),
	}}

	errs := Validate(d)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrResidualAbstractInput, errs[0].Code)
	assert.Equal(t, "[E211] node 1: exprs[0]: unbound input 3", errs[0].Error())
}

func TestValidateProvenance(t *testing.T) {
	filter := ir.NewFilter(1, 0, 4, &ir.Operator{Op: ir.OpIsNull, Operands: []ir.Scalar{&ir.Input{Source: 0, Index: 2}}})

	tests := []struct {
		name string
		expr ir.Scalar
		code string
	}{
		{"through filter", &ir.Input{Source: 1, Index: 0}, ErrBadProvenance},
		{"column out of range", &ir.Input{Source: 0, Index: 9}, ErrBadProvenance},
		{"forward source", &ir.Input{Source: 2, Index: 0}, ErrForwardReference},
		{"aggregate call", &ir.Agg{Kind: ir.AggCount}, ErrBadProvenance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &ir.DAG{Nodes: []ir.Node{
				scanEmp(),
				filter,
				ir.NewProject(2, 1, []ir.Scalar{tt.expr}, []string{"x"}),
			}}
			errs := Validate(d)
			require.Len(t, errs, 1, "%v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, 2, errs[0].Node)
		})
	}
}

func TestValidateAggregateIndices(t *testing.T) {
	d := &ir.DAG{Nodes: []ir.Node{
		scanEmp(),
		ir.NewAggregate(1, 0, []int{4}, []*ir.Agg{{Kind: ir.AggSum, Type: ir.TypeDouble, Operands: []int{5}}}, []string{"g", "s"}),
	}}

	errs := Validate(d)
	assert.Equal(t, []string{ErrBadProvenance, ErrBadProvenance}, codes(errs))
	assert.Equal(t, "group[0]", errs[0].Field)
	assert.Equal(t, "aggs[0]", errs[1].Field)
}

// =============================================================================
// Compound violations
// =============================================================================

func TestValidateCompound(t *testing.T) {
	exprs := []ir.Scalar{&ir.Input{Source: 0, Index: 2}}
	agg := &ir.AggregateStage{Group: []int{0}, Aggs: []*ir.Agg{{Kind: ir.AggCount, Type: ir.TypeBigInt}}, Fields: []string{"d", "n"}}

	t.Run("valid", func(t *testing.T) {
		c := ir.NewCompound(1, 0, nil, exprs, []string{"d"}, agg, &ir.RenameStage{Columns: []int{1}, Fields: []string{"n"}}, []ir.NodeID{1, 2, 3})
		assert.Empty(t, Validate(&ir.DAG{Nodes: []ir.Node{scanEmp(), c}}))
	})

	t.Run("rename without aggregate", func(t *testing.T) {
		c := ir.NewCompound(1, 0, nil, exprs, []string{"d"}, nil, &ir.RenameStage{Columns: []int{0}, Fields: []string{"d"}}, []ir.NodeID{1, 2})
		errs := Validate(&ir.DAG{Nodes: []ir.Node{scanEmp(), c}})
		assert.Contains(t, codes(errs), ErrBadCompound)
	})

	t.Run("expr field count", func(t *testing.T) {
		c := ir.NewCompound(1, 0, nil, exprs, nil, agg, nil, []ir.NodeID{1, 2})
		errs := Validate(&ir.DAG{Nodes: []ir.Node{scanEmp(), c}})
		require.Len(t, errs, 1)
		assert.Equal(t, "expr_fields", errs[0].Field)
	})

	t.Run("rename column out of range", func(t *testing.T) {
		c := ir.NewCompound(1, 0, nil, exprs, []string{"d"}, agg, &ir.RenameStage{Columns: []int{2}, Fields: []string{"x"}}, []ir.NodeID{1, 2, 3})
		errs := Validate(&ir.DAG{Nodes: []ir.Node{scanEmp(), c}})
		require.Len(t, errs, 1)
		assert.Equal(t, ErrBadCompound, errs[0].Code)
		assert.Equal(t, "rename.columns[0]", errs[0].Field)
	})

	t.Run("stage index out of range", func(t *testing.T) {
		bad := &ir.AggregateStage{Group: []int{1}, Fields: []string{"g"}}
		c := ir.NewCompound(1, 0, nil, exprs, []string{"d"}, bad, nil, []ir.NodeID{1, 2})
		errs := Validate(&ir.DAG{Nodes: []ir.Node{scanEmp(), c}})
		require.Len(t, errs, 1)
		assert.Equal(t, "aggregate.group[0]", errs[0].Field)
	})

	t.Run("unbound filter", func(t *testing.T) {
		c := ir.NewCompound(1, 0, &ir.AbstractInput{Index: 0}, exprs, []string{"d"}, agg, nil, []ir.NodeID{1, 2, 3})
		errs := Validate(&ir.DAG{Nodes: []ir.Node{scanEmp(), c}})
		require.Len(t, errs, 1)
		assert.Equal(t, ErrResidualAbstractInput, errs[0].Code)
		assert.Equal(t, "filter", errs[0].Field)
	})
}

func TestValidateCollectsAll(t *testing.T) {
	d := &ir.DAG{Nodes: []ir.Node{
		ir.NewScan(1, testutil.EmpTable(), nil),
		ir.NewProject(1, 0, []ir.Scalar{&ir.AbstractInput{Index: 0}, &ir.Input{Source: 0, Index: 8}}, []string{"a", "b"}),
	}}

	assert.Equal(t, []string{ErrNodeIDMismatch, ErrResidualAbstractInput, ErrBadProvenance}, codes(Validate(d)))
}
