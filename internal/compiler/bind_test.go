package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relalg/internal/ir"
	"github.com/roach88/relalg/internal/testutil"
)

// bindPlan runs the factory and the binder.
func bindPlan(t *testing.T, p *testutil.Plan) ([]ir.Node, error) {
	t.Helper()
	b, err := readPlan(t, p.JSON())
	require.NoError(t, err)
	if err := b.bind(); err != nil {
		return nil, err
	}
	return b.nodes, nil
}

// abstractInputs counts AbstractInput instances reachable from nodes.
func abstractInputs(nodes []ir.Node) int {
	count := 0
	visit := func(s ir.Scalar) {
		ir.WalkScalar(s, func(e ir.Scalar) bool {
			if _, ok := e.(*ir.AbstractInput); ok {
				count++
			}
			return true
		})
	}
	for _, n := range nodes {
		switch v := n.(type) {
		case *ir.Project:
			for _, e := range v.Exprs {
				visit(e)
			}
		case *ir.Filter:
			visit(v.Condition)
		case *ir.Join:
			visit(v.Condition)
		case *ir.Compound:
			visit(v.Filter)
			for _, e := range v.Exprs {
				visit(e)
			}
		}
	}
	return count
}

func TestBind_ProjectFilterAggregate(t *testing.T) {
	nodes, err := bindPlan(t, testutil.EmpScan().
		Project([]string{"salary"}, testutil.Input(3)).
		Filter(testutil.Op(">", testutil.Input(0), testutil.Int(1000))).
		Aggregate(nil, []string{"n"}, testutil.Agg("COUNT", "BIGINT", false)))
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	project := nodes[1].(*ir.Project)
	assert.Equal(t, &ir.Input{Source: 0, Index: 3}, project.Exprs[0])

	// The predicate reads the Project's column, which in turn reads scan column 3.
	cond := nodes[2].(*ir.Filter).Condition.(*ir.Operator)
	in := cond.Operands[0].(*ir.Input)
	assert.Equal(t, &ir.Input{Source: 1, Index: 0}, in)
	assert.Equal(t, &ir.Input{Source: 0, Index: 3}, nodes[in.Source].(*ir.Project).Exprs[in.Index])

	assert.Equal(t, []ir.NodeID{2}, nodes[3].Inputs())
	assert.Zero(t, abstractInputs(nodes))
}

func TestBind_ThroughFilter(t *testing.T) {
	nodes, err := bindPlan(t, testutil.EmpScan().
		Filter(testutil.Op("IS NOT NULL", testutil.Input(1))).
		Project([]string{"name"}, testutil.Input(1)))
	require.NoError(t, err)

	// Filter is a pass-through, so the Project reads the Scan directly.
	assert.Equal(t, &ir.Input{Source: 0, Index: 1}, nodes[2].(*ir.Project).Exprs[0])
	assert.Equal(t, []ir.NodeID{1}, nodes[2].Inputs())
}

func TestBind_JoinConcatenatedSchema(t *testing.T) {
	nodes, err := bindPlan(t, testutil.EmpScan().
		Filter(testutil.Op(">", testutil.Input(3), testutil.Int(10))).
		Scan("dept", "id", "name").
		Join("inner", 1, 2, testutil.Op("=", testutil.Input(2), testutil.Input(4))).
		Project([]string{"emp", "dept"}, testutil.Input(1), testutil.Input(5)))
	require.NoError(t, err)

	cond := nodes[3].(*ir.Join).Condition.(*ir.Operator)
	assert.Equal(t, &ir.Input{Source: 0, Index: 2}, cond.Operands[0])
	assert.Equal(t, &ir.Input{Source: 2, Index: 0}, cond.Operands[1])

	project := nodes[4].(*ir.Project)
	assert.Equal(t, &ir.Input{Source: 0, Index: 1}, project.Exprs[0])
	assert.Equal(t, &ir.Input{Source: 2, Index: 1}, project.Exprs[1])
	assert.Zero(t, abstractInputs(nodes))
}

func TestBind_SelfJoin(t *testing.T) {
	nodes, err := bindPlan(t, testutil.NewPlan().Scan("dept", "id", "name").
		Join("inner", 0, 0, testutil.Op("=", testutil.Input(1), testutil.Input(3))))
	require.NoError(t, err)

	cond := nodes[1].(*ir.Join).Condition.(*ir.Operator)
	assert.Equal(t, &ir.Input{Source: 0, Index: 1}, cond.Operands[0])
	assert.Equal(t, &ir.Input{Source: 0, Index: 1}, cond.Operands[1])
}

func TestBind_CopiesLiterals(t *testing.T) {
	b, err := readPlan(t, testutil.EmpScan().
		Project([]string{"k"}, testutil.Int(7)).JSON())
	require.NoError(t, err)
	before := b.nodes[1].(*ir.Project).Exprs[0]

	require.NoError(t, b.bind())
	after := b.nodes[1].(*ir.Project).Exprs[0]
	assert.Equal(t, before, after)
	assert.NotSame(t, before, after)
}

func TestBind_OutOfRange(t *testing.T) {
	_, err := bindPlan(t, testutil.EmpScan().
		Project([]string{"x"}, testutil.Op("+", testutil.Input(0), testutil.Input(9))))
	require.Error(t, err)

	var malformed *MalformedPlanError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, malformed.Node)
	assert.Equal(t, "rels[1].exprs[0].operands[1]", malformed.Field)
	assert.Contains(t, malformed.Message, "input index 9 is out of range for 4 input columns")
	assert.True(t, malformed.Pos.IsValid())
}

func TestBind_JoinOutOfRange(t *testing.T) {
	_, err := bindPlan(t, testutil.NewPlan().Scan("dept", "id", "name").Scan("dept", "id", "name").
		Join("inner", 0, 1, testutil.Op("=", testutil.Input(0), testutil.Input(4))))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input index 4 is out of range for 4 input columns")
}

func TestBind_AggregateUntouched(t *testing.T) {
	nodes, err := bindPlan(t, testutil.EmpScan().
		Aggregate([]int{2}, []string{"dept_id", "total"}, testutil.Agg("SUM", "DOUBLE", true, 3)))
	require.NoError(t, err)

	agg := nodes[1].(*ir.Aggregate)
	assert.Equal(t, []int{2}, agg.Group)
	assert.Equal(t, []int{3}, agg.Aggs[0].Operands)
}
