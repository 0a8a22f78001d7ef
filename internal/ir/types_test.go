package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSQLType(t *testing.T) {
	tests := []struct {
		in   string
		want SQLType
		kind DatumKind
	}{
		{"DECIMAL", TypeDecimal, DatumInt},
		{"BIGINT", TypeBigInt, DatumInt},
		{"INTEGER", TypeInteger, DatumInt},
		{"SMALLINT", TypeSmallInt, DatumInt},
		{"TINYINT", TypeTinyInt, DatumInt},
		{"DOUBLE", TypeDouble, DatumDouble},
		{"FLOAT", TypeFloat, DatumDouble},
		{"TEXT", TypeText, DatumString},
		{"VARCHAR", TypeVarchar, DatumString},
		{"CHAR", TypeChar, DatumString},
		{"BOOLEAN", TypeBoolean, DatumBool},
		{"NULL", TypeNull, DatumNull},
		{"NULLT", TypeNull, DatumNull},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSQLType(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, got.DatumKind())
		})
	}

	_, ok := ParseSQLType("TIMESTAMP")
	assert.False(t, ok)
}

func TestOpOperandCounts(t *testing.T) {
	op, ok := ParseOp("and")
	require.True(t, ok)
	assert.Equal(t, OpAnd, op)
	assert.False(t, op.AcceptsOperands(1))
	assert.True(t, op.AcceptsOperands(2))
	assert.True(t, op.AcceptsOperands(5))
	assert.True(t, op.IsBoolean())

	assert.True(t, OpNot.AcceptsOperands(1))
	assert.False(t, OpNot.AcceptsOperands(2))

	assert.True(t, OpPlus.AcceptsOperands(2))
	assert.False(t, OpPlus.IsBoolean())

	_, ok = ParseOp("FROBNICATE")
	assert.False(t, ok)
}

func TestAggKind(t *testing.T) {
	k, ok := ParseAggKind("count")
	require.True(t, ok)
	assert.Equal(t, AggCount, k)
	assert.True(t, k.AcceptsOperands(0))
	assert.True(t, k.AcceptsOperands(1))
	assert.False(t, k.AcceptsOperands(2))

	assert.False(t, AggSum.AcceptsOperands(0))
	assert.True(t, AggSum.AcceptsOperands(1))

	_, ok = ParseAggKind("MEDIAN")
	assert.False(t, ok)
}

func TestParseJoinKind(t *testing.T) {
	k, ok := ParseJoinKind("inner")
	require.True(t, ok)
	assert.Equal(t, JoinInner, k)

	k, ok = ParseJoinKind("left")
	require.True(t, ok)
	assert.Equal(t, JoinLeft, k)

	_, ok = ParseJoinKind("full")
	assert.False(t, ok)
}

func TestNodeArity(t *testing.T) {
	table := &TableDesc{Name: "t", Columns: make([]ColumnDesc, 3)}
	scan := NewScan(0, table, []string{"a", "b", "c"})
	proj := NewProject(1, 0, []Scalar{&Input{Source: 0, Index: 2}}, []string{"c"})
	filter := NewFilter(2, 1, proj.Arity(), &Literal{Type: TypeBoolean, Value: BoolDatum(true)})
	agg := NewAggregate(3, 2, []int{0}, []*Agg{{Kind: AggCount}}, []string{"c", "n"})
	join := NewJoin(4, 0, 3, scan.Arity(), agg.Arity(), JoinInner, nil)

	assert.Equal(t, 3, scan.Arity())
	assert.Equal(t, 1, proj.Arity())
	assert.Equal(t, 1, filter.Arity())
	assert.Equal(t, 2, agg.Arity())
	assert.Equal(t, 5, join.Arity())
	assert.Equal(t, []NodeID{0, 3}, join.Inputs())
	assert.Equal(t, KindJoin, join.Kind())
	assert.Equal(t, "Join", join.Kind().String())
}

func TestCompoundArityFollowsLastStage(t *testing.T) {
	exprs := []Scalar{&Input{Source: 0, Index: 0}, &Input{Source: 0, Index: 1}}
	c := NewCompound(1, 0, nil, exprs, []string{"a", "b"}, nil, nil, []NodeID{1})
	assert.Equal(t, 2, c.Arity())
	assert.Equal(t, []string{"a", "b"}, OutputFields(c))

	agg := &AggregateStage{Group: []int{0}, Aggs: []*Agg{{Kind: AggSum, Operands: []int{1}}, {Kind: AggCount}}, Fields: []string{"a", "s", "n"}}
	c = NewCompound(1, 0, nil, exprs, []string{"a", "b"}, agg, nil, []NodeID{1, 2})
	assert.Equal(t, 3, c.Arity())
	assert.Equal(t, []string{"a", "s", "n"}, OutputFields(c))

	rename := &RenameStage{Columns: []int{2}, Fields: []string{"total"}}
	c = NewCompound(1, 0, nil, exprs, []string{"a", "b"}, agg, rename, []NodeID{1, 2, 3})
	assert.Equal(t, 1, c.Arity())
	assert.Equal(t, []string{"total"}, OutputFields(c))
}

func TestDAGConsumers(t *testing.T) {
	table := &TableDesc{Name: "t", Columns: make([]ColumnDesc, 1)}
	d := &DAG{Nodes: []Node{
		NewScan(0, table, []string{"a"}),
		NewJoin(1, 0, 0, 1, 1, JoinInner, nil),
	}}
	assert.Equal(t, []int{2, 0}, d.Consumers())
	assert.Same(t, d.Nodes[1], d.Root())
	assert.Nil(t, d.Node(2))
	assert.Nil(t, (&DAG{}).Root())
}

func TestWalkScalar(t *testing.T) {
	expr := &Operator{Op: OpAnd, Operands: []Scalar{
		&Operator{Op: OpEq, Operands: []Scalar{&AbstractInput{Index: 0}, &AbstractInput{Index: 1}}},
		&Literal{Type: TypeBoolean, Value: BoolDatum(true)},
	}}
	var abstract int
	WalkScalar(expr, func(s Scalar) bool {
		if _, ok := s.(*AbstractInput); ok {
			abstract++
		}
		return true
	})
	assert.Equal(t, 2, abstract)
}

func TestIsBooleanShaped(t *testing.T) {
	assert.True(t, IsBooleanShaped(&Operator{Op: OpEq}))
	assert.False(t, IsBooleanShaped(&Operator{Op: OpPlus}))
	assert.True(t, IsBooleanShaped(&Literal{Type: TypeBoolean}))
	assert.True(t, IsBooleanShaped(NewNullLiteral()))
	assert.False(t, IsBooleanShaped(&Literal{Type: TypeBigInt}))
	assert.True(t, IsBooleanShaped(&AbstractInput{}))
	assert.False(t, IsBooleanShaped(&Agg{}))
}
