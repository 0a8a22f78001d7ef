package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relalg/internal/compiler"
	"github.com/roach88/relalg/internal/ir"
	"github.com/roach88/relalg/internal/testutil"
)

func intp(n int) *int { return &n }

// projectedScan is emp scanned and projected to (name, salary).
func projectedScan() string {
	return string(testutil.EmpScan().
		Project([]string{"name", "salary"}, testutil.Input(1), testutil.Input(3)).
		JSON())
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal scenario",
		PlanJSON:    projectedScan(),
		BuildID:     "build-minimal",
		Assertions: []Assertion{
			{Type: AssertNodeCount, Count: 2},
			{Type: AssertValid},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "build-minimal", result.BuildID)
	assert.Equal(t, 2, result.Nodes)
	assert.Equal(t, ir.MustFingerprint(result.DAG), result.Fingerprint)
	assert.Contains(t, result.Explain, "• compound @1")
	assert.Empty(t, result.BuildError)
}

func TestRun_DefaultBuildID(t *testing.T) {
	scenario := &Scenario{
		Name:        "default_id",
		Description: "No build id",
		PlanJSON:    projectedScan(),
		Assertions:  []Assertion{{Type: AssertValid}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.Equal(t, "test-build-default", result.BuildID)
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "deterministic",
		Description: "Same scenario twice",
		PlanJSON:    projectedScan(),
		Assertions:  []Assertion{{Type: AssertValid}},
	}

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Explain, second.Explain)
	assert.NotSame(t, first.DAG, second.DAG)
}

func TestRun_NodeCountAssertion_Fail(t *testing.T) {
	scenario := &Scenario{
		Name:        "count_fail",
		Description: "Wrong node count",
		PlanJSON:    projectedScan(),
		Assertions:  []Assertion{{Type: AssertNodeCount, Count: 3}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: node_count")
	assert.Contains(t, result.Errors[0], "Expected: 3 nodes")
	assert.Contains(t, result.Errors[0], "Actual: 2 nodes")
	assert.Contains(t, result.Errors[0], "• compound @1")
}

func TestRun_NodeKindsAssertion(t *testing.T) {
	scenario := &Scenario{
		Name:        "kinds",
		Description: "Node kinds",
		PlanJSON:    projectedScan(),
		Assertions: []Assertion{
			{Type: AssertNodeKinds, Kinds: []string{"Scan", "Compound"}},
			{Type: AssertNodeKinds, Kinds: []string{"Scan", "Project"}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: [Scan, Project]")
	assert.Contains(t, result.Errors[0], "Actual: [Scan, Compound]")
}

func TestRun_ProvenanceAssertion(t *testing.T) {
	plan := testutil.NewPlan().
		Scan("emp", "id", "name", "dept_id", "salary").
		Scan("dept", "id", "name").
		Join("inner", 0, 1, testutil.Op("=", testutil.Input(2), testutil.Input(4))).
		JSON()

	scenario := &Scenario{
		Name:        "join_provenance",
		Description: "A join concatenates both sides",
		PlanJSON:    string(plan),
		Assertions: []Assertion{
			{Type: AssertProvenance, Node: intp(2), Columns: []Column{
				{0, 0}, {0, 1}, {0, 2}, {0, 3}, {1, 0}, {1, 1},
			}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	scenario.Assertions = []Assertion{
		{Type: AssertProvenance, Node: intp(2), Columns: []Column{{0, 0}}},
		{Type: AssertProvenance, Node: intp(9)},
	}
	result, err = Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Expected: (@0.0)")
	assert.Contains(t, result.Errors[0], "Actual: (@0.0, @0.1, @0.2, @0.3, @1.0, @1.1)")
	assert.Contains(t, result.Errors[1], "DAG has 3 nodes")
}

func TestRun_FusedAssertion_NotCompound(t *testing.T) {
	scenario := &Scenario{
		Name:        "not_fused",
		Description: "A scan is never fused",
		PlanJSON:    projectedScan(),
		Assertions: []Assertion{
			{Type: AssertFused, Node: intp(0), Fused: []int{0}},
			{Type: AssertFused, Node: intp(1), Fused: []int{1}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: compound at node 0")
	assert.Contains(t, result.Errors[0], "Actual: Scan")
}

func TestRun_ErrorAssertion(t *testing.T) {
	plan := testutil.NewPlan().Scan("payroll").JSON()

	scenario := &Scenario{
		Name:        "unknown",
		Description: "Unknown table",
		PlanJSON:    string(plan),
		Assertions: []Assertion{
			{Type: AssertError, Code: compiler.CodeUnknownTable, Node: intp(0), Field: "rels[0].table"},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Nil(t, result.DAG)
	assert.Empty(t, result.Fingerprint)
	assert.Equal(t, `error E202 at node 0, rels[0].table: unknown table "payroll"`, result.BuildError)
}

func TestRun_ErrorAssertion_WrongCode(t *testing.T) {
	plan := testutil.NewPlan().Scan("payroll").JSON()

	scenario := &Scenario{
		Name:        "wrong_code",
		Description: "Unknown table, but malformed expected",
		PlanJSON:    string(plan),
		Assertions:  []Assertion{{Type: AssertError, Code: compiler.CodeMalformedPlan}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: E201")
	assert.Contains(t, result.Errors[0], "unknown table")
}

func TestRun_ErrorAssertion_BuildSucceeded(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_error",
		Description: "Expects an error that never comes",
		PlanJSON:    projectedScan(),
		Assertions:  []Assertion{{Type: AssertError, Code: compiler.CodeMalformedPlan, Node: intp(1)}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: E201 at node 1")
	assert.Contains(t, result.Errors[0], "Actual: build succeeded with 2 nodes")
}

func TestRun_UnexpectedBuildError(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected",
		Description: "Build fails but no error assertion",
		PlanJSON:    `{"rels": []}`,
		Assertions:  []Assertion{{Type: AssertValid}, {Type: AssertNodeCount, Count: 1}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"unexpected build error: error E201 at node -1, rels: plan has no relational nodes",
	}, result.Errors)
}

func TestRun_CoalescingToggle(t *testing.T) {
	plan := string(testutil.EmpScan().
		Project([]string{"dept_id", "salary"}, testutil.Input(2), testutil.Input(3)).
		Aggregate([]int{0}, []string{"dept_id", "total"}, testutil.Agg("SUM", "DOUBLE", true, 1)).
		JSON())

	off := false
	scenario := &Scenario{
		Name:        "toggle",
		Description: "Coalescing on and off",
		PlanJSON:    plan,
		Coalesce:    &off,
		Assertions:  []Assertion{{Type: AssertNodeKinds, Kinds: []string{"Scan", "Project", "Aggregate"}}},
	}
	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	scenario.Coalesce = nil
	scenario.Assertions = []Assertion{
		{Type: AssertNodeKinds, Kinds: []string{"Scan", "Compound"}},
		{Type: AssertFused, Node: intp(1), Fused: []int{1, 2}},
	}
	result, err = Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_MissingCatalog(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing_catalog",
		Description: "Catalog path does not exist",
		Catalog:     "/nonexistent/catalog.yaml",
		PlanJSON:    projectedScan(),
		Assertions:  []Assertion{{Type: AssertValid}},
	}

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open catalog")
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	assert.Empty(t, r.Errors)

	r.AddError("first")
	r.AddError("second")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"first", "second"}, r.Errors)
}
