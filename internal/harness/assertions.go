package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/relalg/internal/compiler"
	"github.com/roach88/relalg/internal/ir"
)

// AssertionError is returned when an assertion fails. It carries the
// rendered plan so a failure can be read without rerunning.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Explain  string // Plan tree of the build, if it succeeded
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Explain != "" {
		fmt.Fprintf(&buf, "\nPlan:\n")
		for _, line := range strings.Split(strings.TrimSuffix(e.Explain, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// check runs one assertion against a build result.
func check(r *Result, a Assertion) error {
	if a.Type == AssertError {
		return assertError(r, a)
	}
	if r.Err != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a successful build",
			Actual:   r.BuildError,
		}
	}

	switch a.Type {
	case AssertNodeCount:
		return assertNodeCount(r, a)
	case AssertNodeKinds:
		return assertNodeKinds(r, a)
	case AssertFused:
		return assertFused(r, a)
	case AssertProvenance:
		return assertProvenance(r, a)
	case AssertValid:
		return assertValid(r)
	default:
		return errors.Newf("unknown assertion type: %s", a.Type)
	}
}

func assertNodeCount(r *Result, a Assertion) error {
	if got := r.DAG.Len(); got != a.Count {
		return &AssertionError{
			Type:     AssertNodeCount,
			Expected: fmt.Sprintf("%d nodes", a.Count),
			Actual:   fmt.Sprintf("%d nodes", got),
			Explain:  r.Explain,
		}
	}
	return nil
}

func assertNodeKinds(r *Result, a Assertion) error {
	got := make([]string, len(r.DAG.Nodes))
	for i, n := range r.DAG.Nodes {
		got[i] = n.Kind().String()
	}
	if !slices.Equal(got, a.Kinds) {
		return &AssertionError{
			Type:     AssertNodeKinds,
			Expected: "[" + strings.Join(a.Kinds, ", ") + "]",
			Actual:   "[" + strings.Join(got, ", ") + "]",
			Explain:  r.Explain,
		}
	}
	return nil
}

// assertError checks the build failed with the expected code, and at the
// expected node and field when those are given.
func assertError(r *Result, a Assertion) error {
	expected := a.Code
	if a.Node != nil {
		expected += fmt.Sprintf(" at node %d", *a.Node)
	}
	if a.Field != "" {
		expected += ", " + a.Field
	}

	if r.Err == nil {
		return &AssertionError{
			Type:     AssertError,
			Expected: expected,
			Actual:   fmt.Sprintf("build succeeded with %d nodes", r.DAG.Len()),
			Explain:  r.Explain,
		}
	}

	ok := compiler.ErrorCode(r.Err) == a.Code &&
		(a.Node == nil || compiler.ErrorNode(r.Err) == *a.Node) &&
		(a.Field == "" || errorField(r.Err) == a.Field)
	if !ok {
		return &AssertionError{
			Type:     AssertError,
			Expected: expected,
			Actual:   r.BuildError,
		}
	}
	return nil
}

// errorField returns the field path of a build error, or "".
func errorField(err error) string {
	d, _ := compiler.DetailOf(err)
	return d.Field
}

func assertFused(r *Result, a Assertion) error {
	n := r.DAG.Node(ir.NodeID(*a.Node))
	c, ok := n.(*ir.Compound)
	if !ok {
		actual := "no such node"
		if n != nil {
			actual = n.Kind().String()
		}
		return &AssertionError{
			Type:     AssertFused,
			Expected: fmt.Sprintf("compound at node %d", *a.Node),
			Actual:   actual,
			Explain:  r.Explain,
		}
	}

	got := make([]int, len(c.Fused))
	for i, id := range c.Fused {
		got[i] = int(id)
	}
	if !slices.Equal(got, a.Fused) {
		return &AssertionError{
			Type:     AssertFused,
			Expected: fmt.Sprintf("node %d fuses %v", *a.Node, a.Fused),
			Actual:   fmt.Sprintf("node %d fuses %v", *a.Node, got),
			Explain:  r.Explain,
		}
	}
	return nil
}

func assertProvenance(r *Result, a Assertion) error {
	id := ir.NodeID(*a.Node)
	if r.DAG.Node(id) == nil {
		return &AssertionError{
			Type:     AssertProvenance,
			Expected: fmt.Sprintf("node %d", *a.Node),
			Actual:   fmt.Sprintf("DAG has %d nodes", r.DAG.Len()),
			Explain:  r.Explain,
		}
	}

	schema := compiler.Resolve(r.DAG, id)
	got := make([]Column, len(schema))
	for i, in := range schema {
		got[i] = Column{Node: int(in.Source), Index: in.Index}
	}
	if !slices.Equal(got, a.Columns) {
		return &AssertionError{
			Type:     AssertProvenance,
			Expected: formatColumns(a.Columns),
			Actual:   formatColumns(got),
			Explain:  r.Explain,
		}
	}
	return nil
}

func formatColumns(cols []Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("@%d.%d", c.Node, c.Index)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func assertValid(r *Result) error {
	violations := compiler.Validate(r.DAG)
	if len(violations) == 0 {
		return nil
	}
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Error()
	}
	return &AssertionError{
		Type:     AssertValid,
		Expected: "no postcondition violations",
		Actual:   strings.Join(msgs, "; "),
		Explain:  r.Explain,
	}
}
