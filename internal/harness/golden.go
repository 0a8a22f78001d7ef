package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the part of a result that golden files record: the
// scenario name followed by the plan tree, or the build error.
//
//	# coalesced_join
//	• join @3
//	...
func Snapshot(scenario *Scenario, result *Result) []byte {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(scenario.Name)
	sb.WriteString("\n")
	if result.Err != nil {
		sb.WriteString(result.BuildError)
		sb.WriteString("\n")
	} else {
		sb.WriteString(result.Explain)
	}
	return []byte(sb.String())
}

// RunWithGolden runs a scenario, compares its snapshot against
// testdata/golden/<name>.golden, and fails if any assertion failed.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return err
	}
	if !result.Pass {
		return errors.Newf("scenario %s failed:\n%s", scenario.Name, strings.Join(result.Errors, "\n"))
	}
	return nil
}

// AssertGolden compares an already computed result against its golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario, result))
	return nil
}
