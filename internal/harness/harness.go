package harness

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/roach88/relalg/internal/catalog"
	"github.com/roach88/relalg/internal/compiler"
	"github.com/roach88/relalg/internal/ctxlog"
	"github.com/roach88/relalg/internal/explain"
	"github.com/roach88/relalg/internal/ir"
	"github.com/roach88/relalg/internal/testutil"
)

// Harness runs scenarios with a fixed build id so that results are
// reproducible.
type Harness struct {
	catalog compiler.Catalog
	ids     compiler.IDGenerator
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Open the scenario's catalog (or the built-in emp/dept catalog)
// 2. Read the plan
// 3. Build it with the scenario's coalescing setting
// 4. Render the explain tree and fingerprint of a successful build
// 5. Evaluate every assertion
//
// A build error is an outcome, not a failure of Run: it is recorded in
// the result for "error" assertions. Run only returns an error when the
// scenario cannot be executed at all.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cat, err := openCatalog(ctx, scenario.Catalog)
	if err != nil {
		return nil, err
	}
	defer cat.Close()

	h := &Harness{
		catalog: cat,
		ids:     testutil.NewConstantGenerator(scenario.BuildID),
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	filename, plan, err := readPlan(scenario)
	if err != nil {
		return nil, err
	}

	b := compiler.NewBuilder(h.catalog,
		compiler.WithCoalescing(scenario.Coalescing()),
		compiler.WithIDGenerator(h.ids),
	)
	dag, buildErr := b.Build(ctx, filename, plan)

	result := NewResult()
	result.DAG, result.Err = dag, buildErr
	if buildErr != nil {
		result.BuildError = compiler.Describe(buildErr)
	} else {
		fp, err := ir.Fingerprint(dag)
		if err != nil {
			return nil, errors.Wrapf(err, "fingerprint %s", scenario.Name)
		}
		result.BuildID = dag.BuildID
		result.Fingerprint = fp
		result.Nodes = dag.Len()
		result.Explain = explain.Emit(dag, explain.Flags{})
	}

	expectsError := false
	for _, a := range scenario.Assertions {
		if a.Type == AssertError {
			expectsError = true
		}
	}
	if buildErr != nil && !expectsError {
		result.AddError("unexpected build error: " + result.BuildError)
		return result, nil
	}

	for _, a := range scenario.Assertions {
		if err := check(result, a); err != nil {
			result.AddError(err.Error())
		}
	}

	ctxlog.FromContext(ctx).Debug("scenario complete",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"nodes", result.Nodes)
	return result, nil
}

type closableCatalog interface {
	compiler.Catalog
	Close() error
}

func openCatalog(ctx context.Context, path string) (closableCatalog, error) {
	if path == "" {
		return testutil.Catalog(), nil
	}
	src, err := catalog.OpenPath(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open catalog")
	}
	return src, nil
}

// readPlan returns the plan bytes and the file name build errors should
// point at.
func readPlan(scenario *Scenario) (string, []byte, error) {
	if scenario.PlanJSON != "" {
		return scenario.Name + ".json", []byte(scenario.PlanJSON), nil
	}
	data, err := os.ReadFile(scenario.Plan)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to read plan")
	}
	return filepath.Base(scenario.Plan), data, nil
}
