package harness

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: one plan built against one
// catalog, followed by assertions on the resulting DAG or build error.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden
	// snapshot file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is a YAML fixture or SQLite catalog path. Empty means the
	// built-in emp/dept catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// Plan is a path to a plan JSON file.
	Plan string `yaml:"plan,omitempty"`

	// PlanJSON is an inline plan, used instead of Plan.
	PlanJSON string `yaml:"plan_json,omitempty"`

	// Coalesce toggles the coalescing pass. Nil means on.
	Coalesce *bool `yaml:"coalesce,omitempty"`

	// BuildID is a fixed build id for deterministic output. If empty,
	// defaults to "test-build-default".
	BuildID string `yaml:"build_id,omitempty"`

	// Assertions validate the built DAG or the build error.
	Assertions []Assertion `yaml:"assertions"`
}

// Coalescing reports whether the scenario builds with coalescing.
func (s *Scenario) Coalescing() bool {
	return s.Coalesce == nil || *s.Coalesce
}

// Assertion validates one aspect of a build.
type Assertion struct {
	// Type specifies the assertion type:
	// - "node_count": the DAG has Count nodes
	// - "node_kinds": node kinds in arena order equal Kinds
	// - "error": the build failed with Code (and Node/Field when given)
	// - "fused": compound Node replaced exactly the Fused plan ids
	// - "provenance": output schema of Node equals Columns
	// - "valid": the DAG passes every postcondition
	Type string `yaml:"type"`

	Count int      `yaml:"count,omitempty"`
	Kinds []string `yaml:"kinds,omitempty"`

	// Code is an error code such as E201 (used by error).
	Code string `yaml:"code,omitempty"`

	// Node is the node an assertion is about. For error it is optional
	// and compared against the error's node.
	Node *int `yaml:"node,omitempty"`

	// Field is the expected error field path (used by error).
	Field string `yaml:"field,omitempty"`

	Fused   []int    `yaml:"fused,omitempty"`
	Columns []Column `yaml:"columns,omitempty"`
}

// Column is one provenance entry: the node and column a value comes from.
type Column struct {
	Node  int `yaml:"node"`
	Index int `yaml:"index"`
}

// Assertion type constants.
const (
	AssertNodeCount  = "node_count"
	AssertNodeKinds  = "node_kinds"
	AssertError      = "error"
	AssertFused      = "fused"
	AssertProvenance = "provenance"
	AssertValid      = "valid"
)

// LoadScenario reads and parses a scenario YAML file. Relative catalog
// and plan paths resolve against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative catalog and plan paths against basePath.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	// Unknown fields are rejected so typos like "assertion:" fail loudly.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}

	if basePath != "" {
		scenario.Catalog = resolve(basePath, scenario.Catalog)
		scenario.Plan = resolve(basePath, scenario.Plan)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}

	switch {
	case s.Plan == "" && s.PlanJSON == "":
		return errors.New("one of plan or plan_json is required")
	case s.Plan != "" && s.PlanJSON != "":
		return errors.New("plan and plan_json are mutually exclusive")
	}
	if s.Plan != "" {
		if _, err := os.Stat(s.Plan); os.IsNotExist(err) {
			return errors.Newf("plan file not found: %s", s.Plan)
		}
	}
	if s.Catalog != "" {
		if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
			return errors.Newf("catalog file not found: %s", s.Catalog)
		}
	}

	if len(s.Assertions) == 0 {
		return errors.New("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return errors.Newf("assertions[%d]: type is required", index)
	case AssertNodeCount:
		if a.Count <= 0 {
			return errors.Newf("assertions[%d]: count must be positive for node_count", index)
		}
	case AssertNodeKinds:
		if len(a.Kinds) == 0 {
			return errors.Newf("assertions[%d]: kinds list is required for node_kinds", index)
		}
	case AssertError:
		if a.Code == "" {
			return errors.Newf("assertions[%d]: code is required for error", index)
		}
	case AssertFused:
		if a.Node == nil || len(a.Fused) == 0 {
			return errors.Newf("assertions[%d]: node and fused are required for fused", index)
		}
	case AssertProvenance:
		if a.Node == nil {
			return errors.Newf("assertions[%d]: node is required for provenance", index)
		}
	case AssertValid:
	default:
		return errors.Newf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
