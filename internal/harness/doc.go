// Package harness runs conformance scenarios against the plan builder.
//
// A scenario builds one plan against one catalog and asserts on the
// outcome: the shape of the DAG, which nodes were fused, the provenance
// of a node's output columns, or the error the build reported. The plan
// tree or error line is also compared against a golden snapshot.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog: ../catalogs/shop.yaml   # optional, defaults to emp/dept
//	plan: ../plans/plan.json         # or plan_json: with an inline plan
//	coalesce: false                  # optional, defaults to true
//	build_id: build-fixed            # optional
//	assertions:
//	  - type: node_count
//	    count: 4
//	  - type: node_kinds
//	    kinds: [Scan, Compound, Scan, Join]
//	  - type: fused
//	    node: 1
//	    fused: [1, 2, 3, 4]
//	  - type: provenance
//	    node: 3
//	    columns:
//	      - {node: 1, index: 0}
//	  - type: valid
//	  - type: error
//	    code: E201
//	    node: 2
//	    field: rels[2]
//
// Relative catalog and plan paths resolve against the scenario file's
// directory.
//
// # Golden Files
//
// Each scenario's snapshot lives in testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
