// Package compiler builds relational-algebra DAGs from JSON query plans.
//
// A build runs these steps, stopping at the first error:
//
//  1. decode the plan through CUE, keeping source positions
//  2. construct one node per "rels" entry, reading scalar expressions
//  3. bind every AbstractInput to the provenance it denotes
//  4. validate the DAG postconditions
//  5. coalesce Filter? Project Aggregate Project? runs into Compound nodes
//  6. validate again and stamp a build id
//
// Plan errors are reported as *MalformedPlanError, *UnknownTableError or
// *UnsupportedOperatorError. Internal invariant breaks are assertion
// failures from github.com/cockroachdb/errors.
package compiler
