// Package ir provides the relational-algebra intermediate representation
// produced by the plan builder.
//
// This package contains type definitions and encodings only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Node and Scalar are closed sets, sealed by unexported marker methods
//   - Nodes live in one arena (DAG.Nodes) and refer to each other by NodeID
//   - A node's ID always equals its position in the arena
//   - Every cross-node reference points strictly backward
//   - Doubles are never written to canonical JSON; they are encoded as strings
package ir
