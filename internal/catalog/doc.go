// Package catalog provides the table metadata oracle consulted by the
// plan builder.
//
// Three sources are supported:
//   - Memory: an in-process snapshot, safe for concurrent lookups
//   - YAML fixtures (LoadFile), used by tests and the scenario harness
//   - Store: a SQLite database holding mapd_tables and mapd_columns
//
// Lookups are by table name and ignore Unicode case. Every source is
// read-only from the builder's point of view; only Store.Import and
// Store.Reload change what lookups return.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during an import
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: columns are removed with their table
package catalog
