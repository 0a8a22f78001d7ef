package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/relalg/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added unique column-name index per table
const currentSchemaVersion = 1

// Store is a SQLite-backed catalog. Lookups are served from an in-memory
// snapshot taken at Open and refreshed by Import and Reload.
type Store struct {
	db   *sql.DB
	snap *Memory
}

// Open creates or opens a catalog database at path, applies pragmas and
// migrations, and loads the snapshot.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply pragmas")
	}
	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply schema")
	}

	s := &Store{db: db, snap: NewMemory()}
	if err := s.Reload(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LookupTable resolves name against the current snapshot.
func (s *Store) LookupTable(name string) (*ir.TableDesc, bool) {
	return s.snap.LookupTable(name)
}

// Tables returns the snapshot's tables sorted by name.
func (s *Store) Tables() []*ir.TableDesc {
	return s.snap.Tables()
}

// Import writes tables in one transaction, replacing any existing table
// with the same name, then refreshes the snapshot.
func (s *Store) Import(ctx context.Context, tables []*ir.TableDesc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin import")
	}
	defer tx.Rollback()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM mapd_tables WHERE name = ?`, t.Name); err != nil {
			return errors.Wrapf(err, "replace table %q", t.Name)
		}
		var res sql.Result
		if t.ID > 0 {
			res, err = tx.ExecContext(ctx,
				`INSERT INTO mapd_tables (tableid, name, ncolumns) VALUES (?, ?, ?)`,
				t.ID, t.Name, len(t.Columns))
		} else {
			res, err = tx.ExecContext(ctx,
				`INSERT INTO mapd_tables (name, ncolumns) VALUES (?, ?)`,
				t.Name, len(t.Columns))
		}
		if err != nil {
			return errors.Wrapf(err, "insert table %q", t.Name)
		}
		tableID, err := res.LastInsertId()
		if err != nil {
			return errors.Wrapf(err, "table id for %q", t.Name)
		}
		for i, c := range t.Columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO mapd_columns (tableid, columnid, name, coltype, nullable) VALUES (?, ?, ?, ?, ?)`,
				tableID, i+1, c.Name, c.Type, c.Nullable); err != nil {
				return errors.Wrapf(err, "insert column %q.%q", t.Name, c.Name)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit import")
	}
	return s.Reload(ctx)
}

// Reload rebuilds the snapshot from the database.
func (s *Store) Reload(ctx context.Context) error {
	tables, err := s.readTables(ctx)
	if err != nil {
		return err
	}
	next := make(map[string]*ir.TableDesc, len(tables))
	for _, t := range tables {
		next[foldName(t.Name)] = t
	}
	s.snap.replace(next)
	return nil
}

// readTables loads every table with its columns in columnid order.
func (s *Store) readTables(ctx context.Context) ([]*ir.TableDesc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.tableid, t.name, c.name, c.coltype, c.nullable
		FROM mapd_tables t
		JOIN mapd_columns c ON c.tableid = t.tableid
		ORDER BY t.tableid ASC, c.columnid ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query catalog")
	}
	defer rows.Close()

	var (
		tables []*ir.TableDesc
		cur    *ir.TableDesc
	)
	for rows.Next() {
		var (
			id       int
			name     string
			col      ir.ColumnDesc
			nullable int
		)
		if err := rows.Scan(&id, &name, &col.Name, &col.Type, &nullable); err != nil {
			return nil, errors.Wrap(err, "scan catalog row")
		}
		col.Nullable = nullable != 0
		if cur == nil || cur.ID != id {
			cur = &ir.TableDesc{ID: id, Name: name}
			tables = append(tables, cur)
		}
		cur.Columns = append(cur.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate catalog rows")
	}
	return tables, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return errors.Wrapf(err, "failed to execute %q", pragma)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "failed to execute schema")
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "get user_version")
	}
	if version < 1 {
		if _, err := db.ExecContext(ctx, `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_columns_table_name
			ON mapd_columns(tableid, name COLLATE NOCASE)
		`); err != nil {
			return errors.Wrap(err, "migrate to v1")
		}
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return errors.Wrap(err, "set user_version")
	}
	return nil
}
