package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relalg/internal/catalog"
	"github.com/roach88/relalg/internal/ir"
)

// CatalogOptions holds flags for the catalog subcommands.
type CatalogOptions struct {
	*RootOptions
	Database string
	Catalog  string
}

// ImportResult is the JSON payload of catalog import.
type ImportResult struct {
	Database string   `json:"database"`
	Tables   []string `json:"tables"`
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage table catalogs",
		Long: `Manage the table catalogs plans are built against.

A catalog is either a YAML fixture or a SQLite database. Fixtures are
convenient to write by hand; import copies one into a database.`,
	}

	importCmd := &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Import a YAML catalog into a SQLite database",
		Long: `Import every table of a YAML catalog fixture into a SQLite catalog
database, creating the database if needed. A table that already exists
is replaced.

Examples:
  relalg catalog import catalog.yaml --db catalog.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogImport(opts, args[0], cmd)
		},
	}
	importCmd.Flags().StringVar(&opts.Database, "db", "", "SQLite catalog database path (required)")
	_ = importCmd.MarkFlagRequired("db")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the tables of a catalog",
		Long: `List the tables of a catalog with their columns.

Examples:
  relalg catalog list --db catalog.db
  relalg catalog list --catalog catalog.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(opts, cmd)
		},
	}
	listCmd.Flags().StringVar(&opts.Database, "db", "", "SQLite catalog database path")
	listCmd.Flags().StringVar(&opts.Catalog, "catalog", "", "catalog path (.yaml fixture or SQLite file)")

	cmd.AddCommand(importCmd, listCmd)
	return cmd
}

func (o *CatalogOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func runCatalogImport(opts *CatalogOptions, fixture string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	mem, err := catalog.LoadFile(fixture)
	if err != nil {
		return outputLoadError(formatter, &LoadError{Code: ErrCodeCatalog, Message: "reading fixture", Err: err})
	}
	tables := mem.Tables()
	formatter.VerboseLog("Read %d table(s) from %s", len(tables), fixture)

	store, err := catalog.Open(ctx, opts.Database)
	if err != nil {
		return outputLoadError(formatter, &LoadError{Code: ErrCodeCatalog, Message: "opening database", Err: err})
	}
	defer store.Close()

	if err := store.Import(ctx, tables); err != nil {
		return outputLoadError(formatter, &LoadError{Code: ErrCodeCatalog, Message: "importing tables", Err: err})
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	if formatter.Format == "json" {
		return formatter.Success(ImportResult{Database: opts.Database, Tables: names})
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d table(s) into %s\n", len(names), opts.Database)
	for _, name := range names {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}

func runCatalogList(opts *CatalogOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	path := opts.Database
	if path == "" {
		path = opts.catalogPath(opts.Catalog)
	}
	src, err := OpenCatalog(ctx, path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer src.Close()

	tables := src.Tables()
	if formatter.Format == "json" {
		return formatter.Success(tables)
	}

	if len(tables) == 0 {
		fmt.Fprintln(formatter.Writer, "No tables.")
		return nil
	}
	for _, t := range tables {
		fmt.Fprintln(formatter.Writer, formatTable(t))
	}
	return nil
}

// formatTable renders a table as "name (id N): col TYPE, col TYPE NULL".
func formatTable(t *ir.TableDesc) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Name + " " + c.Type
		if c.Nullable {
			cols[i] += " NULL"
		}
	}
	return fmt.Sprintf("%s (id %d): %s", t.Name, t.ID, strings.Join(cols, ", "))
}
