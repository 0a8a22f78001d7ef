package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/relalg/internal/catalog"
	"github.com/roach88/relalg/internal/compiler"
	"github.com/roach88/relalg/internal/ctxlog"
	"github.com/roach88/relalg/internal/ir"
)

// Error code constants for failures outside the plan itself. Plan build
// errors use the compiler's codes (E201-E203).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeReadFailed  = "E006" // File read error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeCatalog     = "E008" // Catalog could not be opened or imported
	ErrCodeNoCatalog   = "E009" // No catalog configured
)

// LoadError represents a failure to load a command's inputs.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadPlan reads a plan file.
func LoadPlan(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("plan file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading plan %s", path), Err: err}
	}
	return data, nil
}

// OpenCatalog opens a YAML fixture or SQLite catalog.
func OpenCatalog(ctx context.Context, path string) (catalog.Source, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeNoCatalog, Message: "no catalog: pass --catalog or set catalog in the config file"}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog not found: %s", path)}
	}
	src, err := catalog.OpenPath(ctx, path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCatalog, Message: fmt.Sprintf("opening catalog %s", path), Err: err}
	}
	return src, nil
}

// outputLoadError reports an input failure. These are command errors
// (exit code 2), never plan failures.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		msg := loadErr.Message
		if loadErr.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, loadErr.Err)
		}
		_ = formatter.Error(loadErr.Code, msg, nil)
		return WrapExitError(ExitCommandError, loadErr.Code+": "+loadErr.Message, loadErr.Err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "command failed", err)
}

// PlanOptions holds the flags shared by commands that build a plan.
type PlanOptions struct {
	*RootOptions
	Catalog    string
	NoCoalesce bool
}

func (o *PlanOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Catalog, "catalog", "", "catalog path (.yaml fixture or SQLite file)")
	cmd.Flags().BoolVar(&o.NoCoalesce, "no-coalesce", false, "skip the coalescing pass")
}

func (o *PlanOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// session is one plan command's loaded inputs.
type session struct {
	path    string
	plan    []byte
	catalog catalog.Source
}

func (s *session) Close() error {
	return s.catalog.Close()
}

// open loads the plan at path and the configured catalog. Failures are
// already reported through formatter when the returned error is an
// ExitError.
func (o *PlanOptions) open(ctx context.Context, path string, formatter *OutputFormatter) (*session, error) {
	plan, err := LoadPlan(path)
	if err != nil {
		return nil, outputLoadError(formatter, err)
	}
	catalogPath := o.catalogPath(o.Catalog)
	cat, err := OpenCatalog(ctx, catalogPath)
	if err != nil {
		return nil, outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded catalog %s: %d table(s)", catalogPath, len(cat.Tables()))
	return &session{path: path, plan: plan, catalog: cat}, nil
}

// coalesce reports whether this command's builds coalesce.
func (o *PlanOptions) coalesce() bool {
	return o.coalescing() && !o.NoCoalesce
}

// build runs the full builder over the session's plan.
func (s *session) build(ctx context.Context, coalesce bool) (*ir.DAG, error) {
	b := compiler.NewBuilder(s.catalog, compiler.WithCoalescing(coalesce))
	dag, err := b.Build(ctx, s.path, s.plan)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("plan built",
		"plan", s.path,
		"build_id", dag.BuildID,
		"nodes", dag.Len())
	return dag, nil
}
