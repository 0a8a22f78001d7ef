package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/relalg/internal/compiler"
	"github.com/roach88/relalg/internal/ir"
)

// Validation phases.
const (
	PhaseBind     = "bind"
	PhaseCoalesce = "coalesce"
)

// PhaseResult is the outcome of one validation phase.
type PhaseResult struct {
	Phase      string                     `json:"phase"`
	OK         bool                       `json:"ok"`
	Nodes      int                        `json:"nodes,omitempty"`
	Error      *compiler.Detail           `json:"error,omitempty"`
	Violations []compiler.ValidationError `json:"violations,omitempty"`

	// err is the raw build error, for errors without a Detail.
	err error
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool          `json:"valid"`
	Phases []PhaseResult `json:"phases"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <plan.json>",
		Short: "Check that a plan binds and coalesces",
		Long: `Validate a plan without writing any output.

The plan is first built without coalescing, which checks the wire
format, the catalog references and input binding. Unless coalescing is
disabled, it is then built again with coalescing, which also checks
the Filter/Project/Aggregate/Project patterns. Each resulting DAG is
checked against the DAG postconditions.

Exit codes:
  0 - Plan is valid
  1 - Plan is invalid
  2 - Command error (missing plan or catalog, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runValidate(opts *PlanOptions, planPath string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	s, err := opts.open(ctx, planPath, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	result := ValidationResult{Valid: true}
	phases := []string{PhaseBind}
	if opts.coalesce() {
		phases = append(phases, PhaseCoalesce)
	}
	for _, phase := range phases {
		formatter.VerboseLog("Validating phase: %s", phase)
		p := validatePhase(ctx, s, phase)
		result.Phases = append(result.Phases, p)
		if !p.OK {
			result.Valid = false
			// A plan that does not bind cannot coalesce either.
			break
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, planPath, result)
	}
	return outputValidateSuccess(formatter, planPath, result)
}

func validatePhase(ctx context.Context, s *session, phase string) PhaseResult {
	p := PhaseResult{Phase: phase}

	var (
		dag *ir.DAG
		err error
	)
	if phase == PhaseBind {
		dag, err = compiler.NewBuilder(s.catalog).Bind(ctx, s.path, s.plan)
	} else {
		dag, err = s.build(ctx, true)
	}
	if err != nil {
		p.err = err
		if d, ok := compiler.DetailOf(err); ok {
			p.Error = &d
		}
		return p
	}

	p.Nodes = dag.Len()
	p.Violations = compiler.Validate(dag)
	p.OK = len(p.Violations) == 0
	return p
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, planPath string, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, p := range result.Phases {
		fmt.Fprintf(formatter.Writer, "✓ %s: %d node(s)\n", p.Phase, p.Nodes)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", planPath)
	return nil
}

// outputValidationErrors outputs a failed validation.
func outputValidationErrors(formatter *OutputFormatter, planPath string, result ValidationResult) error {
	failed := result.Phases[len(result.Phases)-1]

	if formatter.Format == "json" {
		cliErr := &CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s failed", failed.Phase)}
		switch {
		case failed.Error != nil:
			cliErr.Code, cliErr.Message = failed.Error.Code, failed.Error.Message
		case len(failed.Violations) > 0:
			cliErr.Code, cliErr.Message = failed.Violations[0].Code, failed.Violations[0].Message
		case failed.err != nil:
			cliErr.Message = failed.err.Error()
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error:  cliErr,
		}

		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", planPath, cliErr.Message))
	}

	// Text format
	w := formatter.Writer
	for _, p := range result.Phases {
		if p.OK {
			fmt.Fprintf(w, "✓ %s: %d node(s)\n", p.Phase, p.Nodes)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", p.Phase)
		switch {
		case p.Error != nil:
			if p.Error.Pos.IsValid() {
				fmt.Fprintf(w, "  %s:%d:%d\n", p.Error.Pos.Filename(), p.Error.Pos.Line(), p.Error.Pos.Column())
			}
			fmt.Fprintf(w, "  %s: node %d, %s: %s\n", p.Error.Code, p.Error.Node, p.Error.Field, p.Error.Message)
		case p.err != nil:
			fmt.Fprintf(w, "  %s: %v\n", ErrCodeGeneric, p.err)
		}
		for _, v := range p.Violations {
			fmt.Fprintf(w, "  %s\n", v.Error())
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "✗ Validation failed")

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("%s is invalid", planPath))
}
