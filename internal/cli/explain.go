package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relalg/internal/explain"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*PlanOptions
	Types bool // annotate literals with their SQL types
}

// ExplainResult is the JSON payload of the explain command.
type ExplainResult struct {
	BuildID string   `json:"build_id"`
	Rows    []string `json:"rows"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{PlanOptions: &PlanOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "explain <plan.json>",
		Short: "Show the built DAG as a tree",
		Long: `Build a plan and print the resulting DAG as a tree, root first.

Bound column references print as @node.column. Columns of a compound's
inner stages print as $column. A node reached a second time (a shared
subplan or a self-join) is listed once and then marked (shared).

With --verbose every node also lists its output columns and arity.
With --types literals carry their SQL type.

Examples:
  relalg explain plan.json --catalog catalog.yaml
  relalg explain plan.json --catalog catalog.yaml --no-coalesce -v
  relalg explain plan.json --catalog catalog.yaml --types`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Types, "types", false, "annotate literals with their types")

	return cmd
}

func runExplain(opts *ExplainOptions, planPath string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	s, err := opts.open(ctx, planPath, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	dag, err := s.build(ctx, opts.coalesce())
	if err != nil {
		return formatter.BuildError(err)
	}

	tree := explain.Emit(dag, explain.Flags{Verbose: opts.Verbose, ShowTypes: opts.Types})
	if formatter.Format == "json" {
		return formatter.Success(ExplainResult{
			BuildID: dag.BuildID,
			Rows:    strings.Split(strings.TrimSuffix(tree, "\n"), "\n"),
		})
	}
	fmt.Fprint(formatter.Writer, tree)
	return nil
}
