package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relalg/internal/ir"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*PlanOptions
	Output string // output file path
}

// NodeSummary describes one node of a built DAG.
type NodeSummary struct {
	ID     int    `json:"id"`
	Kind   string `json:"kind"`
	Arity  int    `json:"arity"`
	Inputs []int  `json:"inputs"`
	// Fingerprint is the content hash of the node's own encoding, ids
	// included. It changes when the node or its position changes.
	Fingerprint string `json:"fingerprint"`
}

// BuildResult is the JSON payload of a successful build.
type BuildResult struct {
	BuildID     string          `json:"build_id"`
	Fingerprint string          `json:"fingerprint"`
	Nodes       []NodeSummary   `json:"nodes"`
	IR          json.RawMessage `json:"ir"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{PlanOptions: &PlanOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "build <plan.json>",
		Short: "Build a plan into a canonical DAG",
		Long: `Build a relational plan into a bound, coalesced DAG.

The plan is decoded, every node is constructed against the catalog,
input references are bound to the nodes that produce them, and
Filter/Project/Aggregate/Project runs are fused into compound nodes.
The result is summarized, or written as canonical IR JSON with -o.

Examples:
  relalg build plan.json --catalog catalog.yaml
  relalg build plan.json --catalog catalog.db --no-coalesce
  relalg build plan.json --catalog catalog.yaml -o plan.ir.json
  relalg build plan.json --catalog catalog.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical IR to this file")

	return cmd
}

func runBuild(opts *BuildOptions, planPath string, cmd *cobra.Command) error {
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

	canonical, err := ir.MarshalCanonical(ir.EncodeDAG(dag))
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding IR", err)
	}
	fingerprint, err := ir.Fingerprint(dag)
	if err != nil {
		return WrapExitError(ExitCommandError, "fingerprinting IR", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, canonical, 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
		formatter.VerboseLog("Wrote %d bytes to %s", len(canonical), opts.Output)
	}

	result := BuildResult{
		BuildID:     dag.BuildID,
		Fingerprint: fingerprint,
		IR:          canonical,
	}
	if result.Nodes, err = summarize(dag); err != nil {
		return WrapExitError(ExitCommandError, "fingerprinting IR", err)
	}
	return outputBuildSuccess(formatter, planPath, result, opts.Output)
}

// summarize lists every node of d in arena order.
func summarize(d *ir.DAG) ([]NodeSummary, error) {
	out := make([]NodeSummary, len(d.Nodes))
	for i, n := range d.Nodes {
		inputs := make([]int, len(n.Inputs()))
		for k, in := range n.Inputs() {
			inputs[k] = int(in)
		}
		fp, err := ir.NodeFingerprint(n)
		if err != nil {
			return nil, err
		}
		out[i] = NodeSummary{
			ID:          int(n.ID()),
			Kind:        n.Kind().String(),
			Arity:       n.Arity(),
			Inputs:      inputs,
			Fingerprint: fp,
		}
	}
	return out, nil
}

// outputBuildSuccess outputs a successful build.
func outputBuildSuccess(formatter *OutputFormatter, planPath string, result BuildResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Built %d node(s) from %s\n\n", len(result.Nodes), planPath)

	fmt.Fprintln(w, "Nodes:")
	for _, n := range result.Nodes {
		line := fmt.Sprintf("  @%d %s (arity %d)", n.ID, strings.ToLower(n.Kind), n.Arity)
		if len(n.Inputs) > 0 {
			ins := make([]string, len(n.Inputs))
			for i, in := range n.Inputs {
				ins[i] = fmt.Sprintf("@%d", in)
			}
			line += " <- " + strings.Join(ins, ", ")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Build ID: %s\n", result.BuildID)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote canonical IR to %s\n", outputFile)
	}
	return nil
}
