package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/roach88/relalg/internal/cli"
)

// main is the entrypoint for the relalg command.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

// run executes the root command with args. Commands report their own
// results on outW; the returned error carries the exit code.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	cmd := cli.NewRootCommand()
	cmd.SetOut(outW)
	cmd.SetErr(errW)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
