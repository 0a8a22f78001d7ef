package compiler

import (
	"context"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/roach88/relalg/internal/explain"
	"github.com/roach88/relalg/internal/ir"
	"github.com/roach88/relalg/internal/testutil"
)

// TestBuildDataDriven runs testdata/build. Commands:
//
//	build [no-coalesce] [verbose] [fingerprint]
//	<plan json>
//	----
//	<explain tree or error>
func TestBuildDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/build", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "build":
			var (
				opts        []Option
				flags       explain.Flags
				fingerprint bool
			)
			for _, arg := range d.CmdArgs {
				switch arg.Key {
				case "no-coalesce":
					opts = append(opts, WithCoalescing(false))
				case "verbose":
					flags.Verbose = true
				case "fingerprint":
					fingerprint = true
				default:
					d.Fatalf(t, "unknown argument %s", arg.Key)
				}
			}
			dag, err := NewBuilder(testutil.Catalog(), opts...).Build(context.Background(), "plan.json", []byte(d.Input))
			if err != nil {
				return Describe(err)
			}
			if fingerprint {
				return ir.MustFingerprint(dag)
			}
			return explain.Emit(dag, flags)

		default:
			d.Fatalf(t, "unknown command %s", d.Cmd)
			return ""
		}
	})
}
