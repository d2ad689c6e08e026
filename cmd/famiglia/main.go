// Command famiglia drives the hierarchy engine: it replays scenario files,
// prints the stored organization and exports snapshots to the archive.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

type rootOptions struct {
	metricsOut string
	trace      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "famiglia",
		Short:         "Hierarchy engine for organizations with succession on imprisonment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.metricsOut, "metrics-out", "", "write Prometheus metrics to this file on exit")
	root.PersistentFlags().BoolVar(&opts.trace, "trace", false, "write JSON trace spans to stderr")

	root.AddCommand(newRunCmd(opts), newShowCmd(opts), newExportCmd(opts))
	return root
}

func cli(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "famiglia: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	return 0
}
