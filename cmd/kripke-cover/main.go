package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/rfielding/kripke-cover/internal/logging"
	"github.com/spf13/cobra"
)

// main is the entrypoint for the kripke-cover CLI.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		reportFailure(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// reportFailure logs the error that ends the process.
func reportFailure(errW io.Writer, err error) {
	logging.New("error", "text", errW).Error("Command failed.", "error", err)
}

// run builds the command tree and executes it with args, for easier testing.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	root := newRootCmd(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(outW, errW io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "kripke-cover",
		Short: "Generate tests from tagged models and measure path coverage",
		Long: `kripke-cover walks a tagged state/transition model, steering each step
toward transitions that complete new start-to-end paths, and reports the
distinct paths it covered.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	root.AddCommand(
		newRunCmd(),
		newDiagramCmd(),
		newExampleCmd(),
	)
	return root
}
