package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/litmus/internal/experiment"
	"github.com/roach88/litmus/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Trials   uint64
	CPU0     int
	CPU1     int
	SpinMin  int
	SpinMax  int
	Seed     int64
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hardware reordering experiment",
		Long: `Run the store-buffering experiment on real hardware.

Two workers pinned to distinct logical CPUs repeatedly execute the
transaction (own = 1; compiler barrier; read peer) behind a begin/end
rendezvous. Each trial whose joint result is (0, 0) - impossible under
sequential consistency - is reported as a detection.

With no flags the experiment runs until interrupted, exactly like the
classic harness. Detection frequency depends on the microarchitecture and
can be zero on strongly ordered hardware or single-core machines.

Example:
  litmus run
  litmus run --trials 1000000 --cpu0 1 --cpu1 10
  litmus run --db ./detections.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(opts, cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Trials, "trials", 0, "stop after this many trials (0 = run forever)")
	cmd.Flags().IntVar(&opts.CPU0, "cpu0", experiment.AutoCPU, "logical CPU for worker 0 (-1 = auto)")
	cmd.Flags().IntVar(&opts.CPU1, "cpu1", experiment.AutoCPU, "logical CPU for worker 1 (-1 = auto)")
	cmd.Flags().IntVar(&opts.SpinMin, "spin-min", 0, "minimum pre-transaction spin iterations")
	cmd.Flags().IntVar(&opts.SpinMax, "spin-max", 0, "maximum pre-transaction spin iterations (0 = default range)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed for the spin delay randomization")
	cmd.Flags().StringVar(&opts.Database, "db", "", "optional SQLite detection log")

	return cmd
}

func runExperiment(opts *RunOptions, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Number of processors: %d\n\n", runtime.NumCPU())

	reporters := []experiment.Reporter{experiment.NewWriterReporter(out)}

	var sr *storeReporter
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open detection log", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing detection log", "error", closeErr)
			}
		}()
		sr = &storeReporter{st: st}
		reporters = append(reporters, sr)
	}

	exp, err := experiment.New(experiment.Options{
		CPU0:      opts.CPU0,
		CPU1:      opts.CPU1,
		SpinMin:   opts.SpinMin,
		SpinMax:   opts.SpinMax,
		Seed:      opts.Seed,
		Reporters: reporters,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up experiment", err)
	}

	if sr != nil {
		sr.session = exp.Session()
		cpu0, cpu1 := exp.CPUs()
		if err := sr.st.BeginSession(sr.session, time.Now(), cpu0, cpu1); err != nil {
			return WrapExitError(ExitCommandError, "failed to record session", err)
		}
	}

	// Setup signal handling for graceful shutdown.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	stats, err := exp.Run(ctx, opts.Trials)
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "experiment error", err)
	}

	// Grouped digits keep week-long totals readable.
	p := message.NewPrinter(language.English)
	p.Fprintf(out, "\ncompleted %d trials, %d reorders detected\n", stats.Trials, stats.Detections)
	return nil
}

// storeReporter mirrors detections into the SQLite log. Insert failures are
// logged and do not stop the experiment.
type storeReporter struct {
	st      *store.Store
	session uuid.UUID
}

func (r *storeReporter) Detection(d experiment.Detection) {
	if err := r.st.RecordDetection(r.session, d.Count, d.Trial, time.Now()); err != nil {
		slog.Error("failed to record detection", "detection", d.Count, "trial", d.Trial, "error", err)
	}
}
