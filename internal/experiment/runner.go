package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/litmus/internal/rendezvous"
)

// Detection records one observed sequential-consistency violation.
type Detection struct {
	// Count is the running number of violations, starting at 1.
	Count uint64

	// Trial is the 1-based trial index the violation occurred at.
	Trial uint64
}

// Reporter receives detections as they happen, from the runner goroutine.
type Reporter interface {
	Detection(d Detection)
}

// WriterReporter prints detections in the harness's classic line format:
//
//	3 reorders detected after 204113 iterations
type WriterReporter struct {
	W io.Writer
}

// NewWriterReporter reports detections to w.
func NewWriterReporter(w io.Writer) *WriterReporter {
	return &WriterReporter{W: w}
}

// Detection implements Reporter.
func (r *WriterReporter) Detection(d Detection) {
	fmt.Fprintf(r.W, "%d reorders detected after %d iterations\n", d.Count, d.Trial)
}

// Stats summarizes a run.
type Stats struct {
	// Trials is the number of completed trials.
	Trials uint64

	// Detections is the number of trials whose joint result was (0, 0).
	Detections uint64
}

// Runner is the orchestrator: it drives trials through the rendezvous
// protocol and inspects the joint result of each one.
//
// Thread-safety model:
//   - Run must be called from exactly one goroutine.
//   - The trial and detection counters are owned by that goroutine alone.
//   - State access only happens between both end signals and the next begin
//     signals, which is the quiescent window the protocol guarantees.
type Runner struct {
	state     *State
	pairs     [2]*rendezvous.Pair
	reporters []Reporter
	log       *slog.Logger

	trials     uint64
	detections uint64
}

// NewRunner creates a runner over the shared state and the two workers'
// rendezvous pairs.
func NewRunner(state *State, pairs [2]*rendezvous.Pair, reporters []Reporter, log *slog.Logger) *Runner {
	return &Runner{state: state, pairs: pairs, reporters: reporters, log: log}
}

// Run repeats trials until ctx is cancelled or, when maxTrials > 0, until
// that many trials have completed. maxTrials == 0 means run forever, the
// production mode; bounded runs exist so tests can drive the harness.
//
// Per trial: reset the cells, release both workers back-to-back with no
// barrier between the two signals, wait for both end signals, then inspect
// (r1, r2). Both zero means the hardware produced an outcome no sequentially
// consistent interleaving can, and a detection is reported.
func (r *Runner) Run(ctx context.Context, maxTrials uint64) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return r.stats(), err
		}
		if maxTrials > 0 && r.trials >= maxTrials {
			return r.stats(), nil
		}

		r.state.Reset()

		r.pairs[0].Begin.Signal()
		r.pairs[1].Begin.Signal()

		if err := r.pairs[0].End.Wait(ctx); err != nil {
			return r.stats(), err
		}
		if err := r.pairs[1].End.Wait(ctx); err != nil {
			return r.stats(), err
		}

		r.trials++
		if r.state.R1 == 0 && r.state.R2 == 0 {
			r.detections++
			d := Detection{Count: r.detections, Trial: r.trials}
			r.log.Debug("sequential consistency violation",
				"count", d.Count, "trial", d.Trial)
			for _, rep := range r.reporters {
				rep.Detection(d)
			}
		}
	}
}

func (r *Runner) stats() Stats {
	return Stats{Trials: r.trials, Detections: r.detections}
}
