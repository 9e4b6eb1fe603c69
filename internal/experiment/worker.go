package experiment

import (
	"context"
	"log/slog"

	"github.com/roach88/litmus/internal/affinity"
	"github.com/roach88/litmus/internal/fence"
	"github.com/roach88/litmus/internal/rendezvous"
	"github.com/roach88/litmus/internal/spin"
)

// Worker executes one half of the transaction, forever, on a dedicated
// logical CPU.
//
// A worker owns exactly one shared cell to write, observes exactly one cell
// owned by the other worker, and records what it saw in its own result slot.
// It never writes the other worker's cell.
type Worker struct {
	id     int
	cpu    int
	own    *int // cell this worker stores 1 into
	other  *int // cell owned by the peer, loaded once per trial
	result *int // slot the loaded value is recorded in
	pair   *rendezvous.Pair
	delay  *spin.Delay
	log    *slog.Logger
}

// NewWorker wires a worker to its cells, rendezvous pair and delay source.
// The cell and result pointers alias fields of a State shared with the peer
// worker and the runner.
func NewWorker(id, cpu int, own, other, result *int, pair *rendezvous.Pair, delay *spin.Delay, log *slog.Logger) *Worker {
	return &Worker{
		id:     id,
		cpu:    cpu,
		own:    own,
		other:  other,
		result: result,
		pair:   pair,
		delay:  delay,
		log:    log,
	}
}

// Run pins the worker and loops until ctx is cancelled: wait for the begin
// signal, spin for a randomized delay, run the transaction, signal the end.
//
// Pinning failure is logged and tolerated; the experiment stays correct, it
// just reproduces the reordering less reliably. Run always returns the
// context's error.
func (w *Worker) Run(ctx context.Context) error {
	if err := affinity.Pin(w.cpu); err != nil {
		w.log.Warn("cpu pinning unavailable, worker may migrate between cores",
			"worker", w.id, "cpu", w.cpu, "error", err)
	} else {
		w.log.Debug("worker pinned", "worker", w.id, "cpu", w.cpu)
	}

	for {
		if err := w.pair.Begin.Wait(ctx); err != nil {
			return err
		}

		// Perturb the relative timing of the two transactions. This spins,
		// never sleeps: yielding the CPU here would let the scheduler smear
		// the timing relationship the experiment depends on.
		w.delay.Wait()

		w.transact()

		w.pair.End.Signal()
	}
}

// transact is the measured sequence: one plain store, a compiler barrier,
// one plain load. The barrier stops the compiler from reordering or caching
// the accesses; the hardware is left completely free to reorder them, which
// is the point.
func (w *Worker) transact() {
	*w.own = 1
	fence.Compiler()
	*w.result = *w.other
}
