package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/litmus/internal/rendezvous"
	"github.com/roach88/litmus/internal/spin"
)

// Options configures an Experiment. AutoCPU pins plus zero values elsewhere
// reproduce the classic harness: auto-picked distinct cores, default spin
// range, time-seeded delays.
type Options struct {
	// CPU0 and CPU1 are the logical CPUs the two workers pin to.
	// AutoCPU picks two cores as far apart in the enumeration as possible.
	CPU0, CPU1 int

	// SpinMin and SpinMax bound the randomized per-trial busy delay,
	// in spin-loop iterations. Zero values take the spin defaults.
	SpinMin, SpinMax int

	// Seed seeds the workers' delay sources; zero seeds from the clock.
	// The harness stays non-deterministic regardless, the seed only
	// shapes the timing perturbation.
	Seed int64

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Reporters receive detections from the runner goroutine.
	Reporters []Reporter
}

// AutoCPU lets the experiment choose a worker's CPU.
const AutoCPU = -1

// Experiment owns the shared state, the two workers and the runner, wired
// once at startup; the rendezvous pairs live for the experiment's lifetime.
type Experiment struct {
	session uuid.UUID
	cpu0    int
	cpu1    int
	state   *State
	pairs   [2]*rendezvous.Pair
	workers [2]*Worker
	runner  *Runner
	log     *slog.Logger
}

// New builds an experiment from opts. It never touches the CPUs yet; pinning
// happens on the worker goroutines inside Run.
func New(opts Options) (*Experiment, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	cpu0, cpu1 := opts.CPU0, opts.CPU1
	if cpu0 == AutoCPU || cpu1 == AutoCPU {
		a, b := pickCPUs()
		if cpu0 == AutoCPU {
			cpu0 = a
		}
		if cpu1 == AutoCPU {
			cpu1 = b
		}
	}

	spinMin, spinMax := opts.SpinMin, opts.SpinMax
	if spinMin == 0 && spinMax == 0 {
		spinMin, spinMax = spin.DefaultMin, spin.DefaultMax
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	delay0, err := spin.NewDelay(spinMin, spinMax, seed)
	if err != nil {
		return nil, fmt.Errorf("worker 0 delay: %w", err)
	}
	delay1, err := spin.NewDelay(spinMin, spinMax, seed+1)
	if err != nil {
		return nil, fmt.Errorf("worker 1 delay: %w", err)
	}

	state := &State{}
	pairs := [2]*rendezvous.Pair{rendezvous.NewPair(), rendezvous.NewPair()}

	e := &Experiment{
		session: uuid.New(),
		cpu0:    cpu0,
		cpu1:    cpu1,
		state:   state,
		pairs:   pairs,
		log:     log,
	}
	e.workers[0] = NewWorker(0, cpu0, &state.X, &state.Y, &state.R1, pairs[0], delay0, log)
	e.workers[1] = NewWorker(1, cpu1, &state.Y, &state.X, &state.R2, pairs[1], delay1, log)
	e.runner = NewRunner(state, pairs, opts.Reporters, log)
	return e, nil
}

// Session is the run's correlation token, carried in logs and the optional
// detection store.
func (e *Experiment) Session() uuid.UUID {
	return e.session
}

// CPUs reports the resolved worker pins.
func (e *Experiment) CPUs() (cpu0, cpu1 int) {
	return e.cpu0, e.cpu1
}

// Run starts both workers and drives trials until ctx is cancelled or the
// bound is reached (maxTrials == 0 runs forever). It returns once both
// workers have parked; the returned error is nil for a completed bounded run
// and ctx.Err() for a cancelled one.
func (e *Experiment) Run(ctx context.Context, maxTrials uint64) (Stats, error) {
	e.log.Info("experiment starting",
		"session", e.session, "cpu0", e.cpu0, "cpu1", e.cpu1, "max_trials", maxTrials)

	// A cancelled previous run can strand counts: a worker that was mid
	// transaction still signals its End after the runner has given up on it,
	// and an unconsumed Begin survives a worker's exit. Both workers are
	// parked here (Run does not return until they are), so the pairs are
	// quiescent and safe to drain; a stale End consumed by the next trial
	// would let the runner read State mid-transaction.
	e.pairs[0].Reset()
	e.pairs[1].Reset()

	// Workers outlive the trial loop only until this cancel; a completed
	// bounded run still has both blocked on their begin signals.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range e.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			_ = w.Run(wctx)
		}(w)
	}

	stats, err := e.runner.Run(wctx, maxTrials)
	cancel()
	wg.Wait()

	if err != nil && ctx.Err() == nil {
		// Internal cancel only; the run itself completed.
		err = nil
	}
	e.log.Info("experiment stopped",
		"session", e.session, "trials", stats.Trials, "detections", stats.Detections)
	return stats, err
}

// pickCPUs chooses two distinct logical CPUs. On SMT machines the low and
// high halves of the enumeration are usually distinct physical cores, so the
// spread maximizes the chance of two real store buffers.
func pickCPUs() (int, int) {
	n := runtime.NumCPU()
	if n < 2 {
		return 0, 0
	}
	return 0, n / 2
}
