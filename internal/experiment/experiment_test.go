package experiment

import (
	"bytes"
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litmus/internal/affinity"
)

// captureReporter records detections for assertions.
type captureReporter struct {
	detections []Detection
}

func (c *captureReporter) Detection(d Detection) {
	c.detections = append(c.detections, d)
}

func TestWriterReporter_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	NewWriterReporter(&buf).Detection(Detection{Count: 3, Trial: 204113})
	assert.Equal(t, "3 reorders detected after 204113 iterations\n", buf.String())
}

func TestState_Reset(t *testing.T) {
	s := &State{X: 1, Y: 1, R1: 1, R2: 1}
	s.Reset()
	assert.Zero(t, s.X)
	assert.Zero(t, s.Y)
	// Result slots are overwritten by the next trial, not by reset.
	assert.Equal(t, 1, s.R1)
	assert.Equal(t, 1, s.R2)
}

func TestNew_ResolvesAutoCPUs(t *testing.T) {
	e, err := New(Options{CPU0: AutoCPU, CPU1: AutoCPU})
	require.NoError(t, err)

	cpu0, cpu1 := e.CPUs()
	assert.GreaterOrEqual(t, cpu0, 0)
	assert.GreaterOrEqual(t, cpu1, 0)
	if runtime.NumCPU() > 1 {
		assert.NotEqual(t, cpu0, cpu1, "auto pins should be distinct cores")
	}
}

func TestNew_RejectsBadSpinRange(t *testing.T) {
	_, err := New(Options{SpinMin: 10, SpinMax: 5})
	assert.Error(t, err)
}

// TestExperiment_BoundedRun is the liveness property: every begin signal is
// matched by an end signal, so a bounded run completes exactly N trials.
func TestExperiment_BoundedRun(t *testing.T) {
	const trials = 2000

	rec := &captureReporter{}
	e, err := New(Options{
		CPU0:      AutoCPU,
		CPU1:      AutoCPU,
		Reporters: []Reporter{rec},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	stats, err := e.Run(ctx, trials)
	require.NoError(t, err)
	assert.Equal(t, uint64(trials), stats.Trials)
	assert.LessOrEqual(t, stats.Detections, stats.Trials)
	assert.Equal(t, int(stats.Detections), len(rec.detections))

	// Detection counts are monotonically numbered and carry valid trials.
	for i, d := range rec.detections {
		assert.Equal(t, uint64(i+1), d.Count)
		assert.Positive(t, d.Trial)
		assert.LessOrEqual(t, d.Trial, stats.Trials)
	}
}

func TestExperiment_RunIsResumable(t *testing.T) {
	e, err := New(Options{CPU0: AutoCPU, CPU1: AutoCPU})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	stats, err := e.Run(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), stats.Trials)

	// Counters continue; the rendezvous pairs survive a completed run.
	stats, err = e.Run(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), stats.Trials)
}

// TestExperiment_ResumeAfterCancel cancels runs at varied points and then
// drives a bounded run on the same Experiment. A cancellation can strand
// rendezvous counts from a half-finished trial; if Run failed to drain them,
// the next run's orchestrator would consume a stale end signal and inspect
// the state while a worker is still transacting, and trial accounting would
// drift. The exact counts below fail in either case.
func TestExperiment_ResumeAfterCancel(t *testing.T) {
	e, err := New(Options{CPU0: AutoCPU, CPU1: AutoCPU})
	require.NoError(t, err)

	deadline, cancelAll := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancelAll()

	for _, delay := range []time.Duration{0, time.Millisecond, 5 * time.Millisecond, 20 * time.Millisecond} {
		ctx, cancel := context.WithTimeout(deadline, delay)
		interrupted, err := e.Run(ctx, 0)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)

		target := interrupted.Trials + 100
		stats, err := e.Run(deadline, target)
		require.NoError(t, err)
		require.Equal(t, target, stats.Trials,
			"bounded resume after cancel must complete exactly the requested trials")
	}
}

func TestExperiment_Cancellation(t *testing.T) {
	e, err := New(Options{CPU0: AutoCPU, CPU1: AutoCPU})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	var stats Stats
	var runErr error
	go func() {
		stats, runErr = e.Run(ctx, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("cancelled run did not stop")
	}
	assert.ErrorIs(t, runErr, context.Canceled)
	assert.LessOrEqual(t, stats.Detections, stats.Trials)
}

// TestExperiment_SingleCore pins both workers to the same logical CPU. With
// one core there is one store buffer, every execution is some sequentially
// consistent interleaving, and no detection can occur.
func TestExperiment_SingleCore(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs working cpu affinity")
	}
	probe := make(chan error, 1)
	go func() { probe <- affinity.Pin(0) }()
	if err := <-probe; err != nil {
		t.Skipf("cannot pin in this environment: %v", err)
	}

	rec := &captureReporter{}
	e, err := New(Options{CPU0: 0, CPU1: 0, Reporters: []Reporter{rec}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	stats, err := e.Run(ctx, 50000)
	require.NoError(t, err)
	assert.Equal(t, uint64(50000), stats.Trials)
	assert.Zero(t, stats.Detections, "a single core cannot reorder against itself")
}
