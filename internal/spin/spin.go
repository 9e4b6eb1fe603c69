// Package spin provides the randomized busy delay injected before each
// transaction.
//
// The delay perturbs the relative timing of the two workers' transactions
// across trials; a fixed offset would systematically hit or miss the
// reordering window. The spin is CPU-bound on purpose: sleeping or yielding
// would hand the thread back to the scheduler and destroy the controlled
// timing relationship between the pinned cores.
package spin

import (
	"fmt"
	"math/rand"
	"sync/atomic"
)

// Default iteration range for the per-trial delay. The original experiment
// used a geometric retry with a mean of a few iterations; the exact
// distribution only affects detection frequency, not correctness.
const (
	DefaultMin = 0
	DefaultMax = 64
)

// sink defeats dead-code elimination of the spin loop. The atomic add keeps
// concurrent spinners from racing on it without ordering the loop body.
var sink atomic.Uint64

// Spin burns CPU for n loop iterations without yielding the OS thread.
//
//go:noinline
func Spin(n int) {
	var acc uint64
	for i := 0; i < n; i++ {
		acc += uint64(i)
	}
	sink.Add(acc)
}

// Delay draws a spin length uniformly from [Min, Max) per call.
//
// Each worker owns one Delay with its own rand source. Not safe for
// concurrent use; the workers never share one.
type Delay struct {
	Min, Max int
	rng      *rand.Rand
}

// NewDelay creates a delay for the given iteration range, seeded so the two
// workers draw independent sequences.
func NewDelay(min, max int, seed int64) (*Delay, error) {
	if min < 0 || max < min {
		return nil, fmt.Errorf("invalid spin range [%d,%d)", min, max)
	}
	return &Delay{Min: min, Max: max, rng: rand.New(rand.NewSource(seed))}, nil
}

// Wait spins for a freshly drawn iteration count and returns it.
func (d *Delay) Wait() int {
	n := d.Min
	if d.Max > d.Min {
		n += d.rng.Intn(d.Max - d.Min)
	}
	Spin(n)
	return n
}
