// Package model is the sequentially consistent reference for the hardware
// experiment.
//
// It enumerates every interleaving of a litmus program that preserves each
// thread's program order, executes each one on an idealized sequentially
// consistent memory, and collects the reachable outcomes. For the
// store-buffering program this proves (r1, r2) == (0, 0) unreachable across
// all six interleavings, which is exactly why observing it on hardware
// demonstrates a reordering.
//
// The model is fully deterministic and serves three roles: the oracle for
// unit tests, the engine behind the `litmus check` command, and the executor
// for forced-interleaving end-to-end tests.
package model
