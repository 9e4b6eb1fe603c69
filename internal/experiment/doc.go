// Package experiment runs the store-buffering litmus test on real hardware.
//
// Two symmetric workers, each pinned to its own logical CPU, repeatedly
// execute one half of the transaction:
//
//	worker 0              worker 1
//	X = 1                 Y = 1
//	r1 = Y                r2 = X
//
// Under sequential consistency (r1, r2) == (0, 0) is unreachable: whichever
// of the four accesses goes last, at least one load must observe the other
// thread's store. Observing (0, 0) therefore proves the hardware executed
// the accesses in an order no sequentially consistent interleaving allows,
// most commonly because each core's store was still sitting in its local
// store buffer when its own load was serviced.
//
// The orchestrator (Runner) never touches the shared cells concurrently with
// a transaction: the rendezvous begin/end signals form a strict
// happens-before fence around every trial. No ordering of any kind is
// introduced between the two workers' transactions themselves; that window
// is the subject of the measurement.
package experiment
