// Package affinity pins worker goroutines to exclusive logical CPUs.
//
// Pinning keeps each worker's transaction on one core so the phenomenon
// being measured is that core's store buffer interacting with the other
// core's, not OS migration noise. Failure to pin is reported but non-fatal.
package affinity
