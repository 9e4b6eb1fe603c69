package experiment

// State holds the trial-scoped shared memory: the two cells the workers
// write and the two result slots they read into. It is passed by reference
// into both workers and the runner rather than living as package globals, so
// independent experiments never share memory.
//
// Access is deliberately lock-free and non-atomic; safety rests entirely on
// the happens-before edges of the rendezvous protocol. Per trial each cell
// is written by exactly one worker and read by exactly the other, and each
// result slot is written by its owning worker and read only by the runner
// after both end signals.
type State struct {
	X, Y int

	// R1 is worker 0's observation of Y; R2 is worker 1's observation of X.
	R1, R2 int
}

// Reset zeroes the shared cells ahead of a trial. Must only be called by the
// runner while neither worker is inside a transaction.
func (s *State) Reset() {
	s.X = 0
	s.Y = 0
}
