//go:build !linux

package affinity

import (
	"errors"
	"fmt"
	"runtime"
)

// Pin locks the calling goroutine to its OS thread. Affinity masks are not
// supported on this platform, so the thread may still migrate between cores;
// callers treat this as best-effort and only warn, since it affects how
// reliably the reordering reproduces, not correctness.
func Pin(cpu int) error {
	runtime.LockOSThread()
	return fmt.Errorf("pin to cpu %d: %w", cpu, errors.ErrUnsupported)
}
