//go:build linux

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and restricts that
// thread's affinity mask to the single logical CPU cpu.
//
// The thread stays locked for the life of the goroutine; a pinned worker must
// never be migrated mid-transaction, or the store-buffer state under test
// would not belong to a single core.
func Pin(cpu int) error {
	if cpu < 0 {
		return fmt.Errorf("pin to cpu %d: negative cpu index", cpu)
	}

	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("pin to cpu %d: sched_setaffinity: %w", cpu, err)
	}
	return nil
}
