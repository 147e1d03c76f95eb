package iface

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCPU locks the calling goroutine to its current OS thread and pins
// that thread to core, the same runtime.LockOSThread + unix.CPUSet +
// unix.SchedSetaffinity sequence the teacher's affinity helper uses to
// keep a hot network loop off the scheduler's ball of goroutines. A
// negative core disables pinning; errors are logged and otherwise
// ignored — an RX/TX worker that can't be pinned still runs correctly,
// just without the locality guarantee.
func pinToCPU(core int) {
	if core < 0 {
		return
	}
	runtime.LockOSThread()

	if max := runtime.NumCPU(); core >= max {
		logger.Printf("affinity: CPU core %d not available (max %d), skipping pin", core, max-1)
		return
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(core)

	tid := unix.Gettid()
	if err := unix.SchedSetaffinity(tid, &set); err != nil {
		logger.Printf("affinity: pin tid %d to core %d: %v", tid, core, err)
	}
}
