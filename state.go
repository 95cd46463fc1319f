package lockbench

import "github.com/alexshd/lockbench/syncutil"

// Resources is the pair of counters every strategy contends over. Each
// counter has its own mutex and the struct itself adds no synchronization:
// a strategy decides which locks to take and in what order, and that
// decision is exactly what the run measures.
//
// Callers must hold MuA to touch A and MuB to touch B.
type Resources struct {
	MuA syncutil.Mutex
	MuB syncutil.Mutex

	A int
	B int
}

// NewResources returns a Resources with the given starting counter values.
func NewResources(a, b int) *Resources {
	return &Resources{A: a, B: b}
}

// Snapshot returns a consistent view of both counters. It acquires the
// pair atomically, so a snapshot taken while workers are mid-flight never
// observes one counter from before an update and the other from after.
func (r *Resources) Snapshot() (a, b int) {
	syncutil.LockBoth(&r.MuA, &r.MuB)
	defer syncutil.UnlockBoth(&r.MuA, &r.MuB)
	return r.A, r.B
}
