//go:build deadlock

// Package syncutil provides the mutex primitives the rest of the module
// locks with. The default build is a zero-cost wrapper around the standard
// library; building with -tags deadlock swaps in an instrumented mutex that
// watches for lock-order inversions and long waits during development.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled reports whether the deadlock detector is compiled in.
const DeadlockEnabled = true

func init() {
	// The intentional-hang demonstration parks both workers after ~100ms,
	// so any wait this long is a real inversion, not contention.
	deadlock.Opts.DeadlockTimeout = 30 * time.Second
}

// Mutex is a mutual exclusion lock with deadlock detection. The zero value
// for a Mutex is an unlocked mutex.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex is a reader/writer mutual exclusion lock with deadlock detection.
// The zero value for an RWMutex is an unlocked mutex.
//
// An RWMutex must not be copied after first use.
type RWMutex struct {
	deadlock.RWMutex
}
