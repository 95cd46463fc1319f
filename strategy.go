package lockbench

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexshd/lockbench/syncutil"
)

// Strategy selects the locking discipline a run demonstrates. The numeric
// values are stable and double as the command-line selector.
type Strategy int

const (
	// SafeSingle touches only counter A under its own mutex. One lock,
	// no ordering question, nothing to get wrong.
	SafeSingle Strategy = iota + 1

	// Deadlock has the two workers take the mutexes in opposite orders
	// while holding the first across a delay. The circular wait is the
	// intended outcome: a run with this strategy never returns.
	Deadlock

	// ScopedDual acquires both mutexes as an atomic pair and updates both
	// counters inside the joint critical section.
	ScopedDual

	// OrderedDual takes the mutexes one at a time but always A before B,
	// for every worker. The fixed global order rules out circular wait.
	OrderedDual
)

// ErrUnknownStrategy is returned by ParseStrategy for selectors outside 1..4.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy maps a numeric selector to a Strategy.
func ParseStrategy(n int) (Strategy, error) {
	if n < int(SafeSingle) || n > int(OrderedDual) {
		return 0, fmt.Errorf("%w: %d (want 1-4)", ErrUnknownStrategy, n)
	}
	return Strategy(n), nil
}

func (s Strategy) String() string {
	switch s {
	case SafeSingle:
		return "safe-single"
	case Deadlock:
		return "deadlock"
	case ScopedDual:
		return "scoped-dual"
	case OrderedDual:
		return "ordered-dual"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Terminates reports whether a run of s is expected to return. Only
// Deadlock is built to hang.
func (s Strategy) Terminates() bool {
	return s != Deadlock
}

// engine is one run's working set: the contended counters, the milestone
// trace, and the knobs the worker bodies read. Workers share a single
// engine and differ only by id.
type engine struct {
	res   *Resources
	trace *Trace
	log   *slog.Logger
	iters int
	pause time.Duration
	hold  time.Duration
}

// worker runs the body for one worker until it finishes its iterations.
// With the Deadlock strategy it parks forever instead; markCompleted is
// then never reached, which is exactly what the trace is for.
func (e *engine) worker(s Strategy, id int) {
	e.trace.markStarted()

	switch s {
	case SafeSingle:
		e.safeSingle(id)
	case Deadlock:
		e.deadlockPair(id)
	case ScopedDual:
		e.scopedDual(id)
	case OrderedDual:
		e.orderedDual(id)
	}

	e.trace.markCompleted()
}

// safeSingle increments counter A under its mutex, once per iteration.
// Counter B and its mutex are never touched.
func (e *engine) safeSingle(id int) {
	for i := 0; i < e.iters; i++ {
		e.res.MuA.Lock()
		v := e.res.A
		e.res.A++
		e.res.MuA.Unlock()
		e.trace.addOp()

		if i == 0 {
			e.trace.markFirstLock()
			e.log.Info("first increment", "worker", id, "strategy", SafeSingle, "a", v)
		}
		e.idle()
	}
}

// deadlockPair is the negative control. Worker 1 takes A then B, worker 2
// takes B then A, and each sits on its first mutex for the hold window
// before reaching for the second. With both workers past their first lock,
// neither second acquisition can ever succeed.
//
// The increments after the second lock are unreachable by construction.
func (e *engine) deadlockPair(id int) {
	first, second := &e.res.MuA, &e.res.MuB
	names := [2]string{"A", "B"}
	if id%2 == 0 {
		first, second = second, first
		names[0], names[1] = names[1], names[0]
	}

	first.Lock()
	e.trace.markFirstLock()
	e.log.Info("acquired first lock", "worker", id, "lock", names[0])

	time.Sleep(e.hold)

	e.log.Info("waiting for second lock", "worker", id, "lock", names[1])
	second.Lock()

	// Not reached while the opposite worker exists.
	e.trace.markBothLocks()
	e.res.A++
	e.res.B++
	second.Unlock()
	first.Unlock()
	e.trace.addOp()
}

// scopedDual updates both counters inside one all-or-nothing acquisition
// of the pair. A worker never holds one mutex while waiting on the other,
// so the order the two workers name the locks in cannot matter.
func (e *engine) scopedDual(id int) {
	for i := 0; i < e.iters; i++ {
		syncutil.LockBoth(&e.res.MuA, &e.res.MuB)
		a, b := e.res.A, e.res.B
		e.res.A++
		e.res.B++
		syncutil.UnlockBoth(&e.res.MuA, &e.res.MuB)
		e.trace.addOp()

		if i == 0 {
			e.trace.markFirstLock()
			e.trace.markBothLocks()
			e.log.Info("first increment", "worker", id, "strategy", ScopedDual, "a", a, "b", b)
		}
		e.idle()
	}
}

// orderedDual takes the mutexes one at a time, always A before B. Both
// workers follow the same global order, so a worker blocked on B can only
// be waiting for someone who already holds B and holds nothing the blocked
// worker owns.
func (e *engine) orderedDual(id int) {
	for i := 0; i < e.iters; i++ {
		e.res.MuA.Lock()
		if i == 0 {
			e.trace.markFirstLock()
		}
		e.res.MuB.Lock()
		a, b := e.res.A, e.res.B
		e.res.A++
		e.res.B++
		e.res.MuB.Unlock()
		e.res.MuA.Unlock()
		e.trace.addOp()

		if i == 0 {
			e.trace.markBothLocks()
			e.log.Info("first increment", "worker", id, "strategy", OrderedDual, "a", a, "b", b)
		}
		e.idle()
	}
}

// idle simulates the work a real worker would do between updates. It runs
// outside any critical section so the pause overlaps across workers
// instead of serializing them.
func (e *engine) idle() {
	if e.pause > 0 {
		time.Sleep(e.pause)
	}
}
