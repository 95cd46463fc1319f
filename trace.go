package lockbench

import "sync/atomic"

// Trace counts how far each worker got through a run. The counters are
// milestones, not operation totals: a worker bumps each one at most once,
// so with two workers every counter lands in {0, 1, 2}.
//
// The point of a Trace is observing a run that never returns. A caller
// that wires one into Config can start Run in a goroutine, wait, and then
// read the counters while the workers are still parked: the deadlocking
// strategy shows both workers past their first lock and none past the
// second, which is the circular wait in numbers.
//
// All methods are safe for concurrent use.
type Trace struct {
	started   atomic.Int32
	firstLock atomic.Int32
	bothLocks atomic.Int32
	completed atomic.Int32

	ops atomic.Int64
}

// NewTrace returns a Trace with all milestones at zero.
func NewTrace() *Trace {
	return &Trace{}
}

// Started reports how many workers entered their loop body.
func (t *Trace) Started() int { return int(t.started.Load()) }

// FirstLock reports how many workers acquired their first mutex at least once.
func (t *Trace) FirstLock() int { return int(t.firstLock.Load()) }

// BothLocks reports how many workers held both mutexes at the same time at
// least once.
func (t *Trace) BothLocks() int { return int(t.bothLocks.Load()) }

// Completed reports how many workers ran their full iteration count and
// returned.
func (t *Trace) Completed() int { return int(t.completed.Load()) }

// Operations reports the iterations completed so far across all workers.
// Unlike the milestones this keeps counting, which is what lets an
// observer tell a slow run from a stuck one.
func (t *Trace) Operations() int64 { return t.ops.Load() }

func (t *Trace) markStarted()   { t.started.Add(1) }
func (t *Trace) markFirstLock() { t.firstLock.Add(1) }
func (t *Trace) markBothLocks() { t.bothLocks.Add(1) }
func (t *Trace) markCompleted() { t.completed.Add(1) }
func (t *Trace) addOp()         { t.ops.Add(1) }
