package lockbench

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Verdict classifies a run's progress at one observation.
type Verdict string

const (
	VerdictStarting Verdict = "STARTING" // workers not yet in their loop bodies
	VerdictRunning  Verdict = "RUNNING"  // operations still advancing
	VerdictStalled  Verdict = "STALLED"  // no progress for Grace consecutive checks
	VerdictDone     Verdict = "DONE"     // every worker completed
)

// Status is one observation of a run.
type Status struct {
	Verdict    Verdict
	Reason     string
	Operations int64
	FirstLock  int
	BothLocks  int
	Completed  int
	Timestamp  time.Time
}

// Monitor watches a Trace from outside the run and classifies its
// progress. The interesting classification is STALLED: operations stopped
// advancing while workers are still out there, which for the opposed-order
// strategy is the circular wait announcing itself.
//
// Detection is throughput-blind. A stall is only called after
// Grace consecutive checks without a completed operation, so a slow run is
// not mislabeled; it keeps posting operations, just rarely. The grace
// window also rides out the Deadlock strategy's hold phase when
// Grace×Interval exceeds the hold, which the defaults do.
type Monitor struct {
	trace   *Trace
	workers int

	// Interval is the spacing between checks in Watch.
	Interval time.Duration
	// Grace is how many consecutive no-progress checks mean a stall.
	Grace int

	lastOps int64
	still   int
	checks  int
	stalls  int
}

// NewMonitor returns a Monitor over tr expecting the standard worker pair.
func NewMonitor(tr *Trace) *Monitor {
	return &Monitor{
		trace:    tr,
		workers:  Workers,
		Interval: 100 * time.Millisecond,
		Grace:    3,
	}
}

// Check takes one observation and updates the monitor's progress memory.
// Not safe for concurrent use; Watch is the concurrent front end.
func (m *Monitor) Check() Status {
	m.checks++

	st := Status{
		Operations: m.trace.Operations(),
		FirstLock:  m.trace.FirstLock(),
		BothLocks:  m.trace.BothLocks(),
		Completed:  m.trace.Completed(),
		Timestamp:  time.Now(),
	}

	switch {
	case st.Completed >= m.workers:
		st.Verdict = VerdictDone
		st.Reason = fmt.Sprintf("all %d workers completed, %d operations", m.workers, st.Operations)
		m.still = 0

	case m.trace.Started() < m.workers:
		st.Verdict = VerdictStarting
		st.Reason = fmt.Sprintf("%d of %d workers started", m.trace.Started(), m.workers)

	case st.Operations > m.lastOps:
		st.Verdict = VerdictRunning
		st.Reason = fmt.Sprintf("operations advancing, %d so far", st.Operations)
		m.still = 0

	default:
		m.still++
		if m.still < m.Grace {
			st.Verdict = VerdictRunning
			st.Reason = fmt.Sprintf("no operations this check, %d of %d grace checks used", m.still, m.Grace)
			break
		}

		st.Verdict = VerdictStalled
		if m.still == m.Grace {
			m.stalls++
		}
		if st.FirstLock == m.workers && st.BothLocks == 0 {
			st.Reason = fmt.Sprintf(
				"no progress for %d checks, every worker holds its first lock and none its second: circular wait",
				m.still)
		} else {
			st.Reason = fmt.Sprintf("no progress for %d checks", m.still)
		}
	}

	m.lastOps = st.Operations
	return st
}

// Watch checks on every Interval until the run completes, a stall is
// called, or ctx ends. Verdict transitions are logged; the final Status is
// returned.
func (m *Monitor) Watch(ctx context.Context, log *slog.Logger) Status {
	if log == nil {
		log = slog.Default()
	}

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	var last Verdict
	for {
		select {
		case <-ctx.Done():
			return m.Check()
		case <-ticker.C:
			st := m.Check()
			if st.Verdict != last {
				switch st.Verdict {
				case VerdictStalled:
					log.Warn("run stalled", "reason", st.Reason,
						"first_lock", st.FirstLock, "both_locks", st.BothLocks)
				case VerdictDone:
					log.Info("run complete", "operations", st.Operations)
				default:
					log.Debug("run progressing",
						"verdict", string(st.Verdict), "operations", st.Operations)
				}
				last = st.Verdict
			}
			if st.Verdict == VerdictStalled || st.Verdict == VerdictDone {
				return st
			}
		}
	}
}

// GetStatistics returns monitor operational stats.
func (m *Monitor) GetStatistics() map[string]interface{} {
	return map[string]interface{}{
		"checks":          m.checks,
		"stalls_declared": m.stalls,
		"last_operations": m.lastOps,
	}
}
