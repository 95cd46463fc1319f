package lockbench

import "testing"

// expectedFinals returns the counter values a terminating strategy must
// produce. With workers doing Iters iterations each, every touched counter
// moves by exactly workers*Iters when no update is lost.
func expectedFinals(cfg Config, workers int) (a, b int, ok bool) {
	n := workers * cfg.Iters
	switch cfg.Strategy {
	case SafeSingle:
		return cfg.InitialA + n, cfg.InitialB, true
	case ScopedDual, OrderedDual:
		return cfg.InitialA + n, cfg.InitialB + n, true
	}
	return 0, 0, false
}

// AssertAdditive verifies the run lost no updates.
//
// Every increment happened under a lock, so the final counters are fully
// determined by the starting values and the iteration count. Any deviation
// means two workers raced on a counter.
//
// Arithmetic property:
//
//	final = initial + workers·iters, for each counter the strategy touches
func AssertAdditive(t *testing.T, cfg Config, rep Report) {
	t.Helper()

	wantA, wantB, ok := expectedFinals(cfg, rep.Workers)
	if !ok {
		t.Fatalf("strategy %s has no additive contract to assert", cfg.Strategy)
	}

	if rep.FinalA != wantA {
		t.Errorf("Counter A lost updates: got %d, want %d\n"+
			"An increment raced with another worker's. Check the locking discipline.",
			rep.FinalA, wantA)
	}
	if rep.FinalB != wantB {
		t.Errorf("Counter B lost updates: got %d, want %d\n"+
			"An increment raced with another worker's. Check the locking discipline.",
			rep.FinalB, wantB)
	}

	t.Logf("✓ Additive: a=%d b=%d after %d iterations × %d workers",
		rep.FinalA, rep.FinalB, cfg.Iters, rep.Workers)
}

// AssertOperations verifies every scheduled iteration completed.
func AssertOperations(t *testing.T, cfg Config, rep Report) {
	t.Helper()

	want := int64(rep.Workers * cfg.Iters)
	if rep.Operations != want {
		t.Errorf("Operations incomplete: got %d, want %d", rep.Operations, want)
	}

	t.Logf("✓ Operations: %d completed in %s (%.0f ops/sec)",
		rep.Operations, rep.Elapsed, rep.Throughput)
}

// AssertCompleted verifies every worker that started also finished.
func AssertCompleted(t *testing.T, tr *Trace) {
	t.Helper()

	if got := tr.Started(); got != Workers {
		t.Errorf("Workers started: got %d, want %d", got, Workers)
	}
	if got := tr.Completed(); got != Workers {
		t.Errorf("Workers completed: got %d, want %d", got, Workers)
	}

	t.Logf("✓ Completed: %d/%d workers", tr.Completed(), tr.Started())
}

// AssertDeadlocked verifies a Trace carries the milestone signature of a
// circular wait: both workers past their first lock, neither ever holding
// both, nobody finished.
//
// The Trace is read while the run is still parked, so call this from the
// observing goroutine, not from inside Run.
func AssertDeadlocked(t *testing.T, tr *Trace) {
	t.Helper()

	if got := tr.Started(); got != Workers {
		t.Errorf("Workers started: got %d, want %d", got, Workers)
	}
	if got := tr.FirstLock(); got != Workers {
		t.Errorf("First locks held: got %d, want %d\n"+
			"A worker never reached its first mutex. That is a stall, not a circular wait.",
			got, Workers)
	}
	if got := tr.BothLocks(); got != 0 {
		t.Errorf("Both locks held by %d workers, want 0\n"+
			"A worker acquired its second mutex. The opposed hold windows did not overlap.",
			got)
	}
	if got := tr.Completed(); got != 0 {
		t.Errorf("Workers completed: got %d, want 0", got)
	}

	t.Logf("✓ Deadlocked: %d workers parked on their second lock", tr.FirstLock())
}

// AssertRun bundles the post-run assertions for a terminating strategy.
func AssertRun(t *testing.T, cfg Config, rep Report) {
	t.Helper()

	t.Run("Additive", func(t *testing.T) {
		AssertAdditive(t, cfg, rep)
	})

	t.Run("Operations", func(t *testing.T) {
		AssertOperations(t, cfg, rep)
	})
}

// PrintComparison outputs a side-by-side table of reports to the test log.
func PrintComparison(t *testing.T, reps []Report) {
	t.Helper()

	t.Logf("\n=== Strategy Comparison ===")
	t.Logf("  %-12s %10s %8s %14s %8s %8s", "strategy", "ops", "ms", "ops/sec", "a", "b")
	t.Logf("  %-12s %10s %8s %14s %8s %8s", "--------", "---", "--", "-------", "-", "-")
	for _, rep := range reps {
		t.Logf("  %-12s %10d %8d %14.2f %8d %8d",
			rep.Strategy, rep.Operations, rep.Elapsed.Milliseconds(),
			rep.Throughput, rep.FinalA, rep.FinalB)
	}
}
