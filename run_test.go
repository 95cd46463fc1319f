package lockbench

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// testConfig returns a Config sized for tests: no simulated work between
// iterations and logs discarded.
func testConfig(s Strategy, iters int) Config {
	cfg := DefaultConfig()
	cfg.Strategy = s
	cfg.Iters = iters
	cfg.Pause = 0
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

// waitTrace polls until cond is true or the deadline passes.
func waitTrace(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for trace milestone")
}

// TestDefaultConfig verifies the published defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Strategy != SafeSingle {
		t.Errorf("Default strategy: got %v, want %v", cfg.Strategy, SafeSingle)
	}
	if cfg.Iters != 1_000_000 {
		t.Errorf("Default iterations: got %d, want 1000000", cfg.Iters)
	}
	if cfg.InitialA != 100 || cfg.InitialB != 200 {
		t.Errorf("Default counters: got %d/%d, want 100/200", cfg.InitialA, cfg.InitialB)
	}
}

// TestRun_SafeSingle verifies the single-lock discipline moves only A.
func TestRun_SafeSingle(t *testing.T) {
	tr := NewTrace()
	cfg := testConfig(SafeSingle, 1000)
	cfg.Trace = tr

	rep, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	AssertRun(t, cfg, rep)
	AssertCompleted(t, tr)

	if rep.FinalB != cfg.InitialB {
		t.Errorf("Counter B moved: got %d, want untouched %d", rep.FinalB, cfg.InitialB)
	}
	if got := tr.BothLocks(); got != 0 {
		t.Errorf("BothLocks: got %d, want 0 for a single-lock strategy", got)
	}
}

// TestRun_ScopedDual verifies the pair-acquisition discipline: starting
// from 100/200 with 1000 iterations per worker, both counters gain exactly
// 2000.
func TestRun_ScopedDual(t *testing.T) {
	tr := NewTrace()
	cfg := testConfig(ScopedDual, 1000)
	cfg.Trace = tr

	rep, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if rep.FinalA != 2100 || rep.FinalB != 2200 {
		t.Errorf("Final counters: got %d/%d, want 2100/2200", rep.FinalA, rep.FinalB)
	}

	AssertOperations(t, cfg, rep)
	AssertCompleted(t, tr)

	if got := tr.BothLocks(); got != Workers {
		t.Errorf("BothLocks: got %d, want %d", got, Workers)
	}
}

// TestRun_OrderedDual verifies the fixed-order discipline: starting from
// 100/200 with 500 iterations per worker, the counters land on 1100/1200.
func TestRun_OrderedDual(t *testing.T) {
	tr := NewTrace()
	cfg := testConfig(OrderedDual, 500)
	cfg.Trace = tr

	rep, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if rep.FinalA != 1100 || rep.FinalB != 1200 {
		t.Errorf("Final counters: got %d/%d, want 1100/1200", rep.FinalA, rep.FinalB)
	}

	AssertRun(t, cfg, rep)
	AssertCompleted(t, tr)
}

// TestRun_ZeroIterations verifies N=0 is a valid run that touches nothing.
func TestRun_ZeroIterations(t *testing.T) {
	tr := NewTrace()
	cfg := testConfig(OrderedDual, 0)
	cfg.Trace = tr

	rep, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if rep.FinalA != cfg.InitialA || rep.FinalB != cfg.InitialB {
		t.Errorf("Counters moved on a zero-iteration run: got %d/%d", rep.FinalA, rep.FinalB)
	}
	if rep.Operations != 0 {
		t.Errorf("Operations: got %d, want 0", rep.Operations)
	}

	AssertCompleted(t, tr)

	if got := tr.FirstLock(); got != 0 {
		t.Errorf("FirstLock: got %d, want 0 when no iteration ran", got)
	}
}

// TestRun_UnknownStrategy verifies rejection happens before any worker spawns.
func TestRun_UnknownStrategy(t *testing.T) {
	for _, s := range []Strategy{0, 5} {
		tr := NewTrace()
		cfg := testConfig(s, 10)
		cfg.Trace = tr

		_, err := Run(context.Background(), cfg)
		if !errors.Is(err, ErrUnknownStrategy) {
			t.Errorf("Run(strategy=%d) error = %v, want ErrUnknownStrategy", int(s), err)
		}
		if tr.Started() != 0 {
			t.Errorf("Workers spawned for unknown strategy %d", int(s))
		}
	}
}

// TestRun_NegativeIterations verifies a negative count is an error, not a no-op.
func TestRun_NegativeIterations(t *testing.T) {
	cfg := testConfig(SafeSingle, -1)

	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("Run accepted a negative iteration count")
	}
}

// TestRun_CanceledContext verifies an already-canceled ctx stops the run
// before it starts.
func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := NewTrace()
	cfg := testConfig(SafeSingle, 10)
	cfg.Trace = tr

	_, err := Run(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if tr.Started() != 0 {
		t.Error("Workers spawned despite canceled context")
	}
}

// TestRun_Deadlock verifies the negative control: both workers pass their
// first lock, neither reaches the second, and Run never returns. The two
// parked workers outlive the test; the process reaps them.
func TestRun_Deadlock(t *testing.T) {
	tr := NewTrace()
	cfg := testConfig(Deadlock, 1)
	cfg.Hold = 50 * time.Millisecond
	cfg.Trace = tr

	done := make(chan struct{})
	go func() {
		_, _ = Run(context.Background(), cfg)
		close(done)
	}()

	waitTrace(t, func() bool { return tr.FirstLock() == Workers })

	// Let both hold windows expire so each worker has reached for its
	// second mutex.
	time.Sleep(cfg.Hold + 200*time.Millisecond)

	AssertDeadlocked(t, tr)

	select {
	case <-done:
		t.Fatal("Run returned from a deadlocked strategy")
	default:
	}
}

// TestCompare verifies the three terminating strategies run under the same
// conditions and all hold the additive property.
func TestCompare(t *testing.T) {
	cfg := testConfig(SafeSingle, 250)

	reps, err := Compare(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if len(reps) != 3 {
		t.Fatalf("Expected 3 reports, got %d", len(reps))
	}

	wantOrder := []Strategy{SafeSingle, ScopedDual, OrderedDual}
	for i, rep := range reps {
		if rep.Strategy != wantOrder[i] {
			t.Errorf("Report %d: got %v, want %v", i, rep.Strategy, wantOrder[i])
		}

		repCfg := cfg
		repCfg.Strategy = rep.Strategy
		AssertAdditive(t, repCfg, rep)
	}

	PrintComparison(t, reps)
}

// TestCompare_CanceledContext verifies cancellation between runs surfaces
// as an error.
func TestCompare_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Compare(ctx, testConfig(SafeSingle, 10)); err == nil {
		t.Fatal("Compare ignored a canceled context")
	}
}

func benchStrategy(b *testing.B, s Strategy) {
	cfg := testConfig(s, b.N)

	b.ResetTimer()
	rep, err := Run(context.Background(), cfg)
	if err != nil {
		b.Fatalf("Run failed: %v", err)
	}
	b.StopTimer()

	if want := int64(Workers * b.N); rep.Operations != want {
		b.Fatalf("Operations: got %d, want %d", rep.Operations, want)
	}
}

func BenchmarkSafeSingle(b *testing.B)  { benchStrategy(b, SafeSingle) }
func BenchmarkScopedDual(b *testing.B)  { benchStrategy(b, ScopedDual) }
func BenchmarkOrderedDual(b *testing.B) { benchStrategy(b, OrderedDual) }
