// Package lockbench demonstrates and measures two-lock concurrency disciplines.
//
// # Overview
//
// lockbench runs two workers against a pair of counters, A and B, each
// guarded by its own mutex. The interesting variable is not the data but
// the discipline: which locks a worker takes, and in what order. One
// discipline is deliberately wrong and hangs forever; the others finish
// and can be timed and compared.
//
// # The Strategies
//
// Four disciplines, selected by number:
//
//   - 1 SafeSingle:  lock A, increment A, unlock A. One lock, no ordering question.
//   - 2 Deadlock:    worker 1 takes A then B, worker 2 takes B then A, each
//     holding its first mutex across a delay. Circular wait, by construction.
//   - 3 ScopedDual:  acquire A and B as an atomic pair, update both counters.
//   - 4 OrderedDual: acquire A then B, in that order, for every worker.
//
// Strategy 2 is the negative control. A run with it never returns, and
// that non-return is the observable result.
//
// # Quick Start
//
// Run one discipline and inspect the outcome:
//
//	cfg := lockbench.DefaultConfig()
//	cfg.Strategy = lockbench.OrderedDual
//	cfg.Iters = 1000
//
//	rep, err := lockbench.Run(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("a=%d b=%d in %dms\n", rep.FinalA, rep.FinalB, rep.Elapsed.Milliseconds())
//
// With two workers and N iterations each, every counter a discipline
// touches ends at its initial value plus 2N. The defaults start A at 100
// and B at 200, so OrderedDual with N=500 lands on exactly 1100 and 1200.
//
// # Observing The Deadlock
//
// Run never returns for the Deadlock strategy, so observe it from outside
// through a Trace:
//
//	tr := lockbench.NewTrace()
//	cfg := lockbench.DefaultConfig()
//	cfg.Strategy = lockbench.Deadlock
//	cfg.Trace = tr
//
//	go lockbench.Run(ctx, cfg)
//	time.Sleep(500 * time.Millisecond)
//
//	// Both workers are past their first lock, neither got the second:
//	fmt.Println(tr.FirstLock(), tr.BothLocks()) // 2 0
//
// The same counters distinguish "still working" from "stuck": a worker
// making progress keeps completing iterations, a deadlocked one posts its
// first-lock milestone and then nothing, forever.
//
// # Comparing Disciplines
//
// Compare runs the three terminating strategies back to back under the
// same starting conditions:
//
//	reps, err := lockbench.Compare(ctx, cfg)
//	for _, rep := range reps {
//	    fmt.Printf("%-12s %8.0f ops/sec\n", rep.Strategy, rep.Throughput)
//	}
//
// # Scaling Sweeps
//
// Sweep reruns one terminating strategy at increasing worker counts and
// FitUSL fits the measured throughputs to the Universal Scalability Law:
//
//	C(N) = λN / (1 + α(N-1) + βN(N-1))
//
// For lock disciplines the coefficients read directly: α is contention
// (time spent waiting on a mutex someone else holds) and β is
// coordination overhead. A discipline that takes two locks per iteration
// fits with a visibly larger α than one that takes one:
//
//	reps, err := lockbench.Sweep(ctx, cfg, []int{1, 2, 4, 8})
//	coeffs, err := lockbench.FitUSL(reps)
//	fmt.Printf("contention α=%.3f, peak at %d workers\n",
//	    coeffs.Alpha, coeffs.OptimalWorkers())
//
// Sweep refuses the Deadlock strategy up front with ErrNonTerminating,
// since its first level would never finish.
//
// # Watching For Stalls
//
// Monitor turns the Trace counters into a verdict. It polls, compares the
// operation count against the previous check, and after a grace window of
// consecutive no-progress checks declares the run stalled:
//
//	mon := lockbench.NewMonitor(tr)
//	st := mon.Watch(ctx, slog.Default())
//	fmt.Println(st.Verdict, st.Reason) // STALLED ...: circular wait
//
// The grace window keeps a merely slow run from being mislabeled, and the
// monitor never intervenes; detection without recovery is the point, the
// broken strategy is supposed to be seen hanging.
//
// # Testing
//
// Use assertions to validate what a discipline promises:
//
//	func TestOrderedDual(t *testing.T) {
//	    cfg := lockbench.DefaultConfig()
//	    cfg.Strategy = lockbench.OrderedDual
//	    cfg.Iters = 500
//	    cfg.Pause = 0
//
//	    rep, err := lockbench.Run(context.Background(), cfg)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//
//	    // Final counters are exactly initial + 2N, no lost updates
//	    lockbench.AssertAdditive(t, cfg, rep)
//	}
//
// AssertDeadlocked does the inverse: given a Trace from a parked run, it
// checks the milestone signature of a circular wait.
//
// # Deadlock Detection Builds
//
// The default build uses plain sync.Mutex, so the Deadlock strategy hangs
// silently, exactly like production code would. Building with
//
//	go build -tags deadlock
//
// swaps in instrumented mutexes (github.com/sasha-s/go-deadlock) that
// print both goroutines' stacks once an acquisition waits too long. Useful
// while developing, never what you measure.
//
// # Philosophy
//
// A data race corrupts numbers. A deadlock stops time.
//
// Traditional lock tutorials answer: "how do I protect this counter?"
// lockbench answers: "what happens when two critical sections overlap?"
//
//   - Is one lock enough? (SafeSingle: yes, for one resource)
//   - Can lock order be left to chance? (Deadlock: no, and here is the hang)
//   - Can the runtime pick the order? (ScopedDual: all-or-nothing acquisition)
//   - Can a convention pick the order? (OrderedDual: a global A-before-B rule)
//
// The comparison makes the cost visible: the safe dual-lock disciplines
// pay for their safety in throughput, and the broken one pays in eternity.
//
// # See Also
//
//   - cmd/lockbench - command line front end
//   - tools/lint-lock-order - static check for inconsistent acquisition order
//   - syncutil - the mutex wrappers and the pair-acquisition primitive
//   - examples/deadlock-watch - runnable Monitor-over-Deadlock session
package lockbench
