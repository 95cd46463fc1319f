package lockbench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Workers is the number of concurrent workers every run spawns. Two is the
// smallest population that can form a circular wait.
const Workers = 2

// Config controls a single run.
type Config struct {
	Strategy Strategy      // Locking discipline to execute
	Iters    int           // Iterations per worker (0 is a valid no-op run)
	InitialA int           // Starting value of counter A
	InitialB int           // Starting value of counter B
	Pause    time.Duration // Simulated work between iterations, outside any lock
	Hold     time.Duration // How long Deadlock workers sit on their first mutex
	MaxProcs int           // GOMAXPROCS cap during Sweep (0 = runtime default)
	Logger   *slog.Logger  // Defaults to slog.Default()
	Trace    *Trace        // Optional milestone counters, allocated if nil
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Strategy: SafeSingle,
		Iters:    1_000_000,
		InitialA: 100,
		InitialB: 200,
		Pause:    10 * time.Microsecond,
		Hold:     100 * time.Millisecond,
	}
}

// Report contains measurements from a single run.
type Report struct {
	Strategy   Strategy      // Discipline that produced the numbers
	Workers    int           // Concurrent workers (2 for Run, the level for Sweep)
	Iters      int           // Iterations per worker
	Operations int64         // Iterations completed across all workers
	Elapsed    time.Duration // Wall time from spawn to last worker exit
	Throughput float64       // Operations per second
	FinalA     int           // Counter A after the run
	FinalB     int           // Counter B after the run
}

// Run executes one strategy with two workers and reports what happened.
//
// Validation failures and an already-canceled ctx return before any worker
// is spawned. Past that point the workers run to completion on their own;
// ctx does not interrupt them. With the Deadlock strategy Run therefore
// never returns, and such a run is observed through Config.Trace from
// another goroutine instead.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if _, err := ParseStrategy(int(cfg.Strategy)); err != nil {
		return Report{}, err
	}
	if cfg.Iters < 0 {
		return Report{}, fmt.Errorf("iterations must be >= 0, got %d", cfg.Iters)
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	return runWorkers(cfg, Workers), nil
}

// runWorkers spawns n workers over fresh counters and waits them out.
// Callers validate; this only executes.
func runWorkers(cfg Config, n int) Report {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	trace := cfg.Trace
	if trace == nil {
		trace = NewTrace()
	}

	e := &engine{
		res:   NewResources(cfg.InitialA, cfg.InitialB),
		trace: trace,
		log:   log,
		iters: cfg.Iters,
		pause: cfg.Pause,
		hold:  cfg.Hold,
	}

	if !cfg.Strategy.Terminates() {
		log.Warn("strategy is built to hang, expecting no result",
			"strategy", cfg.Strategy, "hold", cfg.Hold)
	}

	start := time.Now()

	var eg errgroup.Group
	for id := 1; id <= n; id++ {
		id := id
		eg.Go(func() error {
			e.worker(cfg.Strategy, id)
			return nil
		})
	}
	_ = eg.Wait() // workers return no errors, Wait is for the join
	elapsed := time.Since(start)

	a, b := e.res.Snapshot()
	ops := trace.Operations()

	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(ops) / elapsed.Seconds()
	}

	return Report{
		Strategy:   cfg.Strategy,
		Workers:    n,
		Iters:      cfg.Iters,
		Operations: ops,
		Elapsed:    elapsed,
		Throughput: throughput,
		FinalA:     a,
		FinalB:     b,
	}
}

// Compare runs every terminating strategy under the same starting
// conditions and returns one Report per strategy, in selector order.
// Deadlock is excluded: its report would never arrive. Each strategy gets
// fresh counters and a fresh Trace.
func Compare(ctx context.Context, cfg Config) ([]Report, error) {
	reports := make([]Report, 0, 3)

	for _, s := range []Strategy{SafeSingle, ScopedDual, OrderedDual} {
		sub := cfg
		sub.Strategy = s
		sub.Trace = nil

		rep, err := Run(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("compare failed at %s: %w", s, err)
		}
		reports = append(reports, rep)
	}

	return reports, nil
}
