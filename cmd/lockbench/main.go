package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/alexshd/lockbench"
)

// parseCount returns the numeric value of s, or def when s does not parse.
// A typo on the command line runs the defaults instead of refusing to run.
func parseCount(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// parseLevels turns a comma-separated worker-count list into ints.
func parseLevels(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	levels := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad worker level %q", p)
		}
		levels = append(levels, n)
	}
	return levels, nil
}

func newCommand() *cobra.Command {
	var (
		strategyFlag string
		itersFlag    string
		sweepFlag    string
		compare      bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "lockbench",
		Short: "Demonstrate and time two-lock concurrency disciplines",
		Long: `lockbench runs two workers against a pair of lock-guarded counters
using a selectable locking discipline, and reports the final counter
values and the elapsed wall time in milliseconds.

Strategies:
  1  safe-single   one lock, one counter
  2  deadlock      opposed acquisition order, hangs forever
  3  scoped-dual   both locks acquired as an atomic pair
  4  ordered-dual  both locks, always A before B

Strategy 2 is the point of the exercise: it never finishes. A monitor
logs when the circular wait sets in; interrupt the process when done
watching.

With --sweep the chosen strategy runs at several worker counts and the
results are fitted to the Universal Scalability Law, putting a number
on what the discipline's locks cost.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05",
			}))
			slog.SetDefault(logger)

			cfg := lockbench.DefaultConfig()
			cfg.Iters = parseCount(itersFlag, cfg.Iters)
			cfg.Logger = logger

			out := cmd.OutOrStdout()

			if compare {
				reps, err := lockbench.Compare(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				printComparison(out, reps)
				return nil
			}

			selector := parseCount(strategyFlag, int(lockbench.SafeSingle))
			strategy, err := lockbench.ParseStrategy(selector)
			if err != nil {
				return err
			}
			cfg.Strategy = strategy

			if sweepFlag != "" {
				levels, err := parseLevels(sweepFlag)
				if err != nil {
					return err
				}
				reps, err := lockbench.Sweep(cmd.Context(), cfg, levels)
				if err != nil {
					return err
				}
				printSweep(out, reps)
				return nil
			}

			if !strategy.Terminates() {
				tr := lockbench.NewTrace()
				cfg.Trace = tr
				go lockbench.NewMonitor(tr).Watch(cmd.Context(), logger)
			}

			rep, err := lockbench.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printReport(out, rep)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&strategyFlag, "strategy", "s", "1", "locking strategy selector, 1-4")
	flags.StringVarP(&itersFlag, "iters", "n", "1000000", "iterations per worker")
	flags.StringVar(&sweepFlag, "sweep", "", "comma-separated worker counts to sweep, e.g. 1,2,4,8")
	flags.BoolVarP(&compare, "compare", "c", false, "run all terminating strategies and compare")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	return cmd
}

func printReport(w io.Writer, rep lockbench.Report) {
	fmt.Fprintf(w, "strategy:   %s\n", rep.Strategy)
	fmt.Fprintf(w, "workers:    %d\n", rep.Workers)
	fmt.Fprintf(w, "operations: %d\n", rep.Operations)
	fmt.Fprintf(w, "elapsed:    %d ms\n", rep.Elapsed.Milliseconds())
	fmt.Fprintf(w, "throughput: %.2f ops/sec\n", rep.Throughput)
	fmt.Fprintf(w, "counters:   a=%d b=%d\n", rep.FinalA, rep.FinalB)
}

func printComparison(w io.Writer, reps []lockbench.Report) {
	fmt.Fprintf(w, "%-12s %10s %8s %14s %8s %8s\n", "strategy", "ops", "ms", "ops/sec", "a", "b")
	for _, rep := range reps {
		fmt.Fprintf(w, "%-12s %10d %8d %14.2f %8d %8d\n",
			rep.Strategy, rep.Operations, rep.Elapsed.Milliseconds(),
			rep.Throughput, rep.FinalA, rep.FinalB)
	}
}

func printSweep(w io.Writer, reps []lockbench.Report) {
	fmt.Fprintf(w, "%-8s %12s %8s %14s\n", "workers", "ops", "ms", "ops/sec")
	for _, rep := range reps {
		fmt.Fprintf(w, "%-8d %12d %8d %14.2f\n",
			rep.Workers, rep.Operations, rep.Elapsed.Milliseconds(), rep.Throughput)
	}

	coeffs, err := lockbench.FitUSL(reps)
	if err != nil {
		return // too few levels to fit, the table stands alone
	}

	fmt.Fprintf(w, "\nlambda=%.0f ops/sec  alpha=%.4f  beta=%.6f  r2=%.3f\n",
		coeffs.Lambda, coeffs.Alpha, coeffs.Beta, coeffs.RSquared)
	if n := coeffs.OptimalWorkers(); n > 0 {
		fmt.Fprintf(w, "throughput peaks near %d workers\n", n)
	}
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
