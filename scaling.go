package lockbench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
)

// ErrNonTerminating is returned by Sweep for a strategy built to hang.
var ErrNonTerminating = errors.New("strategy does not terminate")

// Sweep runs one terminating strategy at several worker counts and returns
// one Report per level, in the given order. Fit the reports with FitUSL to
// see how much the discipline's locks cost as workers are added: a single
// shared mutex shows up as contention, a dual-lock protocol as more of it.
//
// Every level gets fresh counters and a fresh Trace, so the additive
// property holds per report with that report's worker count. A nil or
// empty levels slice sweeps 1, 2, 4 and 8 workers.
//
// The Deadlock strategy is rejected: its first level would never finish.
func Sweep(ctx context.Context, cfg Config, levels []int) ([]Report, error) {
	if _, err := ParseStrategy(int(cfg.Strategy)); err != nil {
		return nil, err
	}
	if !cfg.Strategy.Terminates() {
		return nil, fmt.Errorf("%w: %s", ErrNonTerminating, cfg.Strategy)
	}
	if cfg.Iters < 0 {
		return nil, fmt.Errorf("iterations must be >= 0, got %d", cfg.Iters)
	}

	if len(levels) == 0 {
		levels = []int{1, 2, 4, 8}
	}
	for _, n := range levels {
		if n < 1 {
			return nil, fmt.Errorf("worker level must be >= 1, got %d", n)
		}
	}

	if cfg.MaxProcs > 0 {
		old := runtime.GOMAXPROCS(cfg.MaxProcs)
		defer runtime.GOMAXPROCS(old)
	}

	reports := make([]Report, 0, len(levels))
	for _, n := range levels {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sweep stopped before N=%d: %w", n, err)
		}

		sub := cfg
		sub.Trace = nil
		reports = append(reports, runWorkers(sub, n))
	}

	return reports, nil
}

// USLCoefficients are the Universal Scalability Law parameters fitted from
// a sweep:
//
//	C(N) = λN / (1 + α(N-1) + βN(N-1))
//
// For lock disciplines the terms have direct readings. λ is single-worker
// throughput with nobody to contend with. α is contention, time spent
// waiting on a mutex another worker holds. β is coordination overhead,
// which grows with the square of the worker count.
type USLCoefficients struct {
	Lambda   float64 // Throughput at N=1, ops/sec
	Alpha    float64 // Contention coefficient
	Beta     float64 // Coordination coefficient
	RSquared float64 // Goodness of fit, 1.0 is perfect
}

// FitUSL fits sweep reports to the Universal Scalability Law.
//
// The model linearizes to
//
//	N/C(N) = 1/λ + (α/λ)(N-1) + (β/λ)N(N-1)
//
// which is solved by least squares over the three unknowns, recovering
// λ, α, β. A fitted β below zero is a linearization artifact more often
// than genuine superlinear scaling, so the fit falls back to the
// two-parameter contention-only model in that case.
//
// Needs at least three reports at distinct worker counts.
func FitUSL(reports []Report) (USLCoefficients, error) {
	if len(reports) < 3 {
		return USLCoefficients{}, fmt.Errorf("need at least 3 sweep levels, got %d", len(reports))
	}

	var m [3][3]float64
	var v [3]float64
	for _, rep := range reports {
		if rep.Throughput == 0 {
			continue
		}

		n := float64(rep.Workers)
		y := n / rep.Throughput
		x := [3]float64{1, n - 1, n * (n - 1)}

		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				m[i][j] += x[i] * x[j]
			}
			v[i] += y * x[i]
		}
	}

	det := det3(m)
	if math.Abs(det) < 1e-10 {
		// Degenerate system, usually all levels at the same N.
		return USLCoefficients{Lambda: reports[0].Throughput, Alpha: 0.01}, nil
	}

	b := [3]float64{}
	for k := 0; k < 3; k++ {
		mk := m
		for i := 0; i < 3; i++ {
			mk[i][k] = v[i]
		}
		b[k] = det3(mk) / det
	}

	lambda := 1.0 / b[0]
	alpha := b[1] / b[0]
	beta := b[2] / b[0]

	if beta < 0 && alpha > 0 {
		lambda, alpha = fitContentionOnly(reports)
		beta = 0
	}

	coeffs := USLCoefficients{Lambda: lambda, Alpha: alpha, Beta: beta}
	coeffs.RSquared = rSquared(reports, coeffs)
	return coeffs, nil
}

// fitContentionOnly solves the two-parameter model N/C = 1/λ + (α/λ)(N-1).
func fitContentionOnly(reports []Report) (lambda, alpha float64) {
	var s0, sx, sxx, sy, sxy float64
	for _, rep := range reports {
		if rep.Throughput == 0 {
			continue
		}
		n := float64(rep.Workers)
		y := n / rep.Throughput
		x := n - 1

		s0++
		sx += x
		sxx += x * x
		sy += y
		sxy += x * y
	}

	det := s0*sxx - sx*sx
	if math.Abs(det) < 1e-10 {
		return reports[0].Throughput, 0
	}

	b0 := (sxx*sy - sx*sxy) / det
	b1 := (s0*sxy - sx*sy) / det
	return 1.0 / b0, b1 / b0
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func rSquared(reports []Report, c USLCoefficients) float64 {
	var mean float64
	for _, rep := range reports {
		mean += rep.Throughput
	}
	mean /= float64(len(reports))

	var ssRes, ssTot float64
	for _, rep := range reports {
		predicted := c.PredictThroughput(rep.Workers)
		ssRes += (rep.Throughput - predicted) * (rep.Throughput - predicted)
		ssTot += (rep.Throughput - mean) * (rep.Throughput - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// PredictThroughput estimates ops/sec at a worker count the sweep may not
// have measured.
func (c USLCoefficients) PredictThroughput(n int) float64 {
	nf := float64(n)
	return (c.Lambda * nf) / (1 + c.Alpha*(nf-1) + c.Beta*nf*(nf-1))
}

// Efficiency returns the ratio of predicted to ideal linear throughput at
// n workers. 1.0 means the locks cost nothing.
func (c USLCoefficients) Efficiency(n int) float64 {
	ideal := c.Lambda * float64(n)
	if ideal == 0 {
		return 0
	}
	return c.PredictThroughput(n) / ideal
}

// OptimalWorkers returns the worker count where the fitted curve peaks,
// beyond which adding workers reduces throughput. Zero means the fit found
// no interior peak within any realistic count.
func (c USLCoefficients) OptimalWorkers() int {
	if c.Beta <= 0 {
		return 0
	}
	if c.Alpha >= 1 {
		return 1
	}
	return int(math.Sqrt((1 - c.Alpha) / c.Beta))
}
