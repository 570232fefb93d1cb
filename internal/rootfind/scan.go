package rootfind

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultGuesses     = 1000
	DefaultLo          = 0.0
	DefaultHi          = 1.0
	DefaultMaxIter     = 50
	DefaultTolerance   = 1e-10
	DefaultResidualTol = 1e-6

	// roots closer than this (relative) are reported once
	dedupTolerance = 1e-9
	minChunk       = 64
)

type Config struct {
	Guesses     int
	Lo, Hi      float64
	MaxIter     int
	Tolerance   float64
	ResidualTol float64
	Workers     int
}

func DefaultConfig() Config {
	return Config{
		Guesses:     DefaultGuesses,
		Lo:          DefaultLo,
		Hi:          DefaultHi,
		MaxIter:     DefaultMaxIter,
		Tolerance:   DefaultTolerance,
		ResidualTol: DefaultResidualTol,
		Workers:     runtime.GOMAXPROCS(0),
	}
}

func (c Config) validate() error {
	if c.Guesses <= 0 {
		return fmt.Errorf("guesses must be positive, got %d", c.Guesses)
	}
	if !(c.Hi > c.Lo) {
		return fmt.Errorf("empty scan domain [%g, %g)", c.Lo, c.Hi)
	}
	if c.MaxIter <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIter)
	}
	if c.Tolerance <= 0 || c.ResidualTol <= 0 {
		return fmt.Errorf("tolerances must be positive")
	}
	return nil
}

// Guess returns the i-th starting point: lo + (hi-lo)*i/guesses.
func (c Config) Guess(i int) float64 {
	return c.Lo + (c.Hi-c.Lo)*float64(i)/float64(c.Guesses)
}

type Result struct {
	// Root is the first convergent root in ascending guess order.
	Root float64
	// Guess is the starting point Root was reached from.
	Guess float64
	// Roots holds the distinct roots found, ordered by first guess.
	Roots    []float64
	Failed   int
	Attempts []Attempt
}

// Scan runs Newton from every guess of cfg and returns the first root in
// guess order. Guesses are evaluated in parallel chunks, but each outcome
// lands in its own slot, so the choice does not depend on scheduling.
// Failing guesses are skipped; if all fail the error wraps ErrNoRootFound.
func Scan(ctx context.Context, f, df Func, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	attempts := make([]Attempt, cfg.Guesses)
	g, ctx := errgroup.WithContext(ctx)
	for _, span := range chunks(cfg.Guesses, cfg.Workers) {
		start, end := span[0], span[1]
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				attempts[i] = Newton(f, df, cfg.Guess(i), cfg.MaxIter, cfg.Tolerance, cfg.ResidualTol)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Root: math.NaN(), Guess: math.NaN(), Attempts: attempts}
	for _, a := range attempts {
		if !a.Converged() {
			res.Failed++
			continue
		}
		if len(res.Roots) == 0 {
			res.Root, res.Guess = a.Root, a.Guess
		}
		if !containsRoot(res.Roots, a.Root) {
			res.Roots = append(res.Roots, a.Root)
		}
	}
	if len(res.Roots) == 0 {
		return res, fmt.Errorf("%w: all %d guesses in [%g, %g) failed", ErrNoRootFound, cfg.Guesses, cfg.Lo, cfg.Hi)
	}
	return res, nil
}

func containsRoot(roots []float64, x float64) bool {
	for _, r := range roots {
		if math.Abs(r-x) <= dedupTolerance*(1+math.Abs(r)) {
			return true
		}
	}
	return false
}

// chunks splits [0, n) into at most workers contiguous spans of at least
// minChunk items.
func chunks(n, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	size := (n + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
