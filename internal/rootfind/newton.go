// Package rootfind locates a root of a single-variable residual by running
// Newton's method from a dense grid of starting points.
package rootfind

import (
	"errors"
	"math"
)

var (
	ErrNoRootFound = errors.New("no root found")

	errDiverged      = errors.New("diverged")
	errFlatSlope     = errors.New("derivative vanished")
	errNotConverging = errors.New("did not converge")
)

// Func is a residual or its derivative evaluated at x.
type Func func(x float64) float64

// Attempt records what happened for one starting guess.
type Attempt struct {
	Guess      float64
	Root       float64
	Iterations int
	Err        error
}

func (a Attempt) Converged() bool { return a.Err == nil }

// Newton iterates x <- x - f(x)/df(x) from guess for at most maxIter steps.
// It converges when the step falls below tol relative to x and the residual
// at the new point is within residualTol.
func Newton(f, df Func, guess float64, maxIter int, tol, residualTol float64) Attempt {
	a := Attempt{Guess: guess, Root: math.NaN()}
	x := guess

	for iter := 0; iter < maxIter; iter++ {
		a.Iterations = iter + 1

		fx := f(x)
		if !finite(fx) {
			a.Err = errDiverged
			return a
		}
		slope := df(x)
		if !finite(slope) {
			a.Err = errDiverged
			return a
		}
		if slope == 0 {
			a.Err = errFlatSlope
			return a
		}

		next := x - fx/slope
		if !finite(next) {
			a.Err = errDiverged
			return a
		}
		if math.Abs(next-x) <= tol*(1+math.Abs(x)) {
			if r := f(next); finite(r) && math.Abs(r) <= residualTol {
				a.Root = next
				return a
			}
		}
		x = next
	}

	a.Err = errNotConverging
	return a
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
