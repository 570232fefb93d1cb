package symbolic

import (
	"errors"
	"fmt"
)

var ErrNoClosedForm = errors.New("no closed form")

type Equation struct{ LHS, RHS Expr }

func Eq(lhs, rhs Expr) *Equation { return &Equation{LHS: lhs, RHS: rhs} }

func (e *Equation) String() string { return e.LHS.String() + " = " + e.RHS.String() }

// Residual returns LHS - RHS.
func (e *Equation) Residual() Expr { return SubOf(e.LHS, e.RHS) }

const maxIsolateDepth = 16

// Solve rearranges eq into an explicit expression for name.
//
// The residual LHS - RHS is searched for kernels: the outermost terms that
// contain name once sums and products are looked through. Exactly one
// distinct kernel must exist and the residual must be linear in it; the
// kernel is then solved for and unwrapped (powers, ln, exp) until name is
// isolated. Anything else, such as a rate that appears both as r and inside
// (1+r)^n, fails with ErrNoClosedForm.
func Solve(eq *Equation, name string) (Expr, error) {
	return isolate(eq.LHS, eq.RHS, name, 0)
}

func isolate(lhs, rhs Expr, name string, depth int) (Expr, error) {
	if depth > maxIsolateDepth {
		return nil, fmt.Errorf("%w for %s: nesting too deep", ErrNoClosedForm, name)
	}
	residual := SubOf(lhs, rhs)
	if !residual.Has(name) {
		return nil, fmt.Errorf("%w for %s: symbol does not appear", ErrNoClosedForm, name)
	}

	ks := kernels(residual, name)
	if len(ks) != 1 {
		return nil, fmt.Errorf("%w for %s: appears in %d independent terms", ErrNoClosedForm, name, len(ks))
	}
	k := ks[0]

	u := placeholder(residual, depth)
	linear := Replace(residual, k, u)
	slope := linear.Diff(u.name)
	if slope.Has(u.name) || isNum(slope, 0) {
		return nil, fmt.Errorf("%w for %s: not linear in %s", ErrNoClosedForm, name, k)
	}
	intercept := Sub(linear, u.name, N(0))
	value := NegOf(DivOf(intercept, slope))

	return invert(k, value, name, depth)
}

// invert solves k = value for name, where k is a kernel containing name.
func invert(k, value Expr, name string, depth int) (Expr, error) {
	switch k := k.(type) {
	case *Sym:
		return value, nil
	case *Pow:
		inBase, inExp := k.base.Has(name), k.exp.Has(name)
		switch {
		case inBase && inExp:
			return nil, fmt.Errorf("%w for %s: appears in both base and exponent", ErrNoClosedForm, name)
		case inBase:
			return isolate(k.base, PowOf(value, DivOf(N(1), k.exp)), name, depth+1)
		default:
			return isolate(k.exp, DivOf(LnOf(value), LnOf(k.base)), name, depth+1)
		}
	case *Func:
		switch k.name {
		case fnLn:
			return isolate(k.arg, ExpOf(value), name, depth+1)
		case fnExp:
			return isolate(k.arg, LnOf(value), name, depth+1)
		}
	}
	return nil, fmt.Errorf("%w for %s: cannot invert %s", ErrNoClosedForm, name, k)
}

func kernels(e Expr, name string) []Expr {
	var out []Expr
	var walk func(Expr)
	walk = func(e Expr) {
		if !e.Has(name) {
			return
		}
		switch e := e.(type) {
		case *Add:
			for _, t := range e.terms {
				walk(t)
			}
		case *Mul:
			for _, f := range e.factors {
				walk(f)
			}
		default:
			for _, k := range out {
				if k.Equal(e) {
					return
				}
			}
			out = append(out, e)
		}
	}
	walk(e)
	return out
}

func placeholder(e Expr, depth int) *Sym {
	for i := depth; ; i++ {
		name := fmt.Sprintf("_k%d", i)
		if !e.Has(name) {
			return S(name)
		}
	}
}
