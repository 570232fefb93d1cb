package formula

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/finsolve/internal/symbolic"
)

var ErrUnsolvableVariable = errors.New("unsolvable variable")

// Kind is how a variable of a family is computed, decided once at
// derivation time.
type Kind int

const (
	Unsolvable Kind = iota
	Solved
	Numeric
)

func (k Kind) String() string {
	switch k {
	case Solved:
		return "closed-form"
	case Numeric:
		return "numeric"
	default:
		return "unsolvable"
	}
}

// Solver computes one variable of a family from the others.
type Solver struct {
	Var  string
	Kind Kind
	// Args are the other variables in canonical order; Eval and Bind take
	// their values in this order.
	Args Symbols
	// Equation is Var = closed form for Solved, the family's defining
	// equation otherwise.
	Equation *symbolic.Equation
	// Domain is the scan interval for Numeric solvers.
	Domain Domain
	// Reason is why no closed form was found.
	Reason error

	family   string
	pos      int
	fn       func([]float64) float64
	residual func([]float64) float64
	slope    func([]float64) float64
}

// Eval runs a closed-form solver.
func (s *Solver) Eval(args []float64) (float64, error) {
	switch s.Kind {
	case Unsolvable:
		return 0, s.unsolvable()
	case Numeric:
		return 0, fmt.Errorf("%s in %s needs a numeric scan", s.Var, s.family)
	}
	if len(args) != len(s.Args) {
		return 0, fmt.Errorf("%s in %s: expected %d arguments, got %d", s.Var, s.family, len(s.Args), len(args))
	}
	return s.fn(args), nil
}

// Bind fixes the known values (in Args order) and returns the residual of
// the defining equation and its slope as functions of Var alone. It works
// for every kind; Numeric solvers scan it for a root.
func (s *Solver) Bind(args []float64) (f, df func(x float64) float64, err error) {
	if len(args) != len(s.Args) {
		return nil, nil, fmt.Errorf("%s in %s: expected %d arguments, got %d", s.Var, s.family, len(s.Args), len(args))
	}
	known := append([]float64(nil), args...)

	// each call builds its own slice; the scan runs these concurrently
	at := func(x float64) []float64 {
		full := make([]float64, 0, len(known)+1)
		full = append(full, known[:s.pos]...)
		full = append(full, x)
		return append(full, known[s.pos:]...)
	}
	f = func(x float64) float64 { return s.residual(at(x)) }
	df = func(x float64) float64 { return s.slope(at(x)) }
	return f, df, nil
}

func (s *Solver) unsolvable() error {
	if s.Reason != nil {
		return fmt.Errorf("%w: %s in %s: %v", ErrUnsolvableVariable, s.Var, s.family, s.Reason)
	}
	return fmt.Errorf("%w: %s in %s", ErrUnsolvableVariable, s.Var, s.family)
}

// SolverSet holds one Solver per variable of a family.
type SolverSet struct {
	Family  *Family
	solvers map[string]*Solver
}

func (s *SolverSet) Solver(name string) (*Solver, bool) {
	sv, ok := s.solvers[name]
	return sv, ok
}

// Solvers returns the solvers in canonical variable order.
func (s *SolverSet) Solvers() []*Solver {
	out := make([]*Solver, 0, len(s.Family.Vars))
	for _, v := range s.Family.Vars {
		out = append(out, s.solvers[v])
	}
	return out
}

// Derive isolates every variable of f, the target included. Variables with
// no closed form become Numeric when f declares a fallback domain for them
// and Unsolvable otherwise; an Unsolvable variable f did not declare as such
// is an error.
func Derive(f *Family, log *logrus.Logger) (*SolverSet, error) {
	if log == nil {
		log = discard()
	}
	eq := f.Equation()
	residual := eq.Residual()
	entry := log.WithField("family", f.Name)

	full, err := symbolic.Compile(residual, f.Vars)
	if err != nil {
		return nil, fmt.Errorf("family %s: %w", f.Name, err)
	}

	set := &SolverSet{Family: f, solvers: make(map[string]*Solver, len(f.Vars))}
	for _, v := range f.Vars {
		slope, err := symbolic.Compile(residual.Diff(v), f.Vars)
		if err != nil {
			return nil, fmt.Errorf("family %s: compile slope for %s: %w", f.Name, v, err)
		}
		sv := &Solver{
			Var:      v,
			Args:     f.Vars.Without(v),
			family:   f.Name,
			pos:      f.Vars.Index(v),
			residual: full,
			slope:    slope,
		}

		expr, err := symbolic.Solve(eq, v)
		switch {
		case err == nil:
			fn, err := symbolic.Compile(expr, sv.Args)
			if err != nil {
				return nil, fmt.Errorf("family %s: compile %s: %w", f.Name, v, err)
			}
			sv.Kind = Solved
			sv.Equation = symbolic.Eq(symbolic.S(v), expr)
			sv.fn = fn
			if f.unsolvable[v] {
				entry.WithField("var", v).Warn("variable declared unsolvable has a closed form")
			}
		case errors.Is(err, symbolic.ErrNoClosedForm):
			sv.Equation = eq
			sv.Reason = err
			if d, ok := f.fallback[v]; ok {
				sv.Kind = Numeric
				sv.Domain = d
			} else if !f.unsolvable[v] {
				return nil, fmt.Errorf("family %s: %w: %s: %v", f.Name, ErrUnsolvableVariable, v, err)
			}
		default:
			return nil, fmt.Errorf("family %s: solve %s: %w", f.Name, v, err)
		}

		entry.WithFields(logrus.Fields{
			"var":  v,
			"kind": sv.Kind,
			"args": sv.Args,
		}).Debugf("derived %s", sv.Equation)
		set.solvers[v] = sv
	}
	return set, nil
}

func discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
