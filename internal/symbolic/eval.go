package symbolic

import (
	"fmt"
	"math"
)

// Compile turns e into a function of args, where args[i] is the value of
// vars[i]. Every free symbol of e must appear in vars.
func Compile(e Expr, vars []string) (func(args []float64) float64, error) {
	index := make(map[string]int, len(vars))
	for i, v := range vars {
		index[v] = i
	}
	fn, err := e.compile(index)
	if err != nil {
		return nil, err
	}
	n := len(vars)
	return func(args []float64) float64 {
		if len(args) != n {
			panic(fmt.Sprintf("symbolic: compiled for %d args, called with %d", n, len(args)))
		}
		return fn(args)
	}, nil
}

// Eval evaluates e with the given bindings.
func Eval(e Expr, env map[string]float64) (float64, error) {
	vars := make([]string, 0, len(env))
	args := make([]float64, 0, len(env))
	for k, v := range env {
		vars = append(vars, k)
		args = append(args, v)
	}
	fn, err := Compile(e, vars)
	if err != nil {
		return math.NaN(), err
	}
	return fn(args), nil
}

func (s *Sym) compile(index map[string]int) (evalFunc, error) {
	i, ok := index[s.name]
	if !ok {
		return nil, fmt.Errorf("symbolic: unbound symbol %q", s.name)
	}
	return func(args []float64) float64 { return args[i] }, nil
}

func compileAll(es []Expr, index map[string]int) ([]evalFunc, error) {
	out := make([]evalFunc, len(es))
	for i, e := range es {
		fn, err := e.compile(index)
		if err != nil {
			return nil, err
		}
		out[i] = fn
	}
	return out, nil
}

func (a *Add) compile(index map[string]int) (evalFunc, error) {
	fns, err := compileAll(a.terms, index)
	if err != nil {
		return nil, err
	}
	return func(args []float64) float64 {
		sum := 0.0
		for _, fn := range fns {
			sum += fn(args)
		}
		return sum
	}, nil
}

func (m *Mul) compile(index map[string]int) (evalFunc, error) {
	fns, err := compileAll(m.factors, index)
	if err != nil {
		return nil, err
	}
	return func(args []float64) float64 {
		prod := 1.0
		for _, fn := range fns {
			prod *= fn(args)
		}
		return prod
	}, nil
}

func (p *Pow) compile(index map[string]int) (evalFunc, error) {
	base, err := p.base.compile(index)
	if err != nil {
		return nil, err
	}
	if e, ok := p.exp.(*Num); ok && e.val == -1 {
		return func(args []float64) float64 { return 1 / base(args) }, nil
	}
	exp, err := p.exp.compile(index)
	if err != nil {
		return nil, err
	}
	return func(args []float64) float64 { return math.Pow(base(args), exp(args)) }, nil
}

func (f *Func) compile(index map[string]int) (evalFunc, error) {
	arg, err := f.arg.compile(index)
	if err != nil {
		return nil, err
	}
	switch f.name {
	case fnLn:
		return func(args []float64) float64 { return math.Log(arg(args)) }, nil
	case fnExp:
		return func(args []float64) float64 { return math.Exp(arg(args)) }, nil
	}
	return nil, fmt.Errorf("symbolic: unknown function %q", f.name)
}
