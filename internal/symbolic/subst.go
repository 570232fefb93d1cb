package symbolic

import "sort"

// Replace rewrites every subexpression structurally equal to target.
func Replace(e, target, with Expr) Expr {
	if e.Equal(target) {
		return with
	}
	switch e := e.(type) {
	case *Add:
		out := make([]Expr, len(e.terms))
		for i, t := range e.terms {
			out[i] = Replace(t, target, with)
		}
		return AddOf(out...)
	case *Mul:
		out := make([]Expr, len(e.factors))
		for i, f := range e.factors {
			out[i] = Replace(f, target, with)
		}
		return MulOf(out...)
	case *Pow:
		return PowOf(Replace(e.base, target, with), Replace(e.exp, target, with))
	case *Func:
		arg := Replace(e.arg, target, with)
		if e.name == fnLn {
			return LnOf(arg)
		}
		return ExpOf(arg)
	}
	return e
}

// Sub substitutes value for the symbol name.
func Sub(e Expr, name string, value Expr) Expr { return Replace(e, S(name), value) }

// FreeSymbols returns the names of all symbols in e, sorted.
func FreeSymbols(e Expr) []string {
	seen := make(map[string]struct{})
	collectSymbols(e, seen)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch e := e.(type) {
	case *Sym:
		out[e.name] = struct{}{}
	case *Add:
		for _, t := range e.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range e.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(e.base, out)
		collectSymbols(e.exp, out)
	case *Func:
		collectSymbols(e.arg, out)
	}
}
