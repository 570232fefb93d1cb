package symbolic

import "math"

// AddOf builds a simplified sum: nested sums are flattened, constants folded
// and like terms collected by coefficient.
func AddOf(terms ...Expr) Expr {
	flat := make([]Expr, 0, len(terms))
	for _, t := range terms {
		if a, ok := t.(*Add); ok {
			flat = append(flat, a.terms...)
		} else {
			flat = append(flat, t)
		}
	}

	type group struct {
		coef float64
		rest Expr
	}
	constant := 0.0
	var groups []group
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			constant += n.val
			continue
		}
		c, rest := splitCoefficient(t)
		merged := false
		for i := range groups {
			if groups[i].rest.Equal(rest) {
				groups[i].coef += c
				merged = true
				break
			}
		}
		if !merged {
			groups = append(groups, group{coef: c, rest: rest})
		}
	}

	out := make([]Expr, 0, len(groups)+1)
	nested := false
	for _, g := range groups {
		if g.coef == 0 {
			continue
		}
		t := MulOf(N(g.coef), g.rest)
		if _, ok := t.(*Add); ok {
			nested = true
		}
		out = append(out, t)
	}
	if constant != 0 {
		out = append(out, N(constant))
	}
	if nested {
		return AddOf(out...)
	}

	switch len(out) {
	case 0:
		return N(0)
	case 1:
		return out[0]
	}
	canonicalSort(out)
	return &Add{terms: out}
}

// MulOf builds a simplified product: nested products are flattened,
// constants folded and powers of equal bases merged.
func MulOf(factors ...Expr) Expr {
	flat := make([]Expr, 0, len(factors))
	for _, f := range factors {
		if m, ok := f.(*Mul); ok {
			flat = append(flat, m.factors...)
		} else {
			flat = append(flat, f)
		}
	}

	type power struct {
		base Expr
		exps []Expr
	}
	coef := 1.0
	var powers []power
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coef *= n.val
			continue
		}
		base, exp := f, Expr(N(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		merged := false
		for i := range powers {
			if powers[i].base.Equal(base) {
				powers[i].exps = append(powers[i].exps, exp)
				merged = true
				break
			}
		}
		if !merged {
			powers = append(powers, power{base: base, exps: []Expr{exp}})
		}
	}
	if coef == 0 {
		return N(0)
	}

	out := make([]Expr, 0, len(powers)+1)
	expanded := false
	for _, p := range powers {
		var f Expr
		if len(p.exps) == 1 && isNum(p.exps[0], 1) {
			f = p.base
		} else {
			f = PowOf(p.base, AddOf(p.exps...))
		}
		switch f := f.(type) {
		case *Num:
			coef *= f.val
		case *Mul:
			expanded = true
			out = append(out, f.factors...)
		default:
			out = append(out, f)
		}
	}
	if expanded {
		return MulOf(append(out, N(coef))...)
	}
	if coef == 0 {
		return N(0)
	}

	canonicalSort(out)
	if coef != 1 {
		out = append([]Expr{N(coef)}, out...)
	}
	switch len(out) {
	case 0:
		return N(coef)
	case 1:
		return out[0]
	}
	return &Mul{factors: out}
}

// PowOf builds base^exp. Integer exponents are pushed through products and
// nested powers so that 1/(1+r)^n and (1+r)^-n share one form.
func PowOf(base, exp Expr) Expr {
	switch {
	case isNum(exp, 0):
		return N(1)
	case isNum(exp, 1):
		return base
	case isNum(base, 1):
		return N(1)
	}
	if b, ok := base.(*Num); ok {
		if e, ok := exp.(*Num); ok {
			if v := math.Pow(b.val, e.val); finite(v) {
				return N(v)
			}
		}
	}
	if isInteger(exp) {
		switch b := base.(type) {
		case *Pow:
			return PowOf(b.base, MulOf(b.exp, exp))
		case *Mul:
			fs := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				fs[i] = PowOf(f, exp)
			}
			return MulOf(fs...)
		}
	}
	return &Pow{base: base, exp: exp}
}

func LnOf(arg Expr) Expr {
	switch a := arg.(type) {
	case *Num:
		if a.val > 0 {
			return N(math.Log(a.val))
		}
	case *Func:
		if a.name == fnExp {
			return a.arg
		}
	}
	return &Func{name: fnLn, arg: arg}
}

func ExpOf(arg Expr) Expr {
	switch a := arg.(type) {
	case *Num:
		if v := math.Exp(a.val); finite(v) {
			return N(v)
		}
	case *Func:
		if a.name == fnLn {
			return a.arg
		}
	}
	return &Func{name: fnExp, arg: arg}
}

func NegOf(e Expr) Expr    { return MulOf(N(-1), e) }
func SubOf(a, b Expr) Expr { return AddOf(a, NegOf(b)) }
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

func splitCoefficient(e Expr) (float64, Expr) {
	m, ok := e.(*Mul)
	if !ok {
		return 1, e
	}
	n, ok := m.factors[0].(*Num)
	if !ok {
		return 1, e
	}
	if len(m.factors) == 2 {
		return n.val, m.factors[1]
	}
	return n.val, &Mul{factors: m.factors[1:]}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
