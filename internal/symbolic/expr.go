// Package symbolic is a small expression kernel for rearranging closed-form
// financial equations. It knows constants, symbols, sums, products, powers,
// ln and exp, which is enough to isolate a variable that appears inside a
// single kernel term and to build fast float64 evaluators for the result.
package symbolic

import (
	"math"
	"sort"
)

type Expr interface {
	String() string
	Equal(other Expr) bool
	Has(name string) bool
	Diff(name string) Expr
	compile(index map[string]int) (evalFunc, error)
	prec() int
}

type evalFunc func(args []float64) float64

const (
	precSum = iota + 1
	precProduct
	precPower
	precAtom
)

// Num is a float64 constant.
type Num struct{ val float64 }

func N(v float64) *Num { return &Num{val: v} }

func (n *Num) Value() float64        { return n.val }
func (n *Num) Has(string) bool       { return false }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val == o.val }
func (n *Num) compile(map[string]int) (evalFunc, error) {
	v := n.val
	return func([]float64) float64 { return v }, nil
}
func (n *Num) prec() int {
	if n.val < 0 {
		return precSum
	}
	return precAtom
}

// Sym is a named variable.
type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Name() string          { return s.name }
func (s *Sym) String() string        { return s.name }
func (s *Sym) Has(name string) bool  { return s.name == name }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) prec() int             { return precAtom }
func (s *Sym) Diff(name string) Expr {
	if s.name == name {
		return N(1)
	}
	return N(0)
}

// Add is a sum of terms.
type Add struct{ terms []Expr }

func (a *Add) Terms() []Expr { return a.terms }
func (a *Add) prec() int     { return precSum }

func (a *Add) Has(name string) bool {
	for _, t := range a.terms {
		if t.Has(name) {
			return true
		}
	}
	return false
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalAll(a.terms, o.terms)
}

func (a *Add) Diff(name string) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Diff(name)
	}
	return AddOf(out...)
}

// Mul is a product of factors. A numeric coefficient, if any, comes first.
type Mul struct{ factors []Expr }

func (m *Mul) Factors() []Expr { return m.factors }
func (m *Mul) prec() int       { return precProduct }

func (m *Mul) Has(name string) bool {
	for _, f := range m.factors {
		if f.Has(name) {
			return true
		}
	}
	return false
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalAll(m.factors, o.factors)
}

func (m *Mul) Diff(name string) Expr {
	terms := make([]Expr, 0, len(m.factors))
	for i, f := range m.factors {
		if !f.Has(name) {
			continue
		}
		rest := make([]Expr, 0, len(m.factors))
		rest = append(rest, f.Diff(name))
		rest = append(rest, m.factors[:i]...)
		rest = append(rest, m.factors[i+1:]...)
		terms = append(terms, MulOf(rest...))
	}
	return AddOf(terms...)
}

// Pow is base^exp.
type Pow struct{ base, exp Expr }

func (p *Pow) Base() Expr { return p.base }
func (p *Pow) Exp() Expr  { return p.exp }
func (p *Pow) prec() int  { return precPower }

func (p *Pow) Has(name string) bool { return p.base.Has(name) || p.exp.Has(name) }

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) Diff(name string) Expr {
	inBase, inExp := p.base.Has(name), p.exp.Has(name)
	switch {
	case !inBase && !inExp:
		return N(0)
	case !inExp:
		// d(u^c) = c u^(c-1) u'
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), p.base.Diff(name))
	case !inBase:
		// d(c^v) = c^v ln(c) v'
		return MulOf(p, LnOf(p.base), p.exp.Diff(name))
	default:
		return MulOf(p, AddOf(
			MulOf(p.exp.Diff(name), LnOf(p.base)),
			MulOf(p.exp, p.base.Diff(name), PowOf(p.base, N(-1))),
		))
	}
}

// Func is a named single-argument function: ln or exp.
type Func struct {
	name string
	arg  Expr
}

const (
	fnLn  = "ln"
	fnExp = "exp"
)

func (f *Func) FuncName() string     { return f.name }
func (f *Func) Arg() Expr            { return f.arg }
func (f *Func) prec() int            { return precAtom }
func (f *Func) String() string       { return f.name + "(" + f.arg.String() + ")" }
func (f *Func) Has(name string) bool { return f.arg.Has(name) }

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) Diff(name string) Expr {
	if !f.arg.Has(name) {
		return N(0)
	}
	d := f.arg.Diff(name)
	if f.name == fnLn {
		return MulOf(d, PowOf(f.arg, N(-1)))
	}
	return MulOf(f, d)
}

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// canonicalSort orders constants first, then by rendered magnitude, so
// structurally equal sums and products compare equal.
func canonicalSort(es []Expr) {
	keys := make(map[Expr]string, len(es))
	for _, e := range es {
		_, body := negated(e)
		keys[e] = body.String()
	}
	sort.SliceStable(es, func(i, j int) bool {
		_, ni := es[i].(*Num)
		_, nj := es[j].(*Num)
		if ni != nj {
			return ni
		}
		return keys[es[i]] < keys[es[j]]
	})
}

func isNum(e Expr, v float64) bool {
	n, ok := e.(*Num)
	return ok && n.val == v
}

func isInteger(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.val == math.Trunc(n.val) && !math.IsInf(n.val, 0)
}
