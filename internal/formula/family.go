// Package formula derives, for every variable of a financial equation, a
// solver that computes it from the others, and caches the result per family.
package formula

import (
	"fmt"

	"github.com/san-kum/finsolve/internal/symbolic"
)

// Domain is the half-open interval a numeric fallback scans for a root.
type Domain struct {
	Lo, Hi float64
}

// Family is a named defining equation Target = Expr. It is immutable once
// built.
type Family struct {
	Name        string
	Description string
	Target      string
	Expr        symbolic.Expr
	Vars        Symbols

	labels     map[string]string
	fallback   map[string]Domain
	unsolvable map[string]bool
}

type FamilyOption func(*Family)

func WithDescription(desc string) FamilyOption {
	return func(f *Family) { f.Description = desc }
}

// WithLabel sets the display label reported for a variable, e.g. "PV".
func WithLabel(name, label string) FamilyOption {
	return func(f *Family) { f.labels[name] = label }
}

// WithFallback marks name as solvable by a numeric root scan over d when no
// closed form exists for it.
func WithFallback(name string, d Domain) FamilyOption {
	return func(f *Family) { f.fallback[name] = d }
}

// WithUnsolvable declares that name is expected to have neither a closed form
// nor a fallback. Derivation fails if any undeclared variable ends up that
// way.
func WithUnsolvable(names ...string) FamilyOption {
	return func(f *Family) {
		for _, n := range names {
			f.unsolvable[n] = true
		}
	}
}

func NewFamily(name, target string, expr symbolic.Expr, opts ...FamilyOption) (*Family, error) {
	if name == "" {
		return nil, fmt.Errorf("family name is required")
	}
	if expr.Has(target) {
		return nil, fmt.Errorf("family %s: target %s appears on both sides", name, target)
	}

	f := &Family{
		Name:       name,
		Target:     target,
		Expr:       expr,
		Vars:       NewSymbols(append(symbolic.FreeSymbols(expr), target)...),
		labels:     make(map[string]string),
		fallback:   make(map[string]Domain),
		unsolvable: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(f)
	}

	for v, d := range f.fallback {
		if !f.Vars.Contains(v) {
			return nil, fmt.Errorf("family %s: fallback for unknown variable %s", name, v)
		}
		if !(d.Hi > d.Lo) {
			return nil, fmt.Errorf("family %s: empty fallback domain for %s", name, v)
		}
	}
	for v := range f.labels {
		if !f.Vars.Contains(v) {
			return nil, fmt.Errorf("family %s: label for unknown variable %s", name, v)
		}
	}
	for v := range f.unsolvable {
		if !f.Vars.Contains(v) {
			return nil, fmt.Errorf("family %s: unknown variable %s declared unsolvable", name, v)
		}
	}
	return f, nil
}

// MustFamily is NewFamily for package-level definitions.
func MustFamily(name, target string, expr symbolic.Expr, opts ...FamilyOption) *Family {
	f, err := NewFamily(name, target, expr, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Equation returns Target = Expr.
func (f *Family) Equation() *symbolic.Equation {
	return symbolic.Eq(symbolic.S(f.Target), f.Expr)
}

// K is the number of variables.
func (f *Family) K() int { return len(f.Vars) }

func (f *Family) Label(name string) string {
	if l, ok := f.labels[name]; ok {
		return l
	}
	return name
}

func (f *Family) Fallback(name string) (Domain, bool) {
	d, ok := f.fallback[name]
	return d, ok
}
