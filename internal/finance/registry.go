package finance

import (
	"fmt"
	"sort"

	"github.com/san-kum/finsolve/internal/formula"
)

// composite describes a calculation built from other families rather than
// derived from its own equation.
type composite struct {
	description string
	vars        formula.Symbols
	labels      map[string]string
}

type Registry struct {
	families  map[string]*formula.Family
	composite map[string]composite
}

func NewRegistry() *Registry {
	r := &Registry{
		families:  make(map[string]*formula.Family),
		composite: make(map[string]composite),
	}

	for _, fn := range []func() *formula.Family{
		NewTMV,
		NewPerpetuity,
		NewAnnuityPV,
		NewYTM,
		NewEAR,
		NewStockPrice,
	} {
		f := fn()
		r.families[f.Name] = f
	}

	r.composite[FamilyAnnuityFV] = composite{
		description: "future value of an ordinary annuity, via annuity_pv and tmv",
		vars:        formula.NewSymbols("fv", "C", "r", "n"),
		labels:      map[string]string{"fv": "FV"},
	}
	r.composite[FamilyAnnuity] = composite{
		description: "annuity with present or future value; routes to annuity_pv or annuity_fv",
		vars:        formula.NewSymbols("pv", "fv", "C", "r", "n"),
		labels:      map[string]string{"pv": "PV", "fv": "FV"},
	}

	return r
}

func (r *Registry) GetFamily(name string) (*formula.Family, error) {
	f, ok := r.families[name]
	if !ok {
		return nil, fmt.Errorf("unknown family: %s", name)
	}
	return f, nil
}

// Vars returns the variables of any family, composed ones included.
func (r *Registry) Vars(name string) (formula.Symbols, error) {
	if f, ok := r.families[name]; ok {
		return f.Vars, nil
	}
	if c, ok := r.composite[name]; ok {
		return c.vars, nil
	}
	return nil, fmt.Errorf("unknown family: %s", name)
}

func (r *Registry) Describe(name string) string {
	if f, ok := r.families[name]; ok {
		return f.Description
	}
	return r.composite[name].description
}

func (r *Registry) Label(name, v string) string {
	if f, ok := r.families[name]; ok {
		return f.Label(v)
	}
	if l, ok := r.composite[name].labels[v]; ok {
		return l
	}
	return v
}

func (r *Registry) IsComposite(name string) bool {
	_, ok := r.composite[name]
	return ok
}

// ListFamilies returns every family name in sorted order.
func (r *Registry) ListFamilies() []string {
	names := make([]string, 0, len(r.families)+len(r.composite))
	for name := range r.families {
		names = append(names, name)
	}
	for name := range r.composite {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
