package finance

import (
	"context"
	"fmt"

	"github.com/san-kum/finsolve/internal/dispatch"
	"github.com/san-kum/finsolve/internal/formula"
)

// Engine solves any registered family, composed ones included, against a
// shared formula cache.
type Engine struct {
	reg   *Registry
	cache *formula.Cache
	opts  []dispatch.Option
}

// NewEngine builds an engine; opts apply to every dispatch it makes.
func NewEngine(reg *Registry, cache *formula.Cache, opts ...dispatch.Option) *Engine {
	return &Engine{reg: reg, cache: cache, opts: opts}
}

func (e *Engine) Registry() *Registry { return e.reg }

func (e *Engine) Cache() *formula.Cache { return e.cache }

func (e *Engine) Dispatcher(name string, opts ...dispatch.Option) (*dispatch.Dispatcher, error) {
	f, err := e.reg.GetFamily(name)
	if err != nil {
		return nil, err
	}
	return dispatch.New(e.cache, f, e.options(opts)...), nil
}

// Solve computes the one variable of family name missing from known.
func (e *Engine) Solve(ctx context.Context, name string, known map[string]float64, opts ...dispatch.Option) (dispatch.Result, error) {
	switch name {
	case FamilyAnnuityFV:
		return e.annuityFV(ctx, known, opts)
	case FamilyAnnuity:
		return e.annuity(ctx, known, opts)
	}

	d, err := e.Dispatcher(name, opts...)
	if err != nil {
		return dispatch.Result{}, err
	}
	return d.Solve(ctx, known)
}

// annuityFV composes annuity_pv with tmv. Intermediate values stay
// unrounded; only the last step rounds.
func (e *Engine) annuityFV(ctx context.Context, known map[string]float64, opts []dispatch.Option) (dispatch.Result, error) {
	missing, done, err := e.missing(FamilyAnnuityFV, known)
	if err != nil || done {
		return dispatch.Result{Family: FamilyAnnuityFV}, err
	}
	raw := append(e.options(opts), dispatch.WithRounding(false))

	var res dispatch.Result
	switch missing {
	case "fv":
		pv, err := e.Solve(ctx, FamilyAnnuityPV, pick(known, "C", "r", "n"), raw...)
		if err != nil {
			return dispatch.Result{}, err
		}
		res, err = e.Solve(ctx, FamilyTMV, map[string]float64{"pv": pv.Value, "r": known["r"], "n": known["n"]}, opts...)
		if err != nil {
			return dispatch.Result{}, err
		}
	case "C":
		pv, err := e.Solve(ctx, FamilyTMV, pick(known, "fv", "r", "n"), raw...)
		if err != nil {
			return dispatch.Result{}, err
		}
		res, err = e.Solve(ctx, FamilyAnnuityPV, map[string]float64{"pv": pv.Value, "r": known["r"], "n": known["n"]}, opts...)
		if err != nil {
			return dispatch.Result{}, err
		}
	default:
		return dispatch.Result{}, fmt.Errorf("%w: %s in %s is not composable from annuity_pv and tmv", formula.ErrUnsolvableVariable, missing, FamilyAnnuityFV)
	}

	res.Family = FamilyAnnuityFV
	res.Label = e.reg.Label(FamilyAnnuityFV, missing)
	return res, nil
}

// annuity takes both pv and fv but uses only one: with three values given
// and pv absent it solves the future value form, with fv absent the present
// value form.
func (e *Engine) annuity(ctx context.Context, known map[string]float64, opts []dispatch.Option) (dispatch.Result, error) {
	vars, _ := e.reg.Vars(FamilyAnnuity)
	if err := checkNames(FamilyAnnuity, vars, known); err != nil {
		return dispatch.Result{}, err
	}
	if len(known) == len(vars) {
		return dispatch.Result{Family: FamilyAnnuity}, nil
	}
	if len(known) != len(vars)-2 {
		return dispatch.Result{}, fmt.Errorf("%w: %s needs 3 of %v with pv or fv absent, got %d", dispatch.ErrInvalidArgumentCount, FamilyAnnuity, vars, len(known))
	}

	var (
		res dispatch.Result
		err error
	)
	if _, ok := known["pv"]; !ok {
		res, err = e.annuityFV(ctx, known, opts)
	} else if _, ok := known["fv"]; !ok {
		res, err = e.Solve(ctx, FamilyAnnuityPV, known, opts...)
	} else {
		return dispatch.Result{}, fmt.Errorf("%w: %s got both pv and fv, leave one absent", dispatch.ErrInvalidArgumentCount, FamilyAnnuity)
	}
	if err != nil {
		return res, err
	}
	res.Family = FamilyAnnuity
	return res, nil
}

// missing validates known against the variables of a composed family and
// returns the absent one. done reports that every value was supplied.
func (e *Engine) missing(name string, known map[string]float64) (missing string, done bool, err error) {
	vars, err := e.reg.Vars(name)
	if err != nil {
		return "", false, err
	}
	if err := checkNames(name, vars, known); err != nil {
		return "", false, err
	}
	switch len(known) {
	case len(vars):
		return "", true, nil
	case len(vars) - 1:
	default:
		return "", false, fmt.Errorf("%w: %s needs %d of %v, got %d", dispatch.ErrInvalidArgumentCount, name, len(vars)-1, vars, len(known))
	}
	for _, v := range vars {
		if _, ok := known[v]; !ok {
			return v, false, nil
		}
	}
	return "", false, nil
}

func (e *Engine) options(extra []dispatch.Option) []dispatch.Option {
	out := make([]dispatch.Option, 0, len(e.opts)+len(extra)+1)
	out = append(out, e.opts...)
	return append(out, extra...)
}

func checkNames(name string, vars formula.Symbols, known map[string]float64) error {
	for v := range known {
		if !vars.Contains(v) {
			return fmt.Errorf("%w: %s has no variable %q (have %v)", dispatch.ErrUnknownVariable, name, v, vars)
		}
	}
	return nil
}

func pick(m map[string]float64, keys ...string) map[string]float64 {
	out := make(map[string]float64, len(keys))
	for _, k := range keys {
		out[k] = m[k]
	}
	return out
}
