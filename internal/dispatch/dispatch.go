// Package dispatch routes a call carrying all but one of a family's values
// to the solver for the missing variable.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/finsolve/internal/formula"
	"github.com/san-kum/finsolve/internal/rootfind"
)

var (
	ErrInvalidArgumentCount = errors.New("invalid argument count")
	ErrUnknownVariable      = errors.New("unknown variable")
	ErrDomain               = errors.New("result outside numeric domain")
)

const DefaultPrecision = 4

// Result names the variable a value answers. The zero Var means nothing was
// calculated because every value was supplied.
type Result struct {
	Family string
	Var    string
	Label  string
	Value  float64
	Method formula.Kind
	// Scan is set for numeric solves.
	Scan *rootfind.Result
}

func (r Result) Calculated() bool { return r.Var != "" }

type Dispatcher struct {
	cache     *formula.Cache
	family    *formula.Family
	round     bool
	precision int
	scan      rootfind.Config
	log       *logrus.Logger
}

type Option func(*Dispatcher)

func WithPrecision(places int) Option {
	return func(d *Dispatcher) { d.precision = places }
}

// WithRounding toggles rounding of the final value. Composed calculations
// turn it off for intermediate steps.
func WithRounding(on bool) Option {
	return func(d *Dispatcher) { d.round = on }
}

// WithScan sets the numeric scan parameters. The scan interval always comes
// from the family's fallback domain.
func WithScan(cfg rootfind.Config) Option {
	return func(d *Dispatcher) { d.scan = cfg }
}

func WithLogger(log *logrus.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

func New(cache *formula.Cache, family *formula.Family, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cache:     cache,
		family:    family,
		round:     true,
		precision: DefaultPrecision,
		scan:      rootfind.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logrus.New()
		d.log.SetOutput(io.Discard)
	}
	return d
}

func (d *Dispatcher) Family() *formula.Family { return d.family }

// Solve computes the one variable absent from known. With every variable
// present it returns a Result that is not Calculated and no error.
func (d *Dispatcher) Solve(ctx context.Context, known map[string]float64) (Result, error) {
	f := d.family
	if err := d.checkNames(known); err != nil {
		return Result{}, err
	}

	switch len(known) {
	case f.K():
		return Result{Family: f.Name}, nil
	case f.K() - 1:
	default:
		return Result{}, fmt.Errorf("%w: %s needs %d of %v, got %d", ErrInvalidArgumentCount, f.Name, f.K()-1, f.Vars, len(known))
	}

	var missing string
	for _, v := range f.Vars {
		if _, ok := known[v]; !ok {
			missing = v
			break
		}
	}

	set, err := d.cache.Load(f)
	if err != nil {
		return Result{}, err
	}
	sv, ok := set.Solver(missing)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s in %s", formula.ErrUnsolvableVariable, missing, f.Name)
	}

	args := make([]float64, len(sv.Args))
	for i, name := range sv.Args {
		args[i] = known[name]
	}

	res := Result{Family: f.Name, Var: missing, Label: f.Label(missing), Method: sv.Kind}
	var v float64
	switch sv.Kind {
	case formula.Numeric:
		sr, err := d.scanFor(ctx, sv, args)
		res.Scan = sr
		if err != nil {
			return res, fmt.Errorf("%s in %s: %w", missing, f.Name, err)
		}
		v = sr.Root
	default:
		if v, err = sv.Eval(args); err != nil {
			return res, err
		}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return res, fmt.Errorf("%w: %s in %s evaluated to %v for %v", ErrDomain, missing, f.Name, v, known)
	}
	if d.round {
		v = Round(v, d.precision)
	}
	res.Value = v
	return res, nil
}

func (d *Dispatcher) scanFor(ctx context.Context, sv *formula.Solver, args []float64) (*rootfind.Result, error) {
	f, df, err := sv.Bind(args)
	if err != nil {
		return nil, err
	}
	cfg := d.scan
	cfg.Lo, cfg.Hi = sv.Domain.Lo, sv.Domain.Hi

	res, err := rootfind.Scan(ctx, f, df, cfg)
	if res != nil {
		d.log.WithFields(logrus.Fields{
			"family": d.family.Name,
			"var":    sv.Var,
			"roots":  len(res.Roots),
			"failed": res.Failed,
		}).Debugf("scanned %d guesses in [%g, %g)", cfg.Guesses, cfg.Lo, cfg.Hi)
	}
	return res, err
}

func (d *Dispatcher) checkNames(known map[string]float64) error {
	var unknown []string
	for name := range known {
		if !d.family.Vars.Contains(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s has no variable %q (have %v)", ErrUnknownVariable, d.family.Name, unknown[0], d.family.Vars)
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
