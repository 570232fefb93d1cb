package finance

import (
	"context"

	"github.com/san-kum/finsolve/internal/dispatch"
)

// Optional is a variable value that may be left out.
type Optional struct {
	value float64
	set   bool
}

func Value(v float64) Optional { return Optional{value: v, set: true} }

func (o Optional) Get() (float64, bool) { return o.value, o.set }

type values map[string]float64

func (k values) add(name string, o Optional) values {
	if v, ok := o.Get(); ok {
		k[name] = v
	}
	return k
}

type TMVArgs struct {
	PV, FV, R, N Optional
}

func (a TMVArgs) known() values {
	return values{}.add("pv", a.PV).add("fv", a.FV).add("r", a.R).add("n", a.N)
}

type PerpetuityArgs struct {
	PV, C, R Optional
}

func (a PerpetuityArgs) known() values {
	return values{}.add("pv", a.PV).add("C", a.C).add("r", a.R)
}

type AnnuityPVArgs struct {
	PV, C, R, N Optional
}

func (a AnnuityPVArgs) known() values {
	return values{}.add("pv", a.PV).add("C", a.C).add("r", a.R).add("n", a.N)
}

type AnnuityFVArgs struct {
	FV, C, R, N Optional
}

func (a AnnuityFVArgs) known() values {
	return values{}.add("fv", a.FV).add("C", a.C).add("r", a.R).add("n", a.N)
}

type AnnuityArgs struct {
	PV, FV, C, R, N Optional
}

func (a AnnuityArgs) known() values {
	return values{}.add("pv", a.PV).add("fv", a.FV).add("C", a.C).add("r", a.R).add("n", a.N)
}

type YTMArgs struct {
	YTM, FV, Cpn, N, P Optional
}

func (a YTMArgs) known() values {
	return values{}.add("ytm", a.YTM).add("fv", a.FV).add("cpn", a.Cpn).add("n", a.N).add("p", a.P)
}

type EARArgs struct {
	EAR, APR, M Optional
}

func (a EARArgs) known() values {
	return values{}.add("ear", a.EAR).add("apr", a.APR).add("m", a.M)
}

type StockPriceArgs struct {
	P0, Div1, P1, RE Optional
}

func (a StockPriceArgs) known() values {
	return values{}.add("p0", a.P0).add("div1", a.Div1).add("p1", a.P1).add("re", a.RE)
}

func (e *Engine) TMV(ctx context.Context, a TMVArgs, opts ...dispatch.Option) (dispatch.Result, error) {
	return e.Solve(ctx, FamilyTMV, a.known(), opts...)
}

func (e *Engine) Perpetuity(ctx context.Context, a PerpetuityArgs, opts ...dispatch.Option) (dispatch.Result, error) {
	return e.Solve(ctx, FamilyPerpetuity, a.known(), opts...)
}

func (e *Engine) AnnuityPV(ctx context.Context, a AnnuityPVArgs, opts ...dispatch.Option) (dispatch.Result, error) {
	return e.Solve(ctx, FamilyAnnuityPV, a.known(), opts...)
}

func (e *Engine) AnnuityFV(ctx context.Context, a AnnuityFVArgs, opts ...dispatch.Option) (dispatch.Result, error) {
	return e.Solve(ctx, FamilyAnnuityFV, a.known(), opts...)
}

func (e *Engine) Annuity(ctx context.Context, a AnnuityArgs, opts ...dispatch.Option) (dispatch.Result, error) {
	return e.Solve(ctx, FamilyAnnuity, a.known(), opts...)
}

func (e *Engine) YTM(ctx context.Context, a YTMArgs, opts ...dispatch.Option) (dispatch.Result, error) {
	return e.Solve(ctx, FamilyYTM, a.known(), opts...)
}

func (e *Engine) EAR(ctx context.Context, a EARArgs, opts ...dispatch.Option) (dispatch.Result, error) {
	return e.Solve(ctx, FamilyEAR, a.known(), opts...)
}

func (e *Engine) StockPrice(ctx context.Context, a StockPriceArgs, opts ...dispatch.Option) (dispatch.Result, error) {
	return e.Solve(ctx, FamilyStockPrice, a.known(), opts...)
}
