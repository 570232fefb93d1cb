// Package finance defines the financial formula families and typed entry
// points over the dispatcher.
package finance

import (
	"github.com/san-kum/finsolve/internal/formula"
	"github.com/san-kum/finsolve/internal/rootfind"
	"github.com/san-kum/finsolve/internal/symbolic"
)

const (
	FamilyTMV        = "tmv"
	FamilyPerpetuity = "perpetuity"
	FamilyAnnuityPV  = "annuity_pv"
	FamilyAnnuityFV  = "annuity_fv"
	FamilyAnnuity    = "annuity"
	FamilyYTM        = "ytm"
	FamilyEAR        = "ear"
	FamilyStockPrice = "stock_price"
)

// rates are scanned over [0, 1)
var rateDomain = formula.Domain{Lo: rootfind.DefaultLo, Hi: rootfind.DefaultHi}

var (
	one = symbolic.N(1)
	sym = symbolic.S
)

// discount is (1 + rate)^(-n).
func discount(rate, n string) symbolic.Expr {
	return symbolic.PowOf(symbolic.AddOf(one, sym(rate)), symbolic.NegOf(sym(n)))
}

// pv = fv / (1 + r)^n
func NewTMV() *formula.Family {
	return formula.MustFamily(FamilyTMV, "pv",
		symbolic.DivOf(sym("fv"), symbolic.PowOf(symbolic.AddOf(one, sym("r")), sym("n"))),
		formula.WithDescription("time value of money: pv = fv / (1 + r)^n"),
		formula.WithLabel("pv", "PV"),
		formula.WithLabel("fv", "FV"),
	)
}

// pv = C / r
func NewPerpetuity() *formula.Family {
	return formula.MustFamily(FamilyPerpetuity, "pv",
		symbolic.DivOf(sym("C"), sym("r")),
		formula.WithDescription("perpetuity: pv = C / r"),
		formula.WithLabel("pv", "PV"),
	)
}

// pv = C / r * (1 - (1 + r)^(-n))
func NewAnnuityPV() *formula.Family {
	return formula.MustFamily(FamilyAnnuityPV, "pv",
		symbolic.MulOf(symbolic.DivOf(sym("C"), sym("r")), symbolic.SubOf(one, discount("r", "n"))),
		formula.WithDescription("present value of an ordinary annuity: pv = C / r * (1 - (1 + r)^-n)"),
		formula.WithLabel("pv", "PV"),
		formula.WithFallback("r", rateDomain),
	)
}

// p = cpn / ytm * (1 - (1 + ytm)^(-n)) + fv / (1 + ytm)^n
func NewYTM() *formula.Family {
	d := discount("ytm", "n")
	coupons := symbolic.MulOf(symbolic.DivOf(sym("cpn"), sym("ytm")), symbolic.SubOf(one, d))
	return formula.MustFamily(FamilyYTM, "p",
		symbolic.AddOf(coupons, symbolic.MulOf(sym("fv"), d)),
		formula.WithDescription("bond price and yield to maturity: p = cpn / ytm * (1 - (1 + ytm)^-n) + fv / (1 + ytm)^n"),
		formula.WithLabel("ytm", "YTM"),
		formula.WithLabel("fv", "FV"),
		formula.WithLabel("cpn", "CPN"),
		formula.WithLabel("p", "P"),
		formula.WithFallback("ytm", rateDomain),
	)
}

// ear = (1 + apr / m)^m - 1
func NewEAR() *formula.Family {
	base := symbolic.AddOf(one, symbolic.DivOf(sym("apr"), sym("m")))
	return formula.MustFamily(FamilyEAR, "ear",
		symbolic.SubOf(symbolic.PowOf(base, sym("m")), one),
		formula.WithDescription("effective annual rate: ear = (1 + apr / m)^m - 1"),
		formula.WithLabel("ear", "EAR"),
		formula.WithLabel("apr", "APR"),
		formula.WithUnsolvable("m"),
	)
}

// p0 = (div1 + p1) / (1 + re)
func NewStockPrice() *formula.Family {
	return formula.MustFamily(FamilyStockPrice, "p0",
		symbolic.DivOf(symbolic.AddOf(sym("div1"), sym("p1")), symbolic.AddOf(one, sym("re"))),
		formula.WithDescription("one-period stock price: p0 = (div1 + p1) / (1 + re)"),
		formula.WithLabel("p0", "P0"),
		formula.WithLabel("p1", "P1"),
		formula.WithLabel("div1", "Div1"),
		formula.WithLabel("re", "rE"),
	)
}
