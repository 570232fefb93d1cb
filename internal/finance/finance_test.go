package finance

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/finsolve/internal/dispatch"
	"github.com/san-kum/finsolve/internal/formula"
)

var _ = Describe("Engine", func() {
	var (
		ctx    context.Context
		cache  *formula.Cache
		engine *Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		cache = formula.NewCache(nil)
		engine = NewEngine(NewRegistry(), cache)
	})

	solve := func(name string, known map[string]float64) dispatch.Result {
		res, err := engine.Solve(ctx, name, known)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Calculated()).To(BeTrue())
		return res
	}

	Describe("time value of money", func() {
		It("discounts a future amount", func() {
			res, err := engine.TMV(ctx, TMVArgs{FV: Value(1000), R: Value(0.02), N: Value(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(820.3483))
			Expect(res.Var).To(Equal("pv"))
			Expect(res.Label).To(Equal("PV"))
		})

		It("compounds a present amount", func() {
			res, err := engine.TMV(ctx, TMVArgs{PV: Value(1000), R: Value(0.02), N: Value(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(1218.9944))
			Expect(res.Label).To(Equal("FV"))
		})

		It("recovers the rate and the period count", func() {
			Expect(solve(FamilyTMV, map[string]float64{"pv": 1000, "fv": 1218.9944, "n": 10}).Value).To(BeNumerically("~", 0.02, 1e-4))
			Expect(solve(FamilyTMV, map[string]float64{"pv": 1000, "fv": 1218.9944, "r": 0.02}).Value).To(BeNumerically("~", 10, 1e-4))
		})
	})

	Describe("perpetuity", func() {
		It("values a perpetual payment", func() {
			res, err := engine.Perpetuity(ctx, PerpetuityArgs{C: Value(1000), R: Value(0.02)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(50000.0))
		})

		It("solves the payment and the rate", func() {
			Expect(solve(FamilyPerpetuity, map[string]float64{"pv": 50000, "r": 0.02}).Value).To(BeNumerically("~", 1000, 1e-4))
			Expect(solve(FamilyPerpetuity, map[string]float64{"pv": 50000, "C": 1000}).Value).To(BeNumerically("~", 0.02, 1e-4))
		})

		It("reports a zero rate as a domain error", func() {
			_, err := engine.Perpetuity(ctx, PerpetuityArgs{C: Value(1000), R: Value(0)})
			Expect(err).To(MatchError(dispatch.ErrDomain))
		})
	})

	Describe("annuity present value", func() {
		It("values a payment stream", func() {
			res, err := engine.AnnuityPV(ctx, AnnuityPVArgs{C: Value(1000), R: Value(0.02), N: Value(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(8982.585))
		})

		It("solves the payment", func() {
			Expect(solve(FamilyAnnuityPV, map[string]float64{"pv": 8982.585, "r": 0.02, "n": 10}).Value).To(BeNumerically("~", 1000, 1e-4))
		})

		It("falls back to a numeric scan for the rate", func() {
			res := solve(FamilyAnnuityPV, map[string]float64{"pv": 8982.585, "C": 1000, "n": 10})
			Expect(res.Method).To(Equal(formula.Numeric))
			Expect(res.Value).To(Equal(0.02))
		})

		It("has nothing to calculate when every value is given", func() {
			res, err := engine.AnnuityPV(ctx, AnnuityPVArgs{PV: Value(8982.585), C: Value(1000), R: Value(0.02), N: Value(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Calculated()).To(BeFalse())
		})

		It("rejects fewer than K-1 values", func() {
			_, err := engine.AnnuityPV(ctx, AnnuityPVArgs{C: Value(1000)})
			Expect(err).To(MatchError(dispatch.ErrInvalidArgumentCount))
		})
	})

	Describe("annuity future value", func() {
		It("composes present value and compounding", func() {
			res, err := engine.AnnuityFV(ctx, AnnuityFVArgs{C: Value(1000), R: Value(0.02), N: Value(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(10949.721))
			Expect(res.Family).To(Equal(FamilyAnnuityFV))
			Expect(res.Label).To(Equal("FV"))
		})

		It("solves the payment from a future value", func() {
			res, err := engine.AnnuityFV(ctx, AnnuityFVArgs{FV: Value(10949.7210), R: Value(0.02), N: Value(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(BeNumerically("~", 1000, 1e-4))
			Expect(res.Var).To(Equal("C"))
		})

		It("does not round intermediate values", func() {
			rounded, err := engine.AnnuityFV(ctx, AnnuityFVArgs{C: Value(1000), R: Value(0.02), N: Value(10)}, dispatch.WithPrecision(2))
			Expect(err).NotTo(HaveOccurred())
			Expect(rounded.Value).To(Equal(10949.72))

			raw, err := engine.AnnuityFV(ctx, AnnuityFVArgs{C: Value(1000), R: Value(0.02), N: Value(10)}, dispatch.WithRounding(false))
			Expect(err).NotTo(HaveOccurred())
			Expect(raw.Value).NotTo(Equal(10949.721))
			Expect(raw.Value).To(BeNumerically("~", 10949.721, 1e-4))
		})

		It("refuses the rate", func() {
			_, err := engine.AnnuityFV(ctx, AnnuityFVArgs{FV: Value(10949.721), C: Value(1000), N: Value(10)})
			Expect(err).To(MatchError(formula.ErrUnsolvableVariable))
		})
	})

	Describe("combined annuity", func() {
		It("routes to the future value form without pv", func() {
			res, err := engine.Annuity(ctx, AnnuityArgs{C: Value(1000), R: Value(0.02), N: Value(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(10949.721))
			Expect(res.Family).To(Equal(FamilyAnnuity))
		})

		It("routes to the present value form without fv", func() {
			res, err := engine.Annuity(ctx, AnnuityArgs{PV: Value(8982.585), R: Value(0.02), N: Value(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Var).To(Equal("C"))
			Expect(res.Value).To(BeNumerically("~", 1000, 1e-4))
		})

		It("rejects pv and fv together", func() {
			_, err := engine.Annuity(ctx, AnnuityArgs{PV: Value(8982.585), FV: Value(10949.721), N: Value(10)})
			Expect(err).To(MatchError(dispatch.ErrInvalidArgumentCount))

			_, err = engine.Annuity(ctx, AnnuityArgs{PV: Value(8982.585), FV: Value(10949.721), R: Value(0.02), N: Value(10)})
			Expect(err).To(MatchError(dispatch.ErrInvalidArgumentCount))
		})
	})

	Describe("yield to maturity", func() {
		It("scans for the yield", func() {
			res, err := engine.YTM(ctx, YTMArgs{FV: Value(1000), Cpn: Value(25), P: Value(957.3490), N: Value(10)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(0.03))
			Expect(res.Label).To(Equal("YTM"))
			Expect(res.Method).To(Equal(formula.Numeric))
			Expect(res.Scan.Roots).NotTo(BeEmpty())
		})

		It("solves face value, coupon and periods in closed form", func() {
			fv := solve(FamilyYTM, map[string]float64{"ytm": 0.03, "cpn": 25, "p": 957.3490, "n": 10})
			Expect(fv.Label).To(Equal("FV"))
			Expect(fv.Value).To(BeNumerically("~", 1000, 1e-3))

			cpn := solve(FamilyYTM, map[string]float64{"ytm": 0.03, "fv": 1000, "p": 957.3490, "n": 10})
			Expect(cpn.Label).To(Equal("CPN"))
			Expect(cpn.Value).To(BeNumerically("~", 25, 1e-3))

			n := solve(FamilyYTM, map[string]float64{"ytm": 0.03, "fv": 1000, "cpn": 25, "p": 957.3490})
			Expect(n.Method).To(Equal(formula.Solved))
			Expect(n.Value).To(BeNumerically("~", 10, 1e-3))
		})
	})

	Describe("effective annual rate", func() {
		It("converts a nominal rate", func() {
			res, err := engine.EAR(ctx, EARArgs{APR: Value(0.12), M: Value(12)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(0.1268))
		})

		It("reports the compounding count as unsolvable", func() {
			_, err := engine.EAR(ctx, EARArgs{APR: Value(0.12), EAR: Value(0.1268)})
			Expect(err).To(MatchError(formula.ErrUnsolvableVariable))
		})
	})

	Describe("stock price", func() {
		It("discounts dividend and sale price", func() {
			res, err := engine.StockPrice(ctx, StockPriceArgs{Div1: Value(2), P1: Value(50), RE: Value(0.1)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(47.2727))
		})

		It("solves the required return", func() {
			res, err := engine.StockPrice(ctx, StockPriceArgs{P0: Value(50), Div1: Value(5), P1: Value(50)})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(BeNumerically("~", 0.1, 1e-9))
		})
	})

	Describe("round trips", func() {
		DescribeTable("solve then swap the unknown",
			func(name string, known map[string]float64, first, second string) {
				res := solve(name, without(known, first))
				Expect(res.Var).To(Equal(first))

				next := without(known, second)
				next[first] = res.Value
				back := solve(name, next)
				Expect(back.Var).To(Equal(second))
				Expect(back.Value).To(BeNumerically("~", known[second], 1e-3))
			},
			Entry("tmv pv then n", FamilyTMV, map[string]float64{"pv": 0, "fv": 1000, "r": 0.02, "n": 10}, "pv", "n"),
			Entry("tmv fv then r", FamilyTMV, map[string]float64{"pv": 1000, "fv": 0, "r": 0.05, "n": 7}, "fv", "r"),
			Entry("perpetuity pv then C", FamilyPerpetuity, map[string]float64{"pv": 0, "C": 250, "r": 0.04}, "pv", "C"),
			Entry("annuity pv then r", FamilyAnnuityPV, map[string]float64{"pv": 0, "C": 1000, "r": 0.02, "n": 10}, "pv", "r"),
			Entry("annuity C then n", FamilyAnnuityPV, map[string]float64{"pv": 5000, "C": 0, "r": 0.03, "n": 6}, "C", "n"),
			Entry("ytm p then ytm", FamilyYTM, map[string]float64{"p": 0, "fv": 1000, "cpn": 25, "n": 10, "ytm": 0.03}, "p", "ytm"),
			Entry("stock p0 then div1", FamilyStockPrice, map[string]float64{"p0": 0, "div1": 2, "p1": 50, "re": 0.1}, "p0", "div1"),
		)
	})

	It("derives each family once", func() {
		for i := 0; i < 5; i++ {
			solve(FamilyTMV, map[string]float64{"fv": 1000, "r": 0.02, "n": 10})
			solve(FamilyAnnuityFV, map[string]float64{"C": 1000, "r": 0.02, "n": 10})
		}
		// annuity_fv draws on tmv and annuity_pv
		Expect(cache.Builds()).To(Equal(int64(2)))
	})

	It("rejects unknown families and variables", func() {
		_, err := engine.Solve(ctx, "bogus", map[string]float64{})
		Expect(err).To(HaveOccurred())

		_, err = engine.Solve(ctx, FamilyAnnuityFV, map[string]float64{"C": 1000, "r": 0.02, "x": 1})
		Expect(err).To(MatchError(dispatch.ErrUnknownVariable))
	})
})

var _ = Describe("Registry", func() {
	It("lists base and composed families", func() {
		r := NewRegistry()
		Expect(r.ListFamilies()).To(Equal([]string{
			FamilyAnnuity, FamilyAnnuityFV, FamilyAnnuityPV, FamilyEAR,
			FamilyPerpetuity, FamilyStockPrice, FamilyTMV, FamilyYTM,
		}))
		Expect(r.IsComposite(FamilyAnnuityFV)).To(BeTrue())

		vars, err := r.Vars(FamilyYTM)
		Expect(err).NotTo(HaveOccurred())
		Expect(vars).To(Equal(formula.Symbols{"cpn", "fv", "n", "p", "ytm"}))

		_, err = r.GetFamily(FamilyAnnuityFV)
		Expect(err).To(MatchError("unknown family: annuity_fv"))
	})
})

func without(m map[string]float64, key string) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}
