package symbolic

import (
	"errors"
	"math"
	"testing"
)

func tmvExpr() Expr {
	// pv = fv / (1+r)^n
	return DivOf(S("fv"), PowOf(AddOf(N(1), S("r")), S("n")))
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"difference", SubOf(S("a"), S("b")), "a - b"},
		{"quotient", DivOf(S("C"), S("r")), "C / r"},
		{"negative exponent", PowOf(AddOf(N(1), S("r")), NegOf(S("n"))), "(1 + r) ** (-n)"},
		{"reciprocal power", tmvExpr(), "fv / (1 + r) ** n"},
		{"constant folding", AddOf(N(2), N(3), S("x")), "5 + x"},
		{"like terms", AddOf(S("x"), S("x")), "2 * x"},
		{"cancellation", MulOf(S("r"), PowOf(S("r"), N(-1)), S("C")), "C"},
		{"log", LnOf(AddOf(N(1), S("r"))), "ln(1 + r)"},
	}

	for _, tt := range tests {
		if got := tt.expr.String(); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestPowerNormalisation(t *testing.T) {
	a := DivOf(N(1), PowOf(AddOf(N(1), S("y")), S("n")))
	b := PowOf(AddOf(S("y"), N(1)), NegOf(S("n")))
	if !a.Equal(b) {
		t.Errorf("expected %s and %s to be structurally equal", a, b)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		at   map[string]float64
		want float64
	}{
		{"square", PowOf(S("x"), N(2)), map[string]float64{"x": 3}, 6},
		{"product", MulOf(S("x"), S("y")), map[string]float64{"x": 3, "y": 4}, 4},
		{"exponential base", PowOf(N(2), S("x")), map[string]float64{"x": 1}, 2 * math.Ln2},
		{"log", LnOf(S("x")), map[string]float64{"x": 4}, 0.25},
		{"exp", ExpOf(MulOf(N(2), S("x"))), map[string]float64{"x": 0}, 2},
	}

	for _, tt := range tests {
		d := tt.expr.Diff("x")
		got, err := Eval(d, tt.at)
		if err != nil {
			t.Fatalf("%s: eval failed: %v", tt.name, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.want, got)
		}
	}
}

func TestCompileUnboundSymbol(t *testing.T) {
	if _, err := Compile(tmvExpr(), []string{"fv", "r"}); err == nil {
		t.Error("expected error for unbound symbol n")
	}
}

func TestCompileArgumentOrder(t *testing.T) {
	fn, err := Compile(SubOf(S("a"), S("b")), []string{"b", "a"})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if got := fn([]float64{1, 5}); got != 4 {
		t.Errorf("expected 4, got %f", got)
	}
}

func TestSolveTMV(t *testing.T) {
	eq := Eq(S("pv"), tmvExpr())
	values := map[string]float64{"pv": 1000, "fv": 1218.9944199947574, "r": 0.02, "n": 10}

	for _, name := range []string{"pv", "fv", "r", "n"} {
		expr, err := Solve(eq, name)
		if err != nil {
			t.Fatalf("solve for %s failed: %v", name, err)
		}
		if expr.Has(name) {
			t.Fatalf("solution for %s still contains it: %s", name, expr)
		}

		env := make(map[string]float64)
		for k, v := range values {
			if k != name {
				env[k] = v
			}
		}
		got, err := Eval(expr, env)
		if err != nil {
			t.Fatalf("eval %s failed: %v", name, err)
		}
		if math.Abs(got-values[name]) > 1e-9*math.Max(1, values[name]) {
			t.Errorf("%s: expected %f, got %f (from %s)", name, values[name], got, expr)
		}
	}
}

func TestSolveSharedKernel(t *testing.T) {
	// p = cpn/y (1 - (1+y)^-n) + fv/(1+y)^n is linear in (1+y)^-n.
	y := S("ytm")
	k := PowOf(AddOf(N(1), y), NegOf(S("n")))
	p := AddOf(
		MulOf(S("cpn"), PowOf(y, N(-1)), SubOf(N(1), k)),
		DivOf(S("fv"), PowOf(AddOf(N(1), y), S("n"))),
	)
	eq := Eq(S("p"), p)

	n, err := Solve(eq, "n")
	if err != nil {
		t.Fatalf("solve for n failed: %v", err)
	}
	got, err := Eval(n, map[string]float64{"ytm": 0.03, "cpn": 25, "fv": 1000, "p": 957.3490})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if math.Abs(got-10) > 1e-4 {
		t.Errorf("expected n=10, got %f", got)
	}

	if _, err := Solve(eq, "ytm"); !errors.Is(err, ErrNoClosedForm) {
		t.Errorf("expected ErrNoClosedForm for ytm, got %v", err)
	}
}

func TestSolveBaseAndExponent(t *testing.T) {
	// ear = (1 + apr/m)^m - 1
	m := S("m")
	eq := Eq(S("ear"), SubOf(PowOf(AddOf(N(1), DivOf(S("apr"), m)), m), N(1)))

	if _, err := Solve(eq, "m"); !errors.Is(err, ErrNoClosedForm) {
		t.Errorf("expected ErrNoClosedForm for m, got %v", err)
	}

	apr, err := Solve(eq, "apr")
	if err != nil {
		t.Fatalf("solve for apr failed: %v", err)
	}
	got, _ := Eval(apr, map[string]float64{"ear": math.Pow(1+0.12/12, 12) - 1, "m": 12})
	if math.Abs(got-0.12) > 1e-12 {
		t.Errorf("expected apr 0.12, got %f", got)
	}
}

func TestSolveLogAndExp(t *testing.T) {
	eq := Eq(S("y"), MulOf(N(3), ExpOf(MulOf(N(2), S("x")))))
	x, err := Solve(eq, "x")
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	got, _ := Eval(x, map[string]float64{"y": 3 * math.Exp(1)})
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestSolveMissingSymbol(t *testing.T) {
	if _, err := Solve(Eq(S("a"), S("b")), "c"); !errors.Is(err, ErrNoClosedForm) {
		t.Errorf("expected ErrNoClosedForm, got %v", err)
	}
}

func TestFreeSymbols(t *testing.T) {
	got := FreeSymbols(tmvExpr())
	want := []string{"fv", "n", "r"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestSub(t *testing.T) {
	e := Sub(tmvExpr(), "n", N(0))
	if e.String() != "fv" {
		t.Errorf("expected fv, got %s", e)
	}
}
