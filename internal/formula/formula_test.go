package formula

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/san-kum/finsolve/internal/symbolic"
)

var (
	one = symbolic.N(1)
	s   = symbolic.S
)

func tmv(t *testing.T) *Family {
	t.Helper()
	expr := symbolic.DivOf(s("fv"), symbolic.PowOf(symbolic.AddOf(one, s("r")), s("n")))
	f, err := NewFamily("tmv", "pv", expr)
	if err != nil {
		t.Fatalf("failed to build family: %v", err)
	}
	return f
}

func annuity(t *testing.T, opts ...FamilyOption) *Family {
	t.Helper()
	growth := symbolic.PowOf(symbolic.AddOf(one, s("r")), symbolic.NegOf(s("n")))
	expr := symbolic.MulOf(symbolic.DivOf(s("C"), s("r")), symbolic.SubOf(one, growth))
	f, err := NewFamily("annuity_pv", "pv", expr, opts...)
	if err != nil {
		t.Fatalf("failed to build family: %v", err)
	}
	return f
}

func ear(t *testing.T, opts ...FamilyOption) *Family {
	t.Helper()
	base := symbolic.AddOf(one, symbolic.DivOf(s("apr"), s("m")))
	f, err := NewFamily("ear", "ear", symbolic.SubOf(symbolic.PowOf(base, s("m")), one), opts...)
	if err != nil {
		t.Fatalf("failed to build family: %v", err)
	}
	return f
}

func TestSymbolsCanonicalOrder(t *testing.T) {
	got := NewSymbols("r", "fv", "n", "pv", "C", "fv")
	expected := Symbols{"C", "fv", "n", "pv", "r"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}

	if got.Index("n") != 2 {
		t.Errorf("expected n at 2, got %d", got.Index("n"))
	}
	if got.Contains("x") {
		t.Error("unexpected symbol x")
	}
	if w := got.Without("n"); !reflect.DeepEqual(w, Symbols{"C", "fv", "pv", "r"}) {
		t.Errorf("unexpected Without result %v", w)
	}
}

func TestNewFamilyValidation(t *testing.T) {
	expr := symbolic.DivOf(s("C"), s("r"))
	tests := []struct {
		name string
		opts []FamilyOption
	}{
		{"fallback on unknown var", []FamilyOption{WithFallback("x", Domain{0, 1})}},
		{"empty domain", []FamilyOption{WithFallback("r", Domain{1, 1})}},
		{"label on unknown var", []FamilyOption{WithLabel("x", "X")}},
		{"unknown unsolvable", []FamilyOption{WithUnsolvable("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFamily("perpetuity", "pv", expr, tt.opts...); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := NewFamily("bad", "r", expr); err == nil {
		t.Error("expected error when target appears in expression")
	}
}

func TestDeriveTMV(t *testing.T) {
	set, err := Derive(tmv(t), nil)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	for _, sv := range set.Solvers() {
		if sv.Kind != Solved {
			t.Errorf("%s: expected closed form, got %s", sv.Var, sv.Kind)
		}
	}

	pv, _ := set.Solver("pv")
	if !reflect.DeepEqual(pv.Args, Symbols{"fv", "n", "r"}) {
		t.Fatalf("unexpected pv args %v", pv.Args)
	}
	got, err := pv.Eval([]float64{1000, 10, 0.02})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if math.Abs(got-820.3483) > 1e-4 {
		t.Errorf("expected pv 820.3483, got %f", got)
	}

	if _, err := pv.Eval([]float64{1000}); err == nil {
		t.Error("expected error for short argument list")
	}
}

func TestDeriveNumericFallback(t *testing.T) {
	set, err := Derive(annuity(t, WithFallback("r", Domain{0, 1})), nil)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	r, _ := set.Solver("r")
	if r.Kind != Numeric {
		t.Fatalf("expected numeric solver for r, got %s", r.Kind)
	}
	if _, err := r.Eval([]float64{1000, 10, 8982.585}); err == nil {
		t.Error("expected Eval to refuse a numeric solver")
	}

	// args: C, n, pv
	f, df, err := r.Bind([]float64{1000, 10, 8982.585006})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if v := f(0.02); math.Abs(v) > 1e-3 {
		t.Errorf("expected residual near 0 at r=0.02, got %f", v)
	}
	if df(0.02) == 0 {
		t.Error("expected non-zero slope")
	}

	n, _ := set.Solver("n")
	if n.Kind != Solved {
		t.Errorf("expected closed form for n, got %s", n.Kind)
	}
}

func TestDeriveUnsolvable(t *testing.T) {
	if _, err := Derive(ear(t), nil); !errors.Is(err, ErrUnsolvableVariable) {
		t.Fatalf("expected ErrUnsolvableVariable for undeclared m, got %v", err)
	}

	set, err := Derive(ear(t, WithUnsolvable("m")), nil)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	m, _ := set.Solver("m")
	if m.Kind != Unsolvable {
		t.Fatalf("expected m unsolvable, got %s", m.Kind)
	}
	if _, err := m.Eval([]float64{0.12, 0.1268}); !errors.Is(err, ErrUnsolvableVariable) {
		t.Errorf("expected ErrUnsolvableVariable, got %v", err)
	}

	// args: apr, ear
	f, _, err := m.Bind([]float64{0.12, 0.126825030131969})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if v := f(12); math.Abs(v) > 1e-12 {
		t.Errorf("expected zero residual at m=12, got %g", v)
	}
}

func TestCacheBuildsOnce(t *testing.T) {
	c := NewCache(nil)
	f := tmv(t)

	var wg sync.WaitGroup
	sets := make([]*SolverSet, 32)
	for i := range sets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set, err := c.Load(f)
			if err != nil {
				t.Errorf("load failed: %v", err)
			}
			sets[i] = set
		}(i)
	}
	wg.Wait()

	if c.Builds() != 1 {
		t.Errorf("expected 1 build, got %d", c.Builds())
	}
	for i := 1; i < len(sets); i++ {
		if sets[i] != sets[0] {
			t.Fatal("expected every caller to share one solver set")
		}
	}
}

func TestCacheKeepsFailure(t *testing.T) {
	c := NewCache(nil)
	calls := 0
	build := func() (*SolverSet, error) {
		calls++
		return nil, errors.New("boom")
	}

	for i := 0; i < 3; i++ {
		if _, err := c.Get("broken", build); err == nil {
			t.Error("expected cached error")
		}
	}
	if calls != 1 {
		t.Errorf("expected builder to run once, ran %d times", calls)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestCheck(t *testing.T) {
	f := tmv(t)
	r, err := Check(f, map[string]float64{"pv": 820.3483, "fv": 1000, "r": 0.02, "n": 10})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if math.Abs(r) > 1e-3 {
		t.Errorf("expected residual near 0, got %f", r)
	}

	if _, err := Check(f, map[string]float64{"fv": 1000}); err == nil {
		t.Error("expected error for missing values")
	}
}

func TestCheckFunctions(t *testing.T) {
	f, err := NewFamily("growth", "y", symbolic.ExpOf(symbolic.MulOf(s("k"), s("t"))))
	if err != nil {
		t.Fatalf("failed to build family: %v", err)
	}
	r, err := Check(f, map[string]float64{"y": math.E, "k": 1, "t": 1})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if math.Abs(r) > 1e-12 {
		t.Errorf("expected zero residual, got %g", r)
	}
}
