package formula

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

var checkFuncs = map[string]govaluate.ExpressionFunction{
	"ln": func(args ...interface{}) (interface{}, error) {
		x, err := argFloat(args)
		if err != nil {
			return nil, err
		}
		return math.Log(x), nil
	},
	"exp": func(args ...interface{}) (interface{}, error) {
		x, err := argFloat(args)
		if err != nil {
			return nil, err
		}
		return math.Exp(x), nil
	},
}

// Check re-parses the family's equation from its text form and returns
// Target - Expr evaluated at values. It shares no code path with the
// compiled solvers, so a near-zero residual confirms a solved point
// independently.
func Check(f *Family, values map[string]float64) (float64, error) {
	text := fmt.Sprintf("%s - (%s)", f.Target, f.Expr)
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(text, checkFuncs)
	if err != nil {
		return math.NaN(), fmt.Errorf("parse %q: %w", text, err)
	}

	params := make(map[string]interface{}, len(values))
	for _, v := range f.Vars {
		x, ok := values[v]
		if !ok {
			return math.NaN(), fmt.Errorf("check %s: missing value for %s", f.Name, v)
		}
		params[v] = x
	}

	out, err := expr.Evaluate(params)
	if err != nil {
		return math.NaN(), fmt.Errorf("check %s: %w", f.Name, err)
	}
	r, ok := out.(float64)
	if !ok {
		return math.NaN(), fmt.Errorf("check %s: non-numeric result %T", f.Name, out)
	}
	return r, nil
}

func argFloat(args []interface{}) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	x, ok := args[0].(float64)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", args[0])
	}
	return x, nil
}
