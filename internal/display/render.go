package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/finsolve/internal/dispatch"
	"github.com/san-kum/finsolve/internal/formula"
)

// Result renders "LABEL = value", or a notice when nothing was calculated.
func (f *Formatter) Result(res dispatch.Result) string {
	if !res.Calculated() {
		return Subtle.Render("all values supplied, nothing to calculate")
	}
	line := Label.Render(res.Label+" =") + " " + Value.Render(f.Number(res.Value))
	if res.Method == formula.Numeric && res.Scan != nil {
		line += Subtle.Render(fmt.Sprintf("  (numeric: %d roots, %d failed guesses)", len(res.Scan.Roots), res.Scan.Failed))
	}
	return line
}

// Derivation lists each variable of a solver set with how it is computed.
func Derivation(set *formula.SolverSet) string {
	f := set.Family
	var b strings.Builder
	b.WriteString(Title.Render(f.Name) + "  " + Subtle.Render(f.Equation().String()) + "\n")

	for _, sv := range set.Solvers() {
		kind := sv.Kind.String()
		b.WriteString(fmt.Sprintf("  %-6s %s  ", sv.Var, kindStyles[kind].Render(fmt.Sprintf("%-11s", kind))))
		switch sv.Kind {
		case formula.Solved:
			b.WriteString(sv.Equation.String())
		case formula.Numeric:
			b.WriteString(fmt.Sprintf("scan [%g, %g) on %s", sv.Domain.Lo, sv.Domain.Hi, sv.Equation))
		default:
			b.WriteString(Subtle.Render("no closed form"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Plot samples fn over [lo, hi) and draws it. Non-finite samples are
// dropped.
func Plot(fn func(float64) float64, lo, hi float64, samples, width, height int, caption string) (string, error) {
	if samples < 2 {
		return "", fmt.Errorf("need at least 2 samples, got %d", samples)
	}
	if !(hi > lo) {
		return "", fmt.Errorf("empty plot range [%g, %g)", lo, hi)
	}

	data := make([]float64, 0, samples)
	for i := 0; i < samples; i++ {
		y := fn(lo + (hi-lo)*float64(i)/float64(samples))
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		data = append(data, y)
	}
	if len(data) < 2 {
		return "", fmt.Errorf("fewer than 2 finite samples in [%g, %g)", lo, hi)
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

// PlotSeries draws data as is.
func PlotSeries(data []float64, width, height int, caption string) (string, error) {
	if len(data) < 2 {
		return "", fmt.Errorf("need at least 2 points, got %d", len(data))
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}
