package symbolic

import (
	"strconv"
	"strings"
)

// Rendering uses ** for powers and parenthesises anything that is not an
// atom before a sign, so the output parses with govaluate as well as reading
// naturally in logs.

func (n *Num) String() string { return strconv.FormatFloat(n.val, 'f', -1, 64) }

func (a *Add) String() string {
	var b strings.Builder
	for i, t := range a.terms {
		neg, body := negated(t)
		switch {
		case i == 0 && neg:
			b.WriteString("-")
			b.WriteString(wrap(body, body.prec() < precAtom))
		case i == 0:
			b.WriteString(body.String())
		case neg:
			b.WriteString(" - ")
			b.WriteString(wrap(body, body.prec() < precProduct))
		default:
			b.WriteString(" + ")
			b.WriteString(wrap(body, body.prec() < precProduct))
		}
	}
	return b.String()
}

func (m *Mul) String() string {
	coef := 1.0
	var num, den []Expr
	for _, f := range m.factors {
		if n, ok := f.(*Num); ok {
			coef *= n.val
			continue
		}
		if p, ok := f.(*Pow); ok {
			if neg, mag := negated(p.exp); neg {
				den = append(den, PowOf(p.base, mag))
				continue
			}
		}
		num = append(num, f)
	}

	var b strings.Builder
	switch {
	case len(num) == 0:
		b.WriteString(N(coef).String())
	case coef == -1 && num[0].prec() == precAtom:
		b.WriteString("-")
	case coef != 1:
		b.WriteString(N(coef).String())
		b.WriteString(" * ")
	}
	for i, f := range num {
		if i > 0 {
			b.WriteString(" * ")
		}
		b.WriteString(wrap(f, f.prec() < precProduct))
	}
	if len(den) > 0 {
		b.WriteString(" / ")
		if len(den) == 1 {
			b.WriteString(wrap(den[0], den[0].prec() < precPower))
		} else {
			parts := make([]string, len(den))
			for i, f := range den {
				parts[i] = wrap(f, f.prec() < precProduct)
			}
			b.WriteString("(" + strings.Join(parts, " * ") + ")")
		}
	}
	return b.String()
}

func (p *Pow) String() string {
	return wrap(p.base, p.base.prec() <= precPower) + " ** " + wrap(p.exp, p.exp.prec() < precAtom)
}

func wrap(e Expr, paren bool) string {
	if paren {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// negated reports whether e carries a negative sign and returns its
// magnitude, so sums print as a - b rather than a + -1 * b.
func negated(e Expr) (bool, Expr) {
	switch e := e.(type) {
	case *Num:
		if e.val < 0 {
			return true, N(-e.val)
		}
	case *Mul:
		if n, ok := e.factors[0].(*Num); ok && n.val < 0 {
			rest := append([]Expr{N(-n.val)}, e.factors[1:]...)
			return true, MulOf(rest...)
		}
	}
	return false, e
}
