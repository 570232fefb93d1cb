// Package display renders solver results for the terminal: grouped-digit
// numbers, styled result lines and residual plots.
package display

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type Formatter struct {
	printer *message.Printer
	places  int
}

func NewFormatter(tag language.Tag, places int) *Formatter {
	if places < 0 {
		places = 0
	}
	return &Formatter{printer: message.NewPrinter(tag), places: places}
}

// DefaultFormatter groups digits the English way with four decimals.
func DefaultFormatter() *Formatter { return NewFormatter(language.English, 4) }

// Number renders v with grouped digits and a fixed number of decimals.
func (f *Formatter) Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return f.printer.Sprint(v)
	}
	return f.printer.Sprint(number.Decimal(v, number.Scale(f.places)))
}
