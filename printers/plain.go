package printers

import (
	"github.com/fwcheck/fwcheck/option"
)

// PlainPrinter prints the same lines as ColorPrinter without escape codes.
type PlainPrinter struct {
	textPrinter
}

type PlainPrinterOption = option.Option[PlainPrinter]

// NewPlainPrinter creates a new PlainPrinter instance.
func NewPlainPrinter(opts ...PlainPrinterOption) *PlainPrinter {
	p := &PlainPrinter{textPrinter: textPrinter{paint: noPaint}}
	option.Apply(p, opts...)
	return p
}
