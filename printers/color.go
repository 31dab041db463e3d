package printers

import (
	"github.com/fwcheck/fwcheck/option"
)

// ColorPrinter prints log entries with ANSI colors using gookit/color.
// Colors are dropped automatically when the terminal lacks support.
type ColorPrinter struct {
	textPrinter
}

type ColorPrinterOption = option.Option[ColorPrinter]

// NewColorPrinter creates a new ColorPrinter instance.
func NewColorPrinter(opts ...ColorPrinterOption) *ColorPrinter {
	p := &ColorPrinter{textPrinter: textPrinter{paint: ansiPaint}}
	option.Apply(p, opts...)
	return p
}
