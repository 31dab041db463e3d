package fwcheck_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwcheck/fwcheck"
	"github.com/fwcheck/fwcheck/printers"
)

func TestNewPrinter(t *testing.T) {
	tests := []struct {
		name string
		cfg  fwcheck.PrinterConfig
		want fwcheck.Printer
	}{
		{name: "default is colored", cfg: fwcheck.PrinterConfig{}, want: &printers.ColorPrinter{}},
		{name: "no color", cfg: fwcheck.PrinterConfig{NoColor: true}, want: &printers.PlainPrinter{}},
		{name: "json", cfg: fwcheck.PrinterConfig{OutputJSON: true}, want: &printers.JSONPrinter{}},
		{name: "json wins over no color", cfg: fwcheck.PrinterConfig{OutputJSON: true, NoColor: true}, want: &printers.JSONPrinter{}},
		{name: "pretty json", cfg: fwcheck.PrinterConfig{OutputJSON: true, PrettyJSON: true}, want: &printers.JSONPrinter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := fwcheck.NewPrinter(tt.cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}
}

func TestNewPrinter_PrettyRequiresJSON(t *testing.T) {
	_, err := fwcheck.NewPrinter(fwcheck.PrinterConfig{PrettyJSON: true})
	assert.Error(t, err)
}

func TestNewPrinter_Options(t *testing.T) {
	var buf bytes.Buffer

	p, err := fwcheck.NewPrinter(fwcheck.PrinterConfig{Verbose: true, NoColor: true, Writer: &buf})
	require.NoError(t, err)

	p.Log(printers.Entry{Message: "hello", Severity: printers.Warn, Indent: 1})
	assert.Equal(t, "\t*! hello\n", buf.String())

	buf.Reset()
	quiet, err := fwcheck.NewPrinter(fwcheck.PrinterConfig{NoColor: true, Writer: &buf})
	require.NoError(t, err)

	quiet.Log(printers.Entry{Message: "hidden"})
	assert.Empty(t, buf.String())

	quiet.PrintError("failed: %d", 3)
	assert.Equal(t, "!! !! failed: 3\n", buf.String())
}
