// Package fwcheck verifies TCP reachability between a client role that
// probes declared targets and a server role that keeps declared ports
// listening and answers liveness probes.
package fwcheck

import (
	"context"
	"fmt"
	"io"

	"github.com/fwcheck/fwcheck/pingers"
	"github.com/fwcheck/fwcheck/printers"
	"github.com/fwcheck/fwcheck/results"
)

var (
	// List of compile time checks for all pingers
	_ Pinger = (*pingers.TCPPinger)(nil)

	_ Printer = (*printers.ColorPrinter)(nil)
	_ Printer = (*printers.PlainPrinter)(nil)
	_ Printer = (*printers.JSONPrinter)(nil)
)

// Pinger defines the interface for network connectivity testing implementations.
type Pinger interface {
	Ping(ctx context.Context) error
	Host() string
	Port() uint16
}

// Printer is the log sink shared by the scanner and the server.
// Implementations must serialize writes so lines never interleave.
type Printer interface {
	// Log prints one entry. It is a no-op unless verbose output is enabled.
	Log(e printers.Entry)

	// PrintProbeStart opens the line of a probe before the attempt is made.
	PrintProbeStart(r *results.ProbeResult)

	// PrintProbeResult closes the probe line with its classification.
	PrintProbeResult(r *results.ProbeResult)

	// PrintSummary prints the totals after a client run.
	PrintSummary(s *results.Summary)

	// PrintError prints an error message even when not verbose.
	// Printer should also apply \n to the given string, if needed.
	PrintError(format string, args ...any)
}

// PrinterConfig holds all configuration options for Printer creation
type PrinterConfig struct {
	Verbose       bool
	OutputJSON    bool
	PrettyJSON    bool
	NoColor       bool
	WithTimestamp bool
	// Writer defaults to stdout.
	Writer io.Writer
}

// NewPrinter creates and returns an appropriate printer based on configuration
func NewPrinter(cfg PrinterConfig) (Printer, error) {
	if cfg.PrettyJSON && !cfg.OutputJSON {
		return nil, fmt.Errorf("--pretty has no effect without the -j flag")
	}

	switch {
	case cfg.OutputJSON:
		var opts []printers.JSONPrinterOption
		if cfg.PrettyJSON {
			opts = append(opts, printers.WithPrettyJSON())
		}
		if cfg.Verbose {
			opts = append(opts, printers.WithVerbose[*printers.JSONPrinter]())
		}
		if cfg.WithTimestamp {
			opts = append(opts, printers.WithTimestamp[*printers.JSONPrinter]())
		}
		if cfg.Writer != nil {
			opts = append(opts, printers.WithWriter[*printers.JSONPrinter](cfg.Writer))
		}
		return printers.NewJSONPrinter(opts...), nil

	case cfg.NoColor:
		var opts []printers.PlainPrinterOption
		if cfg.Verbose {
			opts = append(opts, printers.WithVerbose[*printers.PlainPrinter]())
		}
		if cfg.WithTimestamp {
			opts = append(opts, printers.WithTimestamp[*printers.PlainPrinter]())
		}
		if cfg.Writer != nil {
			opts = append(opts, printers.WithWriter[*printers.PlainPrinter](cfg.Writer))
		}
		return printers.NewPlainPrinter(opts...), nil

	default:
		var opts []printers.ColorPrinterOption
		if cfg.Verbose {
			opts = append(opts, printers.WithVerbose[*printers.ColorPrinter]())
		}
		if cfg.WithTimestamp {
			opts = append(opts, printers.WithTimestamp[*printers.ColorPrinter]())
		}
		if cfg.Writer != nil {
			opts = append(opts, printers.WithWriter[*printers.ColorPrinter](cfg.Writer))
		}
		return printers.NewColorPrinter(opts...), nil
	}
}
