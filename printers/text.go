package printers

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fwcheck/fwcheck/results"
)

// textPrinter is the line-oriented core of ColorPrinter and PlainPrinter.
// The mutex keeps concurrent writers from interleaving inside a line.
type textPrinter struct {
	mu    sync.Mutex
	opt   options
	paint paintFunc
}

func (p *textPrinter) options() *options {
	return &p.opt
}

func (p *textPrinter) writer() io.Writer {
	if p.opt.Writer == nil {
		return os.Stdout
	}
	return p.opt.Writer
}

func (p *textPrinter) write(e Entry) {
	line := compose(e, p.opt.timestamp(), p.paint)

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.writer(), line)
}

// Log writes one entry when verbose output is enabled.
func (p *textPrinter) Log(e Entry) {
	if !p.opt.Verbose {
		return
	}
	p.write(e)
}

// PrintProbeStart opens the line of a probe. PrintProbeResult closes it.
func (p *textPrinter) PrintProbeStart(r *results.ProbeResult) {
	p.Log(Entry{Message: probeStartMessage(r), Indent: 2, NoNewline: true})
}

// PrintProbeResult prints the OPEN/CLOSED classification of a probe.
func (p *textPrinter) PrintProbeResult(r *results.ProbeResult) {
	p.Log(stateEntry(r))
}

// PrintSummary prints the totals of a client run.
func (p *textPrinter) PrintSummary(s *results.Summary) {
	p.Log(Entry{Message: "Scan finished: " + summaryMessage(s), Severity: Good, Bold: true})
}

// PrintError prints an error message regardless of verbosity.
func (p *textPrinter) PrintError(format string, args ...any) {
	p.write(Entry{Message: fmt.Sprintf(format, args...), Severity: Err, Bold: true})
}
