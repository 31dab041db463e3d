package printers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fwcheck/fwcheck/option"
	"github.com/fwcheck/fwcheck/results"
)

// JSONEventType tells consumers which printer method produced an event.
type JSONEventType string

const (
	logEvent     JSONEventType = "log"     // Event type for `Log`.
	probeEvent   JSONEventType = "probe"   // Event type for `PrintProbeResult`.
	summaryEvent JSONEventType = "summary" // Event type for `PrintSummary`.
	errorEvent   JSONEventType = "error"   // Event type for `PrintError`.
)

// JSONData contains all possible fields for JSON output.
// One event usually fills a subset, the rest is omitted.
type JSONData struct {
	Type      JSONEventType `json:"type"`
	Severity  *Severity     `json:"severity,omitempty"`
	Timestamp string        `json:"timestamp,omitempty"`
	Message   string        `json:"message"`

	Host  string         `json:"host,omitempty"`
	Port  uint16         `json:"port,omitempty"`
	State *results.State `json:"state,omitempty"`
	// Latency is the connect time in ms with 3 decimal places.
	Latency string `json:"latency,omitempty"`

	TotalProbes   uint   `json:"totalProbes,omitempty"`
	OpenProbes    uint   `json:"openProbes,omitempty"`
	ClosedProbes  uint   `json:"closedProbes,omitempty"`
	SkippedPorts  uint   `json:"skippedPorts,omitempty"`
	TotalDuration string `json:"totalDuration,omitempty"`
}

// JSONPrinter writes one JSON object per line.
type JSONPrinter struct {
	mu     sync.Mutex
	opt    options
	pretty bool
}

type JSONPrinterOption = option.Option[JSONPrinter]

func (p *JSONPrinter) options() *options {
	return &p.opt
}

// WithPrettyJSON indents the output.
func WithPrettyJSON() JSONPrinterOption {
	return func(p *JSONPrinter) {
		p.pretty = true
	}
}

// NewJSONPrinter creates a new JSONPrinter instance.
func NewJSONPrinter(opts ...JSONPrinterOption) *JSONPrinter {
	p := &JSONPrinter{}
	option.Apply(p, opts...)
	return p
}

func (p *JSONPrinter) encode(data JSONData) {
	if p.opt.ShowTimestamp {
		data.Timestamp = time.Now().Format(time.DateTime)
	}

	var w io.Writer = os.Stdout
	if p.opt.Writer != nil {
		w = p.opt.Writer
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	encoder := json.NewEncoder(w)
	if p.pretty {
		encoder.SetIndent("", "\t")
	}
	encoder.Encode(data)
}

// Log prints a log event when verbose output is enabled.
func (p *JSONPrinter) Log(e Entry) {
	if !p.opt.Verbose {
		return
	}

	sev := e.Severity
	p.encode(JSONData{
		Type:     logEvent,
		Severity: &sev,
		Message:  strings.TrimSpace(e.Message),
	})
}

// PrintProbeStart satisfies the "printer" interface but does nothing in this implementation
func (p *JSONPrinter) PrintProbeStart(_ *results.ProbeResult) {}

// PrintProbeResult prints a probe event.
func (p *JSONPrinter) PrintProbeResult(r *results.ProbeResult) {
	if !p.opt.Verbose {
		return
	}

	state := r.State
	p.encode(JSONData{
		Type:    probeEvent,
		Message: fmt.Sprintf("Port %s is %s", r.Addr(), r.State),
		Host:    r.Host,
		Port:    r.Port,
		State:   &state,
		Latency: r.RTTStr(),
	})
}

// PrintSummary prints a summary event.
func (p *JSONPrinter) PrintSummary(s *results.Summary) {
	if !p.opt.Verbose {
		return
	}

	p.encode(JSONData{
		Type:          summaryEvent,
		Message:       summaryMessage(s),
		TotalProbes:   s.Total(),
		OpenProbes:    s.Open,
		ClosedProbes:  s.Closed,
		SkippedPorts:  s.Skipped,
		TotalDuration: fmt.Sprintf("%.3f", s.Duration().Seconds()),
	})
}

// PrintError prints an error event regardless of verbosity.
func (p *JSONPrinter) PrintError(format string, args ...any) {
	sev := Err
	p.encode(JSONData{
		Type:     errorEvent,
		Severity: &sev,
		Message:  fmt.Sprintf(format, args...),
	})
}
