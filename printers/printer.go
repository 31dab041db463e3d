// Package printers contains the logic for printing information
package printers

import (
	"fmt"
	"strings"

	"github.com/gookit/color"

	"github.com/fwcheck/fwcheck/results"
)

// Severity of a log entry. It selects the prefix and color of a line.
type Severity int

const (
	Info Severity = iota
	Good
	Warn
	Err
)

func (s Severity) String() string {
	switch s {
	case Good:
		return "good"
	case Warn:
		return "warn"
	case Err:
		return "err"
	default:
		return "info"
	}
}

// MarshalText is used by the JSON printer.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "info":
		*s = Info
	case "good":
		*s = Good
	case "warn":
		*s = Warn
	case "err":
		*s = Err
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

// Entry is one call into the log sink.
type Entry struct {
	Message  string
	Severity Severity
	// Indent is the number of leading tabs.
	Indent int
	// Bold emphasises the message.
	Bold bool
	// NoPrefix drops the severity prefix and paints the message itself
	// with the severity color instead. Used to finish a NoNewline line.
	NoPrefix bool
	// NoNewline leaves the line open for a follow-up entry.
	NoNewline bool
}

type style struct {
	prefix string
	color  color.Color
}

var styles = map[Severity]style{
	Info: {prefix: "** ", color: color.FgCyan},
	Good: {prefix: "** ", color: color.FgGreen},
	Warn: {prefix: "*! ", color: color.FgYellow},
	Err:  {prefix: "!! !! ", color: color.FgRed},
}

func styleFor(s Severity) style {
	if st, ok := styles[s]; ok {
		return st
	}
	return styles[Info]
}

// paintFunc decorates one piece of a line. c == 0 means no foreground color.
type paintFunc func(c color.Color, s string, bold bool) string

func noPaint(_ color.Color, s string, _ bool) string {
	return s
}

func ansiPaint(c color.Color, s string, bold bool) string {
	var st color.Style
	if c != 0 {
		st = append(st, c)
	}
	if bold {
		st = append(st, color.OpBold)
	}
	if len(st) == 0 {
		return s
	}
	return st.Sprint(s)
}

// compose renders an entry as the text written to the terminal.
// timestamp is empty when timestamps are disabled.
func compose(e Entry, timestamp string, paint paintFunc) string {
	st := styleFor(e.Severity)

	var b strings.Builder
	b.WriteString(strings.Repeat("\t", max(e.Indent, 0)))

	if e.NoPrefix {
		b.WriteString(paint(st.color, e.Message, true))
	} else {
		if timestamp != "" {
			b.WriteString(paint(color.FgWhite, timestamp, true))
			b.WriteByte(' ')
		}
		b.WriteString(paint(st.color, st.prefix, true))
		b.WriteString(paint(0, e.Message, e.Bold))
	}

	if !e.NoNewline {
		b.WriteByte('\n')
	}

	return b.String()
}

func probeStartMessage(r *results.ProbeResult) string {
	return fmt.Sprintf("Testing port %s...\t", r.Addr())
}

func summaryMessage(s *results.Summary) string {
	msg := fmt.Sprintf("%d probes, %d open, %d closed", s.Total(), s.Open, s.Closed)
	if s.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", s.Skipped)
	}
	return msg + fmt.Sprintf(" in %s", results.DurationToString(s.Duration()))
}

// stateEntry finishes the line opened by probeStartMessage.
func stateEntry(r *results.ProbeResult) Entry {
	if r.State == results.Open {
		return Entry{Message: "[OPENED]", Severity: Good, NoPrefix: true}
	}
	return Entry{Message: "[CLOSED]", Severity: Err, NoPrefix: true}
}
