// Package results holds probe classifications and the summary of a scan.
package results

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"time"
)

// State is the binary classification of a probed port.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "OPEN"
	}
	return "CLOSED"
}

// MarshalText lets JSON output carry "OPEN"/"CLOSED" instead of numbers.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "OPEN":
		*s = Open
	case "CLOSED":
		*s = Closed
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

// ProbeResult is the outcome of one connection attempt.
type ProbeResult struct {
	Host  string        `json:"host"`
	Port  uint16        `json:"port"`
	State State         `json:"state"`
	RTT   time.Duration `json:"-"`
}

// Addr returns host:port, bracketing IPv6 literals.
func (r ProbeResult) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(int(r.Port)))
}

// RTTStr is the connect time in milliseconds with 3 decimal places.
func (r ProbeResult) RTTStr() string {
	return fmt.Sprintf("%.3f", NanoToMillisecond(r.RTT.Nanoseconds()))
}

// Summary aggregates the results of one client run.
type Summary struct {
	StartTime time.Time
	EndTime   time.Time
	Results   []ProbeResult

	Open    uint
	Closed  uint
	Skipped uint // invalid port declarations
}

// Add records a result.
func (s *Summary) Add(r ProbeResult) {
	s.Results = append(s.Results, r)
	if r.State == Open {
		s.Open++
		return
	}
	s.Closed++
}

// Total is the number of probes that were actually attempted.
func (s *Summary) Total() uint {
	return s.Open + s.Closed
}

// Duration is how long the scan took.
func (s *Summary) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// DurationToString creates a human-readable string for a given duration
func DurationToString(duration time.Duration) string {
	hours := math.Floor(duration.Hours())
	if hours > 0 {
		duration -= time.Duration(hours * float64(time.Hour))
	}

	minutes := math.Floor(duration.Minutes())
	if minutes > 0 {
		duration -= time.Duration(minutes * float64(time.Minute))
	}

	seconds := duration.Seconds()

	switch {
	case hours >= 2:
		return fmt.Sprintf("%.0f hours %.0f minutes %.0f seconds", hours, minutes, seconds)
	case hours == 1 && minutes == 0 && seconds == 0:
		return fmt.Sprintf("%.0f hour", hours)
	case hours == 1:
		return fmt.Sprintf("%.0f hour %.0f minutes %.0f seconds", hours, minutes, seconds)

	case minutes >= 2:
		return fmt.Sprintf("%.0f minutes %.0f seconds", minutes, seconds)
	case minutes == 1 && seconds == 0:
		return fmt.Sprintf("%.0f minute", minutes)
	case minutes == 1:
		return fmt.Sprintf("%.0f minute %.0f seconds", minutes, seconds)

	case seconds == 1:
		return "1 second"
	case seconds < 1:
		return fmt.Sprintf("%.3f seconds", seconds)

	default:
		return fmt.Sprintf("%.0f seconds", seconds)
	}
}

// NanoToMillisecond returns an amount of milliseconds from nanoseconds.
// duration.Milliseconds() drops the decimal part.
func NanoToMillisecond(nano int64) float32 {
	return float32(nano) / float32(time.Millisecond)
}

// SecondsToDuration returns the corresponding duration from seconds expressed with a float.
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(1000*seconds) * time.Millisecond
}
