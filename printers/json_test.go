package printers_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwcheck/fwcheck/internal/testdata"
	"github.com/fwcheck/fwcheck/printers"
	"github.com/fwcheck/fwcheck/results"
)

func newVerboseJSON(buf *bytes.Buffer, opts ...printers.JSONPrinterOption) *printers.JSONPrinter {
	opts = append([]printers.JSONPrinterOption{
		printers.WithVerbose[*printers.JSONPrinter](),
		printers.WithWriter[*printers.JSONPrinter](buf),
	}, opts...)
	return printers.NewJSONPrinter(opts...)
}

func TestJSONPrinter_Log(t *testing.T) {
	var buf bytes.Buffer
	p := newVerboseJSON(&buf)

	p.Log(printers.Entry{Message: "No servers declared, skipping server mode", Severity: printers.Warn})

	events := testdata.DecodeJSONLines(t, buf.String())
	require.Len(t, events, 1)
	assert.Equal(t, printers.JSONEventType("log"), events[0].Type)
	require.NotNil(t, events[0].Severity)
	assert.Equal(t, printers.Warn, *events[0].Severity)
	assert.Equal(t, "No servers declared, skipping server mode", events[0].Message)
	assert.Empty(t, events[0].Timestamp)
}

func TestJSONPrinter_Probe(t *testing.T) {
	var buf bytes.Buffer
	p := newVerboseJSON(&buf)

	r := &results.ProbeResult{Host: "10.0.0.1", Port: 22, State: results.Closed, RTT: 1500 * time.Microsecond}
	p.PrintProbeStart(r)
	p.PrintProbeResult(r)

	events := testdata.DecodeJSONLines(t, buf.String())
	require.Len(t, events, 1, "probe start must not emit an event")

	e := events[0]
	assert.Equal(t, printers.JSONEventType("probe"), e.Type)
	assert.Equal(t, "10.0.0.1", e.Host)
	assert.Equal(t, uint16(22), e.Port)
	require.NotNil(t, e.State)
	assert.Equal(t, results.Closed, *e.State)
	assert.Equal(t, "1.500", e.Latency)
	assert.Equal(t, "Port 10.0.0.1:22 is CLOSED", e.Message)
}

func TestJSONPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := newVerboseJSON(&buf, printers.WithTimestamp[*printers.JSONPrinter]())

	start := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	p.PrintSummary(&results.Summary{StartTime: start, EndTime: start.Add(2 * time.Second), Open: 3, Closed: 1})

	events := testdata.DecodeJSONLines(t, buf.String())
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, printers.JSONEventType("summary"), e.Type)
	assert.Equal(t, uint(4), e.TotalProbes)
	assert.Equal(t, uint(3), e.OpenProbes)
	assert.Equal(t, uint(1), e.ClosedProbes)
	assert.Equal(t, "2.000", e.TotalDuration)
	assert.NotEmpty(t, e.Timestamp)
}

func TestJSONPrinter_NotVerbose(t *testing.T) {
	var buf bytes.Buffer
	p := printers.NewJSONPrinter(printers.WithWriter[*printers.JSONPrinter](&buf))

	p.Log(printers.Entry{Message: "hidden"})
	p.PrintProbeResult(&results.ProbeResult{Host: "a", Port: 1})
	assert.Zero(t, buf.Len())

	p.PrintError("fatal: %d", 3)
	events := testdata.DecodeJSONLines(t, buf.String())
	require.Len(t, events, 1)
	assert.Equal(t, printers.JSONEventType("error"), events[0].Type)
	assert.Equal(t, "fatal: 3", events[0].Message)
}

func TestJSONPrinter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	p := newVerboseJSON(&buf, printers.WithPrettyJSON())

	p.Log(printers.Entry{Message: "a"})
	p.Log(printers.Entry{Message: "b"})

	assert.Contains(t, buf.String(), "\n\t\"type\": \"log\"")

	dec := json.NewDecoder(&buf)
	var count int
	for dec.More() {
		var data printers.JSONData
		require.NoError(t, dec.Decode(&data))
		count++
	}
	assert.Equal(t, 2, count)
}
