// Package testdata provides shared test helpers and fixtures.
package testdata

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net"
	"os"
	"strings"
	"testing"

	"github.com/fwcheck/fwcheck/printers"
)

// Common test fixture values
const (
	TestHost     = "127.0.0.1"
	TestHostname = "example.com"
	TestPort     = uint16(443)
)

// CaptureOutput captures stdout during function execution and returns it as a string.
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	w.Close()
	output := <-done
	os.Stdout = oldStdout

	return output
}

// DecodeJSONLines parses newline separated JSON printer events.
func DecodeJSONLines(t *testing.T, output string) []printers.JSONData {
	t.Helper()

	var events []printers.JSONData
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var data printers.JSONData
		if err := json.Unmarshal([]byte(line), &data); err != nil {
			t.Fatalf("parse JSON: %v\nLine: %s", err, line)
		}
		events = append(events, data)
	}
	return events
}

// Listen starts a loopback listener that accepts and immediately closes
// connections. It is closed when the test ends.
func Listen(t *testing.T) (net.Listener, uint16) {
	t.Helper()

	ln, err := net.Listen("tcp", TestHost+":0")
	if err != nil {
		t.Fatalf("test server: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	return ln, uint16(ln.Addr().(*net.TCPAddr).Port)
}

// ClosedPort returns a loopback port that nothing listens on: it binds
// an ephemeral port and releases it right away.
func ClosedPort(t *testing.T) uint16 {
	t.Helper()

	ln, err := net.Listen("tcp", TestHost+":0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	return port
}
