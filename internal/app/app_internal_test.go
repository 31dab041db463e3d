package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwcheck/fwcheck"
	"github.com/fwcheck/fwcheck/config"
	"github.com/fwcheck/fwcheck/internal/testdata"
)

func testPrinter(t *testing.T, w io.Writer) fwcheck.Printer {
	t.Helper()

	p, err := fwcheck.NewPrinter(fwcheck.PrinterConfig{Verbose: true, NoColor: true, Writer: w})
	require.NoError(t, err)
	return p
}

func TestHandleError_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitOK},
		{name: "version", err: ErrVersionRequested, want: exitOK},
		{name: "usage", err: ErrUsageRequested, want: exitFailure},
		{name: "config", err: fmt.Errorf("%w fw.yaml: %w", ErrLoadConfig, errors.New("boom")), want: exitConfig},
		{name: "server", err: fmt.Errorf("%w: %w", ErrServerStartup, config.ErrMalformedPort), want: exitServer},
		{name: "other", err: errors.New("scan interrupted"), want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			testdata.CaptureOutput(t, func() {
				assert.Equal(t, tt.want, handleError(tt.err, testPrinter(t, &out)))
			})
		})
	}
}

func TestHandleError_PrintsThroughPrinter(t *testing.T) {
	var out bytes.Buffer

	code := handleError(fmt.Errorf("%w fw.yaml: %w", ErrLoadConfig, errors.New("no such file")), testPrinter(t, &out))
	assert.Equal(t, exitConfig, code)
	assert.Equal(t, "!! !! load config fw.yaml: no such file\n", out.String())
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.2.0", "1.1.9", 1},
		{"1.0", "1.0.0", -1},
		{"2.0.0.1", "2.0.0", 1},
	}

	for _, tt := range tests {
		if got := compareVersions(tt.v1, tt.v2); got != tt.want {
			t.Errorf("compareVersions(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.want)
		}
	}
}

func TestUpdateMessage(t *testing.T) {
	msg, err := updateMessage("1.0.0", "v1.2.0")
	require.NoError(t, err)
	assert.Contains(t, msg, "Found newer version 1.2.0")
	assert.Contains(t, msg, "releases/tag/v1.2.0")

	msg, err = updateMessage("1.3.0", "v1.2.0")
	require.NoError(t, err)
	assert.Equal(t, "Current version 1.3.0 is newer than the latest release 1.2.0", msg)

	msg, err = updateMessage("1.2.0", "1.2.0")
	require.NoError(t, err)
	assert.Equal(t, "FWCHECK is on the latest version: 1.2.0", msg)

	_, err = updateMessage("1.2.0", "nightly")
	assert.Error(t, err)
}

func TestRunClient(t *testing.T) {
	_, open := testdata.Listen(t)
	closed := testdata.ClosedPort(t)

	declared, err := config.Parse(fmt.Appendf(nil, "client:\n  targets:\n    127.0.0.1:\n      ports: [%d, %d]\n", open, closed))
	require.NoError(t, err)

	var out bytes.Buffer
	cfg := RunConfig{Mode: ModeClient, Timeout: time.Second, Concurrency: 1}
	require.NoError(t, runClient(t.Context(), cfg, declared, testPrinter(t, &out)))

	assert.Contains(t, out.String(), fmt.Sprintf("127.0.0.1:%d...\t[OPENED]", open))
	assert.Contains(t, out.String(), fmt.Sprintf("127.0.0.1:%d...\t[CLOSED]", closed))
}

func TestRunServer(t *testing.T) {
	t.Run("nothing declared", func(t *testing.T) {
		var out bytes.Buffer
		assert.NoError(t, runServer(t.Context(), &config.Config{}, testPrinter(t, &out)))
		assert.Contains(t, out.String(), "No servers declared")
	})

	t.Run("nothing came up", func(t *testing.T) {
		var out bytes.Buffer
		declared := &config.Config{Server: &config.Server{Ports: []config.ServerPort{"a:b:c"}}}
		err := runServer(t.Context(), declared, testPrinter(t, &out))
		assert.ErrorIs(t, err, ErrServerStartup)
		assert.ErrorIs(t, err, config.ErrMalformedPort)
	})

	t.Run("serves until canceled", func(t *testing.T) {
		port := testdata.ClosedPort(t)
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		declared := &config.Config{Server: &config.Server{Ports: []config.ServerPort{config.ServerPort(addr)}}}

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- runServer(ctx, declared, testPrinter(t, io.Discard)) }()

		var reply string
		require.Eventually(t, func() bool {
			conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
			if err != nil {
				return false
			}
			defer conn.Close()

			conn.SetDeadline(time.Now().Add(time.Second))
			conn.Write([]byte("ping"))
			b, _ := io.ReadAll(conn)
			reply = string(b)
			return strings.TrimSpace(reply) != ""
		}, 5*time.Second, 20*time.Millisecond)
		assert.Equal(t, "PONG", reply)

		cancel()
		assert.NoError(t, <-done)
	})
}

func TestCheckForUpdates_DevelopmentBuild(t *testing.T) {
	old := Version
	Version = ""
	t.Cleanup(func() { Version = old })

	_, err := CheckForUpdates(t.Context())
	assert.ErrorIs(t, err, ErrDevelopmentBuild)
}

func TestNotifySystemd(t *testing.T) {
	t.Run("outside systemd", func(t *testing.T) {
		t.Setenv("NOTIFY_SOCKET", "")

		var out bytes.Buffer
		notifyReady(testPrinter(t, &out))()
		notifyStopping(testPrinter(t, &out))
		assert.Empty(t, out.String())
	})

	t.Run("unreachable socket", func(t *testing.T) {
		t.Setenv("NOTIFY_SOCKET", t.TempDir()+"/missing.sock")

		var out bytes.Buffer
		notifyReady(testPrinter(t, &out))()
		notifyStopping(testPrinter(t, &out))
		assert.Contains(t, out.String(), "*! Failed to notify systemd of readiness: ")
		assert.Contains(t, out.String(), "*! Failed to notify systemd of shutdown: ")
	})
}
