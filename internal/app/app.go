package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/term"

	"github.com/fwcheck/fwcheck"
	"github.com/fwcheck/fwcheck/config"
	"github.com/fwcheck/fwcheck/printers"
)

var (
	// ErrLoadConfig wraps failures to read or decode the config file
	ErrLoadConfig = errors.New("load config")

	// ErrServerStartup wraps per-port failures when no declared port came up
	ErrServerStartup = errors.New("server startup failed")
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
	exitServer  = 3
)

const updateCheckTimeout = 10 * time.Second

// Run executes the fwcheck application and returns an exit code
func Run() int {
	cfg, err := ProcessUserInput()
	if err != nil {
		return handleError(err, nil)
	}

	if !cfg.PrinterConfig.OutputJSON && !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.PrinterConfig.NoColor = true
	}

	printer, err := fwcheck.NewPrinter(cfg.PrinterConfig)
	if err != nil {
		return handleError(err, nil)
	}

	declared, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return handleError(fmt.Errorf("%w %s: %w", ErrLoadConfig, cfg.ConfigPath, err), printer)
	}

	ctx := setupSignalHandler(context.Background())

	switch cfg.Mode {
	case ModeClient:
		err = runClient(ctx, cfg, declared, printer)
	case ModeServer:
		err = runServer(ctx, declared, printer)
	}

	return handleError(err, printer)
}

func runClient(ctx context.Context, cfg RunConfig, declared *config.Config, printer fwcheck.Printer) error {
	scanner := fwcheck.NewScanner(
		fwcheck.WithScanPrinter(printer),
		fwcheck.WithScanTimeout(cfg.Timeout),
		fwcheck.WithConcurrency(cfg.Concurrency),
	)

	if _, err := scanner.Scan(ctx, declared.Client); err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	return nil
}

func runServer(ctx context.Context, declared *config.Config, printer fwcheck.Printer) error {
	server := fwcheck.NewServer(
		fwcheck.WithServerPrinter(printer),
		fwcheck.WithOnReady(notifyReady(printer)),
	)

	err := server.Run(ctx, declared.Server)
	notifyStopping(printer)

	switch {
	case err == nil, errors.Is(err, fwcheck.ErrNothingToServe):
		return nil
	default:
		return fmt.Errorf("%w: %w", ErrServerStartup, err)
	}
}

// notifyReady tells systemd (Type=notify units) that the listeners are up.
// Outside systemd it does nothing.
func notifyReady(printer fwcheck.Printer) func() {
	return func() {
		sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
		if err != nil {
			printer.Log(printers.Entry{
				Message:  fmt.Sprintf("Failed to notify systemd of readiness: %v", err),
				Severity: printers.Warn,
			})
			return
		}
		if sent {
			printer.Log(printers.Entry{Message: "Notified systemd that service is ready"})
		}
	}
}

// notifyStopping tells systemd the listeners are going away.
func notifyStopping(printer fwcheck.Printer) {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		printer.Log(printers.Entry{
			Message:  fmt.Sprintf("Failed to notify systemd of shutdown: %v", err),
			Severity: printers.Warn,
		})
	}
}

func setupSignalHandler(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx
}

func handleError(err error, printer fwcheck.Printer) int {
	if err == nil {
		return exitOK
	}

	if errors.Is(err, ErrUsageRequested) {
		// a bare ErrUsageRequested carries no detail worth printing
		if err != ErrUsageRequested {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		PrintUsage()
		return exitFailure
	}

	if errors.Is(err, ErrVersionRequested) {
		PrintVersion()
		return exitOK
	}

	if errors.Is(err, ErrUpdateCheckRequested) {
		ctx, cancel := context.WithTimeout(context.Background(), updateCheckTimeout)
		defer cancel()

		msg, checkErr := CheckForUpdates(ctx)
		if checkErr != nil {
			printError(checkErr, printer)
			return exitFailure
		}
		fmt.Println(msg)
		return exitOK
	}

	printError(err, printer)

	switch {
	case errors.Is(err, ErrLoadConfig):
		return exitConfig
	case errors.Is(err, ErrServerStartup):
		return exitServer
	default:
		return exitFailure
	}
}

func printError(err error, printer fwcheck.Printer) {
	if printer != nil {
		printer.PrintError("%v", err)
		return
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
