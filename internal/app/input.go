package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fwcheck/fwcheck"
	"github.com/fwcheck/fwcheck/results"
)

var (
	// ErrUsageRequested indicates usage help was requested
	ErrUsageRequested = errors.New("usage requested")

	// ErrVersionRequested indicates version display was requested
	ErrVersionRequested = errors.New("version requested")

	// ErrUpdateCheckRequested indicates update check was requested
	ErrUpdateCheckRequested = errors.New("update check requested")
)

// Mode selects the role of the process.
type Mode int

const (
	ModeClient Mode = iota + 1
	ModeServer
)

func (m Mode) String() string {
	switch m {
	case ModeClient:
		return "client"
	case ModeServer:
		return "server"
	default:
		return "none"
	}
}

// RunConfig contains everything needed to run one role.
type RunConfig struct {
	ConfigPath string
	Mode       Mode

	// Client options
	Timeout     time.Duration
	Concurrency int

	// Output options
	PrinterConfig fwcheck.PrinterConfig
}

type options struct {
	configPath    *string
	verbose       *bool
	client        *bool
	server        *bool
	timeout       *float64
	concurrency   *uint
	showTimestamp *bool
	outputJSON    *bool
	prettyJSON    *bool
	noColor       *bool
	showVer       *bool
	checkUpdates  *bool
}

// newFlagSet declares the command line. Long and short spellings of a
// flag share one variable.
func newFlagSet() (*flag.FlagSet, options) {
	fs := flag.NewFlagSet("fwcheck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		// no-op, usage is printed by handleError
	}

	opts := options{
		configPath:    new(string),
		verbose:       new(bool),
		client:        new(bool),
		server:        new(bool),
		timeout:       new(float64),
		concurrency:   new(uint),
		showTimestamp: new(bool),
		outputJSON:    new(bool),
		prettyJSON:    new(bool),
		noColor:       new(bool),
		showVer:       new(bool),
		checkUpdates:  new(bool),
	}

	fs.StringVar(opts.configPath, "f", "", "config file location.")
	fs.StringVar(opts.configPath, "config", "", "config file location.")
	fs.BoolVar(opts.verbose, "v", false, "be verbose. Without it only errors are printed.")
	fs.BoolVar(opts.verbose, "verbose", false, "be verbose. Without it only errors are printed.")
	fs.BoolVar(opts.client, "c", false, "client mode: probe the declared targets.")
	fs.BoolVar(opts.client, "client", false, "client mode: probe the declared targets.")
	fs.BoolVar(opts.server, "s", false, "server mode: ensure the declared ports are listening and answer probes.")
	fs.BoolVar(opts.server, "server", false, "server mode: ensure the declared ports are listening and answer probes.")
	fs.Float64Var(opts.timeout, "t",
		fwcheck.DefaultScanTimeout.Seconds(),
		"time to wait for a connection, in seconds. Real number allowed.")
	fs.UintVar(opts.concurrency, "w",
		fwcheck.DefaultConcurrency,
		"number of probes to run at once. Output keeps the declared order.")
	fs.BoolVar(opts.showTimestamp, "D", false, "show timestamp for each line in the output.")
	fs.BoolVar(opts.outputJSON, "j", false, "output in JSON format.")
	fs.BoolVar(opts.prettyJSON, "pretty",
		false,
		"use indentation when using json output format. No effect without the '-j' flag.")
	fs.BoolVar(opts.noColor, "no-color", false, "do not colorize output.")
	fs.BoolVar(opts.showVer, "version", false, "show version and exit.")
	fs.BoolVar(opts.checkUpdates, "u", false, "check for updates and exit. Needs a release build.")

	return fs, opts
}

// ParseArgs parses command-line arguments. Returns ErrUsageRequested,
// ErrVersionRequested, or ErrUpdateCheckRequested for special control flow.
func ParseArgs(args []string) (RunConfig, error) {
	fs, opts := newFlagSet()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return RunConfig{}, ErrUsageRequested
		}
		return RunConfig{}, fmt.Errorf("%w: %w", ErrUsageRequested, err)
	}

	if *opts.showVer {
		return RunConfig{}, ErrVersionRequested
	}

	if *opts.checkUpdates {
		return RunConfig{}, ErrUpdateCheckRequested
	}

	if fs.NArg() != 0 {
		return RunConfig{}, fmt.Errorf("%w: unexpected argument %q", ErrUsageRequested, fs.Arg(0))
	}

	if *opts.configPath == "" {
		return RunConfig{}, fmt.Errorf("%w: a config file is required", ErrUsageRequested)
	}

	config := RunConfig{
		ConfigPath:  *opts.configPath,
		Timeout:     results.SecondsToDuration(*opts.timeout),
		Concurrency: int(*opts.concurrency),
		PrinterConfig: fwcheck.PrinterConfig{
			Verbose:       *opts.verbose,
			OutputJSON:    *opts.outputJSON,
			PrettyJSON:    *opts.prettyJSON,
			NoColor:       *opts.noColor,
			WithTimestamp: *opts.showTimestamp,
		},
	}

	if err := setMode(&config, *opts.client, *opts.server); err != nil {
		return RunConfig{}, err
	}

	if config.Timeout <= 0 {
		return RunConfig{}, fmt.Errorf("timeout should be more than 0 seconds")
	}

	if config.Concurrency < 1 {
		return RunConfig{}, fmt.Errorf("concurrency should be at least 1")
	}

	return config, nil
}

func setMode(config *RunConfig, client, server bool) error {
	switch {
	case client && server:
		return fmt.Errorf("%w: only one of client or server mode can be specified", ErrUsageRequested)
	case client:
		config.Mode = ModeClient
	case server:
		config.Mode = ModeServer
	default:
		return fmt.Errorf("%w: one of client or server mode is required", ErrUsageRequested)
	}
	return nil
}

// ProcessUserInput parses the process arguments.
func ProcessUserInput() (RunConfig, error) {
	return ParseArgs(os.Args[1:])
}
