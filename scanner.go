package fwcheck

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwcheck/fwcheck/config"
	"github.com/fwcheck/fwcheck/option"
	"github.com/fwcheck/fwcheck/pingers"
	"github.com/fwcheck/fwcheck/printers"
	"github.com/fwcheck/fwcheck/results"
)

const (
	DefaultScanTimeout = pingers.DefaultTimeout
	DefaultConcurrency = 1
)

// Scanner is the client role: it probes every declared host:port pair
// and classifies it as OPEN or CLOSED.
type Scanner struct {
	printer     Printer
	timeout     time.Duration
	concurrency int
	newPinger   func(host string, port uint16) Pinger
}

type ScannerOption = option.Option[Scanner]

// WithScanPrinter configures the printer for scan output.
func WithScanPrinter(p Printer) ScannerOption {
	return func(s *Scanner) {
		s.printer = p
	}
}

// WithScanTimeout bounds every connection attempt.
func WithScanTimeout(timeout time.Duration) ScannerOption {
	return func(s *Scanner) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithConcurrency sets how many probes may run at once.
// Output stays in declared order whatever the value.
func WithConcurrency(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewScanner creates a scanner with the given options.
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		printer:     printers.NewColorPrinter(),
		timeout:     DefaultScanTimeout,
		concurrency: DefaultConcurrency,
	}
	option.Apply(s, opts...)

	if s.newPinger == nil {
		s.newPinger = func(host string, port uint16) Pinger {
			return pingers.NewTCPPinger(host, port, pingers.WithTimeout(s.timeout))
		}
	}

	return s
}

type stepKind int

const (
	stepHost stepKind = iota
	stepEmptyHost
	stepInvalidPort
	stepProbe
)

// step is one line of scan output in declared order.
type step struct {
	kind stepKind
	host string
	raw  string
	err  error
	job  int // index into the probe jobs for stepProbe
}

type probeJob struct {
	host string
	port uint16
}

type probeOutcome struct {
	job    int
	result results.ProbeResult
	ok     bool // false when the context ended before or during the dial
}

// plan flattens the targets into output steps and probe jobs, validating
// every port on the way.
func plan(targets config.Targets) ([]step, []probeJob) {
	var steps []step
	var jobs []probeJob

	for _, target := range targets {
		steps = append(steps, step{kind: stepHost, host: target.Host})

		if len(target.Ports) == 0 {
			steps = append(steps, step{kind: stepEmptyHost, host: target.Host})
			continue
		}

		for _, raw := range target.Ports {
			port, err := config.ParsePort(raw)
			if err != nil {
				steps = append(steps, step{kind: stepInvalidPort, host: target.Host, raw: raw, err: err})
				continue
			}
			steps = append(steps, step{kind: stepProbe, host: target.Host, job: len(jobs)})
			jobs = append(jobs, probeJob{host: target.Host, port: port})
		}
	}

	return steps, jobs
}

// Scan probes the targets of the client section. A missing or empty
// section is reported and is not an error. Only context cancellation
// makes Scan return an error, together with the partial summary.
func (s *Scanner) Scan(ctx context.Context, client *config.Client) (results.Summary, error) {
	summary := results.Summary{StartTime: time.Now()}

	if client == nil || client.Targets == nil {
		s.printer.Log(printers.Entry{
			Message:  "No client declared, nothing to do",
			Severity: printers.Err,
			Bold:     true,
		})
		summary.EndTime = time.Now()
		return summary, nil
	}

	s.printer.Log(printers.Entry{Message: "Running port checks", Bold: true})

	targets := *client.Targets
	if len(targets) == 0 {
		s.printer.Log(printers.Entry{
			Message:  "Client defined with no targets, nothing to scan",
			Severity: printers.Err,
			Indent:   1,
			Bold:     true,
		})
		summary.EndTime = time.Now()
		return summary, nil
	}

	steps, jobs := plan(targets)

	var err error
	if s.concurrency <= 1 {
		err = s.scanSequential(ctx, steps, jobs, &summary)
	} else {
		err = s.scanConcurrent(ctx, steps, jobs, &summary)
	}

	summary.EndTime = time.Now()
	if err == nil {
		s.printer.PrintSummary(&summary)
	}

	return summary, err
}

func (s *Scanner) logStep(st step, summary *results.Summary) {
	switch st.kind {
	case stepHost:
		s.printer.Log(printers.Entry{Message: "Scanning host " + st.host, Indent: 1, Bold: true})
	case stepEmptyHost:
		s.printer.Log(printers.Entry{
			Message:  fmt.Sprintf("No ports declared for %s, nothing to scan", st.host),
			Severity: printers.Warn,
			Indent:   2,
		})
	case stepInvalidPort:
		summary.Skipped++
		s.printer.Log(printers.Entry{
			Message:  fmt.Sprintf("Skipping %s: %v", st.host, st.err),
			Severity: printers.Err,
			Indent:   2,
		})
	}
}

func (s *Scanner) scanSequential(ctx context.Context, steps []step, jobs []probeJob, summary *results.Summary) error {
	for _, st := range steps {
		if st.kind != stepProbe {
			s.logStep(st, summary)
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		job := jobs[st.job]
		pending := results.ProbeResult{Host: job.host, Port: job.port}
		s.printer.PrintProbeStart(&pending)

		r, err := s.probe(ctx, job)
		if err != nil {
			s.printer.Log(printers.Entry{Message: "[ABORTED]", Severity: printers.Warn, NoPrefix: true})
			return err
		}

		s.printer.PrintProbeResult(&r)
		summary.Add(r)
	}

	return nil
}

// scanConcurrent runs the probes on a worker pool and prints outcomes in
// declared order, so the start and result of one pair are always adjacent.
func (s *Scanner) scanConcurrent(ctx context.Context, steps []step, jobs []probeJob, summary *results.Summary) error {
	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	outcomes := make(chan probeOutcome, len(jobs))

	var wg sync.WaitGroup
	wg.Add(min(s.concurrency, len(jobs)))
	for range min(s.concurrency, len(jobs)) {
		go func() {
			defer wg.Done()
			for i := range queue {
				if ctx.Err() != nil {
					outcomes <- probeOutcome{job: i}
					continue
				}
				r, err := s.probe(ctx, jobs[i])
				outcomes <- probeOutcome{job: i, result: r, ok: err == nil}
			}
		}()
	}
	defer wg.Wait()

	done := make(map[int]probeOutcome, len(jobs))
	for _, st := range steps {
		if st.kind != stepProbe {
			s.logStep(st, summary)
			continue
		}

		for {
			if _, ok := done[st.job]; ok {
				break
			}
			select {
			case o := <-outcomes:
				done[o.job] = o
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		o := done[st.job]
		if !o.ok {
			return ctx.Err()
		}

		s.printer.PrintProbeStart(&o.result)
		s.printer.PrintProbeResult(&o.result)
		summary.Add(o.result)
	}

	return nil
}

// probe classifies one pair. Any dial error means CLOSED, except when ctx
// ends during the attempt: the pair is then unclassified and ctx.Err() is
// returned.
func (s *Scanner) probe(ctx context.Context, job probeJob) (results.ProbeResult, error) {
	pinger := s.newPinger(job.host, job.port)

	start := time.Now()
	err := pinger.Ping(ctx)

	r := results.ProbeResult{
		Host: pinger.Host(),
		Port: pinger.Port(),
		RTT:  time.Since(start),
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return r, ctxErr
	}
	if err == nil {
		r.State = results.Open
	}

	return r, nil
}
