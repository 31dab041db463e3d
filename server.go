package fwcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/fwcheck/fwcheck/config"
	"github.com/fwcheck/fwcheck/internal/listener"
	"github.com/fwcheck/fwcheck/option"
	"github.com/fwcheck/fwcheck/pingers"
	"github.com/fwcheck/fwcheck/printers"
)

const (
	DefaultCheckTimeout = 1 * time.Second
	DefaultReadTimeout  = 10 * time.Second

	// readBufferSize caps the single read of a liveness probe.
	readBufferSize = 1024
)

// Pong is the whole reply of the liveness exchange.
var Pong = []byte("PONG")

var (
	// ErrNothingToServe is returned by Run when no declared port ended up listening.
	ErrNothingToServe = errors.New("no ports to serve")

	// ErrServerClosed is returned by Serve when the listeners were closed
	// without the context being canceled.
	ErrServerClosed = errors.New("server closed")
)

// Server is the server role. It owns the listeners it bound during
// Provision and answers liveness probes on them in Serve.
type Server struct {
	printer      Printer
	checkTimeout time.Duration
	readTimeout  time.Duration
	backlog      int
	onReady      func()

	mu        sync.Mutex
	listeners []net.Listener
	closed    bool
}

type ServerOption = option.Option[Server]

// WithServerPrinter configures the printer for server output.
func WithServerPrinter(p Printer) ServerOption {
	return func(s *Server) {
		s.printer = p
	}
}

// WithCheckTimeout bounds the "is something already listening" dial.
func WithCheckTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		if timeout > 0 {
			s.checkTimeout = timeout
		}
	}
}

// WithReadTimeout bounds the lifetime of one liveness connection so a
// silent peer cannot stall its listener. Zero disables the deadline.
func WithReadTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.readTimeout = timeout
	}
}

// WithBacklog sets the listen backlog of newly bound ports.
func WithBacklog(n int) ServerOption {
	return func(s *Server) {
		s.backlog = n
	}
}

// WithOnReady registers a hook that Run calls once at least one port is
// listening, right before entering the accept loops.
func WithOnReady(fn func()) ServerOption {
	return func(s *Server) {
		s.onReady = fn
	}
}

// NewServer creates a server with the given options.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		printer:      printers.NewColorPrinter(),
		checkTimeout: DefaultCheckTimeout,
		readTimeout:  DefaultReadTimeout,
		backlog:      listener.DefaultBacklog,
	}
	option.Apply(s, opts...)
	return s
}

// Listeners returns the listeners bound by this server.
func (s *Server) Listeners() []net.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]net.Listener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

// Provision makes sure every declared port is listening. Ports that
// already accept connections are left alone; the others are bound and
// kept by the server. A port that is malformed or fails to bind is
// logged and skipped. ready reports whether at least one declared port
// is listening afterwards; err joins every per-port failure.
func (s *Server) Provision(ctx context.Context, srv *config.Server) (ready bool, err error) {
	if srv == nil {
		s.printer.Log(printers.Entry{
			Message:  "No servers declared, skipping server mode",
			Severity: printers.Warn,
			Bold:     true,
		})
		return false, nil
	}

	s.printer.Log(printers.Entry{Message: "Found server declaration, running ports...", Bold: true})

	if len(srv.Ports) == 0 {
		s.printer.Log(printers.Entry{
			Message:  "No ports declared for server, abandoning server mode",
			Severity: printers.Warn,
			Indent:   1,
		})
		return false, nil
	}

	s.printer.Log(printers.Entry{Message: "Port declarations found, ensuring listeners on ports:", Indent: 1})

	var errs []error
	for _, spec := range srv.Ports {
		s.printer.Log(printers.Entry{Message: string(spec), Indent: 2})

		listening, err := s.provisionPort(ctx, spec)
		if err != nil {
			s.printer.Log(printers.Entry{
				Message:  fmt.Sprintf("%v, skipping", err),
				Severity: printers.Err,
				Indent:   3,
			})
			errs = append(errs, err)
			continue
		}

		ready = ready || listening
	}

	return ready, errors.Join(errs...)
}

func (s *Server) provisionPort(ctx context.Context, spec config.ServerPort) (bool, error) {
	addr, err := config.ParseServerPort(spec)
	if err != nil {
		return false, err
	}

	pinger := pingers.NewTCPPinger(addr.Host, addr.Port, pingers.WithTimeout(s.checkTimeout))
	if err := pinger.Ping(ctx); err == nil {
		s.printer.Log(printers.Entry{
			Message:  fmt.Sprintf("Port %s is listening", addr),
			Severity: printers.Good,
			Indent:   3,
		})
		return true, nil
	}

	s.printer.Log(printers.Entry{Message: fmt.Sprintf("Port %s not ready, starting...", addr), Indent: 3})

	ln, err := listener.Listen(ctx, addr.String(), s.backlog)
	if err != nil {
		return false, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		ln.Close()
		return false, fmt.Errorf("listen on %s: %w", addr, ErrServerClosed)
	}
	s.listeners = append(s.listeners, ln)

	return true, nil
}

// Run provisions the declared ports and answers liveness probes until
// ctx is canceled.
func (s *Server) Run(ctx context.Context, srv *config.Server) error {
	ready, err := s.Provision(ctx, srv)
	if !ready {
		s.printer.Log(printers.Entry{Message: "No server stuff to do"})
		if err != nil {
			return err
		}
		return ErrNothingToServe
	}

	s.printer.Log(printers.Entry{
		Message:  "Ready to work, run the client...",
		Severity: printers.Good,
		Bold:     true,
	})

	if s.onReady != nil {
		s.onReady()
	}

	return s.Serve(ctx)
}

// Serve runs one accept loop per listener. Connections on a listener are
// answered one after another in arrival order. Canceling ctx closes the
// listeners and Serve returns nil once every loop has exited.
func (s *Server) Serve(ctx context.Context) error {
	listeners := s.Listeners()

	if len(listeners) == 0 {
		s.printer.Log(printers.Entry{
			Message:  "All declared ports are served by other processes",
			Severity: printers.Good,
		})
		<-ctx.Done()
		return nil
	}

	var wg sync.WaitGroup
	for _, ln := range listeners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.acceptLoop(ctx, ln)
		}()
	}

	loopsDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(loopsDone)
	}()

	select {
	case <-ctx.Done():
		s.Close()
		<-loopsDone
		return nil
	case <-loopsDone:
		return ErrServerClosed
	}
}

// Close closes every listener owned by the server.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	var errs []error
	for _, ln := range s.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	var backoff time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(2*backoff, time.Second)
			}

			s.printer.Log(printers.Entry{
				Message:  fmt.Sprintf("Accept on %s failed: %v, retrying in %v", ln.Addr(), err, backoff),
				Severity: printers.Err,
			})

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}

		backoff = 0
		s.respond(conn)
	}
}

// respond performs the liveness exchange: one read of up to 1024 bytes
// whose content is ignored, then PONG, then close.
func (s *Server) respond(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr()

	if s.readTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(s.readTimeout)); err != nil {
			s.printer.Log(printers.Entry{
				Message:  fmt.Sprintf("Set deadline for %s failed: %v", remote, err),
				Severity: printers.Err,
			})
			return
		}
	}

	buf := make([]byte, readBufferSize)
	if _, err := conn.Read(buf); err != nil && !errors.Is(err, io.EOF) {
		s.printer.Log(printers.Entry{
			Message:  fmt.Sprintf("Read from %s failed: %v", remote, err),
			Severity: printers.Err,
		})
		return
	}

	s.printer.Log(printers.Entry{
		Message:  fmt.Sprintf("Received ping from %s, sending pong...", remote),
		Severity: printers.Good,
	})

	if _, err := conn.Write(Pong); err != nil {
		s.printer.Log(printers.Entry{
			Message:  fmt.Sprintf("Write to %s failed: %v", remote, err),
			Severity: printers.Err,
		})
	}
}
