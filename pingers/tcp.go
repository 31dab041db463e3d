// Package pingers implements protocol-specific ping functionality for network connectivity testing.
package pingers

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/fwcheck/fwcheck/option"
)

// DefaultTimeout bounds a connection attempt against filtered hosts.
const DefaultTimeout = 3 * time.Second

const tcp = "tcp"

// TCPPinger opens and immediately closes a TCP connection to host:port.
// Any dial error, whether refused, timed out or unreachable, is a failed ping.
type TCPPinger struct {
	dialer *net.Dialer
	host   string
	port   uint16
}

type TCPOptions = option.Option[TCPPinger]

// NewTCPPinger creates a new TCP pinger for the specified host and port with optional configuration.
func NewTCPPinger(host string, port uint16, opts ...TCPOptions) *TCPPinger {
	t := &TCPPinger{
		host: host,
		port: port,
		dialer: &net.Dialer{
			Timeout: DefaultTimeout,
		},
	}
	option.Apply(t, opts...)
	return t
}

// WithDialer configures a custom net.Dialer for TCP connections.
func WithDialer(dialer *net.Dialer) TCPOptions {
	return func(t *TCPPinger) {
		t.dialer = dialer
	}
}

// WithTimeout configures the connection timeout for TCP dial operations.
func WithTimeout(timeout time.Duration) TCPOptions {
	return func(t *TCPPinger) {
		if t.dialer == nil {
			t.dialer = &net.Dialer{}
		}
		t.dialer.Timeout = timeout
	}
}

// Host returns the target host as given.
func (t *TCPPinger) Host() string {
	return t.host
}

// Port returns the target port.
func (t *TCPPinger) Port() uint16 {
	return t.port
}

// Address returns host:port suitable for dialing.
func (t *TCPPinger) Address() string {
	return net.JoinHostPort(t.host, strconv.Itoa(int(t.port)))
}

// Ping dials the target and closes the connection right away.
func (t *TCPPinger) Ping(ctx context.Context) error {
	conn, err := t.dialer.DialContext(ctx, tcp, t.Address())
	if err != nil {
		return err
	}
	defer conn.Close()
	return nil
}
