// Package listener opens TCP listening sockets with an explicit backlog.
// The standard library always uses the system maximum, while liveness
// listeners only need a handful of pending connections.
package listener

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"github.com/fwcheck/fwcheck/internal/dns"
)

// DefaultBacklog is the pending connection queue of a liveness listener.
const DefaultBacklog = 10

// resolve turns host:port into a concrete address. Hostnames are looked
// up and IPv4 answers are preferred, matching a plain AF_INET bind.
func resolve(ctx context.Context, addr string) (netip.AddrPort, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return netip.AddrPort{}, err
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid port %q", portStr)
	}

	ip, err := dns.ResolveHostname(ctx, host, dns.Any)
	if err != nil {
		return netip.AddrPort{}, err
	}

	return netip.AddrPortFrom(ip, uint16(port)), nil
}
