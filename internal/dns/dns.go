// Package dns handles all hostname resolution logic
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// DNSTimeout is the accepted duration when doing hostname resolution
const DNSTimeout = 2 * time.Second

// ErrNoAddress is returned when a lookup yields no address of the requested family.
var ErrNoAddress = errors.New("no usable address")

// Family restricts which IP versions a lookup may return.
type Family int

const (
	// Any prefers IPv4 and falls back to IPv6.
	Any Family = iota
	IPv4
	IPv6
)

// selectResolvedIP picks the first address of the requested family from the
// resolver's answer, keeping the resolver's ordering.
func selectResolvedIP(family Family, ipAddrs []netip.Addr) (netip.Addr, error) {
	var first4, first6 netip.Addr

	for _, ip := range ipAddrs {
		// static builds (CGO=0) return IPv4-mapped IPv6 addresses
		ip = ip.Unmap()

		if ip.Is4() && !first4.IsValid() {
			first4 = ip
		}
		if ip.Is6() && !first6.IsValid() {
			first6 = ip
		}
	}

	switch {
	case family == IPv4 && first4.IsValid():
		return first4, nil
	case family == IPv6 && first6.IsValid():
		return first6, nil
	case family == Any && first4.IsValid():
		return first4, nil
	case family == Any && first6.IsValid():
		return first6, nil
	default:
		return netip.Addr{}, ErrNoAddress
	}
}

// ResolveHostname returns an address for hostname. IP literals are
// returned as is; names are looked up with a timeout of DNSTimeout.
func ResolveHostname(ctx context.Context, hostname string, family Family) (netip.Addr, error) {
	// Ensure hostname is not an IP address
	if ip, err := netip.ParseAddr(hostname); err == nil {
		return ip.Unmap(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, DNSTimeout)
	defer cancel()

	ipAddrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", hostname)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve %s in %s: %w", hostname, DNSTimeout, err)
	}

	ip, err := selectResolvedIP(family, ipAddrs)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve %s: %w", hostname, err)
	}

	return ip, nil
}
