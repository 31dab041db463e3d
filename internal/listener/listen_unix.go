//go:build linux || darwin || freebsd || netbsd || openbsd

package listener

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"

	"golang.org/x/sys/unix"
)

// Listen binds addr and puts the socket into listening state with the
// given backlog. backlog <= 0 means DefaultBacklog.
func Listen(ctx context.Context, addr string, backlog int) (net.Listener, error) {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}

	ap, err := resolve(ctx, addr)
	if err != nil {
		return nil, err
	}

	sa, family, err := sockaddr(ap)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(fd)

	// same as the net package, lets a restarted server reclaim TIME_WAIT ports
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}

	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}

	f := os.NewFile(uintptr(fd), "tcp:"+ap.String())
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("wrap listener %s: %w", ap, err)
	}

	return ln, nil
}

func sockaddr(ap netip.AddrPort) (unix.Sockaddr, int, error) {
	ip := ap.Addr()

	if ip.Is4() {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: ip.As4()}, unix.AF_INET, nil
	}

	sa := &unix.SockaddrInet6{Port: int(ap.Port()), Addr: ip.As16()}
	if zone := ip.Zone(); zone != "" {
		iface, err := net.InterfaceByName(zone)
		if err != nil {
			return nil, 0, fmt.Errorf("zone %s: %w", zone, err)
		}
		sa.ZoneId = uint32(iface.Index)
	}

	return sa, unix.AF_INET6, nil
}
