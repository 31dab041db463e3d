//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package listener

import (
	"context"
	"net"
)

// Listen binds addr through the net package. The backlog cannot be set
// on this platform and the system default applies.
func Listen(ctx context.Context, addr string, _ int) (net.Listener, error) {
	ap, err := resolve(ctx, addr)
	if err != nil {
		return nil, err
	}

	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", ap.String())
}
