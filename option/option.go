// Package option holds the generic functional option type shared by the
// scanner, server, pinger and printers.
package option

// Option configures a value of type T.
type Option[T any] func(*T)

// Apply runs every non-nil option against v in order.
func Apply[T any](v *T, opts ...Option[T]) {
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
}
