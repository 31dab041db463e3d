package printers

import (
	"io"
	"time"
)

// options contains common display options shared by all printers
type options struct {
	Verbose       bool
	ShowTimestamp bool
	Writer        io.Writer
}

type hasOptions interface {
	options() *options
}

// WithVerbose enables the log sink. Without it only errors are printed.
func WithVerbose[T hasOptions]() func(T) {
	return func(p T) {
		p.options().Verbose = true
	}
}

// WithTimestamp prefixes every line with the local time
func WithTimestamp[T hasOptions]() func(T) {
	return func(p T) {
		p.options().ShowTimestamp = true
	}
}

// WithWriter redirects output, stdout by default
func WithWriter[T hasOptions](w io.Writer) func(T) {
	return func(p T) {
		p.options().Writer = w
	}
}

func (o *options) timestamp() string {
	if !o.ShowTimestamp {
		return ""
	}
	return time.Now().Format(time.DateTime)
}
