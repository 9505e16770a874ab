// SPDX-License-Identifier: MIT

// Package trace provides a decorator for the modem Transport that logs
// all reads, writes and input flushes.
//
// The driver itself never logs; interposing a Trace between the serial
// port and the at engine is the supported way to watch the AT exchange.
package trace

import (
	"log"
	"os"

	"github.com/celldrv/fona/at"
)

// Trace is a trace log on a modem Transport.
type Trace struct {
	t    at.Transport
	l    Logger
	wfmt string
	rfmt string
	ffmt string
}

// Logger defines the interface used to log trace messages.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Option modifies a Trace object created by New.
type Option func(*Trace)

// New creates a new trace on the Transport.
func New(t at.Transport, options ...Option) *Trace {
	tr := &Trace{
		t:    t,
		wfmt: "w: %q",
		rfmt: "r: %q",
		ffmt: "f: input flushed",
	}
	for _, option := range options {
		option(tr)
	}
	if tr.l == nil {
		tr.l = log.New(os.Stdout, "", log.LstdFlags)
	}
	return tr
}

// WithReadFormat sets the format used for read logs.
func WithReadFormat(format string) Option {
	return func(t *Trace) {
		t.rfmt = format
	}
}

// WithWriteFormat sets the format used for write logs.
func WithWriteFormat(format string) Option {
	return func(t *Trace) {
		t.wfmt = format
	}
}

// WithLogger specifies the logger to be used to log trace messages.
//
// By default traces are logged to Stdout.
func WithLogger(l Logger) Option {
	return func(t *Trace) {
		t.l = l
	}
}

func (t *Trace) Read(p []byte) (n int, err error) {
	n, err = t.t.Read(p)
	if n > 0 {
		t.l.Printf(t.rfmt, p[:n])
	}
	return n, err
}

func (t *Trace) Write(p []byte) (n int, err error) {
	n, err = t.t.Write(p)
	if n > 0 {
		t.l.Printf(t.wfmt, p[:n])
	}
	return n, err
}

// Buffered is passed through unlogged - it is called in a tight poll
// loop and would swamp the log.
func (t *Trace) Buffered() int {
	return t.t.Buffered()
}

// ResetInputBuffer logs the flush only when bytes are discarded.
func (t *Trace) ResetInputBuffer() error {
	if t.t.Buffered() > 0 {
		t.l.Printf(t.ffmt)
	}
	return t.t.ResetInputBuffer()
}
