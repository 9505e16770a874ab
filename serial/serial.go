// SPDX-License-Identifier: MIT

// Package serial provides a serial port Transport for the modem driver,
// wrapping tarm serial.
//
// The underlying port has no non-blocking available-bytes query, so the
// Port emulates one: a short read timeout is configured on the port and
// Buffered performs a bounded read, stashing anything received for the
// next Read.
package serial

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// Config contains the serial port configuration.
type Config struct {
	port        string
	baud        int
	readTimeout time.Duration
}

// Option modifies the Config used to open the port.
type Option func(*Config)

// WithPort sets the device path of the serial port.
//
// The default is platform dependent, e.g. /dev/ttyUSB0 on Linux.
func WithPort(port string) Option {
	return func(c *Config) {
		c.port = port
	}
}

// WithBaud sets the line rate.
//
// The default is 115200, the FONA module's fixed rate.
func WithBaud(baud int) Option {
	return func(c *Config) {
		c.baud = baud
	}
}

// WithReadTimeout sets the poll granularity used to emulate Buffered.
//
// The default is 5msec. Larger values reduce CPU load at the cost of
// reply latency.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.readTimeout = d
	}
}

// Port is a serial port implementing the driver's Transport contract.
type Port struct {
	p *serial.Port

	// bytes drawn from the port by Buffered but not yet Read
	pending []byte
}

// New opens the serial port.
func New(options ...Option) (*Port, error) {
	c := defaultConfig
	c.readTimeout = 5 * time.Millisecond
	for _, option := range options {
		option(&c)
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        c.port,
		Baud:        c.baud,
		ReadTimeout: c.readTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open port")
	}
	return &Port{p: p}, nil
}

func (p *Port) Read(b []byte) (int, error) {
	if len(p.pending) > 0 {
		n := copy(b, p.pending)
		p.pending = p.pending[n:]
		return n, nil
	}
	return p.p.Read(b)
}

func (p *Port) Write(b []byte) (int, error) {
	return p.p.Write(b)
}

// Buffered returns the number of bytes available to read without
// blocking beyond the configured read timeout.
func (p *Port) Buffered() int {
	if len(p.pending) == 0 {
		var b [64]byte
		n, _ := p.p.Read(b[:])
		if n > 0 {
			p.pending = append(p.pending, b[:n]...)
		}
	}
	return len(p.pending)
}

// ResetInputBuffer discards both the stashed bytes and anything still
// queued in the port.
func (p *Port) ResetInputBuffer() error {
	p.pending = nil
	return p.p.Flush()
}

// Close closes the port.
func (p *Port) Close() error {
	return p.p.Close()
}
