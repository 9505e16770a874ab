// SPDX-License-Identifier: MIT

// Package at provides a low level driver for SIMCOM AT command modems.
//
// The package implements the request/response framing used by the FONA
// family of cellular modules: commands are written as CRLF terminated ASCII
// lines and replies are read back, byte by byte, under a monotonic deadline
// from a half duplex serial transport.
//
// The engine is a single shot primitive - it never retries a command.
// Retry policy belongs to the layers above it.
package at

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Transport is the byte stream connecting the driver to the modem.
//
// Implementations are assumed to be half duplex; the engine never writes
// while a read is outstanding, and a Transport must not be shared between
// engines.
type Transport interface {
	io.ReadWriter

	// Buffered returns the number of bytes available to read without
	// blocking.
	Buffered() int

	// ResetInputBuffer discards any unread bytes received from the modem.
	ResetInputBuffer() error
}

const (
	// maxLineLen caps the accumulated reply length to bound buffer growth
	// against a babbling device.
	maxLineLen = 254

	// Prompt is the byte the modem emits when it is ready to accept a raw
	// payload, e.g. after AT+CIPSEND or AT+CMGS.
	Prompt = byte('>')
)

// ErrNoReply indicates the deadline elapsed without the modem sending any
// reply. This is the normal signal for a timed out command, not a
// transport fault.
var ErrNoReply = errors.New("no reply")

// ReplyError indicates the modem answered, but with something other than
// the expected reply. The value is the line received.
type ReplyError string

func (e ReplyError) Error() string {
	return "unexpected reply: " + string(e)
}

// AT provides the command engine for a modem on a Transport.
//
// At most one command may be in flight at a time; the engine owns the
// transport input buffer for the duration of each transaction.
type AT struct {
	t Transport

	// default deadline for a reply
	timeout time.Duration

	// sleep between polls of the transport while waiting for bytes
	poll time.Duration
}

// Option is a construction option for an AT.
type Option func(*AT)

// New creates a new AT engine on the transport.
func New(t Transport, options ...Option) *AT {
	a := &AT{
		t:       t,
		timeout: 500 * time.Millisecond,
		poll:    time.Millisecond,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// WithTimeout sets the default deadline applied to reply reads when the
// caller does not provide one.
//
// The default is 500msec.
func WithTimeout(d time.Duration) Option {
	return func(a *AT) {
		a.timeout = d
	}
}

// WithPollInterval sets the sleep between polls of the transport while
// waiting for the modem to produce bytes.
//
// The default is 1msec.
func WithPollInterval(d time.Duration) Option {
	return func(a *AT) {
		a.poll = d
	}
}

// Timeout returns the default reply deadline.
func (a *AT) Timeout() time.Duration {
	return a.timeout
}

// Write writes raw bytes to the transport, bypassing command framing.
//
// It is used for payload phases such as socket sends, where the data must
// not be CRLF terminated.
func (a *AT) Write(p []byte) (int, error) {
	return a.t.Write(p)
}

// Send discards any stale input left over from a previous, possibly timed
// out, transaction and writes cmd terminated with CRLF.
func (a *AT) Send(cmd string) error {
	if err := a.t.ResetInputBuffer(); err != nil {
		return errors.Wrap(err, "reset input")
	}
	_, err := a.t.Write([]byte(cmd + "\r\n"))
	return errors.Wrap(err, "write command")
}

// ReadLine reads a single reply line from the modem.
//
// Carriage returns are discarded, as is a line feed arriving as the very
// first byte - the modem prefixes replies with a blank line. The next line
// feed terminates the read. A zero timeout applies the default.
//
// The returned slice is owned by the caller and is empty if the deadline
// elapsed before any reply byte arrived.
func (a *AT) ReadLine(timeout time.Duration) []byte {
	return a.readLine(timeout, false)
}

// ReadMultiline reads reply lines until the deadline elapses.
//
// Line feeds after the first byte are retained as separators. Multi-line
// replies, such as identification strings, carry no terminator of their
// own, so only the deadline (or the length cap) ends the read.
func (a *AT) ReadMultiline(timeout time.Duration) []byte {
	return a.readLine(timeout, true)
}

func (a *AT) readLine(timeout time.Duration, multiline bool) []byte {
	if timeout == 0 {
		timeout = a.timeout
	}
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 0, 64)
	var b [1]byte
	for {
		for a.t.Buffered() > 0 {
			n, err := a.t.Read(b[:])
			if err != nil || n == 0 {
				return buf
			}
			c := b[0]
			if c == '\r' {
				continue
			}
			if c == '\n' {
				if len(buf) == 0 {
					// leading blank line
					continue
				}
				if !multiline {
					return buf
				}
			}
			buf = append(buf, c)
			if len(buf) >= maxLineLen {
				return buf
			}
		}
		if !time.Now().Before(deadline) {
			return buf
		}
		time.Sleep(a.poll)
	}
}

// ReadBytes reads up to n raw bytes from the transport, without line
// framing, stopping early if the deadline elapses.
//
// It is used for the payload phase of socket and HTTP reads.
func (a *AT) ReadBytes(n int, timeout time.Duration) []byte {
	if timeout == 0 {
		timeout = a.timeout
	}
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 0, n)
	var b [1]byte
	for len(buf) < n {
		if a.t.Buffered() == 0 {
			if !time.Now().Before(deadline) {
				break
			}
			time.Sleep(a.poll)
			continue
		}
		m, err := a.t.Read(b[:])
		if err != nil {
			break
		}
		if m > 0 {
			buf = append(buf, b[0])
		}
	}
	return buf
}

// Request sends cmd and returns the single reply line.
func (a *AT) Request(cmd string) ([]byte, error) {
	if err := a.Send(cmd); err != nil {
		return nil, err
	}
	line := a.readLine(a.timeout, false)
	if len(line) == 0 {
		return nil, ErrNoReply
	}
	return line, nil
}

// RequestMultiline sends cmd and returns the reply accumulated until the
// default deadline elapses.
func (a *AT) RequestMultiline(cmd string) ([]byte, error) {
	if err := a.Send(cmd); err != nil {
		return nil, err
	}
	buf := a.readLine(a.timeout, true)
	if len(buf) == 0 {
		return nil, ErrNoReply
	}
	return buf, nil
}

// SendCheck sends cmd and verifies that the reply contains want.
//
// Containment rather than exact equality is the contract, so verbose
// firmware that decorates status replies still passes. A zero timeout
// applies the default.
//
// The error is ErrNoReply on timeout, or a ReplyError carrying the line
// received on a mismatch. Both are expected, recoverable outcomes.
func (a *AT) SendCheck(cmd, want string, timeout time.Duration) error {
	if err := a.Send(cmd); err != nil {
		return err
	}
	return a.expect(want, timeout)
}

// SendQuoted writes prefix immediately followed by value wrapped in quote
// characters, as the SIMCOM dialect requires for string valued parameters,
// then verifies the reply contains want.
func (a *AT) SendQuoted(prefix, value, want string, timeout time.Duration) error {
	if err := a.t.ResetInputBuffer(); err != nil {
		return errors.Wrap(err, "reset input")
	}
	if _, err := a.t.Write([]byte(prefix + `"` + value + `"` + "\r\n")); err != nil {
		return errors.Wrap(err, "write command")
	}
	return a.expect(want, timeout)
}

// Expect reads the next reply line and verifies it contains want.
//
// It is used for commands that confirm in stages, such as CIPSTART, where
// each confirmation gets its own deadline.
func (a *AT) Expect(want string, timeout time.Duration) error {
	return a.expect(want, timeout)
}

func (a *AT) expect(want string, timeout time.Duration) error {
	if timeout == 0 {
		timeout = a.timeout
	}
	line := a.readLine(timeout, false)
	if len(line) == 0 {
		return ErrNoReply
	}
	if !bytes.Contains(line, []byte(want)) {
		return ReplyError(line)
	}
	return nil
}

// SendParse sends cmd, reads the reply line, and extracts the idx-th field
// after marker. See ParseReply for the field contract.
func (a *AT) SendParse(cmd, marker string, divider byte, idx int) (string, error) {
	line, err := a.Request(cmd)
	if err != nil {
		return "", err
	}
	f, ok := ParseReply(line, marker, divider, idx)
	if !ok {
		return "", ReplyError(line)
	}
	return f, nil
}

// SendParseInt is SendParse for integer valued fields.
func (a *AT) SendParseInt(cmd, marker string, divider byte, idx int) (int, error) {
	f, err := a.SendParse(cmd, marker, divider, idx)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(f))
	if err != nil {
		return 0, errors.Wrap(err, "parse field")
	}
	return n, nil
}
