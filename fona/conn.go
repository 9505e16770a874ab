// SPDX-License-Identifier: MIT

package fona

import (
	"io"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Dial opens a connection through the modem and returns it as a net.Conn.
//
// network is "tcp" or "udp". The address host is resolved through the
// carrier's DNS unless it is already a dotted quad. The bearer must be up
// before dialling.
//
// The returned Conn shares the Device's transport, so it must not be used
// concurrently with other Device operations.
func (d *Device) Dial(network, address string) (net.Conn, error) {
	var proto Protocol
	switch network {
	case "tcp":
		proto = TCP
	case "udp":
		proto = UDP
	default:
		return nil, errors.Errorf("unsupported network %q", network)
	}
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, errors.Wrap(err, "split address")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.Wrap(err, "parse port")
	}
	if net.ParseIP(host) == nil {
		ip, err := d.HostByName(host)
		if err != nil {
			return nil, errors.Wrap(err, "resolve host")
		}
		host = ip.String()
	}
	sock, err := d.GetSocket()
	if err != nil {
		return nil, err
	}
	if err := d.SocketConnect(sock, host, port, proto); err != nil {
		return nil, err
	}
	return &Conn{
		d:      d,
		sock:   sock,
		remote: modemAddr{network: network, addr: address},
	}, nil
}

// Conn adapts a modem socket to net.Conn.
type Conn struct {
	d      *Device
	sock   int
	remote modemAddr

	readDeadline time.Time
	closed       bool
}

// Read reads from the socket, blocking until data is available, the read
// deadline passes, or the peer closes.
func (c *Conn) Read(p []byte) (int, error) {
	if c.closed {
		return 0, net.ErrClosed
	}
	for {
		avail, err := c.d.SocketAvailable(c.sock)
		if err != nil {
			return 0, err
		}
		if avail > 0 {
			n := avail
			if n > len(p) {
				n = len(p)
			}
			buf, err := c.d.SocketRead(c.sock, n)
			if err != nil {
				return 0, err
			}
			return copy(p, buf), nil
		}
		connected, err := c.d.SocketStatus(c.sock)
		if err != nil {
			return 0, err
		}
		if !connected {
			return 0, io.EOF
		}
		if !c.readDeadline.IsZero() && !time.Now().Before(c.readDeadline) {
			return 0, timeoutError{}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Write writes to the socket. Large payloads are not fragmented - the
// modem caps a single send at its own MTU, so callers should keep writes
// under that.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, net.ErrClosed
	}
	return c.d.SocketWrite(c.sock, p)
}

// Close closes the socket with a quick close.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.d.SocketClose(c.sock, true)
}

// LocalAddr returns the bearer address, or an empty address if the query
// fails.
func (c *Conn) LocalAddr() net.Addr {
	ip, err := c.d.LocalIP()
	if err != nil {
		return modemAddr{network: c.remote.network}
	}
	return modemAddr{network: c.remote.network, addr: ip.String()}
}

// RemoteAddr returns the address passed to Dial.
func (c *Conn) RemoteAddr() net.Addr {
	return c.remote
}

// SetDeadline sets both read and write deadlines.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.SetReadDeadline(t)
}

// SetReadDeadline bounds blocking in Read.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.readDeadline = t
	return nil
}

// SetWriteDeadline is accepted but not applied - writes are bounded by
// the modem's own send confirmation timeout.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return nil
}

type modemAddr struct {
	network string
	addr    string
}

func (a modemAddr) Network() string { return a.network }
func (a modemAddr) String() string  { return a.addr }

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
