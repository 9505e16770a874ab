// SPDX-License-Identifier: MIT

package fona

import (
	"strconv"
	"strings"

	"github.com/celldrv/fona/at"
)

// Protocol selects the transport protocol for a socket.
type Protocol int

const (
	// TCP connection mode.
	TCP Protocol = iota
	// UDP connection mode.
	UDP
)

func (p Protocol) String() string {
	if p == UDP {
		return "UDP"
	}
	return "TCP"
}

// Socket state is held on the modem, not locally: the modem can close a
// socket asynchronously on peer reset or timeout, so the connection table
// is the only source of truth. Allocation scans the live table and the
// full table response must be drained even after a match, or the left
// over status lines corrupt the next command.

// GetSocket allocates a socket handle by scanning the modem's connection
// table for the first entry in INITIAL or CLOSED state.
//
// Returns ErrNoFreeSocket when the table is fully occupied. The handle is
// not reserved in any way - it remains free until SocketConnect.
func (d *Device) GetSocket() (int, error) {
	if d.prof.sockets == dialectCIPOpen {
		return d.getSocket3G()
	}
	if err := d.at.Send("AT+CIPSTATUS"); err != nil {
		return 0, err
	}
	d.at.ReadLine(tableTimeout) // OK
	d.at.ReadLine(tableTimeout) // STATE header

	allocated := -1
	for sock := 0; sock < d.prof.maxSockets; sock++ {
		line := d.at.ReadLine(tableTimeout)
		f, ok := at.ParseReply(line, "C:", ',', 5)
		if !ok {
			continue
		}
		state := at.TrimQuotes(strings.TrimSpace(f))
		if allocated < 0 && (state == "INITIAL" || state == "CLOSED") {
			allocated = sock
		}
	}
	if allocated < 0 {
		return 0, ErrNoFreeSocket
	}
	return allocated, nil
}

// getSocket3G scans the CIPOPEN table. The 5320 firmware reports no state
// column; an entry with no connection fields is free.
func (d *Device) getSocket3G() (int, error) {
	if err := d.at.Send("AT+CIPOPEN?"); err != nil {
		return 0, err
	}
	allocated := -1
	for sock := 0; sock < d.prof.maxSockets; sock++ {
		line := d.at.ReadLine(tableTimeout)
		if _, ok := at.ParseReply(line, "+CIPOPEN: ", ',', 1); !ok {
			if allocated < 0 && len(line) > 0 {
				allocated = sock
			}
		}
	}
	// drain the trailing OK
	d.at.ReadLine(tableTimeout)
	if allocated < 0 {
		return 0, ErrNoFreeSocket
	}
	return allocated, nil
}

// SocketConnect opens a connection to dest:port on the socket.
//
// dest may be a dotted quad or a hostname the carrier can resolve. The
// start command confirms in two stages, OK then CONNECT OK, each with its
// own wait; failure at either stage is a connection failure and is not
// retried here.
func (d *Device) SocketConnect(sock int, dest string, port int, proto Protocol) error {
	if sock < 0 || sock >= d.prof.maxSockets {
		return ErrInvalidSocket
	}
	if d.prof.sockets == dialectCIPOpen {
		return d.socketConnect3G(sock, dest, port, proto)
	}

	// the start command fails unless the stack has been queried
	d.at.Send("AT+CIFSR")
	d.at.ReadLine(tableTimeout)

	cmd := "AT+CIPSTART=" + strconv.Itoa(sock) + `,"` + proto.String() + `","` +
		dest + `","` + strconv.Itoa(port) + `"`
	if err := d.at.Send(cmd); err != nil {
		return err
	}
	if err := d.at.Expect("OK", 0); err != nil {
		return err
	}
	return d.at.Expect("CONNECT OK", connectTimeout)
}

func (d *Device) socketConnect3G(sock int, dest string, port int, proto Protocol) error {
	// suppress receive headers so payload reads stay raw
	d.at.SendCheck("AT+CIPHEAD=0", "OK", 0)
	d.at.SendCheck("AT+CIPSRIP=0", "OK", 0)

	cmd := "AT+CIPOPEN=" + strconv.Itoa(sock) + `,"` + proto.String() + `","` +
		dest + `",` + strconv.Itoa(port)
	if err := d.at.Send(cmd); err != nil {
		return err
	}
	return d.at.Expect("Connect ok", connectTimeout)
}

// SocketWrite sends the payload on a connected socket.
//
// The exchange is three phase: announce the byte count, wait for the '>'
// prompt, then send the raw payload. If the prompt byte is absent the
// payload is never written and ErrNoPrompt is returned. The final
// confirmation gets a long deadline since the over the air send is slow.
func (d *Device) SocketWrite(sock int, p []byte) (int, error) {
	if sock < 0 || sock >= d.prof.maxSockets {
		return 0, ErrInvalidSocket
	}
	cmd := "AT+CIPSEND=" + strconv.Itoa(sock) + "," + strconv.Itoa(len(p))
	if err := d.at.Send(cmd); err != nil {
		return 0, err
	}
	line := d.at.ReadLine(promptTimeout)
	if len(line) == 0 || line[0] != at.Prompt {
		return 0, ErrNoPrompt
	}
	if _, err := d.at.Write(append(append([]byte{}, p...), '\r', '\n')); err != nil {
		return 0, err
	}
	if d.prof.sockets == dialectCIPOpen {
		return d.finishWrite3G(sock, len(p))
	}
	if err := d.at.Expect("SEND OK", sendTimeout); err != nil {
		return 0, err
	}
	return len(p), nil
}

// finishWrite3G consumes the OK and +CIPSEND accounting line, verifying
// the modem accepted the full payload, then waits for the confirmation.
func (d *Device) finishWrite3G(sock, n int) (int, error) {
	d.at.ReadLine(tableTimeout) // OK
	line := d.at.ReadLine(promptTimeout)
	sent, ok := at.ParseReplyInt(line, "+CIPSEND:", ',', 1)
	if !ok || sent != n {
		return 0, at.ReplyError(line)
	}
	if err := d.at.Expect("Send ok", send3GTimeout); err != nil {
		return 0, err
	}
	return n, nil
}

// SocketAvailable returns the number of bytes buffered on the modem for
// the socket.
//
// Receive is on demand: manual receive mode is configured at bring-up, so
// the modem never pushes data and the driver polls this before each read.
func (d *Device) SocketAvailable(sock int) (int, error) {
	if sock < 0 || sock >= d.prof.maxSockets {
		return 0, ErrInvalidSocket
	}
	marker := "+CIPRXGET: 4," + strconv.Itoa(sock) + ","
	n, err := d.at.SendParseInt("AT+CIPRXGET=4,"+strconv.Itoa(sock), marker, ',', 0)
	if err != nil {
		return 0, err
	}
	// read out the trailing OK
	d.at.ReadLine(tableTimeout)
	return n, nil
}

// SocketRead reads up to n bytes from the socket into an owned buffer.
//
// Reads at most what the modem has buffered; the returned slice is empty
// when nothing is pending.
func (d *Device) SocketRead(sock, n int) ([]byte, error) {
	if sock < 0 || sock >= d.prof.maxSockets {
		return nil, ErrInvalidSocket
	}
	cmd := "AT+CIPRXGET=2," + strconv.Itoa(sock) + "," + strconv.Itoa(n)
	if err := d.at.Send(cmd); err != nil {
		return nil, err
	}
	line := d.at.ReadLine(promptTimeout)
	cnt, ok := at.ParseReplyInt(line, "+CIPRXGET: ", ',', 2)
	if !ok {
		return nil, at.ReplyError(line)
	}
	buf := d.at.ReadBytes(cnt, 0)
	// read out the trailing OK
	d.at.ReadLine(tableTimeout)
	return buf, nil
}

// SocketStatus reports whether the socket is currently CONNECTED
// according to the modem's connection table.
func (d *Device) SocketStatus(sock int) (bool, error) {
	if sock < 0 || sock >= d.prof.maxSockets {
		return false, ErrInvalidSocket
	}
	if d.prof.sockets == dialectCIPOpen {
		_, err := d.remoteField3G(sock)
		return err == nil, nil
	}
	if err := d.at.SendCheck("AT+CIPSTATUS", "OK", tableTimeout); err != nil {
		return false, err
	}
	// eat the 'STATE:' line
	d.at.ReadLine(tableTimeout)

	connected := false
	for i := 0; i < d.prof.maxSockets; i++ {
		line := d.at.ReadLine(tableTimeout)
		if i != sock {
			continue
		}
		if f, ok := at.ParseReply(line, "C:", ',', 5); ok {
			connected = strings.Contains(f, "CONNECTED")
		}
	}
	return connected, nil
}

// RemoteIP returns the peer address of a connected socket.
func (d *Device) RemoteIP(sock int) (string, error) {
	if sock < 0 || sock >= d.prof.maxSockets {
		return "", ErrInvalidSocket
	}
	if d.prof.sockets == dialectCIPOpen {
		return d.remoteField3G(sock)
	}
	line, err := d.at.Request("AT+CIPSTATUS=" + strconv.Itoa(sock))
	if err != nil {
		return "", err
	}
	f, ok := at.ParseReply(line, "+CIPSTATUS:", ',', 3)
	if !ok {
		return "", at.ReplyError(line)
	}
	return at.TrimQuotes(strings.TrimSpace(f)), nil
}

// remoteField3G scans the CIPOPEN table for the socket's peer address.
func (d *Device) remoteField3G(sock int) (string, error) {
	if err := d.at.Send("AT+CIPOPEN?"); err != nil {
		return "", err
	}
	addr := ""
	found := false
	for i := 0; i < d.prof.maxSockets; i++ {
		line := d.at.ReadLine(tableTimeout)
		if i != sock {
			continue
		}
		if f, ok := at.ParseReply(line, "+CIPOPEN:", ',', 2); ok {
			addr = at.TrimQuotes(strings.TrimSpace(f))
			found = true
		}
	}
	// drain the trailing OK
	d.at.ReadLine(tableTimeout)
	if !found {
		return "", ErrNotConnected
	}
	return addr, nil
}

// SocketClose closes the socket. quick skips the graceful FIN exchange at
// the modem's discretion.
func (d *Device) SocketClose(sock int, quick bool) error {
	if sock < 0 || sock >= d.prof.maxSockets {
		return ErrInvalidSocket
	}
	if d.prof.sockets == dialectCIPOpen {
		return d.at.SendCheck("AT+CIPCLOSE="+strconv.Itoa(sock), "OK", 0)
	}
	q := "1"
	if !quick {
		q = "0"
	}
	cmd := "AT+CIPCLOSE=" + strconv.Itoa(sock) + "," + q
	line, err := d.at.Request(cmd)
	if err != nil {
		return err
	}
	if !strings.Contains(string(line), "CLOSE OK") {
		return at.ReplyError(line)
	}
	return nil
}
