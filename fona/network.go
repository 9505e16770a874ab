// SPDX-License-Identifier: MIT

package fona

import (
	"net"
	"strings"
	"time"

	"github.com/celldrv/fona/at"
	"github.com/pkg/errors"
)

// RegStatus is the network registration state reported by AT+CREG?.
type RegStatus int

const (
	// NotRegistered - not registered and not searching.
	NotRegistered RegStatus = iota
	// RegisteredHome - registered on the home network.
	RegisteredHome
	// Searching - not registered, searching for an operator.
	Searching
	// Denied - registration denied.
	Denied
	// RegUnknown - state unknown.
	RegUnknown
	// RegisteredRoaming - registered on a visited network.
	RegisteredRoaming
)

func (s RegStatus) String() string {
	switch s {
	case NotRegistered:
		return "not registered"
	case RegisteredHome:
		return "registered (home)"
	case Searching:
		return "searching"
	case Denied:
		return "denied"
	case RegisteredRoaming:
		return "registered (roaming)"
	}
	return "unknown"
}

// NetworkStatus returns the current registration state.
//
// The value is a point query, never cached. Callers waiting for attach
// should poll and treat RegisteredHome as success.
func (d *Device) NetworkStatus() (RegStatus, error) {
	n, err := d.at.SendParseInt("AT+CREG?", "+CREG: ", ',', 1)
	if err != nil {
		return RegUnknown, err
	}
	return RegStatus(n), nil
}

// RSSI returns the received signal strength in dBm, or 0 if the modem
// reports the level as unknown.
func (d *Device) RSSI() (int, error) {
	n, err := d.at.SendParseInt("AT+CSQ", "+CSQ: ", ',', 0)
	if err != nil {
		return 0, err
	}
	// read out the trailing OK
	d.at.ReadLine(tableTimeout)
	return rssiToDBm(n), nil
}

// rssiToDBm maps the CSQ level to dBm: the endpoints are pinned and the
// 2..30 range interpolates linearly between -110 and -54.
func rssiToDBm(n int) int {
	switch {
	case n == 0:
		return -115
	case n == 1:
		return -111
	case n == 31:
		return -52
	case n >= 2 && n <= 30:
		return -110 + (n-2)*2
	}
	return 0
}

// IMEI returns the modem's IMEI number.
func (d *Device) IMEI() (string, error) {
	buf, err := d.at.RequestMultiline("AT+GSN")
	if err != nil {
		return "", err
	}
	if len(buf) < 15 {
		return "", at.ReplyError(buf)
	}
	return string(buf[:15]), nil
}

// ICCID returns the SIM card's ICCID.
func (d *Device) ICCID() (string, error) {
	line, err := d.at.Request("AT+CCID")
	if err != nil {
		return "", err
	}
	// read out the trailing OK
	d.at.ReadLine(tableTimeout)
	return string(line), nil
}

// LocalIP returns the address assigned to the active bearer, confirming
// the data link is up.
func (d *Device) LocalIP() (net.IP, error) {
	if d.prof.sockets == dialectCIPOpen {
		f, err := d.at.SendParse("AT+IPADDR", "+IPADDR:", ',', 0)
		if err != nil {
			return nil, err
		}
		return parseIP(f)
	}
	line, err := d.at.Request("AT+CIFSR")
	if err != nil {
		return nil, err
	}
	return parseIP(string(line))
}

// HostByName resolves a hostname through the carrier's DNS.
//
// Resolution is asynchronous on the modem side: the command confirms with
// OK and the +CDNSGIP result line arrives later, so the reply is polled
// for up to 10sec.
func (d *Device) HostByName(host string) (net.IP, error) {
	if err := d.at.SendQuoted("AT+CDNSGIP=", host, "OK", 0); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(dnsTimeout)
	for time.Now().Before(deadline) {
		line := d.at.ReadLine(promptTimeout)
		if len(line) == 0 {
			continue
		}
		if f, ok := at.ParseReply(line, "+CDNSGIP:", ',', 2); ok {
			return parseIP(at.TrimQuotes(strings.TrimSpace(f)))
		}
	}
	return nil, at.ErrNoReply
}

// parseIP decodes a dotted quad, rejecting anything that is not strictly
// four octets.
func parseIP(s string) (net.IP, error) {
	s = strings.TrimSpace(s)
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return nil, errors.Errorf("invalid IP address %q", s)
	}
	return ip.To4(), nil
}
