// SPDX-License-Identifier: MIT

package fona_test

import (
	"strconv"
	"testing"

	"github.com/celldrv/fona/fona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cipStatusTable builds the AT+CIPSTATUS response with the given per
// socket states.
func cipStatusTable(states []string) []string {
	rsp := []string{"\r\nOK\r\n", "\r\nSTATE: IP STATUS\r\n"}
	for i, s := range states {
		rsp = append(rsp,
			"\r\nC: "+strconv.Itoa(i)+",0,\"TCP\",\"\",\"\",\""+s+"\"\r\n")
	}
	return rsp
}

func TestGetSocket(t *testing.T) {
	patterns := []struct {
		name   string
		states []string
		xs     int
		err    error
	}{
		{
			"first initial",
			[]string{"INITIAL", "INITIAL", "INITIAL", "INITIAL", "INITIAL", "INITIAL"},
			0,
			nil,
		},
		{
			"skips connected",
			[]string{"CONNECTED", "CONNECTED", "CLOSED", "INITIAL", "INITIAL", "INITIAL"},
			2,
			nil,
		},
		{
			"closed counts as free",
			[]string{"CONNECTED", "CLOSED", "CONNECTED", "CONNECTED", "CONNECTED", "CONNECTED"},
			1,
			nil,
		},
		{
			"table full",
			[]string{"CONNECTED", "CONNECTED", "CONNECTED", "CONNECTED", "CONNECTED", "CONNECTED"},
			0,
			fona.ErrNoFreeSocket,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			mm := mockModem{cmdSet: map[string][]string{
				"AT+CIPSTATUS\r\n": cipStatusTable(p.states),
			}}
			d := newDevice(&mm)
			sock, err := d.GetSocket()
			assert.Equal(t, p.err, err)
			if p.err == nil {
				assert.Equal(t, p.xs, sock)
				assert.Less(t, sock, d.MaxSockets())
			}
			// the full table must be drained
			assert.Equal(t, 0, mm.Buffered())
		}
		t.Run(p.name, f)
	}
}

func TestGetSocket3G(t *testing.T) {
	rsp := []string{"\r\n+CIPOPEN: 0,\"TCP\",\"93.184.216.34\",80,1\r\n"}
	for i := 1; i < 10; i++ {
		rsp = append(rsp, "\r\n+CIPOPEN: "+strconv.Itoa(i)+"\r\n")
	}
	rsp = append(rsp, "\r\nOK\r\n")
	mm := mockModem{}
	d := initDevice(t, &mm, "SIMCOM_SIM5320A")
	mm.cmdSet["AT+CIPOPEN?\r\n"] = rsp
	sock, err := d.GetSocket()
	require.Nil(t, err)
	assert.Equal(t, 1, sock)
	assert.Equal(t, 0, mm.Buffered())
}

func TestSocketConnect(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIFSR\r\n": {"\r\n10.151.20.3\r\n"},
		"AT+CIPSTART=0,\"TCP\",\"93.184.216.34\",\"80\"\r\n": {
			"\r\nOK\r\n",
			"\r\nCONNECT OK\r\n",
		},
	}}
	d := newDevice(&mm)
	err := d.SocketConnect(0, "93.184.216.34", 80, fona.TCP)
	require.Nil(t, err)
}

func TestSocketConnectRefused(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIFSR\r\n": {"\r\n10.151.20.3\r\n"},
		"AT+CIPSTART=0,\"TCP\",\"93.184.216.34\",\"80\"\r\n": {
			"\r\nOK\r\n",
			"\r\nCONNECT FAIL\r\n",
		},
	}}
	d := newDevice(&mm)
	err := d.SocketConnect(0, "93.184.216.34", 80, fona.TCP)
	require.NotNil(t, err)
}

func TestSocketConnectUDP(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIFSR\r\n": {"\r\n10.151.20.3\r\n"},
		"AT+CIPSTART=1,\"UDP\",\"10.0.0.1\",\"5000\"\r\n": {
			"\r\nOK\r\n",
			"\r\nCONNECT OK\r\n",
		},
	}}
	d := newDevice(&mm)
	require.Nil(t, d.SocketConnect(1, "10.0.0.1", 5000, fona.UDP))
}

func TestSocketConnect3G(t *testing.T) {
	mm := mockModem{}
	d := initDevice(t, &mm, "SIMCOM_SIM5320A")
	mm.cmdSet["AT+CIPHEAD=0\r\n"] = []string{"\r\nOK\r\n"}
	mm.cmdSet["AT+CIPSRIP=0\r\n"] = []string{"\r\nOK\r\n"}
	mm.cmdSet["AT+CIPOPEN=0,\"TCP\",\"93.184.216.34\",80\r\n"] = []string{"\r\nConnect ok\r\n"}
	require.Nil(t, d.SocketConnect(0, "93.184.216.34", 80, fona.TCP))
}

func TestSocketWrite(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIPSEND=0,5\r\n": {"\r\n> "},
		"hello\r\n":          {"\r\nSEND OK\r\n"},
	}}
	d := newDevice(&mm)
	n, err := d.SocketWrite(0, []byte("hello"))
	require.Nil(t, err)
	assert.Equal(t, 5, n)
}

// A missing prompt byte fails the send before any payload is written.
func TestSocketWriteNoPrompt(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIPSEND=0,5\r\n": {"\r\nERROR\r\n"},
	}}
	d := newDevice(&mm)
	_, err := d.SocketWrite(0, []byte("hello"))
	require.Equal(t, fona.ErrNoPrompt, err)
	assert.NotContains(t, mm.writes, "hello\r\n")
}

func TestSocketWrite3G(t *testing.T) {
	mm := mockModem{}
	d := initDevice(t, &mm, "SIMCOM_SIM5320A")
	mm.cmdSet["AT+CIPSEND=0,5\r\n"] = []string{"\r\n> "}
	mm.cmdSet["hello\r\n"] = []string{"\r\nOK\r\n\r\n+CIPSEND: 0,5,5\r\n\r\nSend ok\r\n"}
	n, err := d.SocketWrite(0, []byte("hello"))
	require.Nil(t, err)
	assert.Equal(t, 5, n)
}

func TestSocketAvailable(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIPRXGET=4,0\r\n": {"\r\n+CIPRXGET: 4,0,23\r\n\r\nOK\r\n"},
	}}
	d := newDevice(&mm)
	n, err := d.SocketAvailable(0)
	require.Nil(t, err)
	assert.Equal(t, 23, n)
}

func TestSocketRead(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIPRXGET=2,0,5\r\n": {"\r\n+CIPRXGET: 2,0,5,0\r\nhello\r\nOK\r\n"},
	}}
	d := newDevice(&mm)
	buf, err := d.SocketRead(0, 5)
	require.Nil(t, err)
	assert.Equal(t, "hello", string(buf))
}

// The modem may confirm fewer bytes than requested.
func TestSocketReadShort(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIPRXGET=2,0,10\r\n": {"\r\n+CIPRXGET: 2,0,3,0\r\nhey\r\nOK\r\n"},
	}}
	d := newDevice(&mm)
	buf, err := d.SocketRead(0, 10)
	require.Nil(t, err)
	assert.Equal(t, "hey", string(buf))
}

func TestSocketStatus(t *testing.T) {
	states := []string{"INITIAL", "CONNECTED", "INITIAL", "INITIAL", "INITIAL", "INITIAL"}
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIPSTATUS\r\n": cipStatusTable(states),
	}}
	d := newDevice(&mm)
	connected, err := d.SocketStatus(1)
	require.Nil(t, err)
	assert.True(t, connected)

	connected, err = d.SocketStatus(0)
	require.Nil(t, err)
	assert.False(t, connected)
}

func TestRemoteIP(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIPSTATUS=1\r\n": {
			"\r\n+CIPSTATUS: 1,0,\"TCP\",\"93.184.216.34\",\"80\",\"CONNECTED\"\r\n",
		},
	}}
	d := newDevice(&mm)
	ip, err := d.RemoteIP(1)
	require.Nil(t, err)
	assert.Equal(t, "93.184.216.34", ip)
}

func TestSocketClose(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{
		"AT+CIPCLOSE=1,1\r\n": {"\r\n1, CLOSE OK\r\n"},
		"AT+CIPCLOSE=2,0\r\n": {"\r\n2, CLOSE OK\r\n"},
	}}
	d := newDevice(&mm)
	require.Nil(t, d.SocketClose(1, true))
	require.Nil(t, d.SocketClose(2, false))
}

func TestSocketHandleRange(t *testing.T) {
	mm := mockModem{}
	d := newDevice(&mm)
	_, err := d.SocketWrite(6, []byte("x"))
	assert.Equal(t, fona.ErrInvalidSocket, err)
	_, err = d.SocketRead(6, 1)
	assert.Equal(t, fona.ErrInvalidSocket, err)
	_, err = d.SocketAvailable(-1)
	assert.Equal(t, fona.ErrInvalidSocket, err)
	assert.Equal(t, fona.ErrInvalidSocket, d.SocketClose(6, true))
	assert.Equal(t, fona.ErrInvalidSocket, d.SocketConnect(6, "10.0.0.1", 80, fona.TCP))
	// nothing reached the wire
	assert.Empty(t, mm.writes)
}
