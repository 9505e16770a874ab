// SPDX-License-Identifier: MIT

// Test doubles shared by the fona package tests.
//
// The mockModem does not emulate a real module; it replies to scripted
// wire bytes with scripted responses, enough to exercise the driver's
// framing and sequencing.

package fona_test

import (
	"context"
	"testing"
	"time"

	"github.com/celldrv/fona/at"
	"github.com/celldrv/fona/fona"
	"github.com/stretchr/testify/require"
)

type mockModem struct {
	// replies appended to rx when the wire bytes are written
	cmdSet map[string][]string

	// per-command queues consumed one entry per write, taking precedence
	// over cmdSet
	seq map[string][][]string

	writes []string
	rx     []byte
}

func (m *mockModem) stuff(b []byte) {
	m.rx = append(m.rx, b...)
}

func (m *mockModem) Read(p []byte) (int, error) {
	if len(m.rx) == 0 {
		return 0, nil
	}
	n := copy(p, m.rx)
	m.rx = m.rx[n:]
	return n, nil
}

func (m *mockModem) Write(p []byte) (int, error) {
	m.writes = append(m.writes, string(p))
	if q, ok := m.seq[string(p)]; ok && len(q) > 0 {
		for _, r := range q[0] {
			m.stuff([]byte(r))
		}
		m.seq[string(p)] = q[1:]
		return len(p), nil
	}
	for _, r := range m.cmdSet[string(p)] {
		m.stuff([]byte(r))
	}
	return len(p), nil
}

func (m *mockModem) Buffered() int {
	return len(m.rx)
}

func (m *mockModem) ResetInputBuffer() error {
	m.rx = nil
	return nil
}

// pin records transitions on the reset line.
type pin struct {
	transitions []bool
}

func (p *pin) High() {
	p.transitions = append(p.transitions, true)
}

func (p *pin) Low() {
	p.transitions = append(p.transitions, false)
}

// initCmdSet returns the replies for a clean init exchange identifying as
// id.
func initCmdSet(id string) map[string][]string {
	return map[string][]string{
		"AT\r\n":       {"\r\nOK\r\n"},
		"ATE0\r\n":     {"\r\nOK\r\n"},
		"AT+CVHU=0\r\n": {"\r\nOK\r\n"},
		"ATI\r\n":      {"\r\n" + id + "\r\n\r\nOK\r\n"},
	}
}

// newDevice builds an uninitialized Device on the mock with fast probe
// and reply timing.
func newDevice(mm *mockModem, options ...fona.Option) *fona.Device {
	a := at.New(mm, at.WithTimeout(10*time.Millisecond))
	options = append([]fona.Option{
		fona.WithProbeAttempts(2),
		fona.WithProbeInterval(time.Millisecond),
	}, options...)
	return fona.New(a, options...)
}

// initDevice builds a Device and runs Init against a modem identifying as
// id, clearing the write log afterwards so tests see only their own
// commands.
func initDevice(t *testing.T, mm *mockModem, id string) *fona.Device {
	t.Helper()
	if mm.cmdSet == nil {
		mm.cmdSet = map[string][]string{}
	}
	for k, v := range initCmdSet(id) {
		if _, ok := mm.cmdSet[k]; !ok {
			mm.cmdSet[k] = v
		}
	}
	d := newDevice(mm)
	require.Nil(t, d.Init(context.Background()))
	mm.writes = nil
	return d
}
