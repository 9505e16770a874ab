// SPDX-License-Identifier: MIT

// Package fona provides a driver for SIMCOM FONA family cellular modules.
//
// A Device owns an at.AT command engine and exposes the modem session:
// hardware reset and probing, variant resolution, network status, GPRS
// bearer bring-up, GPS control, DNS resolution, and a TCP/UDP socket
// multiplexer.
//
// The Device is not safe for concurrent use. The serial transport is half
// duplex and the modem answers one command at a time, so all operations
// must be serialized by the caller.
package fona

import (
	"bytes"
	"context"
	"time"

	"github.com/celldrv/fona/at"
	"github.com/celldrv/fona/retry"
	"github.com/pkg/errors"
)

// Pin is the digital output controlling the modem's reset line.
type Pin interface {
	High()
	Low()
}

// APN holds the carrier access point credentials for bearer bring-up.
// Username and Password may be empty.
type APN struct {
	Name     string
	Username string
	Password string
}

const (
	defaultProbeAttempts = 14
	defaultProbeInterval = 500 * time.Millisecond

	// settleTime separates init steps, per the module hardware notes.
	settleTime = 100 * time.Millisecond

	shutTimeout    = 20 * time.Second
	attachTimeout  = 10 * time.Second
	bearerTimeout  = 30 * time.Second
	bringupTimeout = 10 * time.Second
	netopenTimeout = 10 * time.Second
	dnsTimeout     = 10 * time.Second
	sendTimeout    = 3 * time.Second
	send3GTimeout  = 10 * time.Second
	connectTimeout = 10 * time.Second
	smsTimeout     = 10 * time.Second
	httpTimeout    = 30 * time.Second

	// tableTimeout bounds each line of a connection status table.
	tableTimeout = 100 * time.Millisecond

	promptTimeout = 500 * time.Millisecond
)

// Device is a modem session on an AT engine.
type Device struct {
	at  *at.AT
	rst Pin

	variant Variant
	prof    profile
	apn     APN

	probeAttempts int
	probeInterval time.Duration
}

// Option is a construction option for a Device.
type Option func(*Device)

// New creates a Device on the AT engine.
//
// The Device is not usable until Init has succeeded.
func New(a *at.AT, options ...Option) *Device {
	d := &Device{
		at:            a,
		prof:          profiles[Unknown],
		probeAttempts: defaultProbeAttempts,
		probeInterval: defaultProbeInterval,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// WithResetPin provides the digital output wired to the modem's RST line.
// Without it Init skips the hardware reset pulse.
func WithResetPin(p Pin) Option {
	return func(d *Device) {
		d.rst = p
	}
}

// WithProbeAttempts sets the number of AT probes sent before Init gives
// up.
//
// The default is 14.
func WithProbeAttempts(n int) Option {
	return func(d *Device) {
		d.probeAttempts = n
	}
}

// WithProbeInterval sets the spacing between AT probes.
//
// The default is 500msec.
func WithProbeInterval(i time.Duration) Option {
	return func(d *Device) {
		d.probeInterval = i
	}
}

// Variant returns the modem variant resolved by Init, or Unknown.
func (d *Device) Variant() Variant {
	return d.variant
}

// MaxSockets returns the size of the modem's connection table.
func (d *Device) MaxSockets() int {
	return d.prof.maxSockets
}

// Init resets the modem and brings the session to a usable state.
//
// The sequence is a hardware reset pulse, a bounded AT probe loop, echo
// off, hang-up mode setup, and identity resolution. Probe exhaustion
// returns ErrNoModem - there is no recovery path without AT
// responsiveness.
func (d *Device) Init(ctx context.Context) error {
	d.reset()

	if err := d.probe(ctx); err != nil {
		return err
	}

	// Twice - the first reply may carry the echoed command.
	d.at.SendCheck("ATE0", "OK", 0)
	time.Sleep(settleTime)
	if err := d.at.SendCheck("ATE0", "OK", 0); err != nil {
		return errors.Wrap(ErrNoModem, "echo off")
	}
	time.Sleep(settleTime)

	// Not supported by all firmware, so the reply is not checked.
	d.at.SendCheck("AT+CVHU=0", "OK", 0)
	time.Sleep(settleTime)

	return d.resolveVariant()
}

// reset pulses the RST line. The modem requires a 10msec low pulse and
// about 100msec to restart before it will answer AT commands.
func (d *Device) reset() {
	if d.rst == nil {
		return
	}
	d.rst.High()
	time.Sleep(10 * time.Millisecond)
	d.rst.Low()
	time.Sleep(100 * time.Millisecond)
	d.rst.High()
}

// probe repeats AT until the modem shows proof of life, accepting either
// an OK or the echoed command. After the budget is exhausted a final
// three blind sends are made in case the modem is answering but garbling
// replies.
func (d *Device) probe(ctx context.Context) error {
	err := retry.Do(ctx, d.probeAttempts, d.probeInterval, func() bool {
		if d.at.SendCheck("AT", "OK", 0) == nil {
			return true
		}
		return d.at.SendCheck("AT", "AT", 0) == nil
	})
	if err == nil {
		return nil
	}
	if err != retry.ErrExhausted {
		return err
	}
	for i := 0; i < 3; i++ {
		if d.at.SendCheck("AT", "OK", 0) == nil {
			return nil
		}
		time.Sleep(settleTime)
	}
	return ErrNoModem
}

// resolveVariant matches the ATI identification string against the known
// module signatures, refining the coarse SIM800 match with AT+GMM.
func (d *Device) resolveVariant() error {
	id, err := d.at.RequestMultiline("ATI")
	if err != nil {
		return errors.Wrap(err, "identify")
	}
	d.variant = Unknown
	for _, s := range variantSignatures {
		if bytes.Contains(id, []byte(s.sig)) {
			d.variant = s.v
			break
		}
	}
	if d.variant == FONA800L {
		gmm, err := d.at.RequestMultiline("AT+GMM")
		if err == nil && bytes.Contains(gmm, []byte("SIM800H")) {
			d.variant = FONA800H
		}
	}
	d.prof = profiles[d.variant]
	return nil
}
