// SPDX-License-Identifier: MIT

// Package cell provides the cellular network facade over a fona.Device.
//
// The facade owns the lifecycle policy the driver deliberately leaves
// out: waiting for network registration, retrying bearer bring-up, and
// tearing the bearer down between attempts. The driver's operations are
// single shot; this is the layer that loops.
package cell

import (
	"context"
	"time"

	"github.com/celldrv/fona/fona"
	"github.com/celldrv/fona/retry"
	"github.com/pkg/errors"
)

const (
	defaultAttachAttempts  = 10
	defaultBringupAttempts = 5
	defaultRetryDelay      = 5 * time.Second
)

// Network is the attach/connect/disconnect lifecycle for a modem.
type Network struct {
	dev *fona.Device
	apn fona.APN

	attachAttempts  int
	bringupAttempts int
	retryDelay      time.Duration

	connected bool
}

// Option is a construction option for a Network.
type Option func(*Network)

// New creates a Network facade for the device using the APN credentials.
func New(dev *fona.Device, apn fona.APN, options ...Option) *Network {
	n := &Network{
		dev:             dev,
		apn:             apn,
		attachAttempts:  defaultAttachAttempts,
		bringupAttempts: defaultBringupAttempts,
		retryDelay:      defaultRetryDelay,
	}
	for _, option := range options {
		option(n)
	}
	return n
}

// WithAttachAttempts sets the registration poll budget.
//
// The default is 10 attempts at the retry delay.
func WithAttachAttempts(a int) Option {
	return func(n *Network) {
		n.attachAttempts = a
	}
}

// WithBringupAttempts sets the bearer bring-up budget.
//
// The default is 5 attempts at the retry delay.
func WithBringupAttempts(a int) Option {
	return func(n *Network) {
		n.bringupAttempts = a
	}
}

// WithRetryDelay sets the delay between attach polls and between bearer
// bring-up attempts.
//
// The default is 5sec.
func WithRetryDelay(d time.Duration) Option {
	return func(n *Network) {
		n.retryDelay = d
	}
}

// Attach blocks until the modem registers on its home network, polling
// the registration state up to the attach budget.
func (n *Network) Attach(ctx context.Context) error {
	err := retry.Do(ctx, n.attachAttempts, n.retryDelay, func() bool {
		s, err := n.dev.NetworkStatus()
		return err == nil && s == fona.RegisteredHome
	})
	return errors.Wrap(err, "attach")
}

// Attached reports whether the modem is currently registered on its home
// network. Roaming registration does not count.
func (n *Network) Attached() (bool, error) {
	s, err := n.dev.NetworkStatus()
	if err != nil {
		return false, err
	}
	return s == fona.RegisteredHome, nil
}

// Connect attaches to the network and brings up the data bearer.
//
// A failed bring-up leaves the modem in an intermediate state, so each
// retry tears the bearer down first. The whole budget exhausting is
// fatal for the connection attempt.
func (n *Network) Connect(ctx context.Context) error {
	if err := n.Attach(ctx); err != nil {
		return err
	}
	n.dev.ConfigureAPN(n.apn)
	err := retry.Do(ctx, n.bringupAttempts, n.retryDelay, func() bool {
		if n.dev.EnableGPRS(ctx) == nil {
			return true
		}
		n.dev.DisableGPRS(ctx)
		return false
	})
	if err != nil {
		return errors.Wrap(err, "bring up bearer")
	}
	n.connected = true
	return nil
}

// Disconnect tears down the data bearer.
func (n *Network) Disconnect(ctx context.Context) error {
	if err := n.dev.DisableGPRS(ctx); err != nil {
		return err
	}
	n.connected = false
	return nil
}

// Connected reports whether Connect has succeeded without a subsequent
// Disconnect. It reflects the facade's view, not a live query.
func (n *Network) Connected() bool {
	return n.connected
}

// IMEI returns the modem's IMEI number.
func (n *Network) IMEI() (string, error) {
	return n.dev.IMEI()
}

// ICCID returns the SIM card's ICCID.
func (n *Network) ICCID() (string, error) {
	return n.dev.ICCID()
}
