// SPDX-License-Identifier: MIT

package fona

import "github.com/pkg/errors"

var (
	// ErrNoModem indicates the modem did not answer the probe after a full
	// retry budget. This is fatal - nothing else can work without AT
	// responsiveness.
	ErrNoModem = errors.New("modem not responding")

	// ErrUnsupported indicates the operation is not available on the
	// resolved modem variant. This is a programming error, not a
	// transient condition.
	ErrUnsupported = errors.New("unsupported by modem variant")

	// ErrNoFreeSocket indicates the modem's connection table has no
	// socket in INITIAL or CLOSED state.
	ErrNoFreeSocket = errors.New("no free socket")

	// ErrInvalidSocket indicates the socket handle is outside the range
	// supported by the modem variant.
	ErrInvalidSocket = errors.New("invalid socket")

	// ErrNoPrompt indicates the modem did not present the '>' prompt, so
	// no payload was sent.
	ErrNoPrompt = errors.New("no send prompt")

	// ErrNoAPN indicates bring-up was requested before ConfigureAPN.
	ErrNoAPN = errors.New("no APN configured")

	// ErrNotConnected indicates the socket has no active connection.
	ErrNotConnected = errors.New("socket not connected")
)
