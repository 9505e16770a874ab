// SPDX-License-Identifier: MIT

// Package retry provides the bounded retry loop shared by the modem
// layers.
//
// Probing for a freshly reset modem, waiting for network registration,
// bringing up a GPRS bearer and waiting for a GPS fix are all the same
// shape: try, sleep, try again, give up after a fixed number of attempts.
package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrExhausted indicates the operation did not succeed within the attempt
// budget.
var ErrExhausted = errors.New("retries exhausted")

// Do calls op up to attempts times, sleeping delay between attempts,
// until op reports success.
//
// The delay is not applied after the final attempt. ctx cancellation is
// checked between attempts and returns the ctx error.
func Do(ctx context.Context, attempts int, delay time.Duration, op func() bool) error {
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if op() {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return ErrExhausted
}
