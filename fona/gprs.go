// SPDX-License-Identifier: MIT

package fona

import (
	"context"

	"github.com/pkg/errors"
)

// ConfigureAPN sets the carrier credentials used by EnableGPRS. It does
// not touch the modem.
func (d *Device) ConfigureAPN(apn APN) {
	d.apn = apn
}

// GPRSAttached reports whether the modem is attached to the GPRS service.
func (d *Device) GPRSAttached() (bool, error) {
	n, err := d.at.SendParseInt("AT+CGATT?", "+CGATT: ", ',', 0)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// EnableGPRS brings up the data bearer using the configured APN.
//
// The bring-up is a sequential protocol, not atomic: any step failing
// fails the whole operation, leaving the modem in an intermediate state.
// The expected recovery is DisableGPRS followed by another EnableGPRS;
// the retry loop lives in the cell facade, not here.
//
// ctx is checked between steps. A step already issued runs to its own
// timeout.
func (d *Device) EnableGPRS(ctx context.Context) error {
	if d.apn.Name == "" {
		return ErrNoAPN
	}
	if d.prof.sockets == dialectCIPOpen {
		return d.enableGPRS3G(ctx)
	}
	return d.enableGPRS2G(ctx)
}

func (d *Device) enableGPRS2G(ctx context.Context) error {
	steps := []func() error{
		// multi-connection mode
		func() error { return d.at.SendCheck("AT+CIPMUX=1", "OK", 0) },
		// receive data manually
		func() error { return d.at.SendCheck("AT+CIPRXGET=1", "OK", 0) },
		// drop any existing PDP context
		func() error { return d.at.SendCheck("AT+CIPSHUT", "SHUT OK", shutTimeout) },
		// attach GPRS service
		func() error { return d.at.SendCheck("AT+CGATT=1", "OK", attachTimeout) },
		// bearer profile
		func() error {
			return d.at.SendCheck(`AT+SAPBR=3,1,"CONTYPE","GPRS"`, "OK", attachTimeout)
		},
		func() error {
			return d.at.SendQuoted(`AT+SAPBR=3,1,"APN",`, d.apn.Name, "OK", attachTimeout)
		},
		d.sendCSTT,
		func() error {
			if d.apn.Username == "" {
				return nil
			}
			return d.at.SendQuoted(`AT+SAPBR=3,1,"USER",`, d.apn.Username, "OK", attachTimeout)
		},
		func() error {
			if d.apn.Password == "" {
				return nil
			}
			return d.at.SendQuoted(`AT+SAPBR=3,1,"PWD",`, d.apn.Password, "OK", attachTimeout)
		},
		// open the bearer context
		func() error { return d.at.SendCheck("AT+SAPBR=1,1", "OK", bearerTimeout) },
		// bring up the wireless link
		func() error { return d.at.SendCheck("AT+CIICR", "OK", bringupTimeout) },
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(); err != nil {
			return err
		}
	}
	// assigned address confirms the link
	if _, err := d.LocalIP(); err != nil {
		return errors.Wrap(err, "confirm local IP")
	}
	return nil
}

// sendCSTT starts the task with APN and credentials. Empty username and
// password are omitted rather than sent as empty strings.
func (d *Device) sendCSTT() error {
	cmd := `AT+CSTT="` + d.apn.Name + `"`
	if d.apn.Username != "" {
		cmd += `,"` + d.apn.Username + `"`
		if d.apn.Password != "" {
			cmd += `,"` + d.apn.Password + `"`
		}
	}
	return d.at.SendCheck(cmd, "OK", 0)
}

func (d *Device) enableGPRS3G(ctx context.Context) error {
	steps := []func() error{
		func() error { return d.at.SendCheck("AT+CGATT=1", "OK", attachTimeout) },
		func() error {
			return d.at.SendQuoted(`AT+CGSOCKCONT=1,"IP",`, d.apn.Name, "OK", attachTimeout)
		},
		func() error {
			if d.apn.Username == "" && d.apn.Password == "" {
				return nil
			}
			cmd := `AT+CGAUTH=1,1,"` + d.apn.Password + `","` + d.apn.Username + `"`
			return d.at.SendCheck(cmd, "OK", attachTimeout)
		},
		func() error {
			return d.at.SendCheck("AT+NETOPEN=,,1", "Network opened", netopenTimeout)
		},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(); err != nil {
			return err
		}
	}
	// eat the trailing +NETOPEN line
	d.at.ReadLine(tableTimeout)

	if _, err := d.LocalIP(); err != nil {
		return errors.Wrap(err, "confirm local IP")
	}
	return nil
}

// DisableGPRS tears down the data bearer. It is the teardown-only path
// and does not touch the APN configuration.
func (d *Device) DisableGPRS(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.prof.sockets == dialectCIPOpen {
		return d.at.SendCheck("AT+NETCLOSE", "Network closed", shutTimeout)
	}
	return d.at.SendCheck("AT+CIPSHUT", "SHUT OK", shutTimeout)
}
