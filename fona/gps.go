// SPDX-License-Identifier: MIT

package fona

import (
	"context"
	"strings"

	"github.com/celldrv/fona/at"
)

// Fix is the GPS fix quality.
type Fix int

const (
	// FixOff - positioning receiver powered down.
	FixOff Fix = iota
	// FixNone - receiver on, no fix yet.
	FixNone
	// Fix2D - two dimensional fix.
	Fix2D
	// Fix3D - three dimensional fix.
	Fix3D
)

func (f Fix) String() string {
	switch f {
	case FixOff:
		return "off"
	case FixNone:
		return "no fix"
	case Fix2D:
		return "2D fix"
	case Fix3D:
		return "3D fix"
	}
	return "unknown"
}

// EnableGPS powers up the positioning receiver.
//
// Only the 808 and 3G variants carry a receiver; others return
// ErrUnsupported. The command family is selected by the variant profile.
func (d *Device) EnableGPS(ctx context.Context) error {
	return d.setGPS(ctx, true)
}

// DisableGPS powers down the positioning receiver.
func (d *Device) DisableGPS(ctx context.Context) error {
	return d.setGPS(ctx, false)
}

func (d *Device) setGPS(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch d.prof.gps {
	case gpsGNS:
		if on {
			return d.at.SendCheck("AT+CGNSPWR=1", "OK", 0)
		}
		if err := d.at.SendCheck("AT+CGNSPWR=0", "OK", 0); err != nil {
			return err
		}
		// the legacy receiver is powered separately on the 808 v2
		return d.at.SendCheck("AT+CGPSPWR=0", "OK", 0)
	case gpsLegacy:
		if on {
			return d.at.SendCheck("AT+CGPSPWR=1", "OK", 0)
		}
		return d.at.SendCheck("AT+CGPSPWR=0", "OK", 0)
	case gps3G:
		if on {
			return d.at.SendCheck("AT+CGPS=1", "OK", 0)
		}
		if err := d.at.SendCheck("AT+CGPS=0", "OK", 0); err != nil {
			return err
		}
		// eat the '+CGPS: 0' confirmation
		d.at.ReadLine(tableTimeout)
		return nil
	}
	return ErrUnsupported
}

// GPSFix returns the current fix quality.
//
// The value is a point query; callers waiting for a fix poll it, usually
// through retry.Do. The GNS receiver does not distinguish 2D from 3D, so
// any fix is reported as Fix3D.
func (d *Device) GPSFix() (Fix, error) {
	switch d.prof.gps {
	case gpsGNS:
		line, err := d.at.Request("AT+CGNSINF")
		if err != nil {
			return FixOff, err
		}
		run, ok := at.ParseReplyInt(line, "+CGNSINF: ", ',', 0)
		// read out the trailing OK
		d.at.ReadLine(tableTimeout)
		if !ok {
			return FixOff, at.ReplyError(line)
		}
		if run == 1 {
			return Fix3D, nil
		}
		return FixOff, nil
	case gpsLegacy:
		f, err := d.at.SendParse("AT+CGPSSTATUS?", "+CGPSSTATUS: ", ';', 0)
		if err != nil {
			return FixOff, err
		}
		d.at.ReadLine(tableTimeout)
		switch {
		case strings.Contains(f, "3D"):
			return Fix3D, nil
		case strings.Contains(f, "2D"):
			return Fix2D, nil
		case strings.Contains(f, "Not Fix"):
			return FixNone, nil
		}
		return FixOff, nil
	case gps3G:
		err := d.at.SendCheck("AT+CGPS?", "+CGPS: 1,1", 0)
		if err == nil {
			// session active; the 3G firmware reports no fix detail
			return Fix3D, nil
		}
		if _, ok := err.(at.ReplyError); ok {
			return FixOff, nil
		}
		return FixOff, err
	}
	return FixOff, ErrUnsupported
}
