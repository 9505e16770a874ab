// SPDX-License-Identifier: MIT

package fona_test

import (
	"context"
	"testing"

	"github.com/celldrv/fona/fona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	mm := mockModem{}
	d := newDevice(&mm)
	require.NotNil(t, d)
	assert.Equal(t, fona.Unknown, d.Variant())
}

func TestInit(t *testing.T) {
	patterns := []struct {
		name string
		id   string
		gmm  string
		xv   fona.Variant
	}{
		{
			"808 v2",
			"SIM808 R14.18",
			"",
			fona.FONA808v2,
		},
		{
			"808 v1",
			"SIM808 R13.08",
			"",
			fona.FONA808v1,
		},
		{
			"3G US",
			"Manufacturer: SIMCOM INCORPORATED\nModel: SIMCOM_SIM5320A",
			"",
			fona.FONA3GA,
		},
		{
			"3G EU",
			"Model: SIMCOM_SIM5320E",
			"",
			fona.FONA3GE,
		},
		{
			"800L",
			"SIM800 R14.08",
			"SIMCOM_SIM800L",
			fona.FONA800L,
		},
		{
			"800H",
			"SIM800 R14.08",
			"SIMCOM_SIM800H",
			fona.FONA800H,
		},
		{
			"unknown",
			"TOTALLY NOT A MODEM",
			"",
			fona.Unknown,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			mm := mockModem{cmdSet: initCmdSet(p.id)}
			if p.gmm != "" {
				mm.cmdSet["AT+GMM\r\n"] = []string{"\r\n" + p.gmm + "\r\n\r\nOK\r\n"}
			}
			d := newDevice(&mm)
			err := d.Init(context.Background())
			require.Nil(t, err)
			assert.Equal(t, p.xv, d.Variant())
		}
		t.Run(p.name, f)
	}
}

func TestInitProbeSecondAttempt(t *testing.T) {
	mm := mockModem{
		cmdSet: initCmdSet("SIM800 R14.08"),
		seq: map[string][][]string{
			// silent on the first probe, alive on the second
			"AT\r\n": {{}, {"\r\nOK\r\n"}},
		},
	}
	mm.cmdSet["AT+GMM\r\n"] = []string{"\r\nSIMCOM_SIM800H\r\n\r\nOK\r\n"}
	d := newDevice(&mm)
	require.Nil(t, d.Init(context.Background()))
	assert.Equal(t, fona.FONA800H, d.Variant())
}

func TestInitEchoedProbe(t *testing.T) {
	// a modem with echo still on answers the probe with the echoed AT
	mm := mockModem{cmdSet: initCmdSet("SIM808 R14.18")}
	mm.seq = map[string][][]string{
		"AT\r\n": {{"\r\nAT\r\n"}, {"\r\nAT\r\n"}, {"\r\nOK\r\n"}},
	}
	d := newDevice(&mm)
	require.Nil(t, d.Init(context.Background()))
	assert.Equal(t, fona.FONA808v2, d.Variant())
}

func TestInitNoModem(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{}}
	d := newDevice(&mm)
	err := d.Init(context.Background())
	require.Equal(t, fona.ErrNoModem, err)
	// two probes per attempt (OK then echo check) plus three blind sends
	assert.Equal(t, 7, len(mm.writes))
}

func TestInitCancelled(t *testing.T) {
	mm := mockModem{cmdSet: map[string][]string{}}
	d := newDevice(&mm)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Init(ctx)
	require.Equal(t, context.Canceled, err)
}

func TestInitResetPulse(t *testing.T) {
	mm := mockModem{cmdSet: initCmdSet("SIM808 R14.18")}
	p := pin{}
	d := newDevice(&mm, fona.WithResetPin(&p))
	require.Nil(t, d.Init(context.Background()))
	assert.Equal(t, []bool{true, false, true}, p.transitions)
}

func TestMaxSockets(t *testing.T) {
	mm := mockModem{}
	d := initDevice(t, &mm, "SIM808 R14.18")
	assert.Equal(t, 6, d.MaxSockets())

	mm3g := mockModem{}
	d3g := initDevice(t, &mm3g, "SIMCOM_SIM5320A")
	assert.Equal(t, 10, d3g.MaxSockets())
}
