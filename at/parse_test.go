// SPDX-License-Identifier: MIT

package at_test

import (
	"testing"

	"github.com/celldrv/fona/at"
	"github.com/stretchr/testify/assert"
)

func TestParseReply(t *testing.T) {
	patterns := []struct {
		name    string
		buf     string
		marker  string
		divider byte
		idx     int
		xf      string
		ok      bool
	}{
		{
			"first field",
			"+CSQ: 15,0",
			"+CSQ: ",
			',',
			0,
			"15",
			true,
		},
		{
			"second field",
			"+CREG: 0,1",
			"+CREG: ",
			',',
			1,
			"1",
			true,
		},
		{
			"whole remainder",
			"+CIFSR: 10.0.0.2",
			"+CIFSR: ",
			',',
			0,
			"10.0.0.2",
			true,
		},
		{
			"fix status field",
			"+CGNSINF: 1,1,20260828",
			"+CGNSINF: ",
			',',
			1,
			"1",
			true,
		},
		{
			"marker absent",
			"ERROR",
			"+CSQ: ",
			',',
			0,
			"",
			false,
		},
		{
			"index out of range",
			"+CSQ: 15,0",
			"+CSQ: ",
			',',
			2,
			"",
			false,
		},
		{
			"negative index",
			"+CSQ: 15,0",
			"+CSQ: ",
			',',
			-1,
			"",
			false,
		},
		{
			"remainder counted from line start",
			"xx+CB: 1,2",
			"+CB: ",
			',',
			0,
			": 1",
			true,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			v, ok := at.ParseReply([]byte(p.buf), p.marker, p.divider, p.idx)
			assert.Equal(t, p.ok, ok)
			assert.Equal(t, p.xf, v)
		}
		t.Run(p.name, f)
	}
}

func TestParseReplyInt(t *testing.T) {
	patterns := []struct {
		name   string
		buf    string
		marker string
		idx    int
		xn     int
		ok     bool
	}{
		{
			"int field",
			"+CSQ: 15,0",
			"+CSQ: ",
			0,
			15,
			true,
		},
		{
			"padded",
			"+CIPRXGET: 4,0, 42",
			"+CIPRXGET: ",
			2,
			42,
			true,
		},
		{
			"not a number",
			"+CSQ: a,0",
			"+CSQ: ",
			0,
			0,
			false,
		},
		{
			"marker absent",
			"ERROR",
			"+CSQ: ",
			0,
			0,
			false,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			n, ok := at.ParseReplyInt([]byte(p.buf), p.marker, ',', p.idx)
			assert.Equal(t, p.ok, ok)
			assert.Equal(t, p.xn, n)
		}
		t.Run(p.name, f)
	}
}

func TestTrimQuotes(t *testing.T) {
	assert.Equal(t, "10.0.0.2", at.TrimQuotes(`"10.0.0.2"`))
	assert.Equal(t, "bare", at.TrimQuotes("bare"))
	assert.Equal(t, "", at.TrimQuotes(`""`))
}
