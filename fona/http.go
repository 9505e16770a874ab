// SPDX-License-Identifier: MIT

package fona

import (
	"strconv"

	"github.com/celldrv/fona/at"
	"github.com/pkg/errors"
)

// HTTPGet fetches url over the modem's embedded HTTP stack and returns
// the response body and status code.
//
// The bearer must be up. The sequence is pure command plumbing on top of
// the engine: HTTPINIT, parameter setup, HTTPACTION, then HTTPREAD for
// the body. HTTPTERM is always issued on the way out so a failed fetch
// does not wedge the stack for the next one.
func (d *Device) HTTPGet(url string) ([]byte, int, error) {
	// clear any stale session; failure here is expected
	d.at.SendCheck("AT+HTTPTERM", "OK", 0)

	if err := d.at.SendCheck("AT+HTTPINIT", "OK", 0); err != nil {
		return nil, 0, errors.Wrap(err, "http init")
	}
	defer d.at.SendCheck("AT+HTTPTERM", "OK", 0)

	if err := d.at.SendCheck(`AT+HTTPPARA="CID",1`, "OK", 0); err != nil {
		return nil, 0, errors.Wrap(err, "set bearer profile")
	}
	if err := d.at.SendQuoted(`AT+HTTPPARA="URL",`, url, "OK", 0); err != nil {
		return nil, 0, errors.Wrap(err, "set url")
	}
	if err := d.at.SendCheck("AT+HTTPACTION=0", "OK", 0); err != nil {
		return nil, 0, errors.Wrap(err, "start action")
	}

	// +HTTPACTION: 0,<status>,<length> arrives when the fetch completes
	line := d.at.ReadLine(httpTimeout)
	status, ok := at.ParseReplyInt(line, "+HTTPACTION: ", ',', 1)
	if !ok {
		return nil, 0, at.ReplyError(line)
	}
	length, ok := at.ParseReplyInt(line, "+HTTPACTION: ", ',', 2)
	if !ok {
		return nil, 0, at.ReplyError(line)
	}

	if err := d.at.Send("AT+HTTPREAD=0," + strconv.Itoa(length)); err != nil {
		return nil, status, err
	}
	// +HTTPREAD: <length> precedes the body
	d.at.ReadLine(promptTimeout)
	body := d.at.ReadBytes(length, httpTimeout)
	// read out the trailing OK
	d.at.ReadLine(tableTimeout)
	return body, status, nil
}
