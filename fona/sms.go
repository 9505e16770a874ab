// SPDX-License-Identifier: MIT

package fona

import (
	"strings"

	"github.com/celldrv/fona/at"
)

// ctrlZ terminates the SMS body in text mode.
const ctrlZ = byte(0x1a)

// SendSMS sends message to number using text mode.
//
// The exchange mirrors a socket send: CMGS announces the destination, the
// modem presents the '>' prompt, and the body is written raw, terminated
// with Ctrl-Z. The +CMGS confirmation can take several seconds over the
// air.
func (d *Device) SendSMS(number, message string) error {
	if err := d.at.SendCheck("AT+CMGF=1", "OK", 0); err != nil {
		return err
	}
	if err := d.at.Send(`AT+CMGS="` + number + `"`); err != nil {
		return err
	}
	line := d.at.ReadLine(promptTimeout)
	if len(line) == 0 || line[0] != at.Prompt {
		return ErrNoPrompt
	}
	if _, err := d.at.Write(append([]byte(message), ctrlZ)); err != nil {
		return err
	}
	reply := d.at.ReadLine(smsTimeout)
	if len(reply) == 0 {
		return at.ErrNoReply
	}
	if !strings.Contains(string(reply), "+CMGS") {
		return at.ReplyError(reply)
	}
	// read out the trailing OK
	d.at.ReadLine(tableTimeout)
	return nil
}
