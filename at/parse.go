// SPDX-License-Identifier: MIT

package at

import (
	"bytes"
	"strconv"
	"strings"
)

// ParseReply extracts the idx-th divider separated field from a reply line
// beginning with marker.
//
// The reply must contain marker, but the remainder is taken from the
// marker's length into the buffer, so markers are expected at the start of
// the line. Fields are counted from zero. The returned string is a copy
// and does not alias buf.
//
// ok is false if the marker is absent or idx is beyond the last field.
func ParseReply(buf []byte, marker string, divider byte, idx int) (string, bool) {
	if !bytes.Contains(buf, []byte(marker)) {
		return "", false
	}
	rest := string(buf[len(marker):])
	fields := strings.Split(rest, string(divider))
	if idx < 0 || idx >= len(fields) {
		return "", false
	}
	return fields[idx], true
}

// ParseReplyInt is ParseReply for integer valued fields.
func ParseReplyInt(buf []byte, marker string, divider byte, idx int) (int, bool) {
	f, ok := ParseReply(buf, marker, divider, idx)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(f))
	if err != nil {
		return 0, false
	}
	return n, true
}

// TrimQuotes removes one leading and one trailing quote character, if
// present. SIMCOM replies quote string valued fields.
func TrimQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
