// SPDX-License-Identifier: MIT

package fona

// Variant identifies the modem module behind the serial port.
//
// The variant is resolved once during Init by matching the modem's
// identification string, and is immutable afterwards. It selects the AT
// dialect used for sockets, GPRS bring-up and GPS control.
type Variant int

const (
	// Unknown is the zero value, before Init has resolved the module.
	Unknown Variant = iota
	// FONA800L is the SIM800L module.
	FONA800L
	// FONA800H is the SIM800H module.
	FONA800H
	// FONA808v1 is the SIM808 with R13 firmware.
	FONA808v1
	// FONA808v2 is the SIM808 with R14 firmware.
	FONA808v2
	// FONA3GA is the SIM5320A (US bands).
	FONA3GA
	// FONA3GE is the SIM5320E (EU bands).
	FONA3GE
)

func (v Variant) String() string {
	switch v {
	case FONA800L:
		return "FONA 800L"
	case FONA800H:
		return "FONA 800H"
	case FONA808v1:
		return "FONA 808 (v1)"
	case FONA808v2:
		return "FONA 808 (v2)"
	case FONA3GA:
		return "FONA 3G (US)"
	case FONA3GE:
		return "FONA 3G (EU)"
	}
	return "unknown"
}

// socketDialect selects the socket and GPRS command family.
type socketDialect int

const (
	// dialectCIP is the 2G family: CIPSTART/CIPSEND/CIPSTATUS with SAPBR
	// bearer bring-up.
	dialectCIP socketDialect = iota
	// dialectCIPOpen is the 3G family: CIPOPEN/NETOPEN.
	dialectCIPOpen
)

// gpsDialect selects the positioning command family.
type gpsDialect int

const (
	// gpsNone marks variants without a positioning receiver.
	gpsNone gpsDialect = iota
	// gpsLegacy is the CGPSPWR/CGPSSTATUS family (808 v1).
	gpsLegacy
	// gpsGNS is the CGNSPWR/CGNSINF family (808 v2).
	gpsGNS
	// gps3G is the CGPS family (SIM5320).
	gps3G
)

// profile carries the per-variant capabilities, resolved once at Init so
// the operations dispatch on data rather than scattered variant checks.
type profile struct {
	maxSockets int
	sockets    socketDialect
	gps        gpsDialect
}

var profiles = map[Variant]profile{
	Unknown:   {maxSockets: 6, sockets: dialectCIP, gps: gpsNone},
	FONA800L:  {maxSockets: 6, sockets: dialectCIP, gps: gpsNone},
	FONA800H:  {maxSockets: 6, sockets: dialectCIP, gps: gpsNone},
	FONA808v1: {maxSockets: 6, sockets: dialectCIP, gps: gpsLegacy},
	FONA808v2: {maxSockets: 6, sockets: dialectCIP, gps: gpsGNS},
	FONA3GA:   {maxSockets: 10, sockets: dialectCIPOpen, gps: gps3G},
	FONA3GE:   {maxSockets: 10, sockets: dialectCIPOpen, gps: gps3G},
}

// variantSignatures maps identification substrings to variants, in match
// order. The SIM800 signature is coarse and is refined with AT+GMM.
var variantSignatures = []struct {
	sig string
	v   Variant
}{
	{"SIM808 R14", FONA808v2},
	{"SIM808 R13", FONA808v1},
	{"SIMCOM_SIM5320A", FONA3GA},
	{"SIMCOM_SIM5320E", FONA3GE},
	{"SIM800", FONA800L},
}
