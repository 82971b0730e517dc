// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"errors"
	"fmt"
)

// Report PDU counters, RFC 3414 and RFC 3412.
var (
	usmStatsUnsupportedSecLevels = MustParseOID(".1.3.6.1.6.3.15.1.1.1.0")
	usmStatsNotInTimeWindows     = MustParseOID(".1.3.6.1.6.3.15.1.1.2.0")
	usmStatsUnknownUserNames     = MustParseOID(".1.3.6.1.6.3.15.1.1.3.0")
	usmStatsUnknownEngineIDs     = MustParseOID(".1.3.6.1.6.3.15.1.1.4.0")
	usmStatsWrongDigests         = MustParseOID(".1.3.6.1.6.3.15.1.1.5.0")
	usmStatsDecryptionErrors     = MustParseOID(".1.3.6.1.6.3.15.1.1.6.0")
	snmpUnknownSecurityModels    = MustParseOID(".1.3.6.1.6.3.11.2.1.1.0")
	snmpInvalidMsgs              = MustParseOID(".1.3.6.1.6.3.11.2.1.2.0")
	snmpUnknownPDUHandlers       = MustParseOID(".1.3.6.1.6.3.11.2.1.3.0")
)

var reportErrors = []struct {
	oid OID
	err error
}{
	{usmStatsUnsupportedSecLevels, ErrUnknownSecurityLevel},
	{usmStatsNotInTimeWindows, ErrNotInTimeWindow},
	{usmStatsUnknownUserNames, ErrUnknownUsername},
	{usmStatsUnknownEngineIDs, ErrUnknownEngineID},
	{usmStatsWrongDigests, ErrWrongDigest},
	{usmStatsDecryptionErrors, ErrDecryption},
	{snmpUnknownSecurityModels, ErrUnknownSecurityModels},
	{snmpInvalidMsgs, ErrInvalidMsgs},
	{snmpUnknownPDUHandlers, ErrUnknownPDUHandlers},
}

// ClassifyReport maps a Report PDU to the error its first binding names.
// It returns nil for any other PDU type and ErrUnknownReportPDU for a
// counter it does not recognise.
func ClassifyReport(pdu *Pdu) error {
	if pdu == nil || pdu.PDUType != Report {
		return nil
	}
	if len(pdu.Variables) < 1 {
		return fmt.Errorf("%w: malformed REPORT with no variables", ErrInvalidMsgs)
	}

	oid := pdu.Variables[0].Name
	for _, r := range reportErrors {
		if oid.Equal(r.oid) {
			return r.err
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownReportPDU, oid)
}

// Recoverable reports whether a Report error can be fixed by the sender
// alone: adopting the agent's boots and time for ErrNotInTimeWindow, or
// its engine ID for ErrUnknownEngineID.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNotInTimeWindow) || errors.Is(err, ErrUnknownEngineID)
}
