// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"errors"
	"fmt"
)

//
// Remaining globals and definitions located here.
// See http://www.rane.com/note161.html for a succint description of the SNMP
// protocol.
//

// SnmpVersion 1, 2c and 3 implemented
type SnmpVersion uint8

// SnmpVersion 1, 2c and 3 implemented
const (
	Version1  SnmpVersion = 0x0
	Version2c SnmpVersion = 0x1
	Version3  SnmpVersion = 0x3
)

func (s SnmpVersion) String() string {
	switch s {
	case Version1:
		return "1"
	case Version2c:
		return "2c"
	case Version3:
		return "3"
	}
	return fmt.Sprintf("SnmpVersion(%d)", uint8(s))
}

// PDUType describes which SNMP Protocol Data Unit is being sent.
type PDUType byte

// The currently supported PDUType's
const (
	Sequence       PDUType = 0x30
	GetRequest     PDUType = 0xa0
	GetNextRequest PDUType = 0xa1
	GetResponse    PDUType = 0xa2
	SetRequest     PDUType = 0xa3
	Trap           PDUType = 0xa4 // v1
	GetBulkRequest PDUType = 0xa5
	InformRequest  PDUType = 0xa6
	SNMPv2Trap     PDUType = 0xa7 // v2c, v3
	Report         PDUType = 0xa8 // v3
)

func (p PDUType) String() string {
	switch p {
	case Sequence:
		return "Sequence"
	case GetRequest:
		return "GetRequest"
	case GetNextRequest:
		return "GetNextRequest"
	case GetResponse:
		return "GetResponse"
	case SetRequest:
		return "SetRequest"
	case Trap:
		return "Trap"
	case GetBulkRequest:
		return "GetBulkRequest"
	case InformRequest:
		return "InformRequest"
	case SNMPv2Trap:
		return "SNMPv2Trap"
	case Report:
		return "Report"
	}
	return fmt.Sprintf("PDUType(%#x)", byte(p))
}

func (p PDUType) known() bool {
	return p >= GetRequest && p <= Report
}

// Asn1BER is the type of an SNMP value or of a BER element.
type Asn1BER byte

// Asn1BER's - http://www.ietf.org/rfc/rfc1442.txt
const (
	EndOfContents     Asn1BER = 0x00
	UnknownType       Asn1BER = 0x00
	Boolean           Asn1BER = 0x01
	Integer           Asn1BER = 0x02
	BitString         Asn1BER = 0x03
	OctetString       Asn1BER = 0x04
	Null              Asn1BER = 0x05
	ObjectIdentifier  Asn1BER = 0x06
	ObjectDescription Asn1BER = 0x07
	IPAddress         Asn1BER = 0x40
	Counter32         Asn1BER = 0x41
	Gauge32           Asn1BER = 0x42
	TimeTicks         Asn1BER = 0x43
	Opaque            Asn1BER = 0x44
	NsapAddress       Asn1BER = 0x45
	Counter64         Asn1BER = 0x46
	Uinteger32        Asn1BER = 0x47
	NoSuchObject      Asn1BER = 0x80
	NoSuchInstance    Asn1BER = 0x81
	EndOfMibView      Asn1BER = 0x82
)

func (a Asn1BER) String() string {
	switch a {
	case Integer:
		return "Integer"
	case OctetString:
		return "OctetString"
	case Null:
		return "Null"
	case ObjectIdentifier:
		return "ObjectIdentifier"
	case IPAddress:
		return "IPAddress"
	case Counter32:
		return "Counter32"
	case Gauge32:
		return "Gauge32"
	case TimeTicks:
		return "TimeTicks"
	case Opaque:
		return "Opaque"
	case Counter64:
		return "Counter64"
	case NoSuchObject:
		return "NoSuchObject"
	case NoSuchInstance:
		return "NoSuchInstance"
	case EndOfMibView:
		return "EndOfMibView"
	}
	return fmt.Sprintf("Asn1BER(%#x)", byte(a))
}

// SnmpV3MsgFlags contains various message flags to describe Authentication, Privacy, and whether a report PDU must be sent.
type SnmpV3MsgFlags uint8

// Possible values of SnmpV3MsgFlags
const (
	NoAuthNoPriv SnmpV3MsgFlags = 0x0 // No authentication, and no privacy
	AuthNoPriv   SnmpV3MsgFlags = 0x1 // Authentication and no privacy
	AuthPriv     SnmpV3MsgFlags = 0x3 // Authentication and privacy
	Reserved     SnmpV3MsgFlags = 0x2 // Reserved, privacy without authentication is invalid
	Reportable   SnmpV3MsgFlags = 0x4 // Report PDU must be sent.
)

// SecurityLevel strips the reportable bit.
func (f SnmpV3MsgFlags) SecurityLevel() SnmpV3MsgFlags {
	return f & AuthPriv
}

func (f SnmpV3MsgFlags) authenticated() bool { return f&AuthNoPriv != 0 }
func (f SnmpV3MsgFlags) private() bool { return f&Reserved != 0 }

func (f SnmpV3MsgFlags) String() string {
	var s string
	switch f.SecurityLevel() {
	case NoAuthNoPriv:
		s = "NoAuthNoPriv"
	case AuthNoPriv:
		s = "AuthNoPriv"
	case AuthPriv:
		s = "AuthPriv"
	default:
		s = "Reserved"
	}
	if f&Reportable != 0 {
		s += "|Reportable"
	}
	return s
}

// SnmpV3SecurityModel describes the security model used by a SnmpV3 connection
type SnmpV3SecurityModel uint8

// UserSecurityModel is the only SnmpV3SecurityModel the codec implements.
const (
	UserSecurityModel SnmpV3SecurityModel = 3
)

// Codec errors. Decoding failures always wrap one of the structural kinds
// (ErrTruncated, ErrMalformedTag, ErrMalformedLength, ErrEmptyOID,
// ErrUnknownValueTag); security failures are reported with ErrWrongDigest or
// ErrDecryption so they can be told apart from noise on the wire.
var (
	ErrTruncated          = errors.New("truncated")
	ErrMalformedTag       = errors.New("malformed tag")
	ErrMalformedLength    = errors.New("malformed length")
	ErrEmptyOID           = errors.New("empty object identifier")
	ErrUnknownValueTag    = errors.New("unknown value tag")
	ErrAlreadySealed      = errors.New("pdu already sealed")
	ErrMessageTooLarge    = errors.New("message too large")
	ErrValueType          = errors.New("value does not match its type")
	ErrUnsupportedVersion = errors.New("unsupported snmp version")
)

// USM and report errors.
var (
	ErrDecryption            = errors.New("decryption error")
	ErrInvalidMsgs           = errors.New("invalid messages")
	ErrNotInTimeWindow       = errors.New("not in time window")
	ErrUnknownEngineID       = errors.New("unknown engine id")
	ErrUnknownPDUHandlers    = errors.New("unknown pdu handlers")
	ErrUnknownReportPDU      = errors.New("unknown report pdu")
	ErrUnknownSecurityLevel  = errors.New("unknown security level")
	ErrUnknownSecurityModels = errors.New("unknown security models")
	ErrUnknownUsername       = errors.New("unknown username")
	ErrWrongDigest           = errors.New("wrong digest")
)

// ValueTagError is returned by DecodeBinding when a value carries a tag the
// codec does not know. The binding has been consumed from the buffer, so a
// caller may log it and carry on with the next one.
type ValueTagError struct {
	Name OID
	Tag  byte
	Raw  []byte
}

func (e *ValueTagError) Error() string {
	return fmt.Sprintf("%s %#x for %s", ErrUnknownValueTag, e.Tag, e.Name)
}

func (e *ValueTagError) Unwrap() error { return ErrUnknownValueTag }
