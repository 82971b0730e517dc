// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// SecurityParameters is how a message identifies its sender. It is one of
// CommunityV1, CommunityV2c or *Usm, and the variant alone decides the
// message version.
type SecurityParameters interface {
	Version() SnmpVersion
	SafeString() string
	securityParameters()
}

// CommunityV1 is the community string of an SNMPv1 message.
type CommunityV1 string

// CommunityV2c is the community string of an SNMPv2c message.
type CommunityV2c string

// Version implements SecurityParameters.
func (CommunityV1) Version() SnmpVersion { return Version1 }

// Version implements SecurityParameters.
func (CommunityV2c) Version() SnmpVersion { return Version2c }

// SafeString implements SecurityParameters. Communities are secrets of a
// sort, so only their length is shown.
func (c CommunityV1) SafeString() string { return "Community:<" + strconv.Itoa(len(c)) + " bytes>" }

// SafeString implements SecurityParameters.
func (c CommunityV2c) SafeString() string { return "Community:<" + strconv.Itoa(len(c)) + " bytes>" }

func (CommunityV1) securityParameters()  {}
func (CommunityV2c) securityParameters() {}

// Usm holds the SNMPv3 header fields, the User-based Security Model
// parameters and the scopedPDU context.
type Usm struct {
	MsgID      uint32
	MaxMsgSize uint32
	Flags      SnmpV3MsgFlags

	EngineID    []byte
	EngineBoots uint32
	EngineTime  uint32
	UserName    string

	// AuthParameters and PrivParameters are filled in by Encode and by
	// Decode. Values set by the caller before Encode are ignored.
	AuthParameters []byte
	PrivParameters []byte

	ContextEngineID []byte
	ContextName     string
}

// Version implements SecurityParameters.
func (*Usm) Version() SnmpVersion { return Version3 }

func (*Usm) securityParameters() {}

// SafeString implements SecurityParameters.
func (sp *Usm) SafeString() string {
	var b strings.Builder
	b.Grow(256)

	b.WriteString("MsgID:")
	b.WriteString(strconv.FormatUint(uint64(sp.MsgID), 10))
	b.WriteString(", MaxMsgSize:")
	b.WriteString(strconv.FormatUint(uint64(sp.MaxMsgSize), 10))
	b.WriteString(", Flags:")
	b.WriteString(sp.Flags.String())
	b.WriteString(", EngineID:")
	b.WriteString(hex.EncodeToString(sp.EngineID))
	b.WriteString(", EngineBoots:")
	b.WriteString(strconv.FormatUint(uint64(sp.EngineBoots), 10))
	b.WriteString(", EngineTime:")
	b.WriteString(strconv.FormatUint(uint64(sp.EngineTime), 10))
	b.WriteString(", UserName:")
	b.WriteString(sp.UserName)
	b.WriteString(", AuthParameters:")
	b.WriteString(hex.EncodeToString(sp.AuthParameters))
	b.WriteString(", PrivParameters:")
	b.WriteString(hex.EncodeToString(sp.PrivParameters))
	b.WriteString(", ContextEngineID:")
	b.WriteString(hex.EncodeToString(sp.ContextEngineID))
	b.WriteString(", ContextName:")
	b.WriteString(sp.ContextName)

	return b.String()
}

// TrapV1 is the header of an SNMPv1 Trap-PDU, which replaces request-id,
// error-status and error-index.
type TrapV1 struct {
	Enterprise   OID
	AgentAddress net.IP
	GenericTrap  int
	SpecificTrap int
	Timestamp    uint32
}

// Pdu is one SNMP message: its security parameters, the PDU header and the
// variable bindings in wire order.
//
// A Pdu becomes sealed once it has been encoded successfully and may not
// be encoded again. Pdus returned by Decode are not sealed.
type Pdu struct {
	Security SecurityParameters
	PDUType  PDUType

	RequestID   int32
	ErrorStatus int32
	ErrorIndex  int32

	// Trap is the v1 trap header, used only when PDUType is Trap.
	Trap *TrapV1

	Variables []VarBind

	sealed bool
}

// Version returns the message version implied by the security parameters.
func (p *Pdu) Version() SnmpVersion {
	if p.Security == nil {
		return versionUnknown
	}
	return p.Security.Version()
}

// Usm returns the v3 security parameters, or nil for v1 and v2c.
func (p *Pdu) Usm() *Usm {
	sp, _ := p.Security.(*Usm)
	return sp
}

// Sealed reports whether the Pdu has been encoded.
func (p *Pdu) Sealed() bool { return p.sealed }

// NonRepeaters of a GetBulkRequest travels in the error-status slot.
func (p *Pdu) NonRepeaters() int32 { return p.ErrorStatus }

// MaxRepetitions of a GetBulkRequest travels in the error-index slot.
func (p *Pdu) MaxRepetitions() int32 { return p.ErrorIndex }

// SafeString returns a description of the Pdu that is safe to log.
func (p *Pdu) SafeString() string {
	sp := ""
	if p.Security != nil {
		sp = p.Security.SafeString()
	}
	return fmt.Sprintf("Version:%s, SecurityParameters:{%s}, PDUType:%s, RequestID:%d, ErrorStatus:%d, ErrorIndex:%d, Variables:%v",
		p.Version(),
		sp,
		p.PDUType,
		p.RequestID,
		p.ErrorStatus,
		p.ErrorIndex,
		p.Variables,
	)
}

const versionUnknown SnmpVersion = 0xff
