// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"fmt"
	"math"
	"net"
)

// msgHeader is what parseHeader learns about a message before its body.
type msgHeader struct {
	pdu *Pdu
	usm *Usm

	// authOff is the absolute offset of the auth-param contents in the
	// message, or -1 when the field is empty.
	authOff int

	// body is positioned at the PDU (v1, v2c), the scopedPDU or the
	// encrypted scopedPDU (v3).
	body *WireBuffer
}

// ParseHeader parses msg up to and including its security parameters. It
// returns a Pdu with Security filled in and the length of the remaining
// body: the PDU for v1 and v2c, the plain or encrypted scopedPDU for v3.
// Nothing is authenticated or decrypted.
func ParseHeader(msg []byte) (*Pdu, int, error) {
	h, err := parseHeader(msg, Logger{})
	if err != nil {
		return nil, 0, err
	}
	return h.pdu, h.body.Remaining(), nil
}

func parseHeader(msg []byte, log Logger) (*msgHeader, error) {
	r := NewReadBuffer(msg)
	outer, err := r.ReadNested(byte(Sequence))
	if err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after message", ErrMalformedLength, r.Remaining())
	}

	raw, err := outer.ExpectTagged(byte(Integer))
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	v, err := parseInt32(raw)
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	log.Printf("parseHeader: version %d", v)

	h := &msgHeader{pdu: &Pdu{}, authOff: -1, body: outer}
	switch SnmpVersion(v) {
	case Version1, Version2c:
		community, err := outer.ExpectTagged(byte(OctetString))
		if err != nil {
			return nil, fmt.Errorf("community: %w", err)
		}
		if SnmpVersion(v) == Version1 {
			h.pdu.Security = CommunityV1(community)
		} else {
			h.pdu.Security = CommunityV2c(community)
		}
	case Version3:
		if err = parseUsmHeader(outer, h); err != nil {
			return nil, err
		}
		if log.Enabled() {
			log.Printf("parseHeader: %s", h.usm.SafeString())
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return h, nil
}

func parseUsmHeader(outer *WireBuffer, h *msgHeader) error {
	sp := &Usm{}
	h.usm = sp
	h.pdu.Security = sp

	global, err := outer.ReadNested(byte(Sequence))
	if err != nil {
		return fmt.Errorf("msgGlobalData: %w", err)
	}
	if sp.MsgID, err = expectUnsigned(global, "msgID"); err != nil {
		return err
	}
	if sp.MaxMsgSize, err = expectUnsigned(global, "msgMaxSize"); err != nil {
		return err
	}
	flags, err := global.ExpectTagged(byte(OctetString))
	if err != nil {
		return fmt.Errorf("msgFlags: %w", err)
	}
	if len(flags) != 1 {
		return fmt.Errorf("%w: msgFlags of %d bytes", ErrMalformedLength, len(flags))
	}
	sp.Flags = SnmpV3MsgFlags(flags[0])
	if sp.Flags.SecurityLevel() == Reserved {
		return fmt.Errorf("%w: privacy without authentication", ErrUnknownSecurityLevel)
	}
	model, err := expectUnsigned(global, "msgSecurityModel")
	if err != nil {
		return err
	}
	if model != uint32(UserSecurityModel) {
		return fmt.Errorf("%w: %d", ErrUnknownSecurityModels, model)
	}
	if global.Remaining() != 0 {
		return fmt.Errorf("%w: trailing bytes in msgGlobalData", ErrMalformedLength)
	}

	wrapper, err := outer.ReadNested(byte(OctetString))
	if err != nil {
		return fmt.Errorf("msgSecurityParameters: %w", err)
	}
	usm, err := wrapper.ReadNested(byte(Sequence))
	if err != nil {
		return fmt.Errorf("msgSecurityParameters: %w", err)
	}
	if wrapper.Remaining() != 0 {
		return fmt.Errorf("%w: trailing bytes in msgSecurityParameters", ErrMalformedLength)
	}

	engineID, err := usm.ExpectTagged(byte(OctetString))
	if err != nil {
		return fmt.Errorf("msgAuthoritativeEngineID: %w", err)
	}
	sp.EngineID = append([]byte{}, engineID...)
	if sp.EngineBoots, err = expectUnsigned(usm, "msgAuthoritativeEngineBoots"); err != nil {
		return err
	}
	if sp.EngineTime, err = expectUnsigned(usm, "msgAuthoritativeEngineTime"); err != nil {
		return err
	}
	user, err := usm.ExpectTagged(byte(OctetString))
	if err != nil {
		return fmt.Errorf("msgUserName: %w", err)
	}
	sp.UserName = string(user)

	auth, err := usm.ReadNested(byte(OctetString))
	if err != nil {
		return fmt.Errorf("msgAuthenticationParameters: %w", err)
	}
	sp.AuthParameters = append([]byte{}, auth.Bytes()...)
	if auth.Remaining() > 0 {
		h.authOff = auth.Pos()
	}

	priv, err := usm.ExpectTagged(byte(OctetString))
	if err != nil {
		return fmt.Errorf("msgPrivacyParameters: %w", err)
	}
	sp.PrivParameters = append([]byte{}, priv...)
	if usm.Remaining() != 0 {
		return fmt.Errorf("%w: trailing bytes in UsmSecurityParameters", ErrMalformedLength)
	}
	return nil
}

// expectUnsigned reads an INTEGER in the 0..2^32-1 range.
func expectUnsigned(r *WireBuffer, field string) (uint32, error) {
	raw, err := r.ExpectTagged(byte(Integer))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	v, err := parseInt64(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s %d out of range", ErrMalformedLength, field, v)
	}
	return uint32(v), nil
}

// parseScopedPDU reads contextEngineID and contextName and returns a buffer
// positioned at the PDU.
func parseScopedPDU(r *WireBuffer, sp *Usm) (*WireBuffer, error) {
	scoped, err := r.ReadNested(byte(Sequence))
	if err != nil {
		return nil, fmt.Errorf("scopedPDU: %w", err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after scopedPDU", ErrMalformedLength, r.Remaining())
	}
	engineID, err := scoped.ExpectTagged(byte(OctetString))
	if err != nil {
		return nil, fmt.Errorf("contextEngineID: %w", err)
	}
	sp.ContextEngineID = append([]byte{}, engineID...)
	name, err := scoped.ExpectTagged(byte(OctetString))
	if err != nil {
		return nil, fmt.Errorf("contextName: %w", err)
	}
	sp.ContextName = string(name)
	return scoped, nil
}

// parsePduHeader reads the PDU envelope into pdu and returns a buffer over
// the variable bindings. The PDU must be the last element in r.
func parsePduHeader(r *WireBuffer, pdu *Pdu, log Logger) (*WireBuffer, error) {
	tag, err := r.Peek()
	if err != nil {
		return nil, fmt.Errorf("pdu: %w", err)
	}
	pdu.PDUType = PDUType(tag)
	if !pdu.PDUType.known() {
		return nil, fmt.Errorf("%w: unknown PDUType %#x at %d", ErrMalformedTag, tag, r.Pos())
	}
	if pdu.PDUType == Trap && pdu.Version() != Version1 {
		return nil, fmt.Errorf("%w: %s in a version %s message", ErrMalformedTag, pdu.PDUType, pdu.Version())
	}
	body, err := r.ReadNested(tag)
	if err != nil {
		return nil, fmt.Errorf("pdu: %w", err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after pdu", ErrMalformedLength, r.Remaining())
	}
	log.Printf("parsePduHeader: %s, %d bytes", pdu.PDUType, body.Remaining())

	if pdu.PDUType == Trap {
		if pdu.Trap, err = parseTrapV1Header(body); err != nil {
			return nil, err
		}
	} else {
		fields := []struct {
			name string
			dst  *int32
		}{
			{"request-id", &pdu.RequestID},
			{"error-status", &pdu.ErrorStatus},
			{"error-index", &pdu.ErrorIndex},
		}
		for _, f := range fields {
			raw, err := body.ExpectTagged(byte(Integer))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.name, err)
			}
			if *f.dst, err = parseInt32(raw); err != nil {
				return nil, fmt.Errorf("%s: %w", f.name, err)
			}
		}
	}

	vbl, err := body.ReadNested(byte(Sequence))
	if err != nil {
		return nil, fmt.Errorf("variable-bindings: %w", err)
	}
	if body.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after variable-bindings", ErrMalformedLength, body.Remaining())
	}
	return vbl, nil
}

func parseTrapV1Header(r *WireBuffer) (*TrapV1, error) {
	trap := &TrapV1{}

	raw, err := r.ExpectTagged(byte(ObjectIdentifier))
	if err != nil {
		return nil, fmt.Errorf("enterprise: %w", err)
	}
	if trap.Enterprise, err = parseOID(raw); err != nil {
		return nil, fmt.Errorf("enterprise: %w", err)
	}

	raw, err = r.ExpectTagged(byte(IPAddress))
	if err != nil {
		return nil, fmt.Errorf("agent-addr: %w", err)
	}
	if len(raw) != net.IPv4len {
		return nil, fmt.Errorf("%w: agent-addr of %d bytes", ErrMalformedLength, len(raw))
	}
	trap.AgentAddress = net.IP(append([]byte{}, raw...))

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"generic-trap", &trap.GenericTrap},
		{"specific-trap", &trap.SpecificTrap},
	} {
		raw, err = r.ExpectTagged(byte(Integer))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		v, err := parseInt32(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = int(v)
	}

	raw, err = r.ExpectTagged(byte(TimeTicks))
	if err != nil {
		return nil, fmt.Errorf("time-stamp: %w", err)
	}
	if trap.Timestamp, err = parseUint32(raw); err != nil {
		return nil, fmt.Errorf("time-stamp: %w", err)
	}
	return trap, nil
}

// encodeHeader writes everything up to the first variable binding and
// leaves the message, scopedPDU, PDU and bindings slots open.
func (e *encoder) encodeHeader() error {
	w := e.buf
	var err error

	if e.msgSlot, err = w.OpenTagged(byte(Sequence)); err != nil {
		return err
	}
	if err = w.WriteTagged(byte(Integer), marshalInt64(int64(e.pdu.Version()))); err != nil {
		return err
	}

	switch sp := e.pdu.Security.(type) {
	case CommunityV1:
		err = w.WriteTagged(byte(OctetString), []byte(sp))
	case CommunityV2c:
		err = w.WriteTagged(byte(OctetString), []byte(sp))
	case *Usm:
		err = e.encodeUsmHeader(sp)
	}
	if err != nil {
		return err
	}

	if e.pduSlot, err = w.OpenTagged(byte(e.pdu.PDUType)); err != nil {
		return err
	}
	if e.pdu.PDUType == Trap {
		err = encodeTrapV1Header(w, e.pdu.Trap)
	} else {
		for _, v := range []int32{e.pdu.RequestID, e.pdu.ErrorStatus, e.pdu.ErrorIndex} {
			if err = w.WriteTagged(byte(Integer), marshalInt64(int64(v))); err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}

	if e.vblSlot, err = w.OpenTagged(byte(Sequence)); err != nil {
		return err
	}
	e.advance(stateHeaderWritten)
	return nil
}

func (e *encoder) encodeUsmHeader(sp *Usm) error {
	w := e.buf

	global, err := w.OpenTagged(byte(Sequence))
	if err != nil {
		return err
	}
	for _, b := range [][]byte{
		marshalUint64(uint64(sp.MsgID)),
		marshalUint64(uint64(sp.MaxMsgSize)),
	} {
		if err = w.WriteTagged(byte(Integer), b); err != nil {
			return err
		}
	}
	if err = w.WriteTagged(byte(OctetString), []byte{byte(sp.Flags)}); err != nil {
		return err
	}
	if err = w.WriteTagged(byte(Integer), []byte{byte(UserSecurityModel)}); err != nil {
		return err
	}
	if err = w.Resolve(global); err != nil {
		return err
	}

	wrapper, err := w.OpenTagged(byte(OctetString))
	if err != nil {
		return err
	}
	usm, err := w.OpenTagged(byte(Sequence))
	if err != nil {
		return err
	}
	if err = w.WriteTagged(byte(OctetString), sp.EngineID); err != nil {
		return err
	}
	if err = w.WriteTagged(byte(Integer), marshalUint64(uint64(sp.EngineBoots))); err != nil {
		return err
	}
	if err = w.WriteTagged(byte(Integer), marshalUint64(uint64(sp.EngineTime))); err != nil {
		return err
	}
	if err = w.WriteTagged(byte(OctetString), []byte(sp.UserName)); err != nil {
		return err
	}

	// auth and priv fields are reserved at their final width and patched
	// once the digest and salt are known
	e.authOff, e.authWidth = -1, 0
	if sp.Flags.authenticated() {
		e.authWidth = e.sec.AuthProtocol.digestLen()
	}
	if err = w.WriteTagged(byte(OctetString), make([]byte, e.authWidth)); err != nil {
		return err
	}
	if e.authWidth > 0 {
		e.authOff = w.Len() - e.authWidth
	}

	e.privOff = -1
	privWidth := 0
	if sp.Flags.private() {
		privWidth = privParamsLen
	}
	if err = w.WriteTagged(byte(OctetString), make([]byte, privWidth)); err != nil {
		return err
	}
	if privWidth > 0 {
		e.privOff = w.Len() - privWidth
	}

	if err = w.Resolve(usm); err != nil {
		return err
	}
	if err = w.Resolve(wrapper); err != nil {
		return err
	}

	e.scopedStart = w.Len()
	if e.scopedSlot, err = w.OpenTagged(byte(Sequence)); err != nil {
		return err
	}
	if err = w.WriteTagged(byte(OctetString), sp.ContextEngineID); err != nil {
		return err
	}
	return w.WriteTagged(byte(OctetString), []byte(sp.ContextName))
}

func encodeTrapV1Header(w *WireBuffer, trap *TrapV1) error {
	if trap == nil {
		return fmt.Errorf("%w: Trap PDU without a trap header", ErrValueType)
	}
	enterprise, err := marshalOID(trap.Enterprise)
	if err != nil {
		return fmt.Errorf("enterprise: %w", err)
	}
	addr := trap.AgentAddress.To4()
	if addr == nil {
		return fmt.Errorf("%w: agent-addr %v is not IPv4", ErrValueType, trap.AgentAddress)
	}
	generic, err := marshalInt32(trap.GenericTrap)
	if err != nil {
		return fmt.Errorf("generic-trap: %w", err)
	}
	specific, err := marshalInt32(trap.SpecificTrap)
	if err != nil {
		return fmt.Errorf("specific-trap: %w", err)
	}

	for _, el := range []struct {
		tag     Asn1BER
		content []byte
	}{
		{ObjectIdentifier, enterprise},
		{IPAddress, addr},
		{Integer, generic},
		{Integer, specific},
		{TimeTicks, marshalUint64(uint64(trap.Timestamp))},
	} {
		if err = w.WriteTagged(byte(el.tag), el.content); err != nil {
			return err
		}
	}
	return nil
}
