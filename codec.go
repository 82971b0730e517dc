// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"fmt"
	"math"
)

const (
	// rxBufSize is the default bound on message size, the largest UDP
	// payload.
	rxBufSize = 65535

	// minMsgMaxSize is the smallest msgMaxSize RFC 3412 allows.
	minMsgMaxSize = 484
)

// Codec encodes and decodes SNMP messages. The zero value is ready to use;
// a Codec holds no per-message state and may be shared between goroutines.
type Codec struct {
	// Logger is used for debugging. Key material is never passed to it.
	Logger Logger

	// Stats, if set, counts encode and decode outcomes.
	Stats *Stats

	// MaxMessageSize bounds encoded and accepted messages. Zero means
	// 65535.
	MaxMessageSize int
}

var defaultCodec Codec

// Encode encodes pdu with the zero Codec.
func Encode(pdu *Pdu, sec *SecurityContext) ([]byte, error) {
	return defaultCodec.Encode(pdu, sec)
}

// Decode decodes msg with the zero Codec.
func Decode(msg []byte, sec *SecurityContext) (*Pdu, error) {
	return defaultCodec.Decode(msg, sec)
}

func (c *Codec) maxMessageSize() int {
	if c.MaxMessageSize > 0 {
		return c.MaxMessageSize
	}
	return rxBufSize
}

type encodeState uint8

const (
	stateBuilding encodeState = iota
	stateHeaderWritten
	stateBindingsWritten
	stateLengthsResolved
	stateEncrypted
	stateDigested
	stateSealed
)

func (s encodeState) String() string {
	switch s {
	case stateBuilding:
		return "Building"
	case stateHeaderWritten:
		return "HeaderWritten"
	case stateBindingsWritten:
		return "BindingsWritten"
	case stateLengthsResolved:
		return "LengthsResolved"
	case stateEncrypted:
		return "Encrypted"
	case stateDigested:
		return "Digested"
	case stateSealed:
		return "Sealed"
	}
	return fmt.Sprintf("encodeState(%d)", uint8(s))
}

// encoder carries one Encode call through its states. It records every
// slot and reserved field it will have to come back to.
type encoder struct {
	log   Logger
	buf   *WireBuffer
	pdu   *Pdu
	usm   *Usm
	sec   *SecurityContext
	state encodeState

	msgSlot    SlotHandle
	scopedSlot SlotHandle
	pduSlot    SlotHandle
	vblSlot    SlotHandle

	scopedStart int
	authOff     int
	authWidth   int
	privOff     int

	authParams []byte
	privParams []byte
}

// advance moves the encoder forward. Optional states may be skipped, but
// the encoder never moves backwards.
func (e *encoder) advance(to encodeState) {
	if to <= e.state {
		panic(fmt.Sprintf("snmpcodec: encoder cannot move from %s to %s", e.state, to))
	}
	e.state = to
}

// Encode serializes pdu. Lengths are backpatched in place, the scopedPDU is
// encrypted and the digest written when the Usm flags ask for it. On
// success the Pdu is sealed and, for v3, its AuthParameters and
// PrivParameters hold what was sent.
func (c *Codec) Encode(pdu *Pdu, sec *SecurityContext) (msg []byte, err error) {
	defer func() { c.Stats.observeEncode(err) }()

	if pdu == nil {
		return nil, fmt.Errorf("%w: nil pdu", ErrValueType)
	}
	if pdu.sealed {
		return nil, ErrAlreadySealed
	}
	if err = validatePdu(pdu, sec); err != nil {
		return nil, err
	}
	if c.Logger.Enabled() {
		c.Logger.Printf("Encode: %s", pdu.SafeString())
	}

	e := &encoder{
		log:     c.Logger,
		buf:     NewWireBuffer(c.maxMessageSize()),
		pdu:     pdu,
		usm:     pdu.Usm(),
		sec:     sec,
		authOff: -1,
		privOff: -1,
	}
	if err = e.encodeHeader(); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if err = e.encodeBindings(); err != nil {
		return nil, err
	}
	if err = e.resolveLengths(); err != nil {
		return nil, err
	}
	if e.usm != nil && e.usm.Flags.private() {
		if err = e.encrypt(); err != nil {
			return nil, err
		}
	}
	if err = e.buf.Resolve(e.msgSlot); err != nil {
		return nil, err
	}
	if e.usm != nil && e.usm.Flags.authenticated() {
		if err = e.digest(); err != nil {
			return nil, err
		}
	}

	e.buf.mustBeResolved()
	e.advance(stateSealed)
	pdu.sealed = true
	if e.usm != nil {
		e.usm.AuthParameters = e.authParams
		e.usm.PrivParameters = e.privParams
	}
	c.Logger.Printf("Encode: %d bytes", e.buf.Len())
	return e.buf.Bytes(), nil
}

func validatePdu(pdu *Pdu, sec *SecurityContext) error {
	if pdu.Security == nil {
		return fmt.Errorf("%w: pdu has no security parameters", ErrUnsupportedVersion)
	}
	if !pdu.PDUType.known() {
		return fmt.Errorf("%w: cannot encode %s", ErrValueType, pdu.PDUType)
	}
	if pdu.PDUType == Trap && pdu.Version() != Version1 {
		return fmt.Errorf("%w: %s needs version 1, have %s", ErrValueType, pdu.PDUType, pdu.Version())
	}

	sp := pdu.Usm()
	if sp == nil {
		if _, ok := pdu.Security.(*Usm); ok {
			return fmt.Errorf("%w: nil *Usm", ErrValueType)
		}
		return nil
	}
	if sp.MaxMsgSize < minMsgMaxSize || sp.MaxMsgSize > math.MaxInt32 {
		return fmt.Errorf("%w: msgMaxSize %d outside [%d,%d]", ErrValueType, sp.MaxMsgSize, minMsgMaxSize, math.MaxInt32)
	}
	for _, f := range []struct {
		name string
		v    uint32
	}{
		{"msgID", sp.MsgID},
		{"msgAuthoritativeEngineBoots", sp.EngineBoots},
		{"msgAuthoritativeEngineTime", sp.EngineTime},
	} {
		if f.v > math.MaxInt32 {
			return fmt.Errorf("%w: %s %d exceeds %d", ErrValueType, f.name, f.v, math.MaxInt32)
		}
	}
	return sec.check(sp.Flags)
}

func (e *encoder) encodeBindings() error {
	for i, vb := range e.pdu.Variables {
		if err := EncodeBinding(e.buf, vb); err != nil {
			return fmt.Errorf("variable %d: %w", i, err)
		}
	}
	e.advance(stateBindingsWritten)
	return nil
}

// resolveLengths closes the bindings, PDU and scopedPDU slots, innermost
// first. The message slot stays open until the scopedPDU is final.
func (e *encoder) resolveLengths() error {
	slots := []SlotHandle{e.vblSlot, e.pduSlot}
	if e.usm != nil {
		slots = append(slots, e.scopedSlot)
	}
	for _, h := range slots {
		if err := e.buf.Resolve(h); err != nil {
			return err
		}
	}
	e.advance(stateLengthsResolved)
	return nil
}

// encrypt replaces the plaintext scopedPDU with an OCTET STRING of its
// ciphertext and fills in the reserved privacy parameters.
func (e *encoder) encrypt() error {
	scoped := append([]byte(nil), e.buf.Bytes()[e.scopedStart:]...)
	ciphertext, privParams, err := e.sec.EncryptScope(e.usm.EngineBoots, e.usm.EngineTime, scoped)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	e.buf.Truncate(e.scopedStart)
	if err = e.buf.WriteTagged(byte(OctetString), ciphertext); err != nil {
		return err
	}
	if err = e.buf.PatchAt(e.privOff, privParams); err != nil {
		return err
	}
	e.privParams = privParams
	e.log.Printf("encrypt: %d byte scopedPDU, %d byte ciphertext", len(scoped), len(ciphertext))
	e.advance(stateEncrypted)
	return nil
}

// digest authenticates the finished message and writes the digest into the
// reserved field.
func (e *encoder) digest() error {
	d, err := e.sec.digestAt(e.buf.Bytes(), e.authOff, e.authWidth)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	if err = e.buf.PatchAt(e.authOff, d); err != nil {
		return err
	}
	e.authParams = d
	e.advance(stateDigested)
	return nil
}

type decodeState uint8

const (
	stateRawBytes decodeState = iota
	stateHeaderParsed
	stateAuthVerified
	stateDecrypted
	stateBindingsParsed
	stateDone
)

func (s decodeState) String() string {
	switch s {
	case stateRawBytes:
		return "RawBytes"
	case stateHeaderParsed:
		return "HeaderParsed"
	case stateAuthVerified:
		return "AuthVerified"
	case stateDecrypted:
		return "Decrypted"
	case stateBindingsParsed:
		return "BindingsParsed"
	case stateDone:
		return "Done"
	}
	return fmt.Sprintf("decodeState(%d)", uint8(s))
}

type decoder struct {
	log   Logger
	state decodeState
}

func (d *decoder) advance(to decodeState) {
	if to <= d.state {
		panic(fmt.Sprintf("snmpcodec: decoder cannot move from %s to %s", d.state, to))
	}
	d.log.Printf("Decode: %s -> %s", d.state, to)
	d.state = to
}

// Decode parses msg into a Pdu. For v3 messages the digest is verified
// before anything else is trusted and the scopedPDU decrypted when the
// flags say so; sec must then hold the matching keys.
//
// Failures wrap a sentinel: a structural kind (ErrTruncated,
// ErrMalformedTag, ...), ErrWrongDigest or ErrDecryption.
func (c *Codec) Decode(msg []byte, sec *SecurityContext) (pdu *Pdu, err error) {
	defer func() { c.Stats.observeDecode(err) }()

	if len(msg) > c.maxMessageSize() {
		return nil, fmt.Errorf("%w: %d byte message", ErrMessageTooLarge, len(msg))
	}
	d := &decoder{log: c.Logger}

	h, err := parseHeader(msg, c.Logger)
	if err != nil {
		return nil, err
	}
	d.advance(stateHeaderParsed)
	pdu = h.pdu
	body := h.body

	if sp := h.usm; sp != nil {
		if err = sec.check(sp.Flags); err != nil {
			return nil, err
		}
		if err = sec.atLeast(sp.Flags); err != nil {
			return nil, fmt.Errorf("user %q: %w", sp.UserName, err)
		}
		if sp.Flags.authenticated() {
			if err = sec.verifyAt(msg, h.authOff, sp.AuthParameters); err != nil {
				return nil, fmt.Errorf("user %q: %w", sp.UserName, err)
			}
			d.advance(stateAuthVerified)
		}
		if sp.Flags.private() {
			ciphertext, err := body.ExpectTagged(byte(OctetString))
			if err != nil {
				return nil, fmt.Errorf("encryptedPDU: %w", err)
			}
			if body.Remaining() != 0 {
				return nil, fmt.Errorf("%w: %d bytes after encryptedPDU", ErrMalformedLength, body.Remaining())
			}
			plaintext, err := sec.DecryptScope(sp.EngineBoots, sp.EngineTime, ciphertext, sp.PrivParameters)
			if err != nil {
				return nil, err
			}
			body = NewReadBuffer(plaintext)
			d.advance(stateDecrypted)
		}
		if body, err = parseScopedPDU(body, sp); err != nil {
			return nil, err
		}
	}

	vbl, err := parsePduHeader(body, pdu, c.Logger)
	if err != nil {
		return nil, err
	}
	for vbl.Remaining() > 0 {
		vb, err := DecodeBinding(vbl)
		if err != nil {
			return nil, fmt.Errorf("variable %d: %w", len(pdu.Variables), err)
		}
		pdu.Variables = append(pdu.Variables, vb)
	}
	d.advance(stateBindingsParsed)

	d.advance(stateDone)
	return pdu, nil
}
