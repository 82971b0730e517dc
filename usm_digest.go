// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"crypto/hmac"
	"fmt"
)

// ComputeDigest returns the msgAuthenticationParameters value for an
// encoded SNMPv3 message. The field is found by parsing the header and is
// treated as zeros while hashing; msg itself is left untouched.
func (sec *SecurityContext) ComputeDigest(msg []byte) ([]byte, error) {
	off, width, err := locateAuthParameters(msg)
	if err != nil {
		return nil, err
	}
	if width != sec.authProtocol().digestLen() {
		return nil, fmt.Errorf("%w: auth field is %d bytes, %s needs %d",
			ErrWrongDigest, width, sec.authProtocol(), sec.authProtocol().digestLen())
	}
	return sec.digestAt(msg, off, width)
}

// VerifyDigest checks claimed against the digest of msg in constant time.
// A mismatch is ErrWrongDigest; a message that cannot be parsed far enough
// to find the auth field returns the parse error.
func (sec *SecurityContext) VerifyDigest(msg, claimed []byte) error {
	off, _, err := locateAuthParameters(msg)
	if err != nil {
		return err
	}
	return sec.verifyAt(msg, off, claimed)
}

func (sec *SecurityContext) authProtocol() AuthProtocol {
	if sec == nil {
		return 0
	}
	return sec.AuthProtocol
}

func locateAuthParameters(msg []byte) (off, width int, err error) {
	h, err := parseHeader(msg, Logger{})
	if err != nil {
		return 0, 0, err
	}
	if h.usm == nil {
		return 0, 0, fmt.Errorf("%w: version %s carries no digest", ErrUnsupportedVersion, h.pdu.Version())
	}
	if h.authOff < 0 {
		return 0, 0, fmt.Errorf("%w: message has no authentication parameters", ErrWrongDigest)
	}
	return h.authOff, len(h.usm.AuthParameters), nil
}

func (sec *SecurityContext) verifyAt(msg []byte, off int, claimed []byte) error {
	if off < 0 || len(claimed) != sec.authProtocol().digestLen() {
		return fmt.Errorf("%w: %d byte digest for %s", ErrWrongDigest, len(claimed), sec.authProtocol())
	}
	expected, err := sec.digestAt(msg, off, len(claimed))
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, claimed) {
		return ErrWrongDigest
	}
	return nil
}

// digestAt computes the truncated HMAC of msg with the width bytes at off
// zeroed.
func (sec *SecurityContext) digestAt(msg []byte, off, width int) ([]byte, error) {
	if !sec.authProtocol().enabled() || len(sec.AuthKey) == 0 {
		return nil, fmt.Errorf("%w: no authentication key", ErrUnknownSecurityLevel)
	}
	if off < 0 || off+width > len(msg) {
		return nil, fmt.Errorf("%w: auth field at %d+%d outside %d byte message", ErrTruncated, off, width, len(msg))
	}

	scratch := make([]byte, len(msg))
	copy(scratch, msg)
	clear(scratch[off : off+width])

	mac := hmac.New(sec.AuthProtocol.HashType().New, sec.AuthKey)
	mac.Write(scratch)
	return mac.Sum(nil)[:sec.AuthProtocol.digestLen()], nil
}
