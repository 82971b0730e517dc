// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"crypto"
	_ "crypto/md5" // register hashes
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
)

// AuthProtocol describes the authentication protocol in use by an SNMPv3
// user.
type AuthProtocol uint8

// NoAuth, MD5 and SHA are implemented per RFC 3414. The SHA-2 variants
// follow RFC 7860.
const (
	NoAuth AuthProtocol = 1
	MD5    AuthProtocol = 2
	SHA    AuthProtocol = 3
	SHA224 AuthProtocol = 4
	SHA256 AuthProtocol = 5
	SHA384 AuthProtocol = 6
	SHA512 AuthProtocol = 7
)

func (authProtocol AuthProtocol) String() string {
	switch authProtocol {
	case NoAuth:
		return "NoAuth"
	case MD5:
		return "MD5"
	case SHA:
		return "SHA"
	case SHA224:
		return "SHA224"
	case SHA256:
		return "SHA256"
	case SHA384:
		return "SHA384"
	case SHA512:
		return "SHA512"
	}
	return fmt.Sprintf("AuthProtocol(%d)", uint8(authProtocol))
}

// HashType maps the AuthProtocol's hash type to an actual crypto.Hash object.
func (authProtocol AuthProtocol) HashType() crypto.Hash {
	switch authProtocol {
	case MD5:
		return crypto.MD5
	case SHA:
		return crypto.SHA1
	case SHA224:
		return crypto.SHA224
	case SHA256:
		return crypto.SHA256
	case SHA384:
		return crypto.SHA384
	case SHA512:
		return crypto.SHA512
	}
	return 0
}

// digestLen is the width of msgAuthenticationParameters for the protocol.
func (authProtocol AuthProtocol) digestLen() int {
	switch authProtocol {
	case MD5, SHA:
		return 12
	case SHA224:
		return 16
	case SHA256:
		return 24
	case SHA384:
		return 32
	case SHA512:
		return 48
	}
	return 0
}

func (authProtocol AuthProtocol) enabled() bool {
	return authProtocol.HashType() != 0
}

// PrivProtocol is the privacy protocol in use by an SNMPv3 user.
type PrivProtocol uint8

// NoPriv, DES implemented, AES implemented
const (
	NoPriv PrivProtocol = 1
	DES    PrivProtocol = 2
	AES    PrivProtocol = 3
	AES192 PrivProtocol = 4 // Blumenthal-AES192
	AES256 PrivProtocol = 5 // Blumenthal-AES256
)

func (privProtocol PrivProtocol) String() string {
	switch privProtocol {
	case NoPriv:
		return "NoPriv"
	case DES:
		return "DES"
	case AES:
		return "AES"
	case AES192:
		return "AES192"
	case AES256:
		return "AES256"
	}
	return fmt.Sprintf("PrivProtocol(%d)", uint8(privProtocol))
}

// keyLen is the number of localized key octets the cipher consumes. DES
// uses the first 8 as key and the next 8 as pre-IV.
func (privProtocol PrivProtocol) keyLen() int {
	switch privProtocol {
	case DES, AES:
		return 16
	case AES192:
		return 24
	case AES256:
		return 32
	}
	return 0
}

func (privProtocol PrivProtocol) enabled() bool {
	return privProtocol.keyLen() != 0
}

// SecurityContext holds the localized keys and algorithms the codec needs
// for authenticated and private SNMPv3 messages. Key material never
// appears in logs or error messages.
type SecurityContext struct {
	AuthProtocol AuthProtocol
	AuthKey      []byte

	PrivProtocol PrivProtocol
	PrivKey      []byte

	// Salt is the caller's salt counter. It should change with every
	// encrypted message, the codec only reads it.
	Salt uint64
}

// NewSecurityContext localizes the passphrases for engineID. For AES192 and
// AES256 the privacy key is extended with ExtendPrivKey when the hash is
// too short to supply it.
func NewSecurityContext(authProtocol AuthProtocol, authPassphrase string,
	privProtocol PrivProtocol, privPassphrase string, engineID []byte) (*SecurityContext, error) {
	sec := &SecurityContext{AuthProtocol: authProtocol, PrivProtocol: privProtocol}
	if !authProtocol.enabled() {
		if privProtocol.enabled() {
			return nil, fmt.Errorf("%w: %s without authentication", ErrUnknownSecurityLevel, privProtocol)
		}
		return sec, nil
	}

	var err error
	if sec.AuthKey, err = PasswordToKey(authProtocol, authPassphrase, engineID); err != nil {
		return nil, fmt.Errorf("auth key: %w", err)
	}
	if !privProtocol.enabled() {
		return sec, nil
	}
	if sec.PrivKey, err = PasswordToKey(authProtocol, privPassphrase, engineID); err != nil {
		return nil, fmt.Errorf("priv key: %w", err)
	}
	if len(sec.PrivKey) < privProtocol.keyLen() {
		if sec.PrivKey, err = ExtendPrivKey(authProtocol, sec.PrivKey, privProtocol.keyLen()); err != nil {
			return nil, fmt.Errorf("priv key: %w", err)
		}
	}
	return sec, nil
}

// SafeString describes the context without its keys.
func (sec *SecurityContext) SafeString() string {
	if sec == nil {
		return "<nil>"
	}
	return fmt.Sprintf("AuthProtocol:%s, AuthKey:<%d bytes>, PrivProtocol:%s, PrivKey:<%d bytes>, Salt:%d",
		sec.AuthProtocol, len(sec.AuthKey), sec.PrivProtocol, len(sec.PrivKey), sec.Salt)
}

// check confirms sec can serve the security level in flags.
func (sec *SecurityContext) check(flags SnmpV3MsgFlags) error {
	switch {
	case flags.SecurityLevel() == Reserved:
		return fmt.Errorf("%w: privacy without authentication", ErrUnknownSecurityLevel)
	case !flags.authenticated():
		return nil
	case sec == nil || !sec.AuthProtocol.enabled():
		return fmt.Errorf("%w: %s needs an authentication protocol", ErrUnknownSecurityLevel, flags)
	case len(sec.AuthKey) == 0:
		return fmt.Errorf("%w: %s needs an authentication key", ErrUnknownSecurityLevel, flags)
	case !flags.private():
		return nil
	case !sec.PrivProtocol.enabled():
		return fmt.Errorf("%w: %s needs a privacy protocol", ErrUnknownSecurityLevel, flags)
	case len(sec.PrivKey) < sec.PrivProtocol.keyLen():
		return fmt.Errorf("%w: %s needs a %d byte privacy key, have %d",
			ErrUnknownSecurityLevel, sec.PrivProtocol, sec.PrivProtocol.keyLen(), len(sec.PrivKey))
	}
	return nil
}

// level is the security level sec is configured for.
func (sec *SecurityContext) level() SnmpV3MsgFlags {
	switch {
	case sec == nil:
		return NoAuthNoPriv
	case sec.PrivProtocol.enabled():
		return AuthPriv
	case sec.AuthProtocol.enabled():
		return AuthNoPriv
	}
	return NoAuthNoPriv
}

// atLeast rejects a received message whose flags ask for less protection
// than sec is configured for.
func (sec *SecurityContext) atLeast(flags SnmpV3MsgFlags) error {
	if have, want := flags.SecurityLevel(), sec.level(); have < want {
		return fmt.Errorf("%w: message is %s, context requires %s", ErrUnknownSecurityLevel, have, want)
	}
	return nil
}
