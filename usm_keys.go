// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"errors"
	"fmt"
)

// passwordStretch is the number of passphrase octets hashed into Ku, RFC
// 3414 A.2.
const passwordStretch = 1048576

var errEmptyPassphrase = errors.New("empty passphrase")

// PasswordToKey derives the key localized to engineID from a passphrase,
// as in RFC 3414 A.2: the passphrase is repeated to 1 MiB and hashed into
// Ku, then Kul = H(Ku || engineID || Ku).
func PasswordToKey(authProtocol AuthProtocol, passphrase string, engineID []byte) ([]byte, error) {
	if !authProtocol.enabled() {
		return nil, fmt.Errorf("%w: cannot localize a key for %s", ErrUnknownSecurityLevel, authProtocol)
	}
	if passphrase == "" {
		return nil, errEmptyPassphrase
	}

	h := authProtocol.HashType().New()
	var chunk [64]byte
	pwIndex := 0
	for count := 0; count < passwordStretch; count += len(chunk) {
		for i := range chunk {
			chunk[i] = passphrase[pwIndex%len(passphrase)]
			pwIndex++
		}
		h.Write(chunk[:])
	}
	ku := h.Sum(nil)

	h.Reset()
	h.Write(ku)
	h.Write(engineID)
	h.Write(ku)
	return h.Sum(nil), nil
}

// ExtendPrivKey lengthens a localized key to want octets the Blumenthal
// way: each round appends the hash of everything so far. AES192 and AES256
// need it whenever the auth hash is shorter than the cipher key.
func ExtendPrivKey(authProtocol AuthProtocol, key []byte, want int) ([]byte, error) {
	if !authProtocol.enabled() {
		return nil, fmt.Errorf("%w: cannot extend a key for %s", ErrUnknownSecurityLevel, authProtocol)
	}
	if len(key) == 0 {
		return nil, errors.New("cannot extend an empty key")
	}
	out := append([]byte(nil), key...)
	for len(out) < want {
		h := authProtocol.HashType().New()
		h.Write(out)
		out = h.Sum(out)
	}
	return out[:want], nil
}
