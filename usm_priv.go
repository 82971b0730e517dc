// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des" //nolint:gosec
	"encoding/binary"
	"fmt"
)

// privParamsLen is the width of msgPrivacyParameters for every cipher.
const privParamsLen = 8

// EncryptScope encrypts an encoded scopedPDU and returns the ciphertext and
// the msgPrivacyParameters (salt) to send with it. The salt is taken from
// sec.Salt, so identical inputs give identical output.
func (sec *SecurityContext) EncryptScope(engineBoots, engineTime uint32, scoped []byte) (ciphertext, privParams []byte, err error) {
	if err = sec.privReady(); err != nil {
		return nil, nil, err
	}
	switch sec.PrivProtocol {
	case DES:
		return sec.desEncrypt(engineBoots, scoped)
	default:
		return sec.aesEncrypt(engineBoots, engineTime, scoped)
	}
}

// DecryptScope reverses EncryptScope. The result is exactly one BER element,
// with any block padding removed. Every failure is ErrDecryption and no
// partial plaintext is returned.
func (sec *SecurityContext) DecryptScope(engineBoots, engineTime uint32, ciphertext, privParams []byte) ([]byte, error) {
	if err := sec.privReady(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	if len(privParams) != privParamsLen {
		return nil, fmt.Errorf("%w: %d byte privacy parameters", ErrDecryption, len(privParams))
	}
	if len(ciphertext) == 0 {
		return []byte{}, nil
	}

	var plaintext []byte
	var err error
	maxPad := 0
	switch sec.PrivProtocol {
	case DES:
		plaintext, err = sec.desDecrypt(ciphertext, privParams)
		maxPad = des.BlockSize - 1
	default:
		plaintext, err = sec.aesDecrypt(engineBoots, engineTime, ciphertext, privParams)
	}
	if err != nil {
		return nil, err
	}
	return trimToElement(plaintext, maxPad)
}

func (sec *SecurityContext) privReady() error {
	if sec == nil || !sec.PrivProtocol.enabled() {
		return fmt.Errorf("%w: no privacy protocol", ErrUnknownSecurityLevel)
	}
	if len(sec.PrivKey) < sec.PrivProtocol.keyLen() {
		return fmt.Errorf("%w: %s needs a %d byte privacy key, have %d",
			ErrUnknownSecurityLevel, sec.PrivProtocol, sec.PrivProtocol.keyLen(), len(sec.PrivKey))
	}
	return nil
}

// trimToElement cuts plaintext down to its leading BER element. At most
// maxPad bytes of block padding may follow it. The pad value is not checked,
// RFC 3414 §8.1.1.2 leaves it to the sender.
func trimToElement(plaintext []byte, maxPad int) ([]byte, error) {
	total, _, err := parseLength(plaintext)
	if err != nil || total > len(plaintext) {
		return nil, fmt.Errorf("%w: plaintext is not a BER element", ErrDecryption)
	}
	if extra := len(plaintext) - total; extra > maxPad {
		return nil, fmt.Errorf("%w: %d bytes after the scoped PDU", ErrDecryption, extra)
	}
	return plaintext[:total], nil
}

// DES-CBC, RFC 3414 §8.1.1. The salt is engineBoots followed by the low 32
// bits of the salt counter; the IV is the salt XOR the pre-IV.
func (sec *SecurityContext) desEncrypt(engineBoots uint32, scoped []byte) ([]byte, []byte, error) {
	privParams := make([]byte, privParamsLen)
	binary.BigEndian.PutUint32(privParams, engineBoots)
	binary.BigEndian.PutUint32(privParams[4:], uint32(sec.Salt))

	block, err := des.NewCipher(sec.PrivKey[:8]) //nolint:gosec
	if err != nil {
		return nil, nil, err
	}

	// pad to the block size with zeros
	plaintext := scoped
	if rem := len(scoped) % des.BlockSize; rem != 0 {
		plaintext = make([]byte, len(scoped)+des.BlockSize-rem)
		copy(plaintext, scoped)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, sec.desIV(privParams)).CryptBlocks(ciphertext, plaintext)
	return ciphertext, privParams, nil
}

func (sec *SecurityContext) desDecrypt(ciphertext, privParams []byte) ([]byte, error) {
	if len(ciphertext)%des.BlockSize != 0 {
		return nil, fmt.Errorf("%w: DES ciphertext of %d bytes is not a multiple of the block size",
			ErrDecryption, len(ciphertext))
	}
	block, err := des.NewCipher(sec.PrivKey[:8]) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, sec.desIV(privParams)).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

func (sec *SecurityContext) desIV(privParams []byte) []byte {
	preIV := sec.PrivKey[8:16]
	iv := make([]byte, des.BlockSize)
	for i := range iv {
		iv[i] = preIV[i] ^ privParams[i]
	}
	return iv
}

// AES-CFB128, RFC 3826 §3.1. The IV is engineBoots, engineTime and the
// 64 bit salt, concatenated.
func (sec *SecurityContext) aesEncrypt(engineBoots, engineTime uint32, scoped []byte) ([]byte, []byte, error) {
	privParams := make([]byte, privParamsLen)
	binary.BigEndian.PutUint64(privParams, sec.Salt)

	block, err := aes.NewCipher(sec.PrivKey[:sec.PrivProtocol.keyLen()])
	if err != nil {
		return nil, nil, err
	}
	ciphertext := make([]byte, len(scoped))
	cipher.NewCFBEncrypter(block, aesIV(engineBoots, engineTime, privParams)).XORKeyStream(ciphertext, scoped) //nolint:staticcheck
	return ciphertext, privParams, nil
}

func (sec *SecurityContext) aesDecrypt(engineBoots, engineTime uint32, ciphertext, privParams []byte) ([]byte, error) {
	block, err := aes.NewCipher(sec.PrivKey[:sec.PrivProtocol.keyLen()])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, aesIV(engineBoots, engineTime, privParams)).XORKeyStream(plaintext, ciphertext) //nolint:staticcheck
	return plaintext, nil
}

func aesIV(engineBoots, engineTime uint32, privParams []byte) []byte {
	iv := make([]byte, aes.BlockSize)
	binary.BigEndian.PutUint32(iv, engineBoots)
	binary.BigEndian.PutUint32(iv[4:], engineTime)
	copy(iv[8:], privParams)
	return iv
}
