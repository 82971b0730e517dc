// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 3414 A.3.1 and A.3.2
var rfcEngineID = []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2}

func TestPasswordToKey(t *testing.T) {
	tests := []struct {
		proto AuthProtocol
		want  string
	}{
		{MD5, "526f5eed9fcce26f8964c2930787d82b"},
		{SHA, "6695febc9288e36282235fc7151f128497b38f3f"},
		{SHA256, "8982e0e549e866db361a6b625d84cccc11162d453ee8ce3a6445c2d6776f0f8b"},
	}
	for _, tt := range tests {
		t.Run(tt.proto.String(), func(t *testing.T) {
			key, err := PasswordToKey(tt.proto, "maplesyrup", rfcEngineID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(key))
		})
	}
}

func TestPasswordToKeyErrors(t *testing.T) {
	_, err := PasswordToKey(NoAuth, "maplesyrup", rfcEngineID)
	assert.ErrorIs(t, err, ErrUnknownSecurityLevel)
	_, err = PasswordToKey(SHA, "", rfcEngineID)
	assert.ErrorIs(t, err, errEmptyPassphrase)
}

func TestExtendPrivKey(t *testing.T) {
	key, err := PasswordToKey(SHA, "maplesyrup", rfcEngineID)
	require.NoError(t, err)

	ext, err := ExtendPrivKey(SHA, key, 32)
	require.NoError(t, err)
	assert.Equal(t, "6695febc9288e36282235fc7151f128497b38f3f505e07eb9af25568fa1f5dbe", hex.EncodeToString(ext))
	assert.Equal(t, key, ext[:len(key)], "extension keeps the original key as prefix")

	short, err := ExtendPrivKey(SHA, key, 16)
	require.NoError(t, err)
	assert.Equal(t, key[:16], short)

	_, err = ExtendPrivKey(SHA, nil, 32)
	assert.Error(t, err)
	_, err = ExtendPrivKey(NoAuth, key, 32)
	assert.ErrorIs(t, err, ErrUnknownSecurityLevel)
}

func TestNewSecurityContext(t *testing.T) {
	sec, err := NewSecurityContext(MD5, "maplesyrup", AES256, "maplesyrup", rfcEngineID)
	require.NoError(t, err)
	assert.Len(t, sec.AuthKey, 16)
	assert.Len(t, sec.PrivKey, 32)
	assert.Equal(t, "526f5eed9fcce26f8964c2930787d82b", hex.EncodeToString(sec.PrivKey[:16]))
	require.NoError(t, sec.check(AuthPriv|Reportable))

	sec, err = NewSecurityContext(SHA512, "authpass", DES, "privpass", rfcEngineID)
	require.NoError(t, err)
	assert.Len(t, sec.AuthKey, 64)
	assert.Len(t, sec.PrivKey, 64)

	sec, err = NewSecurityContext(NoAuth, "", NoPriv, "", rfcEngineID)
	require.NoError(t, err)
	assert.NoError(t, sec.check(NoAuthNoPriv))
	assert.ErrorIs(t, sec.check(AuthNoPriv), ErrUnknownSecurityLevel)
	assert.NoError(t, sec.atLeast(NoAuthNoPriv))

	_, err = NewSecurityContext(NoAuth, "", AES, "privpass", rfcEngineID)
	assert.ErrorIs(t, err, ErrUnknownSecurityLevel)
	_, err = NewSecurityContext(SHA, "authpass", AES, "", rfcEngineID)
	assert.ErrorIs(t, err, errEmptyPassphrase)
}

func TestSecurityContextSafeString(t *testing.T) {
	sec, err := NewSecurityContext(SHA, "authpass", AES, "privpass", rfcEngineID)
	require.NoError(t, err)
	s := sec.SafeString()
	assert.Equal(t, "AuthProtocol:SHA, AuthKey:<20 bytes>, PrivProtocol:AES, PrivKey:<20 bytes>, Salt:0", s)
	assert.NotContains(t, s, hex.EncodeToString(sec.AuthKey))
	assert.Equal(t, "<nil>", (*SecurityContext)(nil).SafeString())
}

func TestSecurityContextLevel(t *testing.T) {
	tests := []struct {
		sec   *SecurityContext
		level SnmpV3MsgFlags
	}{
		{nil, NoAuthNoPriv},
		{&SecurityContext{}, NoAuthNoPriv},
		{testSecurity(MD5, NoPriv), AuthNoPriv},
		{testSecurity(SHA512, AES256), AuthPriv},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, tt.sec.level(), tt.sec.SafeString())
		for _, flags := range []SnmpV3MsgFlags{NoAuthNoPriv, AuthNoPriv, AuthPriv} {
			err := tt.sec.atLeast(flags | Reportable)
			if flags < tt.level {
				assert.ErrorIs(t, err, ErrUnknownSecurityLevel, "%s under %s", flags, tt.level)
			} else {
				assert.NoError(t, err, "%s under %s", flags, tt.level)
			}
		}
	}
}
