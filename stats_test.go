// Copyright 2025 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortenCiphertext drops the last byte of the encryptedPDU of an authPriv
// message and re-signs it, leaving a message that authenticates but cannot
// be decrypted.
func shortenCiphertext(t *testing.T, msg []byte, sec *SecurityContext) []byte {
	t.Helper()
	pdu, bodyLen, err := ParseHeader(msg)
	require.NoError(t, err)
	start := len(msg) - bodyLen

	r := NewReadBuffer(msg[start:])
	ct, err := r.ExpectTagged(byte(OctetString))
	require.NoError(t, err)

	out := append([]byte(nil), msg[:start]...)
	l, err := marshalLength(len(ct) - 1)
	require.NoError(t, err)
	out = append(out, byte(OctetString))
	out = append(out, l...)
	out = append(out, ct[:len(ct)-1]...)

	// outer length slot
	n := len(out) - 5
	out[2], out[3], out[4] = byte(n>>16), byte(n>>8), byte(n)

	authOff := bytes.Index(out, pdu.Usm().AuthParameters)
	require.Positive(t, authOff)
	d, err := sec.ComputeDigest(out)
	require.NoError(t, err)
	copy(out[authOff:], d)
	return out
}

func TestShortenedCiphertext(t *testing.T) {
	sec := testSecurity(SHA, DES)
	msg, err := Encode(&Pdu{Security: testUsm(AuthPriv), PDUType: GetRequest, Variables: testVariables()}, sec)
	require.NoError(t, err)

	_, err = Decode(shortenCiphertext(t, msg, sec), sec)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestStats(t *testing.T) {
	s := NewStats()
	c := &Codec{Stats: s}
	auth := testSecurity(SHA, NoPriv)
	priv := testSecurity(SHA, DES)

	v2c, err := c.Encode(&Pdu{Security: CommunityV2c("public"), PDUType: GetRequest}, nil)
	require.NoError(t, err)
	authMsg, err := c.Encode(&Pdu{Security: testUsm(AuthNoPriv), PDUType: GetRequest}, auth)
	require.NoError(t, err)
	privMsg, err := c.Encode(&Pdu{Security: testUsm(AuthPriv), PDUType: GetRequest, Variables: testVariables()}, priv)
	require.NoError(t, err)
	_, err = c.Encode(nil, nil)
	require.Error(t, err)

	_, err = c.Decode(v2c, nil)
	require.NoError(t, err)
	_, err = c.Decode(authMsg, auth)
	require.NoError(t, err)
	_, err = c.Decode(authMsg, testSecurity(MD5, NoPriv))
	require.ErrorIs(t, err, ErrWrongDigest)
	_, err = c.Decode(authMsg, nil)
	require.ErrorIs(t, err, ErrUnknownSecurityLevel)
	_, err = c.Decode(shortenCiphertext(t, privMsg, priv), priv)
	require.ErrorIs(t, err, ErrDecryption)
	_, err = c.Decode(v2c[:10], nil)
	require.ErrorIs(t, err, ErrTruncated)
	_, err = c.Decode([]byte{0x30, 0x03, 0x02, 0x01, 0x02}, nil)
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	expected := `
# HELP snmpcodec_messages_encoded_total Messages encoded successfully.
# TYPE snmpcodec_messages_encoded_total counter
snmpcodec_messages_encoded_total 3
# HELP snmpcodec_encode_errors_total Messages that failed to encode.
# TYPE snmpcodec_encode_errors_total counter
snmpcodec_encode_errors_total 1
# HELP snmpcodec_messages_decoded_total Messages decoded successfully.
# TYPE snmpcodec_messages_decoded_total counter
snmpcodec_messages_decoded_total 2
# HELP snmpcodec_usm_stats_wrong_digests_total Messages dropped because the digest did not verify (usmStatsWrongDigests).
# TYPE snmpcodec_usm_stats_wrong_digests_total counter
snmpcodec_usm_stats_wrong_digests_total 1
# HELP snmpcodec_usm_stats_decryption_errors_total Messages dropped because they could not be decrypted (usmStatsDecryptionErrors).
# TYPE snmpcodec_usm_stats_decryption_errors_total counter
snmpcodec_usm_stats_decryption_errors_total 1
# HELP snmpcodec_usm_stats_unsupported_security_levels_total Messages dropped for a security level the context cannot serve (usmStatsUnsupportedSecLevels).
# TYPE snmpcodec_usm_stats_unsupported_security_levels_total counter
snmpcodec_usm_stats_unsupported_security_levels_total 1
# HELP snmpcodec_parse_errors_total Messages that failed to parse, by error kind.
# TYPE snmpcodec_parse_errors_total counter
snmpcodec_parse_errors_total{kind="empty_oid"} 0
snmpcodec_parse_errors_total{kind="malformed_length"} 0
snmpcodec_parse_errors_total{kind="malformed_tag"} 0
snmpcodec_parse_errors_total{kind="other"} 0
snmpcodec_parse_errors_total{kind="too_large"} 0
snmpcodec_parse_errors_total{kind="truncated"} 1
snmpcodec_parse_errors_total{kind="unknown_security_models"} 0
snmpcodec_parse_errors_total{kind="unknown_value_tag"} 0
snmpcodec_parse_errors_total{kind="unsupported_version"} 1
`
	require.NoError(t, testutil.CollectAndCompare(s, strings.NewReader(expected)))
}

func TestStatsRegister(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewStats()))
	assert.Equal(t, 15, testutil.CollectAndCount(NewStats()))

	problems, err := testutil.CollectAndLint(NewStats())
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestNilStats(t *testing.T) {
	c := &Codec{}
	msg, err := c.Encode(&Pdu{Security: CommunityV1("public"), PDUType: GetRequest}, nil)
	require.NoError(t, err)
	_, err = c.Decode(msg, nil)
	assert.NoError(t, err)
}
