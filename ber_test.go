// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

var testsMarshalLength = []struct {
	length   int
	expected []byte
}{
	{0, []byte{0x00}},
	{1, []byte{0x01}},
	{127, []byte{0x7f}},
	{128, []byte{0x81, 0x80}},
	{129, []byte{0x81, 0x81}},
	{256, []byte{0x82, 0x01, 0x00}},
	{272, []byte{0x82, 0x01, 0x10}},
	{435, []byte{0x82, 0x01, 0xb3}},
	{1 << 24, []byte{0x84, 0x01, 0x00, 0x00, 0x00}},
}

func TestMarshalLength(t *testing.T) {
	for i, test := range testsMarshalLength {
		testBytes, err := marshalLength(test.length)
		if err != nil {
			t.Errorf("%d: length %d got err %v", i, test.length, err)
		}
		if !reflect.DeepEqual(testBytes, test.expected) {
			t.Errorf("%d: length %d got |%x| expected |%x|",
				i, test.length, testBytes, test.expected)
		}
	}
}

func TestMarshalLengthNegative(t *testing.T) {
	_, err := marshalLength(-1)
	assert.ErrorIs(t, err, ErrMalformedLength)
}

// -----------------------------------------------------------------------------

// TestParseLength tests BER length field parsing including edge cases
// identified from net-snmp's asn1.c implementation.
// References X.690 §8.1.3 for length encoding and RFC 3417 §8 for SNMP restrictions.
func TestParseLength(t *testing.T) {
	tests := []struct {
		name           string
		data           []byte
		expectedLength int
		expectedCursor int
		wantErr        error
	}{
		// Short-form encoding per X.690 §8.1.3.4 (length 0-127)
		{
			name:           "short_form_zero",
			data:           []byte{0x04, 0x00}, // type + length 0
			expectedLength: 2,
			expectedCursor: 2,
		},
		{
			name:           "short_form_small",
			data:           []byte{0x04, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05}, // type + length 5 + data
			expectedLength: 7,
			expectedCursor: 2,
		},
		{
			name:           "short_form_max",
			data:           append([]byte{0x04, 0x7f}, make([]byte, 127)...), // type + length 127 + data
			expectedLength: 129,
			expectedCursor: 2,
		},
		// Long-form encoding per X.690 §8.1.3.5 (1 length octet, 0x81)
		{
			name:           "long_form_1_octet_128",
			data:           append([]byte{0x04, 0x81, 0x80}, make([]byte, 128)...), // length 128
			expectedLength: 131,
			expectedCursor: 3,
		},
		{
			name:           "long_form_2_octets_1000",
			data:           append([]byte{0x04, 0x82, 0x03, 0xe8}, make([]byte, 1000)...), // length 1000
			expectedLength: 1004,
			expectedCursor: 4,
		},
		// Non-minimal long form, as written by a length slot
		{
			name:           "long_form_3_octets_non_minimal",
			data:           []byte{0x30, 0x83, 0x00, 0x00, 0x02, 0x05, 0x00},
			expectedLength: 7,
			expectedCursor: 5,
		},
		// Edge case: indefinite length encoding per X.690 §8.1.3.6 (0x80)
		// BER 0x80 means indefinite length. RFC 3417 §8 prohibits this in SNMP:
		// "only the definite form is used; use of the indefinite form encoding is prohibited"
		{
			name:    "indefinite_length_0x80",
			data:    []byte{0x30, 0x80, 0x00, 0x00}, // SEQUENCE with 0x80 (indefinite)
			wantErr: ErrMalformedLength,
		},
		// Edge case: buffer too short for long-form length octets
		{
			name:    "long_form_truncated_length_octets",
			data:    []byte{0x04, 0x82, 0x01}, // claims 2 length octets but only 1 present
			wantErr: ErrTruncated,
		},
		{
			name:    "tag_only",
			data:    []byte{0x04},
			wantErr: ErrTruncated,
		},
		// Length that would overflow int when shifted
		{
			name:    "overflow_8_octets_max",
			data:    []byte{0x04, 0x88, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			wantErr: ErrMalformedLength,
		},
		{
			name:    "five_length_octets",
			data:    []byte{0x04, 0x85, 0x00, 0x00, 0x00, 0x00, 0x01},
			wantErr: ErrMalformedLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			length, cursor, err := parseLength(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("parseLength() error = %v, want %v (length=%d, cursor=%d)", err, tt.wantErr, length, cursor)
				}
				return
			}
			if err != nil {
				t.Errorf("parseLength() unexpected error: %v", err)
				return
			}
			if length != tt.expectedLength {
				t.Errorf("parseLength() length = %d, want %d", length, tt.expectedLength)
			}
			if cursor != tt.expectedCursor {
				t.Errorf("parseLength() cursor = %d, want %d", cursor, tt.expectedCursor)
			}
		})
	}
}

// -----------------------------------------------------------------------------

var testsMarshalInt32 = []struct {
	value int
	out   []byte
}{
	{0, []byte{0x00}},
	{1, []byte{0x01}},
	{127, []byte{0x7f}},
	{128, []byte{0x00, 0x80}},
	{256, []byte{0x01, 0x00}},
	{-1, []byte{0xff}},
	{-128, []byte{0x80}},
	{-129, []byte{0xff, 0x7f}},
	{math.MaxInt32, []byte{0x7f, 0xff, 0xff, 0xff}},
	{math.MinInt32, []byte{0x80, 0x00, 0x00, 0x00}},
}

func TestMarshalInt32(t *testing.T) {
	for i, test := range testsMarshalInt32 {
		result, err := marshalInt32(test.value)
		require.NoError(t, err)
		if !bytes.Equal(result, test.out) {
			t.Errorf("#%d, %d: got %x expected %x", i, test.value, result, test.out)
		}

		back, err := parseInt32(result)
		require.NoError(t, err)
		assert.Equal(t, int32(test.value), back)
	}
}

func TestMarshalInt32Overflow(t *testing.T) {
	_, err := marshalInt32(math.MaxInt32 + 1)
	assert.ErrorIs(t, err, ErrValueType)
	_, err = marshalInt32(math.MinInt32 - 1)
	assert.ErrorIs(t, err, ErrValueType)
}

var testsMarshalUint64 = []struct {
	value uint64
	out   []byte
}{
	{0, []byte{0x00}},
	{127, []byte{0x7f}},
	{128, []byte{0x00, 0x80}},
	{1034156, []byte{0x0f, 0xc7, 0xac}},
	{math.MaxUint32, []byte{0x00, 0xff, 0xff, 0xff, 0xff}},
	{math.MaxUint64, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
}

func TestMarshalUint64(t *testing.T) {
	for i, test := range testsMarshalUint64 {
		result := marshalUint64(test.value)
		if !bytes.Equal(result, test.out) {
			t.Errorf("#%d, %d: got %x expected %x", i, test.value, result, test.out)
		}
		back, err := parseUint64(result)
		require.NoError(t, err)
		assert.Equal(t, test.value, back)
	}
}

func TestParseIntegerErrors(t *testing.T) {
	_, err := parseInt64(nil)
	assert.ErrorIs(t, err, ErrMalformedLength)
	_, err = parseInt64(make([]byte, 9))
	assert.ErrorIs(t, err, ErrMalformedLength)
	_, err = parseInt32([]byte{0x01, 0x00, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrMalformedLength)
	_, err = parseUint64([]byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrMalformedLength)
	_, err = parseUint32([]byte{0x01, 0x00, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrMalformedLength)
}

// -----------------------------------------------------------------------------

func TestBase128Int(t *testing.T) {
	for _, n := range []uint64{0, 1, 127, 128, 16383, 16384, math.MaxUint32} {
		var buf bytes.Buffer
		require.NoError(t, marshalBase128Int(&buf, n))
		out := buf.Bytes()
		for i, b := range out {
			if i == len(out)-1 {
				assert.Zero(t, b&0x80, "last byte of %d has continuation bit", n)
			} else {
				assert.NotZero(t, b&0x80, "byte %d of %d lacks continuation bit", i, n)
			}
		}
		v, off, err := parseBase128Int(out, 0)
		require.NoError(t, err)
		assert.Equal(t, n, v)
		assert.Equal(t, len(out), off)
	}
}

func TestParseBase128IntErrors(t *testing.T) {
	_, _, err := parseBase128Int([]byte{0x81, 0x80}, 0)
	assert.ErrorIs(t, err, ErrMalformedLength, "runs past the end")
	_, _, err = parseBase128Int([]byte{0x90, 0x80, 0x80, 0x80, 0x00}, 0)
	assert.ErrorIs(t, err, ErrMalformedLength, "overflows 32 bits")
	_, _, err = parseBase128Int([]byte{0x81, 0x80, 0x80, 0x80, 0x80, 0x00}, 0)
	assert.ErrorIs(t, err, ErrMalformedLength, "six groups")
}

// ---------------------------------------------------------------------

func TestSnmpVersionString(t *testing.T) {
	var versionStringTests = []struct {
		in  SnmpVersion
		out string
	}{
		{Version1, "1"},
		{Version2c, "2c"},
		{Version3, "3"},
	}

	for _, tt := range versionStringTests {
		t.Run(tt.out, func(t *testing.T) {
			result := tt.in.String()
			if result != tt.out {
				t.Errorf("SnmpVersion.String(): got %v, want %v", result, tt.out)
			}
		})
	}
}

func TestMsgFlagsString(t *testing.T) {
	assert.Equal(t, "NoAuthNoPriv", NoAuthNoPriv.String())
	assert.Equal(t, "AuthPriv|Reportable", (AuthPriv | Reportable).String())
	assert.Equal(t, "Reserved", Reserved.String())
	assert.Equal(t, AuthNoPriv, (AuthNoPriv | Reportable).SecurityLevel())
}
