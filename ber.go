// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snmpcodec

import (
	"fmt"
	"io"
	"math"
)

// -- helper functions (mostly) in alphabetical order --------------------------

// marshalBase128Int writes n as a base-128 sub-identifier: seven bits per
// byte, most significant group first, continuation bit on all but the last.
func marshalBase128Int(out io.ByteWriter, n uint64) error {
	if n == 0 {
		return out.WriteByte(0)
	}

	l := 0
	for i := n; i > 0; i >>= 7 {
		l++
	}

	for i := l - 1; i >= 0; i-- {
		o := byte(n >> uint(i*7))
		o &= 0x7f
		if i != 0 {
			o |= 0x80
		}
		if err := out.WriteByte(o); err != nil {
			return err
		}
	}
	return nil
}

// marshalInt64 builds the minimal two's complement big-endian form of v.
func marshalInt64(v int64) []byte {
	n := 1
	for i := v; i > 127 || i < -128; i >>= 8 {
		n++
	}
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// marshalInt32 builds a byte representation of a signed 32 bit int in BigEndian form
// ie -2^31 and 2^31-1 inclusive (-2147483648 to 2147483647 decimal)
func marshalInt32(value int) ([]byte, error) {
	if value < math.MinInt32 || value > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d overflows Integer32", ErrValueType, value)
	}
	return marshalInt64(int64(value)), nil
}

// marshalUint64 builds the minimal encoding of an unsigned value. A leading
// zero octet is added when the high bit would otherwise read as a sign.
func marshalUint64(v uint64) []byte {
	n := 1
	for i := v; i > 127; i >>= 8 {
		n++
	}
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// marshalLength builds a byte representation of length
//
// http://luca.ntop.org/Teaching/Appunti/asn1.html
//
// Length octets. There are two forms: short (for lengths between 0 and 127),
// and long definite (for lengths between 0 and 2^1008 -1).
//
//   - Short form. One octet. Bit 8 has value "0" and bits 7-1 give the length.
//   - Long form. Two to 127 octets. Bit 8 of first octet has value "1" and bits
//     7-1 give the number of additional length octets. Second and following
//     octets give the length, base 256, most significant digit first.
func marshalLength(length int) ([]byte, error) {
	// more convenient to pass length as int than uint64. Therefore check < 0
	if length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrMalformedLength, length)
	} else if length < 128 {
		return []byte{byte(length)}, nil
	}

	var octets []byte
	for l := length; l > 0; l >>= 8 {
		octets = append([]byte{byte(l)}, octets...)
	}
	if len(octets) > maxLengthOctets {
		return nil, fmt.Errorf("%w: length %d", ErrMessageTooLarge, length)
	}
	return append([]byte{byte(0x80 | len(octets))}, octets...), nil
}

// maxLengthOctets bounds the long form. SNMP messages never come close.
const maxLengthOctets = 4

// parseBase128Int parses a base-128 encoded sub-identifier from the given
// offset. It returns the value and the new offset.
func parseBase128Int(bytes []byte, initOffset int) (ret uint64, offset int, err error) {
	offset = initOffset
	for shifted := 0; offset < len(bytes); shifted++ {
		if shifted > 4 {
			return 0, offset, fmt.Errorf("%w: base 128 integer too large", ErrMalformedLength)
		}
		ret <<= 7
		b := bytes[offset]
		ret |= uint64(b & 0x7f)
		offset++
		if b&0x80 == 0 {
			if ret > math.MaxUint32 {
				return 0, offset, fmt.Errorf("%w: sub-identifier %d overflows 32 bits", ErrMalformedLength, ret)
			}
			return ret, offset, nil
		}
	}
	return 0, offset, fmt.Errorf("%w: base 128 integer runs past its element", ErrMalformedLength)
}

// parseInt64 treats the given bytes as a big-endian, signed integer and
// returns the result.
func parseInt64(bytes []byte) (ret int64, err error) {
	if len(bytes) == 0 {
		return 0, fmt.Errorf("%w: zero length INTEGER", ErrMalformedLength)
	}
	if len(bytes) > 8 {
		// We'll overflow an int64 in this case.
		return 0, fmt.Errorf("%w: integer too large", ErrMalformedLength)
	}
	for bytesRead := 0; bytesRead < len(bytes); bytesRead++ {
		ret <<= 8
		ret |= int64(bytes[bytesRead])
	}

	// Shift up and down in order to sign extend the result.
	ret <<= 64 - uint8(len(bytes))*8
	ret >>= 64 - uint8(len(bytes))*8
	return ret, nil
}

// parseInt32 parses an Integer32, the range of request-id, error-status and
// every INTEGER value binding.
func parseInt32(bytes []byte) (int32, error) {
	ret64, err := parseInt64(bytes)
	if err != nil {
		return 0, err
	}
	if ret64 < math.MinInt32 || ret64 > math.MaxInt32 {
		return 0, fmt.Errorf("%w: integer %d overflows 32 bits", ErrMalformedLength, ret64)
	}
	return int32(ret64), nil
}

// parseUint64 treats the given bytes as a big-endian, unsigned integer and returns
// the result.
func parseUint64(bytes []byte) (ret uint64, err error) {
	if len(bytes) == 0 {
		return 0, fmt.Errorf("%w: zero length INTEGER", ErrMalformedLength)
	}
	if len(bytes) > 9 || (len(bytes) > 8 && bytes[0] != 0x0) {
		// We'll overflow a uint64 in this case.
		return 0, fmt.Errorf("%w: integer too large", ErrMalformedLength)
	}
	for bytesRead := 0; bytesRead < len(bytes); bytesRead++ {
		ret <<= 8
		ret |= uint64(bytes[bytesRead])
	}
	return ret, nil
}

// parseUint32 parses the Counter32, Gauge32 and TimeTicks range.
func parseUint32(bytes []byte) (uint32, error) {
	ret, err := parseUint64(bytes)
	if err != nil {
		return 0, err
	}
	if ret > math.MaxUint32 {
		return 0, fmt.Errorf("%w: unsigned %d overflows 32 bits", ErrMalformedLength, ret)
	}
	return uint32(ret), nil
}

// parseLength parses the length octets of the element starting at bytes[0]
// (its tag). It returns the total size of the element - tag, length octets
// and contents - and the size of the header, i.e. where the contents start.
// Whether the contents are actually present is left to the caller.
//
// Only the definite form is accepted; RFC 3417 §8 prohibits the indefinite
// form in SNMP.
func parseLength(bytes []byte) (length int, cursor int, err error) {
	if len(bytes) < 2 {
		return 0, 0, fmt.Errorf("%w: need a tag and a length, have %d bytes", ErrTruncated, len(bytes))
	}
	if bytes[1] <= 127 {
		return int(bytes[1]) + 2, 2, nil
	}
	numOctets := int(bytes[1]) & 127
	if numOctets == 0 {
		return 0, 0, fmt.Errorf("%w: indefinite length not supported", ErrMalformedLength)
	}
	if numOctets > maxLengthOctets {
		return 0, 0, fmt.Errorf("%w: %d length octets", ErrMalformedLength, numOctets)
	}
	if len(bytes) < 2+numOctets {
		return 0, 0, fmt.Errorf("%w: length octets cut short", ErrTruncated)
	}
	for i := 0; i < numOctets; i++ {
		length <<= 8
		length += int(bytes[2+i])
	}
	return length + 2 + numOctets, 2 + numOctets, nil
}
