// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OID is an object identifier as its sequence of sub-identifiers.
type OID []uint32

// ParseOID parses dotted notation, with or without a leading dot.
func ParseOID(s string) (OID, error) {
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return nil, ErrEmptyOID
	}
	parts := strings.Split(s, ".")
	oid := make(OID, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("oid %q: arc %d: %w", s, i, err)
		}
		oid[i] = uint32(v)
	}
	return oid, nil
}

// MustParseOID is ParseOID for constants. It panics on error.
func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

// String formats the OID with a leading dot, e.g. ".1.3.6.1.2.1.1.1.0".
func (o OID) String() string {
	var sb strings.Builder
	for _, arc := range o {
		sb.WriteByte('.')
		sb.WriteString(strconv.FormatUint(uint64(arc), 10))
	}
	return sb.String()
}

// Equal reports whether o and p have the same arcs.
func (o OID) Equal(p OID) bool {
	if len(o) != len(p) {
		return false
	}
	for i := range o {
		if o[i] != p[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether o lies under prefix.
func (o OID) HasPrefix(prefix OID) bool {
	return len(o) >= len(prefix) && o[:len(prefix)].Equal(prefix)
}

// marshalOID returns the contents octets of an OBJECT IDENTIFIER. The first
// two arcs share one sub-identifier, 40*a+b.
func marshalOID(oid OID) ([]byte, error) {
	switch {
	case len(oid) == 0:
		return nil, ErrEmptyOID
	case len(oid) == 1:
		return nil, fmt.Errorf("%w: %s has a single arc", ErrValueType, oid)
	case oid[0] > 2 || (oid[0] < 2 && oid[1] >= 40) || oid[1] > math.MaxUint32-80:
		return nil, fmt.Errorf("%w: %s has invalid leading arcs", ErrValueType, oid)
	}

	out := new(bytes.Buffer)
	if err := marshalBase128Int(out, uint64(oid[0])*40+uint64(oid[1])); err != nil {
		return nil, err
	}
	for _, arc := range oid[2:] {
		if err := marshalBase128Int(out, uint64(arc)); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

// parseOID is the inverse of marshalOID.
func parseOID(b []byte) (OID, error) {
	if len(b) == 0 {
		return nil, ErrEmptyOID
	}

	// In the worst case, we get two elements from the first byte (which is
	// encoded differently) and then every varint is a single byte long.
	oid := make(OID, 0, len(b)+1)

	v, offset, err := parseBase128Int(b, 0)
	if err != nil {
		return nil, err
	}
	switch {
	case v < 40:
		oid = append(oid, 0, uint32(v))
	case v < 80:
		oid = append(oid, 1, uint32(v-40))
	default:
		// every value from 80 up belongs to arc 2
		oid = append(oid, 2, uint32(v-80))
	}

	for offset < len(b) {
		v, offset, err = parseBase128Int(b, offset)
		if err != nil {
			return nil, err
		}
		oid = append(oid, uint32(v))
	}
	return oid, nil
}
