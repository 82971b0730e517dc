// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"errors"
	"fmt"
	"net"
)

// VarBind is a single variable binding: a name and a typed value.
//
// The Go type of Value depends on Type:
//
//	Integer                                  int
//	OctetString, Opaque                      []byte
//	Null                                     nil
//	ObjectIdentifier                         OID
//	IPAddress                                net.IP
//	Counter32, Gauge32, TimeTicks            uint32
//	Counter64                                uint64
//	NoSuchObject, NoSuchInstance, EndOfMibView nil
//
// Encoding also accepts int32 for Integer, string for OctetString and
// Opaque, and uint for the 32 bit unsigned kinds. An IPv4 address is always
// sent as 4 bytes, so a 16 byte IPv4-mapped net.IP decodes as its 4 byte
// form.
type VarBind struct {
	Name  OID
	Type  Asn1BER
	Value any
}

// EncodeBinding appends vb as SEQUENCE { name, value }.
func EncodeBinding(w *WireBuffer, vb VarBind) error {
	oid, err := marshalOID(vb.Name)
	if err != nil {
		return fmt.Errorf("binding %s: %w", vb.Name, err)
	}
	content, err := marshalValue(vb)
	if err != nil {
		return fmt.Errorf("binding %s: %w", vb.Name, err)
	}

	slot, err := w.OpenTagged(byte(Sequence))
	if err != nil {
		return err
	}
	if err = w.WriteTagged(byte(ObjectIdentifier), oid); err != nil {
		return err
	}
	if err = w.WriteTagged(byte(vb.Type), content); err != nil {
		return err
	}
	return w.Resolve(slot)
}

func marshalValue(vb VarBind) ([]byte, error) {
	switch vb.Type {
	case Integer:
		switch v := vb.Value.(type) {
		case int:
			return marshalInt32(v)
		case int32:
			return marshalInt32(int(v))
		}

	case OctetString, Opaque:
		switch v := vb.Value.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}

	case Null, NoSuchObject, NoSuchInstance, EndOfMibView:
		if vb.Value == nil {
			return nil, nil
		}

	case ObjectIdentifier:
		if v, ok := vb.Value.(OID); ok {
			return marshalOID(v)
		}

	case IPAddress:
		if v, ok := vb.Value.(net.IP); ok {
			if ip4 := v.To4(); ip4 != nil {
				return []byte(ip4), nil
			}
			if len(v) == net.IPv6len {
				return []byte(v), nil
			}
			return nil, fmt.Errorf("%w: invalid IPAddress %v", ErrValueType, v)
		}

	case Counter32, Gauge32, TimeTicks:
		switch v := vb.Value.(type) {
		case uint32:
			return marshalUint64(uint64(v)), nil
		case uint:
			if uint64(v) > 1<<32-1 {
				return nil, fmt.Errorf("%w: %d overflows %s", ErrValueType, v, vb.Type)
			}
			return marshalUint64(uint64(v)), nil
		}

	case Counter64:
		if v, ok := vb.Value.(uint64); ok {
			return marshalUint64(v), nil
		}

	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrUnknownValueTag, vb.Type)
	}
	return nil, fmt.Errorf("%w: %T for %s", ErrValueType, vb.Value, vb.Type)
}

// DecodeBinding consumes one binding from r.
//
// If the value carries an unknown tag the whole binding is still consumed
// and a *ValueTagError is returned, so the caller can decide to skip it.
func DecodeBinding(r *WireBuffer) (VarBind, error) {
	content, err := r.ExpectTagged(byte(Sequence))
	if err != nil {
		return VarBind{}, fmt.Errorf("binding: %w", err)
	}
	sub := NewReadBuffer(content)

	oidBytes, err := sub.ExpectTagged(byte(ObjectIdentifier))
	if err != nil {
		return VarBind{}, fmt.Errorf("binding name: %w", err)
	}
	name, err := parseOID(oidBytes)
	if err != nil {
		return VarBind{}, fmt.Errorf("binding name: %w", err)
	}

	tag, raw, err := sub.ReadTagged()
	if err != nil {
		return VarBind{}, fmt.Errorf("binding %s: %w", name, err)
	}
	if sub.Remaining() != 0 {
		return VarBind{}, fmt.Errorf("%w: %d trailing bytes in binding %s", ErrMalformedLength, sub.Remaining(), name)
	}

	vb := VarBind{Name: name, Type: Asn1BER(tag)}
	if vb.Value, err = unmarshalValue(vb.Type, raw); err != nil {
		if errors.Is(err, ErrUnknownValueTag) {
			return vb, &ValueTagError{Name: name, Tag: tag, Raw: append([]byte(nil), raw...)}
		}
		return vb, fmt.Errorf("binding %s: %w", name, err)
	}
	return vb, nil
}

func unmarshalValue(t Asn1BER, raw []byte) (any, error) {
	switch t {
	case Integer:
		v, err := parseInt32(raw)
		if err != nil {
			return nil, err
		}
		return int(v), nil

	case OctetString, Opaque:
		return append([]byte{}, raw...), nil

	case Null, NoSuchObject, NoSuchInstance, EndOfMibView:
		if len(raw) != 0 {
			return nil, fmt.Errorf("%w: %s with %d content bytes", ErrMalformedLength, t, len(raw))
		}
		return nil, nil

	case ObjectIdentifier:
		return parseOID(raw)

	case IPAddress:
		switch len(raw) {
		case 0:
			// some agents send a zero length IpAddress
			return nil, nil
		case net.IPv4len, net.IPv6len:
			return net.IP(append([]byte{}, raw...)), nil
		}
		return nil, fmt.Errorf("%w: IPAddress of %d bytes", ErrMalformedLength, len(raw))

	case Counter32, Gauge32, TimeTicks:
		return parseUint32(raw)

	case Counter64:
		return parseUint64(raw)
	}
	return nil, ErrUnknownValueTag
}
