// Copyright 2025 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Well known SNMP ports.
const (
	AgentPort layers.UDPPort = 161
	TrapPort  layers.UDPPort = 162
)

// ErrNoUDPLayer is returned for captured packets that carry no UDP payload.
var ErrNoUDPLayer = errors.New("packet has no UDP layer")

// UDPPayload returns the UDP payload of a captured packet.
func UDPPayload(pkt gopacket.Packet) ([]byte, error) {
	if el := pkt.ErrorLayer(); el != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncated, el.Error())
	}
	l := pkt.Layer(layers.LayerTypeUDP)
	if l == nil {
		return nil, ErrNoUDPLayer
	}
	udp, ok := l.(*layers.UDP)
	if !ok {
		return nil, ErrNoUDPLayer
	}
	return udp.Payload, nil
}

// IsSNMP reports whether pkt is UDP to or from the agent or trap port.
func IsSNMP(pkt gopacket.Packet) bool {
	l := pkt.Layer(layers.LayerTypeUDP)
	if l == nil {
		return false
	}
	udp, ok := l.(*layers.UDP)
	if !ok {
		return false
	}
	for _, p := range []layers.UDPPort{udp.SrcPort, udp.DstPort} {
		if p == AgentPort || p == TrapPort {
			return true
		}
	}
	return false
}

// DecodePacket decodes the SNMP message carried by a captured packet.
func (c *Codec) DecodePacket(pkt gopacket.Packet, sec *SecurityContext) (*Pdu, error) {
	payload, err := UDPPayload(pkt)
	if err != nil {
		return nil, err
	}
	c.Logger.Printf("DecodePacket: %d byte UDP payload", len(payload))
	return c.Decode(payload, sec)
}

// DecodeFrame decodes an SNMP message from raw link-layer bytes, starting
// with the given first layer (layers.LayerTypeEthernet for most captures).
func (c *Codec) DecodeFrame(data []byte, first gopacket.LayerType, sec *SecurityContext) (*Pdu, error) {
	pkt := gopacket.NewPacket(data, first, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	return c.DecodePacket(pkt, sec)
}
