// Copyright 2025 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpcodec

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// parse error kinds, in the order of the parseErrors array
var parseErrorKinds = []struct {
	label string
	err   error
}{
	{"truncated", ErrTruncated},
	{"malformed_tag", ErrMalformedTag},
	{"malformed_length", ErrMalformedLength},
	{"empty_oid", ErrEmptyOID},
	{"unknown_value_tag", ErrUnknownValueTag},
	{"unsupported_version", ErrUnsupportedVersion},
	{"unknown_security_models", ErrUnknownSecurityModels},
	{"too_large", ErrMessageTooLarge},
	{"other", nil},
}

// Stats counts codec outcomes. The usm counters mirror the usmStats MIB
// objects of RFC 3414 so an agent can serve them. Stats implements
// prometheus.Collector and is safe for concurrent use. A Codec with a nil
// Stats counts nothing.
type Stats struct {
	encoded              atomic.Uint64
	encodeErrors         atomic.Uint64
	decoded              atomic.Uint64
	wrongDigests         atomic.Uint64
	decryptionErrors     atomic.Uint64
	unsupportedSecLevels atomic.Uint64
	parseErrors          [9]atomic.Uint64

	encodedTotal              *prometheus.Desc
	encodeErrorsTotal         *prometheus.Desc
	decodedTotal              *prometheus.Desc
	wrongDigestsTotal         *prometheus.Desc
	decryptionErrorsTotal     *prometheus.Desc
	unsupportedSecLevelsTotal *prometheus.Desc
	parseErrorsTotal          *prometheus.Desc
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{
		encodedTotal: prometheus.NewDesc(
			"snmpcodec_messages_encoded_total",
			"Messages encoded successfully.",
			nil, nil,
		),
		encodeErrorsTotal: prometheus.NewDesc(
			"snmpcodec_encode_errors_total",
			"Messages that failed to encode.",
			nil, nil,
		),
		decodedTotal: prometheus.NewDesc(
			"snmpcodec_messages_decoded_total",
			"Messages decoded successfully.",
			nil, nil,
		),
		wrongDigestsTotal: prometheus.NewDesc(
			"snmpcodec_usm_stats_wrong_digests_total",
			"Messages dropped because the digest did not verify (usmStatsWrongDigests).",
			nil, nil,
		),
		decryptionErrorsTotal: prometheus.NewDesc(
			"snmpcodec_usm_stats_decryption_errors_total",
			"Messages dropped because they could not be decrypted (usmStatsDecryptionErrors).",
			nil, nil,
		),
		unsupportedSecLevelsTotal: prometheus.NewDesc(
			"snmpcodec_usm_stats_unsupported_security_levels_total",
			"Messages dropped for a security level the context cannot serve (usmStatsUnsupportedSecLevels).",
			nil, nil,
		),
		parseErrorsTotal: prometheus.NewDesc(
			"snmpcodec_parse_errors_total",
			"Messages that failed to parse, by error kind.",
			[]string{"kind"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (s *Stats) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.encodedTotal
	ch <- s.encodeErrorsTotal
	ch <- s.decodedTotal
	ch <- s.wrongDigestsTotal
	ch <- s.decryptionErrorsTotal
	ch <- s.unsupportedSecLevelsTotal
	ch <- s.parseErrorsTotal
}

// Collect implements prometheus.Collector.
func (s *Stats) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v *atomic.Uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v.Load()), labels...)
	}
	counter(s.encodedTotal, &s.encoded)
	counter(s.encodeErrorsTotal, &s.encodeErrors)
	counter(s.decodedTotal, &s.decoded)
	counter(s.wrongDigestsTotal, &s.wrongDigests)
	counter(s.decryptionErrorsTotal, &s.decryptionErrors)
	counter(s.unsupportedSecLevelsTotal, &s.unsupportedSecLevels)
	for i, k := range parseErrorKinds {
		counter(s.parseErrorsTotal, &s.parseErrors[i], k.label)
	}
}

func (s *Stats) observeEncode(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.encodeErrors.Add(1)
		return
	}
	s.encoded.Add(1)
}

func (s *Stats) observeDecode(err error) {
	if s == nil {
		return
	}
	switch {
	case err == nil:
		s.decoded.Add(1)
	case errors.Is(err, ErrWrongDigest):
		s.wrongDigests.Add(1)
	case errors.Is(err, ErrDecryption):
		s.decryptionErrors.Add(1)
	case errors.Is(err, ErrUnknownSecurityLevel):
		s.unsupportedSecLevels.Add(1)
	default:
		for i, k := range parseErrorKinds {
			if k.err == nil || errors.Is(err, k.err) {
				s.parseErrors[i].Add(1)
				return
			}
		}
	}
}
