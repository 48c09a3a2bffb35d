// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package metrics holds the Prometheus collectors of the gossiping pipeline.
//
// A nil *Metrics is valid and records nothing, so services can be built
// without a registry in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "keygossip"

// Outcomes of an incoming key request.
const (
	OutcomeShared   = "shared"
	OutcomeWithheld = "withheld"
	OutcomeDropped  = "dropped"
)

// Results of a backup fallback attempt.
const (
	BackupRestored = "restored"
	BackupMissing  = "missing"
	BackupSkipped  = "skipped"
)

// Reasons a session cache flush happened.
const (
	FlushDebounce = "debounce"
	FlushEviction = "eviction"
	FlushExplicit = "explicit"
)

// Metrics is the set of collectors updated by the services.
type Metrics struct {
	outgoingSent     *prometheus.CounterVec
	outgoingFailures *prometheus.CounterVec
	incoming         *prometheus.CounterVec
	withheld         *prometheus.CounterVec
	backupAttempts   *prometheus.CounterVec
	keyQueries       *prometheus.CounterVec
	keyQueryDuration prometheus.Histogram
	cacheFlushes     *prometheus.CounterVec
	syncDuration     prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outgoingSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outgoing_key_requests_sent_total",
				Help:      "Number of room key request to-device messages sent",
			},
			[]string{"action"},
		),
		outgoingFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outgoing_key_requests_failed_total",
				Help:      "Number of room key request sends that failed after retries",
			},
			[]string{"action"},
		),
		incoming: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "incoming_key_requests_total",
				Help:      "Number of processed incoming room key requests by outcome",
			},
			[]string{"outcome"},
		),
		withheld: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "withheld_replies_total",
				Help:      "Number of m.room_key.withheld replies sent by code",
			},
			[]string{"code"},
		),
		backupAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backup_fallback_attempts_total",
				Help:      "Number of key backup lookups by result",
			},
			[]string{"result"},
		),
		keyQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "key_queries_total",
				Help:      "Number of /keys/query round trips",
			},
			[]string{"result"},
		),
		keyQueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "key_query_duration_seconds",
				Help:      "Duration of /keys/query round trips",
				Buckets:   prometheus.DefBuckets,
			},
		),
		cacheFlushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_cache_flushed_sessions_total",
				Help:      "Number of inbound sessions written back by the session cache",
			},
			[]string{"reason"},
		),
		syncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_processing_duration_seconds",
				Help:      "Time spent handling one sync response",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(
		m.outgoingSent,
		m.outgoingFailures,
		m.incoming,
		m.withheld,
		m.backupAttempts,
		m.keyQueries,
		m.keyQueryDuration,
		m.cacheFlushes,
		m.syncDuration,
	)

	return m
}

func (m *Metrics) OutgoingRequestSent(action string) {
	if m == nil {
		return
	}
	m.outgoingSent.WithLabelValues(action).Inc()
}

func (m *Metrics) OutgoingRequestFailed(action string) {
	if m == nil {
		return
	}
	m.outgoingFailures.WithLabelValues(action).Inc()
}

func (m *Metrics) IncomingRequest(outcome string) {
	if m == nil {
		return
	}
	m.incoming.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WithheldSent(code string) {
	if m == nil {
		return
	}
	m.withheld.WithLabelValues(code).Inc()
}

func (m *Metrics) BackupAttempt(result string) {
	if m == nil {
		return
	}
	m.backupAttempts.WithLabelValues(result).Inc()
}

// KeyQuery records one /keys/query round trip started at start.
func (m *Metrics) KeyQuery(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.keyQueries.WithLabelValues(result).Inc()
	m.keyQueryDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) SessionsFlushed(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheFlushes.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) SyncProcessed(start time.Time) {
	if m == nil {
		return
	}
	m.syncDuration.Observe(time.Since(start).Seconds())
}
