// Copyright 2026 The Voterium Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry exposes the engine's Prometheus metrics, following
// internal/ratelimiter/telemetry/churn's style: metrics are package-level,
// registered once in init, and every observer is a cheap no-label (or
// low-cardinality) call safe to make from a request-handling goroutine.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ballotsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voting_ballots_accepted_total",
		Help: "Total ballots durably written to the count and verification ledgers.",
	})
	ballotsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voting_ballots_rejected_total",
		Help: "Total ballots rejected before being written, labeled by error kind.",
	}, []string{"kind"})
	ledgerWriteLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "voting_ledger_write_seconds",
		Help:    "Latency of a single CL+VL append, as observed by the submitting handler.",
		Buckets: prometheus.DefBuckets,
	})
	ledgerQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "voting_ledger_queue_depth",
		Help: "Number of write requests currently buffered ahead of the ledger writer.",
	})
	tallySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "voting_tally_distinct_voters",
		Help: "Number of distinct voters known to the in-memory latest-vote index.",
	})
	bootstrapDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "voting_bootstrap_seconds",
		Help:    "Time spent replaying the count ledger at startup.",
		Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
	})
)

func init() {
	prometheus.MustRegister(ballotsAccepted, ballotsRejected, ledgerWriteLatency, ledgerQueueDepth, tallySize, bootstrapDuration)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveBallotAccepted records a ballot that was durably written.
func ObserveBallotAccepted() { ballotsAccepted.Inc() }

// ObserveBallotRejected records a ballot rejected with the given error kind
// (e.g. "BadInput", "Backpressure").
func ObserveBallotRejected(kind string) { ballotsRejected.WithLabelValues(kind).Inc() }

// ObserveLedgerWrite records how long a ledger append took.
func ObserveLedgerWrite(d time.Duration) { ledgerWriteLatency.Observe(d.Seconds()) }

// SetLedgerQueueDepth reports the writer's current channel backlog.
func SetLedgerQueueDepth(n int) { ledgerQueueDepth.Set(float64(n)) }

// SetTallySize reports the distinct-voter count after bootstrap and after
// each update the tally worker applies.
func SetTallySize(n int) { tallySize.Set(float64(n)) }

// ObserveBootstrap records how long startup replay of the count ledger took.
func ObserveBootstrap(d time.Duration) { bootstrapDuration.Observe(d.Seconds()) }
