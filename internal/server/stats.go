package server

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jroosing/triedns/internal/resolvers"
)

// Reasons a datagram is dropped without a reply.
const (
	DropAccessDenied = "access_denied"
	DropRateLimited  = "rate_limited"
	DropOverloaded   = "overloaded"
	DropNotQuery     = "not_query"
	DropDecode       = "decode_error"
	DropForward      = "forward_error"
	DropEncode       = "encode_error"
	DropTimeout      = "timeout"
	DropResolve      = "resolve_error"
)

var dropReasons = []string{
	DropAccessDenied, DropRateLimited, DropOverloaded, DropNotQuery,
	DropDecode, DropForward, DropEncode, DropTimeout, DropResolve,
}

// Stats collects dispatcher statistics. Counters are kept twice: as atomics
// for Snapshot and as Prometheus collectors on a private registry.
// All methods are safe for concurrent use and on a nil receiver.
type Stats struct {
	started time.Time

	queriesTotal   atomic.Uint64
	responsesTotal atomic.Uint64
	responsesZone  atomic.Uint64
	responsesUp    atomic.Uint64
	droppedTotal   atomic.Uint64
	truncatedTotal atomic.Uint64
	latencyTotalNs atomic.Uint64
	dropped        map[string]*atomic.Uint64 // fixed key set, read-only after NewStats

	registry  *prometheus.Registry
	queries   prometheus.Counter
	responses *prometheus.CounterVec
	drops     *prometheus.CounterVec
	truncated prometheus.Counter
	latency   prometheus.Histogram
}

// NewStats creates a statistics collector with its own Prometheus registry.
func NewStats() *Stats {
	s := &Stats{
		started: time.Now(),
		dropped: make(map[string]*atomic.Uint64, len(dropReasons)),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "triedns",
			Name:      "queries_total",
			Help:      "Datagrams admitted for processing.",
		}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triedns",
			Name:      "responses_total",
			Help:      "Responses sent, by answer source.",
		}, []string{"source"}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triedns",
			Name:      "dropped_total",
			Help:      "Datagrams dropped without a reply, by reason.",
		}, []string{"reason"}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "triedns",
			Name:      "truncated_total",
			Help:      "Local responses cut to the UDP size limit with TC set.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triedns",
			Name:      "response_duration_seconds",
			Help:      "Time from decode to response.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	for _, r := range dropReasons {
		s.dropped[r] = new(atomic.Uint64)
	}

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(s.queries, s.responses, s.drops, s.truncated, s.latency)
	return s
}

// Registry returns the registry holding the dispatcher collectors.
func (s *Stats) Registry() *prometheus.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

// RecordQuery records an admitted datagram.
func (s *Stats) RecordQuery() {
	if s == nil {
		return
	}
	s.queriesTotal.Add(1)
	s.queries.Inc()
}

// RecordResponse records a sent response and its latency.
func (s *Stats) RecordResponse(source string, d time.Duration) {
	if s == nil {
		return
	}
	s.responsesTotal.Add(1)
	switch source {
	case resolvers.SourceZone:
		s.responsesZone.Add(1)
	case resolvers.SourceUpstream:
		s.responsesUp.Add(1)
	}
	if d > 0 {
		s.latencyTotalNs.Add(uint64(d.Nanoseconds()))
	}
	s.responses.WithLabelValues(source).Inc()
	s.latency.Observe(d.Seconds())
}

// RecordDrop records a datagram dropped for reason (one of the Drop constants).
func (s *Stats) RecordDrop(reason string) {
	if s == nil {
		return
	}
	s.droppedTotal.Add(1)
	if c, ok := s.dropped[reason]; ok {
		c.Add(1)
	}
	s.drops.WithLabelValues(reason).Inc()
}

// RecordTruncated records a response sent with TC set.
func (s *Stats) RecordTruncated() {
	if s == nil {
		return
	}
	s.truncatedTotal.Add(1)
	s.truncated.Inc()
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Uptime            time.Duration
	QueriesTotal      uint64
	ResponsesTotal    uint64
	ResponsesZone     uint64
	ResponsesUpstream uint64
	DroppedTotal      uint64
	TruncatedTotal    uint64
	Dropped           map[string]uint64
	AvgLatencyMs      float64
}

// Snapshot returns the current statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	responses := s.responsesTotal.Load()
	latencyNs := s.latencyTotalNs.Load()

	avgLatencyMs := 0.0
	if responses > 0 {
		avgLatencyMs = float64(latencyNs) / float64(responses) / 1e6
	}

	dropped := make(map[string]uint64, len(s.dropped))
	for r, c := range s.dropped {
		dropped[r] = c.Load()
	}

	return StatsSnapshot{
		Uptime:            time.Since(s.started),
		QueriesTotal:      s.queriesTotal.Load(),
		ResponsesTotal:    responses,
		ResponsesZone:     s.responsesZone.Load(),
		ResponsesUpstream: s.responsesUp.Load(),
		DroppedTotal:      s.droppedTotal.Load(),
		TruncatedTotal:    s.truncatedTotal.Load(),
		Dropped:           dropped,
		AvgLatencyMs:      avgLatencyMs,
	}
}
