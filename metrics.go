package simnet

//
// Metrics observer: a passive sink invoked by the kernel, links, and
// flows. Must never influence simulation outcomes (spec §4.6, §7).
//

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the passive observer interface. Every method is a pure
// append: implementations must not return a value the simulation could
// branch on, and must not block or fail the caller.
type Metrics interface {
	// RecordBufferOccupancy records a link's queue occupancy, in packets,
	// at virtual time t.
	RecordBufferOccupancy(linkID string, nPackets int, t float64)

	// RecordPacketLoss records a dropped packet on linkID at virtual time t.
	RecordPacketLoss(linkID string, t float64)

	// RecordLinkRate records bitsDelivered leaving linkID at virtual time t.
	RecordLinkRate(linkID string, bitsDelivered int64, t float64)

	// RecordFlowRate records bitsSent emitted by flowID at virtual time t.
	RecordFlowRate(flowID string, bitsSent int64, t float64)

	// RecordWindowSize records flowID's current congestion window at
	// virtual time t.
	RecordWindowSize(flowID string, w float64, t float64)

	// RecordRTT records an observed round-trip time for flowID at virtual
	// time t.
	RecordRTT(flowID string, rtt float64, t float64)
}

// NullMetrics discards every sample. Used when the caller does not care
// about metrics, or in unit tests that only exercise the state machine.
type NullMetrics struct{}

// NewNullMetrics creates a [NullMetrics].
func NewNullMetrics() *NullMetrics {
	return &NullMetrics{}
}

func (m *NullMetrics) RecordBufferOccupancy(linkID string, nPackets int, t float64) {}
func (m *NullMetrics) RecordPacketLoss(linkID string, t float64)                     {}
func (m *NullMetrics) RecordLinkRate(linkID string, bitsDelivered int64, t float64)  {}
func (m *NullMetrics) RecordFlowRate(flowID string, bitsSent int64, t float64)       {}
func (m *NullMetrics) RecordWindowSize(flowID string, w float64, t float64)          {}
func (m *NullMetrics) RecordRTT(flowID string, rtt float64, t float64)               {}

var _ Metrics = &NullMetrics{}

// sample is one (value, virtual-time) pair. PrometheusMetrics keeps the
// raw series in memory (so cmd/simnet can print an end-of-run per-flow
// summary, see SPEC_FULL.md §C) in addition to exposing Prometheus
// collectors for live scraping.
type sample struct {
	t     float64
	value float64
}

// PrometheusMetrics is a [Metrics] backed by github.com/prometheus/client_golang
// collectors, grounded on the way runZeroInc-sockstats and grimm-is-flywall
// register gauges/counters/histograms for live samples. Every recorded
// sample also gets appended to an in-memory series so a summary can be
// computed after a run without scraping the registry.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	bufferOccupancy *prometheus.GaugeVec
	packetLoss      *prometheus.CounterVec
	linkRate        *prometheus.CounterVec
	flowRate        *prometheus.CounterVec
	windowSize      *prometheus.GaugeVec
	rtt             *prometheus.HistogramVec

	windowSeries map[string][]sample
	rttSeries    map[string][]sample
	flowBytes    map[string]int64
}

// NewPrometheusMetrics creates a [PrometheusMetrics] registered in a
// fresh [prometheus.Registry].
func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		bufferOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "simnet",
			Name:      "link_buffer_packets",
			Help:      "Number of packets queued on a link.",
		}, []string{"link_id"}),
		packetLoss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simnet",
			Name:      "link_packet_loss_total",
			Help:      "Number of packets dropped on a link due to buffer overflow.",
		}, []string{"link_id"}),
		linkRate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simnet",
			Name:      "link_bits_delivered_total",
			Help:      "Total bits delivered over a link.",
		}, []string{"link_id"}),
		flowRate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simnet",
			Name:      "flow_bits_sent_total",
			Help:      "Total bits sent by a flow.",
		}, []string{"flow_id"}),
		windowSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "simnet",
			Name:      "flow_window_packets",
			Help:      "Current congestion window, in packets.",
		}, []string{"flow_id"}),
		rtt: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "simnet",
			Name:      "flow_rtt_seconds",
			Help:      "Observed round-trip time, in virtual seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"flow_id"}),
		windowSeries: map[string][]sample{},
		rttSeries:    map[string][]sample{},
		flowBytes:    map[string]int64{},
	}
	m.registry.MustRegister(m.bufferOccupancy, m.packetLoss, m.linkRate, m.flowRate, m.windowSize, m.rtt)
	return m
}

// Registry exposes the underlying [prometheus.Registry], e.g. to serve it
// over HTTP with promhttp.HandlerFor.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMetrics) RecordBufferOccupancy(linkID string, nPackets int, t float64) {
	m.bufferOccupancy.WithLabelValues(linkID).Set(float64(nPackets))
}

func (m *PrometheusMetrics) RecordPacketLoss(linkID string, t float64) {
	m.packetLoss.WithLabelValues(linkID).Inc()
}

func (m *PrometheusMetrics) RecordLinkRate(linkID string, bitsDelivered int64, t float64) {
	m.linkRate.WithLabelValues(linkID).Add(float64(bitsDelivered))
}

func (m *PrometheusMetrics) RecordFlowRate(flowID string, bitsSent int64, t float64) {
	m.flowRate.WithLabelValues(flowID).Add(float64(bitsSent))
	m.flowBytes[flowID] += bitsSent
}

func (m *PrometheusMetrics) RecordWindowSize(flowID string, w float64, t float64) {
	m.windowSize.WithLabelValues(flowID).Set(w)
	m.windowSeries[flowID] = append(m.windowSeries[flowID], sample{t: t, value: w})
}

func (m *PrometheusMetrics) RecordRTT(flowID string, rtt float64, t float64) {
	m.rtt.WithLabelValues(flowID).Observe(rtt)
	m.rttSeries[flowID] = append(m.rttSeries[flowID], sample{t: t, value: rtt})
}

// FlowSummary is an end-of-run summary for one flow, in the spirit of the
// original implementation's datametrics.py end-of-run averages (see
// SPEC_FULL.md §C).
type FlowSummary struct {
	FlowID        string
	BitsSent      int64
	AverageWindow float64
	AverageRTT    float64
	Samples       int
}

// Summaries computes a [FlowSummary] per flow that has recorded at least
// one window-size sample.
func (m *PrometheusMetrics) Summaries() []FlowSummary {
	out := make([]FlowSummary, 0, len(m.windowSeries))
	for flowID, series := range m.windowSeries {
		var windowSum float64
		for _, s := range series {
			windowSum += s.value
		}
		var rttSum float64
		rttSeries := m.rttSeries[flowID]
		for _, s := range rttSeries {
			rttSum += s.value
		}
		summary := FlowSummary{
			FlowID:   flowID,
			BitsSent: m.flowBytes[flowID],
			Samples:  len(series),
		}
		if len(series) > 0 {
			summary.AverageWindow = windowSum / float64(len(series))
		}
		if len(rttSeries) > 0 {
			summary.AverageRTT = rttSum / float64(len(rttSeries))
		}
		out = append(out, summary)
	}
	return out
}

var _ Metrics = &PrometheusMetrics{}
