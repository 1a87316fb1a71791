package simnet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrometheusMetricsSummaries(t *testing.T) {
	m := NewPrometheusMetrics()

	m.RecordWindowSize("F1", 2, 0)
	m.RecordWindowSize("F1", 4, 1)
	m.RecordRTT("F1", 0.1, 0)
	m.RecordRTT("F1", 0.3, 1)
	m.RecordFlowRate("F1", DataSizeBits, 0)
	m.RecordFlowRate("F1", DataSizeBits, 1)

	want := []FlowSummary{{
		FlowID:        "F1",
		BitsSent:      2 * DataSizeBits,
		AverageWindow: 3,
		AverageRTT:    0.2,
		Samples:       2,
	}}
	if diff := cmp.Diff(want, m.Summaries()); diff != "" {
		t.Fatalf("flow summaries (-want +got):\n%s", diff)
	}
}

func TestPrometheusMetricsSummariesEmptyWithNoSamples(t *testing.T) {
	m := NewPrometheusMetrics()
	if len(m.Summaries()) != 0 {
		t.Fatal("expected no summaries before any sample is recorded")
	}
}

func TestNullMetricsIsANoOp(t *testing.T) {
	m := NewNullMetrics()
	// these must not panic; there is nothing else to assert against a
	// pure no-op observer.
	m.RecordBufferOccupancy("L1", 1, 0)
	m.RecordPacketLoss("L1", 0)
	m.RecordLinkRate("L1", DataSizeBits, 0)
	m.RecordFlowRate("F1", DataSizeBits, 0)
	m.RecordWindowSize("F1", 1, 0)
	m.RecordRTT("F1", 0.1, 0)
}
