package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStageWindowSnapshot(t *testing.T) {
	w := newStageWindow(8)
	w.Observe(StageGatewayCall, 500*time.Millisecond)
	w.Observe(StageGatewayCall, 700*time.Millisecond)
	w.Observe(StageGatewayCall, 900*time.Millisecond)
	w.Mark("gateway_fallback")
	w.Mark("gateway_fallback")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageGatewayCall {
		t.Fatalf("Stage = %q, want %q", s.Stage, StageGatewayCall)
	}
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.LastMS != 900 {
		t.Fatalf("LastMS = %.2f, want 900", s.LastMS)
	}
	if s.P50MS != 700 {
		t.Fatalf("P50MS = %.2f, want 700", s.P50MS)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if s.TargetP95MS != 8000 {
		t.Fatalf("TargetP95MS = %.2f, want 8000", s.TargetP95MS)
	}
	if len(snap.Indicators) != 1 || snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators = %+v, want one gateway_fallback x2", snap.Indicators)
	}
}

func TestStageWindowWrapsAround(t *testing.T) {
	w := newStageWindow(2)
	for i := 1; i <= 5; i++ {
		w.Observe(StageTurnTotal, time.Duration(i)*time.Millisecond)
	}
	s := w.Snapshot().Stages[0]
	if s.Samples != 2 {
		t.Fatalf("Samples = %d, want 2", s.Samples)
	}
	if s.AvgMS != 4.5 {
		t.Fatalf("AvgMS = %.2f, want 4.5", s.AvgMS)
	}
}

func TestMetricsCountersUseRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.ObserveGatewayAttempt("mock", "retry")
	m.ObserveGatewayAttempt("mock", "retry")
	m.ObserveGatewayFallback("exhausted")

	if got := testutil.ToFloat64(m.GatewayAttempts.WithLabelValues("mock", "retry")); got != 2 {
		t.Fatalf("gateway attempts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.GatewayFallbacks.WithLabelValues("exhausted")); got != 1 {
		t.Fatalf("gateway fallbacks = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGatewayAttempt("mock", "success")
	m.ObserveStage(StageTurnTotal, time.Second)
	if snap := m.SnapshotStages(); len(snap.Stages) != 0 {
		t.Fatalf("nil metrics snapshot has stages: %+v", snap.Stages)
	}
}
