package metrics

import (
	"testing"
	"time"
)

func TestNew_StartTimeSet(t *testing.T) {
	before := time.Now()
	m := New()
	after := time.Now()

	if m.startTime.Before(before) || m.startTime.After(after) {
		t.Errorf("startTime %v not in expected range [%v, %v]", m.startTime, before, after)
	}
}

func TestZeroValue_SnapshotSafe(t *testing.T) {
	var m Metrics
	s := m.Snapshot()
	if s.Calls.Sanitize != 0 {
		t.Errorf("expected 0 sanitize calls, got %d", s.Calls.Sanitize)
	}
}

func TestCallCounters(t *testing.T) {
	m := New()
	m.SanitizeCalls.Add(10)
	m.AnalyzeCalls.Add(4)

	s := m.Snapshot()
	if s.Calls.Sanitize != 10 {
		t.Errorf("Sanitize: got %d, want 10", s.Calls.Sanitize)
	}
	if s.Calls.Analyze != 4 {
		t.Errorf("Analyze: got %d, want 4", s.Calls.Analyze)
	}
}

func TestErrorCounters(t *testing.T) {
	m := New()
	m.CompileErrors.Add(3)
	m.AuditErrors.Add(2)

	s := m.Snapshot()
	if s.Errors.Compile != 3 {
		t.Errorf("Compile errors: got %d, want 3", s.Errors.Compile)
	}
	if s.Errors.Audit != 2 {
		t.Errorf("Audit errors: got %d, want 2", s.Errors.Audit)
	}
}

func TestMatchCounters(t *testing.T) {
	m := New()
	m.MatchesFound.Add(50)
	m.MatchesRedacted.Add(45)
	m.ValidatorRejections.Add(4)
	m.OverlapsDropped.Add(1)

	s := m.Snapshot()
	if s.Matches.Found != 50 {
		t.Errorf("Found: got %d, want 50", s.Matches.Found)
	}
	if s.Matches.Redacted != 45 {
		t.Errorf("Redacted: got %d, want 45", s.Matches.Redacted)
	}
	if s.Matches.ValidatorRejections != 4 {
		t.Errorf("ValidatorRejections: got %d, want 4", s.Matches.ValidatorRejections)
	}
	if s.Matches.OverlapsDropped != 1 {
		t.Errorf("OverlapsDropped: got %d, want 1", s.Matches.OverlapsDropped)
	}
}

func TestRecordSanitizeLatency_SingleSample(t *testing.T) {
	m := New()
	m.RecordSanitizeLatency(100 * time.Millisecond)

	s := m.Snapshot()
	if s.Latency.SanitizeMs.Count != 1 {
		t.Errorf("Count: got %d, want 1", s.Latency.SanitizeMs.Count)
	}
	if s.Latency.SanitizeMs.MinMs < 90 || s.Latency.SanitizeMs.MinMs > 110 {
		t.Errorf("MinMs: got %f, want ~100", s.Latency.SanitizeMs.MinMs)
	}
}

func TestRecordAnalyzeLatency_MinMaxMean(t *testing.T) {
	m := New()
	m.RecordAnalyzeLatency(50 * time.Millisecond)
	m.RecordAnalyzeLatency(150 * time.Millisecond)
	m.RecordAnalyzeLatency(100 * time.Millisecond)

	s := m.Snapshot()
	ls := s.Latency.AnalyzeMs
	if ls.Count != 3 {
		t.Errorf("Count: got %d, want 3", ls.Count)
	}
	if ls.MinMs > 60 {
		t.Errorf("MinMs too high: %f", ls.MinMs)
	}
	if ls.MaxMs < 140 {
		t.Errorf("MaxMs too low: %f", ls.MaxMs)
	}
	if ls.MeanMs < 90 || ls.MeanMs > 110 {
		t.Errorf("MeanMs: got %f, want ~100", ls.MeanMs)
	}
}

func TestSnapshotLatency_EmptyIsZeroValue(t *testing.T) {
	m := New()
	s := m.Snapshot()
	if s.Latency.SanitizeMs.Count != 0 {
		t.Errorf("empty sanitize latency count should be 0")
	}
	if s.Latency.AnalyzeMs.Count != 0 {
		t.Errorf("empty analyze latency count should be 0")
	}
}

func TestSnapshot_UptimePositive(t *testing.T) {
	m := New()
	time.Sleep(5 * time.Millisecond)
	s := m.Snapshot()
	if s.UptimeSecs <= 0 {
		t.Errorf("UptimeSecs should be positive, got %f", s.UptimeSecs)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		input float64
		want  float64
	}{
		{1.236, 1.24},
		{1.234, 1.23},
		{100.0, 100.0},
		{0.0, 0.0},
	}
	for _, c := range cases {
		got := round2(c.input)
		if got != c.want {
			t.Errorf("round2(%f) = %f, want %f", c.input, got, c.want)
		}
	}
}

func TestLatencyStats_Record(t *testing.T) {
	var s latencyStats
	s.record(10)
	s.record(20)
	s.record(15)

	snap := s.snapshot()
	if snap.Count != 3 {
		t.Errorf("Count: got %d, want 3", snap.Count)
	}
	if snap.MinMs != 10 {
		t.Errorf("MinMs: got %f, want 10", snap.MinMs)
	}
	if snap.MaxMs != 20 {
		t.Errorf("MaxMs: got %f, want 20", snap.MaxMs)
	}
	if snap.MeanMs != 15 {
		t.Errorf("MeanMs: got %f, want 15", snap.MeanMs)
	}
}

func TestLatencyStats_Empty(t *testing.T) {
	var s latencyStats
	snap := s.snapshot()
	if snap.Count != 0 || snap.MinMs != 0 || snap.MaxMs != 0 || snap.MeanMs != 0 {
		t.Errorf("empty stats snapshot should be zero, got %+v", snap)
	}
}
