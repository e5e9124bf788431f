package observability

import "testing"

func TestSpeechStageWindowSnapshot(t *testing.T) {
	w := newSpeechStageWindow(8)
	w.Observe("remote_synthesis", 500)
	w.Observe("remote_synthesis", 700)
	w.Observe("remote_synthesis", 900)
	w.ObserveIndicator("fallback_native")
	w.ObserveIndicator("fallback_native")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != "remote_synthesis" {
		t.Fatalf("Stage = %q, want %q", s.Stage, "remote_synthesis")
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
	if s.TargetP95MS != 1500 {
		t.Fatalf("TargetP95MS = %.2f, want 1500", s.TargetP95MS)
	}
	if len(snap.Indicators) != 1 {
		t.Fatalf("len(Indicators) = %d, want 1", len(snap.Indicators))
	}
	if snap.Indicators[0].Name != "fallback_native" {
		t.Fatalf("Indicators[0].Name = %q, want %q", snap.Indicators[0].Name, "fallback_native")
	}
	if snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators[0].Count = %d, want %d", snap.Indicators[0].Count, 2)
	}
}

func TestSpeechStageWindowResetClearsState(t *testing.T) {
	w := newSpeechStageWindow(4)
	w.Observe("cache_lookup", 2)
	w.ObserveIndicator("cache_hit")
	w.Reset()

	snap := w.Snapshot()
	if len(snap.Stages) != 0 {
		t.Fatalf("len(Stages) after reset = %d, want 0", len(snap.Stages))
	}
	if len(snap.Indicators) != 0 {
		t.Fatalf("len(Indicators) after reset = %d, want 0", len(snap.Indicators))
	}
}
