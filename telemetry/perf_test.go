package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPhaseAccumulation(t *testing.T) {
	rt := NewRunTimer()
	rt.StartPhase(PhaseNoise)
	time.Sleep(time.Millisecond)
	rt.EndPhase()
	rt.StartPhase(PhasePhi1)
	rt.EndPhase()
	rt.StartPhase(PhaseNoise)
	time.Sleep(time.Millisecond)
	rt.EndPhase()

	samples := rt.Samples()
	if len(samples) != 2 {
		t.Fatalf("sample count: got %d, want 2", len(samples))
	}
	// First-start order.
	if samples[0].Phase != PhaseNoise || samples[1].Phase != PhasePhi1 {
		t.Errorf("sample order: got %s, %s", samples[0].Phase, samples[1].Phase)
	}
	if samples[0].Calls != 2 {
		t.Errorf("noise calls: got %d, want 2", samples[0].Calls)
	}
	if samples[0].Duration < 2*time.Millisecond {
		t.Errorf("noise duration too small: %v", samples[0].Duration)
	}
}

func TestStartPhaseClosesOpenPhase(t *testing.T) {
	rt := NewRunTimer()
	rt.StartPhase(PhaseNoise)
	rt.StartPhase(PhasePhi1)
	rt.EndPhase()

	samples := rt.Samples()
	if len(samples) != 2 {
		t.Fatalf("sample count: got %d, want 2", len(samples))
	}
	for _, s := range samples {
		if s.Calls != 1 {
			t.Errorf("%s calls: got %d, want 1", s.Phase, s.Calls)
		}
	}
}

func TestEndPhaseWithoutStart(t *testing.T) {
	rt := NewRunTimer()
	rt.EndPhase() // must not panic or record anything
	if got := len(rt.Samples()); got != 0 {
		t.Errorf("sample count: got %d, want 0", got)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	rt := NewRunTimer()
	rt.StartPhase(PhaseSynthesis)
	time.Sleep(time.Millisecond)
	rt.EndPhase()

	dir := t.TempDir()
	if err := rt.WriteSummaryCSV(dir); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count: got %d, want header plus one record", len(lines))
	}
	if !strings.HasPrefix(lines[0], "phase,") {
		t.Errorf("header: got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], PhaseSynthesis+",") {
		t.Errorf("record: got %q", lines[1])
	}
}
