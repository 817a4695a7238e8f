// Package telemetry tracks per-phase wall-clock timing of a generator run.
package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the generation pipeline.
const (
	PhaseNoise      = "noise"
	PhasePhi1       = "phi1"
	PhasePhi2       = "phi2"
	PhasePhi3a      = "phi3a"
	PhasePhi3b      = "phi3b"
	PhaseA3         = "A3"
	PhaseVNLO       = "vNLO"
	PhaseScaling    = "scaling"
	PhaseSynthesis  = "synthesis"
	PhaseWavefn     = "wavefunction"
	PhaseOutput     = "output"
)

// PhaseSample holds accumulated timing for one pipeline phase.
type PhaseSample struct {
	Phase    string
	Duration time.Duration
	Calls    int
}

// RunTimer accumulates phase timings across a run. Phases may recur (once
// per species); durations accumulate. Not safe for concurrent use: the
// pipeline is sequential.
type RunTimer struct {
	order   []string
	samples map[string]*PhaseSample

	current    string
	phaseStart time.Time
	runStart   time.Time
}

// NewRunTimer starts a run clock.
func NewRunTimer() *RunTimer {
	return &RunTimer{
		samples:  make(map[string]*PhaseSample),
		runStart: time.Now(),
	}
}

// StartPhase begins timing a phase, ending the previous one if still open.
func (t *RunTimer) StartPhase(phase string) {
	now := time.Now()
	t.endCurrent(now)
	t.current = phase
	t.phaseStart = now
}

// EndPhase ends the open phase and logs its duration.
func (t *RunTimer) EndPhase() {
	now := time.Now()
	phase := t.current
	t.endCurrent(now)
	if phase != "" {
		slog.Info("phase complete", "phase", phase,
			"took", now.Sub(t.phaseStart).Round(time.Microsecond).String())
	}
}

func (t *RunTimer) endCurrent(now time.Time) {
	if t.current == "" {
		return
	}
	s, ok := t.samples[t.current]
	if !ok {
		s = &PhaseSample{Phase: t.current}
		t.samples[t.current] = s
		t.order = append(t.order, t.current)
	}
	s.Duration += now.Sub(t.phaseStart)
	s.Calls++
	t.current = ""
}

// Total returns the wall-clock time since the run started.
func (t *RunTimer) Total() time.Duration {
	return time.Since(t.runStart)
}

// Samples returns accumulated phase samples in first-start order.
func (t *RunTimer) Samples() []PhaseSample {
	t.endCurrent(time.Now())
	out := make([]PhaseSample, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.samples[name])
	}
	return out
}

// LogSummary writes the per-phase breakdown through slog.
func (t *RunTimer) LogSummary() {
	total := t.Total()
	for _, s := range t.Samples() {
		pct := 0.0
		if total > 0 {
			pct = float64(s.Duration) / float64(total) * 100
		}
		slog.Info("perf",
			"phase", s.Phase,
			"total", s.Duration.Round(time.Microsecond).String(),
			"calls", s.Calls,
			"pct", pct,
		)
	}
	slog.Info("perf", "phase", "run", "total", total.Round(time.Microsecond).String())
}
