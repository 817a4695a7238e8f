package output

import (
	"fmt"
	"sync"

	"github.com/pthm-cable/lptgen/cosmo"
	"github.com/pthm-cable/lptgen/grid"
)

// MemorySink retains everything written to it; used as a test double and for
// in-process consumers.
type MemorySink struct {
	// DefaultFormat routes species without an entry in Formats.
	DefaultFormat Format
	// Formats optionally routes individual species.
	Formats map[cosmo.Species]Format
	// PosUnit and VelUnit default to 1 when zero.
	PosUnit float64
	VelUnit float64

	mu        sync.Mutex
	grids     map[string]*grid.Grid
	particles map[cosmo.Species]*ParticleSet
	spectra   map[string][]grid.PowerBin
}

// SpeciesFormat implements Sink.
func (s *MemorySink) SpeciesFormat(sp cosmo.Species) Format {
	if f, ok := s.Formats[sp]; ok {
		return f
	}
	return s.DefaultFormat
}

// PositionUnit implements Sink.
func (s *MemorySink) PositionUnit() float64 {
	if s.PosUnit == 0 {
		return 1.0
	}
	return s.PosUnit
}

// VelocityUnit implements Sink.
func (s *MemorySink) VelocityUnit() float64 {
	if s.VelUnit == 0 {
		return 1.0
	}
	return s.VelUnit
}

// WriteGrid implements Sink, keeping a deep copy of the field.
func (s *MemorySink) WriteGrid(g *grid.Grid, sp cosmo.Species, field FieldKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grids == nil {
		s.grids = make(map[string]*grid.Grid)
	}
	s.grids[fmt.Sprintf("%s/%s", sp, field)] = g.Copy()
	return nil
}

// WriteParticles implements Sink.
func (s *MemorySink) WriteParticles(ps *ParticleSet, sp cosmo.Species) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.particles == nil {
		s.particles = make(map[cosmo.Species]*ParticleSet)
	}
	cp := NewParticleSet(ps.Len())
	copy(cp.IDs, ps.IDs)
	copy(cp.Pos, ps.Pos)
	copy(cp.Vel, ps.Vel)
	s.particles[sp] = cp
	return nil
}

// WriteSpectrum implements SpectrumWriter.
func (s *MemorySink) WriteSpectrum(name string, bins []grid.PowerBin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spectra == nil {
		s.spectra = make(map[string][]grid.PowerBin)
	}
	s.spectra[name] = append([]grid.PowerBin(nil), bins...)
	return nil
}

// Grid returns the stored field for a species/component, or nil.
func (s *MemorySink) Grid(sp cosmo.Species, field FieldKind) *grid.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grids[fmt.Sprintf("%s/%s", sp, field)]
}

// Particles returns the stored particle set for a species, or nil.
func (s *MemorySink) Particles(sp cosmo.Species) *ParticleSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.particles[sp]
}

// Spectrum returns a stored spectrum by name, or nil.
func (s *MemorySink) Spectrum(name string) []grid.PowerBin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spectra[name]
}

var _ Sink = (*MemorySink)(nil)
var _ SpectrumWriter = (*MemorySink)(nil)
