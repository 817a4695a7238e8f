// Package output routes generated fields and particles to their
// destination. The Sink interface is the boundary the assembler writes
// through; DirSink is the file-based implementation.
package output

import (
	"fmt"

	"github.com/pthm-cable/lptgen/cosmo"
	"github.com/pthm-cable/lptgen/grid"
)

// Format selects which synthesis branch runs for a species and how its
// result is stored.
type Format int

const (
	FormatParticles Format = iota
	FormatFieldLagrangian
	FormatFieldEulerian
)

func (f Format) String() string {
	switch f {
	case FormatParticles:
		return "particles"
	case FormatFieldLagrangian:
		return "field_lagrangian"
	case FormatFieldEulerian:
		return "field_eulerian"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat maps a config name onto a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "particles":
		return FormatParticles, nil
	case "field_lagrangian":
		return FormatFieldLagrangian, nil
	case "field_eulerian":
		return FormatFieldEulerian, nil
	}
	return 0, fmt.Errorf("output: unknown format %q", name)
}

// FieldKind names a fluid component of a grid write.
type FieldKind int

const (
	FieldDensity FieldKind = iota
	FieldDx
	FieldDy
	FieldDz
	FieldVx
	FieldVy
	FieldVz
)

var fieldNames = [...]string{"density", "dx", "dy", "dz", "vx", "vy", "vz"}

func (f FieldKind) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return fmt.Sprintf("FieldKind(%d)", int(f))
}

// DisplacementField returns the displacement component along axis d.
func DisplacementField(d int) FieldKind { return FieldDx + FieldKind(d) }

// VelocityField returns the velocity component along axis d.
func VelocityField(d int) FieldKind { return FieldVx + FieldKind(d) }

// Sink consumes generated output. Grid writes receive real-space fields;
// implementations must not retain the grid (the assembler reuses its
// buffers).
type Sink interface {
	// SpeciesFormat determines which synthesis branch runs for a species.
	SpeciesFormat(sp cosmo.Species) Format
	// WriteGrid stores one field component for a species.
	WriteGrid(g *grid.Grid, sp cosmo.Species, field FieldKind) error
	// WriteParticles stores the particle records of a species.
	WriteParticles(ps *ParticleSet, sp cosmo.Species) error
	// PositionUnit converts box-unit positions into output units.
	PositionUnit() float64
	// VelocityUnit converts internal velocities into output units.
	VelocityUnit() float64
}

// SpectrumWriter is optionally implemented by sinks that also record binned
// power spectra of generated fields.
type SpectrumWriter interface {
	WriteSpectrum(name string, bins []grid.PowerBin) error
}
