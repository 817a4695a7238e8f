package output

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/lptgen/cosmo"
	"github.com/pthm-cable/lptgen/grid"
)

// DirSink writes output into a directory: particle records and power
// spectra as CSV, grid fields as gob blobs.
type DirSink struct {
	dir     string
	format  Format
	posUnit float64
	velUnit float64
}

// NewDirSink creates the output directory and returns a sink routing every
// species through the given format.
func NewDirSink(dir string, format Format, posUnit, velUnit float64) (*DirSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("output: empty output directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if posUnit == 0 {
		posUnit = 1.0
	}
	if velUnit == 0 {
		velUnit = 1.0
	}
	return &DirSink{dir: dir, format: format, posUnit: posUnit, velUnit: velUnit}, nil
}

// Dir returns the output directory.
func (s *DirSink) Dir() string { return s.dir }

// SpeciesFormat implements Sink; DirSink routes all species the same way.
func (s *DirSink) SpeciesFormat(cosmo.Species) Format { return s.format }

// PositionUnit implements Sink.
func (s *DirSink) PositionUnit() float64 { return s.posUnit }

// VelocityUnit implements Sink.
func (s *DirSink) VelocityUnit() float64 { return s.velUnit }

// gridBlob is the gob layout of one stored field.
type gridBlob struct {
	N         int
	BoxLength float64
	Samples   []float64
}

// WriteGrid implements Sink, storing the field as <species>_<field>.gob.
func (s *DirSink) WriteGrid(g *grid.Grid, sp cosmo.Species, field FieldKind) error {
	if g.Rep() != grid.Real {
		return fmt.Errorf("output: grid for %s/%s is not in real representation", sp, field)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.gob", sp, field))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	blob := gridBlob{N: g.N(), BoxLength: g.BoxLength(), Samples: g.Samples()}
	if err := gob.NewEncoder(f).Encode(&blob); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// WriteParticles implements Sink, storing particles_<species>.csv.
func (s *DirSink) WriteParticles(ps *ParticleSet, sp cosmo.Species) error {
	path := filepath.Join(s.dir, fmt.Sprintf("particles_%s.csv", sp))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	recs := ps.records()
	if err := gocsv.Marshal(&recs, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteSpectrum implements SpectrumWriter, storing <name>.csv.
func (s *DirSink) WriteSpectrum(name string, bins []grid.PowerBin) error {
	path := filepath.Join(s.dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(&bins, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadGridBlob loads a field written by WriteGrid, returning it as a grid in
// real representation.
func ReadGridBlob(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var blob gridBlob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(blob.Samples) != blob.N*blob.N*blob.N {
		return nil, fmt.Errorf("output: blob %s has %d samples for resolution %d",
			path, len(blob.Samples), blob.N)
	}
	g := grid.New(blob.N, blob.BoxLength)
	copy(g.Samples(), blob.Samples)
	return g, nil
}

var _ Sink = (*DirSink)(nil)
var _ SpectrumWriter = (*DirSink)(nil)
