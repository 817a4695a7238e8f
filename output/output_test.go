package output

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/lptgen/cosmo"
	"github.com/pthm-cable/lptgen/grid"
)

func TestParseFormat(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Format
	}{
		{"particles", FormatParticles},
		{"field_lagrangian", FormatFieldLagrangian},
		{"field_eulerian", FormatFieldEulerian},
	} {
		got, err := ParseFormat(tc.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q): got %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseFormat("hdf5"); err == nil {
		t.Error("expected an error for unknown format")
	}
}

func TestFieldKindNames(t *testing.T) {
	if got := DisplacementField(2).String(); got != "dz" {
		t.Errorf("displacement z name: got %q, want dz", got)
	}
	if got := VelocityField(0).String(); got != "vx" {
		t.Errorf("velocity x name: got %q, want vx", got)
	}
}

func TestDirSinkGridRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir, FormatFieldLagrangian, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	g := grid.New(8, 250)
	rng := rand.New(rand.NewSource(2))
	for i := range g.Samples() {
		g.Samples()[i] = rng.NormFloat64()
	}
	if err := sink.WriteGrid(g, cosmo.DM, FieldDensity); err != nil {
		t.Fatal(err)
	}

	back, err := ReadGridBlob(filepath.Join(dir, "dm_density.gob"))
	if err != nil {
		t.Fatal(err)
	}
	if back.N() != 8 || back.BoxLength() != 250 {
		t.Fatalf("shape: got %d/%g, want 8/250", back.N(), back.BoxLength())
	}
	for i, v := range back.Samples() {
		if v != g.Samples()[i] {
			t.Fatalf("sample %d: got %g, want %g", i, v, g.Samples()[i])
		}
	}
}

func TestDirSinkRejectsFourierGrid(t *testing.T) {
	sink, err := NewDirSink(t.TempDir(), FormatFieldLagrangian, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	g := grid.New(4, 10)
	g.ForceFourier()
	if err := sink.WriteGrid(g, cosmo.DM, FieldDensity); err == nil {
		t.Error("expected an error for a fourier-space grid")
	}
}

func TestDirSinkParticlesCSV(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir, FormatParticles, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	ps := NewParticleSet(2)
	ps.SetID(0, 0)
	ps.SetID(1, 1)
	ps.SetPos(0, 0, 1.5)
	ps.SetVel(1, 2, -3.25)
	if err := sink.WriteParticles(ps, cosmo.Baryon); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "particles_baryon.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count: got %d, want header plus two records", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,") {
		t.Errorf("header: got %q", lines[0])
	}
	if !strings.Contains(lines[1], "1.5") {
		t.Errorf("first record missing position: %q", lines[1])
	}
	if !strings.Contains(lines[2], "-3.25") {
		t.Errorf("second record missing velocity: %q", lines[2])
	}
}

func TestDirSinkSpectrumCSV(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir, FormatFieldLagrangian, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	bins := []grid.PowerBin{{K: 0.1, Pk: 1234, Modes: 6}}
	if err := sink.WriteSpectrum("powerspec_sampled_dm", bins); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "powerspec_sampled_dm.csv")); err != nil {
		t.Errorf("spectrum file missing: %v", err)
	}
}

func TestDirSinkUnitDefaults(t *testing.T) {
	sink, err := NewDirSink(t.TempDir(), FormatParticles, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sink.PositionUnit() != 1 || sink.VelocityUnit() != 1 {
		t.Errorf("unit defaults: got %g/%g, want 1/1", sink.PositionUnit(), sink.VelocityUnit())
	}
	sink, err = NewDirSink(t.TempDir(), FormatParticles, 100, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if sink.PositionUnit() != 100 || sink.VelocityUnit() != 0.5 {
		t.Errorf("explicit units: got %g/%g, want 100/0.5", sink.PositionUnit(), sink.VelocityUnit())
	}
}

func TestMemorySinkKeepsCopies(t *testing.T) {
	sink := &MemorySink{DefaultFormat: FormatFieldLagrangian}
	g := grid.New(4, 10)
	g.Samples()[0] = 1
	if err := sink.WriteGrid(g, cosmo.DM, FieldDensity); err != nil {
		t.Fatal(err)
	}
	g.Samples()[0] = 2

	stored := sink.Grid(cosmo.DM, FieldDensity)
	if stored == nil {
		t.Fatal("grid not stored")
	}
	if got := stored.Samples()[0]; math.Abs(got-1) > 0 {
		t.Errorf("stored grid mutated with source: got %g, want 1", got)
	}
	if sink.Grid(cosmo.Baryon, FieldDensity) != nil {
		t.Error("unexpected grid for unwritten species")
	}
}

func TestMemorySinkFormatRouting(t *testing.T) {
	sink := &MemorySink{
		DefaultFormat: FormatParticles,
		Formats:       map[cosmo.Species]Format{cosmo.Baryon: FormatFieldEulerian},
	}
	if got := sink.SpeciesFormat(cosmo.DM); got != FormatParticles {
		t.Errorf("dm format: got %v, want particles", got)
	}
	if got := sink.SpeciesFormat(cosmo.Baryon); got != FormatFieldEulerian {
		t.Errorf("baryon format: got %v, want field_eulerian", got)
	}
}
