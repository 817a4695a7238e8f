package lpt

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/pthm-cable/lptgen/cosmo"
	"github.com/pthm-cable/lptgen/grid"
	"github.com/pthm-cable/lptgen/output"
	"github.com/pthm-cable/lptgen/telemetry"
)

// forEachSlab splits the x-axis of an n^3 lattice across workers.
func forEachSlab(n int, fn func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// synthesizeComponent fills tmp's spectrum with one Cartesian component of a
// displacement or velocity field. phiTot combines the scalar potentials,
// a3p and a3pp are the transverse potentials of the two complementary axes,
// and unit converts from box units to output units.
func synthesizeComponent(tmp *grid.Grid, d int, unit float64,
	phiTot func(idx int) complex128, a3fac float64, a3p, a3pp []complex128) {

	dp, dpp := cyclic[d][1], cyclic[d][2]
	n := tmp.N()
	l := tmp.BoxLength()
	tmp.ForceFourier()
	tc := tmp.Coeffs()

	forEachSlab(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				for kz := 0; kz <= n/2; kz++ {
					idx := tmp.ModeIndex(i, j, kz)
					kk := tmp.Wavevector(i, j, kz)
					v := complex(kk[d], 0) * phiTot(idx)
					if a3p != nil {
						v += complex(a3fac*kk[dp], 0)*a3pp[idx] -
							complex(a3fac*kk[dpp], 0)*a3p[idx]
					}
					tc[idx] = complex(0, unit/l) * v
				}
			}
		}
	})
}

// fillSheet copies one component of a real-space field into the particle
// array: position components get the lattice coordinate plus the sampled
// displacement, velocity components the sampled value directly.
func fillSheet(ps *output.ParticleSet, base int, src *grid.Grid, d int,
	lunit, latticeShift float64, position bool) {

	n := src.N()
	data := src.Samples()
	forEachSlab(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				for k := 0; k < n; k++ {
					p := base + (i*n+j)*n + k
					v := data[src.SampleIndex(i, j, k)]
					if position {
						var c int
						switch d {
						case 0:
							c = i
						case 1:
							c = j
						default:
							c = k
						}
						u := (float64(c) + latticeShift) / float64(n)
						ps.SetPos(p, d, u*lunit+v)
					} else {
						ps.SetVel(p, d, v)
					}
				}
			}
		}
	})
}

// runLagrangian synthesizes displacement and velocity fields from the scaled
// potentials and emits them either as particles or as Lagrangian-space grids.
func (gen *Generator) runLagrangian(sp cosmo.Species, phi, phi2, phi3a, phi3b *grid.Grid, A3 *[3]*grid.Grid, vfac1, vfac2, vfac3 float64) error {
	n := gen.opts.GridRes
	l := gen.opts.BoxLength
	format := gen.sink.SpeciesFormat(sp)
	lunit := gen.sink.PositionUnit()
	vunit := gen.sink.VelocityUnit()

	tmp := grid.New(n, l)

	var particles *output.ParticleSet
	if format == output.FormatParticles {
		count := n * n * n
		if gen.opts.BCCLattice {
			count *= 2
		}
		// Primary sheet occupies slots 0..n^3-1, the staggered sheet the
		// rest; ids equal slot indices.
		particles = output.NewParticleSet(count)
		for p := 0; p < count; p++ {
			particles.SetID(p, uint64(p))
		}
	}

	pc := phi.Coeffs()
	p2c := phi2.Coeffs()
	p3ac := phi3a.Coeffs()
	p3bc := phi3b.Coeffs()
	a3c := [3][]complex128{A3[0].Coeffs(), A3[1].Coeffs(), A3[2].Coeffs()}

	gen.timer.StartPhase(telemetry.PhaseSynthesis)
	for d := 0; d < 3; d++ {
		dp, dpp := cyclic[d][1], cyclic[d][2]

		// Displacement: gradient of the total scalar potential plus the
		// curl of the transverse vector potential. The symplectic A3
		// grids hold a velocity correction instead, so the curl term
		// only applies to the standard scheme.
		dispA3p, dispA3pp := a3c[dp], a3c[dpp]
		if gen.opts.SymplecticPT {
			dispA3p, dispA3pp = nil, nil
		}
		synthesizeComponent(tmp, d, lunit, func(idx int) complex128 {
			return pc[idx] + p2c[idx] + p3ac[idx] + p3bc[idx]
		}, 1.0, dispA3p, dispA3pp)
		if err := tmp.ToReal(); err != nil {
			return err
		}

		if particles != nil {
			fillSheet(particles, 0, tmp, d, lunit, 0, true)
			if gen.opts.BCCLattice {
				tmp.Stagger()
				fillSheet(particles, n*n*n, tmp, d, lunit, 0.5, true)
			}
		} else {
			if err := gen.sink.WriteGrid(tmp, sp, output.DisplacementField(d)); err != nil {
				return fmt.Errorf("writing displacement %s: %w", output.DisplacementField(d), err)
			}
		}

		// Velocity: per-order growth-rate weighted potentials. In the
		// symplectic scheme the NLO correction enters in real space, so
		// the curl term is dropped here and the correction added after
		// the transform.
		if gen.opts.SymplecticPT {
			synthesizeComponent(tmp, d, vunit, func(idx int) complex128 {
				return complex(vfac1, 0)*pc[idx] + complex(vfac2, 0)*p2c[idx]
			}, 0, nil, nil)
			if err := tmp.ToReal(); err != nil {
				return err
			}
			if err := A3[d].ToReal(); err != nil && !errors.Is(err, grid.ErrRepresentation) {
				return err
			}
			vc := A3[d].Samples()
			ts := tmp.Samples()
			forEachSlab(n, func(lo, hi int) {
				for idx := lo * n * n; idx < hi*n*n; idx++ {
					ts[idx] += vfac1 * vc[idx]
				}
			})
		} else {
			synthesizeComponent(tmp, d, vunit, func(idx int) complex128 {
				return complex(vfac1, 0)*pc[idx] + complex(vfac2, 0)*p2c[idx] +
					complex(vfac3, 0)*(p3ac[idx]+p3bc[idx])
			}, vfac3, a3c[dp], a3c[dpp])
			if err := tmp.ToReal(); err != nil {
				return err
			}
		}

		if particles != nil {
			fillSheet(particles, 0, tmp, d, vunit, 0, false)
			if gen.opts.BCCLattice {
				tmp.Stagger()
				fillSheet(particles, n*n*n, tmp, d, vunit, 0.5, false)
			}
		} else {
			if err := gen.sink.WriteGrid(tmp, sp, output.VelocityField(d)); err != nil {
				return fmt.Errorf("writing velocity %s: %w", output.VelocityField(d), err)
			}
		}
	}
	gen.timer.EndPhase()

	gen.timer.StartPhase(telemetry.PhaseOutput)
	defer gen.timer.EndPhase()

	if particles != nil {
		if err := gen.sink.WriteParticles(particles, sp); err != nil {
			return fmt.Errorf("writing particles: %w", err)
		}
		return nil
	}

	// For grid output the linear density contrast rides along: the negative
	// Laplacian of the scaled first-order potential.
	delta := phi.Copy()
	delta.ApplyNegativeLaplacian()
	if sw, ok := gen.sink.(output.SpectrumWriter); ok {
		name := "powerspec_sampled_" + sp.String()
		if err := sw.WriteSpectrum(name, delta.PowerSpectrum()); err != nil {
			return fmt.Errorf("writing sampled spectrum: %w", err)
		}
	}
	if err := delta.ToReal(); err != nil {
		return err
	}
	if err := gen.sink.WriteGrid(delta, sp, output.FieldDensity); err != nil {
		return fmt.Errorf("writing density: %w", err)
	}
	return nil
}
