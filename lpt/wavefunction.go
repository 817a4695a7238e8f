package lpt

import (
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"

	"github.com/pthm-cable/lptgen/cosmo"
	"github.com/pthm-cable/lptgen/grid"
	"github.com/pthm-cable/lptgen/output"
	"github.com/pthm-cable/lptgen/telemetry"
)

// runWavefunction evolves the scaled potentials to the start time with the
// semiclassical propagator and writes Eulerian density and velocity fields.
// The phase kick, free drift and second kick split the propagator
// symmetrically; an effective Planck constant tied to the potential's spread
// keeps the phase resolvable on the lattice.
func (gen *Generator) runWavefunction(sp cosmo.Species, phi, phi2 *grid.Grid, dplus float64) error {
	gen.timer.StartPhase(telemetry.PhaseWavefn)

	n := gen.opts.GridRes
	l := gen.opts.BoxLength

	if err := phi.ToReal(); err != nil {
		return err
	}
	std := phi.Std()
	hbar := 2.0 * math.Pi / float64(n) * (2.0 * std / dplus)
	slog.Info("semiclassical propagation", "species", sp.String(),
		"hbar", hbar, "sigma_phi", std)

	secondOrder := gen.order >= 2
	var phi2s []float64
	if secondOrder {
		if err := phi2.ToReal(); err != nil {
			return err
		}
		phi2s = phi2.Samples()
	}

	psi := grid.NewComplex(n, l)
	ps := psi.Samples()
	phis := phi.Samples()
	kick := 1.0 / (hbar * dplus)
	forEachSlab(n, func(lo, hi int) {
		for idx := lo * n * n; idx < hi*n*n; idx++ {
			phase := phis[idx] * kick
			if secondOrder {
				phase += phi2s[idx] * kick
			}
			ps[idx] = cmplx.Exp(complex(0, phase))
		}
	})

	if err := psi.ToFourier(); err != nil {
		return err
	}
	pc := psi.Coeffs()
	dc := pc[0]
	drift := 0.5 * hbar * dplus
	psi.MapCoefficients(func(k [3]float64, v complex128) complex128 {
		k2 := k[0]*k[0] + k[1]*k[1] + k[2]*k[2]
		return v * cmplx.Exp(complex(0, -drift*k2))
	}, dc)
	if err := psi.ToReal(); err != nil {
		return err
	}

	if secondOrder {
		forEachSlab(n, func(lo, hi int) {
			for idx := lo * n * n; idx < hi*n*n; idx++ {
				ps[idx] *= cmplx.Exp(complex(0, phi2s[idx]*kick))
			}
		})
	}

	rho := grid.New(n, l)
	rs := rho.Samples()
	forEachSlab(n, func(lo, hi int) {
		for idx := lo * n * n; idx < hi*n*n; idx++ {
			m := cmplx.Abs(ps[idx])
			rs[idx] = m*m - 1.0
		}
	})
	gen.timer.EndPhase()

	gen.timer.StartPhase(telemetry.PhaseOutput)
	if sw, ok := gen.sink.(output.SpectrumWriter); ok {
		sampled := rho.Copy()
		if err := sampled.ToFourier(); err != nil {
			return err
		}
		name := "powerspec_sampled_evolved_semiclassical_" + sp.String()
		if err := sw.WriteSpectrum(name, sampled.PowerSpectrum()); err != nil {
			return fmt.Errorf("writing evolved spectrum: %w", err)
		}
	}
	if err := gen.sink.WriteGrid(rho, sp, output.FieldDensity); err != nil {
		return fmt.Errorf("writing density: %w", err)
	}
	gen.timer.EndPhase()

	gen.timer.StartPhase(telemetry.PhaseWavefn)
	vel := grid.New(n, l)
	vs := vel.Samples()
	for d := 0; d < 3; d++ {
		gradPsi := psi.Copy()
		if err := gradPsi.ToFourier(); err != nil {
			return err
		}
		axis := d
		gradPsi.MapCoefficients(func(k [3]float64, v complex128) complex128 {
			return v * complex(0, k[axis])
		}, 0)
		if err := gradPsi.ToReal(); err != nil {
			return err
		}
		currentVelocity(n, hbar, ps, gradPsi.Samples(), rs, vs)
		if err := gen.sink.WriteGrid(vel, sp, output.VelocityField(d)); err != nil {
			gen.timer.EndPhase()
			return fmt.Errorf("writing velocity %s: %w", output.VelocityField(d), err)
		}
	}
	gen.timer.EndPhase()
	return nil
}

// currentVelocity fills vs with the probability current over the density,
// hbar * Im(conj(psi) * gradPsi) / |psi|^2, with |psi|^2 = 1 + rho.
func currentVelocity(n int, hbar float64, psi, gradPsi []complex128, rho, vs []float64) {
	forEachSlab(n, func(lo, hi int) {
		for idx := lo * n * n; idx < hi*n*n; idx++ {
			vs[idx] = hbar * imagConjProduct(psi[idx], gradPsi[idx]) / (1.0 + rho[idx])
		}
	})
}

// imagConjProduct returns Im(conj(a) * b).
func imagConjProduct(a, b complex128) float64 {
	return real(a)*imag(b) - imag(a)*real(b)
}
