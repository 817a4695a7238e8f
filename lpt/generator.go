// Package lpt assembles the full initial-conditions pipeline: it draws a
// Gaussian noise field, builds the Lagrangian perturbation potentials up to
// the requested order with the convolution engine, scales them with the
// cosmological growth coefficients, and synthesizes displacement and
// velocity outputs per species.
package lpt

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"

	"github.com/pthm-cable/lptgen/convolve"
	"github.com/pthm-cable/lptgen/cosmo"
	"github.com/pthm-cable/lptgen/grid"
	"github.com/pthm-cable/lptgen/noise"
	"github.com/pthm-cable/lptgen/output"
	"github.com/pthm-cable/lptgen/telemetry"
)

// Options selects the lattice geometry and the perturbation scheme for a run.
type Options struct {
	GridRes      int
	BoxLength    float64
	ZStart       float64
	Order        int
	BCCLattice   bool
	SymplecticPT bool
	DoFixing     bool
	Species      []cosmo.Species

	// Engine overrides the convolution strategy; nil selects the
	// dealiased Orszag engine.
	Engine convolve.Engine
}

// Generator runs the pipeline for a fixed set of options and collaborators.
type Generator struct {
	opts  Options
	order int
	noise noise.Source
	calc  *cosmo.Calculator
	sink  output.Sink
	conv  convolve.Engine
	timer *telemetry.RunTimer
}

// New validates the options and wires a generator. The noise source, the
// cosmology calculator and the output sink are required.
func New(opts Options, src noise.Source, calc *cosmo.Calculator, sink output.Sink) (*Generator, error) {
	if opts.GridRes < 2 || opts.GridRes%2 != 0 {
		return nil, fmt.Errorf("grid resolution must be even and at least 2, got %d", opts.GridRes)
	}
	if opts.BoxLength <= 0 {
		return nil, fmt.Errorf("box length must be positive, got %g", opts.BoxLength)
	}
	if opts.Order < 1 || opts.Order > 3 {
		return nil, fmt.Errorf("LPT order must be 1, 2 or 3, got %d", opts.Order)
	}
	if opts.ZStart < 0 {
		return nil, fmt.Errorf("start redshift must be non-negative, got %g", opts.ZStart)
	}
	if len(opts.Species) == 0 {
		return nil, errors.New("at least one species is required")
	}
	if src == nil || calc == nil || sink == nil {
		return nil, errors.New("noise source, cosmology calculator and output sink are required")
	}

	order, downgraded := EffectiveOrder(opts.Order, opts.SymplecticPT)
	if downgraded {
		slog.Warn("symplectic PT fixes the perturbation order",
			"requested", opts.Order, "effective", order)
	}

	conv := opts.Engine
	if conv == nil {
		conv = convolve.NewOrszag(opts.GridRes, opts.BoxLength)
	}

	return &Generator{
		opts:  opts,
		order: order,
		noise: src,
		calc:  calc,
		sink:  sink,
		conv:  conv,
		timer: telemetry.NewRunTimer(),
	}, nil
}

// EffectiveOrder reports the order actually run, after the symplectic
// override.
func (gen *Generator) EffectiveOrder() int { return gen.order }

// Timer exposes the per-phase timings collected during Run.
func (gen *Generator) Timer() *telemetry.RunTimer { return gen.timer }

// Run executes the pipeline for every configured species. The potential
// grids are allocated once and recomputed per species; each output branch
// owns its own scratch grids.
func (gen *Generator) Run() error {
	n := gen.opts.GridRes
	l := gen.opts.BoxLength
	astart := 1.0 / (1.0 + gen.opts.ZStart)
	volfac := math.Pow(l/float64(n)/(2.0*math.Pi), 1.5)

	dplus := gen.calc.GrowthFactor(astart)
	vfac := gen.calc.VelocityGrowthFactor(astart)
	g1, g2, g3a, g3b, g3c := GrowthCoefficients(dplus, gen.order)
	vfac1, vfac2, vfac3 := VelocityFactors(vfac)

	slog.Info("growth factors at start time",
		"a", astart, "dplus", dplus, "vfac", vfac, "order", gen.order)

	phi := grid.New(n, l)
	phi2 := grid.New(n, l)
	phi3a := grid.New(n, l)
	phi3b := grid.New(n, l)
	A3 := [3]*grid.Grid{grid.New(n, l), grid.New(n, l), grid.New(n, l)}

	for _, sp := range gen.opts.Species {
		slog.Info("computing initial conditions", "species", sp.String())

		if err := gen.buildPotentials(sp, phi, phi2, phi3a, phi3b, &A3, volfac); err != nil {
			return fmt.Errorf("building potentials for %s: %w", sp, err)
		}

		gen.timer.StartPhase(telemetry.PhaseScaling)
		for _, g := range []*grid.Grid{phi2, phi3a, phi3b, A3[0], A3[1], A3[2]} {
			if g.Rep() != grid.Fourier {
				g.ForceFourier()
			}
		}
		phi.Scale(g1)
		phi2.Scale(g2)
		phi3a.Scale(g3a)
		phi3b.Scale(g3b)
		if !gen.opts.SymplecticPT {
			// In the symplectic scheme A3 carries the NLO velocity
			// correction, which enters unscaled.
			for d := 0; d < 3; d++ {
				A3[d].Scale(g3c)
			}
		}
		gen.timer.EndPhase()

		var err error
		switch gen.sink.SpeciesFormat(sp) {
		case output.FormatFieldEulerian:
			err = gen.runWavefunction(sp, phi, phi2, dplus)
		default:
			err = gen.runLagrangian(sp, phi, phi2, phi3a, phi3b, &A3, vfac1, vfac2, vfac3)
		}
		if err != nil {
			return fmt.Errorf("writing output for %s: %w", sp, err)
		}
	}

	gen.timer.LogSummary()
	return nil
}

// buildPotentials fills phi with the linear potential for the species and
// derives the higher-order potentials required by the effective order.
func (gen *Generator) buildPotentials(sp cosmo.Species, phi, phi2, phi3a, phi3b *grid.Grid, A3 *[3]*grid.Grid, volfac float64) error {
	t := gen.timer

	t.StartPhase(telemetry.PhaseNoise)
	if err := gen.noise.Fill(phi); err != nil {
		t.EndPhase()
		return fmt.Errorf("drawing noise field: %w", err)
	}
	t.EndPhase()

	t.StartPhase(telemetry.PhasePhi1)
	if err := phi.ToFourier(); err != nil {
		t.EndPhase()
		return err
	}
	fixing := gen.opts.DoFixing
	calc := gen.calc
	phi.MapCoefficients(func(k [3]float64, v complex128) complex128 {
		if fixing {
			if m := cmplx.Abs(v); m > 0 {
				v /= complex(m, 0)
			}
		}
		kmod := math.Sqrt(k[0]*k[0] + k[1]*k[1] + k[2]*k[2])
		return -v * complex(calc.Amplitude(kmod, sp)/(kmod*kmod*volfac), 0)
	}, 0)
	t.EndPhase()

	conv := gen.conv
	if gen.order > 1 || gen.opts.SymplecticPT {
		t.StartPhase(telemetry.PhasePhi2)
		phi2.ForceFourier()
		conv.SumOfHessians(phi, convolve.Hessian{I: 0, J: 0}, phi, convolve.Hessian{I: 1, J: 1}, convolve.Hessian{I: 2, J: 2}, phi2, convolve.Assign)
		conv.HessianPair(phi, convolve.Hessian{I: 1, J: 1}, phi, convolve.Hessian{I: 2, J: 2}, phi2, convolve.Add)
		conv.HessianPair(phi, convolve.Hessian{I: 0, J: 1}, phi, convolve.Hessian{I: 0, J: 1}, phi2, convolve.Sub)
		conv.HessianPair(phi, convolve.Hessian{I: 0, J: 2}, phi, convolve.Hessian{I: 0, J: 2}, phi2, convolve.Sub)
		conv.HessianPair(phi, convolve.Hessian{I: 1, J: 2}, phi, convolve.Hessian{I: 1, J: 2}, phi2, convolve.Sub)
		phi2.ApplyInverseLaplacian()
		t.EndPhase()
	}

	if gen.order > 2 {
		t.StartPhase(telemetry.PhasePhi3a)
		phi3a.ForceFourier()
		conv.HessianTriple(phi, convolve.Hessian{I: 0, J: 0}, phi, convolve.Hessian{I: 1, J: 1}, phi, convolve.Hessian{I: 2, J: 2}, phi3a, convolve.Assign)
		conv.HessianTriple(phi, convolve.Hessian{I: 0, J: 1}, phi, convolve.Hessian{I: 0, J: 2}, phi, convolve.Hessian{I: 1, J: 2}, phi3a, convolve.AddTwice)
		conv.HessianTriple(phi, convolve.Hessian{I: 1, J: 2}, phi, convolve.Hessian{I: 1, J: 2}, phi, convolve.Hessian{I: 0, J: 0}, phi3a, convolve.Sub)
		conv.HessianTriple(phi, convolve.Hessian{I: 0, J: 2}, phi, convolve.Hessian{I: 0, J: 2}, phi, convolve.Hessian{I: 1, J: 1}, phi3a, convolve.Sub)
		conv.HessianTriple(phi, convolve.Hessian{I: 0, J: 1}, phi, convolve.Hessian{I: 0, J: 1}, phi, convolve.Hessian{I: 2, J: 2}, phi3a, convolve.Sub)
		phi3a.ApplyInverseLaplacian()
		t.EndPhase()

		t.StartPhase(telemetry.PhasePhi3b)
		phi3b.ForceFourier()
		conv.SumOfHessians(phi, convolve.Hessian{I: 0, J: 0}, phi2, convolve.Hessian{I: 1, J: 1}, convolve.Hessian{I: 2, J: 2}, phi3b, convolve.Assign)
		conv.SumOfHessians(phi, convolve.Hessian{I: 1, J: 1}, phi2, convolve.Hessian{I: 2, J: 2}, convolve.Hessian{I: 0, J: 0}, phi3b, convolve.Add)
		conv.SumOfHessians(phi, convolve.Hessian{I: 2, J: 2}, phi2, convolve.Hessian{I: 0, J: 0}, convolve.Hessian{I: 1, J: 1}, phi3b, convolve.Add)
		conv.HessianPair(phi, convolve.Hessian{I: 0, J: 1}, phi2, convolve.Hessian{I: 0, J: 1}, phi3b, convolve.SubTwice)
		conv.HessianPair(phi, convolve.Hessian{I: 0, J: 2}, phi2, convolve.Hessian{I: 0, J: 2}, phi3b, convolve.SubTwice)
		conv.HessianPair(phi, convolve.Hessian{I: 1, J: 2}, phi2, convolve.Hessian{I: 1, J: 2}, phi3b, convolve.SubTwice)
		phi3b.ApplyInverseLaplacian()
		phi3b.Scale(0.5)
		t.EndPhase()

		t.StartPhase(telemetry.PhaseA3)
		for d := 0; d < 3; d++ {
			dp, dpp := cyclic[d][1], cyclic[d][2]
			A3[d].ForceFourier()
			conv.HessianPair(phi2, convolve.Hessian{I: d, J: dp}, phi, convolve.Hessian{I: d, J: dpp}, A3[d], convolve.Assign)
			conv.HessianPair(phi2, convolve.Hessian{I: d, J: dpp}, phi, convolve.Hessian{I: d, J: dp}, A3[d], convolve.Sub)
			conv.DifferenceOfHessians(phi, convolve.Hessian{I: dp, J: dpp}, phi2, convolve.Hessian{I: dp, J: dp}, convolve.Hessian{I: dpp, J: dpp}, A3[d], convolve.Add)
			conv.DifferenceOfHessians(phi2, convolve.Hessian{I: dp, J: dpp}, phi, convolve.Hessian{I: dp, J: dp}, convolve.Hessian{I: dpp, J: dpp}, A3[d], convolve.Sub)
			A3[d].ApplyInverseLaplacian()
		}
		t.EndPhase()
	}

	if gen.opts.SymplecticPT {
		t.StartPhase(telemetry.PhaseVNLO)
		for d := 0; d < 3; d++ {
			A3[d].ForceFourier()
			conv.GradientAndHessian(phi, convolve.Gradient{I: 0}, phi2, convolve.Hessian{I: d, J: 0}, A3[d], convolve.Assign)
			conv.GradientAndHessian(phi, convolve.Gradient{I: 1}, phi2, convolve.Hessian{I: d, J: 1}, A3[d], convolve.Add)
			conv.GradientAndHessian(phi, convolve.Gradient{I: 2}, phi2, convolve.Hessian{I: d, J: 2}, A3[d], convolve.Add)
		}
		t.EndPhase()
	}

	return nil
}
