package convolve

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/pthm-cable/lptgen/grid"
)

func TestOpCombine(t *testing.T) {
	for _, tc := range []struct {
		op   Op
		want complex128
	}{
		{Assign, 5},
		{Add, 7},
		{Sub, -3},
		{AddTwice, 12},
		{SubTwice, -8},
	} {
		t.Run(tc.op.String(), func(t *testing.T) {
			if got := tc.op.combine(5, 2); got != tc.want {
				t.Errorf("combine(5, 2): got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDerivativeFactors(t *testing.T) {
	k := [3]float64{2, 3, 5}
	if got, want := (Hessian{I: 0, J: 1}).factor(k), complex(-6, 0); got != want {
		t.Errorf("hessian factor: got %v, want %v", got, want)
	}
	if got, want := (Hessian{I: 2, J: 2}).factor(k), complex(-25, 0); got != want {
		t.Errorf("diagonal hessian factor: got %v, want %v", got, want)
	}
	if got, want := (Gradient{I: 1}).factor(k), complex(0, 3); got != want {
		t.Errorf("gradient factor: got %v, want %v", got, want)
	}
}

func TestSelectorValidatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("out-of-range hessian axis did not panic")
		}
	}()
	(Hessian{I: 0, J: 3}).validate()
}

// singleMode builds a grid holding cos(k.x) for the lattice mode (mi,mj,mk),
// returned in Fourier representation.
func singleMode(n int, l float64, mi, mj, mk int) *grid.Grid {
	g := grid.New(n, l)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				ph := 2 * math.Pi * float64(mi*i+mj*j+mk*k) / float64(n)
				g.SetSample(i, j, k, math.Cos(ph))
			}
		}
	}
	if err := g.ToFourier(); err != nil {
		panic(err)
	}
	return g
}

// TestHessianPairExact checks a product of two well-separated low modes
// against the analytic convolution. a = cos(k1 x), b = cos(k2 y):
// (d2a/dx2)(d2b/dy2) = k1x^2 k2y^2 cos(k1 x) cos(k2 y), whose spectrum has
// amplitude k1x^2 k2y^2 n^3/4 at the four combination modes. Low modes incur
// no aliasing, so the naive and dealiased engines must agree.
func TestHessianPairExact(t *testing.T) {
	const n = 16
	l := 2 * math.Pi * float64(n) // fundamental k = 1/ unit spacing
	a := singleMode(n, l, 1, 0, 0)
	b := singleMode(n, l, 0, 1, 0)

	kf := 2 * math.Pi / l
	want := kf * kf * kf * kf * float64(n*n*n) / 4

	for _, tc := range []struct {
		name string
		eng  Engine
	}{
		{"naive", NewNaive(n, l)},
		{"orszag", NewOrszag(n, l)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dst := grid.New(n, l)
			tc.eng.HessianPair(a, Hessian{I: 0, J: 0}, b, Hessian{I: 1, J: 1}, dst, Assign)

			got := dst.Coeff(1, 1, 0)
			if math.Abs(real(got)-want) > 1e-9*want || math.Abs(imag(got)) > 1e-9*want {
				t.Errorf("coefficient at (1,1,0): got %v, want %g", got, want)
			}
			got = dst.Coeff(1, n-1, 0)
			if math.Abs(real(got)-want) > 1e-9*want || math.Abs(imag(got)) > 1e-9*want {
				t.Errorf("coefficient at (1,-1,0): got %v, want %g", got, want)
			}
			// Nothing anywhere else.
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					for kz := 0; kz <= n/2; kz++ {
						if kz == 0 && (i == 1 || i == n-1) && (j == 1 || j == n-1) {
							continue
						}
						if c := dst.Coeff(i, j, kz); cmplx.Abs(c) > 1e-9*want {
							t.Fatalf("unexpected power at (%d,%d,%d): %v", i, j, kz, c)
						}
					}
				}
			}
		})
	}
}

// TestOrszagRemovesAliasing squares a mode near the Nyquist frequency. The
// second harmonic exceeds the representable band and must vanish under the
// dealiased engine, while the naive engine folds it back onto a low mode.
func TestOrszagRemovesAliasing(t *testing.T) {
	const n = 16
	l := 2 * math.Pi * float64(n)
	ma := n/2 - 1 // harmonic 2*ma aliases to -2
	a := singleMode(n, l, ma, 0, 0)

	naive := grid.New(n, l)
	NewNaive(n, l).HessianPair(a, Hessian{I: 0, J: 0}, a, Hessian{I: 0, J: 0}, naive, Assign)
	clean := grid.New(n, l)
	NewOrszag(n, l).HessianPair(a, Hessian{I: 0, J: 0}, a, Hessian{I: 0, J: 0}, clean, Assign)

	aliased := naive.Coeff(n-2, 0, 0)
	if cmplx.Abs(aliased) == 0 {
		t.Fatal("expected the naive engine to alias the second harmonic onto (-2,0,0)")
	}
	if got := clean.Coeff(n-2, 0, 0); cmplx.Abs(got) > 1e-6*cmplx.Abs(aliased) {
		t.Errorf("dealiased engine kept aliased power at (-2,0,0): %v", got)
	}

	// Both engines agree on the in-band DC term of cos^2.
	kf := 2 * math.Pi / l
	k2 := kf * float64(ma) * kf * float64(ma)
	wantDC := k2 * k2 * float64(n*n*n) / 2
	for name, g := range map[string]*grid.Grid{"naive": naive, "orszag": clean} {
		if got := real(g.Coeff(0, 0, 0)); math.Abs(got-wantDC) > 1e-9*wantDC {
			t.Errorf("%s DC term: got %g, want %g", name, got, wantDC)
		}
	}
}

// TestHessianTripleExact checks the three-way product of separated low modes
// against the analytic convolution.
func TestHessianTripleExact(t *testing.T) {
	const n = 8
	l := 2 * math.Pi * float64(n)
	a := singleMode(n, l, 1, 0, 0)
	b := singleMode(n, l, 0, 1, 0)
	c := singleMode(n, l, 0, 0, 1)

	eng := NewOrszag(n, l)
	dst := grid.New(n, l)
	eng.HessianTriple(a, Hessian{I: 0, J: 0}, b, Hessian{I: 1, J: 1}, c, Hessian{I: 2, J: 2}, dst, Assign)

	// cos(x)cos(y)cos(z) spreads n^3/8 over its eight combination modes;
	// the hessian factors contribute (-kf^2)^3.
	kf := 2 * math.Pi / l
	want := -kf * kf * kf * kf * kf * kf * float64(n*n*n) / 8
	got := real(dst.Coeff(1, 1, 1))
	if math.Abs(got-want) > 1e-9*math.Abs(want) {
		t.Errorf("coefficient at (1,1,1): got %g, want %g", got, want)
	}
}

func TestSumAndDifferenceOfHessians(t *testing.T) {
	const n = 8
	l := 2 * math.Pi * float64(n)
	a := singleMode(n, l, 1, 0, 0)
	b := singleMode(n, l, 0, 1, 0)
	eng := NewOrszag(n, l)

	sum := grid.New(n, l)
	eng.SumOfHessians(a, Hessian{I: 0, J: 0}, b, Hessian{I: 1, J: 1}, Hessian{I: 1, J: 1}, sum, Assign)
	pair := grid.New(n, l)
	eng.HessianPair(a, Hessian{I: 0, J: 0}, b, Hessian{I: 1, J: 1}, pair, Assign)

	// Summing the same selector twice doubles the pair result.
	sc, pc := sum.Coeffs(), pair.Coeffs()
	for i := range sc {
		d := sc[i] - 2*pc[i]
		if cmplx.Abs(d) > 1e-6 {
			t.Fatalf("mode %d: sum %v != twice pair %v", i, sc[i], pc[i])
		}
	}

	diff := grid.New(n, l)
	eng.DifferenceOfHessians(a, Hessian{I: 0, J: 0}, b, Hessian{I: 1, J: 1}, Hessian{I: 1, J: 1}, diff, Assign)
	for i, v := range diff.Coeffs() {
		if cmplx.Abs(v) > 1e-9 {
			t.Fatalf("self-difference mode %d: got %v, want 0", i, v)
		}
	}
}

func TestAccumulationAcrossCalls(t *testing.T) {
	const n = 8
	l := 2 * math.Pi * float64(n)
	a := singleMode(n, l, 1, 0, 0)
	b := singleMode(n, l, 0, 1, 0)
	eng := NewOrszag(n, l)

	dst := grid.New(n, l)
	eng.HessianPair(a, Hessian{I: 0, J: 0}, b, Hessian{I: 1, J: 1}, dst, Assign)
	eng.HessianPair(a, Hessian{I: 0, J: 0}, b, Hessian{I: 1, J: 1}, dst, Sub)

	for i, v := range dst.Coeffs() {
		if cmplx.Abs(v) > 1e-9 {
			t.Fatalf("assign-then-subtract mode %d: got %v, want 0", i, v)
		}
	}
}

func TestGradientAndHessian(t *testing.T) {
	const n = 8
	l := 2 * math.Pi * float64(n)
	a := singleMode(n, l, 1, 0, 0)
	b := singleMode(n, l, 0, 1, 0)

	eng := NewOrszag(n, l)
	dst := grid.New(n, l)
	eng.GradientAndHessian(a, Gradient{I: 0}, b, Hessian{I: 1, J: 1}, dst, Assign)

	// (da/dx)(d2b/dy2) = kf^3 sin(x) cos(y): amplitude at (1,1,0) is
	// kf^3 * n^3/4 with a -i phase from the sine.
	kf := 2 * math.Pi / l
	want := complex(0, -kf*kf*kf*float64(n*n*n)/4)
	got := dst.Coeff(1, 1, 0)
	if cmplx.Abs(got-want) > 1e-9*cmplx.Abs(want) {
		t.Errorf("coefficient at (1,1,0): got %v, want %v", got, want)
	}
}

func TestEngineShapeMismatchPanics(t *testing.T) {
	eng := NewOrszag(8, 100)
	a := grid.New(16, 100)
	a.ForceFourier()
	dst := grid.New(8, 100)
	defer func() {
		if recover() == nil {
			t.Error("shape mismatch did not panic")
		}
	}()
	eng.HessianPair(a, Hessian{I: 0, J: 0}, a, Hessian{I: 0, J: 0}, dst, Assign)
}
