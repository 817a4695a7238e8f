package lpt

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/pthm-cable/lptgen/grid"
)

// TestPlaneWaveCurrent pins the semiclassical velocity convention: for
// psi = A exp(i k x) the current over the density is hbar*k along the wave
// axis, independent of the amplitude, and zero on the other axes.
func TestPlaneWaveCurrent(t *testing.T) {
	const n = 8
	const l = 100.0
	const hbar = 0.5
	k := 2.0 * math.Pi / l

	for _, amp := range []float64{1.0, 2.0} {
		psi := grid.NewComplex(n, l)
		ps := psi.Samples()
		for i := 0; i < n; i++ {
			phase := cmplx.Exp(complex(0, k*l*float64(i)/n))
			for j := 0; j < n; j++ {
				for kk := 0; kk < n; kk++ {
					ps[psi.Index(i, j, kk)] = complex(amp, 0) * phase
				}
			}
		}

		rho := make([]float64, n*n*n)
		for i := range rho {
			rho[i] = amp*amp - 1.0
		}
		vs := make([]float64, n*n*n)

		for d := 0; d < 3; d++ {
			gradPsi := psi.Copy()
			if err := gradPsi.ToFourier(); err != nil {
				t.Fatal(err)
			}
			axis := d
			gradPsi.MapCoefficients(func(kv [3]float64, v complex128) complex128 {
				return v * complex(0, kv[axis])
			}, 0)
			if err := gradPsi.ToReal(); err != nil {
				t.Fatal(err)
			}

			currentVelocity(n, hbar, ps, gradPsi.Samples(), rho, vs)

			want := 0.0
			if d == 0 {
				want = hbar * k
			}
			for i, v := range vs {
				if math.Abs(v-want) > 1e-9*hbar*k {
					t.Fatalf("amp %g axis %d sample %d: got %g, want %g", amp, d, i, v, want)
				}
			}
		}
	}
}

func TestImagConjProduct(t *testing.T) {
	a := complex(1, 2)
	b := complex(3, -1)
	if got, want := imagConjProduct(a, b), imag(cmplx.Conj(a)*b); got != want {
		t.Errorf("got %g, want %g", got, want)
	}
}
