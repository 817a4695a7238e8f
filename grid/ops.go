package grid

import (
	"math"
	"math/cmplx"
)

// MapCoefficients replaces every non-zero-wavenumber Fourier coefficient with
// f(k, v), where k is the physical wavevector of the mode. The k=0 (DC)
// coefficient is set to dc instead of being passed through f, since most
// spectral kernels divide by |k|.
func (g *Grid) MapCoefficients(f func(k [3]float64, v complex128) complex128, dc complex128) {
	c := g.Coeffs()
	n, h := g.n, g.n/2+1
	parallelRows(n, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				for kz := 0; kz < h; kz++ {
					idx := (i*n+j)*h + kz
					c[idx] = f(g.Wavevector(i, j, kz), c[idx])
				}
			}
		}
	})
	c[0] = dc
}

// MapSamples replaces every real-space sample with f(r, v), where r is the
// physical position of the sample.
func (g *Grid) MapSamples(f func(r [3]float64, v float64) float64) {
	d := g.Samples()
	n := g.n
	parallelRows(n, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				for k := 0; k < n; k++ {
					idx := (i*n+j)*n + k
					d[idx] = f(g.Position(i, j, k), d[idx])
				}
			}
		}
	})
}

// ApplyInverseLaplacian multiplies every non-zero mode by -1/|k|^2, solving
// the Poisson relation in place. The zero mode is left untouched.
func (g *Grid) ApplyInverseLaplacian() {
	c := g.Coeffs()
	dc := c[0]
	g.MapCoefficients(func(k [3]float64, v complex128) complex128 {
		k2 := k[0]*k[0] + k[1]*k[1] + k[2]*k[2]
		return v * complex(-1.0/k2, 0)
	}, dc)
}

// ApplyNegativeLaplacian multiplies every non-zero mode by |k|^2, the inverse
// of ApplyInverseLaplacian away from the zero mode.
func (g *Grid) ApplyNegativeLaplacian() {
	c := g.Coeffs()
	dc := c[0]
	g.MapCoefficients(func(k [3]float64, v complex128) complex128 {
		k2 := k[0]*k[0] + k[1]*k[1] + k[2]*k[2]
		return v * complex(k2, 0)
	}, dc)
}

// ZeroDCMode sets the k=0 coefficient to zero. A Gaussian density field has
// no physically meaningful mean; the coefficient stays zero through any
// operation that does not re-run the forward transform.
func (g *Grid) ZeroDCMode() {
	g.Coeffs()[0] = 0
}

// Stagger shifts the field by half a grid spacing along every axis via a
// Fourier phase factor, used for the second sheet of a body-centered lattice.
// The field may be in either representation and is returned in real space.
func (g *Grid) Stagger() {
	if g.rep == Real {
		if err := g.ToFourier(); err != nil {
			panic("grid: " + err.Error())
		}
	}
	half := 0.5 * g.l / float64(g.n)
	dc := g.cdata[0]
	g.MapCoefficients(func(k [3]float64, v complex128) complex128 {
		phase := half * (k[0] + k[1] + k[2])
		return v * cmplx.Exp(complex(0, phase))
	}, dc)
	if err := g.ToReal(); err != nil {
		panic("grid: " + err.Error())
	}
}

// RMS returns sqrt(<f^2>) over the real-space samples.
func (g *Grid) RMS() float64 {
	d := g.Samples()
	var sum float64
	for _, v := range d {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(d)))
}
