package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ComplexGrid is a complex-valued periodic field on an n^3 lattice. Unlike
// Grid there is no Hermitian symmetry to exploit, so the Fourier
// representation is the full n^3 spectrum held in the same buffer.
// It carries the same representation tag discipline as Grid.
type ComplexGrid struct {
	n   int
	l   float64
	rep Representation

	data []complex128

	plans []*cfftPlan
}

type cfftPlan struct {
	cfft *fourier.CmplxFFT
	col  []complex128
}

// NewComplex allocates a zeroed complex grid in the Real representation.
func NewComplex(n int, boxlen float64) *ComplexGrid {
	if n < 2 {
		panic(fmt.Sprintf("grid: resolution must be >= 2, got %d", n))
	}
	if boxlen <= 0 {
		panic(fmt.Sprintf("grid: box length must be positive, got %g", boxlen))
	}
	return &ComplexGrid{
		n:    n,
		l:    boxlen,
		rep:  Real,
		data: make([]complex128, n*n*n),
	}
}

// N returns the number of points per axis.
func (g *ComplexGrid) N() int { return g.n }

// BoxLength returns the physical side length.
func (g *ComplexGrid) BoxLength() float64 { return g.l }

// Rep returns the currently valid representation.
func (g *ComplexGrid) Rep() Representation { return g.rep }

// Index returns the flat index of lattice point (i,j,k); sample and mode
// layouts coincide for the full spectrum.
func (g *ComplexGrid) Index(i, j, k int) int {
	return (i*g.n+j)*g.n + k
}

// Samples returns the complex sample buffer.
func (g *ComplexGrid) Samples() []complex128 {
	if g.rep != Real {
		panic("grid: samples requested while field is in Fourier representation")
	}
	return g.data
}

// Coeffs returns the full-spectrum coefficient buffer.
func (g *ComplexGrid) Coeffs() []complex128 {
	if g.rep != Fourier {
		panic("grid: coefficients requested while field is in real representation")
	}
	return g.data
}

// Wavevector returns the physical wavevector of mode (i,j,k) with Nyquist
// folding applied on all three axes.
func (g *ComplexGrid) Wavevector(i, j, k int) [3]float64 {
	kf := 2.0 * math.Pi / g.l
	return [3]float64{
		kf * float64(fold(i, g.n)),
		kf * float64(fold(j, g.n)),
		kf * float64(fold(k, g.n)),
	}
}

// Copy returns a deep copy sharing no buffers with the original.
func (g *ComplexGrid) Copy() *ComplexGrid {
	c := NewComplex(g.n, g.l)
	c.rep = g.rep
	copy(c.data, g.data)
	return c
}

// ToFourier transforms to Fourier representation in place.
func (g *ComplexGrid) ToFourier() error {
	if g.rep == Fourier {
		return fmt.Errorf("%w: %s", ErrRepresentation, Fourier)
	}
	g.transform(false)
	g.rep = Fourier
	return nil
}

// ToReal transforms to real representation in place, applying the 1/n^3
// normalization.
func (g *ComplexGrid) ToReal() error {
	if g.rep == Real {
		return fmt.Errorf("%w: %s", ErrRepresentation, Real)
	}
	g.transform(true)
	norm := complex(1.0/(float64(g.n)*float64(g.n)*float64(g.n)), 0)
	d := g.data
	parallelRange(len(d), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			d[i] *= norm
		}
	})
	g.rep = Real
	return nil
}

// MapCoefficients replaces every non-zero mode with f(k, v) and sets the DC
// coefficient to dc.
func (g *ComplexGrid) MapCoefficients(f func(k [3]float64, v complex128) complex128, dc complex128) {
	c := g.Coeffs()
	n := g.n
	parallelRows(n, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				for k := 0; k < n; k++ {
					idx := (i*n+j)*n + k
					c[idx] = f(g.Wavevector(i, j, k), c[idx])
				}
			}
		}
	})
	c[0] = dc
}

func (g *ComplexGrid) cfftPlans() []*cfftPlan {
	if w := maxWorkers(); len(g.plans) < w {
		g.plans = make([]*cfftPlan, w)
		for i := range g.plans {
			g.plans[i] = &cfftPlan{
				cfft: fourier.NewCmplxFFT(g.n),
				col:  make([]complex128, g.n),
			}
		}
	}
	return g.plans
}

// transform runs the unnormalized complex DFT along all three axes;
// inverse selects the sign of the exponent.
func (g *ComplexGrid) transform(inverse bool) {
	n := g.n
	plans := g.cfftPlans()

	apply := func(p *cfftPlan, buf []complex128) {
		if inverse {
			p.cfft.Sequence(buf, buf)
		} else {
			p.cfft.Coefficients(buf, buf)
		}
	}

	// z axis: contiguous rows
	parallelRows(n, func(w, lo, hi int) {
		p := plans[w]
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				row := (i*n + j) * n
				apply(p, g.data[row:row+n])
			}
		}
	})

	// y axis
	parallelRows(n, func(w, lo, hi int) {
		p := plans[w]
		for i := lo; i < hi; i++ {
			for k := 0; k < n; k++ {
				for j := 0; j < n; j++ {
					p.col[j] = g.data[(i*n+j)*n+k]
				}
				apply(p, p.col)
				for j := 0; j < n; j++ {
					g.data[(i*n+j)*n+k] = p.col[j]
				}
			}
		}
	})

	// x axis
	parallelRows(n, func(w, lo, hi int) {
		p := plans[w]
		for j := lo; j < hi; j++ {
			for k := 0; k < n; k++ {
				for i := 0; i < n; i++ {
					p.col[i] = g.data[(i*n+j)*n+k]
				}
				apply(p, p.col)
				for i := 0; i < n; i++ {
					g.data[(i*n+j)*n+k] = p.col[i]
				}
			}
		}
	})
}
