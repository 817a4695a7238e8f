// Package grid implements periodic 3D scalar fields with dual real/Fourier
// representation and spectral operators.
//
// A Grid holds a real-valued field on an n^3 lattice. In Fourier
// representation the field is stored as the Hermitian half spectrum,
// n x n x (n/2+1) complex coefficients. Exactly one representation is valid
// at any time; accessing the other one is a programming error and panics.
// Stored coefficients follow the unnormalized forward-DFT convention, the
// inverse transform applies the 1/n^3 normalization.
package grid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Representation tags which buffer of a grid currently holds valid data.
type Representation int

const (
	Real Representation = iota
	Fourier
)

func (r Representation) String() string {
	switch r {
	case Real:
		return "real"
	case Fourier:
		return "fourier"
	}
	return fmt.Sprintf("Representation(%d)", int(r))
}

// ErrRepresentation is returned by ToReal/ToFourier when the grid already is
// in the requested representation. Callers switching from an unknown state
// use ForceReal/ForceFourier instead.
var ErrRepresentation = errors.New("grid: already in requested representation")

// Grid is a real-valued periodic scalar field on an n^3 lattice of physical
// side length L.
type Grid struct {
	n   int
	l   float64
	rep Representation

	data  []float64    // samples, valid when rep == Real
	cdata []complex128 // half spectrum, valid when rep == Fourier

	plans []*fftPlan // per-worker transform plans, built lazily
}

// New allocates a grid with n points per axis and box length boxlen.
// Both representation buffers are allocated zeroed; the grid starts in the
// Real representation.
func New(n int, boxlen float64) *Grid {
	if n < 2 {
		panic(fmt.Sprintf("grid: resolution must be >= 2, got %d", n))
	}
	if boxlen <= 0 {
		panic(fmt.Sprintf("grid: box length must be positive, got %g", boxlen))
	}
	return &Grid{
		n:     n,
		l:     boxlen,
		rep:   Real,
		data:  make([]float64, n*n*n),
		cdata: make([]complex128, n*n*(n/2+1)),
	}
}

// N returns the number of points per axis.
func (g *Grid) N() int { return g.n }

// BoxLength returns the physical side length.
func (g *Grid) BoxLength() float64 { return g.l }

// Rep returns the currently valid representation.
func (g *Grid) Rep() Representation { return g.rep }

// NumModes returns the number of stored Fourier coefficients, n*n*(n/2+1).
func (g *Grid) NumModes() int { return g.n * g.n * (g.n/2 + 1) }

// Samples returns the real-space sample buffer.
func (g *Grid) Samples() []float64 {
	if g.rep != Real {
		panic("grid: samples requested while field is in Fourier representation")
	}
	return g.data
}

// Coeffs returns the Fourier coefficient buffer.
func (g *Grid) Coeffs() []complex128 {
	if g.rep != Fourier {
		panic("grid: coefficients requested while field is in real representation")
	}
	return g.cdata
}

// SampleIndex returns the flat index of real-space sample (i,j,k).
func (g *Grid) SampleIndex(i, j, k int) int {
	return (i*g.n+j)*g.n + k
}

// ModeIndex returns the flat index of Fourier mode (i,j,kz), kz in [0, n/2].
func (g *Grid) ModeIndex(i, j, kz int) int {
	return (i*g.n+j)*(g.n/2+1) + kz
}

// Sample returns the real-space sample at (i,j,k).
func (g *Grid) Sample(i, j, k int) float64 {
	return g.Samples()[g.SampleIndex(i, j, k)]
}

// SetSample sets the real-space sample at (i,j,k).
func (g *Grid) SetSample(i, j, k int, v float64) {
	g.Samples()[g.SampleIndex(i, j, k)] = v
}

// Coeff returns the Fourier coefficient at (i,j,kz).
func (g *Grid) Coeff(i, j, kz int) complex128 {
	return g.Coeffs()[g.ModeIndex(i, j, kz)]
}

// fold maps a lattice index to its signed frequency index under Nyquist
// folding: 0..n/2 stay positive, the rest alias to negative frequencies.
func fold(i, n int) int {
	if i <= n/2 {
		return i
	}
	return i - n
}

// Wavevector returns the physical wavevector of mode (i,j,kz) following the
// periodic convention k = 2*pi*m/L with m in the signed Nyquist range.
func (g *Grid) Wavevector(i, j, kz int) [3]float64 {
	kf := 2.0 * math.Pi / g.l
	return [3]float64{
		kf * float64(fold(i, g.n)),
		kf * float64(fold(j, g.n)),
		kf * float64(kz),
	}
}

// Position returns the physical position of sample (i,j,k).
func (g *Grid) Position(i, j, k int) [3]float64 {
	h := g.l / float64(g.n)
	return [3]float64{h * float64(i), h * float64(j), h * float64(k)}
}

// ForceReal marks the real representation valid without transforming.
// Existing sample data is kept as-is; used when (re)building a field from
// scratch in real space.
func (g *Grid) ForceReal() { g.rep = Real }

// ForceFourier marks the Fourier representation valid without transforming.
func (g *Grid) ForceFourier() { g.rep = Fourier }

// ToFourier transforms the field to Fourier representation in place.
// Returns ErrRepresentation if the field already is in Fourier space.
func (g *Grid) ToFourier() error {
	if g.rep == Fourier {
		return fmt.Errorf("%w: %s", ErrRepresentation, Fourier)
	}
	g.forward()
	g.rep = Fourier
	return nil
}

// ToReal transforms the field to real representation in place.
// Returns ErrRepresentation if the field already is in real space.
func (g *Grid) ToReal() error {
	if g.rep == Real {
		return fmt.Errorf("%w: %s", ErrRepresentation, Real)
	}
	g.backward()
	g.rep = Real
	return nil
}

// Copy returns a deep copy of the grid sharing no buffers with the original.
func (g *Grid) Copy() *Grid {
	c := New(g.n, g.l)
	c.rep = g.rep
	copy(c.data, g.data)
	copy(c.cdata, g.cdata)
	return c
}

// Scale multiplies every element of the valid representation by s.
func (g *Grid) Scale(s float64) {
	if g.rep == Real {
		d := g.data
		parallelRange(len(d), func(_, lo, hi int) {
			for i := lo; i < hi; i++ {
				d[i] *= s
			}
		})
		return
	}
	cs := complex(s, 0)
	d := g.cdata
	parallelRange(len(d), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			d[i] *= cs
		}
	})
}

// Add accumulates o into g elementwise. Both grids must share shape and
// representation.
func (g *Grid) Add(o *Grid) {
	g.checkCompatible(o)
	if g.rep == Real {
		a, b := g.data, o.data
		parallelRange(len(a), func(_, lo, hi int) {
			for i := lo; i < hi; i++ {
				a[i] += b[i]
			}
		})
		return
	}
	a, b := g.cdata, o.cdata
	parallelRange(len(a), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			a[i] += b[i]
		}
	})
}

// Mul multiplies g by o elementwise. Both grids must share shape and
// representation.
func (g *Grid) Mul(o *Grid) {
	g.checkCompatible(o)
	if g.rep == Real {
		a, b := g.data, o.data
		parallelRange(len(a), func(_, lo, hi int) {
			for i := lo; i < hi; i++ {
				a[i] *= b[i]
			}
		})
		return
	}
	a, b := g.cdata, o.cdata
	parallelRange(len(a), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			a[i] *= b[i]
		}
	})
}

// Std returns the population standard deviation of the real-space samples.
func (g *Grid) Std() float64 {
	return stat.PopStdDev(g.Samples(), nil)
}

func (g *Grid) checkCompatible(o *Grid) {
	if g.n != o.n || g.l != o.l {
		panic(fmt.Sprintf("grid: shape mismatch: %d/%g vs %d/%g", g.n, g.l, o.n, o.l))
	}
	if g.rep != o.rep {
		panic(fmt.Sprintf("grid: representation mismatch: %s vs %s", g.rep, o.rep))
	}
}
