package convolve

import (
	"fmt"

	"github.com/pthm-cable/lptgen/grid"
)

// Engine is the convolution contract consumed by the LPT assembler. All
// operand grids must be in Fourier representation; the destination always
// receives the Fourier-space result (its representation is forced). Engines
// reuse internal scratch grids and are not safe for concurrent use.
type Engine interface {
	// HessianPair accumulates (d2 a/da)(d2 b/db) into dst.
	HessianPair(a *grid.Grid, da Hessian, b *grid.Grid, db Hessian, dst *grid.Grid, op Op)
	// HessianTriple accumulates the three-way Hessian product into dst.
	HessianTriple(a *grid.Grid, da Hessian, b *grid.Grid, db Hessian, c *grid.Grid, dc Hessian, dst *grid.Grid, op Op)
	// SumOfHessians accumulates (d2 a/da)*(d2 b/db1 + d2 b/db2) into dst.
	// The padding cost is shared between the two b components.
	SumOfHessians(a *grid.Grid, da Hessian, b *grid.Grid, db1, db2 Hessian, dst *grid.Grid, op Op)
	// DifferenceOfHessians accumulates (d2 a/da)*(d2 b/db1 - d2 b/db2).
	DifferenceOfHessians(a *grid.Grid, da Hessian, b *grid.Grid, db1, db2 Hessian, dst *grid.Grid, op Op)
	// GradientAndHessian accumulates (d a/da)*(d2 b/db) into dst.
	GradientAndHessian(a *grid.Grid, da Gradient, b *grid.Grid, db Hessian, dst *grid.Grid, op Op)
}

// operand pairs a source field with the spectral multiplier of its requested
// derivative combination.
type operand struct {
	src    *grid.Grid
	factor func(k [3]float64) complex128
}

// engine is the shared strategy core: the naive strategy runs it with the
// working resolution equal to the base resolution, the Orszag strategy with
// the working resolution at 3/2 the base so products are formed above the
// base Nyquist frequency and truncated back down.
type engine struct {
	n       int     // base resolution
	m       int     // working resolution (m == n for naive)
	l       float64 // box length
	dealias bool

	cur, prod *grid.Grid // working-resolution scratch
}

func newEngine(n int, boxlen float64, dealias bool) engine {
	if n < 2 || n%2 != 0 {
		panic(fmt.Sprintf("convolve: resolution must be even and >= 2, got %d", n))
	}
	if boxlen <= 0 {
		panic(fmt.Sprintf("convolve: box length must be positive, got %g", boxlen))
	}
	m := n
	if dealias {
		m = 3 * n / 2
	}
	return engine{
		n:       n,
		m:       m,
		l:       boxlen,
		dealias: dealias,
		cur:     grid.New(m, boxlen),
		prod:    grid.New(m, boxlen),
	}
}

func (e *engine) HessianPair(a *grid.Grid, da Hessian, b *grid.Grid, db Hessian, dst *grid.Grid, op Op) {
	da.validate()
	db.validate()
	e.convolve([]operand{{a, da.factor}, {b, db.factor}}, dst, op)
}

func (e *engine) HessianTriple(a *grid.Grid, da Hessian, b *grid.Grid, db Hessian, c *grid.Grid, dc Hessian, dst *grid.Grid, op Op) {
	da.validate()
	db.validate()
	dc.validate()
	e.convolve([]operand{{a, da.factor}, {b, db.factor}, {c, dc.factor}}, dst, op)
}

func (e *engine) SumOfHessians(a *grid.Grid, da Hessian, b *grid.Grid, db1, db2 Hessian, dst *grid.Grid, op Op) {
	da.validate()
	db1.validate()
	db2.validate()
	sum := func(k [3]float64) complex128 { return db1.factor(k) + db2.factor(k) }
	e.convolve([]operand{{a, da.factor}, {b, sum}}, dst, op)
}

func (e *engine) DifferenceOfHessians(a *grid.Grid, da Hessian, b *grid.Grid, db1, db2 Hessian, dst *grid.Grid, op Op) {
	da.validate()
	db1.validate()
	db2.validate()
	diff := func(k [3]float64) complex128 { return db1.factor(k) - db2.factor(k) }
	e.convolve([]operand{{a, da.factor}, {b, diff}}, dst, op)
}

func (e *engine) GradientAndHessian(a *grid.Grid, da Gradient, b *grid.Grid, db Hessian, dst *grid.Grid, op Op) {
	da.validate()
	db.validate()
	e.convolve([]operand{{a, da.factor}, {b, db.factor}}, dst, op)
}

// convolve realizes every operand's derivative field in real space at the
// working resolution, multiplies them pointwise, transforms the product back
// and folds the truncated result into dst through op.
func (e *engine) convolve(ops []operand, dst *grid.Grid, op Op) {
	for _, o := range ops {
		e.checkShape(o.src)
	}
	e.checkShape(dst)

	e.realize(ops[0], e.prod)
	for _, o := range ops[1:] {
		e.realize(o, e.cur)
		e.prod.Mul(e.cur)
	}

	if err := e.prod.ToFourier(); err != nil {
		panic("convolve: " + err.Error())
	}
	e.truncate(e.prod, dst, op)
}

func (e *engine) checkShape(g *grid.Grid) {
	if g.N() != e.n || g.BoxLength() != e.l {
		panic(fmt.Sprintf("convolve: grid shape %d/%g does not match engine %d/%g",
			g.N(), g.BoxLength(), e.n, e.l))
	}
}

// padIndex maps a signed base frequency index onto the working lattice.
func (e *engine) padIndex(i int) int {
	if i <= e.n/2 {
		return i
	}
	return i + e.m - e.n
}

// isNyquist reports whether a base mode sits on a Nyquist plane. Such modes
// have no unambiguous image in the padded spectrum and are dropped by the
// dealiased strategy.
func (e *engine) isNyquist(i, j, kz int) bool {
	ny := e.n / 2
	return i == ny || j == ny || kz == ny
}

// realize copies src's spectrum onto the working grid with the derivative
// factor applied, transforms to real space and renormalizes the amplitude so
// the samples sit in the base convention regardless of padding.
func (e *engine) realize(o operand, work *grid.Grid) {
	n, h := e.n, e.n/2+1
	hm := e.m/2 + 1
	src := o.src.Coeffs()

	work.ForceFourier()
	wc := work.Coeffs()
	if e.m != n {
		for i := range wc {
			wc[i] = 0
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for kz := 0; kz < h; kz++ {
				if e.dealias && e.isNyquist(i, j, kz) {
					continue
				}
				k := o.src.Wavevector(i, j, kz)
				wc[(e.padIndex(i)*e.m+e.padIndex(j))*hm+kz] =
					o.factor(k) * src[(i*n+j)*h+kz]
			}
		}
	}

	if err := work.ToReal(); err != nil {
		panic("convolve: " + err.Error())
	}
	if e.m != n {
		s := float64(e.m) / float64(n)
		work.Scale(s * s * s)
	}
}

// truncate folds the working-resolution product spectrum back onto the base
// resolution through op, rescaling forward-sum amplitudes to the base
// convention. dst is forced to the Fourier representation.
func (e *engine) truncate(work, dst *grid.Grid, op Op) {
	n, h := e.n, e.n/2+1
	hm := e.m/2 + 1
	s := complex(1, 0)
	if e.m != n {
		r := float64(n) / float64(e.m)
		s = complex(r*r*r, 0)
	}

	dst.ForceFourier()
	dc := dst.Coeffs()
	wc := work.Coeffs()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for kz := 0; kz < h; kz++ {
				var term complex128
				if !e.dealias || !e.isNyquist(i, j, kz) {
					term = s * wc[(e.padIndex(i)*e.m+e.padIndex(j))*hm+kz]
				}
				idx := (i*n+j)*h + kz
				dc[idx] = op.combine(term, dc[idx])
			}
		}
	}
}
