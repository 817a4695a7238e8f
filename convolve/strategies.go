package convolve

// Naive evaluates products at the base resolution. Cheap, but the pointwise
// product of band-limited fields has spectral content above the base Nyquist
// frequency which folds back as aliasing error.
type Naive struct {
	engine
}

// NewNaive returns a direct-evaluation engine for n^3 grids of box length
// boxlen.
func NewNaive(n int, boxlen float64) *Naive {
	return &Naive{newEngine(n, boxlen, false)}
}

// Orszag evaluates products on a zero-padded 3/2-resolution lattice and
// truncates the result back to base resolution, eliminating aliasing from
// quadratic and cubic terms.
type Orszag struct {
	engine
}

// NewOrszag returns a dealiased engine for n^3 grids of box length boxlen.
// n must be even.
func NewOrszag(n int, boxlen float64) *Orszag {
	return &Orszag{newEngine(n, boxlen, true)}
}

var (
	_ Engine = (*Naive)(nil)
	_ Engine = (*Orszag)(nil)
)
