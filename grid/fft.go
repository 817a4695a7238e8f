package grid

import "gonum.org/v1/gonum/dsp/fourier"

// The 3D transforms are composed from gonum's 1D kernels: a real FFT along
// the contiguous z axis producing the half spectrum, then complex FFTs along
// y and x. gonum transform objects carry scratch state, so every worker gets
// its own plan.

type fftPlan struct {
	rfft *fourier.FFT
	cfft *fourier.CmplxFFT
	col  []complex128
	row  []float64
}

func newFFTPlan(n int) *fftPlan {
	return &fftPlan{
		rfft: fourier.NewFFT(n),
		cfft: fourier.NewCmplxFFT(n),
		col:  make([]complex128, n),
		row:  make([]float64, n),
	}
}

func (g *Grid) fftPlans() []*fftPlan {
	if w := maxWorkers(); len(g.plans) < w {
		g.plans = make([]*fftPlan, w)
		for i := range g.plans {
			g.plans[i] = newFFTPlan(g.n)
		}
	}
	return g.plans
}

// forward computes the unnormalized forward DFT of data into cdata.
func (g *Grid) forward() {
	n, h := g.n, g.n/2+1
	plans := g.fftPlans()

	// z axis: real FFT over each contiguous sample row
	parallelRows(n, func(w, lo, hi int) {
		p := plans[w]
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				row := i*n + j
				p.rfft.Coefficients(g.cdata[row*h:row*h+h], g.data[row*n:row*n+n])
			}
		}
	})

	// y axis: complex FFT on each (i, kz) column
	parallelRows(n, func(w, lo, hi int) {
		p := plans[w]
		for i := lo; i < hi; i++ {
			for kz := 0; kz < h; kz++ {
				for j := 0; j < n; j++ {
					p.col[j] = g.cdata[(i*n+j)*h+kz]
				}
				p.cfft.Coefficients(p.col, p.col)
				for j := 0; j < n; j++ {
					g.cdata[(i*n+j)*h+kz] = p.col[j]
				}
			}
		}
	})

	// x axis: complex FFT on each (j, kz) column
	parallelRows(n, func(w, lo, hi int) {
		p := plans[w]
		for j := lo; j < hi; j++ {
			for kz := 0; kz < h; kz++ {
				for i := 0; i < n; i++ {
					p.col[i] = g.cdata[(i*n+j)*h+kz]
				}
				p.cfft.Coefficients(p.col, p.col)
				for i := 0; i < n; i++ {
					g.cdata[(i*n+j)*h+kz] = p.col[i]
				}
			}
		}
	})
}

// backward computes the inverse DFT of cdata into data, applying the 1/n^3
// normalization. cdata is consumed as scratch; the Fourier representation is
// invalid afterwards by contract.
func (g *Grid) backward() {
	n, h := g.n, g.n/2+1
	plans := g.fftPlans()
	norm := 1.0 / (float64(n) * float64(n) * float64(n))

	// x axis inverse
	parallelRows(n, func(w, lo, hi int) {
		p := plans[w]
		for j := lo; j < hi; j++ {
			for kz := 0; kz < h; kz++ {
				for i := 0; i < n; i++ {
					p.col[i] = g.cdata[(i*n+j)*h+kz]
				}
				p.cfft.Sequence(p.col, p.col)
				for i := 0; i < n; i++ {
					g.cdata[(i*n+j)*h+kz] = p.col[i]
				}
			}
		}
	})

	// y axis inverse
	parallelRows(n, func(w, lo, hi int) {
		p := plans[w]
		for i := lo; i < hi; i++ {
			for kz := 0; kz < h; kz++ {
				for j := 0; j < n; j++ {
					p.col[j] = g.cdata[(i*n+j)*h+kz]
				}
				p.cfft.Sequence(p.col, p.col)
				for j := 0; j < n; j++ {
					g.cdata[(i*n+j)*h+kz] = p.col[j]
				}
			}
		}
	})

	// z axis inverse: real sequence from the half-spectrum rows, normalized
	parallelRows(n, func(w, lo, hi int) {
		p := plans[w]
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				row := i*n + j
				p.rfft.Sequence(p.row, g.cdata[row*h:row*h+h])
				for k := 0; k < n; k++ {
					g.data[row*n+k] = p.row[k] * norm
				}
			}
		}
	})
}
