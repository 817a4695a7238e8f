package grid

import "math"

// PowerBin is one shell of a binned power-spectrum estimate.
type PowerBin struct {
	K     float64 `csv:"k"`
	Pk    float64 `csv:"P_k"`
	Modes int64   `csv:"modes"`
}

// PowerSpectrum bins |delta(k)|^2 into n/2 linear shells of width 2*pi/L.
// The grid must be in Fourier representation; coefficients are interpreted in
// the stored unnormalized convention, so the estimate is
// P(k) = <|c|^2> * L^3 / N^6. Interior kz modes count twice for their
// Hermitian mirror images; the DC mode is excluded.
func (g *Grid) PowerSpectrum() []PowerBin {
	c := g.Coeffs()
	n, h := g.n, g.n/2+1
	nbins := n / 2
	dk := 2.0 * math.Pi / g.l

	sum := make([]float64, nbins)
	ksum := make([]float64, nbins)
	count := make([]int64, nbins)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for kz := 0; kz < h; kz++ {
				if i == 0 && j == 0 && kz == 0 {
					continue
				}
				kk := g.Wavevector(i, j, kz)
				kmod := math.Sqrt(kk[0]*kk[0] + kk[1]*kk[1] + kk[2]*kk[2])
				bin := int(kmod / dk)
				if bin >= nbins {
					continue
				}
				w := int64(1)
				if kz > 0 && kz < n/2 {
					w = 2 // Hermitian mirror mode
				}
				v := c[(i*n+j)*h+kz]
				p := real(v)*real(v) + imag(v)*imag(v)
				sum[bin] += float64(w) * p
				ksum[bin] += float64(w) * kmod
				count[bin] += w
			}
		}
	}

	n3 := float64(n) * float64(n) * float64(n)
	norm := g.l * g.l * g.l / (n3 * n3)
	bins := make([]PowerBin, 0, nbins)
	for b := 0; b < nbins; b++ {
		if count[b] == 0 {
			continue
		}
		bins = append(bins, PowerBin{
			K:     ksum[b] / float64(count[b]),
			Pk:    sum[b] / float64(count[b]) * norm,
			Modes: count[b],
		})
	}
	return bins
}
