package lpt

// cyclic holds the three cyclic axis permutations (d, d+1, d+2) mod 3 used
// by the transverse-term and synthesis loops.
var cyclic = [3][3]int{{0, 1, 2}, {1, 2, 0}, {2, 0, 1}}

// EffectiveOrder clamps the requested LPT order. The symplectic branch's
// algebra is only valid at second order, so it overrides any other request;
// the second return reports whether a downgrade happened.
func EffectiveOrder(order int, symplectic bool) (int, bool) {
	if symplectic && order != 2 {
		return 2, true
	}
	return order, false
}

// GrowthCoefficients returns the per-order growth scalings for linear growth
// factor dplus. Orders above the effective order scale to zero.
func GrowthCoefficients(dplus float64, order int) (g1, g2, g3a, g3b, g3c float64) {
	g1 = -dplus
	if order > 1 {
		g2 = -3.0 / 7.0 * dplus * dplus
	}
	if order > 2 {
		d3 := dplus * dplus * dplus
		g3a = -1.0 / 3.0 * d3
		g3b = 10.0 / 21.0 * d3
		g3c = -1.0 / 7.0 * d3
	}
	return
}

// VelocityFactors returns the per-order velocity scalings for the velocity
// growth factor at the start time.
func VelocityFactors(vfac float64) (v1, v2, v3 float64) {
	return vfac, 2 * vfac, 3 * vfac
}
