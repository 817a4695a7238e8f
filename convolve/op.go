// Package convolve evaluates pointwise products of spectral derivatives of
// periodic fields, accumulating the Fourier-space result into a destination
// grid. Two interchangeable strategies exist: Naive evaluates the product at
// base resolution, Orszag pads to 3/2 resolution before multiplying so the
// truncated result is free of aliasing error.
package convolve

import "fmt"

// Op is the accumulation combinator applied per Fourier coefficient when a
// convolution term is written into its destination. The doubled variants
// serve terms that appear twice by symmetry in the third-order expansion.
type Op int

const (
	Assign Op = iota
	Add
	Sub
	AddTwice
	SubTwice
)

func (op Op) String() string {
	switch op {
	case Assign:
		return "assign"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case AddTwice:
		return "add2"
	case SubTwice:
		return "sub2"
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// combine folds a new term into an existing destination coefficient.
func (op Op) combine(term, existing complex128) complex128 {
	switch op {
	case Assign:
		return term
	case Add:
		return existing + term
	case Sub:
		return existing - term
	case AddTwice:
		return existing + 2*term
	case SubTwice:
		return existing - 2*term
	}
	panic(fmt.Sprintf("convolve: unknown combinator %d", int(op)))
}

// Hessian selects the second partial derivative d^2/dx_i dx_j of a potential.
type Hessian struct{ I, J int }

func (d Hessian) validate() {
	if d.I < 0 || d.I > 2 || d.J < 0 || d.J > 2 {
		panic(fmt.Sprintf("convolve: Hessian axis pair (%d,%d) out of range", d.I, d.J))
	}
}

// factor is the spectral multiplier of the selected Hessian component.
func (d Hessian) factor(k [3]float64) complex128 {
	return complex(-k[d.I]*k[d.J], 0)
}

// Gradient selects the first partial derivative d/dx_i.
type Gradient struct{ I int }

func (d Gradient) validate() {
	if d.I < 0 || d.I > 2 {
		panic(fmt.Sprintf("convolve: gradient axis %d out of range", d.I))
	}
}

func (d Gradient) factor(k [3]float64) complex128 {
	return complex(0, k[d.I])
}
