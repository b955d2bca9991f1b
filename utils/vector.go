package utils

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (v Vector) {
	if len(dataO) != 0 {
		v = Vector{mat.NewVecDense(n, dataO[0])}
	} else {
		v = Vector{mat.NewVecDense(n, make([]float64, n))}
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int                 { return v.V.Len() }

// Data returns the underlying storage, aliased, not copied.
func (v Vector) Data() []float64 { return v.V.RawVector().Data }

// Chainable (extended) methods
func (v Vector) Scale(a float64) Vector {
	var (
		data = v.V.RawVector().Data
	)
	for i := range data {
		data[i] *= a
	}
	return v
}

func (v Vector) POW(p int) Vector {
	var (
		data = v.V.RawVector().Data
	)
	for i, val := range data {
		data[i] = POW(val, p)
	}
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector {
	var (
		data = v.V.RawVector().Data
	)
	for i, val := range data {
		data[i] = f(val)
	}
	return v
}

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

// NewSymTriDiagonal builds a symmetric tridiagonal matrix from the main
// diagonal d0 and the first super diagonal d1, for eigensolution.
func NewSymTriDiagonal(d0, d1 []float64) (J *mat.SymBandDense) {
	var (
		n    = len(d0)
		data = make([]float64, 2*n)
	)
	for i := 0; i < n; i++ {
		data[2*i] = d0[i]
		if i != n-1 {
			data[2*i+1] = d1[i]
		}
	}
	J = mat.NewSymBandDense(n, 1, data)
	return
}

func POW(x float64, p int) (r float64) {
	if p < 0 {
		return 1. / POW(x, -p)
	}
	r = 1.
	for i := 0; i < p; i++ {
		r *= x
	}
	return
}
