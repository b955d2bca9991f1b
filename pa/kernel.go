package pa

import (
	"github.com/notargets/gomopt/element"
)

// Compile time bounds on the per-axis node and quadrature counts. Scratch
// buffers are sized to these so the per-element hot path never allocates.
const (
	MaxD1D = 8
	MaxQ1D = 8
)

/*
	scratch holds one worker's fixed size pipeline buffers. The original
	shared-memory formulation reuses one region under differently shaped
	views across synchronization points; here every pipeline stage writes
	its own buffer and the stages run in order within the worker, which
	preserves the load -> interpolate x -> interpolate y -> pointwise ->
	accumulate x -> accumulate y barrier structure without aliasing.

	Naming: D prefix = (node, quadrature) shaped intermediates, Q prefix =
	fully interpolated (quadrature, quadrature) fields, C prefix = the
	pointwise operator output on its way back to nodes. x/y is the field
	component, 0/1 the reference axis of differentiation.
*/
type scratch struct {
	B, G [MaxQ1D][MaxD1D]float64 // Local copies of the 1D basis matrices

	Xx, Xy [MaxD1D][MaxD1D]float64 // Nodal values of one element

	DxB, DxG [MaxD1D][MaxQ1D]float64 // After x-axis contraction
	DyB, DyG [MaxD1D][MaxQ1D]float64

	Qx0, Qx1 [MaxQ1D][MaxQ1D]float64 // Reference gradient at quadrature points
	Qy0, Qy1 [MaxQ1D][MaxQ1D]float64

	Cx0, Cx1 [MaxQ1D][MaxQ1D]float64 // Pointwise operator output
	Cy0, Cy1 [MaxQ1D][MaxQ1D]float64

	CxB, CxG [MaxD1D][MaxQ1D]float64 // After transposed x-axis contraction
	CyB, CyG [MaxD1D][MaxQ1D]float64
}

// loadBasis copies the 1D basis and derivative matrices into the worker's
// scratch, the analog of staging them into fast shared memory.
func (s *scratch) loadBasis(tb *element.TensorBasis2D) {
	var (
		b = tb.B.Data()
		g = tb.G.Data()
	)
	for q := 0; q < tb.Q1D; q++ {
		for d := 0; d < tb.D1D; d++ {
			s.B[q][d] = b[d+q*tb.D1D]
			s.G[q][d] = g[d+q*tb.D1D]
		}
	}
}

// loadElement stages the two components of one element's nodal field.
// Layout of x is (D1D, D1D, 2, NE), dx fastest.
func (s *scratch) loadElement(x []float64, d1d, e int) {
	var (
		dof = d1d * d1d
	)
	for dy := 0; dy < d1d; dy++ {
		for dx := 0; dx < d1d; dx++ {
			s.Xx[dy][dx] = x[dx+d1d*dy+dof*(0+2*e)]
			s.Xy[dy][dx] = x[dx+d1d*dy+dof*(1+2*e)]
		}
	}
}

// interpolate runs the two forward sum factorization stages, leaving the
// reference space gradient of the staged field in Qx0/Qx1/Qy0/Qy1:
// component x/y, differentiated along axis 0/1. Cost per element is
// O(dim D1D Q1D^2) instead of the O((D1D Q1D)^2) of direct evaluation.
func (s *scratch) interpolate(d1d, q1d int) {
	for dy := 0; dy < d1d; dy++ {
		for qx := 0; qx < q1d; qx++ {
			var u0, v0, u1, v1 float64
			for dx := 0; dx < d1d; dx++ {
				xx := s.Xx[dy][dx]
				xy := s.Xy[dy][dx]
				u0 += s.B[qx][dx] * xx
				v0 += s.G[qx][dx] * xx
				u1 += s.B[qx][dx] * xy
				v1 += s.G[qx][dx] * xy
			}
			s.DxB[dy][qx] = u0
			s.DxG[dy][qx] = v0
			s.DyB[dy][qx] = u1
			s.DyG[dy][qx] = v1
		}
	}
	for qy := 0; qy < q1d; qy++ {
		for qx := 0; qx < q1d; qx++ {
			var u0, v0, u1, v1 float64
			for dy := 0; dy < d1d; dy++ {
				u0 += s.DxG[dy][qx] * s.B[qy][dy]
				v0 += s.DxB[dy][qx] * s.G[qy][dy]
				u1 += s.DyG[dy][qx] * s.B[qy][dy]
				v1 += s.DyB[dy][qx] * s.G[qy][dy]
			}
			s.Qx0[qy][qx] = u0
			s.Qx1[qy][qx] = v0
			s.Qy0[qy][qx] = u1
			s.Qy1[qy][qx] = v1
		}
	}
}

// accumulate runs the two transposed (backward) stages, contracting the
// pointwise results in Cx*/Cy* against B^T and G^T along each axis and
// adding into the output field. Output is accumulated, never overwritten.
func (s *scratch) accumulate(y []float64, d1d, q1d, e int) {
	var (
		dof = d1d * d1d
	)
	for qy := 0; qy < q1d; qy++ {
		for dx := 0; dx < d1d; dx++ {
			var u0, v0, u1, v1 float64
			for qx := 0; qx < q1d; qx++ {
				u0 += s.G[qx][dx] * s.Cx0[qy][qx]
				v0 += s.B[qx][dx] * s.Cx1[qy][qx]
				u1 += s.G[qx][dx] * s.Cy0[qy][qx]
				v1 += s.B[qx][dx] * s.Cy1[qy][qx]
			}
			s.CxB[dx][qy] = u0
			s.CxG[dx][qy] = v0
			s.CyB[dx][qy] = u1
			s.CyG[dx][qy] = v1
		}
	}
	for dy := 0; dy < d1d; dy++ {
		for dx := 0; dx < d1d; dx++ {
			var u0, v0, u1, v1 float64
			for qy := 0; qy < q1d; qy++ {
				u0 += s.CxB[dx][qy] * s.B[qy][dy]
				v0 += s.CxG[dx][qy] * s.G[qy][dy]
				u1 += s.CyB[dx][qy] * s.B[qy][dy]
				v1 += s.CyG[dx][qy] * s.G[qy][dy]
			}
			y[dx+d1d*dy+dof*(0+2*e)] += u0 + v0
			y[dx+d1d*dy+dof*(1+2*e)] += u1 + v1
		}
	}
}

// tensorIndex addresses one scalar of the (2,2,2,2,Q1D,Q1D,NE) Hessian
// tensor, i fastest.
func tensorIndex(i, j, r, c, qx, qy, e, q1d int) int {
	return i + 2*(j+2*(r+2*(c+2*(qx+q1d*(qy+q1d*e)))))
}
