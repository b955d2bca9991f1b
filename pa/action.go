package pa

import (
	"github.com/notargets/gomopt/element"
	"github.com/notargets/gomopt/metric"
)

/*
	Action pass: the exact bilinear-form product of the precomputed tensor
	with a nodal direction field. Per quadrature point the interpolated
	direction gradient is pulled back through the inverse target Jacobian,
	contracted against the stored tensor, and pushed forward through the
	transposed inverse - the standard change-of-basis sandwich for a
	fourth order operator:

		A = R_grad * Jrt          (pull back)
		B(r,c) = sum_ij P(i,j,r,c) A(i,j)
		C = B * Jrt^T             (push forward)

	C then returns to nodal space through the transposed sum factorization
	stages, accumulating into the output.
*/

// applyElements accumulates the Hessian action on direction field r into y
// for elements [e0, e1).
func applyElements(tb *element.TensorBasis2D, jtr metric.Mat2,
	dP, r, y []float64, e0, e1 int, s *scratch) {
	var (
		d1d, q1d = tb.D1D, tb.Q1D
		jrt      = jtr.Inverse()
	)
	for e := e0; e < e1; e++ {
		s.loadElement(r, d1d, e)
		s.interpolate(d1d, q1d)
		for qy := 0; qy < q1d; qy++ {
			for qx := 0; qx < q1d; qx++ {
				gr := metric.Mat2{
					{s.Qx0[qy][qx], s.Qx1[qy][qx]},
					{s.Qy0[qy][qx], s.Qy1[qy][qx]},
				}
				a := gr.Mul(jrt)

				var b metric.Mat2
				for rr := 0; rr < 2; rr++ {
					for cc := 0; cc < 2; cc++ {
						var sum float64
						for i := 0; i < 2; i++ {
							for j := 0; j < 2; j++ {
								sum += dP[tensorIndex(i, j, rr, cc, qx, qy, e, q1d)] * a[i][j]
							}
						}
						b[rr][cc] = sum
					}
				}
				c := b.MulT(jrt)

				s.Cx0[qy][qx] = c[0][0]
				s.Cx1[qy][qx] = c[0][1]
				s.Cy0[qy][qx] = c[1][0]
				s.Cy1[qy][qx] = c[1][1]
			}
		}
		s.accumulate(y, d1d, q1d, e)
	}
}
