package pa

import (
	"github.com/notargets/gomopt/element"
	"github.com/notargets/gomopt/metric"
)

/*
	Setup pass: at every quadrature point of every element, evaluate the
	local deformation gradient Jpt of the current mesh positions against
	the target shape and store the scaled second derivative of the shape
	invariant as a 2x2x2x2 tensor:

		P(.,.,r,c) = sign(det Jpt) * 1/2 * w * det(Jtr) * d2(I1)/dM dM(r,c) at Jpt

	The sign factor is folded into the scale rather than the metric, which
	keeps the derivative well defined when an element inverts. A singular
	Jpt produces Inf/NaN entries that propagate to the action output; mesh
	validity is the caller's responsibility.

	The tensor is the only coupling between setup and action - no element
	or global matrix is ever formed.
*/

// setupElements computes the tensor slots for elements [e0, e1).
func setupElements(tb *element.TensorBasis2D, jtr metric.Mat2,
	x, dP []float64, e0, e1 int, s *scratch) {
	var (
		d1d, q1d = tb.D1D, tb.Q1D
		w        = tb.W.Data()
		jrt      = jtr.Inverse()
		detJtr   = jtr.Det()
	)
	for e := e0; e < e1; e++ {
		s.loadElement(x, d1d, e)
		s.interpolate(d1d, q1d)
		for qy := 0; qy < q1d; qy++ {
			for qx := 0; qx < q1d; qx++ {
				weight := w[qx+q1d*qy]

				// Interpolated gradient of the position field: rows are
				// components, columns reference axes
				gx := metric.Mat2{
					{s.Qx0[qy][qx], s.Qx1[qy][qx]},
					{s.Qy0[qy][qx], s.Qy1[qy][qx]},
				}
				// Deformation gradient relative to the target shape
				jpt := gx.Mul(jrt)

				sign := 1.
				if jpt.Det() < 0. {
					sign = -1.
				}
				scale := sign * 0.5 * weight * detJtr

				for r := 0; r < 2; r++ {
					for c := 0; c < 2; c++ {
						blk := metric.Invariant1SecondDeriv(jpt, r, c)
						for i := 0; i < 2; i++ {
							for j := 0; j < 2; j++ {
								dP[tensorIndex(i, j, r, c, qx, qy, e, q1d)] =
									scale * blk[i][j]
							}
						}
					}
				}
			}
		}
	}
}
