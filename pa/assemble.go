package pa

import (
	"fmt"

	"github.com/notargets/gomopt/element"
	"github.com/notargets/gomopt/mesh"
	"github.com/notargets/gomopt/metric"
	"github.com/notargets/gomopt/utils"
)

/*
	Element assembly: the same bilinear form as the matrix-free path, but
	materialized as explicit dense local matrices by direct double-loop
	quadrature summation with no sum factorization. This is the slow,
	obviously-correct formulation - the tests check the fast path against
	it column by column, and the assemble command scatters it into a global
	sparse matrix for inspection by direct solvers.
*/

// AssembleElementMatrices builds one dense (2 dof)^2 local Hessian per
// element at the linearization point xe.
func AssembleElementMatrices(tb *element.TensorBasis2D, jtr metric.Mat2,
	xe []float64, NE int) (mats []utils.Matrix) {
	var (
		d1d, q1d = tb.D1D, tb.Q1D
		dof      = tb.Ndof()
		w        = tb.W.Data()
		b        = tb.B.Data()
		g        = tb.G.Data()
		jrt      = jtr.Inverse()
		detJtr   = jtr.Det()
	)
	if len(xe) != 2*dof*NE {
		err := fmt.Errorf("coordinate field size mismatch: have %d, want %d",
			len(xe), 2*dof*NE)
		panic(err)
	}
	mats = make([]utils.Matrix, NE)
	dsh := make([][2]float64, dof) // Reference gradients of the shape functions
	ds := make([][2]float64, dof)  // Rotated through the inverse target
	for e := 0; e < NE; e++ {
		H := utils.NewMatrix(2*dof, 2*dof)
		for qy := 0; qy < q1d; qy++ {
			for qx := 0; qx < q1d; qx++ {
				weight := w[qx+q1d*qy]
				for i2 := 0; i2 < d1d; i2++ {
					for i1 := 0; i1 < d1d; i1++ {
						d := i1 + i2*d1d
						dsh[d][0] = g[i1+qx*d1d] * b[i2+qy*d1d]
						dsh[d][1] = b[i1+qx*d1d] * g[i2+qy*d1d]
					}
				}
				for d := 0; d < dof; d++ {
					for a := 0; a < 2; a++ {
						ds[d][a] = dsh[d][0]*jrt[0][a] + dsh[d][1]*jrt[1][a]
					}
				}
				// Deformation gradient by direct summation over all nodes
				var gx metric.Mat2
				for d := 0; d < dof; d++ {
					for a := 0; a < 2; a++ {
						gx[0][a] += xe[d+dof*(0+2*e)] * dsh[d][a]
						gx[1][a] += xe[d+dof*(1+2*e)] * dsh[d][a]
					}
				}
				jpt := gx.Mul(jrt)
				sign := 1.
				if jpt.Det() < 0. {
					sign = -1.
				}
				scale := sign * 0.5 * weight * detJtr

				for r := 0; r < 2; r++ {
					for c := 0; c < 2; c++ {
						blk := metric.Invariant1SecondDeriv(jpt, r, c)
						for rr := 0; rr < 2; rr++ {
							for cc := 0; cc < 2; cc++ {
								v := scale * blk[rr][cc]
								for i := 0; i < dof; i++ {
									for j := 0; j < dof; j++ {
										H.M.Set(i+r*dof, j+rr*dof,
											H.M.At(i+r*dof, j+rr*dof)+
												ds[i][c]*ds[j][cc]*v)
									}
								}
							}
						}
					}
				}
			}
		}
		mats[e] = H
	}
	return
}

// AssembleGlobal scatters the local matrices through the mesh numbering into
// a global sparse Hessian of dimension 2 Nnodes, x components first.
func AssembleGlobal(msh *mesh.Cartesian, mats []utils.Matrix) (A utils.DOK) {
	var (
		dof = msh.D1D * msh.D1D
		n   = msh.Nnodes
	)
	if len(mats) != msh.NE {
		err := fmt.Errorf("have %d element matrices for %d elements", len(mats), msh.NE)
		panic(err)
	}
	A = utils.NewDOK(2*n, 2*n)
	for e := 0; e < msh.NE; e++ {
		H := mats[e]
		for r := 0; r < 2; r++ {
			for rr := 0; rr < 2; rr++ {
				for i := 0; i < dof; i++ {
					gi := msh.L2G[e][i] + r*n
					for j := 0; j < dof; j++ {
						gj := msh.L2G[e][j] + rr*n
						v := H.At(i+r*dof, j+rr*dof)
						if v != 0. {
							A.Accumulate(gi, gj, v)
						}
					}
				}
			}
		}
	}
	return
}
