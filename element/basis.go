package element

import (
	"fmt"

	"github.com/notargets/gomopt/utils"
)

/*
	TensorBasis2D is the finite element descriptor for tensor-product
	quadrilateral elements: a 1D Lagrange basis of order P collocated at
	Gauss-Lobatto nodes, evaluated at the Q1D Gauss quadrature points of a
	1D rule, applied along each reference axis in turn. Only the 1D
	matrices are stored - 2D evaluation is by sum factorization in the
	kernels.
*/
type TensorBasis2D struct {
	P          int          // Polynomial order of the nodal basis
	D1D, Q1D   int          // Nodes and quadrature points per 1D axis
	R          utils.Vector // D1D Gauss-Lobatto nodal locations on [-1,1]
	RQ, WQ     utils.Vector // Q1D Gauss points and weights on [-1,1]
	B, G       utils.Matrix // Q1D x D1D basis value / derivative matrices
	W          utils.Vector // Q1D*Q1D tensor product weights, qx fastest
	V, Vinv    utils.Matrix // Nodal Vandermonde and its inverse
}

// NewTensorBasis2D builds the descriptor for polynomial order p integrated
// with a q+1 point Gauss rule per axis.
func NewTensorBasis2D(p, q int) (tb *TensorBasis2D) {
	if p < 1 || q < 0 {
		err := fmt.Errorf("invalid basis orders: p = %d, q = %d", p, q)
		panic(err)
	}
	tb = &TensorBasis2D{
		P:   p,
		D1D: p + 1,
		Q1D: q + 1,
	}
	tb.R = JacobiGL(0, 0, p)
	tb.RQ, tb.WQ = JacobiGQ(0, 0, q)

	tb.V = Vandermonde1D(p, tb.R)
	var err error
	if tb.Vinv, err = tb.V.Inverse(); err != nil {
		panic(err)
	}
	// Lagrange interpolation and differentiation from nodes to quadrature
	// points: B = V(rq) Vinv, G = Vr(rq) Vinv
	tb.B = Vandermonde1D(p, tb.RQ).Mul(tb.Vinv)
	tb.G = GradVandermonde1D(p, tb.RQ).Mul(tb.Vinv)
	tb.B.SetReadOnly("B")
	tb.G.SetReadOnly("G")

	tb.W = utils.NewVector(tb.Q1D * tb.Q1D)
	var (
		w  = tb.W.Data()
		wq = tb.WQ.Data()
	)
	for qy := 0; qy < tb.Q1D; qy++ {
		for qx := 0; qx < tb.Q1D; qx++ {
			w[qx+tb.Q1D*qy] = wq[qx] * wq[qy]
		}
	}
	return
}

// Ndof is the number of scalar nodes per element, per component.
func (tb *TensorBasis2D) Ndof() int { return tb.D1D * tb.D1D }

// Nquad is the number of quadrature points per element.
func (tb *TensorBasis2D) Nquad() int { return tb.Q1D * tb.Q1D }
