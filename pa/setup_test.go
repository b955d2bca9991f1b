package pa

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gomopt/element"
	"github.com/notargets/gomopt/mesh"
)

// perturbedMesh builds a conforming Cartesian mesh with the interior nodes
// displaced by a smooth deterministic field small enough to keep every
// element valid.
func perturbedMesh(p, q, nx, ny int) (tb *element.TensorBasis2D,
	msh *mesh.Cartesian, xe []float64) {
	tb = element.NewTensorBasis2D(p, q)
	msh = mesh.NewCartesian(nx, ny, tb)
	var (
		amp    = 0.15 / float64(nx*(tb.D1D-1))
		global = make([]float64, 2*msh.Nnodes)
	)
	copy(global, msh.XY)
	for node := 0; node < msh.Nnodes; node++ {
		x, y := msh.XY[node], msh.XY[node+msh.Nnodes]
		// Zero on the boundary, smooth inside
		bump := math.Sin(math.Pi*x) * math.Sin(math.Pi*y)
		global[node] += amp * bump * math.Cos(3*y)
		global[node+msh.Nnodes] += amp * bump * math.Sin(2*x+1)
	}
	xe = msh.Gather(global)
	return
}

func randomField(n int, seed int64) (v []float64) {
	rng := rand.New(rand.NewSource(seed))
	v = make([]float64, n)
	for i := range v {
		v[i] = 2.*rng.Float64() - 1.
	}
	return
}

// The quadrature tensor is a second derivative: swapping its index pairs
// must leave it unchanged.
func TestTensorSymmetry(t *testing.T) {
	tb, msh, xe := perturbedMesh(2, 3, 2, 2)
	op := NewHessianOperator(tb, TargetIdeal(), msh.NE, 1)
	op.Setup(xe)
	var (
		dP  = op.Tensor()
		q1d = tb.Q1D
	)
	for e := 0; e < msh.NE; e++ {
		for qy := 0; qy < q1d; qy++ {
			for qx := 0; qx < q1d; qx++ {
				for i := 0; i < 2; i++ {
					for j := 0; j < 2; j++ {
						for r := 0; r < 2; r++ {
							for c := 0; c < 2; c++ {
								assert.InDelta(t,
									dP[tensorIndex(i, j, r, c, qx, qy, e, q1d)],
									dP[tensorIndex(r, c, i, j, qx, qy, e, q1d)],
									1.e-12)
							}
						}
					}
				}
			}
		}
	}
}

// A collapsed element has det(Jpt) = 0 at every quadrature point; the
// resulting non-finite tensor entries must reach the action output rather
// than being masked.
func TestDegenerateElementPropagates(t *testing.T) {
	tb := element.NewTensorBasis2D(1, 1)
	op := NewHessianOperator(tb, TargetIdeal(), 1, 1)

	dof := tb.Ndof()
	xe := make([]float64, 2*dof)
	for d := 0; d < dof; d++ {
		xe[d] = 0.3 // every node at the same point
		xe[d+dof] = 0.4
	}
	op.Setup(xe)

	var poisoned bool
	for _, v := range op.Tensor() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			poisoned = true
		}
	}
	assert.True(t, poisoned)

	re := randomField(2*dof, 7)
	ce := make([]float64, 2*dof)
	op.AddMultHessian(xe, re, ce)
	poisoned = false
	for _, v := range ce {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			poisoned = true
		}
	}
	assert.True(t, poisoned)
}

// Changing the linearization point after Invalidate must change the cached
// tensor.
func TestSetupCacheInvalidation(t *testing.T) {
	tb, msh, xe := perturbedMesh(2, 2, 2, 2)
	op := NewHessianOperator(tb, TargetIdeal(), msh.NE, 1)
	assert.False(t, op.IsSetup())

	re := randomField(len(xe), 11)
	ce := make([]float64, len(xe))
	op.AddMultHessian(xe, re, ce)
	assert.True(t, op.IsSetup())

	before := make([]float64, len(op.Tensor()))
	copy(before, op.Tensor())

	// Without Invalidate the tensor is reused even if coordinates move
	xe2 := msh.Coordinates()
	op.AddMultHessian(xe2, re, ce)
	assert.Equal(t, before, op.Tensor())

	op.Invalidate()
	assert.False(t, op.IsSetup())
	op.AddMultHessian(xe2, re, ce)
	assert.True(t, op.IsSetup())
	assert.NotEqual(t, before, op.Tensor())
}
