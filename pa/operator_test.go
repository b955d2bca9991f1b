package pa

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gomopt/element"
	"github.com/notargets/gomopt/metric"
)

// Column by column, the matrix-free action must reproduce the explicitly
// assembled dense local Hessian built by direct quadrature summation.
func TestActionMatchesAssembled(t *testing.T) {
	tb, msh, xe := perturbedMesh(2, 2, 1, 1) // D1D = 3, Q1D = 3, NE = 1
	op := NewHessianOperator(tb, TargetIdeal(), 1, 1)
	mats := AssembleElementMatrices(tb, TargetIdeal(), xe, 1)

	var (
		dof = tb.Ndof()
		n   = 2 * dof
	)
	assert.Equal(t, 1, msh.NE)
	for k := 0; k < n; k++ {
		re := make([]float64, n)
		re[k] = 1.
		ce := make([]float64, n)
		op.AddMultHessian(xe, re, ce)
		for i := 0; i < n; i++ {
			assert.InDelta(t, mats[0].At(i, k), ce[i], 1.e-11)
		}
	}
}

// Same cross check under a non-identity target and several elements.
func TestActionMatchesAssembledAspectTarget(t *testing.T) {
	tb, msh, xe := perturbedMesh(1, 2, 2, 1)
	jtr := TargetAspect(1.5)
	op := NewHessianOperator(tb, jtr, msh.NE, 1)
	mats := AssembleElementMatrices(tb, jtr, xe, msh.NE)

	var (
		dof = tb.Ndof()
		n   = 2 * dof * msh.NE
	)
	re := randomField(n, 51)
	ce := make([]float64, n)
	op.AddMultHessian(xe, re, ce)

	// Dense reference product, element by element
	want := make([]float64, n)
	for e := 0; e < msh.NE; e++ {
		for i := 0; i < 2*dof; i++ {
			var sum float64
			for j := 0; j < 2*dof; j++ {
				sum += mats[e].At(i, j) * re[j+2*dof*e]
			}
			want[i+2*dof*e] = sum
		}
	}
	for i := 0; i < n; i++ {
		assert.InDelta(t, want[i], ce[i], 1.e-11)
	}
}

// Degree pairs outside the registered 2..5 table but inside the compile
// time maxima run through the generic fallback.
func TestGenericFallbackDegrees(t *testing.T) {
	// Q1D = 1 and D1D = 7 are unregistered
	for _, orders := range [][2]int{{1, 0}, {6, 6}} {
		tb, msh, xe := perturbedMesh(orders[0], orders[1], 2, 2)
		op := NewHessianOperator(tb, TargetIdeal(), msh.NE, 1)
		mats := AssembleElementMatrices(tb, TargetIdeal(), xe, msh.NE)

		dof := tb.Ndof()
		n := 2 * dof * msh.NE
		re := randomField(n, 61)
		ce := make([]float64, n)
		op.AddMultHessian(xe, re, ce)
		for e := 0; e < msh.NE; e++ {
			for i := 0; i < 2*dof; i++ {
				var sum float64
				for j := 0; j < 2*dof; j++ {
					sum += mats[e].At(i, j) * re[j+2*dof*e]
				}
				assert.InDelta(t, sum, ce[i+2*dof*e], 1.e-11)
			}
		}
	}
}

func TestConfigurationErrors(t *testing.T) {
	// Degrees beyond the compile time maxima have no kernel at all
	tb := element.NewTensorBasis2D(MaxD1D, MaxD1D)
	assert.Panics(t, func() { NewHessianOperator(tb, TargetIdeal(), 1, 1) })

	tb2 := element.NewTensorBasis2D(2, 2)
	assert.Panics(t, func() { NewHessianOperator(tb2, TargetIdeal(), 0, 1) })
	assert.Panics(t, func() {
		NewHessianOperator(tb2, metric.Mat2{{1, 2}, {2, 4}}, 1, 1)
	})

	// Field size mismatches are caught at entry
	op := NewHessianOperator(tb2, TargetIdeal(), 1, 1)
	good := make([]float64, 2*tb2.Ndof())
	assert.Panics(t, func() { op.AddMultHessian(good[:5], good, good) })
	assert.Panics(t, func() { op.Setup(good[:5]) })
	assert.Panics(t, func() { TargetAspect(-1) })
}
