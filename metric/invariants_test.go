package metric

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// randomNondegenerate is a well conditioned perturbation of the identity,
// det stays near 1.
func randomNondegenerate(rng *rand.Rand) (m Mat2) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			m[i][j] = 0.4 * (rng.Float64() - 0.5)
		}
		m[i][i] += 1.
	}
	return
}

func TestDeterminantDerivatives(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		m := randomNondegenerate(rng)
		d := Invariant2Deriv(m)
		// adj(M)^T against direct finite differences of det
		h := 1.e-6
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				mp, mm := m, m
				mp[i][j] += h
				mm[i][j] -= h
				fd := (Invariant2(mp) - Invariant2(mm)) / (2 * h)
				assert.InDelta(t, fd, d[i][j], 1.e-9)
			}
		}
		// The second derivative of det is an exact constant pattern
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				dd := Invariant2SecondDeriv(i, j)
				for r := 0; r < 2; r++ {
					for c := 0; c < 2; c++ {
						want := 0.
						if r == 1-i && c == 1-j {
							if i == j {
								want = 1.
							} else {
								want = -1.
							}
						}
						assert.Equal(t, want, dd[r][c])
					}
				}
			}
		}
	}
}

func TestShapeInvariantFirstDerivative(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 20; trial++ {
		m := randomNondegenerate(rng)
		d := Invariant1Deriv(m)
		h := 1.e-6
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				mp, mm := m, m
				mp[i][j] += h
				mm[i][j] -= h
				fd := (Invariant1(mp) - Invariant1(mm)) / (2 * h)
				assert.InDelta(t, fd, d[i][j], 1.e-8)
			}
		}
	}
}

// The analytic second derivative must match a centered finite difference of
// the first derivative to O(h^2) across step sizes.
func TestShapeInvariantSecondDerivative(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 10; trial++ {
		m := randomNondegenerate(rng)
		for _, h := range []float64{1.e-3, 1.e-4} {
			var maxErr float64
			for i := 0; i < 2; i++ {
				for j := 0; j < 2; j++ {
					dd := Invariant1SecondDeriv(m, i, j)
					mp, mm := m, m
					mp[i][j] += h
					mm[i][j] -= h
					dp := Invariant1Deriv(mp)
					dm := Invariant1Deriv(mm)
					for r := 0; r < 2; r++ {
						for c := 0; c < 2; c++ {
							fd := (dp[r][c] - dm[r][c]) / (2 * h)
							if e := math.Abs(fd - dd[r][c]); e > maxErr {
								maxErr = e
							}
						}
					}
				}
			}
			assert.Less(t, maxErr, 500.*h*h)
		}
	}
}

// Second derivative symmetry: block (i,j) entry (r,c) equals block (r,c)
// entry (i,j).
func TestSecondDerivativeSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for trial := 0; trial < 20; trial++ {
		m := randomNondegenerate(rng)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				dij := Invariant1SecondDeriv(m, i, j)
				for r := 0; r < 2; r++ {
					for c := 0; c < 2; c++ {
						drc := Invariant1SecondDeriv(m, r, c)
						assert.InDelta(t, dij[r][c], drc[i][j], 1.e-12)
					}
				}
			}
		}
	}
}

func TestSingularMatrixPropagatesNonFinite(t *testing.T) {
	m := Mat2{{1, 2}, {2, 4}} // det = 0
	assert.True(t, math.IsInf(Invariant1(m), 0) || math.IsNaN(Invariant1(m)))
	d := Invariant1SecondDeriv(m, 0, 0)
	var nonFinite bool
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if math.IsInf(d[r][c], 0) || math.IsNaN(d[r][c]) {
				nonFinite = true
			}
		}
	}
	assert.True(t, nonFinite)
}
