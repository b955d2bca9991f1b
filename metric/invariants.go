package metric

/*
	Shape quality of a 2x2 deformation matrix M is measured through two
	invariants:
		I2(M) = det(M)
		I1(M) = ||M||_F^2 / det(M)
	The optimization objective is mu(M) = I1(M)/2, whose first and second
	partial derivatives with respect to the entries of M are in closed form
	below. Everything here is exact matrix calculus for the 2x2 case - det
	is bilinear in the entries, so its second derivative is a constant
	pattern and the quotient rule closes the rest.

	Division by powers of det(M) means a singular M produces Inf/NaN rather
	than a signaled error; callers guarantee non-singular local Jacobians.
*/

// Mat2 is a 2x2 matrix in row-major [row][col] order.
type Mat2 [2][2]float64

func (m Mat2) Det() float64 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

func (m Mat2) FNorm2() float64 {
	return m[0][0]*m[0][0] + m[0][1]*m[0][1] + m[1][0]*m[1][0] + m[1][1]*m[1][1]
}

// Mul returns m * a.
func (m Mat2) Mul(a Mat2) (r Mat2) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			r[i][j] = m[i][0]*a[0][j] + m[i][1]*a[1][j]
		}
	}
	return
}

// MulT returns m * a^T.
func (m Mat2) MulT(a Mat2) (r Mat2) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			r[i][j] = m[i][0]*a[j][0] + m[i][1]*a[j][1]
		}
	}
	return
}

// Inverse is the closed form 2x2 inverse. Singular m yields Inf/NaN entries.
func (m Mat2) Inverse() (r Mat2) {
	var (
		det = m.Det()
	)
	r[0][0] = m[1][1] / det
	r[0][1] = -m[0][1] / det
	r[1][0] = -m[1][0] / det
	r[1][1] = m[0][0] / det
	return
}

// Invariant2 is I2(M) = det(M).
func Invariant2(m Mat2) float64 { return m.Det() }

// Invariant1 is I1(M) = ||M||_F^2 / det(M).
func Invariant1(m Mat2) float64 { return m.FNorm2() / m.Det() }

// Invariant2Deriv is d(det(M))/dM = adj(M)^T.
func Invariant2Deriv(m Mat2) (d Mat2) {
	d[0][0] = m[1][1]
	d[0][1] = -m[1][0]
	d[1][0] = -m[0][1]
	d[1][1] = m[0][0]
	return
}

// Invariant2SecondDeriv is d(adj(M)^T)/dM(i,j): a unit +-1 at the mirrored
// index, constant in M since det is bilinear in the 2x2 entries.
func Invariant2SecondDeriv(i, j int) (d Mat2) {
	if i == j {
		d[1-i][1-j] = 1.
	} else {
		d[1-i][1-j] = -1.
	}
	return
}

// Invariant1Deriv is dI1/dM = (2 det(M) M - ||M||_F^2 adj(M)^T) / det(M)^2.
func Invariant1Deriv(m Mat2) (d Mat2) {
	var (
		det    = m.Det()
		det2   = det * det
		fnorm2 = m.FNorm2()
		dDet   = Invariant2Deriv(m)
	)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			d[r][c] = (2.*det*m[r][c] - fnorm2*dDet[r][c]) / det2
		}
	}
	return
}

// Invariant1SecondDeriv is d(dI1/dM)/dM(i,j), the (i,j) block of the full
// fourth-order second derivative of I1, by the quotient rule applied to
// Invariant1Deriv.
func Invariant1SecondDeriv(m Mat2, i, j int) (d Mat2) {
	var (
		dDet    = Invariant2Deriv(m)
		ddet    = dDet[i][j]     // d(det)/dM(i,j)
		dfnorm2 = 2. * m[i][j]   // d(||M||^2)/dM(i,j)
		det     = m.Det()
		det2    = det * det
		fnorm2  = m.FNorm2()
		ddDet   = Invariant2SecondDeriv(i, j)
		dM      Mat2 // dM/dM(i,j)
	)
	dM[i][j] = 1.
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			d[r][c] = (det2*
				(2.*ddet*m[r][c]+2.*det*dM[r][c]-
					dfnorm2*dDet[r][c]-fnorm2*ddDet[r][c]) -
				2.*det*ddet*
					(2.*det*m[r][c]-fnorm2*dDet[r][c])) / (det2 * det2)
		}
	}
	return
}
