package mesh

import (
	"fmt"

	"github.com/notargets/gomopt/element"
)

/*
	Cartesian is a conforming nx x ny quadrilateral grid on the unit square
	with high order nodes at mapped Gauss-Lobatto locations. It owns the
	local to global numbering and the element restriction: Gather copies a
	global nodal field into the element-blocked E-vector layout
	(D1D, D1D, comp, NE) the kernels consume, ScatterAdd accumulates an
	E-vector back, summing contributions at nodes shared between adjacent
	elements. The kernels themselves never touch global numbering.
*/
type Cartesian struct {
	Nx, Ny int
	NE     int
	D1D    int
	Nnodes int       // Global nodes per scalar component
	XY     []float64 // Global node coordinates, (Nnodes, 2), node fastest
	L2G    [][]int   // Per element: local dof -> global node
}

func NewCartesian(nx, ny int, tb *element.TensorBasis2D) (m *Cartesian) {
	if nx < 1 || ny < 1 {
		err := fmt.Errorf("invalid grid dimensions %d x %d", nx, ny)
		panic(err)
	}
	var (
		p   = tb.D1D - 1
		nox = nx*p + 1 // Global nodes per direction
		noy = ny*p + 1
		r   = tb.R.Data()
	)
	m = &Cartesian{
		Nx:     nx,
		Ny:     ny,
		NE:     nx * ny,
		D1D:    tb.D1D,
		Nnodes: nox * noy,
	}

	// Global node coordinates: each element spans one cell of the grid with
	// Gauss-Lobatto spacing inside. Endpoint nodes coincide exactly with
	// the cell boundaries shared by neighboring elements.
	coord := func(i, n int) float64 {
		e := i / p
		if e > n-1 {
			e = n - 1
		}
		d := i - e*p
		return (float64(e) + (r[d]+1.)/2.) / float64(n)
	}
	m.XY = make([]float64, 2*m.Nnodes)
	for iy := 0; iy < noy; iy++ {
		for ix := 0; ix < nox; ix++ {
			node := ix + nox*iy
			m.XY[node] = coord(ix, nx)
			m.XY[node+m.Nnodes] = coord(iy, ny)
		}
	}

	m.L2G = make([][]int, m.NE)
	for ey := 0; ey < ny; ey++ {
		for ex := 0; ex < nx; ex++ {
			e := ex + nx*ey
			m.L2G[e] = make([]int, tb.D1D*tb.D1D)
			for dy := 0; dy < tb.D1D; dy++ {
				for dx := 0; dx < tb.D1D; dx++ {
					ix := ex*p + dx
					iy := ey*p + dy
					m.L2G[e][dx+tb.D1D*dy] = ix + nox*iy
				}
			}
		}
	}
	return
}

// Gather copies a global field (Nnodes, 2) into E-vector layout
// (D1D, D1D, 2, NE).
func (m *Cartesian) Gather(global []float64) (eVec []float64) {
	var (
		dof = m.D1D * m.D1D
	)
	if len(global) != 2*m.Nnodes {
		err := fmt.Errorf("global field length %d, expected %d", len(global), 2*m.Nnodes)
		panic(err)
	}
	eVec = make([]float64, 2*dof*m.NE)
	for e := 0; e < m.NE; e++ {
		for d := 0; d < dof; d++ {
			g := m.L2G[e][d]
			eVec[d+dof*(0+2*e)] = global[g]
			eVec[d+dof*(1+2*e)] = global[g+m.Nnodes]
		}
	}
	return
}

// ScatterAdd accumulates an E-vector into a global field, summing the
// contributions of elements that share a node.
func (m *Cartesian) ScatterAdd(eVec, global []float64) {
	var (
		dof = m.D1D * m.D1D
	)
	if len(eVec) != 2*dof*m.NE || len(global) != 2*m.Nnodes {
		err := fmt.Errorf("restriction size mismatch: eVec %d, global %d", len(eVec), len(global))
		panic(err)
	}
	for e := 0; e < m.NE; e++ {
		for d := 0; d < dof; d++ {
			g := m.L2G[e][d]
			global[g] += eVec[d+dof*(0+2*e)]
			global[g+m.Nnodes] += eVec[d+dof*(1+2*e)]
		}
	}
}

// Coordinates returns the nodal positions in E-vector layout, ready for the
// setup kernel.
func (m *Cartesian) Coordinates() []float64 {
	return m.Gather(m.XY)
}
