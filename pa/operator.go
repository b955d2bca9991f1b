package pa

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/notargets/gomopt/element"
	"github.com/notargets/gomopt/metric"
	"github.com/notargets/gomopt/utils"
)

/*
	HessianOperator is the matrix-free Hessian of the shape quality
	functional at one linearization point. The dim^4 quadrature tensor is
	computed once by the first AddMultHessian after construction or
	Invalidate, then reused by every subsequent call. The operator never
	detects staleness itself - whoever moves the mesh or changes the
	target calls Invalidate.

	Elements are divided across goroutines by a PartitionMap, one worker
	per partition with its own scratch; workers touch disjoint slices of
	the tensor and output, so the only synchronization is the WaitGroup
	join between setup and action.
*/
type HessianOperator struct {
	TB  *element.TensorBasis2D
	Jtr metric.Mat2
	NE  int

	pm    *utils.PartitionMap
	kern  kernel
	dP    []float64
	valid bool
}

// kernel is one resolved (D1D, Q1D) implementation: the setup and apply
// entry points the operator dispatches through. Registered entries mirror
// the specialized instantiation table of the original; unregistered pairs
// inside the compile time maxima get the same entry points as a generic
// fallback.
type kernel struct {
	D1D, Q1D    int
	specialized bool
	setup       func(tb *element.TensorBasis2D, jtr metric.Mat2,
		x, dP []float64, e0, e1 int, s *scratch)
	apply func(tb *element.TensorBasis2D, jtr metric.Mat2,
		dP, r, y []float64, e0, e1 int, s *scratch)
}

func makeKernel(d1d, q1d int, specialized bool) kernel {
	return kernel{
		D1D:         d1d,
		Q1D:         q1d,
		specialized: specialized,
		setup:       setupElements,
		apply:       applyElements,
	}
}

var kernelRegistry = make(map[int]kernel)

func init() {
	for d1d := 2; d1d <= 5; d1d++ {
		for q1d := 2; q1d <= 5; q1d++ {
			kernelRegistry[kernelID(d1d, q1d)] = makeKernel(d1d, q1d, true)
		}
	}
}

func kernelID(d1d, q1d int) int { return d1d<<4 | q1d }

func resolveKernel(d1d, q1d int) (k kernel) {
	var ok bool
	if k, ok = kernelRegistry[kernelID(d1d, q1d)]; ok {
		return
	}
	if d1d < 2 || q1d < 1 || d1d > MaxD1D || q1d > MaxQ1D {
		err := fmt.Errorf("unsupported kernel 0x%x: D1D = %d, Q1D = %d, bounds are 2..%d, 1..%d",
			kernelID(d1d, q1d), d1d, q1d, MaxD1D, MaxQ1D)
		panic(err)
	}
	k = makeKernel(d1d, q1d, false)
	return
}

// NewHessianOperator builds the operator for NE elements of the given basis
// and constant target Jacobian. procLimit caps the number of goroutines;
// zero means one per CPU.
func NewHessianOperator(tb *element.TensorBasis2D, jtr metric.Mat2,
	NE, procLimit int) (op *HessianOperator) {
	if NE < 1 {
		err := fmt.Errorf("operator needs at least one element, have %d", NE)
		panic(err)
	}
	if jtr.Det() == 0. {
		err := fmt.Errorf("target Jacobian is singular")
		panic(err)
	}
	np := procLimit
	if np == 0 {
		np = runtime.NumCPU()
	}
	op = &HessianOperator{
		TB:   tb,
		Jtr:  jtr,
		NE:   NE,
		pm:   utils.NewPartitionMap(np, NE),
		kern: resolveKernel(tb.D1D, tb.Q1D),
		dP:   make([]float64, 2*2*2*2*tb.Q1D*tb.Q1D*NE),
	}
	return
}

// Invalidate marks the cached tensor stale. Call after any change to the
// mesh positions or target; the next AddMultHessian recomputes.
func (op *HessianOperator) Invalidate() { op.valid = false }

// IsSetup reports whether the cached tensor matches the last setup call.
func (op *HessianOperator) IsSetup() bool { return op.valid }

// SetTarget replaces the target Jacobian and invalidates the cached state.
func (op *HessianOperator) SetTarget(jtr metric.Mat2) {
	if jtr.Det() == 0. {
		err := fmt.Errorf("target Jacobian is singular")
		panic(err)
	}
	op.Jtr = jtr
	op.valid = false
}

// Tensor exposes the cached quadrature tensor, (2,2,2,2,Q1D,Q1D,NE) with the
// first index fastest. Read only; valid after setup.
func (op *HessianOperator) Tensor() []float64 { return op.dP }

// AddMultHessian applies the Hessian of the quality functional to the
// direction field re, accumulating into ce. xe holds the nodal coordinates
// of the linearization point and is only read when the cached tensor is
// stale. All three fields use the (D1D, D1D, 2, NE) layout.
func (op *HessianOperator) AddMultHessian(xe, re, ce []float64) {
	var (
		want = 2 * op.TB.Ndof() * op.NE
	)
	if len(xe) != want || len(re) != want || len(ce) != want {
		err := fmt.Errorf("field size mismatch: have xe %d, re %d, ce %d, want %d",
			len(xe), len(re), len(ce), want)
		panic(err)
	}
	if !op.valid {
		op.setup(xe)
		op.valid = true
	}
	op.parallelRange(func(e0, e1 int, s *scratch) {
		op.kern.apply(op.TB, op.Jtr, op.dP, re, ce, e0, e1, s)
	})
}

// Setup recomputes the quadrature tensor at the linearization point xe
// without applying the operator. AddMultHessian does this lazily; Setup is
// for callers that want the cost paid eagerly.
func (op *HessianOperator) Setup(xe []float64) {
	if len(xe) != 2*op.TB.Ndof()*op.NE {
		err := fmt.Errorf("coordinate field size mismatch: have %d, want %d",
			len(xe), 2*op.TB.Ndof()*op.NE)
		panic(err)
	}
	op.setup(xe)
	op.valid = true
}

func (op *HessianOperator) setup(xe []float64) {
	op.parallelRange(func(e0, e1 int, s *scratch) {
		op.kern.setup(op.TB, op.Jtr, xe, op.dP, e0, e1, s)
	})
}

// parallelRange fans element ranges out to one goroutine per partition,
// each with private scratch, and joins them.
func (op *HessianOperator) parallelRange(work func(e0, e1 int, s *scratch)) {
	var (
		NP = op.pm.ParallelDegree
		wg = sync.WaitGroup{}
	)
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			e0, e1 := op.pm.GetBucketRange(np)
			s := &scratch{}
			s.loadBasis(op.TB)
			work(e0, e1, s)
		}(np)
	}
	wg.Wait()
}
