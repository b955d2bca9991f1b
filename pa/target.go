package pa

import (
	"fmt"

	"github.com/notargets/gomopt/metric"
)

// Target Jacobians describe the ideal reference shape an element is
// optimized toward. One constant matrix applies to every quadrature point of
// every element; a per point target field is the natural extension and would
// replace the single matrix with a (2,2,Q1D,Q1D,NE) tensor threaded through
// setup.

// TargetIdeal is the unit square target: identity Jacobian, det = 1.
func TargetIdeal() metric.Mat2 {
	return metric.Mat2{{1, 0}, {0, 1}}
}

// TargetAspect is a unit area target stretched to aspect ratio a along x.
func TargetAspect(a float64) metric.Mat2 {
	if a <= 0 {
		err := fmt.Errorf("aspect ratio must be positive, have %v", a)
		panic(err)
	}
	return metric.Mat2{{a, 0}, {0, 1. / a}}
}
