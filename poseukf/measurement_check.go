package poseukf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	filter "github.com/bwehbe/slam-uwv-kalman-filters"
)

// checkMeasurement validates a measurement's mu and cov against spec
// §7's BadMeasurement rule: no NaN/Inf in either, and cov must be
// positive semidefinite. It never mutates its arguments.
func checkMeasurement(mu []float64, cov *mat.SymDense) error {
	for _, v := range mu {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("poseukf: measurement mean contains NaN/Inf: %w", filter.ErrBadMeasurement)
		}
	}

	n := cov.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := cov.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("poseukf: measurement covariance contains NaN/Inf: %w", filter.ErrBadMeasurement)
			}
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		return fmt.Errorf("poseukf: measurement covariance eigendecomposition failed: %w", filter.ErrBadMeasurement)
	}
	for _, v := range eig.Values(nil) {
		if v < -1e-9 {
			return fmt.Errorf("poseukf: measurement covariance is not positive semidefinite (eigenvalue %g): %w", v, filter.ErrBadMeasurement)
		}
	}

	return nil
}
