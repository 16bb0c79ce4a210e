// Package gate implements the innovation-gating policy from spec §4.6:
// a χ² test over the squared Mahalanobis distance of an innovation,
// used by the UKF engine to reject implausible updates before they can
// corrupt the state estimate. Grounded directly on
// original_source/src/PoseUKF.cpp's d2p95/d2p99 free functions.
package gate

import (
	"fmt"

	filter "github.com/bwehbe/slam-uwv-kalman-filters"
	"gonum.org/v1/gonum/mat"
)

// p95Threshold is the 95% critical value of the χ² distribution with 2
// degrees of freedom.
const p95Threshold = 5.991

// p99Threshold is the 99% critical value of the χ² distribution with 2
// degrees of freedom.
const p99Threshold = 9.21

// P95 rejects an innovation whose squared Mahalanobis distance exceeds
// the 95% critical value for 2 degrees of freedom.
func P95(mahalanobis2 float64) bool {
	return mahalanobis2 <= p95Threshold
}

// P99 rejects an innovation whose squared Mahalanobis distance exceeds
// the 99% critical value for 2 degrees of freedom.
func P99(mahalanobis2 float64) bool {
	return mahalanobis2 <= p99Threshold
}

// AcceptAny never rejects; used for measurement kinds spec §4.6 assigns
// no gate.
func AcceptAny(mahalanobis2 float64) bool {
	return true
}

var (
	_ filter.Gate = P95
	_ filter.Gate = P99
	_ filter.Gate = AcceptAny
)

// Mahalanobis2 computes νᵀS⁻¹ν for innovation nu and innovation
// covariance s. It returns an error wrapping filter.ErrSingular if s is
// not invertible.
func Mahalanobis2(nu *mat.VecDense, s *mat.SymDense) (float64, error) {
	sInv := &mat.Dense{}
	if err := sInv.Inverse(s); err != nil {
		return 0, fmt.Errorf("gate: innovation covariance not invertible: %w", filter.ErrSingular)
	}

	tmp := &mat.Dense{}
	tmp.Mul(sInv, nu)

	return mat.Dot(nu, tmp.ColView(0)), nil
}
