// Package matrix provides small covariance-handling helpers shared by
// the UKF engine: symmetrization and a jitter-retrying positive
// semidefinite square root. Adapted from the teacher's matrix package,
// which held plain row/column sum helpers for flat measurement
// matrices; this filter never needs those, but does need exactly the
// "factorize, and retry with a nudged diagonal on failure" shape the
// teacher's rand.WithCovN already uses for sampling, applied here to
// Cholesky instead of SVD per spec §4.2 and §7 (Singular).
package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	filter "github.com/bwehbe/slam-uwv-kalman-filters"
)

// initialJitter is added to the diagonal on a failed factorization,
// growing by 10x on each of up to three retries, matching spec §7's
// "+1e-9·I up to three times".
const initialJitter = 1e-9

// maxJitterRetries bounds the retry loop in CholeskySqrt.
const maxJitterRetries = 3

// Symmetrize returns (m + mᵀ)/2, restoring exact symmetry after
// accumulated floating point drift. Spec §8 property 1 requires
// covariance symmetry to be preserved to 1e-10 through predict/update;
// engines call this after every recombination.
func Symmetrize(m *mat.SymDense) *mat.SymDense {
	n := m.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return out
}

// CholeskySqrt returns a lower-triangular square root L of cov such that
// L·Lᵀ = cov, retrying with a symmetrized copy and a growing diagonal
// jitter if the factorization fails. It returns an error wrapping
// filter.ErrSingular if cov remains non-PSD after maxJitterRetries
// attempts.
func CholeskySqrt(cov *mat.SymDense) (*mat.TriDense, error) {
	n := cov.SymmetricDim()
	jitter := initialJitter

	candidate := Symmetrize(cov)
	var chol mat.Cholesky
	for attempt := 0; attempt <= maxJitterRetries; attempt++ {
		if chol.Factorize(candidate) {
			L := mat.NewTriDense(n, mat.Lower, nil)
			chol.LTo(L)
			return L, nil
		}
		for i := 0; i < n; i++ {
			candidate.SetSym(i, i, candidate.At(i, i)+jitter)
		}
		jitter *= 10
	}
	return nil, fmt.Errorf("matrix: covariance square root failed after %d jitter retries: %w", maxJitterRetries, filter.ErrSingular)
}
