package filter

import "errors"

// Error kinds the filter can report from Predict/Update. All four are
// recoverable: the caller observes them via errors.Is and the filter's
// own state is left unchanged (spec §7). Construction-time validation
// errors (e.g. a non-square covariance) are not among these; they are
// returned directly as plain fmt.Errorf values and are fatal to
// construction rather than recoverable per step.
var (
	// ErrBadMeasurement is returned when a measurement's mu or cov
	// contains NaN/Inf, or cov is not positive semidefinite.
	ErrBadMeasurement = errors.New("filter: bad measurement")
	// ErrBadTimeStep is returned when Predict is called with a
	// non-positive Δt.
	ErrBadTimeStep = errors.New("filter: non-positive time step")
	// ErrSingular is returned when a covariance square root or
	// innovation-covariance factorization fails even after jitter
	// retries.
	ErrSingular = errors.New("filter: singular covariance")
	// ErrGateRejected is returned when an update's innovation fails the
	// configured Mahalanobis gate.
	ErrGateRejected = errors.New("filter: innovation rejected by gate")
)
