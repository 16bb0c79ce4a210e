// Package ukf implements a manifold-valued unscented Kalman filter engine.
// It generalizes the teacher's flat-vector kalman/ukf.UKF to any state type
// satisfying filter.Manifold[S]: sigma points are generated in the tangent
// space at the mean and recombined with BoxPlus/BoxMinus instead of plain
// vector addition, so the same engine serves Euclidean states, SO(3)
// orientations, S² directions, and products of all three. The sigma-point
// weighting, gain, and covariance-correction arithmetic is carried over
// unchanged from kalman/ukf.UKF.Predict/Update.
package ukf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	filter "github.com/bwehbe/slam-uwv-kalman-filters"
	"github.com/bwehbe/slam-uwv-kalman-filters/gate"
	"github.com/bwehbe/slam-uwv-kalman-filters/matrix"
)

// karcherIterations bounds the mean-recombination loop in karcherMean.
const karcherIterations = 8

// karcherTolerance is the tangent-norm convergence threshold for
// karcherMean, matching spec §4.2's "iterate boxplus/boxminus to
// convergence" with a concrete stopping rule.
const karcherTolerance = 1e-9

// Config holds the unitless UKF tuning parameters, identical in meaning to
// the teacher's kalman/ukf.Config.
type Config struct {
	// Alpha controls sigma point spread, (0,1].
	Alpha float64
	// Beta incorporates prior knowledge of the state distribution; 2 is
	// optimal for a Gaussian prior.
	Beta float64
	// Kappa is a secondary scaling parameter, must be non-negative.
	Kappa float64
}

// DefaultConfig returns the conventional (Alpha=1e-3, Beta=2, Kappa=0)
// parameterization used throughout spec §4.2's worked examples.
func DefaultConfig() Config {
	return Config{Alpha: 1e-3, Beta: 2, Kappa: 0}
}

// Engine is a sigma-point Kalman filter over a manifold-valued state S.
type Engine[S filter.Manifold[S]] struct {
	mean S
	cov  *mat.SymDense
	n    int

	gamma float64
	wm0   float64
	wc0   float64
	w     float64

	lastMahalanobis2 float64
	lastInnovation   []float64
}

// New creates an Engine for initial state mean with covariance cov, which
// must be square with size equal to mean.DOF().
func New[S filter.Manifold[S]](mean S, cov *mat.SymDense, cfg Config) (*Engine[S], error) {
	n := mean.DOF()
	if cov.SymmetricDim() != n {
		return nil, fmt.Errorf("ukf: covariance size %d does not match state DOF %d", cov.SymmetricDim(), n)
	}
	if cfg.Alpha <= 0 || cfg.Beta < 0 || cfg.Kappa < 0 {
		return nil, fmt.Errorf("ukf: invalid config %+v", cfg)
	}

	lambda := cfg.Alpha*cfg.Alpha*(float64(n)+cfg.Kappa) - float64(n)
	gamma := math.Sqrt(float64(n) + lambda)
	wm0 := lambda / (float64(n) + lambda)
	wc0 := wm0 + (1 - cfg.Alpha*cfg.Alpha + cfg.Beta)
	w := 1 / (2 * (float64(n) + lambda))

	return &Engine[S]{
		mean:  mean,
		cov:   matrix.Symmetrize(cov),
		n:     n,
		gamma: gamma,
		wm0:   wm0,
		wc0:   wc0,
		w:     w,
	}, nil
}

// Mean returns the current state estimate.
func (e *Engine[S]) Mean() S { return e.mean }

// Cov returns the current state covariance.
func (e *Engine[S]) Cov() *mat.SymDense { return e.cov }

// SetState overwrites the engine's mean and covariance directly,
// bypassing Predict/Update. It exists for callers that compute a
// posterior outside this engine's own sigma-point cycle and need to
// splice it back in, such as the visual-marker augmentation protocol
// (spec §4.5), which runs a second, wider engine over (PoseState x
// marker pose) and then projects its posterior back onto this one.
func (e *Engine[S]) SetState(mean S, cov *mat.SymDense) error {
	if cov.SymmetricDim() != e.n {
		return fmt.Errorf("ukf: covariance size %d does not match state DOF %d", cov.SymmetricDim(), e.n)
	}
	e.mean = mean
	e.cov = matrix.Symmetrize(cov)
	return nil
}

// LastMahalanobis2 returns the squared Mahalanobis distance of the most
// recent update's innovation, or 0 if no update has run yet.
func (e *Engine[S]) LastMahalanobis2() float64 { return e.lastMahalanobis2 }

// LastInnovation returns the tangent-space innovation of the most recent
// update, or nil if no update has run yet.
func (e *Engine[S]) LastInnovation() []float64 { return e.lastInnovation }

// meanWeight returns the sigma point weight used when recombining means.
func (e *Engine[S]) meanWeight(i int) float64 {
	if i == 0 {
		return e.wm0
	}
	return e.w
}

// covWeight returns the sigma point weight used when recombining
// covariances.
func (e *Engine[S]) covWeight(i int) float64 {
	if i == 0 {
		return e.wc0
	}
	return e.w
}

// sigmaPoints generates 2n+1 sigma points around the current mean, spread
// along the columns of gamma·sqrt(cov), the manifold analogue of the
// teacher's GenSigmaPoints.
func (e *Engine[S]) sigmaPoints() ([]S, error) {
	l, err := matrix.CholeskySqrt(e.cov)
	if err != nil {
		return nil, err
	}

	points := make([]S, 2*e.n+1)
	points[0] = e.mean

	for i := 0; i < e.n; i++ {
		delta := make([]float64, e.n)
		for j := 0; j < e.n; j++ {
			delta[j] = e.gamma * l.At(j, i)
		}
		points[1+i] = e.mean.BoxPlus(delta)

		negDelta := make([]float64, e.n)
		for j, v := range delta {
			negDelta[j] = -v
		}
		points[1+e.n+i] = e.mean.BoxPlus(negDelta)
	}

	return points, nil
}

// karcherMean recombines a weighted set of sigma points on a manifold into
// their intrinsic (Karcher) mean, iterating boxplus/boxminus until the
// residual tangent vector falls below karcherTolerance or the iteration
// budget is exhausted.
func karcherMean[T filter.Manifold[T]](points []T, weight func(int) float64) T {
	guess := points[0]
	n := guess.DOF()

	for iter := 0; iter < karcherIterations; iter++ {
		avg := make([]float64, n)
		for i, p := range points {
			d := p.BoxMinus(guess)
			w := weight(i)
			for j := range avg {
				avg[j] += w * d[j]
			}
		}

		if floats.Norm(avg, 2) < karcherTolerance {
			break
		}
		guess = guess.BoxPlus(avg)
	}

	return guess
}

// tangentCovariance accumulates the weighted outer product of each point's
// tangent-space deviation from mean into a DOF(mean)-by-DOF(mean) symmetric
// matrix.
func tangentCovariance[T filter.Manifold[T]](points []T, mean T, weight func(int) float64) *mat.SymDense {
	n := mean.DOF()
	cov := mat.NewSymDense(n, nil)

	for i, p := range points {
		d := p.BoxMinus(mean)
		w := weight(i)
		for a := 0; a < n; a++ {
			for b := a; b < n; b++ {
				cov.SetSym(a, b, cov.At(a, b)+w*d[a]*d[b])
			}
		}
	}

	return cov
}

// Predict propagates the state through f, recombines the resulting sigma
// points into a new mean and covariance, and adds process noise q
// (size DOF x DOF). It mirrors kalman/ukf.UKF.Predict, with flat vector
// addition replaced by Karcher-mean recombination.
func (e *Engine[S]) Predict(f func(S) (S, error), q *mat.SymDense) error {
	points, err := e.sigmaPoints()
	if err != nil {
		return err
	}

	propagated := make([]S, len(points))
	for i, p := range points {
		np, err := f(p)
		if err != nil {
			return fmt.Errorf("ukf: propagate sigma point %d: %w", i, err)
		}
		propagated[i] = np
	}

	mean := karcherMean(propagated, e.meanWeight)
	cov := tangentCovariance(propagated, mean, e.covWeight)

	if q != nil {
		for a := 0; a < e.n; a++ {
			for b := a; b < e.n; b++ {
				cov.SetSym(a, b, cov.At(a, b)+q.At(a, b))
			}
		}
	}

	e.mean = mean
	e.cov = matrix.Symmetrize(cov)
	return nil
}

// applyCorrection runs the shared gain/correction step of Update, given the
// cross-covariance pxy, innovation covariance pyy (noise already added),
// and tangent-space innovation. It gates on d2 before touching any state.
func (e *Engine[S]) applyCorrection(pxy *mat.Dense, pyy *mat.SymDense, innovation *mat.VecDense, g filter.Gate) error {
	d2, err := gate.Mahalanobis2(innovation, pyy)
	if err != nil {
		return err
	}
	if g != nil && !g(d2) {
		return filter.ErrGateRejected
	}

	pyyInv := &mat.Dense{}
	if err := pyyInv.Inverse(pyy); err != nil {
		return fmt.Errorf("ukf: innovation covariance not invertible: %w", filter.ErrSingular)
	}

	gain := &mat.Dense{}
	gain.Mul(pxy, pyyInv)

	corr := &mat.Dense{}
	corr.Mul(gain, innovation)

	delta := make([]float64, e.n)
	for i := 0; i < e.n; i++ {
		delta[i] = corr.At(i, 0)
	}

	kr := &mat.Dense{}
	kr.Mul(pyy, gain.T())
	pCorr := &mat.Dense{}
	pCorr.Mul(gain, kr)

	newCov := mat.NewSymDense(e.n, nil)
	for a := 0; a < e.n; a++ {
		for b := a; b < e.n; b++ {
			newCov.SetSym(a, b, e.cov.At(a, b)-pCorr.At(a, b))
		}
	}

	e.mean = e.mean.BoxPlus(delta)
	e.cov = matrix.Symmetrize(newCov)
	e.lastMahalanobis2 = d2
	e.lastInnovation = mat.Col(nil, 0, innovation)

	return nil
}

// UpdateVec corrects the state with a Euclidean (flat vector) measurement:
// h maps a state sigma point to its predicted measurement, z is the actual
// measurement, and r is the measurement noise covariance. g is consulted
// with the innovation's squared Mahalanobis distance before any state
// mutation happens; a rejecting gate leaves the engine's state untouched
// and returns filter.ErrGateRejected.
func (e *Engine[S]) UpdateVec(h func(S) (*mat.VecDense, error), z *mat.VecDense, r *mat.SymDense, g filter.Gate) error {
	points, err := e.sigmaPoints()
	if err != nil {
		return err
	}

	m := z.Len()
	outs := make([]*mat.VecDense, len(points))
	for i, p := range points {
		y, err := h(p)
		if err != nil {
			return fmt.Errorf("ukf: measure sigma point %d: %w", i, err)
		}
		outs[i] = y
	}

	yMean := mat.NewVecDense(m, nil)
	for i, y := range outs {
		yMean.AddScaledVec(yMean, e.meanWeight(i), y)
	}

	pyy := mat.NewSymDense(m, nil)
	pxy := mat.NewDense(e.n, m, nil)

	for i, y := range outs {
		w := e.covWeight(i)

		dy := mat.NewVecDense(m, nil)
		dy.SubVec(y, yMean)

		dx := points[i].BoxMinus(e.mean)

		for a := 0; a < m; a++ {
			for b := a; b < m; b++ {
				pyy.SetSym(a, b, pyy.At(a, b)+w*dy.AtVec(a)*dy.AtVec(b))
			}
		}
		for a := 0; a < e.n; a++ {
			for b := 0; b < m; b++ {
				pxy.Set(a, b, pxy.At(a, b)+w*dx[a]*dy.AtVec(b))
			}
		}
	}

	for a := 0; a < m; a++ {
		for b := a; b < m; b++ {
			pyy.SetSym(a, b, pyy.At(a, b)+r.At(a, b))
		}
	}

	innovation := mat.NewVecDense(m, nil)
	innovation.SubVec(z, yMean)

	return e.applyCorrection(pxy, pyy, innovation, g)
}

// UpdateManifold corrects the state of engine e with a measurement whose
// predicted value lives on a (possibly non-Euclidean) manifold M, such as
// an S² bearing. h maps a state sigma point to its predicted measurement,
// z is the actual measurement, and r is the measurement noise covariance
// over M's tangent space.
func UpdateManifold[S filter.Manifold[S], M filter.Manifold[M]](e *Engine[S], h func(S) (M, error), z M, r *mat.SymDense, g filter.Gate) error {
	points, err := e.sigmaPoints()
	if err != nil {
		return err
	}

	outs := make([]M, len(points))
	for i, p := range points {
		y, err := h(p)
		if err != nil {
			return fmt.Errorf("ukf: measure sigma point %d: %w", i, err)
		}
		outs[i] = y
	}

	yMean := karcherMean(outs, e.meanWeight)
	m := yMean.DOF()

	pyy := mat.NewSymDense(m, nil)
	pxy := mat.NewDense(e.n, m, nil)

	for i, y := range outs {
		w := e.covWeight(i)
		dy := y.BoxMinus(yMean)
		dx := points[i].BoxMinus(e.mean)

		for a := 0; a < m; a++ {
			for b := a; b < m; b++ {
				pyy.SetSym(a, b, pyy.At(a, b)+w*dy[a]*dy[b])
			}
		}
		for a := 0; a < e.n; a++ {
			for b := 0; b < m; b++ {
				pxy.Set(a, b, pxy.At(a, b)+w*dx[a]*dy[b])
			}
		}
	}

	for a := 0; a < m; a++ {
		for b := a; b < m; b++ {
			pyy.SetSym(a, b, pyy.At(a, b)+r.At(a, b))
		}
	}

	innovation := mat.NewVecDense(m, z.BoxMinus(yMean))

	return e.applyCorrection(pxy, pyy, innovation, g)
}
