package ukf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	filter "github.com/bwehbe/slam-uwv-kalman-filters"
	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
)

func identityMeasurement(v manifold.Vec) (*mat.VecDense, error) {
	return mat.NewVecDense(len(v), []float64(v)), nil
}

func smallCov(n int, v float64) *mat.SymDense {
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		data[i*n+i] = v
	}
	return mat.NewSymDense(n, data)
}

func TestNewRejectsMismatchedDimensions(t *testing.T) {
	assert := assert.New(t)

	mean := manifold.VecFrom(1.0, 3.0)

	e, err := New(mean, smallCov(2, 0.25), DefaultConfig())
	assert.NotNil(e)
	assert.NoError(err)

	e, err = New(mean, smallCov(3, 0.25), DefaultConfig())
	assert.Nil(e)
	assert.Error(err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	assert := assert.New(t)

	mean := manifold.VecFrom(1.0, 3.0)
	cov := smallCov(2, 0.25)

	_, err := New(mean, cov, Config{Alpha: 0, Beta: 2, Kappa: 0})
	assert.Error(err)

	_, err = New(mean, cov, Config{Alpha: 1, Beta: -1, Kappa: 0})
	assert.Error(err)

	_, err = New(mean, cov, Config{Alpha: 1, Beta: 2, Kappa: -1})
	assert.Error(err)
}

func TestSigmaPointsRecombineToMean(t *testing.T) {
	assert := assert.New(t)

	mean := manifold.VecFrom(1.0, 3.0)
	e, err := New(mean, smallCov(2, 0.25), DefaultConfig())
	assert.NoError(err)

	points, err := e.sigmaPoints()
	assert.NoError(err)
	assert.Len(points, 2*e.n+1)

	recombined := karcherMean(points, e.meanWeight)
	for i, v := range recombined {
		assert.InDelta(mean[i], v, 1e-9)
	}
}

func TestPredictAppliesDriftAndProcessNoise(t *testing.T) {
	assert := assert.New(t)

	mean := manifold.VecFrom(1.0, 3.0)
	e, err := New(mean, smallCov(2, 0.25), DefaultConfig())
	assert.NoError(err)

	drift := manifold.VecFrom(0.5, -1.0)
	drifted := func(v manifold.Vec) (manifold.Vec, error) { return v.BoxPlus(drift), nil }

	q := smallCov(2, 0.01)
	assert.NoError(e.Predict(drifted, q))

	assert.InDelta(1.5, e.Mean()[0], 1e-9)
	assert.InDelta(2.0, e.Mean()[1], 1e-9)
	assert.True(e.Cov().At(0, 0) > 0.25)
}

func TestPredictPropagationErrorLeavesStateUntouched(t *testing.T) {
	assert := assert.New(t)

	mean := manifold.VecFrom(1.0, 3.0)
	e, err := New(mean, smallCov(2, 0.25), DefaultConfig())
	assert.NoError(err)

	failing := func(v manifold.Vec) (manifold.Vec, error) { return nil, filter.ErrSingular }
	err = e.Predict(failing, smallCov(2, 0.01))
	assert.Error(err)

	assert.Equal(mean, e.Mean())
}

func TestUpdateVecPullsMeanTowardMeasurement(t *testing.T) {
	assert := assert.New(t)

	mean := manifold.VecFrom(1.0, 3.0)
	e, err := New(mean, smallCov(2, 0.25), DefaultConfig())
	assert.NoError(err)

	z := mat.NewVecDense(2, []float64{2.0, 3.0})
	r := smallCov(2, 0.01)

	err = e.UpdateVec(identityMeasurement, z, r, nil)
	assert.NoError(err)

	assert.True(e.Mean()[0] > 1.0 && e.Mean()[0] < 2.0)
	assert.InDelta(3.0, e.Mean()[1], 1e-6)
}

func TestUpdateVecGateRejectionLeavesStateUntouched(t *testing.T) {
	assert := assert.New(t)

	mean := manifold.VecFrom(1.0, 3.0)
	e, err := New(mean, smallCov(2, 0.01), DefaultConfig())
	assert.NoError(err)

	z := mat.NewVecDense(2, []float64{100.0, 100.0})
	r := smallCov(2, 0.01)
	rejectAll := func(d2 float64) bool { return false }

	err = e.UpdateVec(identityMeasurement, z, r, rejectAll)
	assert.Error(err)
	assert.True(errors.Is(err, filter.ErrGateRejected))

	assert.Equal(mean, e.Mean())
}

func TestUpdateManifoldOnSphere2(t *testing.T) {
	assert := assert.New(t)

	mean := manifold.NewSphere2(manifold.VecFrom(0, 0, 1))
	e, err := New(mean, smallCov(2, 0.05), DefaultConfig())
	assert.NoError(err)

	h := func(s manifold.Sphere2) (manifold.Sphere2, error) { return s, nil }
	z := manifold.NewSphere2(manifold.VecFrom(0.05, 0, 1))
	r := smallCov(2, 1e-4)

	err = UpdateManifold[manifold.Sphere2, manifold.Sphere2](e, h, z, r, nil)
	assert.NoError(err)
	assert.NotEqual(mean, e.Mean())
}

func TestSetStateRejectsMismatchedCovariance(t *testing.T) {
	assert := assert.New(t)

	mean := manifold.VecFrom(1.0, 3.0)
	e, err := New(mean, smallCov(2, 0.25), DefaultConfig())
	assert.NoError(err)

	assert.Error(e.SetState(mean, smallCov(3, 0.25)))

	newMean := manifold.VecFrom(5.0, 5.0)
	assert.NoError(e.SetState(newMean, smallCov(2, 0.1)))
	assert.Equal(newMean, e.Mean())
}
