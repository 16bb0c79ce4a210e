package poseukf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/bwehbe/slam-uwv-kalman-filters/dynamics"
	"github.com/bwehbe/slam-uwv-kalman-filters/geo"
	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
	"github.com/bwehbe/slam-uwv-kalman-filters/state"
)

// fakeModel is a minimal dynamics.Model test double: it records
// whatever parameters were last set and returns zero efforts,
// sufficient for tests that only exercise the Velocity-only
// BodyEffortsMeasurement path or check that parameters get threaded
// through.
type fakeModel struct {
	params dynamics.UWVParameters
}

func (m *fakeModel) CalcEfforts(accel6d, vel6d [6]float64, orientation manifold.Rotation) [6]float64 {
	return [6]float64{}
}
func (m *fakeModel) SetUWVParameters(p dynamics.UWVParameters) { m.params = p }
func (m *fakeModel) GetUWVParameters() dynamics.UWVParameters  { return m.params }

// fakeSVR is a minimal dynamics.SVRThreeDOFModel test double.
type fakeSVR struct{}

func (fakeSVR) PredictEfforts(x [6]float64, names [10]string) ([3]float64, error) {
	return [3]float64{}, nil
}

func defaultParameter() Parameter {
	return Parameter{
		ImuInBody:           manifold.NewVec(3),
		GyroBiasOffset:      manifold.NewVec(3),
		GyroBiasTau:         100,
		AccBiasOffset:       manifold.NewVec(3),
		AccBiasTau:          100,
		InertiaTau:          100,
		LinDampingTau:       100,
		QuadDampingTau:      100,
		WaterVelocityTau:    100,
		ADCPBiasTau:         100,
		WaterDensityTau:     100,
		WaterVelocityLimits: 1,
		WaterVelocityScale:  0,
		AtmosphericPressure: 101325,
	}
}

func zeroProcessNoise() *mat.SymDense {
	return mat.NewSymDense(state.DOF, nil)
}

func smallCov(n int, v float64) *mat.SymDense {
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		data[i*n+i] = v
	}
	return mat.NewSymDense(n, data)
}

func newTestFilter(t *testing.T, initial state.PoseState) *PoseFilter {
	t.Helper()
	cov := smallCov(state.DOF, 1.0)
	location := geo.LocationConfiguration{Latitude: 0.6, Longitude: 0.1}
	f, err := New(initial, cov, location, dynamics.UWVParameters{}, defaultParameter(), zeroProcessNoise(), &fakeModel{}, fakeSVR{})
	assert.NoError(t, err)
	return f
}

// S-1: gravity alignment (spec §8).
func TestGravityAlignment(t *testing.T) {
	assert := assert.New(t)

	s := state.New()
	f := newTestFilter(t, s)

	traceBefore := accelerationTrace(f.Cov())

	mu := manifold.VecFrom(0, 0, 9.81)
	r := smallCov(3, 1e-4)
	err := f.IntegrateAcceleration(mu, r)
	assert.NoError(err)

	mean := f.Mean()
	assert.InDelta(0, mean.Acceleration[0], 1e-6)
	assert.InDelta(0, mean.Acceleration[1], 1e-6)
	assert.InDelta(0, mean.Acceleration[2], 1e-6)

	traceAfter := accelerationTrace(f.Cov())
	assert.Less(traceAfter, traceBefore)
}

func accelerationTrace(cov *mat.SymDense) float64 {
	offset, size, _ := state.Block(state.Acceleration)
	var trace float64
	for i := 0; i < size; i++ {
		trace += cov.At(offset+i, offset+i)
	}
	return trace
}

// S-2: static pressure (spec §8).
func TestStaticPressure(t *testing.T) {
	assert := assert.New(t)

	s := state.New()
	s.Position = manifold.VecFrom(0, 0, -10)
	s.Gravity = manifold.VecFrom(9.81)
	s.WaterDensity = manifold.VecFrom(1025)

	got, err := measurementPressure(s, manifold.NewVec(3), 101325)
	assert.NoError(err)
	assert.InDelta(201877.5, got.AtVec(0), 0.5)
}

// S-3: pure translation under zero process noise (spec §8).
func TestPureTranslation(t *testing.T) {
	assert := assert.New(t)

	s := state.New()
	s.Velocity = manifold.VecFrom(1, 0, 0)
	f := newTestFilter(t, s)

	err := f.Predict(1.0)
	assert.NoError(err)

	mean := f.Mean()
	assert.InDelta(1.0, mean.Position[0], 1e-9)
	assert.InDelta(0.0, mean.Position[1], 1e-9)
	assert.InDelta(0.0, mean.Position[2], 1e-9)
}

func TestBadTimeStepLeavesStateUnchanged(t *testing.T) {
	assert := assert.New(t)

	s := state.New()
	s.Velocity = manifold.VecFrom(1, 0, 0)
	f := newTestFilter(t, s)

	before := f.Mean()
	err := f.Predict(0)
	assert.Error(err)
	assert.Equal(before, f.Mean())

	err = f.Predict(-1)
	assert.Error(err)
	assert.Equal(before, f.Mean())
}

func TestXYPositionGateRejectionIsNoOp(t *testing.T) {
	assert := assert.New(t)

	s := state.New()
	f := newTestFilter(t, s)
	f.engine.SetState(s, smallCov(state.DOF, 0.01))

	meanBefore := f.Mean()
	covBefore := mat.DenseCopyOf(f.Cov())

	err := f.IntegrateXYPosition(manifold.VecFrom(10, 10), smallCov(2, 0.01))
	assert.Error(err)
	assert.Equal(meanBefore, f.Mean())
	assert.True(mat.EqualApprox(covBefore, f.Cov(), 1e-12))
}

func TestRotationRateLatchesWithoutUpdate(t *testing.T) {
	assert := assert.New(t)

	s := state.New()
	f := newTestFilter(t, s)
	meanBefore := f.Mean()

	err := f.IntegrateRotationRate(manifold.VecFrom(0.1, 0.2, 0.3), smallCov(3, 1e-6))
	assert.NoError(err)
	assert.Equal(meanBefore, f.Mean())
	assert.Equal(manifold.VecFrom(0.1, 0.2, 0.3), f.gyro)
}
