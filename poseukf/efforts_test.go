package poseukf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bwehbe/slam-uwv-kalman-filters/dynamics"
	"github.com/bwehbe/slam-uwv-kalman-filters/geo"
	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
	"github.com/bwehbe/slam-uwv-kalman-filters/state"
)

// echoVelocityModel is a dynamics.Model test double whose CalcEfforts
// echoes back the body-frame velocity it is given, so a full-mode
// BodyEffortsMeasurement update has a non-degenerate dependence on
// state.Velocity to exercise.
type echoVelocityModel struct {
	params dynamics.UWVParameters
}

func (m *echoVelocityModel) CalcEfforts(accel6d, vel6d [6]float64, orientation manifold.Rotation) [6]float64 {
	var out [6]float64
	copy(out[:], vel6d[:])
	return out
}
func (m *echoVelocityModel) SetUWVParameters(p dynamics.UWVParameters) { m.params = p }
func (m *echoVelocityModel) GetUWVParameters() dynamics.UWVParameters  { return m.params }

func newEffortsTestFilter(t *testing.T, s state.PoseState, model dynamics.Model) *PoseFilter {
	t.Helper()
	location := geo.LocationConfiguration{Latitude: 0.6, Longitude: 0.1}
	f, err := New(s, smallCov(state.DOF, 1.0), location, dynamics.UWVParameters{}, defaultParameter(), zeroProcessNoise(), model, fakeSVR{})
	assert.NoError(t, err)
	return f
}

// Full mode overwrites the dynamic model's inertia/damping parameters
// from the state estimate (spec §4.4).
func TestBodyEffortsFullModeOverwritesParameters(t *testing.T) {
	assert := assert.New(t)

	s := state.New()
	s.Velocity = manifold.VecFrom(2, 0, 0)
	s.Inertia = manifold.VecFrom(1, 2, 3, 4, 5, 6, 7, 8, 9)
	s.LinDamping = manifold.VecFrom(9, 8, 7, 6, 5, 4, 3, 2, 1)
	s.QuadDamping = manifold.VecFrom(1, 1, 1, 1, 1, 1, 1, 1, 1)

	model := &echoVelocityModel{}
	f := newEffortsTestFilter(t, s, model)

	mu := manifold.VecFrom(2, 0, 0, 0, 0, 0)
	err := f.IntegrateBodyEfforts(mu, smallCov(6, 1e-3), false)
	assert.NoError(err)

	inertia := model.params.InertiaMatrix
	assert.Equal(1.0, inertia[0][0])
	assert.Equal(2.0, inertia[0][1])
	assert.Equal(3.0, inertia[0][5])
	assert.Equal(9.0, inertia[5][5])

	linDamping := model.params.LinDamping
	assert.Equal(9.0, linDamping[0][0])
	assert.Equal(1.0, linDamping[5][5])
}

// Velocity-only mode must not touch the dynamic model's parameters
// (spec §4.4: only velocity is informed by the innovation).
func TestBodyEffortsVelocityOnlyModeLeavesParametersUntouched(t *testing.T) {
	assert := assert.New(t)

	s := state.New()
	s.Velocity = manifold.VecFrom(1, 0, 0)

	model := &echoVelocityModel{}
	f := newEffortsTestFilter(t, s, model)

	before := model.params

	mu := manifold.VecFrom(1, 0, 0, 0, 0, 0)
	err := f.IntegrateBodyEfforts(mu, smallCov(6, 1e-3), true)
	assert.NoError(err)

	assert.Equal(before, model.params)
}
