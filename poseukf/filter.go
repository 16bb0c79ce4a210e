package poseukf

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	filter "github.com/bwehbe/slam-uwv-kalman-filters"
	"github.com/bwehbe/slam-uwv-kalman-filters/dynamics"
	"github.com/bwehbe/slam-uwv-kalman-filters/gate"
	"github.com/bwehbe/slam-uwv-kalman-filters/geo"
	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
	"github.com/bwehbe/slam-uwv-kalman-filters/matrix"
	"github.com/bwehbe/slam-uwv-kalman-filters/state"
	"github.com/bwehbe/slam-uwv-kalman-filters/ukf"
)

// PoseFilter is the public AUV pose estimator: a manifold UKF over
// state.PoseState, fed by the process model and measurement models in
// this package. It owns its dynamics.Model (which it mutates in place
// before every full-mode body-efforts evaluation, per spec §5 — callers must not
// share one Model instance across filters) and treats its
// geo.Projection as read-only after construction.
type PoseFilter struct {
	engine       *ukf.Engine[state.PoseState]
	projection   geo.Projection
	dynamicModel dynamics.Model
	svrModel     dynamics.SVRThreeDOFModel
	parameter    Parameter
	offsets      offsets
	processNoise *mat.SymDense
	gyro         manifold.Vec

	stats FilterStats
}

// New constructs a PoseFilter, building its geographic projection from
// location via geo.NewFlatEarth. dynamicModel is configured with
// modelParameters immediately; processNoise is the base 53x53 Q spec
// §4.2 requires, modulated every Predict per spec §4.3.
func New(
	initial state.PoseState,
	cov *mat.SymDense,
	location geo.LocationConfiguration,
	modelParameters dynamics.UWVParameters,
	parameter Parameter,
	processNoise *mat.SymDense,
	dynamicModel dynamics.Model,
	svrModel dynamics.SVRThreeDOFModel,
) (*PoseFilter, error) {
	return NewWithProjection(initial, cov, geo.NewFlatEarth(location), modelParameters, parameter, processNoise, dynamicModel, svrModel)
}

// NewWithProjection is New with an injected geo.Projection, for callers
// that supply their own geodetic projection (spec §1 places a real
// projection out of scope for this core) or for tests.
func NewWithProjection(
	initial state.PoseState,
	cov *mat.SymDense,
	projection geo.Projection,
	modelParameters dynamics.UWVParameters,
	parameter Parameter,
	processNoise *mat.SymDense,
	dynamicModel dynamics.Model,
	svrModel dynamics.SVRThreeDOFModel,
) (*PoseFilter, error) {
	if processNoise == nil || processNoise.SymmetricDim() != state.DOF {
		return nil, fmt.Errorf("poseukf: process noise must be %dx%d", state.DOF, state.DOF)
	}
	if initial.Gravity[0] <= 0 || initial.WaterDensity[0] <= 0 {
		return nil, fmt.Errorf("poseukf: initial gravity and water density must be positive")
	}

	engine, err := ukf.New(initial, cov, ukf.DefaultConfig())
	if err != nil {
		return nil, err
	}

	dynamicModel.SetUWVParameters(modelParameters)

	return &PoseFilter{
		engine:       engine,
		projection:   projection,
		dynamicModel: dynamicModel,
		svrModel:     svrModel,
		parameter:    parameter,
		offsets: offsets{
			inertia:      initial.Inertia.Clone(),
			linDamping:   initial.LinDamping.Clone(),
			quadDamping:  initial.QuadDamping.Clone(),
			waterDensity: initial.WaterDensity[0],
		},
		processNoise: processNoise,
		gyro:         manifold.NewVec(3),
		stats:        newFilterStats(),
	}, nil
}

// Mean returns the current state estimate.
func (f *PoseFilter) Mean() state.PoseState { return f.engine.Mean() }

// Cov returns the current state covariance (53x53).
func (f *PoseFilter) Cov() *mat.SymDense { return f.engine.Cov() }

// Stats returns a snapshot of the filter's rejection counters and last
// innovation magnitudes, the summary statistics spec §6.3 allows.
func (f *PoseFilter) Stats() FilterStats { return f.stats.clone() }

// RotationRate returns the latched gyro reading corrected for the
// current bias estimate and the earth-rotation vector expressed in the
// IMU frame. This is the one operation the spec's §4.4 "velocity-only"
// efforts mode depends on but never names explicitly; see SPEC_FULL.md
// §4 and original_source/src/PoseUKF.cpp's getRotationRate.
func (f *PoseFilter) RotationRate() manifold.Vec {
	mean := f.engine.Mean()
	latitude, _ := f.projection.NavToWorld(mean.Position[0], mean.Position[1])
	earthRotation := geo.EarthRotation(latitude)
	earthRotationVec := manifold.VecFrom(earthRotation[0], earthRotation[1], earthRotation[2])
	return f.gyro.Sub(mean.BiasGyro).Sub(mean.Orientation.InverseRotate(earthRotationVec))
}

// Predict advances the state estimate by deltaTime seconds using the
// process model and the latched gyro reading (spec §4.3). A
// non-positive deltaTime is rejected with filter.ErrBadTimeStep and
// leaves the state unchanged (spec §7 BadTimeStep).
func (f *PoseFilter) Predict(deltaTime float64) error {
	if deltaTime <= 0 {
		return fmt.Errorf("poseukf: predict requires a positive time step: %w", filter.ErrBadTimeStep)
	}

	q := f.modulateProcessNoise(deltaTime)
	off := f.offsets
	gyro := f.gyro
	projection := f.projection
	parameter := f.parameter

	fn := func(s state.PoseState) (state.PoseState, error) {
		return processModel(s, deltaTime, gyro, projection, off, parameter), nil
	}

	if err := f.engine.Predict(fn, q); err != nil {
		if errors.Is(err, filter.ErrSingular) {
			f.stats.SingularFailures++
		}
		return err
	}
	return nil
}

// modulateProcessNoise rebuilds the per-step process noise from the
// base processNoise per spec §4.3: rotate the orientation block into
// the current body frame, add the depth-scaled water-velocity term, and
// scale the whole matrix by deltaTime².
func (f *PoseFilter) modulateProcessNoise(deltaTime float64) *mat.SymDense {
	n := f.processNoise.SymmetricDim()
	q := mat.NewSymDense(n, nil)
	q.CopySym(f.processNoise)

	mean := f.engine.Mean()

	offset, size, _ := state.Block(state.Orientation)
	rot := mean.Orientation.Matrix()
	r := mat.NewDense(3, 3, []float64{
		rot[0][0], rot[0][1], rot[0][2],
		rot[1][0], rot[1][1], rot[1][2],
		rot[2][0], rot[2][1], rot[2][2],
	})
	qOrient := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			qOrient.Set(i, j, q.At(offset+i, offset+j))
		}
	}
	rotated := &mat.Dense{}
	rotated.Mul(r, qOrient)
	rotated.Mul(rotated, r.T())
	for i := 0; i < size; i++ {
		for j := i; j < size; j++ {
			q.SetSym(offset+i, offset+j, rotated.At(i, j))
		}
	}

	scaled := manifold.VecFrom(mean.Velocity[0], mean.Velocity[1], 10*mean.Velocity[2])
	extra := f.parameter.WaterVelocityScale * scaled.Dot(scaled) * deltaTime
	for _, name := range []string{state.WaterVelocity, state.WaterVelocityBelow} {
		off, size, _ := state.Block(name)
		for i := 0; i < size; i++ {
			q.SetSym(off+i, off+i, q.At(off+i, off+i)+extra)
		}
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			q.SetSym(i, j, q.At(i, j)*deltaTime*deltaTime)
		}
	}

	return matrix.Symmetrize(q)
}

// recordUpdate updates the filter's summary statistics from the
// outcome of a measurement update and returns err unchanged.
func (f *PoseFilter) recordUpdate(kind string, err error) error {
	switch {
	case err == nil:
		f.stats.LastMahalanobis2[kind] = f.engine.LastMahalanobis2()
	case errors.Is(err, filter.ErrGateRejected):
		f.stats.Rejections[kind]++
	case errors.Is(err, filter.ErrSingular):
		f.stats.SingularFailures++
	}
	return err
}

// IntegrateRotationRate latches mu as the current gyro reading; spec
// §2 treats a gyro sample as an input, not a measurement, so no UKF
// update happens.
func (f *PoseFilter) IntegrateRotationRate(mu manifold.Vec, cov *mat.SymDense) error {
	if err := checkMeasurement(mu, cov); err != nil {
		return err
	}
	f.gyro = mu.Clone()
	return nil
}

// IntegrateVelocity applies a DVL velocity update (spec §4.4 Velocity).
func (f *PoseFilter) IntegrateVelocity(mu manifold.Vec, cov *mat.SymDense) error {
	if err := checkMeasurement(mu, cov); err != nil {
		return err
	}
	err := f.engine.UpdateVec(measurementVelocity, vec(mu), cov, gate.AcceptAny)
	return f.recordUpdate("velocity", err)
}

// IntegrateAcceleration applies an accelerometer update (spec §4.4
// Acceleration).
func (f *PoseFilter) IntegrateAcceleration(mu manifold.Vec, cov *mat.SymDense) error {
	if err := checkMeasurement(mu, cov); err != nil {
		return err
	}
	err := f.engine.UpdateVec(measurementAcceleration, vec(mu), cov, gate.AcceptAny)
	return f.recordUpdate("acceleration", err)
}

// IntegrateZPosition applies an altitude update (spec §4.4 Z_Position).
func (f *PoseFilter) IntegrateZPosition(mu manifold.Vec, cov *mat.SymDense) error {
	if err := checkMeasurement(mu, cov); err != nil {
		return err
	}
	err := f.engine.UpdateVec(measurementZPosition, vec(mu), cov, gate.AcceptAny)
	return f.recordUpdate("z_position", err)
}

// IntegrateXYPosition applies a 2D navigation-frame position update
// (spec §4.4 XY_Position), gated at p95 per spec §4.6.
func (f *PoseFilter) IntegrateXYPosition(mu manifold.Vec, cov *mat.SymDense) error {
	if err := checkMeasurement(mu, cov); err != nil {
		return err
	}
	err := f.engine.UpdateVec(measurementXYPosition, vec(mu), cov, gate.P95)
	return f.recordUpdate("xy_position", err)
}

// IntegratePressure applies a pressure-sensor update (spec §4.4
// Pressure). sensorInIMU is the sensor's lever arm from the IMU origin.
func (f *PoseFilter) IntegratePressure(mu manifold.Vec, cov *mat.SymDense, sensorInIMU manifold.Vec) error {
	if err := checkMeasurement(mu, cov); err != nil {
		return err
	}
	h := func(s state.PoseState) (*mat.VecDense, error) {
		return measurementPressure(s, sensorInIMU, f.parameter.AtmosphericPressure)
	}
	err := f.engine.UpdateVec(h, vec(mu), cov, gate.AcceptAny)
	return f.recordUpdate("pressure", err)
}

// IntegrateWaterVelocity applies an ADCP update (spec §4.4
// WaterVelocity), gated at p95 per spec §4.6. cellWeighting is the
// convex-combination weight α between the lower and upper current
// cells.
func (f *PoseFilter) IntegrateWaterVelocity(mu manifold.Vec, cov *mat.SymDense, cellWeighting float64) error {
	if err := checkMeasurement(mu, cov); err != nil {
		return err
	}
	h := func(s state.PoseState) (*mat.VecDense, error) {
		return measurementWaterCurrents(s, cellWeighting)
	}
	err := f.engine.UpdateVec(h, vec(mu), cov, gate.P95)
	return f.recordUpdate("water_velocity", err)
}

// IntegrateGeographicPosition applies a world lat/lon fix (spec §4.4
// GeographicPosition): mu is projected to the local NWU plane via the
// filter's projection, corrected for the GPS antenna's lever arm from
// the body origin, and consumed as an XY_Position update gated at p95.
func (f *PoseFilter) IntegrateGeographicPosition(mu manifold.Vec, cov *mat.SymDense, gpsInBody manifold.Vec) error {
	if err := checkMeasurement(mu, cov); err != nil {
		return err
	}

	x, y := f.projection.WorldToNav(mu[0], mu[1])
	lever := f.engine.Mean().Orientation.Rotate(gpsInBody)
	projected := manifold.VecFrom(x-lever[0], y-lever[1])

	err := f.engine.UpdateVec(measurementXYPosition, vec(projected), cov, gate.P95)
	return f.recordUpdate("geographic_position", err)
}
