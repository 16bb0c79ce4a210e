package poseukf

import (
	"gonum.org/v1/gonum/mat"

	"github.com/bwehbe/slam-uwv-kalman-filters/dynamics"
	"github.com/bwehbe/slam-uwv-kalman-filters/gate"
	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
	"github.com/bwehbe/slam-uwv-kalman-filters/state"
)

// effortsIndex maps the 3x3 horizontal-plus-yaw state blocks (inertia,
// lin_damping, quad_damping) onto the 6x6 hydrodynamic parameter
// matrices' (surge, sway, yaw) rows/columns, per spec §4.4's
// BodyEffortsMeasurement "Full mode" block mapping.
var effortsIndex = [3]int{0, 1, 5}

// overwriteBlock writes a 3x3 state-estimated block into the
// corresponding rows/columns of a 6x6 hydrodynamic parameter matrix.
func overwriteBlock(full *[6][6]float64, block [3][3]float64) {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			full[effortsIndex[r]][effortsIndex[c]] = block[r][c]
		}
	}
}

// vec6 turns a [6]float64 into a gonum column vector.
func vec6(v [6]float64) *mat.VecDense {
	return mat.NewVecDense(6, v[:])
}

// IntegrateBodyEfforts applies a force/torque update (spec §4.4
// BodyEffortsMeasurement). In full mode it overwrites the dynamic
// model's inertia/damping parameters from the current state estimate
// and replaces surge/sway/yaw with the learned regression model's
// output; this informs the hydrodynamic parameter states as well as
// velocity. In velocity-only mode the dynamic model's parameters are
// left as they are, and orientation, water current and body-frame
// acceleration are frozen at their current mean, so the innovation
// informs velocity only.
func (f *PoseFilter) IntegrateBodyEfforts(mu manifold.Vec, cov *mat.SymDense, onlyAffectVelocity bool) error {
	if err := checkMeasurement(mu, cov); err != nil {
		return err
	}

	rotationRateBody := f.RotationRate()

	var h func(state.PoseState) (*mat.VecDense, error)
	if onlyAffectVelocity {
		mean := f.engine.Mean()
		waterVelocity := manifold.VecFrom(mean.WaterVelocity[0], mean.WaterVelocity[1], 0)
		accelerationBody := mean.Orientation.InverseRotate(mean.Acceleration).
			Sub(rotationRateBody.Cross(rotationRateBody.Cross(f.parameter.ImuInBody)))
		orientation := mean.Orientation

		h = func(s state.PoseState) (*mat.VecDense, error) {
			return f.constrainVelocity(s, waterVelocity, orientation, rotationRateBody, accelerationBody)
		}
	} else {
		h = func(s state.PoseState) (*mat.VecDense, error) {
			return f.measurementEfforts(s, rotationRateBody)
		}
	}

	err := f.engine.UpdateVec(h, vec(mu), cov, gate.AcceptAny)
	return f.recordUpdate("body_efforts", err)
}

// measurementEfforts implements spec §4.4's "Full mode": it overwrites
// the dynamic model's inertia/damping parameters from the state
// estimate, evaluates the rigid-body model, then overwrites surge/sway/
// yaw with the learned 3-DoF regression model's output.
func (f *PoseFilter) measurementEfforts(s state.PoseState, rotationRateBody manifold.Vec) (*mat.VecDense, error) {
	params := f.dynamicModel.GetUWVParameters()
	overwriteBlock(&params.InertiaMatrix, s.InertiaMatrix())
	overwriteBlock(&params.LinDamping, s.LinDampingMatrix())
	overwriteBlock(&params.QuadDamping, s.QuadDampingMatrix())
	f.dynamicModel.SetUWVParameters(params)

	waterVelocity := manifold.VecFrom(s.WaterVelocity[0], s.WaterVelocity[1], 0)
	velocityBody := s.Orientation.InverseRotate(s.Velocity).
		Sub(rotationRateBody.Cross(f.parameter.ImuInBody)).
		Sub(s.Orientation.InverseRotate(waterVelocity))
	velocity6 := [6]float64{velocityBody[0], velocityBody[1], velocityBody[2], rotationRateBody[0], rotationRateBody[1], rotationRateBody[2]}

	accelerationBody := s.Orientation.InverseRotate(s.Acceleration).
		Sub(rotationRateBody.Cross(rotationRateBody.Cross(f.parameter.ImuInBody)))
	acceleration6 := [6]float64{accelerationBody[0], accelerationBody[1], accelerationBody[2], 0, 0, 0}

	efforts := f.dynamicModel.CalcEfforts(acceleration6, velocity6, s.Orientation)

	x := [6]float64{velocity6[0], velocity6[1], velocity6[5], acceleration6[0], acceleration6[1], acceleration6[5]}
	learned, err := f.svrModel.PredictEfforts(x, dynamics.SVRFeatureNames)
	if err != nil {
		return nil, err
	}
	efforts[0] = learned[0]
	efforts[1] = learned[1]
	efforts[5] = learned[2]

	return vec6(efforts), nil
}

// constrainVelocity implements spec §4.4's "Velocity-only mode": the
// hydrodynamic parameters, orientation, water current and body-frame
// acceleration are fixed at the values captured when the update was
// issued rather than re-derived per sigma point, so only the state's
// velocity field drives the innovation.
func (f *PoseFilter) constrainVelocity(s state.PoseState, waterVelocity manifold.Vec, orientation manifold.Rotation, rotationRateBody, accelerationBody manifold.Vec) (*mat.VecDense, error) {
	velocityBody := orientation.InverseRotate(s.Velocity).
		Sub(rotationRateBody.Cross(f.parameter.ImuInBody)).
		Sub(orientation.InverseRotate(waterVelocity))
	velocity6 := [6]float64{velocityBody[0], velocityBody[1], velocityBody[2], rotationRateBody[0], rotationRateBody[1], rotationRateBody[2]}
	acceleration6 := [6]float64{accelerationBody[0], accelerationBody[1], accelerationBody[2], 0, 0, 0}

	efforts := f.dynamicModel.CalcEfforts(acceleration6, velocity6, orientation)
	return vec6(efforts), nil
}
