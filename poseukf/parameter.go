// Package poseukf is the public filter: PoseUKFParameter, the process
// model, the per-sensor measurement models, the body-efforts dual-mode
// measurement, the visual-marker augmentation protocol, and PoseFilter
// itself (spec §6.1, §4.3, §4.4, §4.5). It wires ukf.Engine[state.
// PoseState] with the manifold arithmetic of state.PoseState and the
// external collaborators of geo.Projection and dynamics.Model/
// SVRThreeDOFModel.
package poseukf

import "github.com/bwehbe/slam-uwv-kalman-filters/manifold"

// Parameter holds the tunables spec §6.1's PoseUKFParameter names: lever
// arms, bias offsets/time-constants, and the Gauss-Markov relaxation
// time constants for every drifting state field.
type Parameter struct {
	ImuInBody manifold.Vec

	GyroBiasOffset manifold.Vec
	GyroBiasTau    float64
	AccBiasOffset  manifold.Vec
	AccBiasTau     float64

	InertiaTau       float64
	LinDampingTau    float64
	QuadDampingTau   float64
	WaterVelocityTau float64
	ADCPBiasTau      float64
	WaterDensityTau  float64

	WaterVelocityLimits float64
	WaterVelocityScale  float64

	AtmosphericPressure float64
}

// CameraConfiguration is the pinhole intrinsics used by the
// visual-marker protocol to turn pixel coordinates into camera-frame
// rays (spec §4.5).
type CameraConfiguration struct {
	FX, FY float64
	CX, CY float64
}

// Pose bundles a translation and orientation, used for marker and
// camera extrinsics in the visual-marker protocol (spec §4.5).
type Pose struct {
	Position    manifold.Vec
	Orientation manifold.Rotation
}

// Compose returns the pose equivalent to applying p first, then q: a
// point expressed in p's frame maps through p then q into q's parent
// frame.
func Compose(q, p Pose) Pose {
	return Pose{
		Position:    q.Position.Add(q.Orientation.Rotate(p.Position)),
		Orientation: q.Orientation.Mul(p.Orientation),
	}
}

// Inverse returns the pose that undoes p.
func (p Pose) Inverse() Pose {
	inv := p.Orientation.Inverse()
	return Pose{
		Position:    inv.Rotate(p.Position).Scale(-1),
		Orientation: inv,
	}
}

// Transform applies p to point v: v is expressed in p's source frame,
// the result in p's destination frame.
func (p Pose) Transform(v manifold.Vec) manifold.Vec {
	return p.Orientation.Rotate(v).Add(p.Position)
}
