package poseukf

import (
	"gonum.org/v1/gonum/mat"

	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
	"github.com/bwehbe/slam-uwv-kalman-filters/state"
)

// vec wraps a manifold.Vec as a gonum column vector, the shape
// ukf.Engine.UpdateVec's h functions must return.
func vec(v manifold.Vec) *mat.VecDense {
	return mat.NewVecDense(len(v), []float64(v))
}

// measurementXYPosition implements spec §4.4's XY_Position model: the
// first two components of position.
func measurementXYPosition(s state.PoseState) (*mat.VecDense, error) {
	return vec(manifold.VecFrom(s.Position[0], s.Position[1])), nil
}

// measurementZPosition implements spec §4.4's Z_Position model: the
// third component of position.
func measurementZPosition(s state.PoseState) (*mat.VecDense, error) {
	return vec(manifold.VecFrom(s.Position[2])), nil
}

// measurementPressure implements spec §4.4's Pressure model:
// P_atm - z_sensor * gravity * water_density, where z_sensor is the
// sensor's nav-frame altitude.
func measurementPressure(s state.PoseState, sensorInIMU manifold.Vec, atmosphericPressure float64) (*mat.VecDense, error) {
	sensorInNav := s.Position.Add(s.Orientation.Rotate(sensorInIMU))
	pressure := atmosphericPressure - sensorInNav[2]*s.Gravity[0]*s.WaterDensity[0]
	return vec(manifold.VecFrom(pressure)), nil
}

// measurementVelocity implements spec §4.4's DVL model: velocity
// expressed in the IMU frame.
func measurementVelocity(s state.PoseState) (*mat.VecDense, error) {
	return vec(s.Orientation.InverseRotate(s.Velocity)), nil
}

// measurementAcceleration implements spec §4.4's Acceleration model: the
// expected accelerometer reading, i.e. acceleration plus gravity rotated
// into the IMU frame, with the accelerometer bias added.
func measurementAcceleration(s state.PoseState) (*mat.VecDense, error) {
	withGravity := s.Acceleration.Add(manifold.VecFrom(0, 0, s.Gravity[0]))
	return vec(s.Orientation.InverseRotate(withGravity).Add(s.BiasAcc)), nil
}

// measurementWaterCurrents implements spec §4.4's ADCP model: a convex
// combination of the relative velocity against the two current cells,
// weighted by cellWeighting (the "α" in spec §4.4), plus the ADCP bias.
func measurementWaterCurrents(s state.PoseState, cellWeighting float64) (*mat.VecDense, error) {
	below := manifold.VecFrom(s.WaterVelocityBelow[0], s.WaterVelocityBelow[1], 0)
	upper := manifold.VecFrom(s.WaterVelocity[0], s.WaterVelocity[1], 0)

	relBelow := s.Orientation.InverseRotate(s.Velocity.Sub(below))
	relUpper := s.Orientation.InverseRotate(s.Velocity.Sub(upper))

	x := cellWeighting*relBelow[0] + (1-cellWeighting)*relUpper[0] + s.BiasADCP[0]
	y := cellWeighting*relBelow[1] + (1-cellWeighting)*relUpper[1] + s.BiasADCP[1]

	return vec(manifold.VecFrom(x, y)), nil
}

// measurementVisualLandmark implements spec §4.4's S² visual-landmark
// model against the augmented state: transform the feature from the
// marker frame to nav, then into the camera frame, and return its
// normalized bearing.
func measurementVisualLandmark(s state.PoseStateWithMarker, featureInMarker manifold.Vec, cameraInIMU Pose) (manifold.Sphere2, error) {
	imuInNav := Pose{Position: s.Filter.Position, Orientation: s.Filter.Orientation}
	camInNav := Compose(imuInNav, cameraInIMU)
	navInCam := camInNav.Inverse()

	featureInNav := s.MarkerOrientation.Rotate(featureInMarker).Add(s.MarkerPosition)
	featureInCam := navInCam.Transform(featureInNav)

	return manifold.NewSphere2(featureInCam), nil
}
