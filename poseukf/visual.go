package poseukf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/bwehbe/slam-uwv-kalman-filters/gate"
	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
	"github.com/bwehbe/slam-uwv-kalman-filters/state"
	"github.com/bwehbe/slam-uwv-kalman-filters/ukf"
)

// VisualFeature is one correspondence between an undistorted pixel
// coordinate and its pixel-space covariance (spec §3.4
// VisualFeatureMeasurement).
type VisualFeature struct {
	U, V float64
	Cov  *mat.SymDense
}

// IntegrateVisualMarker runs the state-augmentation protocol of spec
// §4.5: it builds an augmented manifold (PoseState x marker pose),
// updates it sequentially against each feature correspondence with an
// S² measurement, then projects the posterior's PoseState block back
// onto the main filter, discarding the marker block. features and
// featurePositions must be the same length and order.
func (f *PoseFilter) IntegrateVisualMarker(
	features []VisualFeature,
	featurePositions []manifold.Vec,
	markerPose Pose,
	markerCov *mat.SymDense,
	camera CameraConfiguration,
	cameraInIMU Pose,
) error {
	if len(features) != len(featurePositions) {
		return fmt.Errorf("poseukf: visual marker update requires matching features and feature positions, got %d and %d", len(features), len(featurePositions))
	}

	augmentedMean := state.Augment(f.engine.Mean(), markerPose.Position, markerPose.Orientation)
	augmentedCov := mat.NewSymDense(state.AugmentedDOF, nil)
	mainCov := f.engine.Cov()
	for i := 0; i < state.DOF; i++ {
		for j := i; j < state.DOF; j++ {
			augmentedCov.SetSym(i, j, mainCov.At(i, j))
		}
	}
	for i := 0; i < 6; i++ {
		for j := i; j < 6; j++ {
			augmentedCov.SetSym(state.DOF+i, state.DOF+j, markerCov.At(i, j))
		}
	}

	augmentedEngine, err := ukf.New(augmentedMean, augmentedCov, ukf.DefaultConfig())
	if err != nil {
		return err
	}

	fx2, fy2, fxy := camera.FX*camera.FX, camera.FY*camera.FY, camera.FX*camera.FY

	for i, feat := range features {
		if err := checkMeasurement([]float64{feat.U, feat.V}, feat.Cov); err != nil {
			return err
		}

		ray := manifold.VecFrom((feat.U-camera.CX)/camera.FX, (feat.V-camera.CY)/camera.FY, 1)
		observed := manifold.NewSphere2(ray)

		rayCov := mat.NewSymDense(2, []float64{
			feat.Cov.At(0, 0) / fx2, feat.Cov.At(0, 1) / fxy,
			feat.Cov.At(1, 0) / fxy, feat.Cov.At(1, 1) / fy2,
		})

		featurePos := featurePositions[i]
		h := func(s state.PoseStateWithMarker) (manifold.Sphere2, error) {
			return measurementVisualLandmark(s, featurePos, cameraInIMU)
		}

		if err := ukf.UpdateManifold(augmentedEngine, h, observed, rayCov, gate.AcceptAny); err != nil {
			return err
		}
	}

	posterior := augmentedEngine.Cov()
	finalCov := mat.NewSymDense(state.DOF, nil)
	for i := 0; i < state.DOF; i++ {
		for j := i; j < state.DOF; j++ {
			finalCov.SetSym(i, j, posterior.At(i, j))
		}
	}

	return f.engine.SetState(augmentedEngine.Mean().Filter, finalCov)
}
