// Package dynamics defines the external hydrodynamic and learned-model
// collaborator interfaces spec §6.2 names. Implementing the rigid-body
// model that maps (velocity, acceleration, orientation, inertia/damping)
// to forces/torques, and the learned 3-DoF regression model, is
// explicitly out of scope (spec §1); this package only pins down the
// interface boundary, the parameter container, and the corrected SVR
// feature-name table (spec §9 "indexing bug").
package dynamics

import "github.com/bwehbe/slam-uwv-kalman-filters/manifold"

// UWVParameters holds the baseline hydrodynamic parameters: the inertia
// matrix and the two damping matrices (linear, quadratic), each 6x6 over
// (surge, sway, heave, roll, pitch, yaw), per spec §6.1.
type UWVParameters struct {
	InertiaMatrix [6][6]float64
	LinDamping    [6][6]float64
	QuadDamping   [6][6]float64
}

// Model is the external rigid-body hydrodynamic collaborator: given
// body-frame acceleration and velocity (each a 6-vector: surge, sway,
// heave, roll, pitch, yaw) and the current orientation, it returns the
// expected forces/torques. Callers must not share one Model instance
// across filters, because a full-mode BodyEffortsMeasurement mutates it
// in place (spec §5) before each of its CalcEfforts calls.
type Model interface {
	CalcEfforts(acceleration6d, velocity6d [6]float64, orientation manifold.Rotation) [6]float64
	SetUWVParameters(UWVParameters)
	GetUWVParameters() UWVParameters
}

// SVRFeatureNames is the corrected ordering of the ten named parameter
// tables a SVRThreeDOFModel.PredictEfforts call consults. The original
// source (original_source/src/PoseUKF.cpp) assigns index 4 twice
// ("fitout_X" then "fitout_y") and leaves index 5 unset; the evident
// intent was 4="fitout_x", 5="fitout_y". This table implements that
// corrected intent (spec §9 Open Question).
var SVRFeatureNames = [10]string{
	"scaler_params",
	"params_x",
	"params_y",
	"params_yaw",
	"fitout_x",
	"fitout_y",
	"fitout_yaw",
	"s_x",
	"s_y",
	"s_yaw",
}

// SVRThreeDOFModel is the learned 3-DoF regression collaborator that
// replaces hydrodynamic predictions for surge, sway and yaw. X is
// (v_surge, v_sway, r, a_surge, a_sway, alpha_yaw); paramNames selects
// which named parameter tables the model looks up (normally
// SVRFeatureNames, in order). The result is (surge, sway, yaw) efforts.
type SVRThreeDOFModel interface {
	PredictEfforts(x [6]float64, paramNames [10]string) ([3]float64, error)
}
