package state

import "github.com/bwehbe/slam-uwv-kalman-filters/manifold"

// AugmentedDOF is the tangent dimension of PoseStateWithMarker: the
// PoseState block (53) plus marker_position (3) and marker_orientation
// (3), per spec §3.3.
const AugmentedDOF = DOF + 6

// PoseStateWithMarker is the augmented product manifold spec §3.3
// describes, built for the lifetime of a single visual-marker batch and
// discarded at the end of it (spec §4.5). Its tangent layout is the
// PoseState block followed by marker_position then marker_orientation.
type PoseStateWithMarker struct {
	Filter            PoseState
	MarkerPosition    manifold.Vec
	MarkerOrientation manifold.Rotation
}

// Augment builds the augmented manifold for a visual-marker batch from
// the current filter state and a candidate marker pose.
func Augment(filterState PoseState, markerPosition manifold.Vec, markerOrientation manifold.Rotation) PoseStateWithMarker {
	return PoseStateWithMarker{
		Filter:            filterState,
		MarkerPosition:    markerPosition,
		MarkerOrientation: markerOrientation,
	}
}

// DOF returns PoseStateWithMarker's tangent dimension, 59.
func (s PoseStateWithMarker) DOF() int { return AugmentedDOF }

// BoxPlus applies the 59-length tangent increment delta: the first 53
// components drive the PoseState block, the next 3 the marker position,
// and the final 3 the marker orientation.
func (s PoseStateWithMarker) BoxPlus(delta []float64) PoseStateWithMarker {
	return PoseStateWithMarker{
		Filter:            s.Filter.BoxPlus(delta[:DOF]),
		MarkerPosition:    s.MarkerPosition.BoxPlus(delta[DOF : DOF+3]),
		MarkerOrientation: s.MarkerOrientation.BoxPlus(delta[DOF+3 : DOF+6]),
	}
}

// BoxMinus returns the 59-length tangent vector that would carry other
// to s.
func (s PoseStateWithMarker) BoxMinus(other PoseStateWithMarker) []float64 {
	out := make([]float64, 0, AugmentedDOF)
	out = append(out, s.Filter.BoxMinus(other.Filter)...)
	out = append(out, s.MarkerPosition.BoxMinus(other.MarkerPosition)...)
	out = append(out, s.MarkerOrientation.BoxMinus(other.MarkerOrientation)...)
	return out
}
