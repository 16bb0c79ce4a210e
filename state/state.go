// Package state defines PoseState, the product manifold the UKF engine
// filters over: the concatenation of all entity sub-states from spec
// §3.1, each a manifold.Vec, manifold.Rotation, in the fixed canonical
// order the block table below fixes. It generalizes the teacher's flat
// mat.VecDense state to a typed product of heterogeneous manifolds,
// the way filter.Manifold[S] asks any engine-filtered type to.
package state

import (
	"fmt"

	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
)

// Block names index the per-field (offset, size) table below. They are
// also used as map keys for covariance sub-block lookups.
const (
	Position            = "position"
	Orientation         = "orientation"
	Velocity            = "velocity"
	Acceleration        = "acceleration"
	BiasGyro            = "bias_gyro"
	BiasAcc             = "bias_acc"
	Gravity             = "gravity"
	Inertia             = "inertia"
	LinDamping          = "lin_damping"
	QuadDamping         = "quad_damping"
	WaterVelocity       = "water_velocity"
	WaterVelocityBelow  = "water_velocity_below"
	BiasADCP            = "bias_adcp"
	WaterDensity        = "water_density"
)

// blockSpan is one row of the (offset, size) table spec §3.1 calls for.
type blockSpan struct {
	name   string
	offset int
	size   int
}

// blocks fixes the canonical field ordering of PoseState, in the order
// spec §3.1's table lists them. DOF is the running total, 53 (the
// per-field table's own sum; see DESIGN.md for the resolution of the
// spec's inconsistent "Total DOF = 36" header).
var blocks = func() []blockSpan {
	order := []struct {
		name string
		size int
	}{
		{Position, 3},
		{Orientation, 3},
		{Velocity, 3},
		{Acceleration, 3},
		{BiasGyro, 3},
		{BiasAcc, 3},
		{Gravity, 1},
		{Inertia, 9},
		{LinDamping, 9},
		{QuadDamping, 9},
		{WaterVelocity, 2},
		{WaterVelocityBelow, 2},
		{BiasADCP, 2},
		{WaterDensity, 1},
	}
	spans := make([]blockSpan, len(order))
	offset := 0
	for i, o := range order {
		spans[i] = blockSpan{name: o.name, offset: offset, size: o.size}
		offset += o.size
	}
	return spans
}()

// DOF is the tangent dimension of PoseState, fixed by the block table.
const DOF = 53

// Block returns the (offset, size) of the named field in the flattened
// tangent/covariance layout, or ok=false if name is not a PoseState
// field.
func Block(name string) (offset, size int, ok bool) {
	for _, b := range blocks {
		if b.name == name {
			return b.offset, b.size, true
		}
	}
	return 0, 0, false
}

// PoseState is the product manifold spec §3.1 describes: IMU pose,
// velocity, acceleration, sensor biases, hydrodynamic parameters, and
// water state. Every field order and size matches the block table
// above; BoxPlus/BoxMinus simply fan the flat tangent vector out to (or
// concatenate it in from) each field's own manifold arithmetic.
type PoseState struct {
	Position           manifold.Vec
	Orientation        manifold.Rotation
	Velocity           manifold.Vec
	Acceleration       manifold.Vec
	BiasGyro           manifold.Vec
	BiasAcc            manifold.Vec
	Gravity            manifold.Vec
	Inertia            manifold.Vec
	LinDamping         manifold.Vec
	QuadDamping        manifold.Vec
	WaterVelocity      manifold.Vec
	WaterVelocityBelow manifold.Vec
	BiasADCP           manifold.Vec
	WaterDensity       manifold.Vec
}

// New returns a PoseState with every Euclidean field zeroed, gravity set
// to 9.81 and water_density to 1025 (spec §3.2 requires both positive),
// and orientation set to identity.
func New() PoseState {
	return PoseState{
		Position:           manifold.NewVec(3),
		Orientation:        manifold.Identity(),
		Velocity:           manifold.NewVec(3),
		Acceleration:       manifold.NewVec(3),
		BiasGyro:           manifold.NewVec(3),
		BiasAcc:            manifold.NewVec(3),
		Gravity:            manifold.VecFrom(9.81),
		Inertia:            manifold.NewVec(9),
		LinDamping:         manifold.NewVec(9),
		QuadDamping:        manifold.NewVec(9),
		WaterVelocity:      manifold.NewVec(2),
		WaterVelocityBelow: manifold.NewVec(2),
		BiasADCP:           manifold.NewVec(2),
		WaterDensity:       manifold.VecFrom(1025),
	}
}

// DOF returns PoseState's tangent dimension, 53.
func (s PoseState) DOF() int { return DOF }

// BoxPlus applies the 53-length tangent increment delta, fanning each
// field's span out to its own manifold's BoxPlus.
func (s PoseState) BoxPlus(delta []float64) PoseState {
	if len(delta) != DOF {
		panic(fmt.Sprintf("state: PoseState.BoxPlus dimension mismatch: have %d, want %d", len(delta), DOF))
	}
	return PoseState{
		Position:           s.Position.BoxPlus(span(delta, Position)),
		Orientation:        s.Orientation.BoxPlus(span(delta, Orientation)),
		Velocity:           s.Velocity.BoxPlus(span(delta, Velocity)),
		Acceleration:       s.Acceleration.BoxPlus(span(delta, Acceleration)),
		BiasGyro:           s.BiasGyro.BoxPlus(span(delta, BiasGyro)),
		BiasAcc:            s.BiasAcc.BoxPlus(span(delta, BiasAcc)),
		Gravity:            s.Gravity.BoxPlus(span(delta, Gravity)),
		Inertia:            s.Inertia.BoxPlus(span(delta, Inertia)),
		LinDamping:         s.LinDamping.BoxPlus(span(delta, LinDamping)),
		QuadDamping:        s.QuadDamping.BoxPlus(span(delta, QuadDamping)),
		WaterVelocity:      s.WaterVelocity.BoxPlus(span(delta, WaterVelocity)),
		WaterVelocityBelow: s.WaterVelocityBelow.BoxPlus(span(delta, WaterVelocityBelow)),
		BiasADCP:           s.BiasADCP.BoxPlus(span(delta, BiasADCP)),
		WaterDensity:       s.WaterDensity.BoxPlus(span(delta, WaterDensity)),
	}
}

// BoxMinus returns the 53-length tangent vector that would carry other
// to s, concatenated in block order.
func (s PoseState) BoxMinus(other PoseState) []float64 {
	out := make([]float64, 0, DOF)
	out = append(out, s.Position.BoxMinus(other.Position)...)
	out = append(out, s.Orientation.BoxMinus(other.Orientation)...)
	out = append(out, s.Velocity.BoxMinus(other.Velocity)...)
	out = append(out, s.Acceleration.BoxMinus(other.Acceleration)...)
	out = append(out, s.BiasGyro.BoxMinus(other.BiasGyro)...)
	out = append(out, s.BiasAcc.BoxMinus(other.BiasAcc)...)
	out = append(out, s.Gravity.BoxMinus(other.Gravity)...)
	out = append(out, s.Inertia.BoxMinus(other.Inertia)...)
	out = append(out, s.LinDamping.BoxMinus(other.LinDamping)...)
	out = append(out, s.QuadDamping.BoxMinus(other.QuadDamping)...)
	out = append(out, s.WaterVelocity.BoxMinus(other.WaterVelocity)...)
	out = append(out, s.WaterVelocityBelow.BoxMinus(other.WaterVelocityBelow)...)
	out = append(out, s.BiasADCP.BoxMinus(other.BiasADCP)...)
	out = append(out, s.WaterDensity.BoxMinus(other.WaterDensity)...)
	return out
}

// span slices the field named name out of a flat 53-length tangent
// vector, using the canonical block table.
func span(delta []float64, name string) []float64 {
	offset, size, ok := Block(name)
	if !ok {
		panic("state: unknown block " + name)
	}
	return delta[offset : offset+size]
}

// InertiaMatrix returns the 3x3 horizontal-plus-yaw inertia block,
// row-major, per spec §4.4's BodyEffortsMeasurement overwrite rule.
func (s PoseState) InertiaMatrix() [3][3]float64 {
	return matrix3(s.Inertia)
}

// LinDampingMatrix returns the 3x3 linear damping block, row-major.
func (s PoseState) LinDampingMatrix() [3][3]float64 {
	return matrix3(s.LinDamping)
}

// QuadDampingMatrix returns the 3x3 quadratic damping block, row-major.
func (s PoseState) QuadDampingMatrix() [3][3]float64 {
	return matrix3(s.QuadDamping)
}

func matrix3(v manifold.Vec) [3][3]float64 {
	var m [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r][c] = v[r*3+c]
		}
	}
	return m
}

// Symmetric returns a symmetrized copy of m, the reduced (6-DOF) view
// DESIGN.md's Open Question resolution offers callers that want inertia/
// damping enforced-symmetric without forcing that reduction onto the
// state representation itself (spec §9 "inertia storage").
func Symmetric(m [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = (m[r][c] + m[c][r]) / 2
		}
	}
	return out
}
