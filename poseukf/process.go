package poseukf

import (
	"github.com/bwehbe/slam-uwv-kalman-filters/geo"
	"github.com/bwehbe/slam-uwv-kalman-filters/manifold"
	"github.com/bwehbe/slam-uwv-kalman-filters/state"
)

// offsets bundles the Gauss-Markov relaxation targets that are fixed
// once at filter construction (spec §4.3: bias offsets come from
// config, inertia/damping/density offsets are captured from the initial
// state, water-velocity offsets are zero).
type offsets struct {
	inertia      manifold.Vec
	linDamping   manifold.Vec
	quadDamping  manifold.Vec
	waterDensity float64
}

// processModel is the continuous-time dynamics of spec §4.3, discretized
// over deltaTime. gyroMeas is the latched gyro reading; projection
// supplies the latitude used to compute the earth-rotation coupling.
// It is a pure function of its arguments, mirroring the teacher's
// process model grounded on original_source/src/PoseUKF.cpp's
// processModel<FilterState>.
func processModel(s state.PoseState, deltaTime float64, gyroMeas manifold.Vec, projection geo.Projection, off offsets, p Parameter) state.PoseState {
	next := s

	next.Position = s.Position.BoxPlus(s.Velocity.Scale(deltaTime))

	latitude, _ := projection.NavToWorld(s.Position[0], s.Position[1])
	earthRotation := geo.EarthRotation(latitude)
	earthRotationVec := manifold.VecFrom(earthRotation[0], earthRotation[1], earthRotation[2])
	angularVelocity := s.Orientation.Rotate(gyroMeas.Sub(s.BiasGyro)).Sub(earthRotationVec)
	next.Orientation = s.Orientation.BoxPlus(angularVelocity.Scale(deltaTime))

	next.Velocity = s.Velocity.BoxPlus(s.Acceleration.Scale(deltaTime))

	// acceleration, gravity: drift-free, carried over unchanged.

	next.BiasGyro = gaussMarkov(s.BiasGyro, p.GyroBiasOffset, p.GyroBiasTau, deltaTime)
	next.BiasAcc = gaussMarkov(s.BiasAcc, p.AccBiasOffset, p.AccBiasTau, deltaTime)
	next.Inertia = gaussMarkov(s.Inertia, off.inertia, p.InertiaTau, deltaTime)
	next.LinDamping = gaussMarkov(s.LinDamping, off.linDamping, p.LinDampingTau, deltaTime)
	next.QuadDamping = gaussMarkov(s.QuadDamping, off.quadDamping, p.QuadDampingTau, deltaTime)
	next.WaterVelocity = gaussMarkov(s.WaterVelocity, manifold.NewVec(2), p.WaterVelocityTau, deltaTime)
	next.WaterVelocityBelow = gaussMarkov(s.WaterVelocityBelow, manifold.NewVec(2), p.WaterVelocityTau, deltaTime)
	next.BiasADCP = gaussMarkov(s.BiasADCP, manifold.NewVec(2), p.ADCPBiasTau, deltaTime)
	next.WaterDensity = gaussMarkov(s.WaterDensity, manifold.VecFrom(off.waterDensity), p.WaterDensityTau, deltaTime)

	return next
}

// gaussMarkov applies the first-order Gauss-Markov relaxation
// x ⊞= (-(x - target)/tau) * dt, spec §4.3's shared drift rule for
// biases, hydrodynamic parameters, water state and density.
func gaussMarkov(x, target manifold.Vec, tau, dt float64) manifold.Vec {
	delta := x.Sub(target).Scale(-1 / tau)
	return x.BoxPlus(delta.Scale(dt))
}
