package manifold

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Rotation is the SO(3) manifold, represented internally as a unit
// quaternion in Hamilton convention. BoxPlus applies a body-frame
// rotation-vector increment by right-multiplication, matching the
// process model's `orientation ⊞= ω_body_in_nav · Δt`.
type Rotation struct {
	q quat.Number
}

// Identity returns the identity rotation.
func Identity() Rotation {
	return Rotation{q: quat.Number{Real: 1}}
}

// NewRotation builds a Rotation from quaternion components, normalizing
// them so the invariant |q| = 1 holds.
func NewRotation(w, x, y, z float64) Rotation {
	return Rotation{q: normalize(quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z})}
}

// FromAxisAngle returns the rotation of angle radians about axis (which
// need not be normalized).
func FromAxisAngle(axis Vec, angle float64) Rotation {
	n := axis.Norm()
	if n == 0 {
		return Identity()
	}
	half := angle / 2
	s := math.Sin(half) / n
	return Rotation{q: normalize(quat.Number{
		Real: math.Cos(half),
		Imag: axis[0] * s,
		Jmag: axis[1] * s,
		Kmag: axis[2] * s,
	})}
}

// DOF is the SO(3) tangent dimension.
func (r Rotation) DOF() int { return 3 }

// BoxPlus right-multiplies r by exp(½[0, delta]), the standard SO(3)
// retraction, and renormalizes the result so |q| = 1 is preserved.
func (r Rotation) BoxPlus(delta []float64) Rotation {
	half := quat.Number{Imag: delta[0] / 2, Jmag: delta[1] / 2, Kmag: delta[2] / 2}
	return Rotation{q: normalize(quat.Mul(r.q, quat.Exp(half)))}
}

// BoxMinus returns the rotation-vector form of log(other⁻¹ · r), the
// tangent vector that carries other to r.
func (r Rotation) BoxMinus(other Rotation) []float64 {
	delta := normalize(quat.Mul(quat.Conj(other.q), r.q))
	l := quat.Log(delta)
	return []float64{2 * l.Imag, 2 * l.Jmag, 2 * l.Kmag}
}

// Inverse returns the conjugate (= inverse, since r is unit) rotation.
func (r Rotation) Inverse() Rotation {
	return Rotation{q: quat.Conj(r.q)}
}

// Mul composes rotations: (r.Mul(s)) applies s first, then r.
func (r Rotation) Mul(s Rotation) Rotation {
	return Rotation{q: normalize(quat.Mul(r.q, s.q))}
}

// Rotate applies r to the 3-vector v (v expressed in r's source frame,
// returned expressed in r's destination frame).
func (r Rotation) Rotate(v Vec) Vec {
	p := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	out := quat.Mul(quat.Mul(r.q, p), quat.Conj(r.q))
	return VecFrom(out.Imag, out.Jmag, out.Kmag)
}

// InverseRotate applies r⁻¹ to v; equivalent to r.Inverse().Rotate(v) but
// avoids constructing the intermediate rotation.
func (r Rotation) InverseRotate(v Vec) Vec {
	qi := quat.Conj(r.q)
	p := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	out := quat.Mul(quat.Mul(qi, p), r.q)
	return VecFrom(out.Imag, out.Jmag, out.Kmag)
}

// Matrix returns the 3x3 rotation matrix equivalent to r, row-major.
func (r Rotation) Matrix() [3][3]float64 {
	w, x, y, z := r.q.Real, r.q.Imag, r.q.Jmag, r.q.Kmag
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// Quat exposes the underlying unit quaternion, e.g. for logging.
func (r Rotation) Quat() quat.Number { return r.q }

// Norm returns |q|, which the Invariants in spec §3.2 require to stay
// within 1e-10 of 1 after any BoxPlus.
func (r Rotation) Norm() float64 { return quat.Abs(r.q) }

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
