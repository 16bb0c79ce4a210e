package manifold

import "math"

// Sphere2 is the unit 2-sphere S², used for bearing-only (normalized
// ray) measurements such as the visual-marker update. The underlying
// 3-vector always has unit length (spec §3.2 invariant).
type Sphere2 struct {
	v Vec
}

// NewSphere2 normalizes v onto the unit sphere.
func NewSphere2(v Vec) Sphere2 {
	return Sphere2{v: normalizeVec(v)}
}

// DOF is the S² tangent dimension.
func (s Sphere2) DOF() int { return 2 }

// Vec returns the unit 3-vector representation.
func (s Sphere2) Vec() Vec { return s.v.Clone() }

// tangentBasis returns two unit vectors spanning the plane orthogonal to
// s.v, forming the 2-DOF chart's local trivialization.
func (s Sphere2) tangentBasis() (e1, e2 Vec) {
	ref := VecFrom(1, 0, 0)
	if math.Abs(s.v.Dot(ref)) > 0.9 {
		ref = VecFrom(0, 1, 0)
	}
	e1 = normalizeVec(ref.Sub(s.v.Scale(ref.Dot(s.v))))
	e2 = s.v.Cross(e1)
	return e1, e2
}

// BoxPlus rotates the unit vector by the rotation whose axis lies in the
// tangent plane (direction B·delta) and whose angle is |B·delta|, where B
// is the 2-column tangent basis at s. This is the Hopf-like chart spec
// §4.1 describes.
func (s Sphere2) BoxPlus(delta []float64) Sphere2 {
	e1, e2 := s.tangentBasis()
	axis := e1.Scale(delta[0]).Add(e2.Scale(delta[1]))
	angle := axis.Norm()
	if angle < 1e-12 {
		return Sphere2{v: s.v.Clone()}
	}
	return Sphere2{v: rotateAboutAxis(s.v, axis.Scale(1/angle), angle)}
}

// BoxMinus returns the 2-vector that would carry other to s within
// other's chart trivialization: the tangent-plane components, at other,
// of the rotation vector that maps other onto s.
func (s Sphere2) BoxMinus(other Sphere2) []float64 {
	e1, e2 := other.tangentBasis()
	axis := other.v.Cross(s.v)
	n := axis.Norm()
	if n < 1e-12 {
		// s == other or s == -other; no well-defined small rotation beyond
		// the degenerate antipodal case, so report zero displacement.
		return []float64{0, 0}
	}
	cosAngle := clamp(other.v.Dot(s.v), -1, 1)
	angle := math.Acos(cosAngle)
	rotVec := axis.Scale(angle / n)
	return []float64{rotVec.Dot(e1), rotVec.Dot(e2)}
}

func rotateAboutAxis(v, axis Vec, angle float64) Vec {
	// Rodrigues' rotation formula.
	cosA, sinA := math.Cos(angle), math.Sin(angle)
	term1 := v.Scale(cosA)
	term2 := axis.Cross(v).Scale(sinA)
	term3 := axis.Scale(axis.Dot(v) * (1 - cosA))
	return term1.Add(term2).Add(term3)
}

func normalizeVec(v Vec) Vec {
	n := v.Norm()
	if n == 0 {
		return VecFrom(0, 0, 1)
	}
	return v.Scale(1 / n)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
