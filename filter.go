// Package filter declares the capability set the UKF engine is written
// against: any state type that knows how to boxplus a tangent increment
// and boxminus against another point of the same type can be filtered,
// regardless of whether it is a flat vector, a quaternion, or a product
// of several sub-manifolds. Concrete engines live in sibling packages
// (ukf, poseukf); this package only pins down the shared vocabulary, the
// way the teacher's root filter.go pinned down Model/Estimate/Noise for
// its vector-only filters.
package filter

// Manifold is the capability set a UKF state type must satisfy. S is the
// type itself (Go's generics make the usual "curiously recurring" self
// reference expressible without an interface cast).
type Manifold[S any] interface {
	// BoxPlus applies the tangent increment delta, whose length must
	// equal DOF(), returning the resulting point on the manifold.
	BoxPlus(delta []float64) S
	// BoxMinus returns the tangent vector that would carry other to the
	// receiver, i.e. other.BoxPlus(self.BoxMinus(other)) == self.
	BoxMinus(other S) []float64
	// DOF returns the dimension of the tangent space at the receiver.
	DOF() int
}

// Gate decides, given a squared Mahalanobis distance, whether an
// innovation should be accepted. It implements the χ² test policy from
// spec §4.6; concrete gates live in the gate package.
type Gate func(mahalanobis2 float64) bool
