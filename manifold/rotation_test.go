package manifold

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotationIdentityNorm(t *testing.T) {
	assert := assert.New(t)
	r := Identity()
	assert.InDelta(1.0, r.Norm(), 1e-12)
}

func TestRotationBoxPlusStaysUnit(t *testing.T) {
	assert := assert.New(t)
	r := Identity()
	for i := 0; i < 50; i++ {
		r = r.BoxPlus([]float64{0.1, -0.05, 0.2})
		assert.InDelta(1.0, r.Norm(), 1e-10)
	}
}

func TestRotationRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		axis  Vec
		angle float64
	}{
		{VecFrom(1, 0, 0), 0.3},
		{VecFrom(0, 1, 0), 1.2},
		{VecFrom(1, 1, 1), 0.7},
	} {
		q := FromAxisAngle(test.axis, test.angle)
		q1 := FromAxisAngle(VecFrom(0, 0, 1), 0.4)

		delta := q1.BoxMinus(q)
		got := q.BoxPlus(delta)

		assert.InDelta(q1.Quat().Real, got.Quat().Real, 1e-9)
		assert.InDelta(q1.Quat().Imag, got.Quat().Imag, 1e-9)
		assert.InDelta(q1.Quat().Jmag, got.Quat().Jmag, 1e-9)
		assert.InDelta(q1.Quat().Kmag, got.Quat().Kmag, 1e-9)
	}
}

func TestRotationInverseRotate(t *testing.T) {
	assert := assert.New(t)

	r := FromAxisAngle(VecFrom(0, 0, 1), math.Pi/2)
	v := VecFrom(1, 0, 0)
	rotated := r.Rotate(v)
	assert.InDelta(0, rotated[0], 1e-9)
	assert.InDelta(1, rotated[1], 1e-9)

	back := r.InverseRotate(rotated)
	assert.InDeltaSlice([]float64(v), []float64(back), 1e-9)
}

func TestRotationMatrixMatchesRotate(t *testing.T) {
	assert := assert.New(t)

	r := FromAxisAngle(VecFrom(0.2, 0.5, -0.1), 0.9)
	v := VecFrom(0.3, -0.7, 1.1)

	m := r.Matrix()
	var want Vec = make(Vec, 3)
	for i := 0; i < 3; i++ {
		want[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}

	got := r.Rotate(v)
	assert.InDeltaSlice([]float64(want), []float64(got), 1e-9)
}
