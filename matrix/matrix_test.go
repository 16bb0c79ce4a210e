package matrix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	filter "github.com/bwehbe/slam-uwv-kalman-filters"
)

func TestSymmetrize(t *testing.T) {
	assert := assert.New(t)

	// NewSymDense reads only the upper triangle, so the 0.3 below the
	// diagonal is ignored; the result must still be exactly symmetric
	m := mat.NewSymDense(2, []float64{1.0, 0.30000001, 0.3, 2.0})
	out := Symmetrize(m)

	assert.InDelta(out.At(0, 1), out.At(1, 0), 1e-15)
}

func TestCholeskySqrtPSD(t *testing.T) {
	assert := assert.New(t)

	cov := mat.NewSymDense(3, []float64{
		4, 0, 0,
		0, 9, 0,
		0, 0, 1,
	})

	L, err := CholeskySqrt(cov)
	assert.NoError(err)
	assert.NotNil(L)

	var reconstructed mat.Dense
	reconstructed.Mul(L, L.T())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(cov.At(i, j), reconstructed.At(i, j), 1e-9)
		}
	}
}

func TestCholeskySqrtJitterRecovers(t *testing.T) {
	assert := assert.New(t)

	// a slightly indefinite matrix (negative eigenvalue near zero) should
	// still factorize after jitter is added to the diagonal.
	cov := mat.NewSymDense(2, []float64{1e-12, 0, 0, 1e-12})
	cov.SetSym(0, 1, 2e-12)

	L, err := CholeskySqrt(cov)
	assert.NoError(err)
	assert.NotNil(L)
}

func TestCholeskySqrtSingular(t *testing.T) {
	assert := assert.New(t)

	// a matrix that stays strongly indefinite through every jitter retry
	cov := mat.NewSymDense(2, []float64{1, 10, 10, 1})

	_, err := CholeskySqrt(cov)
	assert.Error(err)
	assert.True(errors.Is(err, filter.ErrSingular))
}
