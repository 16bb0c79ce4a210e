package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewTrajectoryPlot(t *testing.T) {
	assert := assert.New(t)

	truth := mat.NewDense(3, 2, nil)
	measured := mat.NewDense(3, 2, nil)
	filtered := mat.NewDense(3, 2, nil)

	plt, err := NewTrajectoryPlot(truth, measured, filtered)
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = NewTrajectoryPlot(nil, nil, nil)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = NewTrajectoryPlot(mat.NewDense(3, 1, nil), measured, filtered)
	assert.Nil(plt)
	assert.Error(err)
}
