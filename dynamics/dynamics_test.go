package dynamics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSVRFeatureNamesCorrected(t *testing.T) {
	assert := assert.New(t)

	// spec §9: the original duplicates "fitout_X" at index 4 and leaves
	// index 5 unset; the corrected table assigns fitout_x/fitout_y there.
	assert.Equal("fitout_x", SVRFeatureNames[4])
	assert.Equal("fitout_y", SVRFeatureNames[5])
	assert.Equal("fitout_yaw", SVRFeatureNames[6])
	assert.Len(SVRFeatureNames, 10)

	seen := map[string]bool{}
	for _, n := range SVRFeatureNames {
		assert.False(seen[n], "duplicate feature name %q", n)
		seen[n] = true
	}
}
