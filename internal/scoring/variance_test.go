package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyVariance(t *testing.T) {
	tests := []struct {
		name      string
		estimated float64
		measured  float64
		percent   float64
		band      string
	}{
		{"exact match", 100, 100, 0, VarianceExcellent},
		{"within excellent band", 100, 104, 4, VarianceExcellent},
		{"excellent boundary", 100, 105, 5, VarianceExcellent},
		{"acceptable", 100, 106, 6, VarianceAcceptable},
		{"acceptable boundary", 100, 110, 10, VarianceAcceptable},
		{"review", 100, 115, 15, VarianceReview},
		{"under-measured review", 100, 80, 20, VarianceReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ClassifyVariance(tt.estimated, tt.measured)
			require.NotNil(t, v.Percent)
			assert.InDelta(t, tt.percent, *v.Percent, 1e-9)
			assert.Equal(t, tt.band, v.Band)
		})
	}
}

func TestClassifyVarianceZeroEstimate(t *testing.T) {
	v := ClassifyVariance(0, 5)
	assert.Nil(t, v.Percent)
	assert.Equal(t, VarianceIndeterminate, v.Band)
	assert.False(t, v.NeedsReview())
}

func TestClassifyVarianceNeverInfOrNaN(t *testing.T) {
	for _, measured := range []float64{0, 1, 1e12} {
		v := ClassifyVariance(0.0001, measured)
		require.NotNil(t, v.Percent)
		assert.False(t, math.IsInf(*v.Percent, 0))
		assert.False(t, math.IsNaN(*v.Percent))
	}
}

func TestNeedsReview(t *testing.T) {
	assert.True(t, ClassifyVariance(100, 120).NeedsReview())
	assert.False(t, ClassifyVariance(100, 101).NeedsReview())
}
