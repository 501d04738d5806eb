package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedMean(t *testing.T) {
	got, ok := WeightedMean([]float64{0.5, -0.1}, []float64{1, 0.5})
	require.True(t, ok)
	assert.InDelta(t, (0.5*1-0.1*0.5)/1.5, got, 1e-12)
}

func TestWeightedMeanSingleIsExact(t *testing.T) {
	got, ok := WeightedMean([]float64{0.5}, []float64{1.0})
	require.True(t, ok)
	assert.Equal(t, 0.5, got)
}

func TestWeightedMeanAbsent(t *testing.T) {
	_, ok := WeightedMean(nil, nil)
	assert.False(t, ok, "empty input")

	_, ok = WeightedMean([]float64{0.3, 0.4}, []float64{0, 0})
	assert.False(t, ok, "zero weight sum")

	_, ok = WeightedMean([]float64{0.3}, []float64{1, 2})
	assert.False(t, ok, "length mismatch")
}

func TestMean(t *testing.T) {
	got, ok := Mean([]float64{0.01, 0.02, 0.03})
	require.True(t, ok)
	assert.InDelta(t, 0.02, got, 1e-12)

	_, ok = Mean(nil)
	assert.False(t, ok)
}
