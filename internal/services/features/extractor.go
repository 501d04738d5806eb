package features

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WeightedMean returns sum(x_i*w_i)/sum(w_i). ok is false for an empty input
// or when the weights sum to exactly zero; callers must not read that as 0.
func WeightedMean(values, weights []float64) (mean float64, ok bool) {
	if len(values) == 0 || len(values) != len(weights) {
		return 0, false
	}
	if floats.Sum(weights) == 0 {
		return 0, false
	}
	return stat.Mean(values, weights), true
}

// Mean returns the arithmetic mean; ok is false for an empty input.
func Mean(values []float64) (mean float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, nil), true
}
