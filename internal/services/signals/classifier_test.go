package signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
)

var (
	sentimentLabels = []string{"small", "strong"}
	analystLabels   = []string{"good", "very strong"}
)

func TestSentimentClassifier_Bands(t *testing.T) {
	c, err := NewSentimentClassifier(sentimentLabels)
	require.NoError(t, err)

	cases := []struct {
		score float64
		dir   models.Direction
		level int
		label string
	}{
		{0.9, models.Buy, models.ConvictionStrongest, "strong"},
		{0.351, models.Buy, models.ConvictionStrongest, "strong"},
		{0.35, models.Buy, models.ConvictionModerate, "small"},
		{0.1500001, models.Buy, models.ConvictionModerate, "small"},
		{0.15, models.Hold, models.ConvictionStrongest, "strong"},
		{0, models.Hold, models.ConvictionStrongest, "strong"},
		{-0.15, models.Hold, models.ConvictionStrongest, "strong"},
		{-0.1500001, models.Sell, models.ConvictionModerate, "small"},
		{-0.35, models.Sell, models.ConvictionModerate, "small"},
		{-0.3500001, models.Sell, models.ConvictionStrongest, "strong"},
		{-1, models.Sell, models.ConvictionStrongest, "strong"},
	}
	for _, tc := range cases {
		got, ok := c.Classify(tc.score, true)
		require.True(t, ok, "score %v", tc.score)
		assert.Equal(t, tc.dir, got.Direction, "score %v", tc.score)
		assert.Equal(t, tc.level, got.Conviction.Level, "score %v", tc.score)
		assert.Equal(t, tc.label, got.Conviction.Label, "score %v", tc.score)
	}
}

func TestClassifier_AbsentStaysAbsent(t *testing.T) {
	c, err := NewSentimentClassifier(sentimentLabels)
	require.NoError(t, err)

	_, ok := c.Classify(0, false)
	assert.False(t, ok, "absent score must not become hold")

	_, ok = c.Classify(math.NaN(), true)
	assert.False(t, ok)
}

func TestConsensusClassifier_Scale(t *testing.T) {
	c, err := NewConsensusClassifier(analystLabels, HalfAwayFromZero)
	require.NoError(t, err)

	cases := []struct {
		score float64
		dir   models.Direction
		label string
	}{
		{2, models.Buy, "very strong"},
		{1, models.Buy, "good"},
		{0, models.Hold, "very strong"},
		{-1, models.Sell, "good"},
		{-2, models.Sell, "very strong"},
		{1.2, models.Buy, "good"},
		{-1.7, models.Sell, "very strong"},
	}
	for _, tc := range cases {
		got, ok := c.Classify(tc.score, true)
		require.True(t, ok, "score %v", tc.score)
		assert.Equal(t, tc.dir, got.Direction, "score %v", tc.score)
		assert.Equal(t, tc.label, got.Conviction.Label, "score %v", tc.score)
	}
}

func TestConsensusClassifier_Rounding(t *testing.T) {
	away, err := NewConsensusClassifier(analystLabels, HalfAwayFromZero)
	require.NoError(t, err)
	even, err := NewConsensusClassifier(analystLabels, HalfToEven)
	require.NoError(t, err)

	cases := []struct {
		score   float64
		awayDir models.Direction
		awayLvl int
		evenDir models.Direction
		evenLvl int
	}{
		{0.5, models.Buy, models.ConvictionModerate, models.Hold, models.ConvictionStrongest},
		{-0.5, models.Sell, models.ConvictionModerate, models.Hold, models.ConvictionStrongest},
		{1.5, models.Buy, models.ConvictionStrongest, models.Buy, models.ConvictionStrongest},
		{-1.5, models.Sell, models.ConvictionStrongest, models.Sell, models.ConvictionStrongest},
	}
	for _, tc := range cases {
		got, ok := away.Classify(tc.score, true)
		require.True(t, ok)
		assert.Equal(t, tc.awayDir, got.Direction, "half away %v", tc.score)
		assert.Equal(t, tc.awayLvl, got.Conviction.Level, "half away %v", tc.score)

		got, ok = even.Classify(tc.score, true)
		require.True(t, ok)
		assert.Equal(t, tc.evenDir, got.Direction, "half even %v", tc.score)
		assert.Equal(t, tc.evenLvl, got.Conviction.Level, "half even %v", tc.score)
	}
}

func TestConsensusClassifier_HistogramAllStrongBuy(t *testing.T) {
	c, err := NewConsensusClassifier(analystLabels, HalfAwayFromZero)
	require.NoError(t, err)

	score, ok := models.RatingHistogram{StrongBuy: 1}.ConsensusScore()
	require.True(t, ok)
	assert.Equal(t, 2.0, score)

	got, ok := c.Classify(score, ok)
	require.True(t, ok)
	assert.Equal(t, models.Buy, got.Direction)
	assert.Equal(t, models.ConvictionStrongest, got.Conviction.Level)
}

func TestNewClassifier_RejectsMissingLabels(t *testing.T) {
	_, err := NewSentimentClassifier([]string{"only"})
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewConsensusClassifier(analystLabels, NoRounding)
	require.ErrorAs(t, err, &cfgErr)
}

func TestParseRounding(t *testing.T) {
	r, err := ParseRounding("half_to_even")
	require.NoError(t, err)
	assert.Equal(t, HalfToEven, r)

	r, err = ParseRounding("")
	require.NoError(t, err)
	assert.Equal(t, HalfAwayFromZero, r)

	_, err = ParseRounding("bankers")
	assert.Error(t, err)
}
