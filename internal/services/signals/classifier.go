package signals

import (
	"fmt"
	"math"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
)

// Rounding selects how a score is snapped to the integer scale before banding.
type Rounding int

const (
	NoRounding Rounding = iota
	// HalfAwayFromZero rounds 0.5 to 1 and -0.5 to -1 (math.Round).
	HalfAwayFromZero
	// HalfToEven rounds 0.5 to 0 and 1.5 to 2 (math.RoundToEven).
	HalfToEven
)

// ParseRounding maps the config spelling to a Rounding.
func ParseRounding(s string) (Rounding, error) {
	switch s {
	case "", "half_away_from_zero":
		return HalfAwayFromZero, nil
	case "half_to_even":
		return HalfToEven, nil
	}
	return NoRounding, &models.ConfigurationError{Field: "signals.rounding", Reason: fmt.Sprintf("unknown mode %q", s)}
}

func (r Rounding) apply(x float64) float64 {
	switch r {
	case HalfAwayFromZero:
		return math.Round(x)
	case HalfToEven:
		return math.RoundToEven(x)
	}
	return x
}

// Band is an interval of scores mapped to one classification.
type Band struct {
	Min, Max         float64
	MinOpen, MaxOpen bool
	Direction        models.Direction
	Level            int
}

// Contains evaluates the interval with its exact open/closed ends. NaN is never contained.
func (b Band) Contains(x float64) bool {
	if b.MinOpen {
		if !(x > b.Min) {
			return false
		}
	} else if !(x >= b.Min) {
		return false
	}
	if b.MaxOpen {
		return x < b.Max
	}
	return x <= b.Max
}

// SentimentBands is the continuous table over [-1, 1].
var SentimentBands = []Band{
	{Min: 0.35, MinOpen: true, Max: math.Inf(1), Direction: models.Buy, Level: models.ConvictionStrongest},
	{Min: 0.15, MinOpen: true, Max: 0.35, Direction: models.Buy, Level: models.ConvictionModerate},
	{Min: -0.15, Max: 0.15, Direction: models.Hold, Level: models.ConvictionStrongest},
	{Min: -0.35, Max: -0.15, MaxOpen: true, Direction: models.Sell, Level: models.ConvictionModerate},
	{Min: math.Inf(-1), Max: -0.35, MaxOpen: true, Direction: models.Sell, Level: models.ConvictionStrongest},
}

// ConsensusBands is the discrete table over the rounded analyst scale {-2..2}.
var ConsensusBands = []Band{
	{Min: 2, Max: 2, Direction: models.Buy, Level: models.ConvictionStrongest},
	{Min: 1, Max: 1, Direction: models.Buy, Level: models.ConvictionModerate},
	{Min: 0, Max: 0, Direction: models.Hold, Level: models.ConvictionStrongest},
	{Min: -1, Max: -1, Direction: models.Sell, Level: models.ConvictionModerate},
	{Min: -2, Max: -2, Direction: models.Sell, Level: models.ConvictionStrongest},
}

// Classifier maps scores through a band table and labels the conviction level.
type Classifier struct {
	bands    []Band
	labels   []string
	rounding Rounding
}

// NewClassifier checks that labels name every level used by bands.
func NewClassifier(bands []Band, labels []string, rounding Rounding) (*Classifier, error) {
	if len(bands) == 0 {
		return nil, &models.ConfigurationError{Field: "bands", Reason: "at least one band is required"}
	}
	for _, b := range bands {
		if b.Level < 0 || b.Level >= len(labels) {
			return nil, &models.ConfigurationError{
				Field:  "labels",
				Reason: fmt.Sprintf("no label for conviction level %d (have %d labels)", b.Level, len(labels)),
			}
		}
	}
	return &Classifier{
		bands:    append([]Band(nil), bands...),
		labels:   append([]string(nil), labels...),
		rounding: rounding,
	}, nil
}

// NewSentimentClassifier builds the continuous classifier.
func NewSentimentClassifier(labels []string) (*Classifier, error) {
	return NewClassifier(SentimentBands, labels, NoRounding)
}

// NewConsensusClassifier builds the analyst classifier on the rounded scale.
func NewConsensusClassifier(labels []string, rounding Rounding) (*Classifier, error) {
	if rounding == NoRounding {
		return nil, &models.ConfigurationError{Field: "signals.rounding", Reason: "consensus scores must be rounded"}
	}
	return NewClassifier(ConsensusBands, labels, rounding)
}

// Classify returns the band of score. An absent score (ok == false) stays
// absent; it is never classified as hold.
func (c *Classifier) Classify(score float64, ok bool) (models.Classification, bool) {
	if !ok {
		return models.Classification{}, false
	}
	x := c.rounding.apply(score)
	for _, b := range c.bands {
		if b.Contains(x) {
			return models.Classification{
				Direction:  b.Direction,
				Conviction: models.Conviction{Level: b.Level, Label: c.labels[b.Level]},
			}, true
		}
	}
	return models.Classification{}, false
}

var _ domsvc.ScoreClassifier = (*Classifier)(nil)
