package signals

import (
	"maps"
	"slices"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/services/features"
)

// Mean running-stddev thresholds separating calm, normal and volatile tickers.
const (
	LowVolatility  = 0.02
	HighVolatility = 0.05
)

// VolatilityClassifier turns running stddev samples into a holding period.
type VolatilityClassifier struct{}

func NewVolatilityClassifier() *VolatilityClassifier { return &VolatilityClassifier{} }

// HoldingPeriod averages the ticker's samples and bands the mean. ok is false
// when the ticker has no samples.
func (v *VolatilityClassifier) HoldingPeriod(feed *models.WindowAnalyticsFeed, ticker string, windowSize int) (int, bool, error) {
	if windowSize < 1 {
		return 0, false, &models.ConfigurationError{Field: "analytics.window_size", Reason: "must be positive"}
	}
	if feed == nil {
		return 0, false, nil
	}
	series := feed.Series[ticker]
	if len(series) == 0 {
		return 0, false, nil
	}

	samples := make([]float64, 0, len(series))
	for _, date := range slices.Sorted(maps.Keys(series)) {
		raw := series[date]
		x, err := raw.Float()
		if err != nil {
			return 0, false, &models.ParseError{
				Ticker: ticker,
				Source: "window_analytics",
				Field:  "RUNNING_STDDEV." + date,
				Value:  raw.String(),
				Err:    err,
			}
		}
		samples = append(samples, x)
	}

	mean, ok := features.Mean(samples)
	if !ok {
		return 0, false, nil
	}
	return HoldingPeriodFor(mean, windowSize), true, nil
}

// HoldingPeriodFor bands a mean stddev into trading days. Calm tickers are held
// for the whole window, volatile ones for a quarter of it.
func HoldingPeriodFor(meanStdDev float64, windowSize int) int {
	switch {
	case meanStdDev < LowVolatility:
		return windowSize
	case meanStdDev < HighVolatility:
		return windowSize / 2
	default:
		return windowSize / 4
	}
}

var _ domsvc.VolatilityClassifier = (*VolatilityClassifier)(nil)
