package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
)

func windowFeed(series map[string]map[string]models.Numeric) *models.WindowAnalyticsFeed {
	return &models.WindowAnalyticsFeed{Calculation: "STDDEV", Series: series}
}

func TestHoldingPeriod_Bands(t *testing.T) {
	feed := windowFeed(map[string]map[string]models.Numeric{
		"CALM":  {"2024-01-02": "0.019"},
		"MID":   {"2024-01-02": "0.03"},
		"WILD":  {"2024-01-02": "0.10"},
		"EDGE":  {"2024-01-02": "0.02"},
		"MIXED": {"2024-01-02": "0.01", "2024-01-03": "0.05"},
	})
	v := NewVolatilityClassifier()

	want := map[string]int{"CALM": 20, "MID": 10, "WILD": 5, "EDGE": 10, "MIXED": 10}
	for ticker, days := range want {
		got, ok, err := v.HoldingPeriod(feed, ticker, 20)
		require.NoError(t, err)
		require.True(t, ok, ticker)
		assert.Equal(t, days, got, ticker)
	}
}

func TestHoldingPeriodFor_IntegerDivision(t *testing.T) {
	assert.Equal(t, 7, HoldingPeriodFor(0.01, 7))
	assert.Equal(t, 3, HoldingPeriodFor(0.03, 7))
	assert.Equal(t, 1, HoldingPeriodFor(0.2, 7))
	assert.Equal(t, 5, HoldingPeriodFor(0.05, 20))
}

func TestHoldingPeriod_Absent(t *testing.T) {
	v := NewVolatilityClassifier()

	_, ok, err := v.HoldingPeriod(nil, "X", 20)
	require.NoError(t, err)
	assert.False(t, ok)

	feed := windowFeed(map[string]map[string]models.Numeric{"Y": {}})
	_, ok, err = v.HoldingPeriod(feed, "X", 20)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = v.HoldingPeriod(feed, "Y", 20)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHoldingPeriod_Errors(t *testing.T) {
	v := NewVolatilityClassifier()
	feed := windowFeed(map[string]map[string]models.Numeric{"X": {"2024-01-02": "0.01", "2024-01-03": "bad"}})

	_, ok, err := v.HoldingPeriod(feed, "X", 20)
	assert.False(t, ok)
	var perr *models.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "window_analytics", perr.Source)
	assert.Equal(t, "bad", perr.Value)

	_, _, err = v.HoldingPeriod(feed, "X", 0)
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
