package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 20, c.Analytics.WindowSize)
	assert.Equal(t, []string{"STDDEV"}, c.Analytics.Calculations)
	assert.Equal(t, []string{"small", "strong"}, c.Signals.SentimentLabels)
	assert.Equal(t, []string{"good", "very strong"}, c.Signals.AnalystLabels)
	assert.Equal(t, "half_away_from_zero", c.Signals.Rounding)
	assert.Equal(t, "table", c.Output.Format)
	assert.False(t, c.Output.DropEmptyRows)
	assert.Equal(t, 15*time.Minute, c.Cache.NewsTTL)
	require.NotNil(t, c.Kafka.RequiredAcks)
	assert.Equal(t, -1, *c.Kafka.RequiredAcks)

	// no feed source configured
	assert.Error(t, c.Validate())
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
universe:
  tickers: [AAPL, MSFT]
feed:
  replay_dir: /tmp/feeds
analytics:
  window_size: 10
signals:
  rounding: half_to_even
output:
  format: csv
  drop_empty_rows: true
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, c.Universe.Tickers)
	assert.Equal(t, 10, c.Analytics.WindowSize)
	assert.Equal(t, "half_to_even", c.Signals.Rounding)
	assert.Equal(t, "csv", c.Output.Format)
	assert.True(t, c.Output.DropEmptyRows)
	assert.Equal(t, 8080, c.Server.Port)
}

func TestParse_ExplicitZeroAcksKept(t *testing.T) {
	c, err := Parse([]byte("feed: {replay_dir: x}\nkafka: {required_acks: 0}"))
	require.NoError(t, err)
	require.NotNil(t, c.Kafka.RequiredAcks)
	assert.Equal(t, 0, *c.Kafka.RequiredAcks)

	c, err = Parse([]byte("feed: {replay_dir: x}\nkafka: {required_acks: 1}"))
	require.NoError(t, err)
	assert.Equal(t, 1, *c.Kafka.RequiredAcks)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no feed source", "universe: {tickers: [AAPL]}"},
		{"bad window", "feed: {replay_dir: x}\nanalytics: {window_size: -1}"},
		{"bad rounding", "feed: {replay_dir: x}\nsignals: {rounding: none}"},
		{"bad format", "feed: {replay_dir: x}\noutput: {format: xml}"},
		{"one label", "feed: {replay_dir: x}\nsignals: {sentiment_labels: [only]}"},
		{"kafka without brokers", "feed: {replay_dir: x}\nkafka: {enabled: true}"},
		{"not yaml", "feed: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("universe: {tickers: [AAPL]}\n"), 0o644))

	t.Setenv("ALPHAVANTAGE_API_KEY", "demo")
	t.Setenv("TICKERS", "IBM, TSLA ,")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", c.Feed.APIKey)
	assert.Equal(t, []string{"IBM", "TSLA"}, c.Universe.Tickers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestLoadWithEnv_NoFile(t *testing.T) {
	t.Setenv("REPLAY_DIR", "/tmp/feeds")
	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/feeds", c.Feed.ReplayDir)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a,,b "))
	assert.Empty(t, SplitList(""))
}
