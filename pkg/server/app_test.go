package server

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
	internalrepo "FinSignal/internal/repository"
	"FinSignal/internal/services/signals"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/config"
	applogger "FinSignal/pkg/logger"
)

type capturePublisher struct {
	tables []*models.SignalTable
}

func (p *capturePublisher) PublishRows(_ context.Context, t *models.SignalTable) error {
	p.tables = append(p.tables, t)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func writeReplay(t *testing.T, dir string) {
	t.Helper()
	docs := map[repository.FeedKind]string{
		repository.KindNewsSentiment: `{"feed": [{"ticker_sentiment": [{"ticker": "AAPL", "relevance_score": "1", "ticker_sentiment_score": "0.5"}]}]}`,
		repository.KindFundamentals:  `{"AAPL": {}}`,
		repository.KindWindowAnalytics: `{"STDDEV": {"payload": {"RETURNS_CALCULATIONS": {"STDDEV": {"RUNNING_STDDEV": {
			"AAPL": {"2024-01-02": "0.01"}}}}}}}`,
	}
	for kind, body := range docs {
		require.NoError(t, os.WriteFile(internalrepo.DocumentPath(dir, kind), []byte(body), 0o644))
	}
}

func newApp(t *testing.T, cfg *config.Config, pub repository.SignalPublisher) *App {
	t.Helper()
	sentClass, err := signals.NewSentimentClassifier(cfg.Signals.SentimentLabels)
	require.NoError(t, err)
	analystClass, err := signals.NewConsensusClassifier(cfg.Signals.AnalystLabels, signals.HalfAwayFromZero)
	require.NoError(t, err)
	builder := usecase.NewSignalTableBuilder(
		internalrepo.NewReplaySource(cfg.Feed.ReplayDir),
		signals.NewSentimentAggregator(),
		signals.NewFundamentalsNormalizer(),
		signals.NewVolatilityClassifier(),
		sentClass, analystClass,
	)
	return New(cfg, applogger.Nop(), builder, pub, nil)
}

func TestRunOnce_ReplayToCSV(t *testing.T) {
	dir := t.TempDir()
	writeReplay(t, dir)

	cfg := config.Default()
	cfg.Feed.ReplayDir = dir
	cfg.Universe.Tickers = []string{"AAPL", "MSFT"}
	cfg.Output.Format = "csv"
	pub := &capturePublisher{}

	var out bytes.Buffer
	table, err := newApp(t, cfg, pub).RunOnce(context.Background(), &out)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	aapl, _ := table.Row("AAPL")
	require.NotNil(t, aapl.SentimentScore)
	assert.Equal(t, 0.5, *aapl.SentimentScore)
	require.NotNil(t, aapl.HoldingPeriod)
	assert.Equal(t, 20, *aapl.HoldingPeriod)
	assert.Nil(t, aapl.Industry, "empty overview is absent")

	assert.Contains(t, out.String(), "AAPL,0.5,buy,strong")
	require.Len(t, pub.tables, 1)
}

func TestRunOnce_OutputFileAndDropEmpty(t *testing.T) {
	dir := t.TempDir()
	writeReplay(t, dir)

	cfg := config.Default()
	cfg.Feed.ReplayDir = dir
	cfg.Universe.Tickers = []string{"AAPL", "MSFT"}
	cfg.Output.Format = "json"
	cfg.Output.DropEmptyRows = true
	cfg.Output.Path = filepath.Join(t.TempDir(), "signals.json")

	table, err := newApp(t, cfg, nil).RunOnce(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	b, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"ticker": "AAPL"`)
	assert.NotContains(t, string(b), "MSFT")
}

func TestRunOnce_EmptyUniverse(t *testing.T) {
	cfg := config.Default()
	cfg.Feed.ReplayDir = t.TempDir()

	_, err := newApp(t, cfg, nil).RunOnce(context.Background(), &bytes.Buffer{})
	var cfgErr *models.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
